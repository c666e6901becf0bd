package store

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ruslano69/stockreport/pkg/report"
)

// Number converts a driver value into a nullable number. Drivers hand out
// NUMERIC/DECIMAL as text or bytes; those are parsed. Anything that does not
// parse becomes absent.
func Number(v any) report.Number {
	switch x := v.(type) {
	case nil:
		return report.Number{}
	case float64:
		return finite(x)
	case float32:
		return finite(float64(x))
	case int64:
		return report.NewNumber(float64(x))
	case int32:
		return report.NewNumber(float64(x))
	case int16:
		return report.NewNumber(float64(x))
	case int8:
		return report.NewNumber(float64(x))
	case int:
		return report.NewNumber(float64(x))
	case uint64:
		return report.NewNumber(float64(x))
	case uint32:
		return report.NewNumber(float64(x))
	case bool:
		if x {
			return report.NewNumber(1)
		}
		return report.NewNumber(0)
	case []byte:
		return parseNumber(string(x))
	case string:
		return parseNumber(x)
	case fmt.Stringer:
		return parseNumber(x.String())
	}
	return report.Number{}
}

func finite(f float64) report.Number {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return report.Number{}
	}
	return report.NewNumber(f)
}

func parseNumber(s string) report.Number {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return report.Number{}
	}
	return finite(f)
}

// Text converts a driver value into nullable text. Timestamps become RFC3339
// in UTC.
func Text(v any) report.Text {
	switch x := v.(type) {
	case nil:
		return report.Text{}
	case string:
		return report.NewText(x)
	case []byte:
		return report.NewText(string(x))
	case time.Time:
		return report.TimeText(x)
	case float64:
		return report.NewText(strconv.FormatFloat(x, 'f', -1, 64))
	case int64:
		return report.NewText(strconv.FormatInt(x, 10))
	}
	return report.NewText(fmt.Sprint(v))
}

// InventoryFromRow maps a row scanned in InventoryColumns order.
func InventoryFromRow(vals []any) (report.InventoryRecord, error) {
	if len(vals) != len(InventoryColumns) {
		return report.InventoryRecord{}, fmt.Errorf("store: inventory row has %d columns, want %d", len(vals), len(InventoryColumns))
	}
	return report.InventoryRecord{
		IDStock:            Number(vals[0]),
		ProductName:        Text(vals[1]),
		Options:            Text(vals[2]),
		SalePriceGross:     Number(vals[3]),
		PurchasePriceNet:   Number(vals[4]),
		PurchasePriceGross: Number(vals[5]),
		StockQuantity:      Number(vals[6]),
		EAN13:              Text(vals[7]),
		ProductGroup:       Text(vals[8]),
	}, nil
}

// SalesFromRow maps a row scanned in SalesColumns order.
func SalesFromRow(vals []any) (report.SalesRecord, error) {
	if len(vals) != len(SalesColumns) {
		return report.SalesRecord{}, fmt.Errorf("store: sales row has %d columns, want %d", len(vals), len(SalesColumns))
	}
	return report.SalesRecord{
		Reference:        Text(vals[0]),
		UnitPriceTaxIncl: Number(vals[1]),
		ProductQuantity:  Number(vals[2]),
		TotalPriceGross:  Number(vals[3]),
		DateAdd:          dateText(vals[4]),
		ProductName:      Text(vals[5]),
		StockQuantity:    Number(vals[6]),
		Discount:         Number(vals[7]),
	}, nil
}

// dateText normalizes stored timestamps to RFC3339 when they parse, so the
// API ships one layout whatever the backend.
func dateText(v any) report.Text {
	t := Text(v)
	if !t.Valid {
		return t
	}
	if ts, ok := t.Value().Time(); ok {
		return report.TimeText(ts)
	}
	return t
}
