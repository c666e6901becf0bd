package report

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatCurrency renders f with two decimals, a comma separator and the
// currency suffix: 12.5 -> "12,50 zł".
func FormatCurrency(f float64, currency string) string {
	s := strings.Replace(strconv.FormatFloat(f, 'f', 2, 64), ".", ",", 1)
	return withCurrency(s, currency)
}

// FormatDecimal is FormatCurrency for summed totals.
func FormatDecimal(d decimal.Decimal, currency string) string {
	s := strings.Replace(d.StringFixed(2), ".", ",", 1)
	return withCurrency(s, currency)
}

func withCurrency(s, currency string) string {
	if currency == "" {
		return s
	}
	return s + " " + currency
}

// FormatPercent renders a discount: present and positive values become a
// rounded integer with "%", anything else a dash.
func FormatPercent(v Value) string {
	f, ok := v.Float()
	if v.IsNull() || !ok || f <= 0 {
		return "-"
	}
	return strconv.FormatFloat(math.Round(f), 'f', 0, 64) + "%"
}

// FormatDate renders the calendar date (YYYY-MM-DD, UTC) of a timestamp cell.
func FormatDate(v Value) (string, bool) {
	t, ok := v.Time()
	if !ok {
		return "", false
	}
	return t.Format("2006-01-02"), true
}

func moneyFormatter(currency, placeholder string) func(Value) string {
	return func(v Value) string {
		f, ok := v.Float()
		if !ok {
			return placeholder
		}
		return FormatCurrency(f, currency)
	}
}

func plainFormatter(placeholder string) func(Value) string {
	return func(v Value) string {
		if v.IsNull() {
			return placeholder
		}
		return v.String()
	}
}

// nonEmptyFormatter also hides empty strings (options, barcodes).
func nonEmptyFormatter(placeholder string) func(Value) string {
	return func(v Value) string {
		if v.IsNull() || v.String() == "" {
			return placeholder
		}
		return v.String()
	}
}

func dateFormatter(placeholder string) func(Value) string {
	return func(v Value) string {
		if s, ok := FormatDate(v); ok {
			return s
		}
		return placeholder
	}
}
