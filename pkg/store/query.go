package store

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ruslano69/stockreport/pkg/report"
)

// InventoryColumns is the select list of the stock report, in scan order.
var InventoryColumns = []string{
	report.ColIDStock,
	report.ColProductName,
	report.ColOptions,
	report.ColSalePriceGross,
	report.ColPurchasePriceNet,
	report.ColPurchasePriceGross,
	report.ColStockQuantity,
	report.ColEAN13,
	report.ColProductGroup,
}

// SalesColumns is the select list of the sales report, in scan order.
var SalesColumns = []string{
	report.ColReference,
	report.ColUnitPriceTaxIncl,
	report.ColProductQuantity,
	report.ColTotalPriceGross,
	report.ColDateAdd,
	report.ColSalesProductName,
	report.ColRemainingStock,
	report.ColDiscount,
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// ValidateTable accepts "table" or "schema.table" made of plain identifiers.
func ValidateTable(name string) error {
	if !identRe.MatchString(name) {
		return fmt.Errorf("store: invalid table name %q", name)
	}
	return nil
}

// Dialect holds the SQL differences between backends.
type Dialect struct {
	// Placeholder returns the n-th bind marker, n starting at 1.
	Placeholder func(n int) string
	// Quote wraps one identifier.
	Quote func(ident string) string
	// BindTime converts a filter bound into a driver argument.
	BindTime func(t time.Time) any
}

// Postgres uses $n markers and double quotes.
var Postgres = Dialect{
	Placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
	Quote:       doubleQuote,
	BindTime:    func(t time.Time) any { return t },
}

// SQLite stores timestamps as text, so bounds are bound in the same layout
// to keep the comparison lexical.
var SQLite = Dialect{
	Placeholder: func(int) string { return "?" },
	Quote:       doubleQuote,
	BindTime:    func(t time.Time) any { return t.UTC().Format("2006-01-02 15:04:05") },
}

// MySQL uses ? markers and backticks.
var MySQL = Dialect{
	Placeholder: func(int) string { return "?" },
	Quote:       func(s string) string { return "`" + strings.ReplaceAll(s, "`", "``") + "`" },
	BindTime:    func(t time.Time) any { return t.UTC() },
}

// MSSQL uses @pN markers and brackets.
var MSSQL = Dialect{
	Placeholder: func(n int) string { return "@p" + strconv.Itoa(n) },
	Quote:       func(s string) string { return "[" + strings.ReplaceAll(s, "]", "]]") + "]" },
	BindTime:    func(t time.Time) any { return t.UTC() },
}

func doubleQuote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// Table quotes a possibly schema-qualified table name.
func (d Dialect) Table(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = d.Quote(p)
	}
	return strings.Join(parts, ".")
}

func (d Dialect) columns(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = d.Quote(c)
	}
	return strings.Join(quoted, ", ")
}

// InventoryQuery builds the stock SELECT.
func (d Dialect) InventoryQuery(table string) string {
	return "SELECT " + d.columns(InventoryColumns) + " FROM " + d.Table(table)
}

// SalesQuery builds the sales SELECT for the half-open range [from, to).
// Zero bounds are omitted.
func (d Dialect) SalesQuery(table string, from, to time.Time) (string, []any) {
	var (
		where []string
		args  []any
	)
	dateCol := d.Quote(report.ColDateAdd)
	if !from.IsZero() {
		args = append(args, d.BindTime(from))
		where = append(where, dateCol+" >= "+d.Placeholder(len(args)))
	}
	if !to.IsZero() {
		args = append(args, d.BindTime(to))
		where = append(where, dateCol+" < "+d.Placeholder(len(args)))
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(d.columns(SalesColumns))
	b.WriteString(" FROM ")
	b.WriteString(d.Table(table))
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY ")
	b.WriteString(dateCol)
	b.WriteString(" DESC")
	return b.String(), args
}
