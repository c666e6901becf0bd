package report

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
)

// Kind selects how a column is compared.
type Kind int

const (
	KindText Kind = iota
	KindNumeric
	KindDate
)

// Column describes one report column: how to read it, compare it and
// print it.
type Column[R Record] struct {
	Key    string
	Label  string
	Kind   Kind
	Hidden bool // sortable but not rendered
	Money  bool // rendered with the currency formatter
	Get    func(R) Value
	Format func(Value) string
}

// Options tunes the presentation of a schema.
type Options struct {
	Currency string       // suffix for money cells, e.g. "zł"
	Language language.Tag // collation for text columns
}

// DefaultOptions mirrors the shop the dashboard was built for.
func DefaultOptions() Options {
	return Options{Currency: "zł", Language: language.Polish}
}

// Schema is the fixed column set of one report. It doubles as the
// formatter dispatch table: cells are formatted by column key.
type Schema[R Record] struct {
	Name        string
	Title       string
	Placeholder string
	DefaultSort SortState
	// TotalColumn is summed in the footer; empty means no footer.
	TotalColumn string
	TotalLabel  string
	// Empty is shown instead of the table when there are no rows.
	Empty string

	columns  []Column[R]
	index    map[string]int
	language language.Tag
	currency string
}

func newSchema[R Record](name, title, placeholder string, def SortState, opts Options, cols []Column[R]) *Schema[R] {
	s := &Schema[R]{
		Name:        name,
		Title:       title,
		Placeholder: placeholder,
		DefaultSort: def,
		columns:     cols,
		index:       make(map[string]int, len(cols)),
		language:    opts.Language,
		currency:    opts.Currency,
	}
	for i, c := range cols {
		s.index[c.Key] = i
	}
	return s
}

// Columns returns all columns, hidden ones included.
func (s *Schema[R]) Columns() []Column[R] {
	return s.columns
}

// Visible returns the columns in display order.
func (s *Schema[R]) Visible() []Column[R] {
	out := make([]Column[R], 0, len(s.columns))
	for _, c := range s.columns {
		if !c.Hidden {
			out = append(out, c)
		}
	}
	return out
}

// Lookup finds a column by key.
func (s *Schema[R]) Lookup(key string) (Column[R], bool) {
	i, ok := s.index[key]
	if !ok {
		return Column[R]{}, false
	}
	return s.columns[i], true
}

// Cell formats the value of key in r. Unknown keys render the placeholder.
func (s *Schema[R]) Cell(r R, key string) string {
	c, ok := s.Lookup(key)
	if !ok {
		return s.Placeholder
	}
	return c.Format(c.Get(r))
}

// Sort orders rows by the given state. An unknown column keeps fetch order.
func (s *Schema[R]) Sort(rows []R, st SortState) []R {
	c, ok := s.Lookup(st.Column)
	if !ok {
		return Sort(rows, Column[R]{}, None, s.language)
	}
	return Sort(rows, c, st.Direction, s.language)
}

// Total sums TotalColumn over rows. Absent values count as zero.
func (s *Schema[R]) Total(rows []R) (decimal.Decimal, bool) {
	c, ok := s.Lookup(s.TotalColumn)
	if !ok {
		return decimal.Zero, false
	}
	sum := decimal.Zero
	for _, r := range rows {
		if f, ok := c.Get(r).Float(); ok {
			sum = sum.Add(decimal.NewFromFloat(f))
		}
	}
	return sum, true
}

// Currency is the suffix of money cells.
func (s *Schema[R]) Currency() string {
	return s.currency
}

// FormatTotal renders a footer total with the money formatter.
func (s *Schema[R]) FormatTotal(d decimal.Decimal) string {
	return FormatDecimal(d, s.currency)
}

// InventorySchema builds the stock report. Column order follows the screen.
func InventorySchema(opts Options) *Schema[InventoryRecord] {
	const dash = "-"
	money := moneyFormatter(opts.Currency, dash)
	plain := plainFormatter(dash)
	nonEmpty := nonEmptyFormatter(dash)

	cols := []Column[InventoryRecord]{
		{Key: ColIDStock, Label: "ID", Kind: KindNumeric, Hidden: true,
			Get: func(r InventoryRecord) Value { return r.IDStock.Value() }, Format: plain},
		{Key: ColProductName, Label: "NAZWA PRODUKTU", Kind: KindText,
			Get: func(r InventoryRecord) Value { return r.ProductName.Value() }, Format: plain},
		{Key: ColOptions, Label: "OPCJE", Kind: KindText,
			Get: func(r InventoryRecord) Value { return r.Options.Value() }, Format: nonEmpty},
		{Key: ColProductGroup, Label: "GRUPA TOWAROWA", Kind: KindText,
			Get: func(r InventoryRecord) Value { return r.ProductGroup.Value() }, Format: plain},
		{Key: ColSalePriceGross, Label: "CENA SPRZEDAŻY BRUTTO", Kind: KindNumeric, Money: true,
			Get: func(r InventoryRecord) Value { return r.SalePriceGross.Value() }, Format: money},
		{Key: ColPurchasePriceNet, Label: "CENA ZAKUPU NETTO", Kind: KindNumeric, Money: true,
			Get: func(r InventoryRecord) Value { return r.PurchasePriceNet.Value() }, Format: money},
		{Key: ColPurchasePriceGross, Label: "CENA ZAKUPU BRUTTO", Kind: KindNumeric, Money: true,
			Get: func(r InventoryRecord) Value { return r.PurchasePriceGross.Value() }, Format: money},
		{Key: ColStockQuantity, Label: "STAN MAGAZYNOWY", Kind: KindNumeric,
			Get: func(r InventoryRecord) Value { return r.StockQuantity.Value() }, Format: plain},
		{Key: ColEAN13, Label: "EAN13", Kind: KindText,
			Get: func(r InventoryRecord) Value { return r.EAN13.Value() }, Format: nonEmpty},
	}

	s := newSchema("inventory", "Stan magazynowy", dash,
		SortState{Column: ColProductName, Direction: Asc}, opts, cols)
	s.Empty = "No inventory data available."
	return s
}

// SalesSchema builds the sales report.
func SalesSchema(opts Options) *Schema[SalesRecord] {
	const na = "N/A"
	money := moneyFormatter(opts.Currency, na)
	plain := plainFormatter(na)

	cols := []Column[SalesRecord]{
		{Key: ColReference, Label: "REFERENCE", Kind: KindText,
			Get: func(r SalesRecord) Value { return r.Reference.Value() }, Format: plain},
		{Key: ColDateAdd, Label: "DATA", Kind: KindDate,
			Get: func(r SalesRecord) Value { return r.DateAdd.Value() }, Format: dateFormatter(na)},
		{Key: ColSalesProductName, Label: "PRODUKT", Kind: KindText,
			Get: func(r SalesRecord) Value { return r.ProductName.Value() }, Format: plain},
		{Key: ColUnitPriceTaxIncl, Label: "CENA JEDN.", Kind: KindNumeric, Money: true,
			Get: func(r SalesRecord) Value { return r.UnitPriceTaxIncl.Value() }, Format: money},
		{Key: ColProductQuantity, Label: "ILOŚĆ", Kind: KindNumeric,
			Get: func(r SalesRecord) Value { return r.ProductQuantity.Value() }, Format: plain},
		{Key: ColDiscount, Label: "RABAT", Kind: KindNumeric,
			Get: func(r SalesRecord) Value { return r.Discount.Value() }, Format: FormatPercent},
		{Key: ColTotalPriceGross, Label: "WARTOŚĆ BRUTTO", Kind: KindNumeric, Money: true,
			Get: func(r SalesRecord) Value { return r.TotalPriceGross.Value() }, Format: money},
		{Key: ColRemainingStock, Label: "POZOSTAŁO", Kind: KindNumeric,
			Get: func(r SalesRecord) Value { return r.StockQuantity.Value() }, Format: plain},
	}

	s := newSchema("sales", "Raport sprzedaży", na,
		SortState{Column: ColDateAdd, Direction: Desc}, opts, cols)
	s.TotalColumn = ColTotalPriceGross
	s.TotalLabel = "Całkowita wartość sprzedaży brutto"
	s.Empty = "No sales data available for the selected period."
	return s
}
