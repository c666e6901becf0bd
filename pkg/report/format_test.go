package report

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestFormatPercent(t *testing.T) {
	tests := []struct {
		name string
		in   Value
		want string
	}{
		{"zero", Num(0), "-"},
		{"rounded up", Num(15.6), "16%"},
		{"rounded down", Num(15.4), "15%"},
		{"half", Num(2.5), "3%"},
		{"negative", Num(-5), "-"},
		{"null", Null(), "-"},
		{"numeric text", Str("7.2"), "7%"},
		{"garbage", Str("abc"), "-"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatPercent(tt.in); got != tt.want {
				t.Errorf("FormatPercent(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{12.5, "12,50 zł"},
		{0, "0,00 zł"},
		{1234.567, "1234,57 zł"},
		{-3.1, "-3,10 zł"},
	}
	for _, tt := range tests {
		if got := FormatCurrency(tt.in, "zł"); got != tt.want {
			t.Errorf("FormatCurrency(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if got := FormatCurrency(1, ""); got != "1,00" {
		t.Errorf("no currency: got %q", got)
	}
}

func TestFormatDate(t *testing.T) {
	got, ok := FormatDate(Str("2024-05-01T22:15:00Z"))
	if !ok || got != "2024-05-01" {
		t.Errorf("got %q, %v", got, ok)
	}
	if _, ok := FormatDate(Str("yesterday-ish")); ok {
		t.Error("invalid date must not format")
	}
	if _, ok := FormatDate(Null()); ok {
		t.Error("null must not format")
	}
}

func TestInventoryCells(t *testing.T) {
	s := InventorySchema(DefaultOptions())
	r := InventoryRecord{
		ProductName:    NewText("Wódka"),
		Options:        NewText(""),
		SalePriceGross: NewNumber(49.9),
		StockQuantity:  NewNumber(12),
	}

	tests := map[string]string{
		ColProductName:      "Wódka",
		ColOptions:          "-",
		ColProductGroup:     "-",
		ColSalePriceGross:   "49,90 zł",
		ColPurchasePriceNet: "-",
		ColStockQuantity:    "12",
		ColEAN13:            "-",
		"no_such_column":    "-",
	}
	for key, want := range tests {
		if got := s.Cell(r, key); got != want {
			t.Errorf("Cell(%s) = %q, want %q", key, got, want)
		}
	}
}

func TestSalesCells(t *testing.T) {
	s := SalesSchema(DefaultOptions())
	r := SalesRecord{
		Reference:        NewText("XKBKNABJK"),
		DateAdd:          NewText("2024-05-01T10:00:00Z"),
		UnitPriceTaxIncl: NewNumber(12.5),
		ProductQuantity:  NewNumber(2),
		Discount:         NewNumber(0),
	}

	tests := map[string]string{
		ColReference:        "XKBKNABJK",
		ColDateAdd:          "2024-05-01",
		ColUnitPriceTaxIncl: "12,50 zł",
		ColProductQuantity:  "2",
		ColDiscount:         "-",
		ColTotalPriceGross:  "N/A",
		ColSalesProductName: "N/A",
	}
	for key, want := range tests {
		if got := s.Cell(r, key); got != want {
			t.Errorf("Cell(%s) = %q, want %q", key, got, want)
		}
	}
}

func TestSalesTotal(t *testing.T) {
	s := SalesSchema(DefaultOptions())
	rows := []SalesRecord{
		{TotalPriceGross: NewNumber(0.1)},
		{TotalPriceGross: NewNumber(0.2)},
		{},
		{TotalPriceGross: NewNumber(10)},
	}

	sum, ok := s.Total(rows)
	if !ok {
		t.Fatal("sales report must have a total")
	}
	if !sum.Equal(decimal.RequireFromString("10.3")) {
		t.Errorf("sum = %s", sum)
	}
	if got := s.FormatTotal(sum); got != "10,30 zł" {
		t.Errorf("FormatTotal = %q", got)
	}

	if _, ok := InventorySchema(DefaultOptions()).Total(nil); ok {
		t.Error("inventory has no footer total")
	}
}

func TestNumber_JSON(t *testing.T) {
	var r InventoryRecord
	data := `{"id_stock": 7, "cena_sprzedazy_brutto": "19.99", "cena_zakupu_netto": null, "ean13": 590123}`
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !r.IDStock.Valid || r.IDStock.Float != 7 {
		t.Errorf("id_stock = %+v", r.IDStock)
	}
	if !r.SalePriceGross.Valid || r.SalePriceGross.Float != 19.99 {
		t.Errorf("numeric string = %+v", r.SalePriceGross)
	}
	if r.PurchasePriceNet.Valid {
		t.Error("null must stay invalid")
	}
	if r.ProductName.Valid {
		t.Error("missing field must stay invalid")
	}
	if r.EAN13.String != "590123" {
		t.Errorf("numeric ean = %q", r.EAN13.String)
	}

	out, err := json.Marshal(SalesRecord{Discount: NewNumber(15.5)})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var back map[string]any
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("Unmarshal back: %v", err)
	}
	if back["rabat"] != 15.5 || back["reference"] != nil {
		t.Errorf("marshalled = %s", out)
	}
}
