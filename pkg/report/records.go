// Package report defines the two fixed-schema reports (inventory and sales),
// their typed records, the sort engine and the cell formatters.
package report

import "time"

// Inventory column keys. They match the column names the store returns.
const (
	ColIDStock            = "id_stock"
	ColProductName        = "nazwa_produktu"
	ColOptions            = "opcje"
	ColSalePriceGross     = "cena_sprzedazy_brutto"
	ColPurchasePriceNet   = "cena_zakupu_netto"
	ColPurchasePriceGross = "cena_zakupu_brutto"
	ColStockQuantity      = "stan_magazynowy"
	ColEAN13              = "ean13"
	ColProductGroup       = "grupa_towarowa"
)

// Sales column keys.
const (
	ColReference        = "reference"
	ColDateAdd          = "date_add"
	ColSalesProductName = "product_name"
	ColUnitPriceTaxIncl = "unit_price_tax_incl"
	ColProductQuantity  = "product_quantity"
	ColDiscount         = "rabat"
	ColTotalPriceGross  = "total_price_brutto"
	ColRemainingStock   = "stock_quantity"
)

// InventoryRecord is one row of the stock report.
type InventoryRecord struct {
	IDStock            Number `json:"id_stock"`
	ProductName        Text   `json:"nazwa_produktu"`
	Options            Text   `json:"opcje"`
	SalePriceGross     Number `json:"cena_sprzedazy_brutto"`
	PurchasePriceNet   Number `json:"cena_zakupu_netto"`
	PurchasePriceGross Number `json:"cena_zakupu_brutto"`
	StockQuantity      Number `json:"stan_magazynowy"`
	EAN13              Text   `json:"ean13"`
	ProductGroup       Text   `json:"grupa_towarowa"`
}

// SalesRecord is one order line of the sales report.
// DateAdd carries the timestamp as text (RFC3339 when produced by the store).
type SalesRecord struct {
	Reference        Text   `json:"reference"`
	UnitPriceTaxIncl Number `json:"unit_price_tax_incl"`
	ProductQuantity  Number `json:"product_quantity"`
	TotalPriceGross  Number `json:"total_price_brutto"`
	DateAdd          Text   `json:"date_add"`
	ProductName      Text   `json:"product_name"`
	StockQuantity    Number `json:"stock_quantity"`
	Discount         Number `json:"rabat"`
}

// Record is the closed set of report row types.
type Record interface {
	InventoryRecord | SalesRecord
}

// TimeText renders a timestamp the way the API ships it.
func TimeText(t time.Time) Text {
	if t.IsZero() {
		return Text{}
	}
	return NewText(t.UTC().Format(time.RFC3339))
}
