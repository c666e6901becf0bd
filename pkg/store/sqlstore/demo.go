package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"
)

type demoProduct struct {
	id       int
	name     string
	options  any
	sale     any
	net      float64
	gross    float64
	quantity int
	ean      any
	group    string
}

var demoInventory = []demoProduct{
	{1, "Kawa ziarnista 1kg", "Arabica", 79.99, 41.20, 50.68, 24, "5901234123457", "Napoje"},
	{2, "Herbata czarna 100 szt.", "", 18.49, 8.10, 9.96, 61, "5900001000012", "Napoje"},
	{3, "Czekolada gorzka", "70%", 7.99, 3.35, 4.12, 140, nil, "Słodycze"},
	{4, "Ćwiczenia z gramatyki", nil, 34.90, 19.00, 19.95, 3, "9788301000011", "Książki"},
	{5, "Żelki owocowe", "Bez cukru", 5.49, 2.10, 2.58, 0, "5907000000093", "Słodycze"},
	{6, "Atrament niebieski", nil, nil, 6.40, 7.87, 12, nil, "Biuro"},
	{7, "Zeszyt A5 w kratkę", "60 kartek", 4.20, 1.30, 1.60, 410, "5902000000007", "Biuro"},
	{8, "Łyżeczka do herbaty", nil, 12.00, 4.00, 4.92, 18, "", "Dom"},
}

type demoSale struct {
	ref      string
	product  string
	unit     float64
	quantity int
	discount float64
	daysAgo  int
	hour     int
	stock    any
	noTotal  bool
}

var demoSales = []demoSale{
	{"XKBKNABJK", "Kawa ziarnista 1kg", 79.99, 2, 0, 0, 9, 24, false},
	{"OHSATSERP", "Czekolada gorzka", 7.99, 5, 10, 0, 11, 140, false},
	{"UOYEVOLI", "Zeszyt A5 w kratkę", 4.20, 12, 0, 0, 1, 410, true},
	{"FFATNOMMJ", "Herbata czarna 100 szt.", 18.49, 1, 15.6, 1, 16, 61, false},
	{"KHWLILZLL", "Żelki owocowe", 5.49, 3, 0, 1, 8, 0, false},
	{"ZRIIJMGNH", "Ćwiczenia z gramatyki", 34.90, 1, 5, 6, 13, 3, false},
	{"IOPDJYEUL", "Łyżeczka do herbaty", 12.00, 4, 0, 21, 10, nil, false},
	{"QWDMTRPLA", "Kawa ziarnista 1kg", 79.99, 1, 20, 45, 12, 24, false},
}

// Seed creates the report tables and fills them with demo rows dated
// relative to now. Only the sqlite backend supports it.
func (s *Store) Seed(ctx context.Context, now time.Time) error {
	if s.cfg.Type != "sqlite" {
		return fmt.Errorf("sqlstore: seed is not supported for %s", s.cfg.Type)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlstore: seed: %w", err)
	}
	defer tx.Rollback()

	if err := s.seedInventory(ctx, tx); err != nil {
		return fmt.Errorf("sqlstore: seed inventory: %w", err)
	}
	if err := s.seedSales(ctx, tx, now); err != nil {
		return fmt.Errorf("sqlstore: seed sales: %w", err)
	}
	return tx.Commit()
}

func (s *Store) seedInventory(ctx context.Context, tx *sql.Tx) error {
	table := s.dialect.Table(s.cfg.InventoryTable)
	ddl := `CREATE TABLE IF NOT EXISTS ` + table + ` (
		id_stock INTEGER PRIMARY KEY,
		nazwa_produktu TEXT,
		opcje TEXT,
		cena_sprzedazy_brutto REAL,
		cena_zakupu_netto REAL,
		cena_zakupu_brutto REAL,
		stan_magazynowy INTEGER,
		ean13 TEXT,
		grupa_towarowa TEXT
	)`
	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		return err
	}

	ins := `INSERT OR REPLACE INTO ` + table + ` VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, p := range demoInventory {
		if _, err := tx.ExecContext(ctx, ins,
			p.id, p.name, p.options, p.sale, p.net, p.gross, p.quantity, p.ean, p.group); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) seedSales(ctx context.Context, tx *sql.Tx, now time.Time) error {
	table := s.dialect.Table(s.cfg.SalesTable)
	ddl := `CREATE TABLE IF NOT EXISTS ` + table + ` (
		reference TEXT PRIMARY KEY,
		unit_price_tax_incl REAL,
		product_quantity INTEGER,
		total_price_brutto REAL,
		date_add TEXT,
		product_name TEXT,
		stock_quantity INTEGER,
		rabat REAL
	)`
	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		return err
	}

	u := now.UTC()
	day := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)

	ins := `INSERT OR REPLACE INTO ` + table + ` VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	for _, d := range demoSales {
		at := day.AddDate(0, 0, -d.daysAgo).Add(time.Duration(d.hour) * time.Hour)
		var total any
		if !d.noTotal {
			gross := d.unit * float64(d.quantity) * (1 - d.discount/100)
			total = math.Round(gross*100) / 100
		}
		if _, err := tx.ExecContext(ctx, ins,
			d.ref, d.unit, d.quantity, total, s.dialect.BindTime(at), d.product, d.stock, d.discount); err != nil {
			return err
		}
	}
	return nil
}
