package store

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/ruslano69/stockreport/pkg/report"
)

type fakeStore struct{ closed bool }

func (f *fakeStore) Inventory(context.Context) ([]report.InventoryRecord, error) { return nil, nil }
func (f *fakeStore) Sales(context.Context, report.DateFilter) ([]report.SalesRecord, error) {
	return nil, nil
}
func (f *fakeStore) Ping(context.Context) error { return nil }
func (f *fakeStore) Close() error              { f.closed = true; return nil }

func TestOpen_Registry(t *testing.T) {
	var got Config
	Register("fake", func(_ context.Context, cfg Config) (Store, error) {
		got = cfg
		return &fakeStore{}, nil
	})

	s, err := Open(context.Background(), Config{Type: "fake", DSN: "x"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, ok := s.(*fakeStore); !ok {
		t.Fatalf("unexpected store %T", s)
	}
	if got.InventoryTable != DefaultInventoryTable || got.SalesTable != DefaultSalesTable {
		t.Errorf("defaults not applied: %+v", got)
	}
	if got.Now == nil {
		t.Error("clock not set")
	}

	found := false
	for _, name := range Types() {
		if name == "fake" {
			found = true
		}
	}
	if !found {
		t.Errorf("Types() = %v", Types())
	}
}

func TestOpen_Errors(t *testing.T) {
	Register("broken", func(context.Context, Config) (Store, error) {
		return nil, errors.New("refused")
	})

	tests := []struct {
		name   string
		cfg    Config
		want   string
		config bool
	}{
		{"no type", Config{}, "type is required", true},
		{"unknown", Config{Type: "oracle"}, "unknown type", true},
		{"bad table", Config{Type: "broken", SalesTable: "x; DROP TABLE y"}, "invalid table", true},
		{"connect", Config{Type: "broken"}, "refused", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(context.Background(), tt.cfg)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("got %v, want error containing %q", err, tt.want)
			}
			if errors.Is(err, ErrConfig) != tt.config {
				t.Errorf("errors.Is(ErrConfig) = %v, want %v", !tt.config, tt.config)
			}
		})
	}
}

func TestValidateTable(t *testing.T) {
	for _, ok := range []string{"stan_magazynowy", "public.raport_sprzedazy", "_t1"} {
		if err := ValidateTable(ok); err != nil {
			t.Errorf("%q: %v", ok, err)
		}
	}
	for _, bad := range []string{"", "1table", "a.b.c", "t;--", `t"x`, "a b"} {
		if err := ValidateTable(bad); err == nil {
			t.Errorf("%q accepted", bad)
		}
	}
}

func TestSalesQuery(t *testing.T) {
	day := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		d        Dialect
		from, to time.Time
		where    string
		args     int
	}{
		{"postgres all", Postgres, time.Time{}, time.Time{}, "", 0},
		{"postgres today", Postgres, day, day.AddDate(0, 0, 1), ` WHERE "date_add" >= $1 AND "date_add" < $2`, 2},
		{"postgres month", Postgres, day, time.Time{}, ` WHERE "date_add" >= $1`, 1},
		{"mysql today", MySQL, day, day.AddDate(0, 0, 1), " WHERE `date_add` >= ? AND `date_add` < ?", 2},
		{"mssql today", MSSQL, day, day.AddDate(0, 0, 1), " WHERE [date_add] >= @p1 AND [date_add] < @p2", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, args := tt.d.SalesQuery("raport_sprzedazy", tt.from, tt.to)
			if len(args) != tt.args {
				t.Fatalf("args = %v", args)
			}
			if tt.where != "" && !strings.Contains(q, tt.where) {
				t.Errorf("query %q lacks %q", q, tt.where)
			}
			if tt.where == "" && strings.Contains(q, "WHERE") {
				t.Errorf("unexpected WHERE in %q", q)
			}
			if !strings.HasSuffix(q, "DESC") || !strings.Contains(q, "ORDER BY") {
				t.Errorf("query %q must order newest first", q)
			}
		})
	}
}

func TestSQLiteBindsTextBounds(t *testing.T) {
	day := time.Date(2024, 5, 10, 0, 0, 0, 0, time.FixedZone("X", 3600))
	_, args := SQLite.SalesQuery("t", day, time.Time{})
	if args[0] != "2024-05-09 23:00:00" {
		t.Errorf("bound = %v", args[0])
	}
}

func TestDialectTable(t *testing.T) {
	if got := Postgres.Table("public.stan_magazynowy"); got != `"public"."stan_magazynowy"` {
		t.Errorf("postgres: %s", got)
	}
	if got := MSSQL.Table("dbo.t"); got != "[dbo].[t]" {
		t.Errorf("mssql: %s", got)
	}
	q := MySQL.InventoryQuery("stan_magazynowy")
	if !strings.HasPrefix(q, "SELECT `id_stock`, `nazwa_produktu`") || !strings.HasSuffix(q, "FROM `stan_magazynowy`") {
		t.Errorf("inventory query: %s", q)
	}
}

func TestNumber(t *testing.T) {
	tests := []struct {
		in   any
		want report.Number
	}{
		{nil, report.Number{}},
		{int64(7), report.NewNumber(7)},
		{int32(-2), report.NewNumber(-2)},
		{12.5, report.NewNumber(12.5)},
		{float32(0.5), report.NewNumber(0.5)},
		{[]byte("19.99"), report.NewNumber(19.99)},
		{" 3 ", report.NewNumber(3)},
		{"abc", report.Number{}},
		{struct{}{}, report.Number{}},
	}
	for _, tt := range tests {
		if got := Number(tt.in); got != tt.want {
			t.Errorf("Number(%#v) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestSalesFromRow(t *testing.T) {
	ts := time.Date(2024, 5, 10, 8, 30, 0, 0, time.UTC)

	rec, err := SalesFromRow([]any{"REF1", []byte("12.50"), int64(2), 25.0, "2024-05-10 08:30:00", "Kawa", nil, int64(0)})
	if err != nil {
		t.Fatalf("SalesFromRow: %v", err)
	}
	want := report.SalesRecord{
		Reference:        report.NewText("REF1"),
		UnitPriceTaxIncl: report.NewNumber(12.5),
		ProductQuantity:  report.NewNumber(2),
		TotalPriceGross:  report.NewNumber(25),
		DateAdd:          report.TimeText(ts),
		ProductName:      report.NewText("Kawa"),
		Discount:         report.NewNumber(0),
	}
	if !reflect.DeepEqual(rec, want) {
		t.Errorf("got %+v\nwant %+v", rec, want)
	}

	rec, _ = SalesFromRow([]any{nil, nil, nil, nil, ts, nil, nil, nil})
	if rec.DateAdd != report.TimeText(ts) {
		t.Errorf("time.Time date = %+v", rec.DateAdd)
	}

	if _, err := SalesFromRow([]any{"short"}); err == nil {
		t.Error("expected column count error")
	}
}

func TestInventoryFromRow(t *testing.T) {
	rec, err := InventoryFromRow([]any{int64(1), "Herbata", "", 9.99, nil, nil, int64(4), int64(5901234123457), "Napoje"})
	if err != nil {
		t.Fatalf("InventoryFromRow: %v", err)
	}
	if rec.EAN13.String != "5901234123457" {
		t.Errorf("ean13 = %q", rec.EAN13.String)
	}
	if !rec.Options.Valid || rec.Options.String != "" {
		t.Errorf("empty options must stay present: %+v", rec.Options)
	}
	if rec.PurchasePriceNet.Valid {
		t.Error("NULL price must be absent")
	}
}
