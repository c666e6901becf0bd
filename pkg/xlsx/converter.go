// Package xlsx writes a report view to an Excel workbook.
package xlsx

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ruslano69/stockreport/pkg/report"
)

// WriteReport writes rows, in the given order, to a single-sheet workbook.
//
// Headers carry the column labels. Money and numeric cells are typed
// numbers, dates are date cells; absent values stay empty. Reports with a
// total column get a footer row with the sum.
//
// Example:
//
//	rows := schema.Sort(records, state)
//	err := xlsx.WriteReport(w, schema, rows, "")
func WriteReport[R report.Record](w io.Writer, s *report.Schema[R], rows []R, sheetName string) error {
	f, err := build(s, rows, sheetName)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// SaveReport is WriteReport into a file.
func SaveReport[R report.Record](path string, s *report.Schema[R], rows []R, sheetName string) error {
	f, err := build(s, rows, sheetName)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

func build[R report.Record](s *report.Schema[R], rows []R, sheetName string) (*excelize.File, error) {
	f := excelize.NewFile()

	if sheetName == "" {
		sheetName = s.Title
	}
	sheetName = sanitizeSheetName(sheetName)

	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if sheetName != "Sheet1" {
		f.DeleteSheet("Sheet1")
	}

	st, err := newStyles(f, s.Currency())
	if err != nil {
		f.Close()
		return nil, err
	}

	cols := s.Visible()
	for i, c := range cols {
		cell := cellName(i, 1)
		f.SetCellValue(sheetName, cell, c.Label)
		f.SetCellStyle(sheetName, cell, cell, st.header)
	}

	for r, row := range rows {
		for i, c := range cols {
			cell := cellName(i, r+2)
			if err := writeCell(f, sheetName, cell, c, c.Get(row), st); err != nil {
				f.Close()
				return nil, fmt.Errorf("row %d, %s: %w", r+1, c.Key, err)
			}
		}
	}

	if total, ok := s.Total(rows); ok {
		footer := len(rows) + 2
		first := cellName(0, footer)
		f.SetCellValue(sheetName, first, s.TotalLabel)
		f.SetCellStyle(sheetName, first, first, st.footer)
		for i, c := range cols {
			if c.Key != s.TotalColumn {
				continue
			}
			cell := cellName(i, footer)
			v, _ := total.Float64()
			f.SetCellValue(sheetName, cell, v)
			f.SetCellStyle(sheetName, cell, cell, st.footerMoney)
		}
	}

	for i := range cols {
		name, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, name, name, 18)
	}
	f.SetPanes(sheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	return f, nil
}

type styles struct {
	header      int
	money       int
	date        int
	footer      int
	footerMoney int
}

func newStyles(f *excelize.File, currency string) (styles, error) {
	var st styles
	var err error

	st.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return st, fmt.Errorf("failed to create header style: %w", err)
	}

	moneyFmt := moneyFormat(currency)
	st.money, err = f.NewStyle(&excelize.Style{CustomNumFmt: &moneyFmt})
	if err != nil {
		return st, fmt.Errorf("failed to create money style: %w", err)
	}

	dateFmt := "yyyy-mm-dd"
	st.date, err = f.NewStyle(&excelize.Style{CustomNumFmt: &dateFmt})
	if err != nil {
		return st, fmt.Errorf("failed to create date style: %w", err)
	}

	st.footer, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return st, fmt.Errorf("failed to create footer style: %w", err)
	}
	st.footerMoney, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}, CustomNumFmt: &moneyFmt})
	if err != nil {
		return st, fmt.Errorf("failed to create footer style: %w", err)
	}
	return st, nil
}

func writeCell[R report.Record](f *excelize.File, sheet, cell string, c report.Column[R], v report.Value, st styles) error {
	if v.IsNull() {
		return nil
	}
	switch c.Kind {
	case report.KindNumeric:
		n, ok := v.Float()
		if !ok {
			return f.SetCellStr(sheet, cell, v.String())
		}
		if err := f.SetCellValue(sheet, cell, n); err != nil {
			return err
		}
		if c.Money {
			return f.SetCellStyle(sheet, cell, cell, st.money)
		}
		return nil
	case report.KindDate:
		t, ok := v.Time()
		if !ok {
			return f.SetCellStr(sheet, cell, v.String())
		}
		if err := f.SetCellValue(sheet, cell, t); err != nil {
			return err
		}
		return f.SetCellStyle(sheet, cell, cell, st.date)
	default:
		return f.SetCellStr(sheet, cell, v.String())
	}
}

// moneyFormat renders 12.5 as "12,50 zł" in the viewer's locale.
func moneyFormat(currency string) string {
	if currency == "" {
		return "0.00"
	}
	return `#,##0.00 "` + strings.ReplaceAll(currency, `"`, "") + `"`
}

// cellName converts a zero-based column and one-based row to "A1" notation.
func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col+1, row)
	return name
}

// sanitizeSheetName drops characters Excel rejects and trims to 31 runes.
func sanitizeSheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return -1
		}
		return r
	}, name)
	if r := []rune(name); len(r) > 31 {
		name = string(r[:31])
	}
	if strings.TrimSpace(name) == "" {
		return "Sheet1"
	}
	return name
}
