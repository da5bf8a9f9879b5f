// Package export serialises dashboard tables to xlsx workbooks.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// ContentType is the MIME type of an xlsx download.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var ErrNoSheets = errors.New("export: no sheets")

// Sheet is one worksheet: a header line followed by data rows.
type Sheet struct {
	Name    string
	Headers []string
	Rows    [][]any
}

// Workbook renders sheets into an xlsx file held in memory.
func Workbook(sheets ...Sheet) (*bytes.Buffer, error) {
	f, err := build(sheets)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return f.WriteToBuffer()
}

// WriteFile saves sheets to path.
func WriteFile(path string, sheets ...Sheet) error {
	f, err := build(sheets)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return f.SaveAs(path)
}

func build(sheets []Sheet) (*excelize.File, error) {
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}
	f := excelize.NewFile()
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, err
	}
	for i, s := range sheets {
		name := sheetName(s.Name, i)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				f.Close()
				return nil, err
			}
		} else if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, err
		}
		if err := writeSheet(f, name, s, bold); err != nil {
			f.Close()
			return nil, fmt.Errorf("sheet %q: %w", name, err)
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

func writeSheet(f *excelize.File, name string, s Sheet, headerStyle int) error {
	widths := make([]int, len(s.Headers))
	header := make([]any, len(s.Headers))
	for i, h := range s.Headers {
		header[i] = h
		widths[i] = utf8.RuneCountInString(h)
	}
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return err
	}
	if len(s.Headers) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(s.Headers), 1)
		if err := f.SetCellStyle(name, "A1", last, headerStyle); err != nil {
			return err
		}
	}
	for r, row := range s.Rows {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		vals := row
		if err := f.SetSheetRow(name, cell, &vals); err != nil {
			return err
		}
		for c, v := range row {
			if c < len(widths) {
				if n := utf8.RuneCountInString(fmt.Sprint(v)); n > widths[c] {
					widths[c] = n
				}
			}
		}
	}
	for c, w := range widths {
		col, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(name, col, col, float64(min(w+2, 60))); err != nil {
			return err
		}
	}
	return nil
}

// sheetName keeps names within Excel's 31 character limit.
func sheetName(name string, i int) string {
	if name == "" {
		return fmt.Sprintf("Sheet%d", i+1)
	}
	r := []rune(name)
	if len(r) > 31 {
		r = r[:31]
	}
	return string(r)
}
