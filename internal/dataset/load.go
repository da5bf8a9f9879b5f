package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// xlsMaxCols is the BIFF8 column limit.
const xlsMaxCols = 256

// Load reads the first worksheet of an .xlsx/.xls workbook or a .csv file.
func Load(path string) ([]Order, error) {
	rows, err := readRows(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	orders, err := parseRecords(rows)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return orders, nil
}

func readRows(path string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return readXLSX(path)
	case ".xls":
		return readXLS(path)
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return ReadCSV(f)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
	}
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("no worksheet found")
	}
	// Raw values keep dates as serial numbers instead of the display format.
	return f.GetRows(sheet, excelize.Options{RawCellValue: true})
}

// readXLS reads the first worksheet of a BIFF8 workbook. Cells with a
// custom date format come back as RFC3339 text; built-in date formats lose
// the day and are rejected by ParseDate.
func readXLS(path string) ([][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, err
	}
	if wb == nil || wb.NumSheets() == 0 {
		return nil, fmt.Errorf("no worksheet found")
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, fmt.Errorf("no worksheet found")
	}

	var (
		rows [][]string
		seen bool
	)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := xlsRow(sheet, i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		seen = true
		width := row.LastCol() + 1
		if width <= 1 {
			width = xlsMaxCols
		}
		rec := make([]string, width)
		for j := range rec {
			rec[j] = row.Col(j)
		}
		rows = append(rows, trimTrailing(rec))
	}
	if !seen {
		return nil, nil
	}
	return rows, nil
}

// xlsRow returns row i, or nil when the sheet has no record for it.
// WorkSheet.Row dereferences the row before checking it exists.
func xlsRow(sheet *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return sheet.Row(i)
}

func trimTrailing(rec []string) []string {
	n := len(rec)
	for n > 0 && rec[n-1] == "" {
		n--
	}
	return rec[:n]
}

// ReadCSV reads all records, tolerating a UTF-8 BOM and ragged rows.
func ReadCSV(r io.Reader) ([][]string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	b = bytes.TrimPrefix(b, []byte{0xEF, 0xBB, 0xBF})
	cr := csv.NewReader(bytes.NewReader(b))
	cr.FieldsPerRecord = -1
	return cr.ReadAll()
}
