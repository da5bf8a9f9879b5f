// Package datasettest builds small Superstore workbooks for tests.
package datasettest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"superstore/internal/dataset"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Orders returns a fixed eight-row dataset spanning three regions and two
// years. Row order matters for the sample table.
func Orders() []dataset.Order {
	rows := []dataset.Order{
		{RowID: 1, OrderID: "CA-1", OrderDate: day(2016, time.November, 8), Segment: "Consumer", Country: "United States", City: "Henderson", State: "Kentucky", Region: "South", Category: "Furniture", SubCategory: "Bookcases", Sales: 261.96, Quantity: 2, Profit: 41.91},
		{RowID: 2, OrderID: "CA-1", OrderDate: day(2016, time.November, 8), Segment: "Consumer", Country: "United States", City: "Henderson", State: "Kentucky", Region: "South", Category: "Furniture", SubCategory: "Chairs", Sales: 731.94, Quantity: 3, Profit: 219.58},
		{RowID: 3, OrderID: "CA-2", OrderDate: day(2016, time.June, 12), Segment: "Corporate", Country: "United States", City: "Los Angeles", State: "California", Region: "West", Category: "Office Supplies", SubCategory: "Labels", Sales: 14.62, Quantity: 2, Profit: 6.87},
		{RowID: 4, OrderID: "US-3", OrderDate: day(2015, time.October, 11), Segment: "Consumer", Country: "United States", City: "Fort Lauderdale", State: "Florida", Region: "South", Category: "Furniture", SubCategory: "Tables", Sales: 957.58, Quantity: 5, Profit: -383.03},
		{RowID: 5, OrderID: "US-3", OrderDate: day(2015, time.October, 11), Segment: "Consumer", Country: "United States", City: "Fort Lauderdale", State: "Florida", Region: "South", Category: "Office Supplies", SubCategory: "Storage", Sales: 22.37, Quantity: 2, Profit: 2.52},
		{RowID: 6, OrderID: "CA-4", OrderDate: day(2014, time.June, 9), Segment: "Home Office", Country: "United States", City: "Los Angeles", State: "California", Region: "West", Category: "Technology", SubCategory: "Phones", Sales: 907.15, Quantity: 6, Profit: 90.72},
		{RowID: 7, OrderID: "CA-5", OrderDate: day(2014, time.June, 20), Segment: "Home Office", Country: "United States", City: "San Francisco", State: "California", Region: "West", Category: "Office Supplies", SubCategory: "Labels", Sales: 18.5, Quantity: 1, Profit: 9},
		{RowID: 8, OrderID: "CA-6", OrderDate: day(2017, time.January, 3), Segment: "Corporate", Country: "United States", City: "New York City", State: "New York", Region: "East", Category: "Technology", SubCategory: "Phones", Sales: 100, Quantity: 1, Profit: 25},
	}
	for i := range rows {
		rows[i].Seq = i
		rows[i].ShipMode = "Second Class"
		rows[i].ShipDate = rows[i].OrderDate.AddDate(0, 0, 3)
	}
	return rows
}

// WriteXLSX writes orders to a workbook under t.TempDir and returns its path.
// Dates are stored as Excel serial numbers like a real export.
func WriteXLSX(t testing.TB, orders []dataset.Order) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Superstore.xlsx")

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	const sheet = "Orders"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		t.Fatalf("rename sheet: %v", err)
	}
	header := make([]any, len(dataset.Columns))
	for i, c := range dataset.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		t.Fatalf("write header: %v", err)
	}
	for i, o := range orders {
		vals := o.Values()
		vals[2] = serial(o.OrderDate)
		vals[3] = serial(o.ShipDate)
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
			t.Fatalf("write row %d: %v", i, err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	return path
}

// serial converts a day to its 1900-system Excel serial number.
func serial(t time.Time) float64 {
	epoch := time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)
	return t.Sub(epoch).Hours() / 24
}

// WriteCSV writes orders as CSV to path, replacing any existing file.
func WriteCSV(t testing.TB, path string, orders []dataset.Order) {
	t.Helper()
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(dataset.Columns)
	for _, o := range orders {
		vals := o.Values()
		rec := make([]string, len(vals))
		for i, v := range vals {
			rec[i] = fmt.Sprint(v)
		}
		_ = w.Write(rec)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		t.Fatalf("encode csv: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
}
