package dashboard

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"

	"superstore/internal/dataset"
	"superstore/internal/export"
	"superstore/internal/filter"
	"superstore/internal/store"
)

var ErrUnknownTable = errors.New("dashboard: unknown table")

// Cell is one shaded table cell.
type Cell struct {
	Text  string
	Shade Shade
}

// Table is a rendered HTML table.
type Table struct {
	Headers []string
	Rows    [][]Cell
}

// CategoryTable lists sales per category shaded in blue.
func (d *Dashboard) CategoryTable() Table {
	return totalsTable("Category", d.Category, Blues)
}

// RegionTable lists sales per region shaded in purple.
func (d *Dashboard) RegionTable() Table {
	return totalsTable("Region", d.Region, Purples)
}

func totalsTable(name string, rows []store.GroupTotal, p Palette) Table {
	vals := make([]float64, len(rows))
	for i, r := range rows {
		vals[i] = r.Sales
	}
	shades := p.Shades(vals)
	t := Table{Headers: []string{name, "Sales"}}
	for i, r := range rows {
		t.Rows = append(t.Rows, []Cell{{Text: r.Key}, {Text: Amount(r.Sales), Shade: shades[i]}})
	}
	return t
}

// TimeSeriesTable is the monthly series laid out sideways: one row of month
// labels and one row of amounts.
func (d *Dashboard) TimeSeriesTable() Table {
	vals := make([]float64, len(d.Monthly))
	for i, m := range d.Monthly {
		vals[i] = m.Sales
	}
	shades := Blues.Shades(vals)
	t := Table{Headers: []string{""}}
	labels := []Cell{{Text: "month_year"}}
	sales := []Cell{{Text: "Sales"}}
	for i, m := range d.Monthly {
		t.Headers = append(t.Headers, strconv.Itoa(i))
		labels = append(labels, Cell{Text: m.Label()})
		sales = append(sales, Cell{Text: Amount(m.Sales), Shade: shades[i]})
	}
	t.Rows = [][]Cell{labels, sales}
	return t
}

// PivotView renders the sub-category by month pivot, shading each month
// column on its own scale.
func (d *Dashboard) PivotView() Table {
	pt := d.Pivot
	t := Table{Headers: []string{"Sub-Category"}}
	for _, m := range pt.Months {
		t.Headers = append(t.Headers, m.String())
	}
	t.Rows = make([][]Cell, len(pt.SubCategories))
	for i, s := range pt.SubCategories {
		t.Rows[i] = make([]Cell, len(pt.Months)+1)
		t.Rows[i][0] = Cell{Text: s}
	}
	for j := range pt.Months {
		col := make([]float64, len(pt.SubCategories))
		for i := range pt.SubCategories {
			col[i] = pt.Values[i][j]
		}
		shades := Blues.Shades(col)
		for i, v := range col {
			if math.IsNaN(v) {
				continue
			}
			t.Rows[i][j+1] = Cell{Text: Amount(v), Shade: shades[i]}
		}
	}
	return t
}

// SampleTable renders the raw preview rows.
func (d *Dashboard) SampleTable() Table {
	t := Table{Headers: []string{"Region", "State", "City", "Category", "Sales", "Profit", "Quantity"}}
	for _, r := range d.Sample {
		t.Rows = append(t.Rows, []Cell{
			{Text: r.Region}, {Text: r.State}, {Text: r.City}, {Text: r.Category},
			{Text: strconv.FormatFloat(r.Sales, 'f', -1, 64)},
			{Text: strconv.FormatFloat(r.Profit, 'f', -1, 64)},
			{Text: strconv.Itoa(r.Quantity)},
		})
	}
	return t
}

// Download describes one spreadsheet export.
type Download struct {
	Name     string
	FileName string
	Label    string
}

// Downloads lists every export the dashboard offers, keyed by the name used
// in /export/{name}.xlsx.
var Downloads = []Download{
	{Name: "category", FileName: "Category.xlsx", Label: "Category"},
	{Name: "region", FileName: "Region.xlsx", Label: "Region"},
	{Name: "timeseries", FileName: "TimeSeries.xlsx", Label: "Time series"},
	{Name: "segment", FileName: "Segment.xlsx", Label: "Segment"},
	{Name: "subcategory-month", FileName: "SubCategoryMonth.xlsx", Label: "Sub-Category by month"},
	{Name: "orders", FileName: "Orders.xlsx", Label: "Filtered orders"},
}

// LookupDownload finds an export by name.
func LookupDownload(name string) (Download, bool) {
	for _, d := range Downloads {
		if d.Name == name {
			return d, true
		}
	}
	return Download{}, false
}

// Sheet builds the named export for the dashboard's filter. Only "orders"
// needs to go back to the source.
func (d *Dashboard) Sheet(ctx context.Context, src Source, name string) (export.Sheet, error) {
	switch name {
	case "category":
		return totalsSheet("Category", d.Category), nil
	case "region":
		return totalsSheet("Region", d.Region), nil
	case "segment":
		return totalsSheet("Segment", d.Segment), nil
	case "timeseries":
		s := export.Sheet{Name: "TimeSeries", Headers: []string{"month_year", "Sales"}}
		for _, m := range d.Monthly {
			s.Rows = append(s.Rows, []any{m.Label(), m.Sales})
		}
		return s, nil
	case "subcategory-month":
		return pivotSheet(d.Pivot), nil
	case "orders":
		orders, err := src.Orders(ctx, d.Filter)
		if err != nil {
			return export.Sheet{}, fmt.Errorf("orders: %w", err)
		}
		return OrdersSheet(orders), nil
	default:
		return export.Sheet{}, fmt.Errorf("%w: %q", ErrUnknownTable, name)
	}
}

// Workbook builds the named export as xlsx bytes for f.
func Workbook(ctx context.Context, src Source, f filter.Filter, name string) ([]byte, Download, error) {
	dl, ok := LookupDownload(name)
	if !ok {
		return nil, Download{}, fmt.Errorf("%w: %q", ErrUnknownTable, name)
	}
	d, err := Build(ctx, src, f)
	if err != nil {
		return nil, dl, err
	}
	sheet, err := d.Sheet(ctx, src, name)
	if err != nil {
		return nil, dl, err
	}
	buf, err := export.Workbook(sheet)
	if err != nil {
		return nil, dl, err
	}
	return buf.Bytes(), dl, nil
}

func totalsSheet(name string, rows []store.GroupTotal) export.Sheet {
	s := export.Sheet{Name: name, Headers: []string{name, "Sales"}}
	for _, r := range rows {
		s.Rows = append(s.Rows, []any{r.Key, r.Sales})
	}
	return s
}

func pivotSheet(pt PivotTable) export.Sheet {
	s := export.Sheet{Name: "SubCategoryMonth", Headers: []string{"Sub-Category"}}
	for _, m := range pt.Months {
		s.Headers = append(s.Headers, m.String())
	}
	for i, sub := range pt.SubCategories {
		row := []any{sub}
		for _, v := range pt.Values[i] {
			if math.IsNaN(v) {
				row = append(row, nil)
				continue
			}
			row = append(row, v)
		}
		s.Rows = append(s.Rows, row)
	}
	return s
}

// OrdersSheet lays orders out with the source sheet's columns.
func OrdersSheet(orders []dataset.Order) export.Sheet {
	s := export.Sheet{Name: "Orders", Headers: dataset.Columns}
	sort.SliceStable(orders, func(i, j int) bool { return orders[i].Seq < orders[j].Seq })
	for _, o := range orders {
		s.Rows = append(s.Rows, o.Values())
	}
	return s
}
