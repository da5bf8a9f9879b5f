package dashboard

import (
	"bytes"
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"superstore/internal/dataset/datasettest"
	"superstore/internal/filter"
	"superstore/internal/store"
)

func newSource(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Load(context.Background(), datasettest.Orders())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestBuild_DefaultsToFullRange(t *testing.T) {
	d, err := Build(context.Background(), newSource(t), filter.Filter{})
	require.NoError(t, err)

	assert.Equal(t, "2014-06-09", d.Start)
	assert.Equal(t, "2017-01-03", d.End)
	assert.Equal(t, d.Start, d.MinDate)
	assert.Equal(t, d.End, d.MaxDate)
	assert.Equal(t, 8, d.Summary.Rows)
	assert.InDelta(t, 3014.12, d.Summary.Sales, 1e-9)
	assert.Len(t, d.Category, 3)
	assert.Len(t, d.Region, 3)
	assert.Len(t, d.Segment, 3)
	assert.Len(t, d.Sample, 5)
	assert.Equal(t, []string{"South", "West", "East"}, d.Options.Regions)
}

func TestBuild_PrunesStaleSelections(t *testing.T) {
	f := filter.Filter{
		Regions: []string{"West"},
		States:  []string{"Kentucky"},
		Cities:  []string{"Henderson", "Los Angeles"},
	}
	d, err := Build(context.Background(), newSource(t), f)
	require.NoError(t, err)

	assert.Equal(t, []string{"West"}, d.Filter.Regions)
	assert.Nil(t, d.Filter.States)
	assert.Equal(t, []string{"Los Angeles"}, d.Filter.Cities)
	assert.InDelta(t, 921.77, d.Summary.Sales, 1e-9)
}

func TestBuild_StartAfterEndIsEmpty(t *testing.T) {
	f := filter.Filter{Start: time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC)}
	d, err := Build(context.Background(), newSource(t), f)
	require.NoError(t, err)
	assert.True(t, d.Filter.Empty())
	assert.Equal(t, 0, d.Summary.Rows)
	assert.Empty(t, d.Category)
	assert.Empty(t, d.Monthly)
	assert.Empty(t, d.Pivot.SubCategories)
	assert.Empty(t, d.Options.Regions)
}

func TestPivotTable(t *testing.T) {
	pt := NewPivotTable([]store.PivotCell{
		{SubCategory: "Phones", Month: time.June, MeanSales: 10},
		{SubCategory: "Labels", Month: time.June, MeanSales: 2},
		{SubCategory: "Phones", Month: time.January, MeanSales: 4},
	})
	assert.Equal(t, []string{"Labels", "Phones"}, pt.SubCategories)
	assert.Equal(t, []time.Month{time.January, time.June}, pt.Months)
	assert.True(t, math.IsNaN(pt.Values[0][0]))
	assert.Equal(t, 2.0, pt.Values[0][1])
	assert.Equal(t, 4.0, pt.Values[1][0])
	assert.Equal(t, 10.0, pt.Values[1][1])

	view := (&Dashboard{Pivot: pt}).PivotView()
	assert.Equal(t, []string{"Sub-Category", "January", "June"}, view.Headers)
	assert.Equal(t, "", view.Rows[0][1].Text)
	assert.Equal(t, "2.00", view.Rows[0][2].Text)
}

func TestTreemapNodes(t *testing.T) {
	nodes := TreemapNodes([]store.HierarchyTotal{
		{Region: "West", Category: "Office Supplies", SubCategory: "Labels", Sales: 33.12},
		{Region: "West", Category: "Technology", SubCategory: "Phones", Sales: 907.15},
		{Region: "East", Category: "Technology", SubCategory: "Phones", Sales: 100},
	})
	require.Len(t, nodes, 2)
	assert.Equal(t, "West", nodes[0].Name)
	assert.Equal(t, 940, nodes[0].Value)
	require.Len(t, nodes[0].Children, 2)
	assert.Equal(t, "Phones", nodes[0].Children[1].Children[0].Name)
	assert.Equal(t, "East", nodes[1].Name)
}

func TestCharts_RenderAllSnippets(t *testing.T) {
	d, err := Build(context.Background(), newSource(t), filter.Filter{})
	require.NoError(t, err)

	c := d.Charts()
	for id, snippet := range map[string]string{
		"category-bar":      string(c.CategoryBar),
		"region-pie":        string(c.RegionPie),
		"monthly-line":      string(c.MonthlyLine),
		"hierarchy-treemap": string(c.Treemap),
		"segment-pie":       string(c.SegmentPie),
		"category-pie":      string(c.CategoryPie),
	} {
		assert.Contains(t, snippet, id)
		assert.Contains(t, snippet, "<script")
	}
	assert.Contains(t, string(c.MonthlyLine), "2014 : Jun")
	assert.Contains(t, string(c.CategoryBar), `"formatter":"$1,951.48"`)
	assert.NotContains(t, string(c.CategoryBar), "{c}")
	assert.Contains(t, string(c.RegionPie), `"radius":["17.5%","70%"]`)
	assert.Contains(t, string(c.SegmentPie), `"radius":["0%","70%"]`)
}

func TestTables(t *testing.T) {
	d, err := Build(context.Background(), newSource(t), filter.Filter{})
	require.NoError(t, err)

	cat := d.CategoryTable()
	assert.Equal(t, []string{"Category", "Sales"}, cat.Headers)
	require.Len(t, cat.Rows, 3)
	assert.Equal(t, "1,951.48", cat.Rows[0][1].Text)
	// Highest value gets the darkest shade.
	assert.Equal(t, Blues.At(1).Background, cat.Rows[0][1].Shade.Background)
	assert.Equal(t, Blues.At(0).Background, cat.Rows[1][1].Shade.Background)

	ts := d.TimeSeriesTable()
	require.Len(t, ts.Rows, 2)
	assert.Equal(t, "month_year", ts.Rows[0][0].Text)
	assert.Equal(t, len(d.Monthly)+1, len(ts.Rows[1]))

	sample := d.SampleTable()
	assert.Equal(t, "Henderson", sample.Rows[0][2].Text)
	assert.Equal(t, "261.96", sample.Rows[0][4].Text)
}

func TestWorkbook_Exports(t *testing.T) {
	src := newSource(t)
	for _, dl := range Downloads {
		t.Run(dl.Name, func(t *testing.T) {
			data, got, err := Workbook(context.Background(), src, filter.Filter{Regions: []string{"West"}}, dl.Name)
			require.NoError(t, err)
			assert.Equal(t, dl, got)

			f, err := excelize.OpenReader(bytes.NewReader(data))
			require.NoError(t, err)
			defer f.Close()
			rows, err := f.GetRows(f.GetSheetName(0))
			require.NoError(t, err)
			require.NotEmpty(t, rows)
		})
	}

	data, _, err := Workbook(context.Background(), src, filter.Filter{Regions: []string{"West"}}, "orders")
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Orders")
	require.NoError(t, err)
	assert.Len(t, rows, 4)
	assert.Equal(t, "Order Date", rows[0][2])
	assert.Equal(t, "2016-06-12", rows[1][2])
}

func TestWorkbook_UnknownTable(t *testing.T) {
	_, _, err := Workbook(context.Background(), newSource(t), filter.Filter{}, "profit")
	require.ErrorIs(t, err, ErrUnknownTable)
}

func TestCurrency(t *testing.T) {
	assert.Equal(t, "$1,951.48", Currency(1951.48))
	assert.Equal(t, "$0.50", Currency(0.5))
	assert.Equal(t, "-$1,234,567.00", Currency(-1234567))
	assert.Equal(t, "$100.00", Currency(100))
	assert.Equal(t, "12,345.68", Amount(12345.675))
	assert.True(t, strings.HasPrefix(Amount(-5), "-"))
}

func TestPaletteShadesSkipNaN(t *testing.T) {
	shades := Purples.Shades([]float64{1, math.NaN(), 3})
	assert.Equal(t, Purples.At(0), shades[0])
	assert.Equal(t, Shade{}, shades[1])
	assert.Equal(t, Purples.At(1), shades[2])
	assert.Equal(t, "#f1f1f1", shades[2].Text)
	assert.Equal(t, "#000000", shades[0].Text)
}
