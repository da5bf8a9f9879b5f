package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"superstore/internal/dataset/datasettest"
	"superstore/internal/filter"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Load(context.Background(), datasettest.Orders())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func keys(gs []GroupTotal) []string {
	out := make([]string, len(gs))
	for i, g := range gs {
		out[i] = g.Key
	}
	return out
}

func TestDateBounds(t *testing.T) {
	s := newTestStore(t)
	lo, hi, err := s.DateBounds(context.Background())
	require.NoError(t, err)
	assert.Equal(t, date(2014, time.June, 9), lo)
	assert.Equal(t, date(2017, time.January, 3), hi)
}

func TestDateBounds_EmptyTable(t *testing.T) {
	s, err := Load(context.Background(), nil)
	require.NoError(t, err)
	defer s.Close()
	_, _, err = s.DateBounds(context.Background())
	require.Error(t, err)
}

func TestOptions_Cascade(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	opts, err := s.Options(ctx, filter.Filter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"South", "West", "East"}, opts.Regions)
	assert.Equal(t, []string{"Kentucky", "California", "Florida", "New York"}, opts.States)

	opts, err = s.Options(ctx, filter.Filter{Regions: []string{"West"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"South", "West", "East"}, opts.Regions)
	assert.Equal(t, []string{"California"}, opts.States)
	assert.Equal(t, []string{"Los Angeles", "San Francisco"}, opts.Cities)

	opts, err = s.Options(ctx, filter.Filter{Regions: []string{"South"}, States: []string{"Florida"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Fort Lauderdale"}, opts.Cities)

	opts, err = s.Options(ctx, filter.Filter{Start: date(2016, 1, 1)})
	require.NoError(t, err)
	assert.Equal(t, []string{"South", "West", "East"}, opts.Regions)
	opts, err = s.Options(ctx, filter.Filter{End: date(2015, 12, 31)})
	require.NoError(t, err)
	assert.Equal(t, []string{"South", "West"}, opts.Regions)
}

// Every combination of location selections behaves as the conjunction of
// the non-empty lists.
func TestTotalsBy_LocationCombinations(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		f     filter.Filter
		sales float64
	}{
		{"none", filter.Filter{}, 3014.12},
		{"region", filter.Filter{Regions: []string{"West"}}, 940.27},
		{"state", filter.Filter{States: []string{"Florida"}}, 979.95},
		{"city", filter.Filter{Cities: []string{"Los Angeles"}}, 921.77},
		{"region+state", filter.Filter{Regions: []string{"South"}, States: []string{"Kentucky"}}, 993.9},
		{"region+city", filter.Filter{Regions: []string{"West"}, Cities: []string{"San Francisco"}}, 18.5},
		{"state+city", filter.Filter{States: []string{"California"}, Cities: []string{"Los Angeles"}}, 921.77},
		{"all", filter.Filter{Regions: []string{"West"}, States: []string{"California"}, Cities: []string{"Los Angeles", "San Francisco"}}, 940.27},
		{"disjoint", filter.Filter{Regions: []string{"East"}, Cities: []string{"Henderson"}}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sum, err := s.Summary(ctx, tc.f)
			require.NoError(t, err)
			assert.InDelta(t, tc.sales, sum.Sales, 1e-9)

			byRegion, err := s.TotalsBy(ctx, tc.f, Region)
			require.NoError(t, err)
			total := 0.0
			for _, g := range byRegion {
				total += g.Sales
			}
			assert.InDelta(t, tc.sales, total, 1e-6)
		})
	}
}

func TestTotalsBy_Category(t *testing.T) {
	s := newTestStore(t)
	got, err := s.TotalsBy(context.Background(), filter.Filter{}, Category)
	require.NoError(t, err)
	assert.Equal(t, []string{"Furniture", "Office Supplies", "Technology"}, keys(got))
	assert.InDelta(t, 1951.48, got[0].Sales, 1e-9)
	assert.Equal(t, 3, got[0].Orders)
	assert.InDelta(t, 55.49, got[1].Sales, 1e-9)
	assert.InDelta(t, 1007.15, got[2].Sales, 1e-9)
}

func TestTotalsBy_UnknownDimension(t *testing.T) {
	s := newTestStore(t)
	_, err := s.TotalsBy(context.Background(), filter.Filter{}, Dimension("Colour"))
	require.ErrorIs(t, err, ErrUnknownDimension)
}

func TestDateRangeIsInclusive(t *testing.T) {
	s := newTestStore(t)
	f := filter.Filter{Start: date(2016, time.November, 8), End: date(2016, time.November, 8)}
	sum, err := s.Summary(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Rows)
	assert.Equal(t, 1, sum.Orders)
	assert.InDelta(t, 993.9, sum.Sales, 1e-9)

	f.Start = date(2016, time.November, 9)
	sum, err = s.Summary(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Rows)
	assert.Equal(t, 0.0, sum.Sales)
}

func TestMonthly(t *testing.T) {
	s := newTestStore(t)
	got, err := s.Monthly(context.Background(), filter.Filter{Regions: []string{"West"}})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2014 : Jun", got[0].Label())
	assert.InDelta(t, 925.65, got[0].Sales, 1e-9)
	assert.Equal(t, "2016 : Jun", got[1].Label())
	assert.InDelta(t, 14.62, got[1].Sales, 1e-9)
}

func TestHierarchy(t *testing.T) {
	s := newTestStore(t)
	got, err := s.Hierarchy(context.Background(), filter.Filter{Regions: []string{"West"}})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, HierarchyTotal{Region: "West", Category: "Office Supplies", SubCategory: "Labels", Sales: 33.12}, got[0])
	assert.Equal(t, HierarchyTotal{Region: "West", Category: "Technology", SubCategory: "Phones", Sales: 907.15}, got[1])
}

func TestPivotAveragesPerMonth(t *testing.T) {
	s := newTestStore(t)
	got, err := s.Pivot(context.Background(), filter.Filter{})
	require.NoError(t, err)

	cells := map[string]float64{}
	for _, c := range got {
		cells[c.SubCategory+"/"+c.Month.String()] = c.MeanSales
	}
	// Labels sold twice in June, in different years.
	assert.InDelta(t, (14.62+18.5)/2, cells["Labels/June"], 1e-9)
	assert.InDelta(t, 907.15, cells["Phones/June"], 1e-9)
	assert.InDelta(t, 100.0, cells["Phones/January"], 1e-9)
	_, ok := cells["Chairs/June"]
	assert.False(t, ok)
}

func TestSampleIgnoresLocation(t *testing.T) {
	s := newTestStore(t)
	f := filter.Filter{Start: date(2015, 1, 1), Regions: []string{"East"}}
	got, err := s.Sample(context.Background(), f, 5)
	require.NoError(t, err)
	require.Len(t, got, 5)
	assert.Equal(t, "Henderson", got[0].City)
	assert.Equal(t, "Fort Lauderdale", got[3].City)
	assert.Equal(t, "Fort Lauderdale", got[4].City)
}

func TestImportAndOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "superstore.db")
	require.NoError(t, Import(ctx, datasettest.Orders(), path))

	s, err := Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, path, s.Path())

	got, err := s.Orders(ctx, filter.Filter{States: []string{"California"}})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 3, got[0].RowID)
	assert.Equal(t, date(2016, time.June, 12), got[0].OrderDate)
	assert.Equal(t, date(2016, time.June, 15), got[0].ShipDate)
	assert.Equal(t, "Labels", got[0].SubCategory)
}

func TestOpen_Missing(t *testing.T) {
	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "nope.db"))
	require.Error(t, err)
}
