// Package dashboard assembles the sales dashboard for one filter selection:
// the aggregates behind every chart and table on the page.
package dashboard

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"superstore/internal/dataset"
	"superstore/internal/filter"
	"superstore/internal/store"
)

const (
	Title      = "SuperStore Sales Dashboard"
	sampleRows = 5
)

// Source is the query surface the dashboard reads from.
type Source interface {
	DateBounds(ctx context.Context) (time.Time, time.Time, error)
	Options(ctx context.Context, f filter.Filter) (filter.Options, error)
	Summary(ctx context.Context, f filter.Filter) (store.Summary, error)
	TotalsBy(ctx context.Context, f filter.Filter, dim store.Dimension) ([]store.GroupTotal, error)
	Monthly(ctx context.Context, f filter.Filter) ([]store.MonthTotal, error)
	Hierarchy(ctx context.Context, f filter.Filter) ([]store.HierarchyTotal, error)
	Pivot(ctx context.Context, f filter.Filter) ([]store.PivotCell, error)
	Sample(ctx context.Context, f filter.Filter, n int) ([]store.SampleRow, error)
	Orders(ctx context.Context, f filter.Filter) ([]dataset.Order, error)
}

// Dashboard is the computed page model.
type Dashboard struct {
	Filter    filter.Filter          `json:"-"`
	Start     string                 `json:"start"`
	End       string                 `json:"end"`
	MinDate   string                 `json:"min_date"`
	MaxDate   string                 `json:"max_date"`
	Options   filter.Options         `json:"options"`
	Selected  filter.Options         `json:"selected"`
	Summary   store.Summary          `json:"summary"`
	Category  []store.GroupTotal     `json:"category"`
	Region    []store.GroupTotal     `json:"region"`
	Segment   []store.GroupTotal     `json:"segment"`
	Monthly   []store.MonthTotal     `json:"monthly"`
	Hierarchy []store.HierarchyTotal `json:"hierarchy"`
	Pivot     PivotTable             `json:"pivot"`
	Sample    []store.SampleRow      `json:"sample"`
}

// PivotTable is sub-category by month of year. Values holds NaN where a
// sub-category had no orders in that month.
type PivotTable struct {
	SubCategories []string          `json:"sub_categories"`
	Months        []time.Month      `json:"months"`
	Values        [][]float64       `json:"-"`
	Cells         []store.PivotCell `json:"cells"`
}

// Resolve fills missing dates with the dataset bounds and drops location
// selections that the cascade no longer offers. It returns the effective
// filter with the options that go with it.
func Resolve(ctx context.Context, src Source, f filter.Filter) (filter.Filter, filter.Options, time.Time, time.Time, error) {
	lo, hi, err := src.DateBounds(ctx)
	if err != nil {
		return f, filter.Options{}, lo, hi, fmt.Errorf("date bounds: %w", err)
	}
	f = f.WithBounds(lo, hi)

	// Options for a level depend on the pruned selections above it.
	var opts filter.Options
	for level := 1; level <= 3; level++ {
		if opts, err = src.Options(ctx, f); err != nil {
			return f, opts, lo, hi, fmt.Errorf("options: %w", err)
		}
		f = f.PruneLevel(level, opts)
	}
	return f, opts, lo, hi, nil
}

// Build runs every dashboard query for f concurrently.
func Build(ctx context.Context, src Source, f filter.Filter) (*Dashboard, error) {
	f, opts, lo, hi, err := Resolve(ctx, src, f)
	if err != nil {
		return nil, err
	}
	d := &Dashboard{
		Filter:   f,
		Start:    f.Start.Format(filter.DateLayout),
		End:      f.End.Format(filter.DateLayout),
		MinDate:  lo.Format(filter.DateLayout),
		MaxDate:  hi.Format(filter.DateLayout),
		Options:  opts,
		Selected: filter.Options{Regions: f.Regions, States: f.States, Cities: f.Cities},
	}

	var pivot []store.PivotCell
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.Summary, err = src.Summary(gctx, f)
		return wrap("summary", err)
	})
	g.Go(func() (err error) {
		d.Category, err = src.TotalsBy(gctx, f, store.Category)
		return wrap("category totals", err)
	})
	g.Go(func() (err error) {
		d.Region, err = src.TotalsBy(gctx, f, store.Region)
		return wrap("region totals", err)
	})
	g.Go(func() (err error) {
		d.Segment, err = src.TotalsBy(gctx, f, store.Segment)
		return wrap("segment totals", err)
	})
	g.Go(func() (err error) {
		d.Monthly, err = src.Monthly(gctx, f)
		return wrap("monthly totals", err)
	})
	g.Go(func() (err error) {
		d.Hierarchy, err = src.Hierarchy(gctx, f)
		return wrap("hierarchy", err)
	})
	g.Go(func() (err error) {
		pivot, err = src.Pivot(gctx, f)
		return wrap("pivot", err)
	})
	g.Go(func() (err error) {
		d.Sample, err = src.Sample(gctx, f, sampleRows)
		return wrap("sample", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	d.Pivot = NewPivotTable(pivot)
	return d, nil
}

func wrap(what string, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	return nil
}

// NewPivotTable lays cells out with sub-categories sorted by name and the
// months that occur in calendar order.
func NewPivotTable(cells []store.PivotCell) PivotTable {
	pt := PivotTable{Cells: cells}
	rowIdx := map[string]int{}
	monthSeen := map[time.Month]bool{}
	for _, c := range cells {
		if _, ok := rowIdx[c.SubCategory]; !ok {
			rowIdx[c.SubCategory] = 0
			pt.SubCategories = append(pt.SubCategories, c.SubCategory)
		}
		if !monthSeen[c.Month] {
			monthSeen[c.Month] = true
			pt.Months = append(pt.Months, c.Month)
		}
	}
	sort.Strings(pt.SubCategories)
	slices.Sort(pt.Months)
	for i, s := range pt.SubCategories {
		rowIdx[s] = i
	}
	colIdx := map[time.Month]int{}
	for i, m := range pt.Months {
		colIdx[m] = i
	}
	pt.Values = make([][]float64, len(pt.SubCategories))
	for i := range pt.Values {
		pt.Values[i] = make([]float64, len(pt.Months))
		for j := range pt.Values[i] {
			pt.Values[i][j] = math.NaN()
		}
	}
	for _, c := range cells {
		pt.Values[rowIdx[c.SubCategory]][colIdx[c.Month]] = c.MeanSales
	}
	return pt
}
