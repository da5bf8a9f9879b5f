package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"superstore/internal/dataset"
	"superstore/internal/filter"
)

var ErrUnknownDimension = errors.New("store: unknown dimension")

// Dimension names a column the sales total can be grouped by.
type Dimension string

const (
	Category    Dimension = "Category"
	SubCategory Dimension = "Sub-Category"
	Region      Dimension = "Region"
	State       Dimension = "State"
	City        Dimension = "City"
	Segment     Dimension = "Segment"
	ShipMode    Dimension = "Ship Mode"
)

var dimensionColumns = map[Dimension]string{
	Category:    "category",
	SubCategory: "sub_category",
	Region:      "region",
	State:       "state",
	City:        "city",
	Segment:     "segment",
	ShipMode:    "ship_mode",
}

// GroupTotal is the sales sum for one key of a dimension.
type GroupTotal struct {
	Key    string  `json:"key"`
	Sales  float64 `json:"sales"`
	Orders int     `json:"rows"`
}

// MonthTotal is the sales sum of one calendar month.
type MonthTotal struct {
	Month time.Time `json:"month"`
	Sales float64   `json:"sales"`
}

// Label renders the month the way the time series axis shows it.
func (m MonthTotal) Label() string { return m.Month.Format("2006 : Jan") }

// HierarchyTotal is the sales sum of one region/category/sub-category leaf.
type HierarchyTotal struct {
	Region      string  `json:"region"`
	Category    string  `json:"category"`
	SubCategory string  `json:"sub_category"`
	Sales       float64 `json:"sales"`
}

// PivotCell is the mean sale of one sub-category in one month of the year.
type PivotCell struct {
	SubCategory string     `json:"sub_category"`
	Month       time.Month `json:"month"`
	MeanSales   float64    `json:"mean_sales"`
}

// SampleRow is one line of the raw data preview.
type SampleRow struct {
	Region   string  `json:"region"`
	State    string  `json:"state"`
	City     string  `json:"city"`
	Category string  `json:"category"`
	Sales    float64 `json:"sales"`
	Profit   float64 `json:"profit"`
	Quantity int     `json:"quantity"`
}

// Summary holds headline totals of a filtered subset.
type Summary struct {
	Rows     int     `json:"rows"`
	Orders   int     `json:"orders"`
	Sales    float64 `json:"sales"`
	Profit   float64 `json:"profit"`
	Quantity int     `json:"quantity"`
}

// where renders the filter as a SQL condition. Dates compare as ISO strings.
func where(f filter.Filter) (string, []any) {
	conds := []string{"1=1"}
	var args []any
	if !f.Start.IsZero() {
		conds = append(conds, "order_date >= ?")
		args = append(args, day(f.Start))
	}
	if !f.End.IsZero() {
		conds = append(conds, "order_date <= ?")
		args = append(args, day(f.End))
	}
	in := func(col string, vals []string) {
		if len(vals) == 0 {
			return
		}
		conds = append(conds, col+" IN ("+strings.TrimRight(strings.Repeat("?,", len(vals)), ",")+")")
		for _, v := range vals {
			args = append(args, v)
		}
	}
	in("region", f.Regions)
	in("state", f.States)
	in("city", f.Cities)
	return strings.Join(conds, " AND "), args
}

// DateBounds returns the first and last order date of the whole table.
func (s *Store) DateBounds(ctx context.Context) (time.Time, time.Time, error) {
	var lo, hi sql.NullString
	if err := s.db.QueryRowContext(ctx, `SELECT MIN(order_date), MAX(order_date) FROM orders`).Scan(&lo, &hi); err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !lo.Valid || !hi.Valid {
		return time.Time{}, time.Time{}, fmt.Errorf("date bounds: %w", sql.ErrNoRows)
	}
	min, err := parseDay(lo.String)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	max, err := parseDay(hi.String)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return min, max, nil
}

// Options lists the selectable regions, states and cities. Each level is
// narrowed by the selections above it and keeps first-appearance order.
func (s *Store) Options(ctx context.Context, f filter.Filter) (filter.Options, error) {
	var (
		opts filter.Options
		err  error
	)
	if opts.Regions, err = s.distinct(ctx, "region", f.Upto(0)); err != nil {
		return opts, err
	}
	if opts.States, err = s.distinct(ctx, "state", f.Upto(1)); err != nil {
		return opts, err
	}
	if opts.Cities, err = s.distinct(ctx, "city", f.Upto(2)); err != nil {
		return opts, err
	}
	return opts, nil
}

func (s *Store) distinct(ctx context.Context, col string, f filter.Filter) ([]string, error) {
	cond, args := where(f)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+col+` FROM orders WHERE `+cond+` AND `+col+` <> '' GROUP BY `+col+` ORDER BY MIN(seq)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// TotalsBy sums sales per value of dim, ordered by value.
func (s *Store) TotalsBy(ctx context.Context, f filter.Filter, dim Dimension) ([]GroupTotal, error) {
	col, ok := dimensionColumns[dim]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDimension, dim)
	}
	cond, args := where(f)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+col+`, SUM(sales), COUNT(*) FROM orders WHERE `+cond+` GROUP BY `+col+` ORDER BY `+col, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []GroupTotal{}
	for rows.Next() {
		var g GroupTotal
		if err := rows.Scan(&g.Key, &g.Sales, &g.Orders); err != nil {
			return nil, err
		}
		g.Sales = dataset.Round2(g.Sales)
		out = append(out, g)
	}
	return out, rows.Err()
}

// Monthly sums sales per calendar month in chronological order.
func (s *Store) Monthly(ctx context.Context, f filter.Filter) ([]MonthTotal, error) {
	cond, args := where(f)
	rows, err := s.db.QueryContext(ctx,
		`SELECT substr(order_date, 1, 7) AS ym, SUM(sales) FROM orders WHERE `+cond+` GROUP BY ym ORDER BY ym`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []MonthTotal{}
	for rows.Next() {
		var (
			ym string
			m  MonthTotal
		)
		if err := rows.Scan(&ym, &m.Sales); err != nil {
			return nil, err
		}
		if m.Month, err = time.Parse("2006-01", ym); err != nil {
			return nil, fmt.Errorf("month %q: %w", ym, err)
		}
		m.Sales = dataset.Round2(m.Sales)
		out = append(out, m)
	}
	return out, rows.Err()
}

// Hierarchy sums sales per region, category and sub-category.
func (s *Store) Hierarchy(ctx context.Context, f filter.Filter) ([]HierarchyTotal, error) {
	cond, args := where(f)
	rows, err := s.db.QueryContext(ctx,
		`SELECT region, category, sub_category, SUM(sales) FROM orders WHERE `+cond+`
		GROUP BY region, category, sub_category ORDER BY region, category, sub_category`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []HierarchyTotal{}
	for rows.Next() {
		var h HierarchyTotal
		if err := rows.Scan(&h.Region, &h.Category, &h.SubCategory, &h.Sales); err != nil {
			return nil, err
		}
		h.Sales = dataset.Round2(h.Sales)
		out = append(out, h)
	}
	return out, rows.Err()
}

// Pivot averages sales per sub-category and month of the year. Months with
// no orders for a sub-category are absent.
func (s *Store) Pivot(ctx context.Context, f filter.Filter) ([]PivotCell, error) {
	cond, args := where(f)
	rows, err := s.db.QueryContext(ctx,
		`SELECT sub_category, CAST(substr(order_date, 6, 2) AS INTEGER) AS mon, AVG(sales) FROM orders
		WHERE `+cond+` GROUP BY sub_category, mon ORDER BY sub_category, mon`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []PivotCell{}
	for rows.Next() {
		var (
			c   PivotCell
			mon int
		)
		if err := rows.Scan(&c.SubCategory, &mon, &c.MeanSales); err != nil {
			return nil, err
		}
		c.Month = time.Month(mon)
		out = append(out, c)
	}
	return out, rows.Err()
}

// Sample returns the first n rows inside the date range. Location selections
// do not apply to the preview.
func (s *Store) Sample(ctx context.Context, f filter.Filter, n int) ([]SampleRow, error) {
	cond, args := where(f.DateOnly())
	args = append(args, n)
	rows, err := s.db.QueryContext(ctx,
		`SELECT region, state, city, category, sales, profit, quantity FROM orders WHERE `+cond+` ORDER BY seq LIMIT ?`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []SampleRow{}
	for rows.Next() {
		var r SampleRow
		if err := rows.Scan(&r.Region, &r.State, &r.City, &r.Category, &r.Sales, &r.Profit, &r.Quantity); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Summary totals the filtered subset.
func (s *Store) Summary(ctx context.Context, f filter.Filter) (Summary, error) {
	cond, args := where(f)
	var sum Summary
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(DISTINCT order_id), COALESCE(SUM(sales), 0), COALESCE(SUM(profit), 0), COALESCE(SUM(quantity), 0)
		FROM orders WHERE `+cond, args...).Scan(&sum.Rows, &sum.Orders, &sum.Sales, &sum.Profit, &sum.Quantity)
	if err != nil {
		return Summary{}, err
	}
	sum.Sales = dataset.Round2(sum.Sales)
	sum.Profit = dataset.Round2(sum.Profit)
	return sum, nil
}

// Orders returns every filtered row in file order.
func (s *Store) Orders(ctx context.Context, f filter.Filter) ([]dataset.Order, error) {
	cond, args := where(f)
	rows, err := s.db.QueryContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE `+cond+` ORDER BY seq`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []dataset.Order{}
	for rows.Next() {
		var (
			o         dataset.Order
			orderDate string
			shipDate  sql.NullString
		)
		if err := rows.Scan(&o.Seq, &o.RowID, &o.OrderID, &orderDate, &shipDate, &o.ShipMode,
			&o.CustomerID, &o.CustomerName, &o.Segment, &o.Country, &o.City, &o.State, &o.PostalCode,
			&o.Region, &o.ProductID, &o.Category, &o.SubCategory, &o.ProductName,
			&o.Sales, &o.Quantity, &o.Discount, &o.Profit); err != nil {
			return nil, err
		}
		if o.OrderDate, err = parseDay(orderDate); err != nil {
			return nil, err
		}
		if shipDate.Valid {
			if o.ShipDate, err = parseDay(shipDate.String); err != nil {
				return nil, err
			}
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
