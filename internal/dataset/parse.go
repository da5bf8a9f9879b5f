package dataset

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

var dateLayouts = []string{
	DateLayout,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"1/2/2006",
	"01/02/2006",
	"1/2/06",
	"01-02-06",
	"2006/01/02",
	"02.01.2006",
}

// monthOnly is how the .xls reader renders cells with a built-in Excel date
// format. It would otherwise parse as a small serial number.
var monthOnly = regexp.MustCompile(`^\d{4}\.\d{2}$`)

// ParseDate accepts an Excel serial day number or one of the common textual
// layouts. The time of day is dropped.
func ParseDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if monthOnly.MatchString(v) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMonthOnlyDate, v)
	}
	if serial, err := strconv.ParseFloat(v, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, err
		}
		return truncateDay(t), nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return truncateDay(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", v)
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Round2 rounds half away from zero to cents.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func parseNumber(v string) (float64, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, nil
	}
	v = strings.TrimPrefix(v, "$")
	v = strings.ReplaceAll(v, ",", "")
	d, err := decimal.NewFromString(v)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", v)
	}
	return d.InexactFloat64(), nil
}

func parseInt(v string) (int, error) {
	f, err := parseNumber(v)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

func canonHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.ToLower(strings.TrimSpace(h))
}

// headerIndex maps canonical column names to their positions and checks the
// required ones are present.
func headerIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		key := canonHeader(h)
		if key == "" {
			continue
		}
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}
	var missing []string
	for _, col := range requiredColumns {
		if _, ok := idx[canonHeader(col)]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return idx, nil
}

type rowReader struct {
	idx map[string]int
	rec []string
}

func (r rowReader) get(col string) string {
	i, ok := r.idx[canonHeader(col)]
	if !ok || i >= len(r.rec) {
		return ""
	}
	return strings.TrimSpace(r.rec[i])
}

// parseRecords converts raw sheet rows (header first) into orders. Fully
// blank rows are skipped; line numbers in errors are 1-based sheet rows.
func parseRecords(rows [][]string) ([]Order, error) {
	if len(rows) == 0 {
		return nil, ErrEmptySheet
	}
	idx, err := headerIndex(rows[0])
	if err != nil {
		return nil, err
	}
	orders := make([]Order, 0, len(rows)-1)
	for i, rec := range rows[1:] {
		if blankRecord(rec) {
			continue
		}
		line := i + 2
		o, err := parseOrder(rowReader{idx: idx, rec: rec})
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		o.Seq = len(orders)
		orders = append(orders, o)
	}
	if len(orders) == 0 {
		return nil, ErrEmptySheet
	}
	return orders, nil
}

func parseOrder(r rowReader) (Order, error) {
	var (
		o   Order
		err error
	)
	if o.OrderDate, err = ParseDate(r.get(ColOrderDate)); err != nil {
		return o, fmt.Errorf("%s: %w", ColOrderDate, err)
	}
	if v := r.get(ColShipDate); v != "" {
		if o.ShipDate, err = ParseDate(v); err != nil {
			return o, fmt.Errorf("%s: %w", ColShipDate, err)
		}
	}
	if o.RowID, err = parseInt(r.get(ColRowID)); err != nil {
		return o, fmt.Errorf("%s: %w", ColRowID, err)
	}
	if o.Sales, err = parseNumber(r.get(ColSales)); err != nil {
		return o, fmt.Errorf("%s: %w", ColSales, err)
	}
	if o.Profit, err = parseNumber(r.get(ColProfit)); err != nil {
		return o, fmt.Errorf("%s: %w", ColProfit, err)
	}
	if o.Discount, err = parseNumber(r.get(ColDiscount)); err != nil {
		return o, fmt.Errorf("%s: %w", ColDiscount, err)
	}
	if o.Quantity, err = parseInt(r.get(ColQuantity)); err != nil {
		return o, fmt.Errorf("%s: %w", ColQuantity, err)
	}
	o.Sales = Round2(o.Sales)
	o.Profit = Round2(o.Profit)

	o.OrderID = r.get(ColOrderID)
	o.ShipMode = r.get(ColShipMode)
	o.CustomerID = r.get(ColCustomerID)
	o.CustomerName = r.get(ColCustomerName)
	o.Segment = r.get(ColSegment)
	o.Country = r.get(ColCountry)
	o.City = r.get(ColCity)
	o.State = r.get(ColState)
	o.PostalCode = r.get(ColPostalCode)
	o.Region = r.get(ColRegion)
	o.ProductID = r.get(ColProductID)
	o.Category = r.get(ColCategory)
	o.SubCategory = r.get(ColSubCategory)
	o.ProductName = r.get(ColProductName)
	return o, nil
}

func blankRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
