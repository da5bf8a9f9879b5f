// Package dataset reads the Superstore order spreadsheet into typed rows.
package dataset

import (
	"errors"
	"time"
)

var (
	ErrEmptySheet    = errors.New("dataset: sheet has no data rows")
	ErrMissingColumn = errors.New("dataset: required column missing")
	ErrUnknownFormat = errors.New("dataset: unsupported file format")
	ErrMonthOnlyDate = errors.New("dataset: date has year and month only, save the workbook as .xlsx or .csv")
)

// Order is one line of the sales sheet. Seq keeps the position the row had
// in the source file.
type Order struct {
	Seq          int
	RowID        int
	OrderID      string
	OrderDate    time.Time
	ShipDate     time.Time
	ShipMode     string
	CustomerID   string
	CustomerName string
	Segment      string
	Country      string
	City         string
	State        string
	PostalCode   string
	Region       string
	ProductID    string
	Category     string
	SubCategory  string
	ProductName  string
	Sales        float64
	Quantity     int
	Discount     float64
	Profit       float64
}

// Column headers as they appear in the source sheet.
const (
	ColRowID        = "Row ID"
	ColOrderID      = "Order ID"
	ColOrderDate    = "Order Date"
	ColShipDate     = "Ship Date"
	ColShipMode     = "Ship Mode"
	ColCustomerID   = "Customer ID"
	ColCustomerName = "Customer Name"
	ColSegment      = "Segment"
	ColCountry      = "Country"
	ColCity         = "City"
	ColState        = "State"
	ColPostalCode   = "Postal Code"
	ColRegion       = "Region"
	ColProductID    = "Product ID"
	ColCategory     = "Category"
	ColSubCategory  = "Sub-Category"
	ColProductName  = "Product Name"
	ColSales        = "Sales"
	ColQuantity     = "Quantity"
	ColDiscount     = "Discount"
	ColProfit       = "Profit"
)

var requiredColumns = []string{
	ColOrderDate, ColRegion, ColState, ColCity, ColCategory, ColSubCategory, ColSegment, ColSales,
}

// Columns lists every header in sheet order.
var Columns = []string{
	ColRowID, ColOrderID, ColOrderDate, ColShipDate, ColShipMode, ColCustomerID, ColCustomerName,
	ColSegment, ColCountry, ColCity, ColState, ColPostalCode, ColRegion, ColProductID, ColCategory,
	ColSubCategory, ColProductName, ColSales, ColQuantity, ColDiscount, ColProfit,
}

// Values returns the row in Columns order, suitable for spreadsheet export.
func (o Order) Values() []any {
	return []any{
		o.RowID, o.OrderID, dateOrEmpty(o.OrderDate), dateOrEmpty(o.ShipDate), o.ShipMode, o.CustomerID,
		o.CustomerName, o.Segment, o.Country, o.City, o.State, o.PostalCode, o.Region, o.ProductID,
		o.Category, o.SubCategory, o.ProductName, o.Sales, o.Quantity, o.Discount, o.Profit,
	}
}

func dateOrEmpty(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// DateLayout is the canonical day format used across the module.
const DateLayout = "2006-01-02"
