// Package console prints dashboard figures to a terminal.
package console

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"superstore/internal/dashboard"
	"superstore/internal/store"
)

var (
	heading = color.New(color.FgCyan, color.Bold)
	section = color.New(color.FgYellow)
	muted   = color.New(color.Faint)
)

// PrintSummary writes the headline numbers and the category, region and
// segment breakdowns of d.
func PrintSummary(w io.Writer, d *dashboard.Dashboard) {
	heading.Fprintf(w, "\n=== %s ===\n", dashboard.Title)
	muted.Fprintf(w, "%s to %s\n", d.Start, d.End)
	if d.Filter.HasLocation() {
		muted.Fprintf(w, "regions %v  states %v  cities %v\n", d.Filter.Regions, d.Filter.States, d.Filter.Cities)
	}

	section.Fprintln(w, "\nTotals")
	t := tablewriter.NewWriter(w)
	t.SetHeader([]string{"Sales", "Profit", "Orders", "Rows", "Quantity"})
	t.Append([]string{
		dashboard.Currency(d.Summary.Sales),
		dashboard.Currency(d.Summary.Profit),
		strconv.Itoa(d.Summary.Orders),
		strconv.Itoa(d.Summary.Rows),
		strconv.Itoa(d.Summary.Quantity),
	})
	t.Render()

	printTotals(w, "Category", d.Category)
	printTotals(w, "Region", d.Region)
	printTotals(w, "Segment", d.Segment)
}

func printTotals(w io.Writer, name string, rows []store.GroupTotal) {
	section.Fprintf(w, "\n%s wise Sales\n", name)
	if len(rows) == 0 {
		fmt.Fprintln(w, "no data for this selection")
		return
	}
	t := tablewriter.NewWriter(w)
	t.SetHeader([]string{name, "Sales", "Rows"})
	t.SetAlignment(tablewriter.ALIGN_RIGHT)
	for _, r := range rows {
		t.Append([]string{r.Key, dashboard.Amount(r.Sales), strconv.Itoa(r.Orders)})
	}
	t.Render()
}
