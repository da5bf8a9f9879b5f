package dashboard

import (
	"html/template"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/render"
	"github.com/go-echarts/go-echarts/v2/types"

	"superstore/internal/store"
)

// Charts holds the rendered chart snippets for the page, each a <div> plus
// the <script> that draws into it.
type Charts struct {
	CategoryBar template.HTML
	RegionPie   template.HTML
	MonthlyLine template.HTML
	Treemap     template.HTML
	SegmentPie  template.HTML
	CategoryPie template.HTML
}

type snippetRenderer interface {
	RenderSnippet() render.ChartSnippet
}

func renderSnippet(c snippetRenderer) template.HTML {
	s := c.RenderSnippet()
	return template.HTML(s.Element + "\n" + s.Script)
}

func boolPtr(b bool) *bool { return &b }

// Charts renders every chart of the dashboard.
func (d *Dashboard) Charts() Charts {
	return Charts{
		CategoryBar: renderSnippet(d.CategoryBarChart()),
		RegionPie:   renderSnippet(d.RegionPieChart()),
		MonthlyLine: renderSnippet(d.MonthlyLineChart()),
		Treemap:     renderSnippet(d.TreemapChart()),
		SegmentPie:  renderSnippet(d.SegmentPieChart()),
		CategoryPie: renderSnippet(d.CategoryPieChart()),
	}
}

func initOpts(id, theme, height string) charts.GlobalOpts {
	return charts.WithInitializationOpts(opts.Initialization{
		ChartID: id,
		Theme:   theme,
		Width:   "100%",
		Height:  height,
	})
}

// CategoryBarChart is sales per category with dollar labels on the bars.
func (d *Dashboard) CategoryBarChart() *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		initOpts("category-bar", types.ThemeMacarons, "400px"),
		charts.WithTooltipOpts(opts.Tooltip{Show: boolPtr(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Sales"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Category"}),
	)
	x := make([]string, 0, len(d.Category))
	items := make([]opts.BarData, 0, len(d.Category))
	for _, g := range d.Category {
		x = append(x, g.Key)
		items = append(items, opts.BarData{
			Value: g.Sales,
			Label: &opts.Label{Show: boolPtr(true), Position: "top", Formatter: Currency(g.Sales)},
		})
	}
	bar.SetXAxis(x).AddSeries("Sales", items)
	return bar
}

// RegionPieChart is the regional share of sales drawn as a donut.
func (d *Dashboard) RegionPieChart() *charts.Pie {
	return pieChart("region-pie", types.ThemeWesteros, d.Region, true, "outside")
}

// SegmentPieChart is the share of sales per customer segment.
func (d *Dashboard) SegmentPieChart() *charts.Pie {
	return pieChart("segment-pie", types.ThemeChalk, d.Segment, false, "inside")
}

// CategoryPieChart is the share of sales per category.
func (d *Dashboard) CategoryPieChart() *charts.Pie {
	return pieChart("category-pie", types.ThemeWalden, d.Category, false, "inside")
}

func pieChart(id, theme string, totals []store.GroupTotal, donut bool, labelPos string) *charts.Pie {
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		initOpts(id, theme, "400px"),
		charts.WithTooltipOpts(opts.Tooltip{Show: boolPtr(true), Trigger: "item"}),
		charts.WithLegendOpts(opts.Legend{Show: boolPtr(true)}),
	)
	items := make([]opts.PieData, 0, len(totals))
	for _, g := range totals {
		items = append(items, opts.PieData{Name: g.Key, Value: g.Sales})
	}
	radius := []string{"0%", "70%"}
	if donut {
		radius = []string{"17.5%", "70%"}
	}
	pie.AddSeries("Sales", items,
		charts.WithLabelOpts(opts.Label{Show: boolPtr(true), Position: labelPos, Formatter: "{b}: {d}%"}),
		charts.WithPieChartOpts(opts.PieChart{Radius: radius}),
	)
	return pie
}

// MonthlyLineChart is the monthly sales time series.
func (d *Dashboard) MonthlyLineChart() *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		initOpts("monthly-line", types.ThemeInfographic, "500px"),
		charts.WithTooltipOpts(opts.Tooltip{Show: boolPtr(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "month_year"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Amount"}),
	)
	x := make([]string, 0, len(d.Monthly))
	items := make([]opts.LineData, 0, len(d.Monthly))
	for _, m := range d.Monthly {
		x = append(x, m.Label())
		items = append(items, opts.LineData{Value: m.Sales})
	}
	line.SetXAxis(x).AddSeries("Amount", items)
	return line
}

// TreemapChart nests sales as region, then category, then sub-category.
func (d *Dashboard) TreemapChart() *charts.TreeMap {
	tm := charts.NewTreeMap()
	tm.SetGlobalOptions(
		initOpts("hierarchy-treemap", types.ThemeMacarons, "650px"),
		charts.WithTooltipOpts(opts.Tooltip{Show: boolPtr(true)}),
		charts.WithLegendOpts(opts.Legend{Show: boolPtr(false)}),
	)
	tm.AddSeries("Sales", TreemapNodes(d.Hierarchy))
	return tm
}

// TreemapNodes groups hierarchy leaves under their category and region.
// Values are whole dollars because the chart library stores integers.
func TreemapNodes(leaves []store.HierarchyTotal) []opts.TreeMapNode {
	var (
		regions []opts.TreeMapNode
		rIdx    = map[string]int{}
		cIdx    = map[[2]string]int{}
	)
	for _, h := range leaves {
		ri, ok := rIdx[h.Region]
		if !ok {
			ri = len(regions)
			rIdx[h.Region] = ri
			regions = append(regions, opts.TreeMapNode{Name: h.Region})
		}
		region := &regions[ri]
		ck := [2]string{h.Region, h.Category}
		ci, ok := cIdx[ck]
		if !ok {
			ci = len(region.Children)
			cIdx[ck] = ci
			region.Children = append(region.Children, opts.TreeMapNode{Name: h.Category})
		}
		v := int(math.Round(h.Sales))
		cat := &region.Children[ci]
		cat.Children = append(cat.Children, opts.TreeMapNode{Name: h.SubCategory, Value: v})
		cat.Value += v
		region.Value += v
	}
	return regions
}
