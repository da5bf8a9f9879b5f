package server

import (
	"html/template"
	"slices"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/types"

	"superstore/internal/dashboard"
)

const assetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

var chartThemes = []string{
	types.ThemeMacarons,
	types.ThemeWesteros,
	types.ThemeInfographic,
	types.ThemeChalk,
	types.ThemeWalden,
}

type kpi struct {
	Label string
	Value string
}

type downloadLink struct {
	Href  string
	Label string
}

type pageData struct {
	Title     string
	Assets    string
	Themes    []string
	D         *dashboard.Dashboard
	KPIs      []kpi
	Charts    dashboard.Charts
	Category  dashboard.Table
	Region    dashboard.Table
	Monthly   dashboard.Table
	Pivot     dashboard.Table
	Sample    dashboard.Table
	Downloads map[string]downloadLink
}

func newPageData(d *dashboard.Dashboard) pageData {
	q := d.Filter.Query().Encode()
	links := make(map[string]downloadLink, len(dashboard.Downloads))
	for _, dl := range dashboard.Downloads {
		links[dl.Name] = downloadLink{Href: "/export/" + dl.Name + ".xlsx?" + q, Label: "Download " + dl.Label}
	}
	return pageData{
		Title:  dashboard.Title,
		Assets: assetsHost,
		Themes: chartThemes,
		D:      d,
		KPIs: []kpi{
			{Label: "Total Sales", Value: dashboard.Currency(d.Summary.Sales)},
			{Label: "Total Profit", Value: dashboard.Currency(d.Summary.Profit)},
			{Label: "Orders", Value: strconv.Itoa(d.Summary.Orders)},
			{Label: "Quantity", Value: strconv.Itoa(d.Summary.Quantity)},
		},
		Charts:    d.Charts(),
		Category:  d.CategoryTable(),
		Region:    d.RegionTable(),
		Monthly:   d.TimeSeriesTable(),
		Pivot:     d.PivotView(),
		Sample:    d.SampleTable(),
		Downloads: links,
	}
}

var pageFuncs = template.FuncMap{
	"selected": func(list []string, v string) bool { return slices.Contains(list, v) },
}

var pageTemplate = template.Must(template.New("dashboard").Funcs(pageFuncs).Parse(`<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>{{ .Title }}</title>
  <script src="{{ .Assets }}echarts.min.js"></script>
  {{- range .Themes }}
  <script src="{{ $.Assets }}themes/{{ . }}.js"></script>
  {{- end }}
  <style>
    :root {
      --bg: #f5f7fb;
      --card: #ffffff;
      --ink: #0f172a;
      --muted: #64748b;
      --border: #e2e8f0;
      --shadow: 0 10px 24px rgba(15, 23, 42, 0.08);
    }
    body { margin: 0; background: var(--bg); color: var(--ink); font-family: "Segoe UI", Helvetica, Arial, sans-serif; }
    .layout { display: grid; grid-template-columns: 260px 1fr; min-height: 100vh; }
    aside { background: #0f172a; color: #e2e8f0; padding: 24px 18px; }
    aside h2 { font-size: 16px; margin: 0 0 12px; }
    aside label { display: block; font-size: 13px; margin: 14px 0 6px; color: #cbd5f5; }
    aside select, aside input { width: 100%; box-sizing: border-box; padding: 6px; border-radius: 6px; border: 1px solid #334155; }
    aside select[multiple] { min-height: 110px; }
    main { padding: 28px 32px 64px; }
    h1 { margin: 0 0 6px; font-size: 30px; }
    .range { color: var(--muted); margin-bottom: 22px; }
    .kpis { display: grid; grid-template-columns: repeat(4, 1fr); gap: 14px; margin-bottom: 24px; }
    .kpi, .card { background: var(--card); border: 1px solid var(--border); border-radius: 14px; box-shadow: var(--shadow); }
    .kpi { padding: 16px 18px; }
    .kpi span { display: block; color: var(--muted); font-size: 13px; }
    .kpi strong { font-size: 22px; }
    .card { padding: 18px 20px; margin-bottom: 22px; overflow-x: auto; }
    .card h3 { margin: 0 0 12px; }
    .row { display: grid; grid-template-columns: 1fr 1fr; gap: 22px; }
    table { border-collapse: collapse; width: 100%; font-size: 14px; }
    th, td { border: 1px solid var(--border); padding: 6px 10px; text-align: left; white-space: nowrap; }
    table.sample th { background: #0C134F; color: #ffffff; }
    table.sample tbody tr:nth-child(odd) td { background: #AED2FF; }
    table.sample tbody tr:nth-child(even) td { background: #E4F1FF; }
    .download { display: inline-block; margin-top: 10px; color: #0f766e; text-decoration: none; font-weight: 600; }
    .empty { color: var(--muted); }
  </style>
</head>
<body>
<div class="layout">
  <aside>
    <form method="get" action="/">
      <h2>Choose your filter</h2>
      <label for="start">Start Date</label>
      <input id="start" type="date" name="start" value="{{ .D.Start }}" min="{{ .D.MinDate }}" max="{{ .D.MaxDate }}" onchange="this.form.submit()" />
      <label for="end">End Date</label>
      <input id="end" type="date" name="end" value="{{ .D.End }}" min="{{ .D.MinDate }}" max="{{ .D.MaxDate }}" onchange="this.form.submit()" />
      <label for="region">Pick your Region</label>
      <select id="region" name="region" multiple onchange="this.form.submit()">
        {{- range .D.Options.Regions }}
        <option value="{{ . }}"{{ if selected $.D.Selected.Regions . }} selected{{ end }}>{{ . }}</option>
        {{- end }}
      </select>
      <label for="state">Pick the State</label>
      <select id="state" name="state" multiple onchange="this.form.submit()">
        {{- range .D.Options.States }}
        <option value="{{ . }}"{{ if selected $.D.Selected.States . }} selected{{ end }}>{{ . }}</option>
        {{- end }}
      </select>
      <label for="city">Pick the City</label>
      <select id="city" name="city" multiple onchange="this.form.submit()">
        {{- range .D.Options.Cities }}
        <option value="{{ . }}"{{ if selected $.D.Selected.Cities . }} selected{{ end }}>{{ . }}</option>
        {{- end }}
      </select>
    </form>
  </aside>
  <main>
    <h1>{{ .Title }}</h1>
    <div class="range">{{ .D.Start }} to {{ .D.End }}</div>
    <div class="kpis">
      {{- range .KPIs }}
      <div class="kpi"><span>{{ .Label }}</span><strong>{{ .Value }}</strong></div>
      {{- end }}
    </div>

    <div class="row">
      <div class="card">
        <h3>Category wise Sales</h3>
        {{ .Charts.CategoryBar }}
        {{ template "table" .Category }}
        {{ with index .Downloads "category" }}<a class="download" href="{{ .Href }}">{{ .Label }}</a>{{ end }}
      </div>
      <div class="card">
        <h3>Region wise Sales</h3>
        {{ .Charts.RegionPie }}
        {{ template "table" .Region }}
        {{ with index .Downloads "region" }}<a class="download" href="{{ .Href }}">{{ .Label }}</a>{{ end }}
      </div>
    </div>

    <div class="card">
      <h3>Time Series Analysis</h3>
      {{ .Charts.MonthlyLine }}
      {{ template "table" .Monthly }}
      {{ with index .Downloads "timeseries" }}<a class="download" href="{{ .Href }}">{{ .Label }}</a>{{ end }}
    </div>

    <div class="card">
      <h3>Hierarchical view of Sales using TreeMap</h3>
      {{ .Charts.Treemap }}
    </div>

    <div class="row">
      <div class="card">
        <h3>Segment wise Sales</h3>
        {{ .Charts.SegmentPie }}
        {{ with index .Downloads "segment" }}<a class="download" href="{{ .Href }}">{{ .Label }}</a>{{ end }}
      </div>
      <div class="card">
        <h3>Category wise Sales</h3>
        {{ .Charts.CategoryPie }}
      </div>
    </div>

    <div class="card">
      <h3>Month wise Sub-Category Table</h3>
      {{ template "table" .Pivot }}
      {{ with index .Downloads "subcategory-month" }}<a class="download" href="{{ .Href }}">{{ .Label }}</a>{{ end }}
    </div>

    <div class="card">
      <h3>Summary Table</h3>
      <table class="sample">
        <thead><tr>{{ range .Sample.Headers }}<th>{{ . }}</th>{{ end }}</tr></thead>
        <tbody>
        {{- range .Sample.Rows }}
          <tr>{{ range . }}<td>{{ .Text }}</td>{{ end }}</tr>
        {{- end }}
        </tbody>
      </table>
      {{ with index .Downloads "orders" }}<a class="download" href="{{ .Href }}">{{ .Label }}</a>{{ end }}
    </div>
  </main>
</div>
</body>
</html>
{{ define "table" -}}
{{ if .Rows -}}
<table>
  <thead><tr>{{ range .Headers }}<th>{{ . }}</th>{{ end }}</tr></thead>
  <tbody>
  {{- range .Rows }}
    <tr>{{ range . }}<td{{ if .Shade.Background }} style="background: {{ .Shade.Background }}; color: {{ .Shade.Text }}"{{ end }}>{{ .Text }}</td>{{ end }}</tr>
  {{- end }}
  </tbody>
</table>
{{- else -}}
<p class="empty">No data for this selection.</p>
{{- end }}
{{- end }}`))
