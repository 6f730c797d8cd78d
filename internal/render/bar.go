package render

import (
	"io"
	"math"
	"sort"

	chart "github.com/wcharczuk/go-chart/v2"

	"OilDashboard/internal/model"
)

// maxLabeledBars is the bar count above which x labels are hidden.
const maxLabeledBars = 48

// MonthlyBarChart draws one bar per month, filled on a viridis scale by price.
func MonthlyBarChart(w io.Writer, monthly []model.MonthlyAverage, opts Options) error {
	if len(monthly) == 0 {
		return ErrNoData
	}
	opts = opts.withDefaults()

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, m := range monthly {
		lo = math.Min(lo, m.Price)
		hi = math.Max(hi, m.Price)
	}

	bars := make([]chart.Value, len(monthly))
	for i, m := range monthly {
		fill := chart.Viridis(m.Price, lo, hi)
		if lo == hi {
			fill = chart.Viridis(0.5, 0, 1)
		}
		bars[i] = chart.Value{
			Label: m.Month,
			Value: m.Price,
			Style: chart.Style{
				FillColor:   fill,
				StrokeColor: barOutline,
				StrokeWidth: 1.5,
			},
		}
	}

	spacing, width := barGeometry(opts.Width, len(bars))
	bc := chart.BarChart{
		Title:      "Average Monthly Brent Oil Prices",
		Width:      opts.Width,
		Height:     opts.Height,
		Background: background(),
		BarWidth:   width,
		BarSpacing: spacing,
		XAxis:      chart.Style{Hidden: len(bars) > maxLabeledBars},
		YAxis: chart.YAxis{
			Name:           "Average Price (USD)",
			ValueFormatter: priceFormatter,
			Range:          zeroBasedRange(lo, hi),
		},
		Bars: bars,
	}
	return bc.Render(chart.SVG, w)
}

// barGeometry fits n bars into a canvas of the given width.
func barGeometry(canvasWidth, n int) (spacing, width int) {
	usable := canvasWidth - 120
	slot := usable / n
	if slot < 2 {
		slot = 2
	}
	spacing = slot / 5
	width = slot - spacing
	if width < 1 {
		width = 1
	}
	return spacing, width
}

// zeroBasedRange spans 0 and the data with 10% headroom.
func zeroBasedRange(lo, hi float64) *chart.ContinuousRange {
	lo, hi = math.Min(0, lo), math.Max(0, hi)
	if lo == hi {
		hi = lo + 1
	}
	return &chart.ContinuousRange{Min: lo, Max: hi + (hi-lo)*0.1}
}

func sortByDate(rows model.Table) {
	if sort.SliceIsSorted(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) }) {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
}
