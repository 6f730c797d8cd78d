package render

import (
	"io"
	"math"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"OilDashboard/internal/model"
)

// LineChart draws one price line per series over time.
func LineChart(w io.Writer, table model.Table, opts Options) error {
	if len(table) == 0 {
		return ErrNoData
	}
	opts = opts.withDefaults()

	var series []chart.Series
	for _, s := range model.AllSeries {
		xs, ys := pointsFor(table, s)
		if len(xs) == 0 {
			continue
		}
		// go-chart needs a non-zero x range.
		if len(xs) == 1 {
			xs = append(xs, xs[0].Add(12*time.Hour))
			ys = append(ys, ys[0])
		}
		series = append(series, chart.TimeSeries{
			Name:    string(s),
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: LinePalette.Color(s),
				StrokeWidth: 1.5,
			},
		})
	}

	ch := chart.Chart{
		Title:      "WTI vs Brent Oil Prices Over Time",
		Width:      opts.Width,
		Height:     opts.Height,
		Background: background(),
		XAxis: chart.XAxis{
			Name:           "Date",
			ValueFormatter: chart.TimeDateValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Price (USD)",
			ValueFormatter: priceFormatter,
		},
		Series: series,
	}
	if lo, hi := priceBounds(table); lo == hi {
		ch.YAxis.Range = &chart.ContinuousRange{Min: lo - 1, Max: hi + 1}
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	return ch.Render(chart.SVG, w)
}

// pointsFor returns the series' points in date order. Source files are
// already date-ascending, so this only checks and falls back to a sort.
func pointsFor(table model.Table, s model.Series) ([]time.Time, []float64) {
	var rows model.Table
	for _, o := range table {
		if o.Series == s {
			rows = append(rows, o)
		}
	}
	sortByDate(rows)

	xs := make([]time.Time, len(rows))
	ys := make([]float64, len(rows))
	for i, o := range rows {
		xs[i] = o.Date
		ys[i] = o.Price
	}
	return xs, ys
}

func priceBounds(table model.Table) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, o := range table {
		lo = math.Min(lo, o.Price)
		hi = math.Max(hi, o.Price)
	}
	return lo, hi
}
