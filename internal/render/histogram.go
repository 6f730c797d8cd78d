package render

import (
	"io"

	chart "github.com/wcharczuk/go-chart/v2"

	"OilDashboard/internal/model"
)

// Histogram draws price buckets stacked by series. Each series is a filled
// step outline; later series sit on top of earlier ones.
func Histogram(w io.Writer, bins []model.HistogramBin, opts Options) error {
	if len(bins) == 0 {
		return ErrNoData
	}
	opts = opts.withDefaults()

	stacked := make([]float64, len(bins))
	var layers []chart.Series
	maxTotal := 0.0
	for _, s := range model.AllSeries {
		for i, b := range bins {
			stacked[i] += float64(b.Counts[s])
			if stacked[i] > maxTotal {
				maxTotal = stacked[i]
			}
		}
		xs, ys := stepOutline(bins, stacked)
		layers = append(layers, chart.ContinuousSeries{
			Name:    string(s),
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: histogramOutline,
				StrokeWidth: 1.2,
				FillColor:   HistogramPalette.Color(s),
			},
		})
	}
	// Draw the tallest layer first so lower layers stay visible.
	for i, j := 0, len(layers)-1; i < j; i, j = i+1, j-1 {
		layers[i], layers[j] = layers[j], layers[i]
	}

	ch := chart.Chart{
		Title:      "Distribution of WTI and Brent Oil Prices",
		Width:      opts.Width,
		Height:     opts.Height,
		Background: background(),
		XAxis: chart.XAxis{
			Name:           "Price (USD)",
			ValueFormatter: priceFormatter,
			Range:          &chart.ContinuousRange{Min: bins[0].Lower, Max: bins[len(bins)-1].Upper},
		},
		YAxis: chart.YAxis{
			Name:           "count",
			ValueFormatter: priceFormatter,
			Range:          zeroBasedRange(0, maxTotal),
		},
		Series: layers,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	return ch.Render(chart.SVG, w)
}

// stepOutline converts bin heights into the corner points of a step shape
// that starts and ends on the zero line.
func stepOutline(bins []model.HistogramBin, heights []float64) ([]float64, []float64) {
	xs := make([]float64, 0, 2*len(bins)+2)
	ys := make([]float64, 0, 2*len(bins)+2)
	xs = append(xs, bins[0].Lower)
	ys = append(ys, 0)
	for i, b := range bins {
		xs = append(xs, b.Lower, b.Upper)
		ys = append(ys, heights[i], heights[i])
	}
	xs = append(xs, bins[len(bins)-1].Upper)
	ys = append(ys, 0)
	return xs, ys
}
