// Package render draws the dashboard figures as SVG using go-chart.
// Renderers only draw what the calculator package produced.
package render

import (
	"fmt"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	apperrors "OilDashboard/internal/errors"
	"OilDashboard/internal/model"
)

// ErrNoData is returned when there is nothing to draw.
var ErrNoData = apperrors.New(apperrors.ErrCodeNoData, "no data to render")

// Options sizes a figure in pixels.
type Options struct {
	Width  int
	Height int
}

// DefaultOptions is used when a caller passes zero sizes.
var DefaultOptions = Options{Width: 1100, Height: 420}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = DefaultOptions.Width
	}
	if o.Height <= 0 {
		o.Height = DefaultOptions.Height
	}
	return o
}

// Palette maps each series to its color in one figure.
type Palette map[model.Series]string

var (
	// LinePalette colors the price-over-time chart.
	LinePalette = Palette{model.SeriesBrent: "#00A19C", model.SeriesWTI: "#ff7f0e"}
	// HistogramPalette colors the distribution chart.
	HistogramPalette = Palette{model.SeriesBrent: "#763F98", model.SeriesWTI: "#20419A"}
)

// Color returns the drawing color for series.
func (p Palette) Color(s model.Series) drawing.Color {
	return hexColor(p[s])
}

func hexColor(hex string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}

var (
	barOutline       = hexColor("#008000")
	histogramOutline = drawing.ColorBlack
)

func background() chart.Style {
	return chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}}
}

func priceFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("%.0f", f)
	}
	return ""
}
