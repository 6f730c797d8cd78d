package calculator

import (
	"math"

	apperrors "OilDashboard/internal/errors"
	"OilDashboard/internal/model"
)

// HistogramBins is the bucket count used by the price distribution chart.
const HistogramBins = 30

// Histogram splits [min, max] of the table's prices into n equal-width bins
// and counts observations per series. Values equal to max land in the last bin.
// An empty table yields no bins.
func Histogram(table model.Table, n int) ([]model.HistogramBin, error) {
	if n <= 0 {
		return nil, apperrors.Newf(apperrors.ErrCodeInvalidParameter, "bin count must be positive, got %d", n)
	}
	if len(table) == 0 {
		return nil, nil
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, o := range table {
		lo = math.Min(lo, o.Price)
		hi = math.Max(hi, o.Price)
	}
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	width := (hi - lo) / float64(n)

	bins := make([]model.HistogramBin, n)
	for i := range bins {
		bins[i] = model.HistogramBin{
			Lower:  lo + float64(i)*width,
			Upper:  lo + float64(i+1)*width,
			Counts: make(map[model.Series]int, len(model.AllSeries)),
		}
	}
	bins[n-1].Upper = hi

	for _, o := range table {
		idx := int((o.Price - lo) / width)
		if idx >= n {
			idx = n - 1
		}
		if idx < 0 {
			idx = 0
		}
		bins[idx].Counts[o.Series]++
	}
	return bins, nil
}
