package model

import "time"

// Series is the benchmark a price belongs to.
type Series string

const (
	SeriesBrent Series = "Brent"
	SeriesWTI   Series = "WTI"
)

// AllSeries lists the series in display order.
var AllSeries = []Series{SeriesBrent, SeriesWTI}

// Valid reports whether s is one of the known benchmarks.
func (s Series) Valid() bool {
	return s == SeriesBrent || s == SeriesWTI
}

// PriceObservation is one daily closing price for a benchmark.
type PriceObservation struct {
	Date   time.Time `json:"date"`
	Price  float64   `json:"price"`
	Series Series    `json:"series"`
}

// DateString renders the observation date as YYYY-MM-DD.
func (o PriceObservation) DateString() string {
	return o.Date.Format(DateLayout)
}

// Table is an unordered collection of observations. Derived tables are
// always new slices; a loaded Table is never modified in place.
type Table []PriceObservation

// CountBySeries returns the number of rows per series.
func (t Table) CountBySeries() map[Series]int {
	counts := make(map[Series]int, len(AllSeries))
	for _, o := range t {
		counts[o.Series]++
	}
	return counts
}

// DateLayout is the calendar date format used on the wire and in the UI.
const DateLayout = "2006-01-02"

// MonthLayout is the label format of a monthly aggregate.
const MonthLayout = "2006-01"

// ToDate truncates t to a UTC calendar date.
func ToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
