package model

// MonthlyAverage is the mean price of one calendar month.
type MonthlyAverage struct {
	Month string  `json:"month"` // "2024-03"
	Price float64 `json:"price"`
	Count int     `json:"count"`
}

// HistogramBin is one equal-width price bucket, counted per series.
// Lower is inclusive; Upper is exclusive except for the last bin.
type HistogramBin struct {
	Lower  float64        `json:"lower"`
	Upper  float64        `json:"upper"`
	Counts map[Series]int `json:"counts"`
}

// Total is the number of observations in the bin across all series.
func (b HistogramBin) Total() int {
	n := 0
	for _, c := range b.Counts {
		n += c
	}
	return n
}
