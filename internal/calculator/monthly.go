package calculator

import (
	"sort"

	"github.com/shopspring/decimal"

	"OilDashboard/internal/model"
)

// MonthlyAverage restricts the table to Brent and returns the mean price of
// every calendar month present, sorted by month ascending.
func MonthlyAverage(table model.Table) []model.MonthlyAverage {
	type bucket struct {
		sum   decimal.Decimal
		count int
	}
	buckets := make(map[string]*bucket)
	for _, o := range FilterSeries(table, model.SeriesBrent) {
		key := o.Date.Format(model.MonthLayout)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
		}
		b.sum = b.sum.Add(decimal.NewFromFloat(o.Price))
		b.count++
	}

	out := make([]model.MonthlyAverage, 0, len(buckets))
	for month, b := range buckets {
		mean, _ := b.sum.Div(decimal.NewFromInt(int64(b.count))).Float64()
		out = append(out, model.MonthlyAverage{Month: month, Price: mean, Count: b.count})
	}
	// "2006-01" labels sort chronologically as strings.
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}
