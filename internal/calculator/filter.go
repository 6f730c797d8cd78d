package calculator

import (
	"time"

	"OilDashboard/internal/model"
)

// FilterByDate returns the rows whose date lies in [start, end], inclusive on
// both ends. An inverted range yields an empty table. The input is not modified.
func FilterByDate(table model.Table, start, end time.Time) model.Table {
	start, end = model.ToDate(start), model.ToDate(end)
	out := make(model.Table, 0)
	if start.After(end) {
		return out
	}
	for _, o := range table {
		if o.Date.Before(start) || o.Date.After(end) {
			continue
		}
		out = append(out, o)
	}
	return out
}

// DateBounds returns the earliest and latest dates in the table.
// ok is false for an empty table.
func DateBounds(table model.Table) (minDate, maxDate time.Time, ok bool) {
	if len(table) == 0 {
		return time.Time{}, time.Time{}, false
	}
	minDate, maxDate = table[0].Date, table[0].Date
	for _, o := range table[1:] {
		if o.Date.Before(minDate) {
			minDate = o.Date
		}
		if o.Date.After(maxDate) {
			maxDate = o.Date
		}
	}
	return minDate, maxDate, true
}

// FilterSeries returns the rows belonging to series.
func FilterSeries(table model.Table, series model.Series) model.Table {
	out := make(model.Table, 0)
	for _, o := range table {
		if o.Series == series {
			out = append(out, o)
		}
	}
	return out
}
