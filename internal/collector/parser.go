package collector

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	apperrors "OilDashboard/internal/errors"
	"OilDashboard/internal/model"
)

// ParseOptions names the columns to read from a price file.
type ParseOptions struct {
	DateColumn  string
	PriceColumn string
}

// DefaultParseOptions matches the datasets/oil-prices CSV layout.
var DefaultParseOptions = ParseOptions{DateColumn: "Date", PriceColumn: "Price"}

var dateLayouts = []string{
	model.DateLayout,
	"2006/01/02",
	"01/02/2006",
	time.RFC3339,
}

// ParseCSV decodes a price file into observations tagged with series.
// Rows with a blank price are skipped. A missing column, an empty file,
// an unparseable date or a non-numeric price fails with ErrCodeParseFailed.
func ParseCSV(data []byte, series model.Series, opts ParseOptions) (model.Table, error) {
	if !series.Valid() {
		return nil, apperrors.Newf(apperrors.ErrCodeParseFailed, "unknown series %q", series)
	}
	if opts.DateColumn == "" {
		opts.DateColumn = DefaultParseOptions.DateColumn
	}
	if opts.PriceColumn == "" {
		opts.PriceColumn = DefaultParseOptions.PriceColumn
	}

	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	rows, err := gocsv.CSVToMaps(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrCodeParseFailed, err, "decode %s csv", series)
	}
	if len(rows) == 0 {
		return nil, apperrors.Newf(apperrors.ErrCodeParseFailed, "%s csv has no rows", series)
	}

	dateKey, ok := findColumn(rows[0], opts.DateColumn)
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrCodeParseFailed, "%s csv: missing column %q", series, opts.DateColumn)
	}
	priceKey, ok := findColumn(rows[0], opts.PriceColumn)
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrCodeParseFailed, "%s csv: missing column %q", series, opts.PriceColumn)
	}

	table := make(model.Table, 0, len(rows))
	for i, row := range rows {
		line := i + 2 // header is line 1
		rawPrice := strings.TrimSpace(row[priceKey])
		if rawPrice == "" {
			continue
		}
		date, err := parseDate(row[dateKey])
		if err != nil {
			return nil, apperrors.Wrapf(apperrors.ErrCodeParseFailed, err, "%s csv line %d", series, line)
		}
		price, err := strconv.ParseFloat(rawPrice, 64)
		if err != nil {
			return nil, apperrors.Wrapf(apperrors.ErrCodeParseFailed, err, "%s csv line %d: price", series, line)
		}
		table = append(table, model.PriceObservation{Date: date, Price: price, Series: series})
	}
	return table, nil
}

// findColumn returns the header key in row matching name case-insensitively.
func findColumn(row map[string]string, name string) (string, bool) {
	for key := range row {
		if strings.EqualFold(strings.TrimSpace(key), name) {
			return key, true
		}
	}
	return "", false
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return model.ToDate(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", raw)
}
