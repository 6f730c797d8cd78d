package dashboard

import (
	"net/http"
	"strings"
	"time"

	"github.com/moznion/go-optional"

	"OilDashboard/internal/calculator"
	apperrors "OilDashboard/internal/errors"
	"OilDashboard/internal/model"
)

// rangeQuery is the user's date selection as sent by the page.
type rangeQuery struct {
	Start optional.Option[time.Time]
	End   optional.Option[time.Time]
	Raw   bool
}

func parseRangeQuery(r *http.Request) (rangeQuery, error) {
	q := r.URL.Query()
	var out rangeQuery
	var err error
	if out.Start, err = parseDateParam("start", q.Get("start")); err != nil {
		return rangeQuery{}, err
	}
	if out.End, err = parseDateParam("end", q.Get("end")); err != nil {
		return rangeQuery{}, err
	}
	switch strings.ToLower(q.Get("raw")) {
	case "1", "true", "on", "yes":
		out.Raw = true
	}
	return out, nil
}

func parseDateParam(name, raw string) (optional.Option[time.Time], error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return optional.None[time.Time](), nil
	}
	t, err := time.Parse(model.DateLayout, raw)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrCodeInvalidParameter, err, "%s must be YYYY-MM-DD", name)
	}
	return optional.Some(t), nil
}

// resolve fills missing bounds with the table's first and last dates.
func (q rangeQuery) resolve(table model.Table) (start, end time.Time) {
	lo, hi, _ := calculator.DateBounds(table)
	return q.Start.TakeOr(lo), q.End.TakeOr(hi)
}
