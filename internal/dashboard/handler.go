package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"OilDashboard/internal/calculator"
	apperrors "OilDashboard/internal/errors"
	"OilDashboard/internal/logger"
	"OilDashboard/internal/model"
	"OilDashboard/internal/recorder"
	"OilDashboard/internal/render"
)

// TableSource is the memoized observation table the handlers read from.
type TableSource interface {
	Get(ctx context.Context) (model.Table, error)
	Refresh(ctx context.Context, trigger recorder.Trigger) error
	Loaded() (time.Time, bool)
	Len() int
}

// Handler serves the dashboard page, its charts and the JSON API.
type Handler struct {
	source   TableSource
	recorder recorder.Recorder
	page     PageConfig
	charts   render.Options
	log      *logger.Logger
}

func NewHandler(source TableSource, rec recorder.Recorder, page PageConfig, charts render.Options, log *logger.Logger) *Handler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Handler{source: source, recorder: rec, page: page.withDefaults(), charts: charts, log: log}
}

// selection is one request's resolved range and the rows inside it.
type selection struct {
	Start    time.Time
	End      time.Time
	Raw      bool
	Filtered model.Table
}

// selectRows loads the table and applies the requested range. It writes the
// error response itself and returns ok=false when the request cannot proceed.
func (h *Handler) selectRows(w http.ResponseWriter, r *http.Request, html bool) (selection, bool) {
	q, err := parseRangeQuery(r)
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, err, html)
		return selection{}, false
	}

	table, err := h.source.Get(r.Context())
	if err != nil {
		h.writeLoadError(w, r, err, html)
		return selection{}, false
	}

	start, end := q.resolve(table)
	return selection{
		Start:    start,
		End:      end,
		Raw:      q.Raw,
		Filtered: calculator.FilterByDate(table, start, end),
	}, true
}

func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	sel, ok := h.selectRows(w, r, true)
	if !ok {
		return
	}
	view := newPageView(h.page, sel, calculator.MonthlyAverage(sel.Filtered))
	h.writePage(w, http.StatusOK, view)
}

func (h *Handler) LineChart(w http.ResponseWriter, r *http.Request) {
	sel, ok := h.selectRows(w, r, false)
	if !ok {
		return
	}
	h.writeSVG(w, r, func(out io.Writer) error {
		return render.LineChart(out, sel.Filtered, h.charts)
	})
}

func (h *Handler) MonthlyChart(w http.ResponseWriter, r *http.Request) {
	sel, ok := h.selectRows(w, r, false)
	if !ok {
		return
	}
	monthly := calculator.MonthlyAverage(sel.Filtered)
	h.writeSVG(w, r, func(out io.Writer) error {
		return render.MonthlyBarChart(out, monthly, h.charts)
	})
}

func (h *Handler) HistogramChart(w http.ResponseWriter, r *http.Request) {
	sel, ok := h.selectRows(w, r, false)
	if !ok {
		return
	}
	bins, err := calculator.Histogram(sel.Filtered, calculator.HistogramBins)
	if err != nil {
		h.writeError(w, r, http.StatusInternalServerError, err, false)
		return
	}
	h.writeSVG(w, r, func(out io.Writer) error {
		return render.Histogram(out, bins, h.charts)
	})
}

type observationsResponse struct {
	Start string           `json:"start"`
	End   string           `json:"end"`
	Count int              `json:"count"`
	Rows  []observationRow `json:"rows"`
}

type observationRow struct {
	Date   string  `json:"date"`
	Price  float64 `json:"price"`
	Series string  `json:"series"`
}

func (h *Handler) Observations(w http.ResponseWriter, r *http.Request) {
	sel, ok := h.selectRows(w, r, false)
	if !ok {
		return
	}
	rows := make([]observationRow, 0, len(sel.Filtered))
	for _, obs := range sel.Filtered {
		rows = append(rows, observationRow{Date: obs.DateString(), Price: obs.Price, Series: string(obs.Series)})
	}
	writeJSON(w, http.StatusOK, observationsResponse{
		Start: sel.Start.Format(model.DateLayout),
		End:   sel.End.Format(model.DateLayout),
		Count: len(rows),
		Rows:  rows,
	})
}

type monthlyRow struct {
	Month string  `json:"month"`
	Price float64 `json:"price"`
	Count int     `json:"count"`
}

func (h *Handler) Monthly(w http.ResponseWriter, r *http.Request) {
	sel, ok := h.selectRows(w, r, false)
	if !ok {
		return
	}
	monthly := calculator.MonthlyAverage(sel.Filtered)
	rows := make([]monthlyRow, 0, len(monthly))
	for _, m := range monthly {
		rows = append(rows, monthlyRow{Month: m.Month, Price: m.Price, Count: m.Count})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"series": model.SeriesBrent,
		"rows":   rows,
	})
}

type histogramRow struct {
	Lower  float64        `json:"lower"`
	Upper  float64        `json:"upper"`
	Counts map[string]int `json:"counts"`
}

func (h *Handler) HistogramData(w http.ResponseWriter, r *http.Request) {
	sel, ok := h.selectRows(w, r, false)
	if !ok {
		return
	}
	bins, err := calculator.Histogram(sel.Filtered, calculator.HistogramBins)
	if err != nil {
		h.writeError(w, r, http.StatusInternalServerError, err, false)
		return
	}
	rows := make([]histogramRow, 0, len(bins))
	for _, b := range bins {
		counts := make(map[string]int, len(model.AllSeries))
		for _, s := range model.AllSeries {
			counts[string(s)] = b.Counts[s]
		}
		rows = append(rows, histogramRow{Lower: b.Lower, Upper: b.Upper, Counts: counts})
	}
	writeJSON(w, http.StatusOK, map[string]any{"bins": rows})
}

// Refresh reloads the table. Form posts from the page are redirected back
// to it; API callers get JSON.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	html := r.FormValue("redirect") != ""
	if err := h.source.Refresh(r.Context(), recorder.TriggerManual); err != nil {
		h.writeLoadError(w, r, err, html)
		return
	}

	if html {
		http.Redirect(w, r, safeRedirect(r.FormValue("redirect")), http.StatusSeeOther)
		return
	}
	loadedAt, _ := h.source.Loaded()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"rows":      h.source.Len(),
		"loaded_at": loadedAt.UTC().Format(time.RFC3339),
	})
}

type loadRow struct {
	ID         string `json:"id"`
	StartedAt  string `json:"started_at"`
	Trigger    string `json:"trigger"`
	BrentRows  int    `json:"brent_rows"`
	WTIRows    int    `json:"wti_rows"`
	DurationMs int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

const defaultLoadLimit = 20

// Loads lists recent load attempts from the recorder, newest first.
func (h *Handler) Loads(w http.ResponseWriter, r *http.Request) {
	limit := defaultLoadLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.writeError(w, r, http.StatusBadRequest,
				apperrors.Newf(apperrors.ErrCodeInvalidParameter, "limit must be a positive integer"), false)
			return
		}
		limit = n
	}

	events, err := h.recorder.RecentLoads(limit)
	if err != nil {
		h.writeError(w, r, http.StatusInternalServerError, err, false)
		return
	}
	rows := make([]loadRow, 0, len(events))
	for _, evt := range events {
		rows = append(rows, loadRow{
			ID:         evt.ID,
			StartedAt:  evt.StartedAt.UTC().Format(time.RFC3339),
			Trigger:    string(evt.Trigger),
			BrentRows:  evt.BrentRows,
			WTIRows:    evt.WTIRows,
			DurationMs: evt.Duration.Milliseconds(),
			Error:      evt.Error,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"loads": rows})
}

type healthResponse struct {
	Status   string            `json:"status"`
	Loaded   bool              `json:"loaded"`
	Rows     int               `json:"rows"`
	LoadedAt string            `json:"loaded_at,omitempty"`
	Checks   map[string]string `json:"checks"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "healthy", Checks: map[string]string{}}

	loadedAt, loaded := h.source.Loaded()
	resp.Loaded = loaded
	resp.Rows = h.source.Len()
	if loaded {
		resp.LoadedAt = loadedAt.UTC().Format(time.RFC3339)
	}

	status := http.StatusOK
	if err := h.recorder.Ping(r.Context()); err != nil {
		resp.Checks["recorder"] = "unhealthy: " + err.Error()
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	} else {
		resp.Checks["recorder"] = "healthy"
	}
	writeJSON(w, status, resp)
}

// writeSVG renders into a buffer first so a render failure can still set
// the status code. An empty selection answers 204.
func (h *Handler) writeSVG(w http.ResponseWriter, r *http.Request, draw func(io.Writer) error) {
	var buf bytes.Buffer
	if err := draw(&buf); err != nil {
		if errors.Is(err, render.ErrNoData) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.writeError(w, r, http.StatusInternalServerError, err, false)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	if _, err := buf.WriteTo(w); err != nil {
		h.log.Debug("write chart", zap.Error(err))
	}
}

func (h *Handler) writeLoadError(w http.ResponseWriter, r *http.Request, err error, html bool) {
	status := http.StatusInternalServerError
	if apperrors.IsRetrievalError(err) {
		status = http.StatusBadGateway
	}
	h.writeError(w, r, status, err, html)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, err error, html bool) {
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed", zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err))
	} else {
		h.log.Debug("bad request", zap.String("path", r.URL.Path), zap.Error(err))
	}

	if html {
		h.writePage(w, status, newErrorView(h.page, err, retryTarget(r), apperrors.IsRetrievalError(err)))
		return
	}
	writeJSON(w, status, map[string]any{
		"error":     err.Error(),
		"code":      int(apperrors.GetCode(err)),
		"retryable": apperrors.IsRetrievalError(err),
	})
}

func (h *Handler) writePage(w http.ResponseWriter, status int, view pageView) {
	var buf bytes.Buffer
	if err := pageTemplate.ExecuteTemplate(&buf, "dashboard.html", view); err != nil {
		h.log.Error("render page", zap.Error(err))
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// retryTarget is the page the Retry button returns to. A failed form refresh
// keeps the page it was posted from.
func retryTarget(r *http.Request) string {
	if r.Method == http.MethodPost {
		return safeRedirect(r.FormValue("redirect"))
	}
	return r.URL.RequestURI()
}

// safeRedirect only allows local paths.
func safeRedirect(target string) string {
	if len(target) == 0 || target[0] != '/' || (len(target) > 1 && (target[1] == '/' || target[1] == '\\')) {
		return "/"
	}
	return target
}
