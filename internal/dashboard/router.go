package dashboard

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// NewRouter wires the dashboard routes.
func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()
	r.Use(h.logRequests)

	r.HandleFunc("/", h.Page).Methods(http.MethodGet)
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	charts := r.PathPrefix("/charts").Subrouter()
	charts.HandleFunc("/line.svg", h.LineChart).Methods(http.MethodGet)
	charts.HandleFunc("/monthly.svg", h.MonthlyChart).Methods(http.MethodGet)
	charts.HandleFunc("/histogram.svg", h.HistogramChart).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/observations", h.Observations).Methods(http.MethodGet)
	api.HandleFunc("/monthly", h.Monthly).Methods(http.MethodGet)
	api.HandleFunc("/histogram", h.HistogramData).Methods(http.MethodGet)
	api.HandleFunc("/loads", h.Loads).Methods(http.MethodGet)
	api.HandleFunc("/refresh", h.Refresh).Methods(http.MethodPost)

	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.log.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("took", time.Since(start)),
		)
	})
}
