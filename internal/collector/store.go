package collector

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"OilDashboard/internal/logger"
	"OilDashboard/internal/model"
	"OilDashboard/internal/recorder"
)

// Loader produces the unified observation table.
type Loader interface {
	Load(ctx context.Context) (model.Table, error)
}

// Store memoizes the unified table for the lifetime of the process.
// The first Get loads it; later calls reuse it until Refresh replaces it.
// Failed loads are not cached.
//
// loadMu serializes loads. mu guards only the cached state, so readers such
// as Len and Loaded never wait on a fetch in progress.
type Store struct {
	loader   Loader
	recorder recorder.Recorder
	log      *logger.Logger
	now      func() time.Time

	loadMu sync.Mutex

	mu       sync.RWMutex
	table    model.Table
	loaded   bool
	loadedAt time.Time
}

// NewStore creates an empty Store backed by loader.
func NewStore(loader Loader, rec recorder.Recorder, log *logger.Logger) *Store {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Store{loader: loader, recorder: rec, log: log, now: time.Now}
}

// Get returns the memoized table, loading it on first use.
func (s *Store) Get(ctx context.Context) (model.Table, error) {
	if table, ok := s.snapshot(); ok {
		return table, nil
	}

	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	// A concurrent caller may have finished the first load while we waited.
	if table, ok := s.snapshot(); ok {
		return table, nil
	}
	if err := s.load(ctx, recorder.TriggerFirstUse); err != nil {
		return nil, err
	}
	table, _ := s.snapshot()
	return table, nil
}

// Warm loads the table if it is not loaded yet.
func (s *Store) Warm(ctx context.Context) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	if _, ok := s.snapshot(); ok {
		return nil
	}
	return s.load(ctx, recorder.TriggerStartup)
}

// Refresh reloads the table. The cached table is replaced only on success
// and keeps serving while the reload runs.
func (s *Store) Refresh(ctx context.Context, trigger recorder.Trigger) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	return s.load(ctx, trigger)
}

// Loaded reports whether a table is cached and when it was loaded.
func (s *Store) Loaded() (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt, s.loaded
}

// Len returns the number of cached rows, or 0 before the first load.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.table)
}

func (s *Store) snapshot() (model.Table, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table, s.loaded
}

// load fetches without holding mu and swaps the result in on success.
// Callers hold loadMu.
func (s *Store) load(ctx context.Context, trigger recorder.Trigger) error {
	started := s.now()
	table, err := s.loader.Load(ctx)

	evt := &recorder.LoadEvent{
		ID:        uuid.NewString(),
		StartedAt: started,
		Trigger:   trigger,
		Duration:  s.now().Sub(started),
	}
	if err != nil {
		evt.Error = err.Error()
		s.record(evt)
		s.log.Error("load price table failed", zap.String("trigger", string(trigger)), zap.Error(err))
		return err
	}

	counts := table.CountBySeries()
	evt.BrentRows = counts[model.SeriesBrent]
	evt.WTIRows = counts[model.SeriesWTI]
	s.record(evt)

	s.mu.Lock()
	s.table = table
	s.loaded = true
	s.loadedAt = started
	s.mu.Unlock()

	s.log.Info("price table loaded",
		zap.String("trigger", string(trigger)),
		zap.Int("brent_rows", evt.BrentRows),
		zap.Int("wti_rows", evt.WTIRows),
		zap.Duration("took", evt.Duration),
	)
	return nil
}

func (s *Store) record(evt *recorder.LoadEvent) {
	if err := s.recorder.RecordLoad(evt); err != nil {
		s.log.Warn("record load event failed", zap.Error(err))
	}
}
