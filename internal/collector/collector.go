package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	apperrors "OilDashboard/internal/errors"
	"OilDashboard/internal/logger"
	"OilDashboard/internal/model"
)

// Source is one remote price file and the series its rows belong to.
type Source struct {
	Series model.Series
	URL    string
}

// MockFetcher serves fixed bodies keyed by URL for development and testing.
type MockFetcher struct {
	Bodies map[string]string
	Errors map[string]error

	mu    sync.Mutex
	calls map[string]int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	m.mu.Lock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[url]++
	m.mu.Unlock()

	if err, ok := m.Errors[url]; ok {
		return nil, err
	}
	body, ok := m.Bodies[url]
	if !ok {
		return nil, fmt.Errorf("mock: no body for %s", url)
	}
	return []byte(body), nil
}

// Calls returns how many times url was fetched.
func (m *MockFetcher) Calls(url string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[url]
}

// Collector fetches every source and builds the unified table.
type Collector struct {
	Fetcher Fetcher
	Sources []Source
	Options ParseOptions
	log     *logger.Logger
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, sources []Source, opts ParseOptions, log *logger.Logger) *Collector {
	if log == nil {
		log = logger.NewNop()
	}
	return &Collector{Fetcher: fetcher, Sources: sources, Options: opts, log: log}
}

// DefaultSources returns the Brent and WTI sources for the given URLs.
func DefaultSources(brentURL, wtiURL string) []Source {
	return []Source{
		{Series: model.SeriesBrent, URL: brentURL},
		{Series: model.SeriesWTI, URL: wtiURL},
	}
}

// Load fetches and parses every source in order and concatenates the rows.
// The first failure aborts the load.
func (c *Collector) Load(ctx context.Context) (model.Table, error) {
	var table model.Table
	for _, src := range c.Sources {
		started := time.Now()
		body, err := c.Fetcher.Fetch(ctx, src.URL)
		if err != nil {
			return nil, apperrors.Wrapf(apperrors.ErrCodeFetchFailed, err, "fetch %s prices", src.Series)
		}
		rows, err := ParseCSV(body, src.Series, c.Options)
		if err != nil {
			return nil, err
		}
		c.log.Debug("source loaded",
			zap.String("series", string(src.Series)),
			zap.String("fetcher", c.Fetcher.Name()),
			zap.Int("rows", len(rows)),
			zap.Duration("took", time.Since(started)),
		)
		table = append(table, rows...)
	}
	return table, nil
}
