package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	apperrors "OilDashboard/internal/errors"
	"OilDashboard/internal/model"
	"OilDashboard/internal/recorder"
)

const (
	brentURL = "https://example.test/brent-daily.csv"
	wtiURL   = "https://example.test/wti-daily.csv"

	brentCSV = "Date,Price\n2024-01-05,80.0\n2024-01-20,82.0\n2024-02-10,90.0\n"
	wtiCSV   = "Date,Price\n2024-01-15,75.0\n"
)

func newMock() *MockFetcher {
	return &MockFetcher{Bodies: map[string]string{brentURL: brentCSV, wtiURL: wtiCSV}}
}

func TestCollectorLoadTagsAndConcatenates(t *testing.T) {
	col := NewCollector(newMock(), DefaultSources(brentURL, wtiURL), DefaultParseOptions, nil)

	table, err := col.Load(context.Background())

	require.NoError(t, err)
	require.Len(t, table, 4)
	assert.Equal(t, model.SeriesBrent, table[0].Series)
	assert.Equal(t, model.SeriesBrent, table[2].Series)
	assert.Equal(t, model.SeriesWTI, table[3].Series)
	assert.Equal(t, map[model.Series]int{model.SeriesBrent: 3, model.SeriesWTI: 1}, table.CountBySeries())
}

func TestCollectorLoadFetchError(t *testing.T) {
	mock := newMock()
	mock.Errors = map[string]error{wtiURL: errors.New("connection reset")}
	col := NewCollector(mock, DefaultSources(brentURL, wtiURL), DefaultParseOptions, nil)

	table, err := col.Load(context.Background())

	assert.Nil(t, table)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeFetchFailed))
	assert.Contains(t, err.Error(), "WTI")
}

func TestCollectorLoadParseError(t *testing.T) {
	mock := newMock()
	mock.Bodies[brentURL] = "<html>not found</html>"
	col := NewCollector(mock, DefaultSources(brentURL, wtiURL), DefaultParseOptions, nil)

	_, err := col.Load(context.Background())

	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeParseFailed))
	assert.Equal(t, 0, mock.Calls(wtiURL))
}

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/brent.csv":
			assert.NotEmpty(t, r.Header.Get("User-Agent"))
			w.Header().Set("Content-Type", "text/csv")
			_, _ = w.Write([]byte(brentCSV))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewHTTPFetcher("", 5*time.Second)

	body, err := f.Fetch(context.Background(), srv.URL+"/brent.csv")
	require.NoError(t, err)
	assert.Equal(t, brentCSV, string(body))

	_, err = f.Fetch(context.Background(), srv.URL+"/missing.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestHTTPFetcherHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewHTTPFetcher("", 5*time.Second).Fetch(ctx, srv.URL)
	assert.Error(t, err)
}

type countingRecorder struct {
	recorder.NoopRecorder
	events []recorder.LoadEvent
}

func (c *countingRecorder) RecordLoad(evt *recorder.LoadEvent) error {
	c.events = append(c.events, *evt)
	return nil
}

type StoreTestSuite struct {
	suite.Suite
	mock  *MockFetcher
	rec   *countingRecorder
	store *Store
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

func (suite *StoreTestSuite) SetupTest() {
	suite.mock = newMock()
	suite.rec = &countingRecorder{}
	col := NewCollector(suite.mock, DefaultSources(brentURL, wtiURL), DefaultParseOptions, nil)
	suite.store = NewStore(col, suite.rec, nil)
}

func (suite *StoreTestSuite) TestGetLoadsOnce() {
	ctx := context.Background()

	_, ok := suite.store.Loaded()
	suite.False(ok)

	first, err := suite.store.Get(ctx)
	suite.Require().NoError(err)
	second, err := suite.store.Get(ctx)
	suite.Require().NoError(err)

	suite.Equal(first, second)
	suite.Equal(1, suite.mock.Calls(brentURL))
	suite.Equal(1, suite.mock.Calls(wtiURL))
	suite.Equal(4, suite.store.Len())

	_, ok = suite.store.Loaded()
	suite.True(ok)

	suite.Require().Len(suite.rec.events, 1)
	suite.Equal(recorder.TriggerFirstUse, suite.rec.events[0].Trigger)
	suite.Equal(3, suite.rec.events[0].BrentRows)
	suite.Equal(1, suite.rec.events[0].WTIRows)
	suite.NotEmpty(suite.rec.events[0].ID)
}

func (suite *StoreTestSuite) TestFailedLoadIsNotCached() {
	ctx := context.Background()
	suite.mock.Errors = map[string]error{brentURL: errors.New("dns failure")}

	_, err := suite.store.Get(ctx)
	suite.True(apperrors.IsRetrievalError(err))
	suite.Equal(0, suite.store.Len())

	suite.mock.Errors = nil
	table, err := suite.store.Get(ctx)
	suite.Require().NoError(err)
	suite.Len(table, 4)
	suite.Equal(2, suite.mock.Calls(brentURL))

	suite.Require().Len(suite.rec.events, 2)
	suite.False(suite.rec.events[0].Succeeded())
	suite.True(suite.rec.events[1].Succeeded())
}

func (suite *StoreTestSuite) TestRefreshReplacesTable() {
	ctx := context.Background()
	_, err := suite.store.Get(ctx)
	suite.Require().NoError(err)

	suite.mock.Bodies[wtiURL] = wtiCSV + "2024-01-16,76.0\n"
	suite.Require().NoError(suite.store.Refresh(ctx, recorder.TriggerManual))

	table, err := suite.store.Get(ctx)
	suite.Require().NoError(err)
	suite.Len(table, 5)
	suite.Equal(2, suite.mock.Calls(wtiURL))
}

func (suite *StoreTestSuite) TestFailedRefreshKeepsPreviousTable() {
	ctx := context.Background()
	_, err := suite.store.Get(ctx)
	suite.Require().NoError(err)

	suite.mock.Errors = map[string]error{wtiURL: errors.New("503")}
	suite.Error(suite.store.Refresh(ctx, recorder.TriggerSchedule))

	table, err := suite.store.Get(ctx)
	suite.Require().NoError(err)
	suite.Len(table, 4)
}

func (suite *StoreTestSuite) TestWarm() {
	ctx := context.Background()
	suite.Require().NoError(suite.store.Warm(ctx))
	suite.Require().NoError(suite.store.Warm(ctx))

	suite.Equal(1, suite.mock.Calls(brentURL))
	suite.Equal(recorder.TriggerStartup, suite.rec.events[0].Trigger)
}

// blockingLoader holds every load until release is closed.
type blockingLoader struct {
	started chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func newBlockingLoader() *blockingLoader {
	return &blockingLoader{started: make(chan struct{}), release: make(chan struct{})}
}

func (b *blockingLoader) Load(ctx context.Context) (model.Table, error) {
	if b.calls.Add(1) == 1 {
		close(b.started)
	}
	select {
	case <-b.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return model.Table{{Date: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), Price: 80, Series: model.SeriesBrent}}, nil
}

func TestStoreReadersDoNotWaitOnLoad(t *testing.T) {
	loader := newBlockingLoader()
	store := NewStore(loader, nil, nil)

	done := make(chan error, 1)
	go func() {
		_, err := store.Get(context.Background())
		done <- err
	}()
	<-loader.started

	type state struct {
		rows   int
		loaded bool
	}
	read := make(chan state, 1)
	go func() {
		_, loaded := store.Loaded()
		read <- state{rows: store.Len(), loaded: loaded}
	}()

	select {
	case got := <-read:
		assert.Equal(t, 0, got.rows)
		assert.False(t, got.loaded)
	case <-time.After(2 * time.Second):
		t.Fatal("Len and Loaded blocked behind the running load")
	}

	close(loader.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, store.Len())
}

func TestStoreConcurrentGetsLoadOnce(t *testing.T) {
	loader := newBlockingLoader()
	store := NewStore(loader, nil, nil)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			table, err := store.Get(context.Background())
			if err == nil && len(table) != 1 {
				err = errors.New("unexpected table size")
			}
			errs <- err
		}()
	}
	<-loader.started
	close(loader.release)
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), loader.calls.Load())
}
