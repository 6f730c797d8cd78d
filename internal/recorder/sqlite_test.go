package recorder

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type SQLiteRecorderTestSuite struct {
	suite.Suite
	rec *SQLiteRecorder
}

func TestSQLiteRecorderSuite(t *testing.T) {
	suite.Run(t, new(SQLiteRecorderTestSuite))
}

func (suite *SQLiteRecorderTestSuite) SetupTest() {
	path := filepath.Join(suite.T().TempDir(), "history.db")
	rec, err := NewSQLiteRecorder(path, nil)
	suite.Require().NoError(err)
	suite.rec = rec
}

func (suite *SQLiteRecorderTestSuite) TearDownTest() {
	suite.NoError(suite.rec.Close())
}

func (suite *SQLiteRecorderTestSuite) TestRecordAndListNewestFirst() {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	suite.Require().NoError(suite.rec.RecordLoad(&LoadEvent{
		ID: "a", StartedAt: base, Trigger: TriggerStartup,
		BrentRows: 100, WTIRows: 90, Duration: 1500 * time.Millisecond,
	}))
	suite.Require().NoError(suite.rec.RecordLoad(&LoadEvent{
		ID: "b", StartedAt: base.Add(time.Hour), Trigger: TriggerManual,
		Error: "[700] fetch Brent prices: timeout",
	}))

	events, err := suite.rec.RecentLoads(10)
	suite.Require().NoError(err)
	suite.Require().Len(events, 2)

	suite.Equal("b", events[0].ID)
	suite.False(events[0].Succeeded())
	suite.Equal(TriggerManual, events[0].Trigger)

	suite.Equal("a", events[1].ID)
	suite.True(events[1].Succeeded())
	suite.Equal(base, events[1].StartedAt)
	suite.Equal(100, events[1].BrentRows)
	suite.Equal(90, events[1].WTIRows)
	suite.Equal(1500*time.Millisecond, events[1].Duration)
}

func (suite *SQLiteRecorderTestSuite) TestRecentLoadsLimit() {
	for i, id := range []string{"1", "2", "3"} {
		suite.Require().NoError(suite.rec.RecordLoad(&LoadEvent{
			ID: id, StartedAt: time.Unix(int64(i), 0), Trigger: TriggerSchedule,
		}))
	}

	events, err := suite.rec.RecentLoads(2)
	suite.Require().NoError(err)
	suite.Len(events, 2)
	suite.Equal("3", events[0].ID)
}

func (suite *SQLiteRecorderTestSuite) TestPing() {
	suite.NoError(suite.rec.Ping(context.Background()))
}

func TestNoopRecorder(t *testing.T) {
	rec := NewNoopRecorder()
	require.NoError(t, rec.RecordLoad(&LoadEvent{ID: "x"}))
	events, err := rec.RecentLoads(5)
	require.NoError(t, err)
	require.Empty(t, events)
	require.NoError(t, rec.Ping(context.Background()))
	require.NoError(t, rec.Close())
}
