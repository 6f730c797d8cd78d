package recorder

import (
	"context"
	"time"
)

// Trigger names what caused a load attempt.
type Trigger string

const (
	TriggerFirstUse Trigger = "FIRST_USE"
	TriggerStartup  Trigger = "STARTUP"
	TriggerManual   Trigger = "MANUAL"
	TriggerSchedule Trigger = "SCHEDULE"
)

// LoadEvent describes one attempt to load the price table.
type LoadEvent struct {
	ID        string
	StartedAt time.Time
	Trigger   Trigger
	BrentRows int
	WTIRows   int
	Duration  time.Duration
	Error     string // empty on success
}

// Succeeded reports whether the load produced a table.
func (e LoadEvent) Succeeded() bool { return e.Error == "" }

// Recorder keeps the history of load attempts. It never stores prices.
type Recorder interface {
	RecordLoad(evt *LoadEvent) error
	RecentLoads(limit int) ([]LoadEvent, error)
	Ping(ctx context.Context) error
	Close() error
}
