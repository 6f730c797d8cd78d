package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/Masterminds/squirrel"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"OilDashboard/internal/logger"
)

// SQLiteRecorder persists load history to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	sq  squirrel.StatementBuilderType
	log *logger.Logger
	mu  sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log *logger.Logger) (*SQLiteRecorder, error) {
	if log == nil {
		log = logger.NewNop()
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL so external readers do not block the dashboard.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{
		db:  db,
		sq:  squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		log: log,
	}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info("sqlite recorder opened", zap.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS load_events (
			id          TEXT PRIMARY KEY,
			started_at  INTEGER NOT NULL,
			cause       TEXT NOT NULL,
			brent_rows  INTEGER,
			wti_rows    INTEGER,
			duration_ms INTEGER,
			error       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_load_started ON load_events(started_at)`,
	}
	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordLoad(evt *LoadEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.sq.
		Insert("load_events").
		Columns("id", "started_at", "cause", "brent_rows", "wti_rows", "duration_ms", "error").
		Values(
			evt.ID, evt.StartedAt.UnixMilli(), string(evt.Trigger),
			evt.BrentRows, evt.WTIRows, evt.Duration.Milliseconds(), evt.Error,
		).
		RunWith(r.db).
		Exec()
	if err != nil {
		return fmt.Errorf("insert load event: %w", err)
	}
	return nil
}

// RecentLoads returns up to limit events, newest first.
func (r *SQLiteRecorder) RecentLoads(limit int) ([]LoadEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	q := r.sq.
		Select("id", "started_at", "cause", "brent_rows", "wti_rows", "duration_ms", "error").
		From("load_events").
		OrderBy("started_at DESC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	rows, err := q.RunWith(r.db).Query()
	if err != nil {
		return nil, fmt.Errorf("query load events: %w", err)
	}
	defer rows.Close()

	var out []LoadEvent
	for rows.Next() {
		var (
			evt        LoadEvent
			startedMs  int64
			trigger    string
			durationMs int64
			errText    sql.NullString
		)
		if err := rows.Scan(&evt.ID, &startedMs, &trigger, &evt.BrentRows, &evt.WTIRows, &durationMs, &errText); err != nil {
			return nil, fmt.Errorf("scan load event: %w", err)
		}
		evt.StartedAt = time.UnixMilli(startedMs).UTC()
		evt.Trigger = Trigger(trigger)
		evt.Duration = time.Duration(durationMs) * time.Millisecond
		evt.Error = errText.String
		out = append(out, evt)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info("closing sqlite recorder")
	return r.db.Close()
}
