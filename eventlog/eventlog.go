// Package eventlog records per-submission analysis events in a local SQLite
// database for operator diagnosis. Recording never blocks or fails the
// pipeline: write errors are logged via slog and dropped.
package eventlog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const schema = `
CREATE TABLE IF NOT EXISTS analysis_events (
	event_id    TEXT PRIMARY KEY,
	doc_type    TEXT NOT NULL,
	source      TEXT NOT NULL,
	status      TEXT NOT NULL,
	duration_ms INTEGER NOT NULL,
	created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_analysis_events_created ON analysis_events(created_at);
`

// Logger writes analysis events.
type Logger struct {
	db *sql.DB
}

// Open creates or opens the event database at path and ensures the schema.
// The caller must have imported a "sqlite" database/sql driver.
func Open(path string) (*Logger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("eventlog: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("eventlog: schema: %w", err)
	}
	return &Logger{db: db}, nil
}

// Record inserts one event row. Errors are logged, never propagated.
func (l *Logger) Record(ctx context.Context, docType, source, status string, duration time.Duration) {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO analysis_events (event_id, doc_type, source, status, duration_ms, created_at)
		VALUES (?,?,?,?,?,?)`,
		uuid.NewString(), docType, source, status, duration.Milliseconds(), time.Now().Unix())
	if err != nil {
		slog.Error("eventlog: insert failed", "error", err, "doc_type", docType, "status", status)
	}
}

// Count returns the number of recorded events, for stats endpoints and tests.
func (l *Logger) Count(ctx context.Context) (int64, error) {
	var n int64
	err := l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM analysis_events`).Scan(&n)
	return n, err
}

// Close releases the underlying database.
func (l *Logger) Close() error {
	return l.db.Close()
}
