// Package eventlog persists one structured record per stage step to a
// SQLite database. It implements the pipeline stage log sink.
package eventlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

// Event is one stage log record.
type Event struct {
	ID        string         `json:"id"`
	RunID     string         `json:"run_id"`
	Stage     string         `json:"stage"`
	Payload   map[string]any `json:"payload"`
	CreatedAt time.Time      `json:"created_at"`
}

// Log is a SQLite-backed stage log sink. Appends may come from concurrent
// pipeline runs; the entropy source is guarded separately from the db.
type Log struct {
	db      *sql.DB
	mu      sync.Mutex
	entropy *rand.Rand
}

// Open opens or creates the event database at the given path.
func Open(dbPath string) (*Log, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	l := &Log{
		db:      db,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	if err := l.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return l, nil
}

func (l *Log) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS stage_events (
		id         TEXT PRIMARY KEY,
		run_id     TEXT NOT NULL DEFAULT '',
		stage      TEXT NOT NULL,
		payload    TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_stage_events_run ON stage_events(run_id);
	CREATE INDEX IF NOT EXISTS idx_stage_events_created ON stage_events(created_at DESC);
	`
	_, err := l.db.Exec(schema)
	return err
}

func (l *Log) newID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), l.entropy).String()
}

// Append records one stage step. The run id is carried inside the payload
// under "run_id" when the dispatcher provides one.
func (l *Log) Append(stageName string, payload map[string]any) error {
	runID, _ := payload["run_id"].(string)
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	_, err = l.db.Exec(
		`INSERT INTO stage_events (id, run_id, stage, payload, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		l.newID(), runID, stageName, string(raw),
		time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert stage event: %w", err)
	}
	return nil
}

// List returns events, newest first, optionally filtered by run id.
func (l *Log) List(ctx context.Context, runID string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, run_id, stage, payload, created_at FROM stage_events`
	args := []any{}
	if runID != "" {
		query += ` WHERE run_id = ?`
		args = append(args, runID)
	}
	query += ` ORDER BY rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var payload, createdAt string
		if err := rows.Scan(&e.ID, &e.RunID, &e.Stage, &payload, &createdAt); err != nil {
			return nil, err
		}
		json.Unmarshal([]byte(payload), &e.Payload)
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		events = append(events, e)
	}
	return events, rows.Err()
}

// Count returns the total number of recorded events.
func (l *Log) Count(ctx context.Context) (int, error) {
	var n int
	err := l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM stage_events`).Scan(&n)
	return n, err
}

// Close closes the database.
func (l *Log) Close() error {
	return l.db.Close()
}
