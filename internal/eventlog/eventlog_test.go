package eventlog

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestLog(t *testing.T) *Log {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "events.db"))
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestAppendAndList(t *testing.T) {
	ctx := context.Background()
	l := newTestLog(t)

	if err := l.Append("echo", map[string]any{"run_id": "r1", "ok": true}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := l.Append("limnus", map[string]any{"run_id": "r1", "hash": "abc"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	events, err := l.List(ctx, "", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	// Newest first.
	if events[0].Stage != "limnus" {
		t.Errorf("expected limnus first, got %q", events[0].Stage)
	}
	if events[0].Payload["hash"] != "abc" {
		t.Errorf("expected payload to round-trip, got %v", events[0].Payload)
	}
	if events[0].RunID != "r1" {
		t.Errorf("expected run id extracted from payload, got %q", events[0].RunID)
	}
}

func TestListFiltersByRun(t *testing.T) {
	ctx := context.Background()
	l := newTestLog(t)

	l.Append("echo", map[string]any{"run_id": "r1"})
	l.Append("echo", map[string]any{"run_id": "r2"})

	events, err := l.List(ctx, "r2", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 1 || events[0].RunID != "r2" {
		t.Errorf("expected only r2 events, got %v", events)
	}
}

func TestCount(t *testing.T) {
	ctx := context.Background()
	l := newTestLog(t)

	for i := 0; i < 3; i++ {
		l.Append("echo", map[string]any{})
	}
	n, err := l.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 events, got %d", n)
	}
}

func TestDBPathCreation(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "events.db")
	l, err := Open(dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	l.Close()
}
