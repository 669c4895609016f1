// Package memory implements the tiered memory store. Entries are created
// at L1 and age toward L3 as newer entries arrive; they are never removed.
package memory

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/living-library/loom/internal/errors"
	"github.com/living-library/loom/internal/model"
)

// DefaultPromotionThreshold is the L2 population above which all L2
// entries promote to L3.
const DefaultPromotionThreshold = 5

// Store is a growable sequence of memory entries persisted as a JSON array
// rewritten in full on every Record. Promotion and insertion happen inside
// one critical section, so a reader never sees the new entry without the
// promotions that accompanied it.
type Store struct {
	mu        sync.RWMutex
	path      string
	entries   []model.MemoryEntry
	threshold int
	loadErr   error
	entropy   *rand.Rand
	now       func() time.Time
}

// NewStore opens the memory store at path. A missing or corrupt file
// degrades to an empty store; the load failure is kept for LoadIssue.
// threshold <= 0 selects DefaultPromotionThreshold.
func NewStore(path string, threshold int) *Store {
	if threshold <= 0 {
		threshold = DefaultPromotionThreshold
	}
	s := &Store{
		path:      path,
		threshold: threshold,
		entropy:   rand.New(rand.NewSource(time.Now().UnixNano())),
		now:       time.Now,
	}
	entries, err := readFile(path)
	s.entries = entries
	s.loadErr = err
	return s
}

// LoadIssue returns the load failure from construction, if any.
func (s *Store) LoadIssue() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadErr
}

// Record ages existing entries, then creates a new L1 entry. Every L1 entry
// promotes to L2; if the L2 population then reaches the threshold, every L2
// entry promotes to L3 in the same operation. The whole store is persisted
// before the mutation becomes visible to readers.
func (s *Store) Record(text string, ownerTags ...string) (*model.MemoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := append([]model.MemoryEntry(nil), s.entries...)
	for i := range next {
		if next[i].Layer == model.LayerL1 {
			next[i].Layer = model.LayerL2
		}
	}
	l2 := 0
	for i := range next {
		if next[i].Layer == model.LayerL2 {
			l2++
		}
	}
	if l2 >= s.threshold {
		for i := range next {
			if next[i].Layer == model.LayerL2 {
				next[i].Layer = model.LayerL3
			}
		}
	}

	var tags []string
	for _, t := range ownerTags {
		if t != "" {
			tags = append(tags, t)
		}
	}
	entry := model.MemoryEntry{
		ID:        s.newID(),
		Timestamp: s.now().UTC().Format(time.RFC3339Nano),
		Text:      text,
		Layer:     model.LayerL1,
		OwnerTags: tags,
	}
	next = append(next, entry)

	if err := writeFile(s.path, next); err != nil {
		return nil, errors.NewStorage("memory write", err)
	}
	s.entries = next
	return &entry, nil
}

// All returns a snapshot of entries in creation order.
func (s *Store) All() []model.MemoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.MemoryEntry(nil), s.entries...)
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// CountByLayer returns the entry count per layer, recomputed from the
// current entries.
func (s *Store) CountByLayer() map[model.Layer]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[model.Layer]int)
	for _, e := range s.entries {
		counts[e.Layer]++
	}
	return counts
}

func (s *Store) newID() string {
	return "mem_" + ulid.MustNew(ulid.Timestamp(s.now()), s.entropy).String()
}

func readFile(path string) ([]model.MemoryEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var entries []model.MemoryEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse memory store %s: %w", path, err)
	}
	return entries, nil
}

func writeFile(path string, entries []model.MemoryEntry) error {
	raw, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".memory-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
