// Package ritual tracks the six-phase ritual state machine and records
// consent events in an append-only side ledger.
package ritual

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/living-library/loom/internal/errors"
	"github.com/living-library/loom/internal/model"
)

// Phases is the fixed phase cycle. Advancing from the last phase wraps back
// to the first.
var Phases = []string{
	"grounding",
	"offering",
	"weaving",
	"reflection",
	"release",
	"renewal",
}

const consentKeyword = "consent"

// advancePattern matches an explicit advance signal: "next" as its own word.
var advancePattern = regexp.MustCompile(`(?i)\bnext\b`)

// Store holds the ritual entries for one workspace, persisted as a JSON
// array rewritten in full on every observation that yields an entry.
type Store struct {
	mu      sync.RWMutex
	path    string
	entries []model.RitualEntry
	loadErr error
	now     func() time.Time
}

// NewStore opens the ritual store at path. Missing or corrupt files degrade
// to an empty entry list.
func NewStore(path string) *Store {
	s := &Store{
		path: path,
		now:  time.Now,
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

// Observe applies one input to the state machine and returns the entry it
// produced, or nil when the input changes nothing.
//
// Consent detection takes precedence: an input containing the consent
// keyword records a consent entry and does not advance the phase on that
// invocation, even when it also carries an advance signal. Otherwise an
// advance signal moves to the next phase (wrapping), and the very first
// observation with no prior phase entries force-initializes to the first
// phase.
func (s *Store) Observe(text string) (*model.RitualEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case strings.Contains(strings.ToLower(text), consentKeyword):
		return s.appendLocked(model.RitualEntry{
			Kind:      model.RitualConsent,
			Phase:     s.currentPhaseLocked(),
			Text:      text,
			Timestamp: s.now().UTC().Format(time.RFC3339Nano),
		})
	case !s.hasPhaseLocked():
		return s.appendLocked(model.RitualEntry{
			Kind:      model.RitualPhase,
			Phase:     Phases[0],
			Text:      text,
			Timestamp: s.now().UTC().Format(time.RFC3339Nano),
		})
	case advancePattern.MatchString(text):
		current := s.currentPhaseLocked()
		return s.appendLocked(model.RitualEntry{
			Kind:      model.RitualPhase,
			Phase:     nextPhase(current),
			Text:      text,
			Timestamp: s.now().UTC().Format(time.RFC3339Nano),
		})
	}
	return nil, nil
}

// CurrentPhase returns the phase of the latest phase entry, or the first
// phase when none has been recorded yet.
func (s *Store) CurrentPhase() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentPhaseLocked()
}

// HasConsent reports whether at least one consent event has been recorded.
func (s *Store) HasConsent() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if e.Kind == model.RitualConsent {
			return true
		}
	}
	return false
}

// Entries returns a snapshot of all entries in append order.
func (s *Store) Entries() []model.RitualEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.RitualEntry(nil), s.entries...)
}

func (s *Store) appendLocked(entry model.RitualEntry) (*model.RitualEntry, error) {
	next := append(append([]model.RitualEntry(nil), s.entries...), entry)
	if err := writeFile(s.path, next); err != nil {
		return nil, errors.NewStorage("ritual write", err)
	}
	s.entries = next
	return &entry, nil
}

func (s *Store) currentPhaseLocked() string {
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].Kind == model.RitualPhase {
			return s.entries[i].Phase
		}
	}
	return Phases[0]
}

func (s *Store) hasPhaseLocked() bool {
	for _, e := range s.entries {
		if e.Kind == model.RitualPhase {
			return true
		}
	}
	return false
}

func nextPhase(current string) string {
	for i, p := range Phases {
		if p == current {
			return Phases[(i+1)%len(Phases)]
		}
	}
	return Phases[0]
}

// HasConsent scans a persisted entry sequence for a consent event. It is
// the cross-store check the validator runs against a freshly read file.
func HasConsent(entries []model.RitualEntry) bool {
	for _, e := range entries {
		if e.Kind == model.RitualConsent {
			return true
		}
	}
	return false
}

// ReadFile reads a persisted entry sequence. A missing file is an empty
// sequence with no error.
func ReadFile(path string) ([]model.RitualEntry, error) {
	return readFile(path)
}

func readFile(path string) ([]model.RitualEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var entries []model.RitualEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse ritual store %s: %w", path, err)
	}
	return entries, nil
}

func writeFile(path string, entries []model.RitualEntry) error {
	raw, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".ritual-*")
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
