package ritual

import (
	"path/filepath"
	"testing"

	"github.com/living-library/loom/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "garden.json"))
}

func TestFirstObservationInitializesPhase(t *testing.T) {
	s := newTestStore(t)

	entry, err := s.Observe("hello")
	if err != nil {
		t.Fatalf("observe: %v", err)
	}
	if entry == nil || entry.Kind != model.RitualPhase {
		t.Fatalf("expected phase entry, got %v", entry)
	}
	if entry.Phase != Phases[0] {
		t.Errorf("expected first phase %q, got %q", Phases[0], entry.Phase)
	}
	if s.CurrentPhase() != Phases[0] {
		t.Errorf("expected current phase %q, got %q", Phases[0], s.CurrentPhase())
	}
}

func TestAdvanceSignal(t *testing.T) {
	s := newTestStore(t)

	s.Observe("hello")
	entry, err := s.Observe("next")
	if err != nil {
		t.Fatalf("observe: %v", err)
	}
	if entry.Phase != Phases[1] {
		t.Errorf("expected phase %q after advance, got %q", Phases[1], entry.Phase)
	}
}

func TestAdvanceWraps(t *testing.T) {
	s := newTestStore(t)

	s.Observe("hello")
	for i := 0; i < len(Phases); i++ {
		s.Observe("next")
	}
	if s.CurrentPhase() != Phases[0] {
		t.Errorf("expected wrap back to %q, got %q", Phases[0], s.CurrentPhase())
	}
}

func TestNonSignalInputChangesNothing(t *testing.T) {
	s := newTestStore(t)

	s.Observe("hello")
	entry, err := s.Observe("just talking")
	if err != nil {
		t.Fatalf("observe: %v", err)
	}
	if entry != nil {
		t.Errorf("expected no entry, got %v", entry)
	}
	if len(s.Entries()) != 1 {
		t.Errorf("expected 1 entry, got %d", len(s.Entries()))
	}
}

func TestConsentRecorded(t *testing.T) {
	s := newTestStore(t)

	s.Observe("hello")
	entry, err := s.Observe("I consent to proceed")
	if err != nil {
		t.Fatalf("observe: %v", err)
	}
	if entry.Kind != model.RitualConsent {
		t.Fatalf("expected consent entry, got %s", entry.Kind)
	}
	if !s.HasConsent() {
		t.Error("expected HasConsent true")
	}
	// Consent does not advance the phase.
	if s.CurrentPhase() != Phases[0] {
		t.Errorf("expected phase unchanged, got %q", s.CurrentPhase())
	}
}

func TestConsentTakesPrecedenceOverAdvance(t *testing.T) {
	s := newTestStore(t)

	s.Observe("hello")
	entry, err := s.Observe("next, I consent")
	if err != nil {
		t.Fatalf("observe: %v", err)
	}
	if entry.Kind != model.RitualConsent {
		t.Fatalf("expected consent entry, got %s", entry.Kind)
	}
	if s.CurrentPhase() != Phases[0] {
		t.Errorf("expected phase unchanged when consent wins, got %q", s.CurrentPhase())
	}
}

func TestAdvanceRequiresWholeWord(t *testing.T) {
	s := newTestStore(t)

	s.Observe("hello")
	s.Observe("the nextdoor neighbor")
	if s.CurrentPhase() != Phases[0] {
		t.Errorf("expected no advance on substring, got %q", s.CurrentPhase())
	}
}

func TestEntriesPersist(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "garden.json")

	s := NewStore(path)
	s.Observe("hello")
	s.Observe("I consent")

	reopened := NewStore(path)
	if len(reopened.Entries()) != 2 {
		t.Fatalf("expected 2 entries after reopen, got %d", len(reopened.Entries()))
	}
	if !reopened.HasConsent() {
		t.Error("expected consent to survive reopen")
	}
}
