package model

// RitualEntryKind distinguishes phase transitions from consent events in
// the ritual side ledger.
type RitualEntryKind string

const (
	RitualPhase   RitualEntryKind = "phase"
	RitualConsent RitualEntryKind = "consent"
)

// RitualEntry is one append-only record of the ritual state machine: either
// a phase transition or a consent event.
type RitualEntry struct {
	Kind      RitualEntryKind `json:"kind"`
	Phase     string          `json:"phase,omitempty"`
	Text      string          `json:"text"`
	Timestamp string          `json:"timestamp"`
}
