package agent

import (
	"context"

	"github.com/living-library/loom/internal/model"
	"github.com/living-library/loom/internal/ritual"
)

// GardenResult is the garden stage's structured output.
type GardenResult struct {
	Phase     string                `json:"phase"`
	EntryKind model.RitualEntryKind `json:"entry_kind,omitempty"`
	Consent   bool                  `json:"consent"`
}

// LogSummary implements the stage log payload for garden.
func (r *GardenResult) LogSummary() map[string]any {
	return map[string]any{"phase": r.Phase, "consent": r.Consent}
}

// Garden feeds each input through the ritual state machine, recording phase
// transitions and consent events.
type Garden struct {
	ritual *ritual.Store
}

// NewGarden returns the garden stage over the given ritual store.
func NewGarden(r *ritual.Store) *Garden {
	return &Garden{ritual: r}
}

func (g *Garden) Name() string { return "garden" }

func (g *Garden) Process(_ context.Context, pc *model.PipelineContext) (any, error) {
	entry, err := g.ritual.Observe(pc.InputText)
	if err != nil {
		return nil, err
	}

	result := &GardenResult{Phase: g.ritual.CurrentPhase()}
	if entry != nil {
		result.EntryKind = entry.Kind
		result.Consent = entry.Kind == model.RitualConsent
	}

	pc.Metadata["ritual_phase"] = result.Phase
	return result, nil
}
