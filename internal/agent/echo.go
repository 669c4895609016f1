// Package agent implements the four concrete pipeline stages: echo styles
// input and selects a persona, limnus writes the ledger and memory store,
// garden advances the ritual state machine, and kira validates everything.
package agent

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/living-library/loom/internal/model"
)

// Persona categories in tie-break order: the first category wins ties.
const (
	PersonaSquirrel = "squirrel"
	PersonaFox      = "fox"
	PersonaParadox  = "paradox"
)

var personaGlyphs = map[string]string{
	PersonaSquirrel: "🐿️",
	PersonaFox:      "🦊",
	PersonaParadox:  "∿",
}

var paradoxKeywords = []string{"why", "mystery", "spiral", "quantum", "?"}

// ModeWeights are the normalized persona weights; they always sum to 1.
type ModeWeights struct {
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
	Gamma float64 `json:"gamma"`
}

// EchoResult is the echo stage's structured output.
type EchoResult struct {
	StyledText string      `json:"styled_text"`
	Weights    ModeWeights `json:"state"`
	Persona    string      `json:"persona"`
	Glyph      string      `json:"glyph"`
}

// LogSummary implements the stage log payload for echo.
func (r *EchoResult) LogSummary() map[string]any {
	return map[string]any{"output": r.StyledText, "glyph": r.Glyph}
}

// Echo classifies input into a persona from simple length and keyword
// heuristics and styles the text accordingly.
type Echo struct{}

// NewEcho returns the echo stage.
func NewEcho() *Echo { return &Echo{} }

func (e *Echo) Name() string { return "echo" }

// Process scores the three personas: long input boosts fox, paradox
// keywords boost paradox, short input boosts squirrel. Weights normalize to
// sum 1 and the highest weight wins, squirrel first on ties.
func (e *Echo) Process(_ context.Context, pc *model.PipelineContext) (any, error) {
	text := pc.InputText
	lower := strings.ToLower(text)

	alpha, beta, gamma := 0.3, 0.3, 0.4
	if len(text) > 120 {
		beta += 0.2
	}
	for _, kw := range paradoxKeywords {
		if strings.Contains(lower, kw) {
			gamma += 0.2
			break
		}
	}
	if len(text) < 40 {
		alpha += 0.1
	}

	total := alpha + beta + gamma
	weights := ModeWeights{
		Alpha: round3(alpha / total),
		Beta:  round3(beta / total),
		Gamma: round3(gamma / total),
	}

	persona := PersonaParadox
	switch {
	case weights.Alpha >= weights.Beta && weights.Alpha >= weights.Gamma:
		persona = PersonaSquirrel
	case weights.Beta > weights.Alpha && weights.Beta >= weights.Gamma:
		persona = PersonaFox
	}
	glyph := personaGlyphs[persona]
	styled := fmt.Sprintf("“%s” ~ echoed by a whisper %s", text, glyph)

	pc.Metadata["dominant_persona"] = persona
	pc.Metadata["mode_weights"] = weights

	return &EchoResult{
		StyledText: styled,
		Weights:    weights,
		Persona:    persona,
		Glyph:      glyph,
	}, nil
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
