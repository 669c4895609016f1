package agent

import (
	"context"

	"github.com/living-library/loom/internal/ledger"
	"github.com/living-library/loom/internal/memory"
	"github.com/living-library/loom/internal/model"
)

// LimnusResult is the limnus stage's structured output.
type LimnusResult struct {
	Cached    bool        `json:"cached"`
	MemoryID  string      `json:"memory_id"`
	Layer     model.Layer `json:"layer"`
	BlockHash string      `json:"block_hash"`
}

// LogSummary implements the stage log payload for limnus.
func (r *LimnusResult) LogSummary() map[string]any {
	return map[string]any{"memory_id": r.MemoryID, "layer": string(r.Layer), "hash": r.BlockHash}
}

// Limnus persists each input: it ensures the ledger genesis exists, chains
// a new block embedding the raw input and echo's styled output, and records
// the input in the tiered memory store.
type Limnus struct {
	ledger *ledger.Store
	memory *memory.Store
}

// NewLimnus returns the limnus stage over the given stores.
func NewLimnus(l *ledger.Store, m *memory.Store) *Limnus {
	return &Limnus{ledger: l, memory: m}
}

func (l *Limnus) Name() string { return "limnus" }

func (l *Limnus) Process(_ context.Context, pc *model.PipelineContext) (any, error) {
	if err := l.ledger.InitGenesis(); err != nil {
		return nil, err
	}

	var owner []string
	if pc.UserID != "" {
		owner = append(owner, pc.UserID)
	}
	entry, err := l.memory.Record(pc.InputText, owner...)
	if err != nil {
		return nil, err
	}

	data := map[string]any{"text": pc.InputText}
	if echoRes, ok := pc.Result("echo").(*EchoResult); ok {
		data["styled_text"] = echoRes.StyledText
		data["glyph"] = echoRes.Glyph
	}
	block, err := l.ledger.Append(model.KindInput, data)
	if err != nil {
		return nil, err
	}

	pc.Metadata["last_block_hash"] = block.Hash
	pc.Metadata["last_memory_id"] = entry.ID
	pc.Metadata["memory_count"] = l.memory.Len()

	return &LimnusResult{
		Cached:    true,
		MemoryID:  entry.ID,
		Layer:     entry.Layer,
		BlockHash: block.Hash,
	}, nil
}
