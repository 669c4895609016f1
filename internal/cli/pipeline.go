package cli

import (
	"github.com/living-library/loom/internal/agent"
	"github.com/living-library/loom/internal/config"
	"github.com/living-library/loom/internal/ledger"
	"github.com/living-library/loom/internal/memory"
	"github.com/living-library/loom/internal/pipeline"
	"github.com/living-library/loom/internal/ritual"
	"github.com/living-library/loom/internal/workspace"
)

// stores bundles the per-workspace persistent stores.
type stores struct {
	ledger *ledger.Store
	memory *memory.Store
	ritual *ritual.Store
}

func openStores(ws *workspace.Workspace, cfg *config.Config) *stores {
	return &stores{
		ledger: ledger.NewStore(ws.StatePath("ledger.json")),
		memory: memory.NewStore(ws.StatePath("memory.json"), cfg.PromotionThreshold),
		ritual: ritual.NewStore(ws.StatePath("garden.json")),
	}
}

// newDispatcher assembles the full stage sequence over one workspace:
// echo, limnus, garden, kira.
func newDispatcher(ws *workspace.Workspace, cfg *config.Config, sink pipeline.Sink) (*pipeline.Dispatcher, *stores) {
	st := openStores(ws, cfg)
	stages := []pipeline.Stage{
		agent.NewEcho(),
		agent.NewLimnus(st.ledger, st.memory),
		agent.NewGarden(st.ritual),
		agent.NewKira(ws.StatePath("ledger.json"), ws.StatePath("garden.json")),
	}
	d := pipeline.NewDispatcher(stages, pipeline.Options{
		ContinueAfterFailure: cfg.ContinueAfterFailure,
		Sink:                 sink,
	})
	return d, st
}
