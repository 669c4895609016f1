package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/living-library/loom/internal/eventlog"
	"github.com/living-library/loom/internal/ledger"
	"github.com/living-library/loom/internal/memory"
	"github.com/living-library/loom/internal/model"
	"github.com/living-library/loom/internal/ritual"
)

// workspaceStats summarizes one workspace's stores.
type workspaceStats struct {
	Workspace    string              `json:"workspace"`
	Blocks       int                 `json:"blocks"`
	Memories     int                 `json:"memories"`
	MemoryLayers map[model.Layer]int `json:"memory_layers"`
	RitualPhase  string              `json:"ritual_phase"`
	Consent      bool                `json:"consent"`
	StageEvents  int                 `json:"stage_events"`
	EventDBBytes int64               `json:"event_db_bytes"`
}

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show workspace store statistics",
		Run:   runStats,
	}

	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		exitErr("load config", err)
	}
	ws, err := openWorkspace()
	if err != nil {
		exitErr("open workspace", err)
	}

	st := workspaceStats{Workspace: ws.ID}

	blocks, _ := ledger.ReadFile(ws.StatePath("ledger.json"))
	st.Blocks = len(blocks)

	mem := memory.NewStore(ws.StatePath("memory.json"), cfg.PromotionThreshold)
	st.Memories = mem.Len()
	st.MemoryLayers = mem.CountByLayer()

	rit := ritual.NewStore(ws.StatePath("garden.json"))
	st.RitualPhase = rit.CurrentPhase()
	st.Consent = rit.HasConsent()

	dbPath := ws.LogsPath("events.db")
	if info, err := os.Stat(dbPath); err == nil {
		st.EventDBBytes = info.Size()
		if log, err := eventlog.Open(dbPath); err == nil {
			st.StageEvents, _ = log.Count(cmd.Context())
			log.Close()
		}
	}

	b, _ := json.MarshalIndent(st, "", "  ")
	fmt.Println(string(b))
}
