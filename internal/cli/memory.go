package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/living-library/loom/internal/memory"
	"github.com/living-library/loom/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Print the tiered memory entries",
		Run:   runMemory,
	}

	cmd.Flags().String("layer", "", "Filter by layer: L1, L2, L3")

	RootCmd.AddCommand(cmd)
}

func runMemory(cmd *cobra.Command, args []string) {
	layer, _ := cmd.Flags().GetString("layer")

	cfg, err := loadConfig()
	if err != nil {
		exitErr("load config", err)
	}
	ws, err := openWorkspace()
	if err != nil {
		exitErr("open workspace", err)
	}

	store := memory.NewStore(ws.StatePath("memory.json"), cfg.PromotionThreshold)
	if err := store.LoadIssue(); err != nil {
		exitErr("read memory store", err)
	}

	entries := store.All()
	if layer != "" {
		filtered := entries[:0]
		for _, e := range entries {
			if e.Layer == model.Layer(layer) {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}

	b, _ := json.MarshalIndent(entries, "", "  ")
	fmt.Println(string(b))
}
