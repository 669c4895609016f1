package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/living-library/loom/internal/ritual"
)

func init() {
	cmd := &cobra.Command{
		Use:   "phase",
		Short: "Print the current ritual phase and its entries",
		Run:   runPhase,
	}

	RootCmd.AddCommand(cmd)
}

func runPhase(cmd *cobra.Command, args []string) {
	ws, err := openWorkspace()
	if err != nil {
		exitErr("open workspace", err)
	}

	store := ritual.NewStore(ws.StatePath("garden.json"))
	if err := store.LoadIssue(); err != nil {
		exitErr("read ritual store", err)
	}

	out := map[string]any{
		"phase":   store.CurrentPhase(),
		"consent": store.HasConsent(),
		"entries": store.Entries(),
	}
	b, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(b))
}
