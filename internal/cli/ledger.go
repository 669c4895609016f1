package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/living-library/loom/internal/ledger"
)

func init() {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Print the workspace ledger chain",
		Run:   runLedger,
	}

	cmd.Flags().IntP("limit", "l", 0, "Max blocks, newest last (0 = all)")

	RootCmd.AddCommand(cmd)
}

func runLedger(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")

	ws, err := openWorkspace()
	if err != nil {
		exitErr("open workspace", err)
	}
	blocks, err := ledger.ReadFile(ws.StatePath("ledger.json"))
	if err != nil {
		exitErr("read ledger", err)
	}
	if limit > 0 && len(blocks) > limit {
		blocks = blocks[len(blocks)-limit:]
	}

	b, _ := json.MarshalIndent(blocks, "", "  ")
	fmt.Println(string(b))
}
