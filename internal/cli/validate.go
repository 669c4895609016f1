package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/living-library/loom/internal/ledger"
	"github.com/living-library/loom/internal/ritual"
)

func init() {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the workspace ledger and consent invariant",
		Run:   runValidate,
	}

	RootCmd.AddCommand(cmd)
}

func runValidate(cmd *cobra.Command, args []string) {
	ws, err := openWorkspace()
	if err != nil {
		exitErr("open workspace", err)
	}

	blocks, err := ledger.ReadFile(ws.StatePath("ledger.json"))
	report := ledger.Verify(blocks)
	if err != nil {
		report.Add(ledger.ReadFailure, -1, err.Error())
	}

	entries, err := ritual.ReadFile(ws.StatePath("garden.json"))
	if err != nil {
		report.Add(ledger.ReadFailure, -1, err.Error())
	}
	if !ritual.HasConsent(entries) {
		report.Add(ledger.MissingConsent, -1, "no consent recorded in ritual ledger")
	}

	b, _ := json.MarshalIndent(report, "", "  ")
	fmt.Println(string(b))
	if !report.Passed {
		os.Exit(1)
	}
}
