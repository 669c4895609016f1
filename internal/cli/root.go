// Package cli implements the loom CLI commands.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/living-library/loom/internal/config"
	"github.com/living-library/loom/internal/workspace"
)

var (
	rootFlag      string
	workspaceFlag string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "loom",
	Short: "Agent pipeline with a hash-chained audit ledger",
	Long: "Loom runs a fixed agent pipeline over each input and persists a " +
		"hash-chained audit ledger, a tiered memory store, and a ritual side ledger per workspace.",
}

func init() {
	RootCmd.PersistentFlags().StringVar(&rootFlag, "root", "", "Data root (default: $LOOM_ROOT or ~/.loom)")
	RootCmd.PersistentFlags().StringVarP(&workspaceFlag, "workspace", "w", "default", "Workspace ID")
}

func dataRoot() string {
	if rootFlag != "" {
		return rootFlag
	}
	if env := os.Getenv("LOOM_ROOT"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".loom")
}

func loadConfig() (*config.Config, error) {
	return config.Load(dataRoot())
}

func openWorkspace() (*workspace.Workspace, error) {
	m := workspace.NewManager(dataRoot())
	return m.Get(workspaceFlag)
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
