package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/living-library/loom/internal/eventlog"
)

func init() {
	cmd := &cobra.Command{
		Use:   "run [input]",
		Short: "Run the pipeline over one input",
		Long:  "Run the full agent pipeline over one input. Input can be a positional arg or piped via stdin.",
		Run:   runRun,
	}

	cmd.Flags().StringP("user", "u", "", "User ID recorded as memory owner tag")

	RootCmd.AddCommand(cmd)
}

func runRun(cmd *cobra.Command, args []string) {
	user, _ := cmd.Flags().GetString("user")

	var input string
	if len(args) > 0 {
		input = strings.Join(args, " ")
	} else {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) == 0 {
			b, err := io.ReadAll(os.Stdin)
			if err != nil {
				exitErr("read stdin", err)
			}
			input = string(b)
		}
	}
	if strings.TrimSpace(input) == "" {
		exitErr("run", fmt.Errorf("input is required (positional arg or stdin)"))
	}

	cfg, err := loadConfig()
	if err != nil {
		exitErr("load config", err)
	}
	ws, err := openWorkspace()
	if err != nil {
		exitErr("open workspace", err)
	}
	sink, err := eventlog.Open(ws.LogsPath("events.db"))
	if err != nil {
		exitErr("open event log", err)
	}
	defer sink.Close()

	d, _ := newDispatcher(ws, cfg, sink)
	resp := d.Run(cmd.Context(), strings.TrimSpace(input), user)

	b, _ := json.MarshalIndent(resp, "", "  ")
	fmt.Println(string(b))
	if !resp.Success {
		os.Exit(1)
	}
}
