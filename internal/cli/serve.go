package cli

import (
	"context"
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/living-library/loom/internal/collab"
	"github.com/living-library/loom/internal/config"
	"github.com/living-library/loom/internal/eventlog"
	"github.com/living-library/loom/internal/pipeline"
	"github.com/living-library/loom/internal/workspace"
)

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the collaboration HTTP front end",
		Run:   runServe,
	}

	cmd.Flags().String("addr", "", "Listen address (overrides config)")

	RootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, args []string) {
	addr, _ := cmd.Flags().GetString("addr")

	cfg, err := loadConfig()
	if err != nil {
		exitErr("load config", err)
	}
	if addr == "" {
		addr = cfg.HTTPAddr
	}

	runner := &workspaceRunner{
		cfg:     cfg,
		manager: workspace.NewManager(dataRoot()),
		pipes:   make(map[string]*pipeline.Dispatcher),
	}
	defer runner.Close()

	server := collab.NewServer(runner)
	fmt.Printf("loom collaboration server listening on %s\n", addr)
	if err := server.Router().Run(addr); err != nil {
		exitErr("serve", err)
	}
}

// workspaceRunner builds and caches one dispatcher per workspace so that
// concurrent requests against the same workspace share the same store
// instances and their append serialization.
type workspaceRunner struct {
	cfg     *config.Config
	manager *workspace.Manager

	mu    sync.Mutex
	pipes map[string]*pipeline.Dispatcher
	sinks []*eventlog.Log
}

func (r *workspaceRunner) Run(ctx context.Context, workspaceID, input, userID string) (*pipeline.Response, error) {
	d, err := r.dispatcher(workspaceID)
	if err != nil {
		return nil, err
	}
	return d.Run(ctx, input, userID), nil
}

func (r *workspaceRunner) dispatcher(workspaceID string) (*pipeline.Dispatcher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if d, ok := r.pipes[workspaceID]; ok {
		return d, nil
	}

	ws, err := r.manager.Get(workspaceID)
	if err != nil {
		return nil, err
	}
	sink, err := eventlog.Open(ws.LogsPath("events.db"))
	if err != nil {
		return nil, err
	}

	d, _ := newDispatcher(ws, r.cfg, sink)
	r.pipes[workspaceID] = d
	r.sinks = append(r.sinks, sink)
	return d, nil
}

// Close closes the cached event logs.
func (r *workspaceRunner) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sinks {
		s.Close()
	}
	r.sinks = nil
}
