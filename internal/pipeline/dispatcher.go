package pipeline

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/living-library/loom/internal/errors"
	"github.com/living-library/loom/internal/ledger"
	"github.com/living-library/loom/internal/model"
)

// Options configures dispatcher behavior.
type Options struct {
	// ContinueAfterFailure keeps running downstream stages after a stage
	// fails. Default false: the failing stage is the last one invoked.
	ContinueAfterFailure bool

	// Sink receives one record per stage step. Nil means NopSink.
	Sink Sink

	// Logger for run progress. Nil means slog.Default().
	Logger *slog.Logger
}

// Response is the end-to-end result of one pipeline run.
type Response struct {
	RunID       string         `json:"run_id"`
	Success     bool           `json:"success"`
	Results     map[string]any `json:"results"`
	Metadata    map[string]any `json:"metadata"`
	Validation  *ledger.Report `json:"validation,omitempty"`
	FailedStage string         `json:"failed_stage,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// Dispatcher runs stages strictly in order over one shared context. Each
// stage's result is stored under its own key; a later stage observes only
// results already produced.
type Dispatcher struct {
	stages []Stage
	sink   Sink
	logger *slog.Logger
	opts   Options
}

// NewDispatcher builds a dispatcher over the given stage sequence.
func NewDispatcher(stages []Stage, opts Options) *Dispatcher {
	sink := opts.Sink
	if sink == nil {
		sink = NopSink{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{stages: stages, sink: sink, logger: logger, opts: opts}
}

// Run executes all stages over a fresh context. A stage failure marks the
// run failed and, unless ContinueAfterFailure is set, skips the remaining
// stages. Metadata written before a failure point stays visible. The
// response carries a validation section whenever the validator stage ran.
func (d *Dispatcher) Run(ctx context.Context, input, userID string) *Response {
	pc := model.NewPipelineContext(uuid.NewString(), input, userID)
	resp := &Response{
		RunID:   pc.RunID,
		Success: true,
	}
	d.logger.Debug("pipeline start", "run_id", pc.RunID, "input_len", len(input))

	for _, stage := range d.stages {
		if err := ctx.Err(); err != nil {
			resp.Success = false
			resp.Error = err.Error()
			break
		}

		result, err := stage.Process(ctx, pc)
		if err != nil {
			stageErr := errors.NewStage(stage.Name(), err)
			d.logger.Error("stage failed", "run_id", pc.RunID, "stage", stage.Name(), "err", err)
			resp.Success = false
			if resp.FailedStage == "" {
				resp.FailedStage = stage.Name()
				resp.Error = stageErr.Error()
			}
			d.emit(stage.Name(), pc.RunID, map[string]any{"ok": false, "error": err.Error()})
			if !d.opts.ContinueAfterFailure {
				break
			}
			continue
		}

		pc.AgentResults[stage.Name()] = result
		d.emit(stage.Name(), pc.RunID, summaryOf(result))
		d.logger.Debug("stage complete", "run_id", pc.RunID, "stage", stage.Name())
	}

	resp.Results = pc.AgentResults
	resp.Metadata = pc.Metadata
	for _, result := range pc.AgentResults {
		if report, ok := result.(*ledger.Report); ok {
			resp.Validation = report
		}
	}

	d.logger.Debug("pipeline complete", "run_id", pc.RunID, "success", resp.Success)
	return resp
}

func (d *Dispatcher) emit(stage, runID string, payload map[string]any) {
	payload["run_id"] = runID
	if err := d.sink.Append(stage, payload); err != nil {
		// The sink is observability, not state: a sink failure must not
		// fail the run.
		d.logger.Error("stage log append failed", "stage", stage, "err", err)
	}
}

func summaryOf(result any) map[string]any {
	if s, ok := result.(summarizer); ok {
		payload := map[string]any{"ok": true}
		for k, v := range s.LogSummary() {
			payload[k] = v
		}
		return payload
	}
	return map[string]any{"ok": true}
}
