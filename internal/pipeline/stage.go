// Package pipeline defines the stage contract and the dispatcher that runs
// a fixed stage sequence over one shared context.
package pipeline

import (
	"context"

	"github.com/living-library/loom/internal/model"
)

// Stage is one unit of the pipeline. Process reads the shared context,
// returns a stage-specific structured result, and may mutate the shared
// metadata or append to the persistent stores as side effects. A stage may
// read the results of earlier stages from AgentResults but never writes any
// key other than its own (the dispatcher does that write).
type Stage interface {
	Name() string
	Process(ctx context.Context, pc *model.PipelineContext) (any, error)
}

// Sink receives one structured log record per completed stage step.
type Sink interface {
	Append(stageName string, payload map[string]any) error
}

// summarizer lets a stage result choose its own log payload.
type summarizer interface {
	LogSummary() map[string]any
}

// NopSink discards all records.
type NopSink struct{}

func (NopSink) Append(string, map[string]any) error { return nil }
