package model

// PipelineContext is the shared mutable state threaded through one pipeline
// run. It is owned by exactly one run and must not be reused across runs.
//
// Metadata is freely stage-writable. AgentResults is append-only: a stage
// may add its own key and read keys written by earlier stages, but must
// never rewrite another stage's entry.
type PipelineContext struct {
	RunID        string
	InputText    string
	UserID       string
	Metadata     map[string]any
	AgentResults map[string]any
}

// NewPipelineContext returns a context ready for one run.
func NewPipelineContext(runID, input, userID string) *PipelineContext {
	return &PipelineContext{
		RunID:        runID,
		InputText:    input,
		UserID:       userID,
		Metadata:     make(map[string]any),
		AgentResults: make(map[string]any),
	}
}

// Result returns the stored result for a stage, or nil if the stage has not
// run yet.
func (pc *PipelineContext) Result(stage string) any {
	return pc.AgentResults[stage]
}
