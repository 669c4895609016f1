package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/living-library/loom/internal/model"
)

// fakeStage records each result key visible at its turn.
type fakeStage struct {
	name    string
	fail    bool
	observe func(pc *model.PipelineContext)
}

func (f *fakeStage) Name() string { return f.name }

func (f *fakeStage) Process(_ context.Context, pc *model.PipelineContext) (any, error) {
	if f.observe != nil {
		f.observe(pc)
	}
	if f.fail {
		pc.Metadata[f.name+"_partial"] = true
		return nil, errors.New("boom")
	}
	return map[string]any{"stage": f.name}, nil
}

// recordSink captures sink appends in order.
type recordSink struct {
	mu      sync.Mutex
	stages  []string
	records []map[string]any
}

func (r *recordSink) Append(stage string, payload map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages = append(r.stages, stage)
	r.records = append(r.records, payload)
	return nil
}

func TestRunExecutesInOrder(t *testing.T) {
	sink := &recordSink{}
	d := NewDispatcher([]Stage{
		&fakeStage{name: "one"},
		&fakeStage{name: "two"},
		&fakeStage{name: "three"},
	}, Options{Sink: sink})

	resp := d.Run(context.Background(), "input", "")
	if !resp.Success {
		t.Fatalf("expected success, got %+v", resp)
	}
	if len(resp.Results) != 3 {
		t.Errorf("expected 3 results, got %d", len(resp.Results))
	}
	want := []string{"one", "two", "three"}
	for i, stage := range want {
		if sink.stages[i] != stage {
			t.Errorf("sink order: expected %q at %d, got %q", stage, i, sink.stages[i])
		}
	}
	if resp.RunID == "" {
		t.Error("expected non-empty run id")
	}
}

func TestLaterStageSeesEarlierResults(t *testing.T) {
	var sawOne bool
	var sawOwnKey bool
	d := NewDispatcher([]Stage{
		&fakeStage{name: "one"},
		&fakeStage{name: "two", observe: func(pc *model.PipelineContext) {
			_, sawOne = pc.AgentResults["one"]
			_, sawOwnKey = pc.AgentResults["two"]
		}},
	}, Options{})

	d.Run(context.Background(), "input", "")
	if !sawOne {
		t.Error("second stage should observe first stage's result")
	}
	if sawOwnKey {
		t.Error("a stage must not observe its own result key during Process")
	}
}

func TestFailureStopsDownstream(t *testing.T) {
	var ranThird bool
	d := NewDispatcher([]Stage{
		&fakeStage{name: "one"},
		&fakeStage{name: "two", fail: true},
		&fakeStage{name: "three", observe: func(*model.PipelineContext) { ranThird = true }},
	}, Options{})

	resp := d.Run(context.Background(), "input", "")
	if resp.Success {
		t.Fatal("expected failed run")
	}
	if resp.FailedStage != "two" {
		t.Errorf("expected failed stage two, got %q", resp.FailedStage)
	}
	if ranThird {
		t.Error("downstream stage ran after failure")
	}
	// Metadata written before the failure point stays visible.
	if resp.Metadata["two_partial"] != true {
		t.Error("expected partial metadata from failing stage")
	}
}

func TestContinueAfterFailure(t *testing.T) {
	var ranThird bool
	d := NewDispatcher([]Stage{
		&fakeStage{name: "one"},
		&fakeStage{name: "two", fail: true},
		&fakeStage{name: "three", observe: func(*model.PipelineContext) { ranThird = true }},
	}, Options{ContinueAfterFailure: true})

	resp := d.Run(context.Background(), "input", "")
	if resp.Success {
		t.Fatal("expected failed run")
	}
	if !ranThird {
		t.Error("expected downstream stage to run in degraded mode")
	}
	if resp.FailedStage != "two" {
		t.Errorf("expected first failed stage recorded, got %q", resp.FailedStage)
	}
}

func TestCancelledContextStopsRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran bool
	d := NewDispatcher([]Stage{
		&fakeStage{name: "one", observe: func(*model.PipelineContext) { ran = true }},
	}, Options{})

	resp := d.Run(ctx, "input", "")
	if resp.Success {
		t.Fatal("expected cancelled run to fail")
	}
	if ran {
		t.Error("no stage should run after cancellation")
	}
}

func TestSinkPayloadCarriesRunID(t *testing.T) {
	sink := &recordSink{}
	d := NewDispatcher([]Stage{&fakeStage{name: "one"}}, Options{Sink: sink})

	resp := d.Run(context.Background(), "input", "")
	if len(sink.records) != 1 {
		t.Fatalf("expected 1 sink record, got %d", len(sink.records))
	}
	if sink.records[0]["run_id"] != resp.RunID {
		t.Errorf("expected run_id %q in payload, got %v", resp.RunID, sink.records[0]["run_id"])
	}
}

func TestDistinctRunIDs(t *testing.T) {
	d := NewDispatcher([]Stage{&fakeStage{name: "one"}}, Options{})
	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		resp := d.Run(context.Background(), fmt.Sprintf("input %d", i), "")
		if seen[resp.RunID] {
			t.Fatalf("duplicate run id %q", resp.RunID)
		}
		seen[resp.RunID] = true
	}
}
