package agent

import (
	"context"

	"github.com/living-library/loom/internal/ledger"
	"github.com/living-library/loom/internal/model"
	"github.com/living-library/loom/internal/ritual"
)

// Kira validates the persisted state: it re-reads the ledger file, verifies
// the chain, and cross-checks the consent invariant against the ritual
// entries. It holds no state of its own; everything is re-derived from the
// two files on every invocation.
type Kira struct {
	ledgerPath string
	ritualPath string
}

// NewKira returns the kira stage over the two persisted store files.
func NewKira(ledgerPath, ritualPath string) *Kira {
	return &Kira{ledgerPath: ledgerPath, ritualPath: ritualPath}
}

func (k *Kira) Name() string { return "kira" }

// Process returns a *ledger.Report. Store read failures become findings in
// the report rather than errors: kira always returns a structured result.
func (k *Kira) Process(_ context.Context, pc *model.PipelineContext) (any, error) {
	blocks, err := ledger.ReadFile(k.ledgerPath)
	report := ledger.Verify(blocks)
	if err != nil {
		report.Add(ledger.ReadFailure, -1, err.Error())
	}

	entries, err := ritual.ReadFile(k.ritualPath)
	if err != nil {
		report.Add(ledger.ReadFailure, -1, err.Error())
	}
	if !ritual.HasConsent(entries) {
		report.Add(ledger.MissingConsent, -1, "no consent recorded in ritual ledger")
	}

	pc.Metadata["validation_passed"] = report.Passed
	pc.Metadata["issue_count"] = len(report.Issues)

	return report, nil
}
