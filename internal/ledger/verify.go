package ledger

import (
	"fmt"
	"time"

	"github.com/living-library/loom/internal/model"
)

// IssueKind classifies a validator finding.
type IssueKind string

const (
	HashMismatch     IssueKind = "hash_mismatch"
	BrokenLink       IssueKind = "broken_link"
	MalformedGenesis IssueKind = "malformed_genesis"
	TimestampOrder   IssueKind = "timestamp_order_violation"
	MissingConsent   IssueKind = "missing_consent"
	ReadFailure      IssueKind = "read_failure"
	EmptyLedger      IssueKind = "empty_ledger"
)

// Issue is one validator finding. Index is the block index the finding
// applies to, or -1 for chain-level findings.
type Issue struct {
	Kind   IssueKind `json:"kind"`
	Index  int       `json:"index"`
	Detail string    `json:"detail,omitempty"`
}

func (i Issue) String() string {
	if i.Index >= 0 {
		return fmt.Sprintf("%s at block %d", i.Kind, i.Index)
	}
	return string(i.Kind)
}

// Report is the cumulative validation result. Passed is true iff Issues is
// empty.
type Report struct {
	Passed bool    `json:"passed"`
	Issues []Issue `json:"issues"`
}

// Add records a finding and flips Passed.
func (r *Report) Add(kind IssueKind, index int, detail string) {
	r.Issues = append(r.Issues, Issue{Kind: kind, Index: index, Detail: detail})
	r.Passed = false
}

// LogSummary is the report's stage log payload.
func (r *Report) LogSummary() map[string]any {
	return map[string]any{"passed": r.Passed, "issues": len(r.Issues)}
}

// NewReport returns an empty, passing report.
func NewReport() *Report {
	return &Report{Passed: true, Issues: []Issue{}}
}

// Verify re-derives chain integrity from the given blocks: it recomputes
// each hash over the canonical serialization, checks every prev link,
// checks the genesis shape, and checks that timestamps never decrease.
// Validation is cumulative and never stops at the first finding; an
// unparseable timestamp skips that ordering comparison but nothing else.
func Verify(blocks []model.Block) *Report {
	report := NewReport()

	if len(blocks) == 0 {
		report.Add(EmptyLedger, -1, "ledger missing or empty")
		return report
	}

	genesis := blocks[0]
	if genesis.PrevHash != "" {
		report.Add(MalformedGenesis, 0, "genesis previous_hash must be empty")
	}
	if genesis.Kind != model.KindGenesis {
		report.Add(MalformedGenesis, 0, fmt.Sprintf("genesis kind is %q", genesis.Kind))
	}

	var prevTS *time.Time
	for i, block := range blocks {
		hash, err := HashBlock(block)
		if err != nil {
			report.Add(ReadFailure, i, err.Error())
		} else if hash != block.Hash {
			report.Add(HashMismatch, i, "stored hash does not match recomputed hash")
		}

		if i > 0 && block.PrevHash != blocks[i-1].Hash {
			report.Add(BrokenLink, i, "previous_hash does not match prior block hash")
		}

		ts, err := time.Parse(time.RFC3339Nano, block.Timestamp)
		if err != nil {
			prevTS = nil
			continue
		}
		if prevTS != nil && ts.Before(*prevTS) {
			report.Add(TimestampOrder, i, "timestamp earlier than prior block")
		}
		prevTS = &ts
	}

	return report
}
