// Package model defines the core ledger, memory, and pipeline data types.
package model

// BlockKind classifies a ledger block. The set is open: stages may append
// blocks of new kinds without a schema change.
type BlockKind string

const (
	KindGenesis BlockKind = "genesis"
	KindInput   BlockKind = "input"
)

// Block is one immutable, hash-linked record in the audit ledger.
// Hash is a hex-encoded SHA-256 digest over the canonical serialization of
// every other field; PrevHash is empty only for the genesis block.
type Block struct {
	Timestamp string         `json:"timestamp"`
	Kind      BlockKind      `json:"kind"`
	Data      map[string]any `json:"data"`
	PrevHash  string         `json:"previous_hash"`
	Hash      string         `json:"hash"`
}
