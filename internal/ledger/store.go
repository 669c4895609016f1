// Package ledger implements the append-only, hash-chained audit ledger and
// its integrity validator.
package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/living-library/loom/internal/errors"
	"github.com/living-library/loom/internal/model"
)

// GenesisAnchor is the data payload of every genesis block.
const GenesisAnchor = "I return as breath."

// Store is an append-only ledger backed by a JSON file that is rewritten in
// full on every append. The in-memory chain is the read snapshot; it only
// advances after the file write succeeds, so readers never observe a
// partial append.
//
// Append and InitGenesis are serialized by the store mutex: the tail read,
// hash computation, and write form one critical section.
type Store struct {
	mu      sync.RWMutex
	path    string
	blocks  []model.Block
	loadErr error
	now     func() time.Time
}

// NewStore opens the ledger at path, loading any existing chain. A missing
// or corrupt file degrades to an empty chain; the load failure is kept and
// surfaced through LoadIssue so the validator can report it as a finding.
func NewStore(path string) *Store {
	s := &Store{
		path: path,
		now:  time.Now,
	}
	blocks, err := ReadFile(path)
	s.blocks = blocks
	s.loadErr = err
	return s
}

// LoadIssue returns the load failure from construction, if any.
func (s *Store) LoadIssue() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadErr
}

// InitGenesis ensures a genesis block exists. Calling it on a non-empty
// chain is a no-op.
func (s *Store) InitGenesis() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.blocks) > 0 {
		return nil
	}
	_, err := s.appendLocked(model.KindGenesis, map[string]any{"anchor": GenesisAnchor})
	return err
}

// Append constructs a block chained to the current tail, stamps the current
// UTC time, hashes it, and persists the whole chain. The in-memory chain
// does not advance if the write fails.
func (s *Store) Append(kind model.BlockKind, data map[string]any) (*model.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.blocks) == 0 && kind != model.KindGenesis {
		return nil, errors.NewStorage("ledger append", fmt.Errorf("genesis block missing"))
	}
	return s.appendLocked(kind, data)
}

func (s *Store) appendLocked(kind model.BlockKind, data map[string]any) (*model.Block, error) {
	prev := ""
	if n := len(s.blocks); n > 0 {
		prev = s.blocks[n-1].Hash
	}

	block := model.Block{
		Timestamp: s.now().UTC().Format(time.RFC3339Nano),
		Kind:      kind,
		Data:      data,
		PrevHash:  prev,
	}
	hash, err := HashBlock(block)
	if err != nil {
		return nil, errors.NewStorage("ledger append", err)
	}
	block.Hash = hash

	next := append(append([]model.Block(nil), s.blocks...), block)
	if err := writeFile(s.path, next); err != nil {
		return nil, errors.NewStorage("ledger write", err)
	}
	s.blocks = next
	return &block, nil
}

// All returns a snapshot of the chain in append order.
func (s *Store) All() []model.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Block(nil), s.blocks...)
}

// Len returns the current chain length.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blocks)
}

// Tail returns the last block, or nil for an empty chain.
func (s *Store) Tail() *model.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.blocks) == 0 {
		return nil
	}
	b := s.blocks[len(s.blocks)-1]
	return &b
}

// ReadFile reads a persisted chain. A missing file is an empty chain with
// no error; a corrupt file returns an empty chain plus the parse error.
func ReadFile(path string) ([]model.Block, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var blocks []model.Block
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return nil, fmt.Errorf("parse ledger %s: %w", path, err)
	}
	return blocks, nil
}

// writeFile rewrites the chain file in full, via a same-directory temp file
// and rename so an external reader never sees a half-written array.
func writeFile(path string, blocks []model.Block) error {
	raw, err := json.MarshalIndent(blocks, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".ledger-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
