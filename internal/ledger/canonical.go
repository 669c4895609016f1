package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/living-library/loom/internal/model"
)

// canonicalPayload serializes every block field except the hash itself in a
// deterministic byte form. Maps marshal with lexicographically sorted keys
// at every nesting level, so two blocks with the same field values always
// produce identical bytes regardless of insertion order.
func canonicalPayload(b model.Block) ([]byte, error) {
	payload := map[string]any{
		"timestamp":     b.Timestamp,
		"kind":          string(b.Kind),
		"data":          b.Data,
		"previous_hash": b.PrevHash,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("canonicalize block: %w", err)
	}
	return raw, nil
}

// HashBlock computes the hex SHA-256 digest of the block's canonical
// serialization.
func HashBlock(b model.Block) (string, error) {
	raw, err := canonicalPayload(b)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
