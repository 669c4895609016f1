package model

// Layer is a retention tier for a memory entry. Entries only ever move to
// a higher layer; they never regress.
type Layer string

const (
	LayerL1 Layer = "L1"
	LayerL2 Layer = "L2"
	LayerL3 Layer = "L3"
)

// layerRank orders layers for monotonicity checks.
var layerRank = map[Layer]int{
	LayerL1: 1,
	LayerL2: 2,
	LayerL3: 3,
}

// Rank returns the numeric position of the layer, higher meaning older.
// Unknown layers rank below L1.
func (l Layer) Rank() int {
	return layerRank[l]
}

// MemoryEntry is one record in the tiered memory store.
type MemoryEntry struct {
	ID        string   `json:"id"`
	Timestamp string   `json:"timestamp"`
	Text      string   `json:"text"`
	Layer     Layer    `json:"layer"`
	OwnerTags []string `json:"owner_tags,omitempty"`
}
