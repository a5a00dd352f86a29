package vocab

// BondTable holds the co-occurrence strength between every pair of adjacent
// characters. Loaded once from the store and read-only thereafter.
type BondTable struct {
	weights [256][256]uint32
}

// NewBondTable returns an empty table; absent pairs weigh zero.
func NewBondTable() *BondTable {
	return &BondTable{}
}

// Set records the adjacency weight for the ordered pair (a, b).
func (t *BondTable) Set(a, b byte, weight uint32) {
	t.weights[a][b] = weight
}

// Weight returns the adjacency weight for the ordered pair (a, b).
func (t *BondTable) Weight(a, b byte) uint32 {
	return t.weights[a][b]
}
