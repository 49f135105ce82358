package testutil

import (
	"encoding/binary"
	"sync"

	"github.com/google/uuid"
)

// SequentialIDGenerator generates version 7 UUIDs whose timestamp is zero
// and whose low bits count up from 1:
//
//	00000000-0000-7000-8000-000000000001
//	00000000-0000-7000-8000-000000000002
//
// The IDs parse as UUIDv7 and sort in generation order, like real build IDs,
// but are identical across runs.
//
// Safe for concurrent use.
type SequentialIDGenerator struct {
	mu sync.Mutex
	n  uint64
}

// NewSequentialIDGenerator creates a generator whose first ID ends in 1.
func NewSequentialIDGenerator() *SequentialIDGenerator {
	return &SequentialIDGenerator{}
}

// Generate returns the next ID.
func (g *SequentialIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++

	var id uuid.UUID
	binary.BigEndian.PutUint64(id[8:], g.n)
	id[6] = 0x70
	id[8] = 0x80 | id[8]&0x3f
	return id.String()
}

// FixedIDGenerator returns predetermined IDs in order.
//
// Panics once the IDs are exhausted, so a test that writes more builds than
// it planned for fails loudly.
type FixedIDGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedIDGenerator creates a generator returning ids in order.
func NewFixedIDGenerator(ids ...string) *FixedIDGenerator {
	return &FixedIDGenerator{ids: ids}
}

// Generate returns the next predetermined ID.
func (g *FixedIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.idx >= len(g.ids) {
		panic("FixedIDGenerator: all IDs exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}
