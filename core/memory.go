package core

import "github.com/sarchlab/ooopipe/insts"

// Memory is the flat, word-addressed data store shared by loads and
// stores. Addresses are word indices, not byte offsets: the
// simulated machine has no sub-word access.
type Memory struct {
	words []uint64
}

// NewMemory allocates a zeroed memory of the given word count.
func NewMemory(size uint64) *Memory {
	return &Memory{words: make([]uint64, size)}
}

// Size returns the number of addressable words.
func (m *Memory) Size() uint64 { return uint64(len(m.words)) }

// InBounds reports whether addr is a valid word index.
func (m *Memory) InBounds(addr uint64) bool { return addr < uint64(len(m.words)) }

// Load reads the word at addr. The caller must check InBounds first; an
// out-of-bounds Load panics.
func (m *Memory) Load(addr uint64) uint64 { return m.words[addr] }

// Store writes value to the word at addr. The caller must check InBounds
// first; an out-of-bounds Store panics.
func (m *Memory) Store(addr uint64, value uint64) { m.words[addr] = value }

// LoadData seeds the data segment described by a Program's Data words.
// Called once at program load, before the pipeline starts ticking.
func (m *Memory) LoadData(data []insts.DataWord) {
	for _, d := range data {
		if m.InBounds(d.Addr) {
			m.words[d.Addr] = d.Value
		}
	}
}
