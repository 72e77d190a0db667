package core

import "github.com/sarchlab/ooopipe/insts"

// ArchRegState is the architectural register file's per-register state: a
// committed value, plus an optional rename pointer to the physical
// register holding the newest in-flight definition.
type ArchRegState struct {
	Renamed bool
	Phys    uint16
	Value   uint64
}

// ArchRegFile holds the rename pointer or committed value for every
// renamed architectural register, including the flags register
// (insts.RegFlags). PC is not modeled here; the frontend owns it.
type ArchRegFile struct {
	regs [insts.NumArchRegs]ArchRegState
}

// NewArchRegFile returns a fresh register file with every register
// unrenamed and zero-valued.
func NewArchRegFile() *ArchRegFile {
	return &ArchRegFile{}
}

// State returns the current rename/commit state of reg.
func (f *ArchRegFile) State(reg uint8) ArchRegState {
	return f.regs[reg]
}

// SetState overwrites the rename/commit state of reg. Used by rename (to
// install a new mapping) and by flush recovery (to restore a snapshot).
func (f *ArchRegFile) SetState(reg uint8, s ArchRegState) {
	f.regs[reg] = s
}

// Seed directly sets reg's committed value with no rename in effect.
// Used only at program load, before the pipeline starts ticking, to
// install the architectural initial state (e.g. SP).
func (f *ArchRegFile) Seed(reg uint8, value uint64) {
	f.regs[reg] = ArchRegState{Value: value}
}

// Read returns reg's current value: the committed Value directly if
// unrenamed, or the value held by its physical register if renamed.
// The caller must only call this when the physical register is known
// to be ready (true for every register by the time the pipeline has
// fully drained).
func (f *ArchRegFile) Read(reg uint8, prf *PhysRegFile) uint64 {
	st := f.regs[reg]
	if !st.Renamed {
		return st.Value
	}
	return prf.Value(st.Phys)
}
