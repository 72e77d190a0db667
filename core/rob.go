package core

import "github.com/sarchlab/ooopipe/insts"

// ROBEntry is one reorder-buffer slot: everything needed to commit an
// in-flight instruction in program order, plus the snapshot needed to
// undo its rename if the pipeline flushes before it retires.
type ROBEntry struct {
	Valid   bool
	Addr    uint64
	Op      insts.Op
	HasDest bool
	ArchDest uint8
	OldState ArchRegState // ARF snapshot of ArchDest before this rename
	NewPhys  uint16

	IsStore bool
	HasSB   bool
	SBIndex uint16

	Branch *BranchRecord
	UID    string // correlation id from fetch, carried for tracing

	Done      bool
	Result    uint64
	HasResult bool

	Err error // ErrMemoryOutOfBounds or ErrDivideByZero, attached at execute/retire
}

// ReorderBuffer is the ring buffer of in-flight instructions in program
// order. Instructions are allocated at the tail (dispatch/rename) and
// retired from the head, enforcing in-order commit over out-of-order
// execution.
type ReorderBuffer struct {
	slots      []ROBEntry
	head, tail uint64 // monotonic counters, mod len(slots)
}

// NewReorderBuffer allocates a ROB of the given capacity.
func NewReorderBuffer(capacity int) *ReorderBuffer {
	return &ReorderBuffer{slots: make([]ROBEntry, capacity)}
}

// Capacity returns the ROB's slot count.
func (r *ReorderBuffer) Capacity() int { return len(r.slots) }

// Len returns the number of in-flight (allocated, not yet retired)
// entries.
func (r *ReorderBuffer) Len() int { return int(r.tail - r.head) }

// Full reports whether the ROB has no room for another entry.
func (r *ReorderBuffer) Full() bool { return r.Len() == len(r.slots) }

// Empty reports whether the ROB holds no in-flight entries.
func (r *ReorderBuffer) Empty() bool { return r.head == r.tail }

// Allocate appends e at the tail and returns its slot index.
func (r *ReorderBuffer) Allocate(e ROBEntry) uint16 {
	idx := r.tail % uint64(len(r.slots))
	e.Valid = true
	r.slots[idx] = e
	r.tail++
	return uint16(idx)
}

// Get returns a pointer to the entry at idx for in-place mutation
// (writeback marking a Done result).
func (r *ReorderBuffer) Get(idx uint16) *ROBEntry {
	return &r.slots[idx]
}

// Head returns the index and entry at the head of the ROB (the oldest
// in-flight instruction, the only one eligible to retire), or ok=false
// if the ROB is empty.
func (r *ReorderBuffer) Head() (idx uint16, entry *ROBEntry, ok bool) {
	if r.Empty() {
		return 0, nil, false
	}
	idx = uint16(r.head % uint64(len(r.slots)))
	return idx, &r.slots[idx], true
}

// RetireHead pops the head entry after it has committed.
func (r *ReorderBuffer) RetireHead() {
	idx := r.head % uint64(len(r.slots))
	r.slots[idx] = ROBEntry{}
	r.head++
}

// Indices returns the slot indices of every currently in-flight entry,
// oldest first. Used by flush to walk the speculative remainder.
func (r *ReorderBuffer) Indices() []uint16 {
	out := make([]uint16, 0, r.Len())
	for i := r.head; i < r.tail; i++ {
		out = append(out, uint16(i%uint64(len(r.slots))))
	}
	return out
}

// Flush drops every in-flight entry without retiring it. Called once
// the caller has already walked Indices() to undo renames and release
// resources.
func (r *ReorderBuffer) Flush() {
	for _, idx := range r.Indices() {
		r.slots[idx] = ROBEntry{}
	}
	r.tail = r.head
}
