package core

// SBEntry is one store-buffer slot: a resolved address and value waiting
// to become visible to memory, gated on its owning instruction retiring
// in order.
type SBEntry struct {
	Valid   bool
	Seq     uint64 // allocation order, for locating stores older than a given load
	Addr    uint64
	HasAddr bool
	Value   uint64
	HasValue bool
	// CommitEligible is set once the owning instruction retires; only
	// then may the line feed buffer drain this entry to memory.
	CommitEligible bool
}

// StoreBuffer holds in-flight and retired-but-undrained stores. Capacity
// is sb_capacity; drain rate to memory is bounded by lfb_count line fill
// buffers per cycle.
type StoreBuffer struct {
	slots []SBEntry
}

// NewStoreBuffer allocates a store buffer of the given capacity.
func NewStoreBuffer(capacity int) *StoreBuffer {
	return &StoreBuffer{slots: make([]SBEntry, capacity)}
}

// Capacity returns the store buffer's slot count.
func (b *StoreBuffer) Capacity() int { return len(b.slots) }

// FreeSlot returns an unused slot index, or ok=false if full.
func (b *StoreBuffer) FreeSlot() (idx uint16, ok bool) {
	for i := range b.slots {
		if !b.slots[i].Valid {
			return uint16(i), true
		}
	}
	return 0, false
}

// Allocate reserves slot idx for a store whose address/value are not
// yet known (rename time).
func (b *StoreBuffer) Allocate(idx uint16, seq uint64) {
	b.slots[idx] = SBEntry{Valid: true, Seq: seq}
}

// OlderThan returns the indices of every valid entry with Seq less than
// seq, newest first — the candidate set passed to Forward for a load
// with allocation order seq.
func (b *StoreBuffer) OlderThan(seq uint64) []uint16 {
	var out []uint16
	for i := range b.slots {
		if b.slots[i].Valid && b.slots[i].Seq < seq {
			out = append(out, uint16(i))
		}
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && b.slots[out[j-1]].Seq < b.slots[out[j]].Seq; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// SetAddr records the resolved store address once the address operand
// is ready.
func (b *StoreBuffer) SetAddr(idx uint16, addr uint64) {
	b.slots[idx].Addr = addr
	b.slots[idx].HasAddr = true
}

// SetValue records the resolved store value once the value operand is
// ready.
func (b *StoreBuffer) SetValue(idx uint16, value uint64) {
	b.slots[idx].Value = value
	b.slots[idx].HasValue = true
}

// Get returns a pointer to slot idx.
func (b *StoreBuffer) Get(idx uint16) *SBEntry { return &b.slots[idx] }

// MarkCommitEligible flags slot idx as safe to drain: its owning store
// has retired.
func (b *StoreBuffer) MarkCommitEligible(idx uint16) {
	b.slots[idx].CommitEligible = true
}

// Invalidate drops slot idx without draining it. Called on flush for
// stores belonging to the discarded speculative remainder; never called
// on a CommitEligible entry, since those belong to already-retired
// stores.
func (b *StoreBuffer) Invalidate(idx uint16) {
	b.slots[idx] = SBEntry{}
}

// ForwardResult reports the outcome of a store-buffer forwarding probe.
type ForwardResult struct {
	// Matched is true iff an older store to the same address exists.
	Matched bool
	// Ready is meaningful only when Matched: true means Value already
	// holds the forwarded data, false means the load must wait for that
	// store's value to resolve before it can proceed.
	Ready bool
	Value uint64
}

// Forward looks for the newest store to addr among olderIndices, which
// the caller must supply newest-first (most recently allocated store
// first), returning whether a match exists and whether its value is
// already available for store-to-load forwarding.
func (b *StoreBuffer) Forward(addr uint64, olderIndices []uint16) ForwardResult {
	for _, idx := range olderIndices {
		e := &b.slots[idx]
		if e.Valid && e.HasAddr && e.Addr == addr {
			if e.HasValue {
				return ForwardResult{Matched: true, Ready: true, Value: e.Value}
			}
			return ForwardResult{Matched: true, Ready: false}
		}
	}
	return ForwardResult{}
}

// HasUnresolvedHazard reports whether any store older than seq could
// still alias addr but has not yet resolved enough to forward or be
// ruled out: either its address is unknown, or its address matches addr
// but its value is unknown. DispatchStage uses this to hold a load back
// rather than let it race an older, not-yet-resolved store.
func (b *StoreBuffer) HasUnresolvedHazard(addr uint64, olderIndices []uint16) bool {
	for _, idx := range olderIndices {
		e := &b.slots[idx]
		if !e.Valid {
			continue
		}
		if !e.HasAddr {
			return true
		}
		if e.Addr == addr && !e.HasValue {
			return true
		}
	}
	return false
}

// DrainOne writes slot idx's value to memory and frees the slot. The
// caller must have already checked CommitEligible and InBounds.
func (b *StoreBuffer) DrainOne(idx uint16, mem *Memory) {
	e := &b.slots[idx]
	mem.Store(e.Addr, e.Value)
	b.slots[idx] = SBEntry{}
}
