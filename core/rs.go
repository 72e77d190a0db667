package core

import "github.com/sarchlab/ooopipe/insts"

// RSSourceOperand is one reservation-station source operand: either
// already resolved to a value, or still waiting on a physical register
// tag to be broadcast on the result bus.
type RSSourceOperand struct {
	Ready bool
	Tag   uint16 // physical register id; meaningful when !Ready
	Value uint64 // meaningful when Ready
}

// RSEntry is one reservation-station slot: a decoded instruction waiting
// for its source operands, tagged with the ROB entry it will complete
// into.
type RSEntry struct {
	Valid    bool
	Seq      uint64 // monotonic allocation order, for oldest-first issue selection
	Op       insts.Op
	Addr     uint64 // instruction's own program address (for BL's return address, error context)
	NumSrc   uint8
	Src      [insts.MaxSources]RSSourceOperand
	HasDest  bool
	Dest     uint16 // physical register id to publish the result into
	ROBIndex uint16
	IsStore  bool
	SBIndex  uint16
	HasSB    bool
	Branch   *BranchRecord // non-nil iff this entry is a branch
	UID      string // correlation id from fetch, carried for tracing
	// Dispatched marks an entry that has already been handed to an
	// execution unit and is only waiting here to be reclaimed.
	Dispatched bool
}

// Ready reports whether every source operand of e has arrived.
func (e *RSEntry) Ready() bool {
	for i := uint8(0); i < e.NumSrc; i++ {
		if !e.Src[i].Ready {
			return false
		}
	}
	return true
}

// ReservationStationTable is the fixed-size pool of reservation stations
// shared by every execution unit. Slots are allocated by index and freed
// explicitly; there is no ordering requirement among slots, only
// data-readiness.
type ReservationStationTable struct {
	slots []RSEntry
}

// NewReservationStationTable allocates an RS table of the given size.
func NewReservationStationTable(count int) *ReservationStationTable {
	return &ReservationStationTable{slots: make([]RSEntry, count)}
}

// Capacity returns the number of reservation-station slots.
func (t *ReservationStationTable) Capacity() int { return len(t.slots) }

// FreeSlot returns the index of an unused slot, or ok=false if the table
// is full.
func (t *ReservationStationTable) FreeSlot() (idx uint16, ok bool) {
	for i := range t.slots {
		if !t.slots[i].Valid {
			return uint16(i), true
		}
	}
	return 0, false
}

// FreeCount returns how many slots are currently unused.
func (t *ReservationStationTable) FreeCount() int {
	n := 0
	for i := range t.slots {
		if !t.slots[i].Valid {
			n++
		}
	}
	return n
}

// Allocate installs e into slot idx and marks it valid.
func (t *ReservationStationTable) Allocate(idx uint16, e RSEntry) {
	e.Valid = true
	t.slots[idx] = e
}

// Get returns a pointer to slot idx for in-place mutation (wakeup,
// dispatch marking).
func (t *ReservationStationTable) Get(idx uint16) *RSEntry {
	return &t.slots[idx]
}

// Release frees slot idx.
func (t *ReservationStationTable) Release(idx uint16) {
	t.slots[idx] = RSEntry{}
}

// ReleaseByROBIndices frees every valid slot whose ROBIndex appears in
// robIndices. Used by flush to reclaim reservation stations still
// waiting on operands for instructions that never made it to dispatch.
func (t *ReservationStationTable) ReleaseByROBIndices(robIndices []uint16) {
	set := make(map[uint16]bool, len(robIndices))
	for _, idx := range robIndices {
		set[idx] = true
	}
	for i := range t.slots {
		if t.slots[i].Valid && set[t.slots[i].ROBIndex] {
			t.slots[i] = RSEntry{}
		}
	}
}

// Wakeup broadcasts a produced value for tag across every valid,
// waiting slot, resolving any source operand that was tracking it. This
// is the common-data-bus fanout.
func (t *ReservationStationTable) Wakeup(tag uint16, value uint64) {
	for i := range t.slots {
		s := &t.slots[i]
		if !s.Valid {
			continue
		}
		for j := uint8(0); j < s.NumSrc; j++ {
			if !s.Src[j].Ready && s.Src[j].Tag == tag {
				s.Src[j].Ready = true
				s.Src[j].Value = value
			}
		}
	}
}

// ReadyIndices returns the indices of every valid, unissued, data-ready
// slot, oldest allocation order first (by Seq) — the pool that dispatch
// selects from.
func (t *ReservationStationTable) ReadyIndices() []uint16 {
	var out []uint16
	for i := range t.slots {
		s := &t.slots[i]
		if s.Valid && !s.Dispatched && s.Ready() {
			out = append(out, uint16(i))
		}
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && t.slots[out[j-1]].Seq > t.slots[out[j]].Seq; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
