package core

import "github.com/sarchlab/ooopipe/insts"

// DispatchStage moves data-ready reservation-station entries onto free
// execution units, oldest allocation order first. Dispatch is what frees
// a reservation station: once an entry's operand values are snapshotted
// into the execution unit, the RS slot is released immediately rather
// than held until the result is known.
type DispatchStage struct {
	width int
}

// NewDispatchStage constructs a dispatch stage issuing up to width
// entries to execution units per cycle.
func NewDispatchStage(width int) *DispatchStage { return &DispatchStage{width: width} }

// dispatchDeps bundles the tables DispatchStage reads and mutates.
type dispatchDeps struct {
	rs   *ReservationStationTable
	eu   *ExecutionUnits
	sb   *StoreBuffer
	stat *Statistics
}

// Run dispatches up to width ready reservation-station entries this
// cycle. An entry with nowhere to go (every execution unit busy) simply
// waits; it remains in ReadyIndices next cycle. It returns the
// correlation UID of the last entry dispatched this cycle, or "" if
// none were.
func (s *DispatchStage) Run(d dispatchDeps) string {
	ready := d.rs.ReadyIndices()
	dispatched := 0
	var lastUID string
	for _, rsIdx := range ready {
		if dispatched >= s.width {
			return lastUID
		}

		e := d.rs.Get(rsIdx)
		if e.Op == insts.OpLDR {
			addr := e.Src[0].Value
			if d.sb.HasUnresolvedHazard(addr, d.sb.OlderThan(e.Seq)) {
				continue
			}
		}

		euIdx, ok := d.eu.FreeSlot()
		if !ok {
			return lastUID
		}
		payload := ExecPayload{
			Op:       e.Op,
			Addr:     e.Addr,
			Seq:      e.Seq,
			NumSrc:   e.NumSrc,
			HasDest:  e.HasDest,
			Dest:     e.Dest,
			ROBIndex: e.ROBIndex,
			IsStore:  e.IsStore,
			HasSB:    e.HasSB,
			SBIndex:  e.SBIndex,
			Branch:   e.Branch,
			UID:      e.UID,
		}
		for i := uint8(0); i < e.NumSrc; i++ {
			payload.SrcVal[i] = e.Src[i].Value
		}

		d.eu.Dispatch(euIdx, payload, Latency(e.Op))
		d.rs.Release(rsIdx)
		dispatched++
		lastUID = e.UID
	}
	return lastUID
}
