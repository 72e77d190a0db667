package core

import (
	"log"

	"github.com/rs/xid"
	"github.com/sarchlab/akita/v4/sim"
)

// Hook positions a Pipeline can fire. Each matches one pipeline stage.
var (
	HookPosDecode     = &sim.HookPos{Name: "Decode"}
	HookPosIssue      = &sim.HookPos{Name: "Issue"}
	HookPosAllocateRS = &sim.HookPos{Name: "AllocateRS"}
	HookPosDispatch   = &sim.HookPos{Name: "Dispatch"}
	HookPosExecute    = &sim.HookPos{Name: "Execute"}
	HookPosRetire     = &sim.HookPos{Name: "Retire"}
	HookPosFlush      = &sim.HookPos{Name: "Flush"}
)

// TraceEvent is the Detail payload delivered to a hook at every
// pipeline-stage hook position.
type TraceEvent struct {
	Cycle uint64
	UID   string
	Addr  uint64
	Msg   string
}

// Statistics accumulates the counters a run must report:
// committed-instruction count, cycle count, derived IPC, flush count, and
// per-stage stall cycles.
type Statistics struct {
	Cycles              uint64
	Retired             uint64
	Flushes             uint64
	StallCyclesROBFull  uint64
	StallCyclesRSFull   uint64
	StallCyclesIQFull   uint64
	StallCyclesPRFEmpty uint64
	StallCyclesSBFull   uint64
}

// IPC returns retired instructions per cycle, or 0 before the first
// cycle has elapsed.
func (s *Statistics) IPC() float64 {
	if s.Cycles == 0 {
		return 0
	}
	return float64(s.Retired) / float64(s.Cycles)
}

// uidGenerator hands out a short correlation id to every instruction as
// it is fetched, so trace hooks across stages can be joined on a single
// field. xid is monotonic and allocation-free enough to call every
// cycle without perturbing timing.
type uidGenerator struct{}

func (uidGenerator) next() string { return xid.New().String() }

// DefaultLogHook is a minimal stdlib-backed sim.Hook that writes
// every TraceEvent it receives through a *log.Logger, in the same
// LogHookBase shape akita's sim package uses for engine-level hooks,
// adapted to this module's pipeline-stage hook positions.
type DefaultLogHook struct {
	*log.Logger
}

// Func implements sim.Hook.
func (h *DefaultLogHook) Func(ctx sim.HookCtx) {
	ev, ok := ctx.Detail.(TraceEvent)
	if !ok {
		return
	}
	h.Printf("[%s] cycle=%d uid=%s addr=%d %s", ctx.Pos.Name, ev.Cycle, ev.UID, ev.Addr, ev.Msg)
}
