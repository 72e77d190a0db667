package core

import (
	"io"
	"os"

	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/ooopipe/config"
	"github.com/sarchlab/ooopipe/insts"
)

// Pipeline is the complete out-of-order backend: frontend, rename,
// dispatch, execute, and retire wired together over the shared ARF,
// PRF, IQ, RS table, ROB, store buffer, execution units, and memory.
// It owns one Tick, called once per simulated cycle.
type Pipeline struct {
	sim.HookableBase

	cfg config.CPUConfig

	program *insts.Program
	mem     *Memory
	arf     *ArchRegFile
	prf     *PhysRegFile
	iq      *InstructionQueue
	rs      *ReservationStationTable
	rob     *ReorderBuffer
	sb      *StoreBuffer
	eu      *ExecutionUnits

	predictor *BranchPredictor
	frontend  *Frontend

	renameStage   *RenameStage
	dispatchStage *DispatchStage
	executeStage  *ExecuteStage
	retireStage   *RetireStage

	stat Statistics
	seq  uint64
	cycle uint64

	output io.Writer
}

// PipelineOption configures a Pipeline at construction time via the
// functional-options pattern.
type PipelineOption func(*Pipeline)

// WithOutput redirects PRINTR output from os.Stdout.
func WithOutput(w io.Writer) PipelineOption {
	return func(p *Pipeline) { p.output = w }
}

// WithHook registers a trace hook on the pipeline's hook positions
// (HookPosDecode, HookPosIssue, HookPosAllocateRS, HookPosDispatch,
// HookPosExecute, HookPosRetire, HookPosFlush).
func WithHook(h sim.Hook) PipelineOption {
	return func(p *Pipeline) { p.AcceptHook(h) }
}

// NewPipeline constructs a pipeline over program sized by cfg.
func NewPipeline(program *insts.Program, cfg config.CPUConfig, opts ...PipelineOption) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, &ErrConfigInvalid{Field: "config", Reason: err.Error()}
	}

	p := &Pipeline{
		cfg:     cfg,
		program: program,
		mem:     NewMemory(uint64(cfg.MemorySize)),
		arf:     NewArchRegFile(),
		prf:     NewPhysRegFile(cfg.PhysRegCount),
		iq:      NewInstructionQueue(cfg.InstrQueueCapacity),
		rs:      NewReservationStationTable(cfg.RSCount),
		rob:     NewReorderBuffer(cfg.ROBCapacity),
		sb:      NewStoreBuffer(cfg.SBCapacity),
		eu:      NewExecutionUnits(cfg.EUCount),
		output:  os.Stdout,
	}
	p.mem.LoadData(program.Data)
	p.arf.Seed(insts.RegSP, p.mem.Size())

	p.predictor = NewBranchPredictor()
	p.frontend = NewFrontend(program, p.predictor, p.arf, p.prf, cfg.FrontendNWide)
	p.renameStage = NewRenameStage(cfg.IssueNWide)
	p.dispatchStage = NewDispatchStage(cfg.DispatchNWide)
	p.executeStage = NewExecuteStage()

	for _, opt := range opts {
		opt(p)
	}
	p.retireStage = NewRetireStage(cfg.RetireNWide, p.output)

	return p, nil
}

// Tick advances the pipeline by one simulated cycle. Stages run in the
// reverse of their logical pipeline order — retire, dispatch, execute,
// rename/issue, fetch/decode, store-buffer commit — so that every stage
// reads only state latched by the previous cycle, without maintaining a
// second buffered copy of any table.
func (p *Pipeline) Tick() error {
	flushesBefore := p.stat.Flushes
	retiredBefore := p.stat.Retired

	retireUID, err := p.retireStage.Run(retireDeps{
		rob: p.rob, arf: p.arf, prf: p.prf, rs: p.rs, eu: p.eu, sb: p.sb,
		iq: p.iq, frontend: p.frontend, stat: &p.stat,
	})
	if err != nil {
		return err
	}
	if p.cfg.Trace.Retire && p.stat.Retired > retiredBefore && p.NumHooks() > 0 {
		p.InvokeHook(sim.HookCtx{Domain: p, Pos: HookPosRetire,
			Detail: TraceEvent{Cycle: p.cycle, UID: retireUID, Msg: "retired"}})
	}
	if p.cfg.Trace.PipelineFlush && p.stat.Flushes > flushesBefore && p.NumHooks() > 0 {
		p.InvokeHook(sim.HookCtx{Domain: p, Pos: HookPosFlush,
			Detail: TraceEvent{Cycle: p.cycle, UID: retireUID, Msg: "flush"}})
	}

	dispatchUID := p.dispatchStage.Run(dispatchDeps{rs: p.rs, eu: p.eu, sb: p.sb, stat: &p.stat})
	if p.cfg.Trace.Dispatch && p.NumHooks() > 0 {
		p.InvokeHook(sim.HookCtx{Domain: p, Pos: HookPosDispatch,
			Detail: TraceEvent{Cycle: p.cycle, UID: dispatchUID, Msg: "dispatch"}})
	}

	executeUID := p.executeStage.Run(executeDeps{eu: p.eu, rs: p.rs, prf: p.prf, rob: p.rob, sb: p.sb, mem: p.mem})
	if p.cfg.Trace.Execute && p.NumHooks() > 0 {
		p.InvokeHook(sim.HookCtx{Domain: p, Pos: HookPosExecute,
			Detail: TraceEvent{Cycle: p.cycle, UID: executeUID, Msg: "execute"}})
	}

	renameUID := p.renameStage.Run(renameDeps{
		iq: p.iq, rob: p.rob, rs: p.rs, sb: p.sb, prf: p.prf, arf: p.arf,
		stat: &p.stat, seq: &p.seq,
	})
	if p.cfg.Trace.Issue && p.NumHooks() > 0 {
		p.InvokeHook(sim.HookCtx{Domain: p, Pos: HookPosIssue,
			Detail: TraceEvent{Cycle: p.cycle, UID: renameUID, Msg: "issue"}})
	}
	if p.cfg.Trace.AllocateRS && p.NumHooks() > 0 {
		p.InvokeHook(sim.HookCtx{Domain: p, Pos: HookPosAllocateRS,
			Detail: TraceEvent{Cycle: p.cycle, UID: renameUID, Msg: "allocate_rs"}})
	}

	if !p.frontend.Halted() {
		fetchUID := p.frontend.Fetch(p.iq, &p.stat)
		if p.cfg.Trace.Decode && p.NumHooks() > 0 {
			p.InvokeHook(sim.HookCtx{Domain: p, Pos: HookPosDecode,
				Detail: TraceEvent{Cycle: p.cycle, UID: fetchUID, Addr: p.frontend.PC(), Msg: "fetch"}})
		}
	}

	DrainStoreBuffer(p.sb, p.mem, p.cfg.LFBCount)

	p.cycle++
	p.stat.Cycles = p.cycle
	return nil
}

// Halted reports whether the simulation has fully drained: the frontend
// has nothing left to fetch, every in-flight table is empty, and every
// store has reached memory.
func (p *Pipeline) Halted() bool {
	return p.frontend.Halted() &&
		p.iq.Empty() &&
		p.rob.Empty() &&
		p.storeBufferDrained()
}

func (p *Pipeline) storeBufferDrained() bool {
	for i := 0; i < p.sb.Capacity(); i++ {
		if p.sb.Get(uint16(i)).Valid {
			return false
		}
	}
	return true
}

// Run ticks the pipeline until it halts or maxCycles is reached
// (maxCycles<=0 means unbounded), returning the number of cycles run.
func (p *Pipeline) Run(maxCycles int) (uint64, error) {
	start := p.cycle
	for maxCycles <= 0 || int(p.cycle-start) < maxCycles {
		if p.Halted() {
			break
		}
		if err := p.Tick(); err != nil {
			return p.cycle - start, err
		}
	}
	return p.cycle - start, nil
}

// Stats returns a snapshot of the accumulated performance counters.
func (p *Pipeline) Stats() Statistics { return p.stat }

// Memory exposes the backing memory, for tests and the CLI's final-state
// dump.
func (p *Pipeline) Memory() *Memory { return p.mem }

// Register reads the current value of an architectural register,
// resolving any in-flight rename through the physical register file.
func (p *Pipeline) Register(reg uint8) uint64 { return p.arf.Read(reg, p.prf) }

// Cycle returns the number of cycles ticked so far.
func (p *Pipeline) Cycle() uint64 { return p.cycle }
