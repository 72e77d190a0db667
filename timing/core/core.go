// Package core provides the cycle-accurate CPU core model. It wraps the
// out-of-order pipeline implementation to provide a high-level interface
// for callers that just want to load a program and run it to completion.
package core

import (
	"github.com/sarchlab/ooopipe/config"
	"github.com/sarchlab/ooopipe/core"
	"github.com/sarchlab/ooopipe/insts"
)

// Stats holds performance statistics for the core: cycle count, retired
// instruction count, derived IPC, misprediction count (one Flush per
// misprediction), and per-resource stall-cycle counts.
type Stats struct {
	Cycles              uint64
	Instructions        uint64
	Flushes             uint64
	IPC                 float64
	StallCyclesROBFull  uint64
	StallCyclesRSFull   uint64
	StallCyclesIQFull   uint64
	StallCyclesPRFEmpty uint64
	StallCyclesSBFull   uint64
}

// Core wraps an out-of-order Pipeline and exposes the lifecycle operations
// a driver (the CLI, a benchmark harness, an end-to-end test) needs without
// reaching into pipeline internals.
type Core struct {
	pipeline *core.Pipeline
	program  *insts.Program
	cfg      config.CPUConfig
	opts     []core.PipelineOption
}

// NewCore constructs a Core over program, sized and configured by cfg.
func NewCore(program *insts.Program, cfg config.CPUConfig, opts ...core.PipelineOption) (*Core, error) {
	p, err := core.NewPipeline(program, cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Core{pipeline: p, program: program, cfg: cfg, opts: opts}, nil
}

// Tick executes one pipeline cycle.
func (c *Core) Tick() error {
	return c.pipeline.Tick()
}

// Halted returns true once the core has fully drained: nothing left
// in-flight and nothing left to fetch.
func (c *Core) Halted() bool {
	return c.pipeline.Halted()
}

// Stats returns performance statistics for the core.
func (c *Core) Stats() Stats {
	s := c.pipeline.Stats()
	return Stats{
		Cycles:              s.Cycles,
		Instructions:        s.Retired,
		Flushes:             s.Flushes,
		IPC:                 s.IPC(),
		StallCyclesROBFull:  s.StallCyclesROBFull,
		StallCyclesRSFull:   s.StallCyclesRSFull,
		StallCyclesIQFull:   s.StallCyclesIQFull,
		StallCyclesPRFEmpty: s.StallCyclesPRFEmpty,
		StallCyclesSBFull:   s.StallCyclesSBFull,
	}
}

// Run executes the core until it halts or maxCycles is reached (maxCycles<=0
// means unbounded), returning the number of cycles actually run.
func (c *Core) Run(maxCycles int) (uint64, error) {
	return c.pipeline.Run(maxCycles)
}

// SnapshotInterval returns the number of simulated cycles corresponding to
// one stats_seconds wall-clock interval at the configured clock frequency,
// or 0 if either is unset.
func (c *Core) SnapshotInterval() uint64 {
	if c.cfg.FrequencyHz <= 0 || c.cfg.StatsSeconds <= 0 {
		return 0
	}
	return uint64(c.cfg.FrequencyHz * c.cfg.StatsSeconds)
}

// RunWithSnapshots runs the core the same way Run does, but calls
// onSnapshot with the accumulated Stats every SnapshotInterval simulated
// cycles, letting a driver print a periodic performance snapshot while
// the run is still in progress rather than only at the end.
func (c *Core) RunWithSnapshots(maxCycles int, onSnapshot func(Stats)) (uint64, error) {
	interval := c.SnapshotInterval()
	if interval == 0 || onSnapshot == nil {
		return c.Run(maxCycles)
	}

	start := c.pipeline.Cycle()
	next := interval
	for maxCycles <= 0 || int(c.pipeline.Cycle()-start) < maxCycles {
		if c.pipeline.Halted() {
			break
		}
		if err := c.pipeline.Tick(); err != nil {
			return c.pipeline.Cycle() - start, err
		}
		if elapsed := c.pipeline.Cycle() - start; elapsed >= next {
			onSnapshot(c.Stats())
			next = elapsed + interval
		}
	}
	return c.pipeline.Cycle() - start, nil
}

// Register reads the current value of an architectural register.
func (c *Core) Register(reg uint8) uint64 {
	return c.pipeline.Register(reg)
}

// Memory exposes the backing memory, for callers that need to inspect
// final state after a run.
func (c *Core) Memory() *core.Memory {
	return c.pipeline.Memory()
}

// Reset discards all in-flight state and rebuilds the pipeline from scratch
// over the same program and configuration, the way a fresh process image
// would start.
func (c *Core) Reset() error {
	p, err := core.NewPipeline(c.program, c.cfg, c.opts...)
	if err != nil {
		return err
	}
	c.pipeline = p
	return nil
}
