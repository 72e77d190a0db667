// Package config loads and validates the CPU configuration that sizes
// every structure in the pipeline backend: a load-validate-default
// pattern backed by YAML.
package config

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"
)

// TraceFlags gates per-stage trace output independently.
type TraceFlags struct {
	Decode        bool `yaml:"decode"`
	Issue         bool `yaml:"issue"`
	AllocateRS    bool `yaml:"allocate_rs"`
	Dispatch      bool `yaml:"dispatch"`
	Execute       bool `yaml:"execute"`
	Retire        bool `yaml:"retire"`
	PipelineFlush bool `yaml:"pipeline_flush"`
}

// CPUConfig sizes every arena in the pipeline backend.
type CPUConfig struct {
	PhysRegCount       int     `yaml:"phys_reg_count"`
	FrontendNWide      int     `yaml:"frontend_n_wide"`
	InstrQueueCapacity int     `yaml:"instr_queue_capacity"`
	FrequencyHz        float64 `yaml:"frequency_hz"`
	RSCount            int     `yaml:"rs_count"`
	MemorySize         int     `yaml:"memory_size"`
	SBCapacity         int     `yaml:"sb_capacity"`
	LFBCount           int     `yaml:"lfb_count"`
	ROBCapacity        int     `yaml:"rob_capacity"`
	EUCount            int     `yaml:"eu_count"`
	RetireNWide        int     `yaml:"retire_n_wide"`
	DispatchNWide      int     `yaml:"dispatch_n_wide"`
	IssueNWide         int     `yaml:"issue_n_wide"`
	StatsSeconds       float64 `yaml:"stats_seconds"`
	Trace              TraceFlags `yaml:"trace"`
}

// Default returns the baseline machine configuration: modest widths, a
// 128-word memory, and tracing off.
func Default() CPUConfig {
	return CPUConfig{
		PhysRegCount:       64,
		FrontendNWide:      2,
		InstrQueueCapacity: 16,
		FrequencyHz:        1_000_000,
		RSCount:            16,
		MemorySize:         128,
		SBCapacity:         8,
		LFBCount:           2,
		ROBCapacity:        32,
		EUCount:            4,
		RetireNWide:        2,
		DispatchNWide:      2,
		IssueNWide:         2,
		StatsSeconds:       1,
	}
}

// Load reads and validates a YAML configuration file, starting from
// Default() so an incomplete file only overrides the fields it sets.
func Load(path string) (CPUConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return CPUConfig{}, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return CPUConfig{}, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return CPUConfig{}, err
	}
	return cfg, nil
}

// Save writes cfg to path as YAML.
func Save(path string, cfg CPUConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Clone returns a deep copy of cfg. CPUConfig has no reference fields,
// so an ordinary value copy already suffices; Clone exists to make that
// intent explicit at call sites that mutate a derived configuration.
func (c CPUConfig) Clone() CPUConfig { return c }

// Validate reports the first structural problem found, wrapped in
// *core.ErrConfigInvalid's shape without importing core (config must
// stay below core in the dependency graph).
func (c CPUConfig) Validate() error {
	checks := []struct {
		field string
		ok    bool
		why   string
	}{
		{"phys_reg_count", c.PhysRegCount > 0, "must be positive"},
		{"frontend_n_wide", c.FrontendNWide > 0, "must be positive"},
		{"instr_queue_capacity", c.InstrQueueCapacity > 0, "must be positive"},
		{"frequency_hz", c.FrequencyHz > 0, "must be positive"},
		{"rs_count", c.RSCount > 0, "must be positive"},
		{"memory_size", c.MemorySize > 0, "must be positive"},
		{"sb_capacity", c.SBCapacity > 0, "must be positive"},
		{"lfb_count", c.LFBCount > 0, "must be positive"},
		{"rob_capacity", c.ROBCapacity > 0, "must be positive"},
		{"eu_count", c.EUCount > 0, "must be positive"},
		{"retire_n_wide", c.RetireNWide > 0, "must be positive"},
		{"dispatch_n_wide", c.DispatchNWide > 0, "must be positive"},
		{"issue_n_wide", c.IssueNWide > 0, "must be positive"},
		{"phys_reg_count >= 33", c.PhysRegCount >= 33, "must be large enough to rename every architectural register at least once"},
	}
	for _, c := range checks {
		if !c.ok {
			return &ValidationError{Field: c.field, Reason: c.why}
		}
	}
	return nil
}

// ValidationError reports a single invalid configuration field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config invalid: %s: %s", e.Field, e.Reason)
}
