package cmd

import (
	"fmt"

	"github.com/sarchlab/ooopipe/config"
	"github.com/sarchlab/ooopipe/insts"
	timingcore "github.com/sarchlab/ooopipe/timing/core"
	"github.com/sarchlab/ooopipe/loader"
	"github.com/spf13/cobra"
)

var (
	runConfigPath string
	runMaxCycles  int
	runVerbose    bool
)

var runCmd = &cobra.Command{
	Use:   "run <program.asm>",
	Short: "Assemble and run a program on the pipeline.",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runConfigPath, "config", "", "path to a YAML CPU configuration file")
	runCmd.Flags().IntVar(&runMaxCycles, "max-cycles", 0, "stop after this many cycles (0 = unbounded)")
	runCmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "print final register state and performance counters")
}

func runRun(cmd *cobra.Command, args []string) error {
	programPath := args[0]

	prog, err := loader.Load(programPath)
	if err != nil {
		return fmt.Errorf("loading program: %w", err)
	}

	cfg := config.Default()
	if runConfigPath != "" {
		cfg, err = config.Load(runConfigPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
	}

	c, err := timingcore.NewCore(prog, cfg)
	if err != nil {
		return fmt.Errorf("constructing pipeline: %w", err)
	}

	cycles, err := c.RunWithSnapshots(runMaxCycles, func(stats timingcore.Stats) {
		fmt.Fprintf(cmd.ErrOrStderr(), "snapshot: cycles=%d retired=%d ipc=%.3f flushes=%d stalls(rob=%d rs=%d iq=%d prf=%d sb=%d)\n",
			stats.Cycles, stats.Instructions, stats.IPC, stats.Flushes,
			stats.StallCyclesROBFull, stats.StallCyclesRSFull, stats.StallCyclesIQFull,
			stats.StallCyclesPRFEmpty, stats.StallCyclesSBFull)
	})
	if err != nil {
		return fmt.Errorf("running pipeline: %w", err)
	}

	if runVerbose {
		stats := c.Stats()
		fmt.Fprintf(cmd.OutOrStdout(), "\nProgram: %s\n", programPath)
		fmt.Fprintf(cmd.OutOrStdout(), "Cycles: %d\n", cycles)
		fmt.Fprintf(cmd.OutOrStdout(), "Retired: %d\n", stats.Instructions)
		fmt.Fprintf(cmd.OutOrStdout(), "Flushes: %d\n", stats.Flushes)
		fmt.Fprintf(cmd.OutOrStdout(), "IPC: %.3f\n", stats.IPC)
		for reg := uint8(0); reg < insts.RegFlags; reg++ {
			fmt.Fprintf(cmd.OutOrStdout(), "  r%d = %d\n", reg, c.Register(reg))
		}
	}

	return nil
}
