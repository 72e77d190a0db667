package cmd

import (
	"fmt"

	"github.com/sarchlab/ooopipe/config"
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and validate CPU configuration files.",
}

var configDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print the default CPU configuration as YAML.",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := yaml.Marshal(config.Default())
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate <config.yaml>",
	Short: "Load a configuration file and report whether it is valid.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: valid\n", args[0])
		fmt.Fprintf(cmd.OutOrStdout(), "  rob_capacity=%d rs_count=%d eu_count=%d phys_reg_count=%d\n",
			cfg.ROBCapacity, cfg.RSCount, cfg.EUCount, cfg.PhysRegCount)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configDumpCmd)
	configCmd.AddCommand(configValidateCmd)
}
