package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the config file without starting a run",
	Args:  cobra.NoArgs,
	RunE:  runCheckCmd,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheckCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		for _, msg := range errs {
			fmt.Printf("  %s\n", msg)
		}
		return fmt.Errorf("%d problem(s) in %s", len(errs), configPath)
	}

	fmt.Printf("%s: ok (%d workers, target %s)\n", configPath, cfg.Workers, cfg.TargetDir)
	return nil
}
