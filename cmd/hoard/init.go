package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mediahoard/hoard/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write an annotated default config file",
	Long: `Write an annotated default config file and exit.

The file goes to --config when given, otherwise to the standard
per-user location.

Examples:
  hoard init
  hoard init --config ./hoard.toml`,
	Args: cobra.NoArgs,
	RunE: runInitCmd,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().Bool("force", false, "Overwrite an existing config file")
}

func runInitCmd(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}

	force, _ := cmd.Flags().GetBool("force")
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	if err := config.WriteDefault(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}
