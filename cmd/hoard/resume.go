package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mediahoard/hoard/internal/run"
	"github.com/mediahoard/hoard/internal/session"
)

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume an interrupted session",
	Long: `Resume a previously interrupted download session from its snapshot.

The restored run continues from the pending queue as persisted; posts
already processed are never re-fetched, and the source is not
re-enumerated.

Examples:
  hoard resume
  hoard resume --quiet`,
	Args: cobra.NoArgs,
	RunE: runResumeCmd,
}

func init() {
	rootCmd.AddCommand(resumeCmd)
	resumeCmd.Flags().String("session", "", "Override session snapshot path")
	resumeCmd.Flags().Bool("quiet", false, "Suppress per-file progress output")
}

func runResumeCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if v, _ := cmd.Flags().GetString("session"); v != "" {
		cfg.SessionPath = v
	}

	st, err := loadSnapshot(cfg)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return fmt.Errorf("nothing to resume: %w", err)
		}
		return err
	}

	fmt.Printf("resuming run %s: %d processed, %d pending, %d failures\n",
		st.RunID, len(st.Processed), len(st.Pending), len(st.Failures))

	logger := newLogger(st.Config.LogLevel)
	r := run.Restore(st, run.Deps{Logger: logger})

	quiet, _ := cmd.Flags().GetBool("quiet")
	return driveRun(r, quiet)
}
