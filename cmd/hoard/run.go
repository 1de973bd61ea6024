package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mediahoard/hoard/internal/config"
	"github.com/mediahoard/hoard/internal/events"
	"github.com/mediahoard/hoard/internal/run"
	"github.com/mediahoard/hoard/internal/session"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start a download session",
	Long: `Start a download session from the configured sources.

A session snapshot is written periodically and on interrupt, so a killed
run can be picked up later with 'hoard resume'. The first Ctrl-C cancels
cleanly (in-flight fetches unwind and temp files are removed); a second
Ctrl-C exits immediately.

Examples:
  hoard run
  hoard run --target ./downloads --workers 8
  hoard run --batch urls.txt`,
	Args: cobra.NoArgs,
	RunE: runRunCmd,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().String("target", "", "Override target directory")
	runCmd.Flags().StringSlice("url", nil, "Override source URLs")
	runCmd.Flags().String("batch", "", "Override batch file of URLs")
	runCmd.Flags().Int("workers", 0, "Override worker count")
	runCmd.Flags().Bool("quiet", false, "Suppress per-file progress output")
}

func runRunCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyRunFlags(cmd, cfg)

	logger := newLogger(cfg.LogLevel)
	r := run.New(*cfg, run.Deps{Logger: logger})

	quiet, _ := cmd.Flags().GetBool("quiet")
	return driveRun(r, quiet)
}

func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	if v, _ := cmd.Flags().GetString("target"); v != "" {
		cfg.TargetDir = v
	}
	if v, _ := cmd.Flags().GetStringSlice("url"); len(v) > 0 {
		cfg.Sources = v
	}
	if v, _ := cmd.Flags().GetString("batch"); v != "" {
		cfg.BatchFile = v
	}
	if v, _ := cmd.Flags().GetInt("workers"); v > 0 {
		cfg.Workers = v
	}
	if cfg.SessionPath == "" && cfg.TargetDir != "" {
		cfg.SessionPath = filepath.Join(cfg.TargetDir, ".hoard-session.json")
	}
}

// driveRun blocks on the runner while relaying events to the terminal and
// translating interrupt signals into a clean cancel.
func driveRun(r *run.Runner, quiet bool) error {
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "interrupt: cancelling run (Ctrl-C again to force quit)")
		if err := r.Cancel(); err != nil {
			stop()
		}
		<-sigCh
		os.Exit(130)
	}()

	eventsCh := r.Bus().Subscribe(256)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		printEvents(eventsCh, quiet)
	}()

	err := r.Start(ctx)
	r.Bus().Close()
	wg.Wait()

	var cfgErr *config.ConfigError
	if errors.As(err, &cfgErr) {
		for _, msg := range cfgErr.Errors {
			fmt.Fprintf(os.Stderr, "config: %s\n", msg)
		}
		return errors.New("invalid configuration")
	}
	if err != nil {
		return err
	}

	if st := r.State(); len(st.Failures) > 0 {
		fmt.Fprintf(os.Stderr, "%d failures recorded; inspect with 'hoard export --failures'\n", len(st.Failures))
	}
	return nil
}

func printEvents(ch <-chan events.Event, quiet bool) {
	for e := range ch {
		switch ev := e.(type) {
		case events.FileWritten:
			if !quiet {
				fmt.Printf("  %s (%s)\n", ev.Path, humanize.Bytes(uint64(ev.Bytes)))
			}
		case events.PostFailed:
			fmt.Fprintf(os.Stderr, "  post %s failed: %s\n", ev.PostID, ev.Reason)
		case events.LinkFound:
			fmt.Println(ev.URL)
		case events.Progress:
			if quiet {
				continue
			}
			total := "?"
			if ev.PostsTotal >= 0 {
				total = fmt.Sprintf("%d", ev.PostsTotal)
			}
			fmt.Printf("[%d/%s] %s written, %d failed\n",
				ev.PostsDone, total, humanize.Bytes(uint64(ev.BytesWritten)), ev.Failures)
		case events.RunFinished:
			verb := "completed"
			if ev.Cancelled {
				verb = "cancelled"
			}
			fmt.Printf("run %s: %d downloaded, %d skipped, %d failed\n",
				verb, ev.Downloaded, ev.Skipped, ev.Failed)
		}
	}
}

// sessionPathFor resolves the snapshot location the same way a run would,
// so resume and export agree with run on where state lives.
func sessionPathFor(cfg *config.Config) string {
	if cfg.SessionPath != "" {
		return cfg.SessionPath
	}
	return filepath.Join(cfg.TargetDir, ".hoard-session.json")
}

func loadSnapshot(cfg *config.Config) (*session.State, error) {
	path := sessionPathFor(cfg)
	st, err := session.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", path, err)
	}
	return st, nil
}
