package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export failures or extracted links from the session snapshot",
	Long: `Export recorded state from the current session snapshot.

--failures writes one line per failure (post id, file URL, reason,
tab-separated). --urls writes just the failed file URLs, one per line,
ready to feed back in as a batch file. --links writes URLs collected
under only-links mode.

Examples:
  hoard export --failures
  hoard export --urls > retry.txt
  hoard export --links > found.txt`,
	Args: cobra.NoArgs,
	RunE: runExportCmd,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().String("session", "", "Override session snapshot path")
	exportCmd.Flags().Bool("failures", false, "Export failure records")
	exportCmd.Flags().Bool("urls", false, "Export failed file URLs only")
	exportCmd.Flags().Bool("links", false, "Export links found in only-links mode")
}

func runExportCmd(cmd *cobra.Command, args []string) error {
	failures, _ := cmd.Flags().GetBool("failures")
	urls, _ := cmd.Flags().GetBool("urls")
	links, _ := cmd.Flags().GetBool("links")
	if !failures && !urls && !links {
		return fmt.Errorf("nothing to export: pass --failures, --urls or --links")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if v, _ := cmd.Flags().GetString("session"); v != "" {
		cfg.SessionPath = v
	}
	st, err := loadSnapshot(cfg)
	if err != nil {
		return err
	}

	if failures {
		if err := st.ExportFailures(os.Stdout); err != nil {
			return err
		}
	}
	if urls {
		for _, u := range st.FailureURLs() {
			fmt.Println(u)
		}
	}
	if links {
		if err := st.ExportLinks(os.Stdout); err != nil {
			return err
		}
	}
	return nil
}
