package session

import (
	"fmt"
	"io"
)

// ExportFailures writes the failure list as flat, line-delimited text for
// external inspection and retry tooling: post id, file URL (when the
// failure is file-level) and reason, tab-separated.
func (s *State) ExportFailures(w io.Writer) error {
	for _, f := range s.Failures {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\n", f.PostID, f.FileURL, f.Reason); err != nil {
			return fmt.Errorf("export failures: %w", err)
		}
	}
	return nil
}

// FailureURLs returns the failed file URLs, one per failure, suitable for
// re-submission as a batch-file run limited to just the failed targets.
func (s *State) FailureURLs() []string {
	var urls []string
	for _, f := range s.Failures {
		if f.FileURL != "" {
			urls = append(urls, f.FileURL)
		}
	}
	return urls
}

// ExportLinks writes only-links extraction results one URL per line.
func (s *State) ExportLinks(w io.Writer) error {
	for _, u := range s.Links {
		if _, err := fmt.Fprintln(w, u); err != nil {
			return fmt.Errorf("export links: %w", err)
		}
	}
	return nil
}
