// internal/config/validate.go
package config

import (
	"fmt"
	"os"

	"github.com/mediahoard/hoard/internal/dedup"
	"github.com/mediahoard/hoard/internal/filter"
	"github.com/mediahoard/hoard/internal/naming"
)

// Hard caps carried over from field experience with rate-limiting hosts.
const (
	MaxWorkers        = 200
	MaxMultipartParts = 15
)

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true, "": true,
}

var validSkipScopes = map[filter.SkipScope]bool{
	filter.SkipFiles: true, filter.SkipPosts: true, filter.SkipBoth: true,
}

var validCharScopes = map[filter.CharScope]bool{
	filter.CharTitle: true, filter.CharFiles: true,
	filter.CharBoth: true, filter.CharComments: true,
}

var validContent = map[filter.Content]bool{
	filter.ContentAll: true, filter.ContentImages: true,
	filter.ContentVideos: true, filter.ContentArchives: true,
	filter.ContentAudio: true, filter.ContentLinks: true,
}

var validOrganizations = map[Organization]bool{
	OrgFlat: true, OrgByName: true, OrgPerPost: true,
}

// Validate checks the configuration for errors.
// Returns a slice of error messages (empty if valid).
func (c *Config) Validate() []string {
	var errs []string

	if c.TargetDir == "" {
		errs = append(errs, "target_dir: required")
	} else if st, err := os.Stat(c.TargetDir); err == nil && !st.IsDir() {
		errs = append(errs, fmt.Sprintf("target_dir: %q is not a directory", c.TargetDir))
	}

	if len(c.Sources) == 0 && c.BatchFile == "" {
		errs = append(errs, "sources: at least one source URL or a batch_file is required")
	}
	if c.BatchFile != "" {
		if _, err := os.Stat(c.BatchFile); err != nil {
			errs = append(errs, fmt.Sprintf("batch_file: %q not readable", c.BatchFile))
		}
	}

	if c.Workers < 1 || c.Workers > MaxWorkers {
		errs = append(errs, fmt.Sprintf("workers: must be between 1 and %d, got %d", MaxWorkers, c.Workers))
	}
	if c.QueueSize < 1 {
		errs = append(errs, fmt.Sprintf("queue_size: must be positive, got %d", c.QueueSize))
	}
	if c.Multipart && (c.MultipartParts < 2 || c.MultipartParts > MaxMultipartParts) {
		errs = append(errs, fmt.Sprintf("multipart_parts: must be between 2 and %d, got %d", MaxMultipartParts, c.MultipartParts))
	}

	if !validSkipScopes[c.SkipScope] {
		errs = append(errs, fmt.Sprintf("skip_scope: must be one of files, posts, both; got %q", c.SkipScope))
	}
	if !validCharScopes[c.CharScope] {
		errs = append(errs, fmt.Sprintf("char_scope: must be one of title, files, both, comments; got %q", c.CharScope))
	}
	if !validContent[c.Content] {
		errs = append(errs, fmt.Sprintf("content: must be one of all, images, videos, archives, audio, links; got %q", c.Content))
	}
	if !validOrganizations[c.Organization] {
		errs = append(errs, fmt.Sprintf("organization: must be one of flat, by_name, per_post; got %q", c.Organization))
	}

	styleOK := false
	for _, s := range naming.ValidStyles {
		if c.RenameStyle == s {
			styleOK = true
			break
		}
	}
	if !styleOK {
		errs = append(errs, fmt.Sprintf("rename_style: unknown style %q", c.RenameStyle))
	}

	policyOK := false
	for _, p := range dedup.ValidPolicies {
		if c.Duplicates == p {
			policyOK = true
			break
		}
	}
	if !policyOK {
		errs = append(errs, fmt.Sprintf("duplicates: must be one of skip, keep_all, keep_n; got %q", c.Duplicates))
	}
	if c.Duplicates == dedup.PolicyKeepN && c.KeepN < 1 {
		errs = append(errs, fmt.Sprintf("keep_n: must be positive under keep_n policy, got %d", c.KeepN))
	}
	if c.DedupPersist && c.DedupCache == "" {
		errs = append(errs, "dedup_cache: required when dedup_persist is enabled")
	}

	if c.SnapshotEvery < 1 {
		errs = append(errs, fmt.Sprintf("snapshot_every: must be positive, got %d", c.SnapshotEvery))
	}
	if c.Retries < 0 {
		errs = append(errs, fmt.Sprintf("retries: must not be negative, got %d", c.Retries))
	}
	if !validLogLevels[c.LogLevel] {
		errs = append(errs, fmt.Sprintf("log_level: must be one of debug, info, warn, error; got %q", c.LogLevel))
	}

	return errs
}
