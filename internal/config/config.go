// Package config handles TOML run-configuration loading and validation.
// A loaded Config is the immutable snapshot of all user choices for one
// session; the core never reads ambient environment state directly.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/mediahoard/hoard/internal/dedup"
	"github.com/mediahoard/hoard/internal/filter"
	"github.com/mediahoard/hoard/internal/naming"
)

// Organization selects how downloads are laid out under the target root.
type Organization string

const (
	OrgFlat    Organization = "flat"     // everything directly in the root
	OrgByName  Organization = "by_name"  // character/creator subfolders
	OrgPerPost Organization = "per_post" // one folder per post title
)

// Config is the root run configuration.
type Config struct {
	TargetDir string   `toml:"target_dir"`
	Sources   []string `toml:"sources"`    // creator/channel URLs
	BatchFile string   `toml:"batch_file"` // line-delimited URL list
	Cookie    string   `toml:"cookie"`     // opaque auth handle

	Workers   int `toml:"workers"`
	QueueSize int `toml:"queue_size"`

	Multipart      bool  `toml:"multipart"`
	MultipartParts int   `toml:"multipart_parts"`
	MinFileSize    int64 `toml:"min_file_size"` // bytes, 0 disables

	Content     filter.Content   `toml:"content"`
	SkipWords   []string         `toml:"skip_words"`
	SkipScope   filter.SkipScope `toml:"skip_scope"`
	Characters  []filter.Group   `toml:"characters"`
	CharScope   filter.CharScope `toml:"char_scope"`
	ScanContent bool             `toml:"scan_content"` // secondary embedded-media pass

	Organization Organization `toml:"organization"`
	DatePrefix   string       `toml:"date_prefix"` // time layout, empty disables
	MangaMode    bool         `toml:"manga_mode"`
	RenameStyle  naming.Style `toml:"rename_style"`

	Duplicates   dedup.Policy `toml:"duplicates"`
	KeepN        int          `toml:"keep_n"`
	DedupPersist bool         `toml:"dedup_persist"`
	DedupCache   string       `toml:"dedup_cache"` // sqlite path for cross-run dedup

	SessionPath   string `toml:"session_path"`
	SnapshotEvery int    `toml:"snapshot_every"` // posts between snapshots

	Retries        int           `toml:"retries"`
	RequestTimeout time.Duration `toml:"request_timeout"`
	LogLevel       string        `toml:"log_level"`
}

// Load reads a TOML config file over the defaults, substituting ${VAR}
// environment references first so credentials never need to live in the
// file. The result is not yet validated; callers run Validate before
// starting work.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	content, missing := substituteEnvVars(string(data))
	if len(missing) > 0 {
		errs := make([]string, 0, len(missing))
		for _, m := range missing {
			errs = append(errs, "unset environment variable "+m)
		}
		return nil, &ConfigError{Path: path, Errors: errs}
	}

	cfg := Default()
	if _, err := toml.Decode(content, cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	return cfg, nil
}

// Default returns a Config with every optional knob at its default.
func Default() *Config {
	return &Config{
		Workers:        4,
		QueueSize:      64,
		MultipartParts: 4,
		Content:        filter.ContentAll,
		SkipScope:      filter.SkipBoth,
		CharScope:      filter.CharBoth,
		Organization:   OrgPerPost,
		RenameStyle:    naming.StyleOriginal,
		Duplicates:     dedup.PolicySkip,
		KeepN:          1,
		SnapshotEvery:  10,
		Retries:        3,
		LogLevel:       "info",
	}
}

// SourceRefs returns every source reference for the run: explicit URLs
// plus the batch file when configured.
func (c *Config) SourceRefs() []string {
	refs := append([]string(nil), c.Sources...)
	if c.BatchFile != "" {
		refs = append(refs, c.BatchFile)
	}
	return refs
}

// SequencedRename reports whether the rename style requires stable
// ordinals, which forces the orchestrator to drain and sort the full
// enumeration before dispatch.
func (c *Config) SequencedRename() bool {
	return c.MangaMode &&
		(c.RenameStyle == naming.StyleSequence || c.RenameStyle == naming.StyleDateBased)
}

// Rules converts the filter-relevant fields into the engine's rule set.
func (c *Config) Rules() filter.Rules {
	return filter.Rules{
		SkipWords:  c.SkipWords,
		SkipScope:  c.SkipScope,
		Characters: c.Characters,
		CharScope:  c.CharScope,
		Content:    c.Content,
		MinSize:    c.MinFileSize,
	}
}
