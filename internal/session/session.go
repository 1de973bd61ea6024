// Package session persists run state so an interrupted run can be
// restored after a crash. Snapshots on disk are always complete,
// independently loadable files: every write goes to a temporary path and
// is swapped into place with a rename.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/mediahoard/hoard/internal/config"
	"github.com/mediahoard/hoard/internal/source"
)

// SchemaVersion marks the snapshot format. A snapshot with a different
// version is treated as not found, never as a fatal error.
const SchemaVersion = 1

// ErrNotFound is returned when no usable snapshot exists: missing file,
// corrupt JSON, or a schema version mismatch.
var ErrNotFound = errors.New("no usable session snapshot")

// Failure is one recorded download failure, re-submittable as a smaller
// follow-up run.
type Failure struct {
	PostID  string `json:"post_id"`
	FileURL string `json:"file_url,omitempty"` // empty for post-level failures
	Reason  string `json:"reason"`
}

// State is the single source of truth for crash recovery.
type State struct {
	Version int       `json:"version"`
	RunID   string    `json:"run_id"`
	SavedAt time.Time `json:"saved_at"`
	Seq     uint64    `json:"seq"` // monotonic, bumped on every mutation

	Config config.Config `json:"config"`

	// Processed holds post keys fully handled (success or failure).
	// Pending holds full descriptors for enumerated-but-unprocessed posts
	// so a restore never re-enumerates the source. PendingSeq carries the
	// ordinal assigned to each pending post, index-aligned with Pending,
	// so sequenced filenames stay stable across a restore.
	Processed  []string      `json:"processed"`
	Pending    []source.Post `json:"pending"`
	PendingSeq []int         `json:"pending_seq,omitempty"`
	Failures   []Failure     `json:"failures"`

	Downloaded   int   `json:"downloaded"`
	Skipped      int   `json:"skipped"`
	BytesWritten int64 `json:"bytes_written"`

	// DedupCounts is populated only when cross-run dedup persistence is
	// enabled, so restored runs do not re-save already counted files.
	DedupCounts map[string]int `json:"dedup_counts,omitempty"`

	// Links collects extracted URLs under only-links mode.
	Links []string `json:"links,omitempty"`
}

// New creates a fresh session state for one run configuration.
func New(cfg config.Config) *State {
	return &State{
		Version: SchemaVersion,
		RunID:   uuid.NewString(),
		Config:  cfg,
	}
}

// Save writes the snapshot atomically: marshal to a temporary file beside
// the target, then rename into place so a reader never observes a torn
// snapshot.
func (s *State) Save(path string) error {
	s.SavedAt = time.Now()
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write session temp: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("swap session snapshot: %w", err)
	}
	return nil
}

// Load reads a snapshot from path. Any unusable snapshot maps to
// ErrNotFound so callers fall back to a fresh start.
func Load(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("%w: corrupt snapshot: %v", ErrNotFound, err)
	}
	if st.Version != SchemaVersion {
		return nil, fmt.Errorf("%w: schema version %d, want %d", ErrNotFound, st.Version, SchemaVersion)
	}
	return &st, nil
}

// Discard removes the snapshot. Missing files are not an error.
func Discard(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("discard session: %w", err)
	}
	return nil
}
