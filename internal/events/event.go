// Package events delivers run progress to external collaborators (CLI,
// GUI, test harness) without coupling the orchestrator to any front end.
package events

import "time"

// Event is the base interface all events implement.
type Event interface {
	EventType() string
	OccurredAt() time.Time
}

// BaseEvent provides common fields for all events.
type BaseEvent struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"occurred_at"`
}

func (e BaseEvent) EventType() string     { return e.Type }
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }

// NewBaseEvent creates a BaseEvent with the current timestamp.
func NewBaseEvent(eventType string) BaseEvent {
	return BaseEvent{Type: eventType, Timestamp: time.Now()}
}

// Progress is emitted after every post completes.
// PostsTotal is -1 while the source enumeration is still unbounded.
type Progress struct {
	BaseEvent
	PostsDone    int   `json:"posts_done"`
	PostsTotal   int   `json:"posts_total"`
	BytesWritten int64 `json:"bytes_written"`
	Failures     int   `json:"failures"`
}

// NewProgress builds a progress event.
func NewProgress(done, total int, bytes int64, failures int) Progress {
	return Progress{
		BaseEvent:    NewBaseEvent("progress"),
		PostsDone:    done,
		PostsTotal:   total,
		BytesWritten: bytes,
		Failures:     failures,
	}
}

// FileWritten is emitted when a file target reaches its final path.
type FileWritten struct {
	BaseEvent
	PostID string `json:"post_id"`
	Path   string `json:"path"`
	Bytes  int64  `json:"bytes"`
}

// PostFailed is emitted for a post-level metadata failure, surfaced
// distinctly from per-file failures for retry tooling.
type PostFailed struct {
	BaseEvent
	PostID string `json:"post_id"`
	Reason string `json:"reason"`
}

// LinkFound is emitted under only-links mode for each extracted URL.
type LinkFound struct {
	BaseEvent
	PostID string `json:"post_id"`
	URL    string `json:"url"`
}

// RunFinished is the terminal event of a run.
type RunFinished struct {
	BaseEvent
	Downloaded int  `json:"downloaded"`
	Skipped    int  `json:"skipped"`
	Failed     int  `json:"failed"`
	Cancelled  bool `json:"cancelled"`
}
