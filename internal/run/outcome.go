package run

// OutcomeKind classifies the terminal record of one file target (or of a
// whole post, for post-level failures and skips).
type OutcomeKind string

const (
	OutcomeWritten   OutcomeKind = "written"
	OutcomeDuplicate OutcomeKind = "duplicate-skipped"
	OutcomeFiltered  OutcomeKind = "filtered-skipped"
	OutcomeFailed    OutcomeKind = "failed"
	OutcomeLink      OutcomeKind = "link" // only-links mode payload
)

// Outcome is the terminal record per file target.
type Outcome struct {
	PostID      string
	URL         string // empty for post-level outcomes
	Path        string // final local path, empty unless written
	Bytes       int64
	Fingerprint string
	Kind        OutcomeKind
	Reason      string // failure or skip reason, if applicable
}

// postResult carries one worker's completed post back to the collector.
type postResult struct {
	key      string
	outcomes []Outcome
	fatal    error // non-nil aborts the whole run (unwritable destination)
}
