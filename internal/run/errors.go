package run

import "errors"

// Sentinel errors for the run package.
var (
	// ErrInvalidTransition is returned on a disallowed phase change.
	ErrInvalidTransition = errors.New("invalid phase transition")

	// ErrNotRunning is returned when pause/resume/cancel is called on a
	// runner that is not in a matching phase.
	ErrNotRunning = errors.New("run is not in a pausable state")

	// ErrTargetUnwritable aborts the whole run: the destination root
	// itself cannot be written.
	ErrTargetUnwritable = errors.New("target directory is not writable")

	// ErrSourceFailed is returned when the very first enumeration step
	// of the first source fails after exhausting retries.
	ErrSourceFailed = errors.New("source enumeration failed")
)
