package session

import (
	"log/slog"
)

// Manager owns the snapshot cadence: a snapshot is written every N
// processed posts, on every pause and cancel, and best-effort on exit
// signals. Snapshot I/O failures are logged and never fatal; the run
// simply continues with degraded crash-recovery guarantees.
type Manager struct {
	path  string
	every int
	log   *slog.Logger

	sincePersist int
	degraded     bool
}

// NewManager creates a snapshot manager writing to path every `every`
// processed posts.
func NewManager(path string, every int, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	if every < 1 {
		every = 1
	}
	return &Manager{path: path, every: every, log: log}
}

// Path returns the snapshot location.
func (m *Manager) Path() string { return m.path }

// MaybePersist writes a snapshot when the processed-post batch is due.
func (m *Manager) MaybePersist(st *State) {
	m.sincePersist++
	if m.sincePersist >= m.every {
		m.Persist(st)
	}
}

// Persist writes a snapshot now. Errors degrade, they never abort.
func (m *Manager) Persist(st *State) {
	m.sincePersist = 0
	if m.path == "" {
		return
	}
	if err := st.Save(m.path); err != nil {
		if !m.degraded {
			m.degraded = true
			m.log.Error("session snapshot failed; continuing in-memory only", "path", m.path, "error", err)
		} else {
			m.log.Debug("session snapshot failed", "path", m.path, "error", err)
		}
		return
	}
	m.degraded = false
	m.log.Debug("session snapshot written", "path", m.path, "seq", st.Seq)
}

// Discard removes the snapshot after a clean completion.
func (m *Manager) Discard() {
	if m.path == "" {
		return
	}
	if err := Discard(m.path); err != nil {
		m.log.Warn("discard session snapshot", "path", m.path, "error", err)
	}
}
