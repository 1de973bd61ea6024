package dedup

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS fingerprints (
	fingerprint TEXT PRIMARY KEY,
	count       INTEGER NOT NULL,
	seen_at     TIMESTAMP NOT NULL
);`

// Store persists fingerprint occurrence counts across runs so dedup
// decisions survive restarts when cross-run persistence is enabled.
type Store struct {
	db *sql.DB
}

// OpenStore opens (creating if needed) the fingerprint cache at path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open dedup cache: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate dedup cache: %w", err)
	}
	return &Store{db: db}, nil
}

// Load returns all persisted occurrence counts.
func (s *Store) Load() (map[string]int, error) {
	rows, err := s.db.Query("SELECT fingerprint, count FROM fingerprints")
	if err != nil {
		return nil, fmt.Errorf("load fingerprints: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[string]int)
	for rows.Next() {
		var fp string
		var n int
		if err := rows.Scan(&fp, &n); err != nil {
			return nil, fmt.Errorf("scan fingerprint: %w", err)
		}
		counts[fp] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fingerprints: %w", err)
	}
	return counts, nil
}

// Record upserts the occurrence count for one fingerprint.
func (s *Store) Record(fp string, count int) error {
	_, err := s.db.Exec(`
		INSERT INTO fingerprints (fingerprint, count, seen_at) VALUES (?, ?, ?)
		ON CONFLICT(fingerprint) DO UPDATE SET count = excluded.count, seen_at = excluded.seen_at`,
		fp, count, time.Now())
	if err != nil {
		return fmt.Errorf("record fingerprint: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
