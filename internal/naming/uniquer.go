package naming

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Uniquer reserves destination paths so no two workers ever write the same
// path concurrently. Claims are made before any write begins.
type Uniquer struct {
	mu    sync.Mutex
	taken map[string]int
}

// NewUniquer creates an empty path reservation table.
func NewUniquer() *Uniquer {
	return &Uniquer{taken: make(map[string]int)}
}

// Claim reserves path, returning it unchanged on first claim and a
// suffixed variant (name_1.ext, name_2.ext, ...) on repeats. A path that
// already exists on disk counts as taken: a restored run must never
// overwrite files an earlier run wrote.
func (u *Uniquer) Claim(path string) string {
	u.mu.Lock()
	defer u.mu.Unlock()

	n, ok := u.taken[path]
	u.taken[path] = n + 1
	if !ok && !onDisk(path) {
		return path
	}
	if n == 0 {
		n = 1
	}

	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	for {
		candidate := fmt.Sprintf("%s_%d%s", base, n, ext)
		if _, claimed := u.taken[candidate]; !claimed && !onDisk(candidate) {
			u.taken[candidate] = 1
			return candidate
		}
		n++
	}
}

func onDisk(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Release frees a reservation, used when a claimed target is later
// discarded (duplicate-skipped or failed) so the name can be reused.
func (u *Uniquer) Release(path string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if n, ok := u.taken[path]; ok && n > 1 {
		u.taken[path] = n - 1
	} else {
		delete(u.taken, path)
	}
}
