package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"
)

// byteRange is one contiguous slice of the file, fetched independently.
type byteRange struct {
	index int
	start int64
	end   int64 // inclusive
}

func (r byteRange) size() int64 { return r.end - r.start + 1 }

// splitRanges divides size bytes into n contiguous ranges; the last range
// absorbs the remainder.
func splitRanges(size int64, n int) []byteRange {
	if n < 1 {
		n = 1
	}
	if int64(n) > size {
		n = int(size)
	}
	per := size / int64(n)
	ranges := make([]byteRange, 0, n)
	for i := 0; i < n; i++ {
		start := int64(i) * per
		end := start + per - 1
		if i == n-1 {
			end = size - 1
		}
		ranges = append(ranges, byteRange{index: i, start: start, end: end})
	}
	return ranges
}

// fetchParts downloads req.Parts byte ranges concurrently into independent
// part files, then concatenates them in index order. Complete part files
// left by an earlier failed attempt are reused instead of re-fetched; a
// cancelled fetch removes every temporary artifact.
func (f *Fetcher) fetchParts(ctx context.Context, req Request, size int64) (Result, error) {
	ranges := splitRanges(size, req.Parts)

	partPath := func(i int) string {
		return fmt.Sprintf("%s.part%d", req.Dest, i)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, r := range ranges {
		path := partPath(r.index)
		if st, err := os.Stat(path); err == nil && st.Size() == r.size() {
			f.log.Debug("reusing complete part", "dest", req.Dest, "part", r.index)
			continue
		}
		r := r
		g.Go(func() error {
			return f.fetchPart(gctx, req, r, path)
		})
	}

	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			// Cancellation must leave no temporary artifacts behind.
			for _, r := range ranges {
				removeIfExists(partPath(r.index))
			}
			return Result{}, ctx.Err()
		}
		// Keep complete parts on plain failure so a later run can resume.
		return Result{}, fmt.Errorf("fetch %s: %w", req.URL, err)
	}

	res, err := f.assemble(req.Dest, ranges, partPath)
	if err != nil {
		return Result{}, err
	}
	for _, r := range ranges {
		removeIfExists(partPath(r.index))
	}
	return res, nil
}

// fetchPart downloads one byte range with its own bounded retry budget.
// Exceeding the budget fails the whole target.
func (f *Fetcher) fetchPart(ctx context.Context, req Request, r byteRange, path string) error {
	var lastErr error
	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		if attempt > 0 {
			f.log.Debug("retrying part", "url", req.URL, "part", r.index, "attempt", attempt)
			select {
			case <-time.After(Backoff(attempt-1, f.retryBase, f.retryMax)):
			case <-ctx.Done():
				removeIfExists(path)
				return ctx.Err()
			}
		}

		err := f.streamPart(ctx, req, r, path)
		if err == nil {
			return nil
		}
		// A failed attempt leaves a short part file; remove it so the
		// next attempt (or a future resume) never trusts a torn part.
		removeIfExists(path)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		lastErr = err
	}
	return fmt.Errorf("part %d: %w", r.index, lastErr)
}

func (f *Fetcher) streamPart(ctx context.Context, req Request, r byteRange, path string) error {
	rctx, cancel := context.WithTimeout(ctx, f.requestTimeout)
	defer cancel()

	hreq, err := http.NewRequestWithContext(rctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return err
	}
	copyHeader(hreq.Header, req.Header)
	hreq.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", r.start, r.end))

	resp, err := f.client.Do(hreq)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusPartialContent {
		return fmt.Errorf("%w: %s (want 206)", ErrBadStatus, resp.Status)
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create part file: %w", err)
	}
	n, err := io.Copy(out, resp.Body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("stream part: %w", err)
	}
	if n != r.size() {
		return fmt.Errorf("part %d short: got %d bytes, want %d", r.index, n, r.size())
	}
	return nil
}

// assemble concatenates part files strictly by index into a temp file,
// hashing while writing, then renames into place.
func (f *Fetcher) assemble(dest string, ranges []byteRange, partPath func(int) string) (Result, error) {
	tmp := dest + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return Result{}, fmt.Errorf("create assembly file: %w", err)
	}

	h := sha256.New()
	var total int64
	for _, r := range ranges {
		part, err := os.Open(partPath(r.index))
		if err == nil {
			var n int64
			n, err = io.Copy(io.MultiWriter(out, h), part)
			total += n
			_ = part.Close()
		}
		if err != nil {
			_ = out.Close()
			removeIfExists(tmp)
			return Result{}, fmt.Errorf("assemble part %d: %w", r.index, err)
		}
	}
	if err := out.Close(); err != nil {
		removeIfExists(tmp)
		return Result{}, fmt.Errorf("close assembly: %w", err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		removeIfExists(tmp)
		return Result{}, fmt.Errorf("finalize %s: %w", dest, err)
	}
	return Result{Path: dest, Bytes: total, Fingerprint: hex.EncodeToString(h.Sum(nil))}, nil
}
