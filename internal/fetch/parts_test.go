package fetch

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rangeServer serves body with byte-range support and counts range hits.
func rangeServer(t *testing.T, body []byte, rangeHits *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Accept-Ranges", "bytes")

		if r.Method == http.MethodHead {
			w.Header().Set("Content-Length", strconv.Itoa(len(body)))
			return
		}

		rng := r.Header.Get("Range")
		if rng == "" {
			_, _ = w.Write(body)
			return
		}
		if rangeHits != nil {
			rangeHits.Add(1)
		}

		var start, end int
		_, err := fmt.Sscanf(strings.TrimPrefix(rng, "bytes="), "%d-%d", &start, &end)
		require.NoError(t, err, "malformed Range header %q", rng)
		require.Less(t, end, len(body), "range past EOF")

		w.Header().Set("Content-Length", strconv.Itoa(end-start+1))
		w.WriteHeader(http.StatusPartialContent)
		_, _ = w.Write(body[start : end+1])
	}))
}

func TestSplitRanges(t *testing.T) {
	ranges := splitRanges(100, 3)
	require.Len(t, ranges, 3)
	assert.Equal(t, byteRange{index: 0, start: 0, end: 32}, ranges[0])
	assert.Equal(t, byteRange{index: 1, start: 33, end: 65}, ranges[1])
	assert.Equal(t, byteRange{index: 2, start: 66, end: 99}, ranges[2], "last range absorbs the remainder")

	var total int64
	for _, r := range ranges {
		total += r.size()
	}
	assert.Equal(t, int64(100), total)
}

func TestSplitRanges_MorePartsThanBytes(t *testing.T) {
	ranges := splitRanges(2, 5)
	assert.Len(t, ranges, 2, "never more parts than bytes")
}

func TestFetch_Multipart(t *testing.T) {
	body := bytes.Repeat([]byte("0123456789"), 1000)
	var hits atomic.Int32
	srv := rangeServer(t, body, &hits)
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "big.bin")
	res, err := fastFetcher(true).Fetch(context.Background(), Request{
		URL: srv.URL, Dest: dest, Parts: 4,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(len(body)), res.Bytes)
	assert.Equal(t, sha(body), res.Fingerprint, "reassembled bytes must hash identically to the whole file")
	assert.Equal(t, int32(4), hits.Load())

	written, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, body, written)

	// No part or temp files survive success.
	leftovers, err := filepath.Glob(dest + ".*")
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestFetch_Multipart_ReusesCompleteParts(t *testing.T) {
	body := bytes.Repeat([]byte("abcdefgh"), 1000)
	var hits atomic.Int32
	srv := rangeServer(t, body, &hits)
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "big.bin")

	// Simulate a prior failed attempt that completed part 0.
	ranges := splitRanges(int64(len(body)), 4)
	part0 := fmt.Sprintf("%s.part%d", dest, 0)
	require.NoError(t, os.WriteFile(part0, body[ranges[0].start:ranges[0].end+1], 0644))

	res, err := fastFetcher(true).Fetch(context.Background(), Request{
		URL: srv.URL, Dest: dest, Parts: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, sha(body), res.Fingerprint)
	assert.Equal(t, int32(3), hits.Load(), "complete part must not be re-fetched")
}

func TestFetch_Multipart_TornPartIsRefetched(t *testing.T) {
	body := bytes.Repeat([]byte("abcdefgh"), 1000)
	var hits atomic.Int32
	srv := rangeServer(t, body, &hits)
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "big.bin")

	// A short (torn) part file from a crash must not be trusted.
	part0 := fmt.Sprintf("%s.part%d", dest, 0)
	require.NoError(t, os.WriteFile(part0, []byte("short"), 0644))

	res, err := fastFetcher(true).Fetch(context.Background(), Request{
		URL: srv.URL, Dest: dest, Parts: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, sha(body), res.Fingerprint)
	assert.Equal(t, int32(4), hits.Load())
}

func TestFetch_Multipart_FallsBackWithoutRanges(t *testing.T) {
	body := []byte("no ranges here")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// No Accept-Ranges header.
		if r.Method == http.MethodHead {
			w.Header().Set("Content-Length", strconv.Itoa(len(body)))
			return
		}
		require.Empty(t, r.Header.Get("Range"), "must not request ranges from a non-ranged server")
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "f.bin")
	res, err := fastFetcher(true).Fetch(context.Background(), Request{
		URL: srv.URL, Dest: dest, Parts: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, sha(body), res.Fingerprint)
}

func TestFetch_Multipart_BelowFloorUsesSingleRequest(t *testing.T) {
	body := bytes.Repeat([]byte("x"), 100)
	var hits atomic.Int32
	srv := rangeServer(t, body, &hits)
	defer srv.Close()

	f := New(Options{
		Logger:         testLogger(),
		MaxRetries:     1,
		MultipartFloor: 10 * 1024 * 1024,
	})

	dest := filepath.Join(t.TempDir(), "small.bin")
	res, err := f.Fetch(context.Background(), Request{URL: srv.URL, Dest: dest, Parts: 4})
	require.NoError(t, err)
	assert.Equal(t, sha(body), res.Fingerprint)
	assert.Equal(t, int32(0), hits.Load(), "small files are fetched in one request")
}

func TestFetch_Multipart_CancelRemovesParts(t *testing.T) {
	body := bytes.Repeat([]byte("y"), 100000)
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Accept-Ranges", "bytes")
		if r.Method == http.MethodHead {
			w.Header().Set("Content-Length", strconv.Itoa(len(body)))
			return
		}
		// Start streaming, then stall until the test cancels.
		w.WriteHeader(http.StatusPartialContent)
		_, _ = w.Write([]byte("partial"))
		if fl, ok := w.(http.Flusher); ok {
			fl.Flush()
		}
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	dir := t.TempDir()
	dest := filepath.Join(dir, "big.bin")

	errCh := make(chan error, 1)
	go func() {
		_, err := fastFetcher(true).Fetch(ctx, Request{URL: srv.URL, Dest: dest, Parts: 3})
		errCh <- err
	}()

	waitForFiles(t, dir)
	cancel()

	err := <-errCh
	assert.ErrorIs(t, err, context.Canceled)

	entries, rerr := os.ReadDir(dir)
	require.NoError(t, rerr)
	assert.Empty(t, entries, "cancellation must remove every part file")
}

// waitForFiles blocks until the fetcher has created at least one file,
// so the cancel lands mid-transfer.
func waitForFiles(t *testing.T, dir string) {
	t.Helper()
	deadline := make(chan struct{})
	go func() {
		for {
			entries, err := os.ReadDir(dir)
			if err == nil && len(entries) > 0 {
				close(deadline)
				return
			}
			time.Sleep(time.Millisecond)
		}
	}()
	<-deadline
}
