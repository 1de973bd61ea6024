package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fastFetcher returns a fetcher with near-zero retry delays so failure
// paths do not slow the suite down.
func fastFetcher(parts bool) *Fetcher {
	opts := Options{
		Logger:     testLogger(),
		MaxRetries: 2,
		RetryBase:  time.Millisecond,
		RetryMax:   5 * time.Millisecond,
	}
	if parts {
		opts.MultipartFloor = 1
	}
	return New(opts)
}

func sha(b []byte) string {
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}

func TestFetch_Single(t *testing.T) {
	body := []byte("the quick brown fox")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "out", "fox.txt")
	res, err := fastFetcher(false).Fetch(context.Background(), Request{URL: srv.URL, Dest: dest})
	require.NoError(t, err)

	assert.Equal(t, dest, res.Path)
	assert.Equal(t, int64(len(body)), res.Bytes)
	assert.Equal(t, sha(body), res.Fingerprint)

	written, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, body, written)

	_, err = os.Stat(dest + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file must not survive a successful fetch")
}

func TestFetch_SendsHeaders(t *testing.T) {
	var gotCookie atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCookie.Store(r.Header.Get("Cookie"))
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	h := make(http.Header)
	h.Set("Cookie", "session=abc")
	dest := filepath.Join(t.TempDir(), "f.txt")
	_, err := fastFetcher(false).Fetch(context.Background(), Request{URL: srv.URL, Dest: dest, Header: h})
	require.NoError(t, err)
	assert.Equal(t, "session=abc", gotCookie.Load())
}

func TestFetch_RetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	body := []byte("eventually fine")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "f.txt")
	res, err := fastFetcher(false).Fetch(context.Background(), Request{URL: srv.URL, Dest: dest})
	require.NoError(t, err)
	assert.Equal(t, sha(body), res.Fingerprint)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetch_RetryBudgetExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "f.txt")
	_, err := fastFetcher(false).Fetch(context.Background(), Request{URL: srv.URL, Dest: dest})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBadStatus)

	_, serr := os.Stat(dest)
	assert.True(t, os.IsNotExist(serr), "no destination file after a failed fetch")
	_, serr = os.Stat(dest + ".tmp")
	assert.True(t, os.IsNotExist(serr), "no temp file after a failed fetch")
}

func TestFetch_BelowMinSize_Declared(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "f.txt")
	_, err := fastFetcher(false).Fetch(context.Background(), Request{
		URL: srv.URL, Dest: dest, DeclaredSize: 10, MinSize: 100,
	})
	assert.ErrorIs(t, err, ErrBelowMinSize)
	assert.Equal(t, int32(0), calls.Load(), "declared-size skip must not touch the network")
}

func TestFetch_BelowMinSize_FromResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "5")
		_, _ = w.Write([]byte("tiny!"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "f.txt")
	_, err := fastFetcher(false).Fetch(context.Background(), Request{URL: srv.URL, Dest: dest, MinSize: 100})
	assert.ErrorIs(t, err, ErrBelowMinSize)

	_, serr := os.Stat(dest)
	assert.True(t, os.IsNotExist(serr))
}

func TestFetch_CancelledLeavesNothing(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1000000")
		_, _ = w.Write([]byte("partial"))
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	dest := filepath.Join(t.TempDir(), "f.bin")

	errCh := make(chan error, 1)
	go func() {
		_, err := fastFetcher(false).Fetch(ctx, Request{URL: srv.URL, Dest: dest})
		errCh <- err
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	err := <-errCh
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	_, serr := os.Stat(dest)
	assert.True(t, os.IsNotExist(serr), "no destination after cancel")
	_, serr = os.Stat(dest + ".tmp")
	assert.True(t, os.IsNotExist(serr), "no temp file after cancel")
}

func TestBackoff(t *testing.T) {
	base := 2 * time.Second
	max := time.Minute

	assert.Equal(t, 2*time.Second, Backoff(0, base, max))
	assert.Equal(t, 4*time.Second, Backoff(1, base, max))
	assert.Equal(t, 8*time.Second, Backoff(2, base, max))
	assert.Equal(t, time.Minute, Backoff(10, base, max), "capped at max")
	assert.Equal(t, time.Second, Backoff(0, 0, max), "zero base gets a default")
}
