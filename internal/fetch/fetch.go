// Package fetch downloads one file target, optionally split into
// concurrent byte-range parts, with bounded retries and crash-safe writes.
// All bytes land in temporary paths; the final rename is the only visible
// mutation.
package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Sentinel errors for the fetch package.
var (
	// ErrBelowMinSize is returned when the discovered size is under the
	// configured threshold; the body is never streamed.
	ErrBelowMinSize = errors.New("file below minimum size")

	// ErrBadStatus is returned on a non-success HTTP response.
	ErrBadStatus = errors.New("unexpected http status")
)

// Options configures a Fetcher. Zero values get sane defaults.
type Options struct {
	Client         *http.Client
	Logger         *slog.Logger
	MaxRetries     int           // retry budget per target or part
	RetryBase      time.Duration // first retry delay
	RetryMax       time.Duration // backoff cap
	RequestTimeout time.Duration // hard per-request deadline, last-resort cancellation
	MultipartFloor int64         // smallest size worth splitting into parts
}

// Fetcher downloads file targets over HTTP.
type Fetcher struct {
	client         *http.Client
	log            *slog.Logger
	maxRetries     int
	retryBase      time.Duration
	retryMax       time.Duration
	requestTimeout time.Duration
	multipartFloor int64
}

// New creates a Fetcher.
func New(opts Options) *Fetcher {
	if opts.Client == nil {
		opts.Client = &http.Client{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.RetryBase <= 0 {
		opts.RetryBase = 2 * time.Second
	}
	if opts.RetryMax <= 0 {
		opts.RetryMax = time.Minute
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 2 * time.Hour
	}
	return &Fetcher{
		client:         opts.Client,
		log:            opts.Logger,
		maxRetries:     opts.MaxRetries,
		retryBase:      opts.RetryBase,
		retryMax:       opts.RetryMax,
		requestTimeout: opts.RequestTimeout,
		multipartFloor: opts.MultipartFloor,
	}
}

// RetryDelay returns the delay before retry attempt n (0-based) under the
// fetcher's backoff settings, for callers pacing their own retry loops.
func (f *Fetcher) RetryDelay(attempt int) time.Duration {
	return Backoff(attempt, f.retryBase, f.retryMax)
}

// Request describes one download.
type Request struct {
	URL          string
	Dest         string // final destination path; temp files live beside it
	DeclaredSize int64  // 0 = unknown
	Parts        int    // >1 requests a chunked fetch
	MinSize      int64  // 0 disables the minimum-size rule
	Header       http.Header
}

// Result is the terminal record of a successful fetch.
type Result struct {
	Path        string
	Bytes       int64
	Fingerprint string
}

// Fetch downloads req.URL to req.Dest. When the remote supports byte
// ranges and the size clears the multipart floor, the body is fetched as
// req.Parts concurrent ranges and reassembled strictly by index.
func (f *Fetcher) Fetch(ctx context.Context, req Request) (Result, error) {
	if err := os.MkdirAll(filepath.Dir(req.Dest), 0o755); err != nil {
		return Result{}, fmt.Errorf("create destination dir: %w", err)
	}

	size := req.DeclaredSize
	ranged := false
	if req.Parts > 1 {
		probedSize, ok, err := f.probe(ctx, req)
		if err == nil {
			ranged = ok
			if probedSize > 0 {
				size = probedSize
			}
		}
	}

	if req.MinSize > 0 && size > 0 && size < req.MinSize {
		return Result{}, fmt.Errorf("%w: %d < %d", ErrBelowMinSize, size, req.MinSize)
	}

	if req.Parts > 1 && ranged && size > 0 && size >= f.multipartFloor {
		return f.fetchParts(ctx, req, size)
	}
	return f.fetchSingle(ctx, req)
}

// probe asks the remote whether it serves byte ranges and how large the
// resource is.
func (f *Fetcher) probe(ctx context.Context, req Request) (int64, bool, error) {
	hctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	hreq, err := http.NewRequestWithContext(hctx, http.MethodHead, req.URL, nil)
	if err != nil {
		return 0, false, err
	}
	copyHeader(hreq.Header, req.Header)

	resp, err := f.client.Do(hreq)
	if err != nil {
		return 0, false, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, false, fmt.Errorf("%w: %s", ErrBadStatus, resp.Status)
	}
	ranged := resp.Header.Get("Accept-Ranges") == "bytes"
	return resp.ContentLength, ranged && resp.ContentLength > 0, nil
}

// fetchSingle streams the whole body in one request with bounded retries.
func (f *Fetcher) fetchSingle(ctx context.Context, req Request) (Result, error) {
	tmp := req.Dest + ".tmp"

	var lastErr error
	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		if attempt > 0 {
			f.log.Debug("retrying fetch", "url", req.URL, "attempt", attempt)
			select {
			case <-time.After(Backoff(attempt-1, f.retryBase, f.retryMax)):
			case <-ctx.Done():
				removeIfExists(tmp)
				return Result{}, ctx.Err()
			}
		}

		res, err := f.streamOnce(ctx, req, tmp)
		if err == nil {
			if err := os.Rename(tmp, req.Dest); err != nil {
				return Result{}, fmt.Errorf("finalize %s: %w", req.Dest, err)
			}
			res.Path = req.Dest
			return res, nil
		}
		removeIfExists(tmp)
		if errors.Is(err, ErrBelowMinSize) || ctx.Err() != nil {
			if ctx.Err() != nil {
				return Result{}, ctx.Err()
			}
			return Result{}, err
		}
		lastErr = err
	}
	return Result{}, fmt.Errorf("fetch %s: %w", req.URL, lastErr)
}

func (f *Fetcher) streamOnce(ctx context.Context, req Request, tmp string) (Result, error) {
	rctx, cancel := context.WithTimeout(ctx, f.requestTimeout)
	defer cancel()

	hreq, err := http.NewRequestWithContext(rctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return Result{}, err
	}
	copyHeader(hreq.Header, req.Header)

	resp, err := f.client.Do(hreq)
	if err != nil {
		return Result{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, fmt.Errorf("%w: %s", ErrBadStatus, resp.Status)
	}

	// The declared size may have been unknown; enforce the minimum-size
	// rule as soon as the response headers reveal the real size.
	if req.MinSize > 0 && resp.ContentLength > 0 && resp.ContentLength < req.MinSize {
		return Result{}, fmt.Errorf("%w: %d < %d", ErrBelowMinSize, resp.ContentLength, req.MinSize)
	}

	out, err := os.Create(tmp)
	if err != nil {
		return Result{}, fmt.Errorf("create temp file: %w", err)
	}

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(out, h), resp.Body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return Result{}, fmt.Errorf("stream body: %w", err)
	}
	return Result{Bytes: n, Fingerprint: hex.EncodeToString(h.Sum(nil))}, nil
}

func copyHeader(dst, src http.Header) {
	for k, vs := range src {
		for _, v := range vs {
			dst.Add(k, v)
		}
	}
}

func removeIfExists(path string) {
	if _, err := os.Stat(path); err == nil {
		_ = os.Remove(path)
	}
}
