// Package run owns the download run lifecycle: it enumerates posts from
// source adapters, feeds a bounded worker pool, serializes all session
// state mutation through a single collector, and exposes pause, resume,
// cancel and restore as explicit phase transitions callable from any
// front end.
package run

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mediahoard/hoard/internal/config"
	"github.com/mediahoard/hoard/internal/dedup"
	"github.com/mediahoard/hoard/internal/events"
	"github.com/mediahoard/hoard/internal/fetch"
	"github.com/mediahoard/hoard/internal/naming"
	"github.com/mediahoard/hoard/internal/session"
	"github.com/mediahoard/hoard/internal/source"
)

// item is one unit of dispatched work. The ordinal is assigned before
// dispatch so sequenced renames stay stable regardless of completion
// order. src may be nil on restored runs; workers then use declared file
// lists only.
type item struct {
	post source.Post
	seq  int
	src  source.Source
}

// Deps bundles the runner's collaborators. Zero fields get defaults.
type Deps struct {
	Source  source.Source // fixed adapter; nil resolves per reference
	Fetcher *fetch.Fetcher
	Bus     *events.Bus
	Logger  *slog.Logger
}

// Runner orchestrates one download run.
type Runner struct {
	cfg     config.Config
	src     source.Source
	fetcher *fetch.Fetcher
	bus     *events.Bus
	log     *slog.Logger

	tracker   *dedup.Tracker
	uniq      *naming.Uniquer
	snapshots *session.Manager

	mu     sync.Mutex
	phase  Phase
	wake   chan struct{}
	cancel context.CancelFunc
	fatal  error

	state    *session.State
	restored bool
	seq      int
}

// New creates a runner for a fresh session.
func New(cfg config.Config, deps Deps) *Runner {
	return newRunner(session.New(cfg), false, deps)
}

// Restore reconstructs a runner from a persisted snapshot. The run resumes
// directly from the snapshot's pending queue; already-processed posts are
// never re-enumerated or re-fetched.
func Restore(st *session.State, deps Deps) *Runner {
	return newRunner(st, true, deps)
}

func newRunner(st *session.State, restored bool, deps Deps) *Runner {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	bus := deps.Bus
	if bus == nil {
		bus = events.NewBus(log)
	}
	cfg := st.Config
	fetcher := deps.Fetcher
	if fetcher == nil {
		fetcher = fetch.New(fetch.Options{
			Logger:         log.With("component", "fetch"),
			MaxRetries:     cfg.Retries,
			RequestTimeout: cfg.RequestTimeout,
		})
	}
	return &Runner{
		cfg:       cfg,
		src:       deps.Source,
		fetcher:   fetcher,
		bus:       bus,
		log:       log.With("component", "run"),
		uniq:      naming.NewUniquer(),
		snapshots: session.NewManager(cfg.SessionPath, cfg.SnapshotEvery, log.With("component", "session")),
		phase:     PhaseIdle,
		wake:      make(chan struct{}, 1),
		state:     st,
		restored:  restored,
	}
}

// Phase returns the current lifecycle phase.
func (r *Runner) Phase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// State exposes the session state. Safe to read once Start has returned.
func (r *Runner) State() *session.State { return r.state }

// Bus returns the event bus progress consumers subscribe to.
func (r *Runner) Bus() *events.Bus { return r.bus }

func (r *Runner) transition(to Phase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.phase.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.phase, to)
	}
	r.phase = to
	return nil
}

// recordFatal notes a run-fatal failure and cancels in-flight work. The
// error is kept on the runner itself because the cancellation races other
// goroutines into the errgroup's first-error slot.
func (r *Runner) recordFatal(err error) {
	r.mu.Lock()
	if r.fatal == nil {
		r.fatal = err
	}
	cancel := r.cancel
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// kick wakes the collector so it re-evaluates the pause gate.
func (r *Runner) kick() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Pause stops dispatching new posts; in-flight posts finish. A snapshot is
// written as soon as the collector observes the pause.
func (r *Runner) Pause() error {
	if err := r.transition(PhasePaused); err != nil {
		return fmt.Errorf("%w: %v", ErrNotRunning, err)
	}
	r.kick()
	return nil
}

// Resume restarts dispatch from the pending queue.
func (r *Runner) Resume() error {
	if err := r.transition(PhaseRunning); err != nil {
		return fmt.Errorf("%w: %v", ErrNotRunning, err)
	}
	r.kick()
	return nil
}

// Cancel stops dispatch and propagates cancellation to in-flight fetches,
// which remove their temporary files. The session snapshot is finalized
// but not deleted, so the run stays restorable.
func (r *Runner) Cancel() error {
	if err := r.transition(PhaseCancelled); err != nil {
		return err
	}
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	r.kick()
	return nil
}

// Start validates the configuration and runs the session to completion.
// It blocks until the run completes, fails, or is cancelled; Pause,
// Resume and Cancel may be called concurrently from other goroutines.
func (r *Runner) Start(ctx context.Context) error {
	if errs := r.cfg.Validate(); len(errs) > 0 {
		return &config.ConfigError{Errors: errs}
	}
	if err := probeTarget(r.cfg.TargetDir); err != nil {
		return err
	}
	if err := r.transition(PhaseRunning); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	r.mu.Lock()
	r.cancel = cancel
	r.mu.Unlock()

	if err := r.setupDedup(); err != nil {
		// Cache trouble degrades to run-scoped dedup, never fatal.
		r.log.Error("dedup cache unavailable, falling back to run-scoped dedup", "error", err)
	}

	err := r.execute(ctx)
	return r.finalize(err)
}

func (r *Runner) setupDedup() error {
	var store *dedup.Store
	var persisted map[string]int
	var err error

	if r.cfg.DedupPersist {
		store, err = dedup.OpenStore(r.cfg.DedupCache)
		if err == nil {
			persisted, err = store.Load()
			if err != nil {
				_ = store.Close()
				store = nil
			}
		}
	}

	r.tracker = dedup.NewTracker(r.cfg.Duplicates, r.cfg.KeepN, store)
	if persisted != nil {
		r.tracker.Restore(persisted)
	}
	if r.restored && len(r.state.DedupCounts) > 0 {
		r.tracker.Restore(r.state.DedupCounts)
	}
	return err
}

func (r *Runner) execute(ctx context.Context) error {
	processed := make(map[string]bool, len(r.state.Processed))
	for _, k := range r.state.Processed {
		processed[k] = true
	}

	co := &coordinator{
		runner:    r,
		queue:     make(chan item, r.cfg.QueueSize),
		results:   make(chan postResult),
		processed: processed,
	}

	g, gctx := errgroup.WithContext(ctx)

	switch {
	case r.restored:
		// Reuse the ordinals assigned before the crash; a fresh numbering
		// would rename resumed posts over files the first run wrote.
		for i, p := range r.state.Pending {
			seq := 0
			if i < len(r.state.PendingSeq) {
				seq = r.state.PendingSeq[i]
			}
			if seq == 0 {
				r.seq++
				seq = r.seq
			} else if seq > r.seq {
				r.seq = seq
			}
			co.buf = append(co.buf, item{post: p, seq: seq, src: r.src})
		}
		co.enumDone = true
	case r.cfg.SequencedRename():
		// Sequenced renames need stable ordinals: drain and sort the
		// full enumeration before dispatching anything.
		all, err := r.drainAll(gctx, processed)
		if err != nil {
			return err
		}
		sort.SliceStable(all, func(i, j int) bool {
			return all[i].post.Published.Before(all[j].post.Published)
		})
		for i := range all {
			r.seq++
			all[i].seq = r.seq
			r.state.Pending = append(r.state.Pending, all[i].post)
			r.state.PendingSeq = append(r.state.PendingSeq, r.seq)
		}
		co.buf = all
		co.enumDone = true
		r.snapshots.Persist(r.state)
	default:
		enumCh := make(chan item)
		co.enum = enumCh
		g.Go(func() error {
			defer close(enumCh)
			return r.enumerate(gctx, func(p source.Post, src source.Source) error {
				select {
				case enumCh <- item{post: p, src: src}:
					return nil
				case <-gctx.Done():
					return gctx.Err()
				}
			})
		})
	}

	for i := 0; i < r.cfg.Workers; i++ {
		g.Go(func() error {
			r.worker(gctx, co.queue, co.results)
			return nil
		})
	}

	g.Go(func() error {
		return co.loop(gctx)
	})

	return g.Wait()
}

// finalize settles the terminal phase, writes or discards the last
// snapshot, and emits RunFinished.
func (r *Runner) finalize(runErr error) error {
	r.mu.Lock()
	fatal := r.fatal
	r.mu.Unlock()
	if fatal != nil && (runErr == nil || errors.Is(runErr, context.Canceled)) {
		// A run-fatal failure cancels in-flight work; the resulting
		// context error must not masquerade as a user cancel.
		runErr = fatal
	}

	if r.tracker != nil {
		if err := r.tracker.Close(); err != nil {
			r.log.Warn("close dedup cache", "error", err)
		}
	}

	cancelled := false
	switch {
	case r.Phase() == PhaseCancelled:
		cancelled = true
		r.snapshots.Persist(r.state)
	case runErr != nil && errors.Is(runErr, context.Canceled):
		// Parent context died without an explicit Cancel call.
		cancelled = true
		r.mu.Lock()
		r.phase = PhaseCancelled
		r.mu.Unlock()
		r.snapshots.Persist(r.state)
	case runErr != nil:
		_ = r.transition(PhaseFailed)
		r.snapshots.Persist(r.state)
	default:
		_ = r.transition(PhaseCompleted)
		r.snapshots.Discard()
	}

	fin := events.RunFinished{
		BaseEvent:  events.NewBaseEvent("run_finished"),
		Downloaded: r.state.Downloaded,
		Skipped:    r.state.Skipped,
		Failed:     len(r.state.Failures),
		Cancelled:  cancelled,
	}
	r.bus.Publish(fin)
	r.log.Info("run finished",
		"downloaded", fin.Downloaded,
		"skipped", fin.Skipped,
		"failed", fin.Failed,
		"cancelled", cancelled,
	)
	if cancelled {
		return nil
	}
	return runErr
}

// enumerate walks every configured source reference, retrying transient
// mid-stream errors with capped backoff. A failure at the very first
// enumeration step fails the run; later failures are recorded as gaps.
func (r *Runner) enumerate(ctx context.Context, emit func(source.Post, source.Source) error) error {
	auth := source.Auth{Cookie: r.cfg.Cookie}
	first := true

	for _, ref := range r.cfg.SourceRefs() {
		src := r.src
		if src == nil {
			resolved, err := source.Resolve(ref)
			if err != nil {
				if first {
					return fmt.Errorf("%w: %v", ErrSourceFailed, err)
				}
				r.log.Warn("enumeration gap: unresolvable source skipped", "ref", ref, "error", err)
				continue
			}
			src = resolved
		}

		it, err := r.openIterator(ctx, src, ref, auth)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if first {
				return fmt.Errorf("%w: %v", ErrSourceFailed, err)
			}
			r.log.Warn("enumeration gap: source skipped", "ref", ref, "error", err)
			continue
		}
		first = false

		retries := 0
		for {
			batch, err := it.Next(ctx)
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				retries++
				if retries > r.cfg.Retries {
					r.log.Warn("enumeration gap: giving up on source mid-stream", "ref", ref, "error", err)
					break
				}
				select {
				case <-time.After(r.fetcher.RetryDelay(retries - 1)):
				case <-ctx.Done():
					return ctx.Err()
				}
				continue
			}
			retries = 0
			for _, p := range batch {
				if err := emit(p, src); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// openIterator starts enumerating one source reference, retrying a failed
// initial listing with capped backoff before giving up. A listing that
// would succeed a moment later should not sink the run.
func (r *Runner) openIterator(ctx context.Context, src source.Source, ref string, auth source.Auth) (source.Iterator, error) {
	for attempt := 0; ; attempt++ {
		it, err := src.Enumerate(ctx, ref, auth)
		if err == nil {
			return it, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if attempt >= r.cfg.Retries {
			return nil, err
		}
		r.log.Warn("enumeration failed, retrying", "ref", ref, "attempt", attempt+1, "error", err)
		select {
		case <-time.After(r.fetcher.RetryDelay(attempt)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// drainAll collects the entire enumeration up front (manga mode).
func (r *Runner) drainAll(ctx context.Context, processed map[string]bool) ([]item, error) {
	var all []item
	err := r.enumerate(ctx, func(p source.Post, src source.Source) error {
		if !processed[p.Key()] {
			all = append(all, item{post: p, src: src})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return all, nil
}

// probeTarget verifies the destination root is writable before any work
// starts; an unwritable root is a run-fatal configuration problem.
func probeTarget(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrTargetUnwritable, err)
	}
	probe := filepath.Join(dir, ".hoard-probe")
	if err := os.WriteFile(probe, nil, 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrTargetUnwritable, err)
	}
	_ = os.Remove(probe)
	return nil
}
