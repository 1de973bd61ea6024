package run

import (
	"context"

	"github.com/mediahoard/hoard/internal/events"
	"github.com/mediahoard/hoard/internal/session"
)

// coordinator is the single owner of session state during a run: it
// admits enumerated posts to the pending queue, dispatches work to the
// bounded worker queue, and applies every completion. No other goroutine
// mutates the state, so the processed-set and failure-list never see lost
// updates.
type coordinator struct {
	runner    *Runner
	enum      <-chan item // nil when enumeration was pre-drained
	queue     chan item
	results   chan postResult
	processed map[string]bool

	buf      []item
	enumDone bool
	inflight int
	fatal    error
}

// loop runs until every admitted post is processed or the run is
// cancelled. Dispatch honors the pause gate; completions are always
// applied, even while paused, so in-flight posts still land in the
// processed set.
func (c *coordinator) loop(ctx context.Context) error {
	defer close(c.queue)
	r := c.runner

	for {
		if c.enumDone && len(c.buf) == 0 && c.inflight == 0 {
			return c.fatal
		}

		var out chan item
		var next item
		if len(c.buf) > 0 && r.Phase() == PhaseRunning {
			out = c.queue
			next = c.buf[0]
		}

		select {
		case it, ok := <-c.enum:
			if !ok {
				c.enum = nil
				c.enumDone = true
				continue
			}
			c.admit(it)

		case res := <-c.results:
			c.inflight--
			c.apply(res)
			if res.fatal != nil && c.fatal == nil {
				c.fatal = res.fatal
				r.log.Error("run-fatal failure", "error", res.fatal)
				r.recordFatal(res.fatal)
			}

		case out <- next:
			c.buf = c.buf[1:]
			c.inflight++

		case <-r.wake:
			if r.Phase() == PhasePaused {
				r.snapshots.Persist(r.state)
			}

		case <-ctx.Done():
			// Cancelled: in-flight workers unwind on their own context.
			return c.fatal
		}
	}
}

// admit moves an enumerated post into pending unless it was already
// processed in a prior (restored) run. Every post key lives in exactly
// one of processed set, pending queue, or the in-flight window.
func (c *coordinator) admit(it item) {
	key := it.post.Key()
	if c.processed[key] {
		return
	}
	c.processed[key] = true // reserve; moved to state.Processed on completion
	c.runner.seq++
	it.seq = c.runner.seq
	c.runner.state.Pending = append(c.runner.state.Pending, it.post)
	c.runner.state.PendingSeq = append(c.runner.state.PendingSeq, it.seq)
	c.buf = append(c.buf, it)
}

// apply records one completed post: state moves from pending to
// processed, failures and links are appended, a snapshot is written when
// the batch is due, and a progress event is published.
func (c *coordinator) apply(res postResult) {
	r := c.runner
	st := r.state

	for i, p := range st.Pending {
		if p.Key() == res.key {
			st.Pending = append(st.Pending[:i], st.Pending[i+1:]...)
			if i < len(st.PendingSeq) {
				st.PendingSeq = append(st.PendingSeq[:i], st.PendingSeq[i+1:]...)
			}
			break
		}
	}
	st.Processed = append(st.Processed, res.key)

	for _, o := range res.outcomes {
		switch o.Kind {
		case OutcomeWritten:
			st.Downloaded++
			st.BytesWritten += o.Bytes
			r.bus.Publish(events.FileWritten{
				BaseEvent: events.NewBaseEvent("file_written"),
				PostID:    o.PostID,
				Path:      o.Path,
				Bytes:     o.Bytes,
			})
		case OutcomeDuplicate, OutcomeFiltered:
			st.Skipped++
		case OutcomeFailed:
			st.Failures = append(st.Failures, session.Failure{
				PostID:  o.PostID,
				FileURL: o.URL,
				Reason:  o.Reason,
			})
			if o.URL == "" {
				r.bus.Publish(events.PostFailed{
					BaseEvent: events.NewBaseEvent("post_failed"),
					PostID:    o.PostID,
					Reason:    o.Reason,
				})
			}
		case OutcomeLink:
			st.Links = append(st.Links, o.URL)
			r.bus.Publish(events.LinkFound{
				BaseEvent: events.NewBaseEvent("link_found"),
				PostID:    o.PostID,
				URL:       o.URL,
			})
		}
	}

	st.Seq++
	if r.cfg.DedupPersist {
		st.DedupCounts = r.tracker.Counts()
	}
	r.snapshots.MaybePersist(st)

	total := -1
	if c.enumDone {
		total = len(st.Processed) + len(c.buf) + c.inflight
	}
	r.bus.Publish(events.NewProgress(len(st.Processed), total, st.BytesWritten, len(st.Failures)))
}
