package run

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/mediahoard/hoard/internal/config"
	"github.com/mediahoard/hoard/internal/fetch"
	"github.com/mediahoard/hoard/internal/filter"
	"github.com/mediahoard/hoard/internal/naming"
	"github.com/mediahoard/hoard/internal/source"
)

// worker consumes posts from the queue until it closes, processing each
// post end-to-end: hydrate metadata, filter, fetch, verify, record.
func (r *Runner) worker(ctx context.Context, queue <-chan item, results chan<- postResult) {
	for it := range queue {
		res := r.processPost(ctx, it)
		select {
		case results <- res:
		case <-ctx.Done():
			return
		}
	}
}

// processPost turns one post into its terminal outcomes. Parallelism
// across posts comes from the pool; within a post, files are fetched one
// at a time in descriptor order (chunk parallelism lives in the fetcher).
func (r *Runner) processPost(ctx context.Context, it item) postResult {
	post := it.post
	res := postResult{key: post.Key()}

	// Metadata fetch failure fails the whole post, surfaced as a single
	// post-level outcome for retry tooling.
	if h, ok := it.src.(source.Hydrator); ok {
		hydrated, err := h.Hydrate(ctx, post)
		if err != nil {
			res.outcomes = append(res.outcomes, Outcome{
				PostID: post.Key(),
				Kind:   OutcomeFailed,
				Reason: fmt.Sprintf("metadata: %v", err),
			})
			return res
		}
		hydrated.Site, hydrated.Creator, hydrated.ID = post.Site, post.Creator, post.ID
		post = hydrated
	}

	if r.cfg.Content == filter.ContentLinks {
		res.outcomes = r.extractLinks(post)
		return res
	}

	rules := r.cfg.Rules()
	postDecision := filter.DecidePost(post, rules)
	if !postDecision.Keep {
		res.outcomes = append(res.outcomes, Outcome{
			PostID: post.Key(),
			Kind:   OutcomeFiltered,
			Reason: fmt.Sprintf("post-skipped: %s", postDecision.Reason),
		})
		return res
	}

	for i, f := range r.candidates(post, it.src) {
		outcome, fatal := r.processFile(ctx, it, post, f, i, postDecision.Folder, rules)
		res.outcomes = append(res.outcomes, outcome)
		if fatal != nil {
			res.fatal = fatal
			break
		}
	}
	return res
}

// candidates merges the declared file list with the secondary
// embedded-media scan, de-duplicated by URL before any filtering.
func (r *Runner) candidates(post source.Post, src source.Source) []source.File {
	files := append([]source.File(nil), post.Files...)
	if r.cfg.ScanContent && src != nil {
		files = append(files, src.ExtractEmbedded(post.Description)...)
	}

	seen := make(map[string]bool, len(files))
	merged := files[:0]
	for _, f := range files {
		if f.URL == "" || seen[f.URL] {
			continue
		}
		seen[f.URL] = true
		if f.Name == "" {
			f = source.FileFromURL(f.URL)
		}
		merged = append(merged, f)
	}
	return merged
}

// processFile carries one file target through its resolution states:
// Pending -> Fetching -> Verifying -> Written | Skipped | Failed.
// A non-nil fatal return means the destination root itself is unwritable
// and the whole run must stop.
func (r *Runner) processFile(ctx context.Context, it item, post source.Post, f source.File, index int, postFolder string, rules filter.Rules) (Outcome, error) {
	state := source.StatePending
	advance := func(to source.State) {
		if state.CanTransitionTo(to) {
			state = to
		} else {
			r.log.Warn("invalid target state transition", "from", state, "to", to, "url", f.URL)
		}
	}

	decision := filter.DecideFile(post, f, postFolder, rules)
	if !decision.Keep {
		advance(source.StateSkipped)
		return Outcome{PostID: post.Key(), URL: f.URL, Kind: OutcomeFiltered, Reason: string(decision.Reason)}, nil
	}

	dest := r.uniq.Claim(r.destination(post, f, it.seq, index, decision.Folder))

	parts := 1
	if r.cfg.Multipart {
		parts = r.cfg.MultipartParts
	}

	advance(source.StateFetching)
	result, err := r.fetcher.Fetch(ctx, fetch.Request{
		URL:          f.URL,
		Dest:         dest,
		DeclaredSize: f.DeclaredSize,
		Parts:        parts,
		MinSize:      r.cfg.MinFileSize,
		Header:       r.header(),
	})
	if err != nil {
		r.uniq.Release(dest)
		if errors.Is(err, fetch.ErrBelowMinSize) {
			advance(source.StateSkipped)
			return Outcome{PostID: post.Key(), URL: f.URL, Kind: OutcomeFiltered, Reason: string(filter.ReasonSize)}, nil
		}
		advance(source.StateFailed)
		outcome := Outcome{PostID: post.Key(), URL: f.URL, Kind: OutcomeFailed, Reason: err.Error()}
		if errors.Is(err, os.ErrPermission) {
			// The destination root itself rejects writes; escalate.
			return outcome, fmt.Errorf("%w: %v", ErrTargetUnwritable, err)
		}
		return outcome, nil
	}

	advance(source.StateVerifying)
	keep, _, derr := r.tracker.Commit(result.Fingerprint)
	if derr != nil {
		r.log.Warn("dedup cache write failed", "error", derr)
	}
	if !keep {
		if rmErr := os.Remove(result.Path); rmErr != nil {
			r.log.Warn("remove duplicate file", "path", result.Path, "error", rmErr)
		}
		r.uniq.Release(dest)
		advance(source.StateSkipped)
		return Outcome{
			PostID:      post.Key(),
			URL:         f.URL,
			Bytes:       result.Bytes,
			Fingerprint: result.Fingerprint,
			Kind:        OutcomeDuplicate,
			Reason:      "duplicate content",
		}, nil
	}

	advance(source.StateWritten)
	return Outcome{
		PostID:      post.Key(),
		URL:         f.URL,
		Path:        result.Path,
		Bytes:       result.Bytes,
		Fingerprint: result.Fingerprint,
		Kind:        OutcomeWritten,
	}, nil
}

// extractLinks implements only-links mode: external URLs become the
// outcome payload and nothing is downloaded.
func (r *Runner) extractLinks(post source.Post) []Outcome {
	var outcomes []Outcome
	for _, u := range source.ExtractLinks(post.Description + "\n" + post.Comments) {
		outcomes = append(outcomes, Outcome{PostID: post.Key(), URL: u, Kind: OutcomeLink})
	}
	return outcomes
}

// destination composes the final path under the target root for one file.
func (r *Runner) destination(post source.Post, f source.File, seq, index int, charFolder string) string {
	style := naming.StyleOriginal
	if r.cfg.MangaMode {
		style = r.cfg.RenameStyle
	}

	in := naming.RenameInput{
		Style:     style,
		Title:     post.Title,
		Published: post.Published,
		PostID:    post.ID,
		Sequence:  seq,
		FileIndex: index,
		Original:  f.Name,
	}

	var folder string
	switch r.cfg.Organization {
	case config.OrgFlat:
		in.DatePrefix = r.cfg.DatePrefix
	case config.OrgByName:
		folder = charFolder
		if folder == "" {
			folder = naming.CleanFolder(post.Creator)
		}
		in.DatePrefix = r.cfg.DatePrefix
	default: // per-post
		sub := naming.FolderFromTitle(post.Title)
		if r.cfg.DatePrefix != "" {
			sub = post.Published.Format(r.cfg.DatePrefix) + " " + sub
		}
		folder = filepath.Join(charFolder, sub)
	}

	return filepath.Join(r.cfg.TargetDir, folder, naming.Render(in))
}

func (r *Runner) header() http.Header {
	h := make(http.Header)
	if cookie := (source.Auth{Cookie: r.cfg.Cookie}).CookieHeader(); cookie != "" {
		h.Set("Cookie", cookie)
	}
	return h
}
