// Package source defines post descriptors and the adapter interface that
// turns a source reference (creator URL, channel URL, batch file) into a
// lazy stream of downloadable posts.
package source

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// File is one candidate download inside a post. Immutable once produced.
type File struct {
	URL          string `json:"url"`
	Name         string `json:"name"`
	DeclaredSize int64  `json:"declared_size,omitempty"` // 0 = unknown
	Kind         Kind   `json:"kind"`
}

// Post is the unit of remote content: metadata plus an ordered list of
// candidate files. Produced by a Source adapter; immutable once produced.
type Post struct {
	Site        string    `json:"site"`
	Creator     string    `json:"creator"`
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Published   time.Time `json:"published"`
	Files       []File    `json:"files"`
	Description string    `json:"description,omitempty"`
	Comments    string    `json:"comments,omitempty"`
}

// Key returns the globally unique post identifier (site + creator + id).
func (p Post) Key() string {
	return fmt.Sprintf("%s/%s/%s", p.Site, p.Creator, p.ID)
}

// Auth is the opaque credential handle passed through to adapters and the
// fetcher. The core never inspects it beyond building request headers.
type Auth struct {
	Cookie string
}

// CookieHeader renders the cookie handle as a Cookie header value.
// Accepts the browser-tools "name=value; name2=value2" form and drops
// malformed segments.
func (a Auth) CookieHeader() string {
	if a.Cookie == "" {
		return ""
	}
	var pairs []string
	for _, item := range strings.Split(a.Cookie, ";") {
		name, value, ok := strings.Cut(item, "=")
		name = strings.TrimSpace(name)
		if ok && name != "" {
			pairs = append(pairs, name+"="+strings.TrimSpace(value))
		}
	}
	return strings.Join(pairs, "; ")
}

// Iterator pages through an enumeration. Next returns io.EOF when the
// sequence is exhausted. Enumerations are restartable only from the
// beginning, never mid-sequence.
type Iterator interface {
	Next(ctx context.Context) ([]Post, error)
}

// Hydrator is implemented by sources whose enumeration yields stubs that
// need a per-post metadata fetch before file targets are known. A hydrate
// failure (gone, forbidden) fails the whole post, not individual files.
type Hydrator interface {
	Hydrate(ctx context.Context, p Post) (Post, error)
}

// Source is the capability interface every site adapter implements.
type Source interface {
	// Enumerate starts a lazy, possibly unbounded enumeration of posts
	// for the given reference. An error here means the very first
	// enumeration step failed.
	Enumerate(ctx context.Context, ref string, auth Auth) (Iterator, error)

	// ExtractEmbedded scans a post's raw HTML/text body for additional
	// file targets not declared in the API file list.
	ExtractEmbedded(rawBody string) []File
}
