package source

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"strings"
	"time"
)

// batchPageSize posts are yielded per Next call so large batch files still
// stream through the bounded work queue instead of loading at once.
const batchPageSize = 50

// BatchFile is the source adapter for line-delimited URL lists: each line
// is a direct file URL and becomes a single-file post.
type BatchFile struct {
	Path string
}

// NewBatchFile creates a batch-file source reading from path.
func NewBatchFile(path string) *BatchFile {
	return &BatchFile{Path: path}
}

// Enumerate opens the batch file and pages through its lines. Blank lines
// and #-comments are ignored.
func (b *BatchFile) Enumerate(ctx context.Context, ref string, auth Auth) (Iterator, error) {
	f, err := os.Open(b.Path)
	if err != nil {
		return nil, fmt.Errorf("open batch file: %w", err)
	}
	return &batchIterator{
		file:    f,
		scanner: bufio.NewScanner(f),
		site:    "batch",
		creator: strings.TrimSuffix(path.Base(b.Path), path.Ext(b.Path)),
	}, nil
}

// ExtractEmbedded harvests additional URLs from raw text the same way the
// batch lines themselves are interpreted.
func (b *BatchFile) ExtractEmbedded(rawBody string) []File {
	var files []File
	for _, u := range ExtractLinks(rawBody) {
		files = append(files, FileFromURL(u))
	}
	return files
}

type batchIterator struct {
	file    *os.File
	scanner *bufio.Scanner
	site    string
	creator string
	line    int
	done    bool
}

func (it *batchIterator) Next(ctx context.Context) ([]Post, error) {
	if it.done {
		return nil, io.EOF
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var posts []Post
	for len(posts) < batchPageSize && it.scanner.Scan() {
		it.line++
		raw := strings.TrimSpace(it.scanner.Text())
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		f := FileFromURL(raw)
		posts = append(posts, Post{
			Site:      it.site,
			Creator:   it.creator,
			ID:        fmt.Sprintf("line-%d", it.line),
			Title:     f.Name,
			Published: time.Now(),
			Files:     []File{f},
		})
	}

	if err := it.scanner.Err(); err != nil {
		it.close()
		return posts, fmt.Errorf("read batch file: %w", err)
	}
	if len(posts) == 0 {
		it.close()
		return nil, io.EOF
	}
	return posts, nil
}

func (it *batchIterator) close() {
	if !it.done {
		it.done = true
		_ = it.file.Close()
	}
}

// FileFromURL builds a File record from a bare URL, inferring the name
// from the last path segment and the kind from its extension.
func FileFromURL(raw string) File {
	name := raw
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		if base := path.Base(u.Path); base != "/" && base != "." {
			name = base
		}
	}
	return File{URL: raw, Name: name, Kind: KindOf(name)}
}
