package naming

import (
	"fmt"
	"path/filepath"
	"time"
)

// Style selects how downloaded files are renamed.
type Style string

const (
	StyleOriginal      Style = "original"   // keep the source filename
	StylePostTitle     Style = "post_title" // post title + file index
	StyleDateBased     Style = "date"       // publish date + file index
	StyleDatePostTitle Style = "date_title" // publish date + post title
	StyleSequence      Style = "sequence"   // global ordinal assigned pre-dispatch
	StylePostID        Style = "post_id"    // post id + file index
)

// ValidStyles lists every accepted rename style.
var ValidStyles = []Style{
	StyleOriginal, StylePostTitle, StyleDateBased,
	StyleDatePostTitle, StyleSequence, StylePostID,
}

// RenameInput carries everything a rename style can draw on.
type RenameInput struct {
	Style      Style
	Title      string
	Published  time.Time
	PostID     string
	Sequence   int // ordinal assigned by the orchestrator before dispatch
	FileIndex  int // zero-based position within the post
	Original   string
	DatePrefix string // optional time layout prepended to every name
}

// Render produces the output filename for one file target. The original
// extension is always preserved.
func Render(in RenameInput) string {
	ext := filepath.Ext(in.Original)

	var base string
	switch in.Style {
	case StylePostTitle:
		base = fmt.Sprintf("%s_%d", in.Title, in.FileIndex+1)
	case StyleDateBased:
		base = fmt.Sprintf("%s_%d", in.Published.Format("2006-01-02"), in.FileIndex+1)
	case StyleDatePostTitle:
		base = fmt.Sprintf("%s %s_%d", in.Published.Format("2006-01-02"), in.Title, in.FileIndex+1)
	case StyleSequence:
		base = fmt.Sprintf("%03d_%d", in.Sequence, in.FileIndex+1)
	case StylePostID:
		base = fmt.Sprintf("%s_%d", in.PostID, in.FileIndex+1)
	default:
		name := in.Original
		if in.DatePrefix != "" {
			name = in.Published.Format(in.DatePrefix) + " " + name
		}
		return CleanFile(name)
	}

	if in.DatePrefix != "" {
		base = in.Published.Format(in.DatePrefix) + " " + base
	}
	return CleanFile(base + ext)
}
