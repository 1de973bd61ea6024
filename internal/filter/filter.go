// Package filter decides, without any I/O, whether a post or file target
// is kept and which subfolder it lands in.
package filter

import (
	"strings"

	"github.com/mediahoard/hoard/internal/source"
)

// SkipScope controls what skip words are matched against.
type SkipScope string

const (
	SkipFiles SkipScope = "files" // each filename independently
	SkipPosts SkipScope = "posts" // post title only
	SkipBoth  SkipScope = "both"  // title first, then each filename
)

// CharScope controls where character/name filters look for a match.
type CharScope string

const (
	CharTitle    CharScope = "title"
	CharFiles    CharScope = "files"
	CharBoth     CharScope = "both"     // title, then filename
	CharComments CharScope = "comments" // filename, then comments
)

// Content restricts which file kinds are downloaded.
type Content string

const (
	ContentAll      Content = "all"
	ContentImages   Content = "images"
	ContentVideos   Content = "videos"
	ContentArchives Content = "archives"
	ContentAudio    Content = "audio"
	ContentLinks    Content = "links" // extract external URLs, download nothing
)

// SkipReason explains why a target was not kept.
type SkipReason string

const (
	ReasonKeyword   SkipReason = "keyword"
	ReasonCharacter SkipReason = "character"
	ReasonKind      SkipReason = "content-kind"
	ReasonSize      SkipReason = "below-min-size"
)

// Group is one character/name filter entry: aliases collapse to a single
// canonical folder name.
type Group struct {
	Name    string   `toml:"name" json:"name"`
	Aliases []string `toml:"aliases" json:"aliases"`
}

// Rules is the active filter rule set, fixed for the duration of a run.
type Rules struct {
	SkipWords  []string
	SkipScope  SkipScope
	Characters []Group
	CharScope  CharScope
	Content    Content
	MinSize    int64 // bytes; 0 disables the size rule
}

// Decision is the outcome of a filter evaluation.
type Decision struct {
	Keep   bool
	Reason SkipReason
	Folder string // canonical character folder, empty when none matched
}

var keep = Decision{Keep: true}

func skip(reason SkipReason) Decision {
	return Decision{Reason: reason}
}

// DecidePost evaluates post-scope rules. A skip here means the entire post
// is dropped and file-level rules are never evaluated. A kept decision may
// carry the destination subfolder when a character matched the title.
func DecidePost(p source.Post, r Rules) Decision {
	if r.SkipScope == SkipPosts || r.SkipScope == SkipBoth {
		if matchesWord(p.Title, r.SkipWords) {
			return skip(ReasonKeyword)
		}
	}

	if len(r.Characters) == 0 {
		return keep
	}
	switch r.CharScope {
	case CharTitle:
		if folder, ok := matchGroups(p.Title, r.Characters); ok {
			return Decision{Keep: true, Folder: folder}
		}
		return skip(ReasonCharacter)
	case CharBoth:
		if folder, ok := matchGroups(p.Title, r.Characters); ok {
			return Decision{Keep: true, Folder: folder}
		}
		// Title missed; defer the decision to each file.
		return keep
	default:
		// CharFiles and CharComments are file-scope checks.
		return keep
	}
}

// DecideFile evaluates file-scope rules for one target within an already
// kept post. postFolder carries a character folder already decided at post
// scope; when set, character matching is not repeated.
func DecideFile(p source.Post, f source.File, postFolder string, r Rules) Decision {
	if r.SkipScope == SkipFiles || r.SkipScope == SkipBoth {
		if matchesWord(f.Name, r.SkipWords) {
			return skip(ReasonKeyword)
		}
	}

	if !kindAllowed(f.Kind, r.Content) {
		return skip(ReasonKind)
	}

	if r.MinSize > 0 && f.DeclaredSize > 0 && f.DeclaredSize < r.MinSize {
		return skip(ReasonSize)
	}

	if len(r.Characters) == 0 || postFolder != "" {
		return Decision{Keep: true, Folder: postFolder}
	}
	switch r.CharScope {
	case CharFiles, CharBoth:
		if folder, ok := matchGroups(f.Name, r.Characters); ok {
			return Decision{Keep: true, Folder: folder}
		}
		return skip(ReasonCharacter)
	case CharComments:
		if folder, ok := matchGroups(f.Name, r.Characters); ok {
			return Decision{Keep: true, Folder: folder}
		}
		if folder, ok := matchGroups(p.Comments, r.Characters); ok {
			return Decision{Keep: true, Folder: folder}
		}
		return skip(ReasonCharacter)
	default:
		return keep
	}
}

func kindAllowed(k source.Kind, c Content) bool {
	switch c {
	case "", ContentAll:
		return true
	case ContentImages:
		return k == source.KindImage
	case ContentVideos:
		return k == source.KindVideo
	case ContentArchives:
		return k == source.KindArchive
	case ContentAudio:
		return k == source.KindAudio
	default:
		return false
	}
}

func matchesWord(text string, words []string) bool {
	lower := strings.ToLower(text)
	for _, w := range words {
		if w != "" && strings.Contains(lower, strings.ToLower(w)) {
			return true
		}
	}
	return false
}
