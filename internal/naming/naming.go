// Package naming builds destination folder and file names: sanitization,
// title-derived folders, manga-mode rename styles, and per-run unique-path
// reservation.
package naming

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// maxComponentLength caps a single path component. Longer names are
// truncated, keeping the extension for filenames.
const maxComponentLength = 150

var invalidChars = regexp.MustCompile(`[<>:"/\\|?*]`)
var multiSpace = regexp.MustCompile(`\s+`)

// folderStopWords are ignored when deriving a folder name from a title.
var folderStopWords = map[string]bool{
	"a": true, "an": true, "and": true, "at": true, "be": true, "by": true,
	"com": true, "for": true, "he": true, "her": true, "his": true,
	"i": true, "im": true, "in": true, "is": true, "it": true, "its": true,
	"me": true, "my": true, "net": true, "not": true, "of": true, "on": true,
	"or": true, "org": true, "our": true, "s": true, "she": true, "so": true,
	"the": true, "their": true, "they": true, "this": true, "to": true,
	"ve": true, "was": true, "we": true, "were": true, "with": true,
	"www": true, "you": true, "your": true,
}

// removeAccents strips diacritical marks (é -> e).
func removeAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return result
}

// CleanFolder sanitizes a string into a valid folder name.
func CleanFolder(name string) string {
	cleaned := invalidChars.ReplaceAllString(removeAccents(name), "")
	cleaned = multiSpace.ReplaceAllString(strings.TrimSpace(cleaned), " ")
	if len(cleaned) > maxComponentLength {
		cleaned = cleaned[:maxComponentLength]
	}
	cleaned = strings.TrimRight(cleaned, ". ")
	if cleaned == "" {
		return "untitled"
	}
	return cleaned
}

// CleanFile sanitizes a string into a valid file name, preserving the
// extension when truncating.
func CleanFile(name string) string {
	cleaned := invalidChars.ReplaceAllString(removeAccents(name), "_")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return "untitled"
	}
	ext := filepath.Ext(cleaned)
	base := strings.TrimSuffix(cleaned, ext)
	if maxBase := maxComponentLength - len(ext); len(base) > maxBase {
		if maxBase > 0 {
			base = base[:maxBase]
		} else {
			return cleaned[:maxComponentLength]
		}
	}
	return base + ext
}

// FolderFromTitle derives a folder name from a post title by dropping stop
// words. Falls back to the cleaned full title when nothing survives.
func FolderFromTitle(title string) string {
	var kept []string
	for _, word := range strings.Fields(title) {
		if !folderStopWords[strings.ToLower(strings.Trim(word, ".,!?:;'\""))] {
			kept = append(kept, word)
		}
	}
	if len(kept) == 0 {
		return CleanFolder(title)
	}
	return CleanFolder(strings.Join(kept, " "))
}
