package naming

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanFolder(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"invalid chars removed", `My <Great> "Set": a/b\c`, "My Great Set abc"},
		{"accents stripped", "Café au Lait", "Cafe au Lait"},
		{"whitespace collapsed", "  a   lot \t of   space ", "a lot of space"},
		{"trailing dots trimmed", "Series Vol. 2...", "Series Vol. 2"},
		{"empty falls back", "", "untitled"},
		{"only invalid falls back", `<>:?*`, "untitled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanFolder(tt.in))
		})
	}
}

func TestCleanFolder_Truncates(t *testing.T) {
	long := strings.Repeat("x", 400)
	got := CleanFolder(long)
	assert.Len(t, got, 150)
}

func TestCleanFile(t *testing.T) {
	assert.Equal(t, "a_b_c.jpg", CleanFile(`a/b\c.jpg`), "invalid chars become underscores")
	assert.Equal(t, "resume.pdf", CleanFile("résumé.pdf"))
	assert.Equal(t, "untitled", CleanFile("   "))
}

func TestCleanFile_PreservesExtensionWhenTruncating(t *testing.T) {
	long := strings.Repeat("x", 400) + ".jpeg"
	got := CleanFile(long)
	assert.Len(t, got, 150)
	assert.True(t, strings.HasSuffix(got, ".jpeg"), "extension must survive truncation, got %q", got)
}

func TestFolderFromTitle(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"The Adventures of Alice", "Adventures Alice"},
		{"A Day at the Beach!", "Day Beach!"},
		{"the of and", "the of and"}, // all stop words: keep the cleaned title
		{"Midnight Sketches", "Midnight Sketches"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FolderFromTitle(tt.title), "title %q", tt.title)
	}
}
