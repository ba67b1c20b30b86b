package search

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncateSnippet(t *testing.T) {
	assert.Equal(t, "short", truncateSnippet("short", 100))
	assert.Equal(t, strings.Repeat("a", 100), truncateSnippet(strings.Repeat("a", 150), 100))
}

func TestTruncateSnippet_MultiByte(t *testing.T) {
	// 120 three-byte runes; a byte-indexed cut would land mid-sequence
	content := strings.Repeat("日", 120)

	snippet := truncateSnippet(content, 100)

	assert.True(t, utf8.ValidString(snippet))
	assert.Equal(t, 100, utf8.RuneCountInString(snippet))
}
