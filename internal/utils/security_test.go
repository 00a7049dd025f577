package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeHTML(t *testing.T) {
	assert.Equal(t, "", SanitizeHTML(""))
	assert.Equal(t, "plain text", SanitizeHTML("plain text"))
	assert.Contains(t, SanitizeHTML(`<script>alert(1)</script>`), "&lt;script&gt;")
}

func TestSanitizeHTMLTruncatesLongInput(t *testing.T) {
	long := strings.Repeat("a", 20000)
	out := SanitizeHTML(long)
	assert.LessOrEqual(t, len(out), 10000)
}

func TestValidateInput(t *testing.T) {
	t.Run("empty is ok", func(t *testing.T) {
		s, ok := ValidateInput("")
		assert.True(t, ok)
		assert.Equal(t, "", s)
	})

	t.Run("plain text trimmed", func(t *testing.T) {
		s, ok := ValidateInput("  hello  ")
		assert.True(t, ok)
		assert.Equal(t, "hello", s)
	})

	t.Run("rejects control characters", func(t *testing.T) {
		_, ok := ValidateInput("hello\x00world")
		assert.False(t, ok)
	})

	t.Run("rejects script tags", func(t *testing.T) {
		_, ok := ValidateInput(`<script>alert(1)</script>`)
		assert.False(t, ok)
	})

	t.Run("allows tab/newline/cr", func(t *testing.T) {
		s, ok := ValidateInput("line1\nline2\ttabbed")
		assert.True(t, ok)
		assert.Equal(t, "line1\nline2\ttabbed", s)
	})
}

func TestIsValidURL(t *testing.T) {
	assert.True(t, IsValidURL("https://example.com/doc"))
	assert.True(t, IsValidURL("http://example.com"))
	assert.False(t, IsValidURL(""))
	assert.False(t, IsValidURL("ftp://example.com"))
	assert.False(t, IsValidURL("https://example.com/javascript:alert(1)"))
}

func TestCleanMarkdown(t *testing.T) {
	out := CleanMarkdown(`before <script>alert(1)</script> after`)
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "before")
	assert.Contains(t, out, "after")
}

func TestSanitizeForLog(t *testing.T) {
	out := SanitizeForLog("line1\nline2\rline3\tend")
	assert.NotContains(t, out, "\n")
	assert.NotContains(t, out, "\r")
	assert.NotContains(t, out, "\t")
}
