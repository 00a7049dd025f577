package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, ToJSON(map[string]int{"a": 1}))
	assert.Equal(t, "", ToJSON(make(chan int))) // unmarshalable value
}

func TestLooksTruncated(t *testing.T) {
	assert.True(t, LooksTruncated(`{"a": "b...`))
	assert.True(t, LooksTruncated(`{"a": "b",`))
	assert.True(t, LooksTruncated(`{"a": "unterminated`))
	assert.False(t, LooksTruncated(`{"a": "b"}`))
}

func TestExtractObjectFragments(t *testing.T) {
	content := `garbage {"id": 1, "summary": "x"} more garbage {"id": 2, "summary": "y"}`
	fragments := ExtractObjectFragments(content)
	assert.Len(t, fragments, 2)
	assert.Contains(t, fragments[0], `"id": 1`)
	assert.Contains(t, fragments[1], `"id": 2`)
}

func TestExtractObjectFragmentsNoMatches(t *testing.T) {
	assert.Empty(t, ExtractObjectFragments("no braces here"))
}
