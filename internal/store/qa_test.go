package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeQuestion(t *testing.T) {
	assert.Equal(t, "how do i fix this", NormalizeQuestion("How Do I   Fix  This"))
	assert.Equal(t, "trailing spaces", NormalizeQuestion("  trailing   spaces  "))
	assert.Equal(t, "tabs and newlines", NormalizeQuestion("tabs\tand\nnewlines"))
}

func TestNormalizeQuestionIdempotent(t *testing.T) {
	once := NormalizeQuestion("What Is A Deadlock?")
	twice := NormalizeQuestion(once)
	assert.Equal(t, once, twice)
}
