package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPerIPLimiterReusesLimiterForSameIP(t *testing.T) {
	l := newPerIPLimiter(60)
	first := l.get("1.2.3.4")
	second := l.get("1.2.3.4")
	assert.Same(t, first, second)
}

func TestPerIPLimiterDistinctPerIP(t *testing.T) {
	l := newPerIPLimiter(60)
	a := l.get("1.1.1.1")
	b := l.get("2.2.2.2")
	assert.NotSame(t, a, b)
}

func TestPerIPLimiterExhaustsBurst(t *testing.T) {
	l := newPerIPLimiter(1) // 1 rpm -> burst of 1
	lim := l.get("9.9.9.9")
	assert.True(t, lim.Allow())
	assert.False(t, lim.Allow())
}
