package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOrDefault(t *testing.T) {
	assert.Equal(t, 5, orDefault(0, 5))
	assert.Equal(t, 5, orDefault(-1, 5))
	assert.Equal(t, 10, orDefault(10, 5))
}

func TestOrDefaultDuration(t *testing.T) {
	assert.Equal(t, time.Minute, orDefaultDuration(0, time.Minute))
	assert.Equal(t, time.Minute, orDefaultDuration(-1, time.Minute))
	assert.Equal(t, 2*time.Second, orDefaultDuration(2*time.Second, time.Minute))
}
