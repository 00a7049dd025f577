package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidRejectsEmptyKeyWithoutTouchingDB(t *testing.T) {
	valid, err := IsValid(context.Background(), nil, "")
	require.NoError(t, err)
	assert.False(t, valid)
}
