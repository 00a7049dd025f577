package logger

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestSetLevelValidAndInvalid(t *testing.T) {
	SetLevel("debug")
	assert.Equal(t, logrus.DebugLevel, base.GetLevel())

	SetLevel("not-a-level")
	assert.Equal(t, logrus.InfoLevel, base.GetLevel())
}

func TestGetLoggerBareWhenAbsent(t *testing.T) {
	entry := GetLogger(context.Background())
	assert.NotNil(t, entry)
}

func TestWithFieldsRoundTrip(t *testing.T) {
	ctx := WithFields(context.Background(), logrus.Fields{"request_id": "abc"})
	entry := GetLogger(ctx)
	assert.Equal(t, "abc", entry.Data["request_id"])
}

func TestWithFieldsStacksOnExistingEntry(t *testing.T) {
	ctx := WithFields(context.Background(), logrus.Fields{"a": 1})
	ctx = WithFields(ctx, logrus.Fields{"b": 2})
	entry := GetLogger(ctx)
	assert.Equal(t, 1, entry.Data["a"])
	assert.Equal(t, 2, entry.Data["b"])
}

func TestCloneContextDetachesCancellationButKeepsFields(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	ctx := WithFields(parent, logrus.Fields{"x": "y"})
	cloned := CloneContext(ctx)
	cancel()

	assert.NoError(t, cloned.Err())
	assert.Equal(t, "y", GetLogger(cloned).Data["x"])
}
