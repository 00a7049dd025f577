package workers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDerefStr(t *testing.T) {
	assert.Equal(t, "", derefStr(nil))
	s := "hello"
	assert.Equal(t, "hello", derefStr(&s))
}
