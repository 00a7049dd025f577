package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorLiteral(t *testing.T) {
	v := Vector{1, 2.5, -3}
	assert.Equal(t, "[1,2.5,-3]", v.Literal())
}

func TestVectorIsZero(t *testing.T) {
	assert.True(t, Vector(nil).IsZero())
	assert.True(t, Vector{}.IsZero())
	assert.False(t, Vector{1}.IsZero())
}

func TestVectorValueNilForEmpty(t *testing.T) {
	val, err := Vector(nil).Value()
	require.NoError(t, err)
	assert.Nil(t, val)
}

func TestVectorScanNil(t *testing.T) {
	var v Vector = Vector{1, 2}
	require.NoError(t, v.Scan(nil))
	assert.Nil(t, v)
}

func TestStringSetRoundTrip(t *testing.T) {
	s := StringSet{"a", "b"}
	val, err := s.Value()
	require.NoError(t, err)

	var out StringSet
	require.NoError(t, out.Scan(val))
	assert.Equal(t, s, out)
}

func TestJSONRoundTrip(t *testing.T) {
	j := JSON(`{"a":1}`)
	val, err := j.Value()
	require.NoError(t, err)

	var out JSON
	require.NoError(t, out.Scan(val))
	assert.JSONEq(t, string(j), string(out))
}

func TestJSONValueNilForEmpty(t *testing.T) {
	var j JSON
	val, err := j.Value()
	require.NoError(t, err)
	assert.Nil(t, val)
}

func TestJSONMarshalEmptyIsNull(t *testing.T) {
	var j JSON
	b, err := j.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))
}
