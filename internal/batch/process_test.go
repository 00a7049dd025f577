package batch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeItemsContainerKey(t *testing.T) {
	content := `{"results": [{"id": 1, "question": "q1", "answer": "a1"}, {"id": 2, "question": "q2", "answer": "a2"}]}`
	items, err := decodeItems(content)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, float64(1), items[0]["id"])
}

func TestDecodeItemsBareList(t *testing.T) {
	content := `[{"id": 5, "summary": "s1"}]`
	items, err := decodeItems(content)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "s1", items[0]["summary"])
}

func TestDecodeItemsSingleObjectWithID(t *testing.T) {
	content := `{"id": 7, "summary": "solo"}`
	items, err := decodeItems(content)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, float64(7), items[0]["id"])
}

func TestDecodeItemsObjectWithoutContainerOrID(t *testing.T) {
	content := `{"foo": "bar"}`
	_, err := decodeItems(content)
	assert.Error(t, err)
}

func TestDecodeItemsRecoversFromTruncatedContent(t *testing.T) {
	content := `{"results": [{"id": 1, "summary": "fine"}, {"id": 2, "summary": "cut off...`
	items, err := decodeItems(content)
	require.NoError(t, err)
	require.NotEmpty(t, items)
	assert.Equal(t, float64(1), items[0]["id"])
}

func TestDecodeItemsEmptyContent(t *testing.T) {
	items, err := decodeItems("")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCoerceID(t *testing.T) {
	t.Run("float64", func(t *testing.T) {
		id, ok := coerceID(map[string]interface{}{"id": float64(42)})
		assert.True(t, ok)
		assert.Equal(t, int64(42), id)
	})

	t.Run("numeric string", func(t *testing.T) {
		id, ok := coerceID(map[string]interface{}{"id": "42"})
		assert.True(t, ok)
		assert.Equal(t, int64(42), id)
	})

	t.Run("missing", func(t *testing.T) {
		_, ok := coerceID(map[string]interface{}{})
		assert.False(t, ok)
	})

	t.Run("non-numeric string", func(t *testing.T) {
		_, ok := coerceID(map[string]interface{}{"id": "not-a-number"})
		assert.False(t, ok)
	})
}

func TestSplitTokens(t *testing.T) {
	tokens := splitTokens("a, b\tc\nd")
	assert.Equal(t, []string{"a", "b", "c", "d"}, tokens)
}

func TestProcessItemRejectsIDNotInCustomID(t *testing.T) {
	cid := CustomID{IDs: []int64{1, 2}}
	_, ok := coerceID(map[string]interface{}{"id": float64(99)})
	require.True(t, ok)
	assert.False(t, cid.Contains(99))
}
