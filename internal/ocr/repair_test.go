package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValidJSON(t *testing.T) {
	obj, repaired, err := Parse(`{"store_name":"スーパーA","total_amount":1200,"items":[]}`)
	require.NoError(t, err)
	assert.False(t, repaired)
	assert.Equal(t, "スーパーA", obj["store_name"])
}

func TestParseStripsCodeFence(t *testing.T) {
	cases := []string{
		"```json\n{\"store_name\":\"X\"}\n```",
		"```\n{\"store_name\":\"X\"}\n```",
		"  {\"store_name\":\"X\"}  ",
	}
	for _, in := range cases {
		obj, repaired, err := Parse(in)
		require.NoError(t, err, "input %q", in)
		assert.False(t, repaired)
		assert.Equal(t, "X", obj["store_name"])
	}
}

func TestParseRepairsTruncatedItems(t *testing.T) {
	// Cut off mid-way through the second item: the first fully-closed
	// item must survive and the result must be flagged as repaired.
	in := `{"store_name":"X","items":[{"name":"milk","unit_price":200},{"name":"bread","unit`

	obj, repaired, err := Parse(in)
	require.NoError(t, err)
	assert.True(t, repaired)

	items, ok := obj["items"].([]any)
	require.True(t, ok)
	require.Len(t, items, 1)
	first, ok := items[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "milk", first["name"])
	assert.Equal(t, float64(200), first["unit_price"])
}

func TestParseRepairKeepsAllClosedItems(t *testing.T) {
	in := `{"store_name":"Y","total_amount":999,"items":[` +
		`{"name":"a","quantity":1,"unit_price":100},` +
		`{"name":"b","quantity":2,"unit_price":150},` +
		`{"name":"c","qua`

	obj, repaired, err := Parse(in)
	require.NoError(t, err)
	assert.True(t, repaired)

	items := obj["items"].([]any)
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].(map[string]any)["name"])
	assert.Equal(t, "b", items[1].(map[string]any)["name"])
}

func TestParseFailsWithoutClosedItem(t *testing.T) {
	// No item ever closed: repair must fail, not fabricate an empty
	// items array.
	in := `{"store_name":"X","items":[{"name":"mi`

	_, _, err := Parse(in)
	require.ErrorIs(t, err, ErrUnparseable)
}

func TestParseFailsOnGarbage(t *testing.T) {
	_, _, err := Parse("すみません、この画像は読み取れませんでした。")
	require.ErrorIs(t, err, ErrUnparseable)
}
