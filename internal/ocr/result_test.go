package ocr

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeAppliesItemDefaults(t *testing.T) {
	catID := uuid.New()
	obj := map[string]any{
		"store_name":   "スーパーA",
		"purchased_at": "2026-08-15",
		"total_amount": float64(1500),
		"items": []any{
			map[string]any{"name": "牛乳", "quantity": float64(2), "unit_price": float64(200), "category_id": catID.String()},
			map[string]any{"unit_price": float64(300)},
			map[string]any{"name": "パン", "quantity": float64(0), "category_id": "not-a-uuid"},
		},
	}

	res, err := Decode(obj)
	require.NoError(t, err)

	require.NotNil(t, res.StoreName)
	assert.Equal(t, "スーパーA", *res.StoreName)
	require.NotNil(t, res.TotalAmount)
	assert.Equal(t, float64(1500), *res.TotalAmount)
	require.NotNil(t, res.PurchasedAt)
	assert.Equal(t, time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC), *res.PurchasedAt)
	assert.False(t, res.Truncated)

	require.Len(t, res.Items, 3)
	assert.Equal(t, "牛乳", res.Items[0].Name)
	assert.Equal(t, float64(2), res.Items[0].Quantity)
	require.NotNil(t, res.Items[0].CategoryID)
	assert.Equal(t, catID, *res.Items[0].CategoryID)

	// Absent name, quantity and category fall back to the defaults.
	assert.Equal(t, ItemNameFallback, res.Items[1].Name)
	assert.Equal(t, float64(1), res.Items[1].Quantity)
	assert.Equal(t, float64(300), res.Items[1].UnitPrice)
	assert.Nil(t, res.Items[1].CategoryID)

	// Zero quantity counts as falsy; malformed uuid becomes nil.
	assert.Equal(t, float64(1), res.Items[2].Quantity)
	assert.Equal(t, float64(0), res.Items[2].UnitPrice)
	assert.Nil(t, res.Items[2].CategoryID)
}

func TestDecodeMissingFieldsStayNil(t *testing.T) {
	res, err := Decode(map[string]any{"items": []any{}})
	require.NoError(t, err)
	assert.Nil(t, res.StoreName)
	assert.Nil(t, res.TotalAmount)
	assert.Nil(t, res.PurchasedAt)
	assert.Empty(t, res.Items)
}

func TestDecodeUnreadableDateIgnored(t *testing.T) {
	res, err := Decode(map[string]any{"purchased_at": "8月15日"})
	require.NoError(t, err)
	assert.Nil(t, res.PurchasedAt)
}

func TestDecodeTruncatedMarker(t *testing.T) {
	res, err := Decode(map[string]any{"_truncated": true})
	require.NoError(t, err)
	assert.True(t, res.Truncated)
}

func TestDecodeRawFlags(t *testing.T) {
	cases := []struct {
		name      string
		raw       []byte
		ok        bool
		truncated bool
	}{
		{"nil blob", nil, false, false},
		{"raw text", []byte("not json at all"), false, false},
		{"object without marker", []byte(`{"store_name":"X"}`), true, false},
		{"object with marker", []byte(`{"store_name":"X","_truncated":true}`), true, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			flags, ok := DecodeRawFlags(tc.raw)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.truncated, flags.Truncated)
		})
	}
}
