package service

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/yosuketsuboi/kakeibo-app/internal/models"
)

func TestEncodeImageBase64MatchesStandardEncoding(t *testing.T) {
	sizes := []int{
		0,
		1,
		encodeChunkSize - 1,
		encodeChunkSize,
		encodeChunkSize + 1,
		3*encodeChunkSize + 7,
	}
	for _, size := range sizes {
		data := bytes.Repeat([]byte{0xAB, 0x12, 0xEF}, size/3+1)[:size]
		got := encodeImageBase64(data)
		assert.Equal(t, base64.StdEncoding.EncodeToString(data), got, "size %d", size)

		decoded, err := base64.StdEncoding.DecodeString(got)
		assert.NoError(t, err)
		assert.Equal(t, data, decoded)
	}
}

func TestBuildReceiptPromptListsCategories(t *testing.T) {
	cats := []models.Category{
		{ID: uuid.MustParse("11111111-1111-1111-1111-111111111111"), Name: "食費"},
		{ID: uuid.MustParse("22222222-2222-2222-2222-222222222222"), Name: "日用品"},
	}
	prompt := buildReceiptPrompt(cats)
	assert.True(t, strings.Contains(prompt, "11111111-1111-1111-1111-111111111111: 食費"))
	assert.True(t, strings.Contains(prompt, "22222222-2222-2222-2222-222222222222: 日用品"))
	assert.True(t, strings.Contains(prompt, "category_id"))
}
