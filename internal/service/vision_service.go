package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yosuketsuboi/kakeibo-app/internal/metrics"
	"github.com/yosuketsuboi/kakeibo-app/internal/models"
	"github.com/yosuketsuboi/kakeibo-app/pkg/config"
)

// VisionService reads receipt images with the Anthropic messages API.
// The model returns a single JSON object, the extraction service owns
// parsing and repair.
type VisionService struct {
	httpClient *http.Client
	config     *config.AnthropicConfig
	logger     *zap.Logger
}

func NewVisionService(cfg *config.AnthropicConfig, logger *zap.Logger) *VisionService {
	return &VisionService{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		config:     cfg,
		logger:     logger,
	}
}

// encodeChunkSize bounds how much image data is fed to the encoder per
// write, keeping the working set small for large receipt photos.
const encodeChunkSize = 32 * 1024

func encodeImageBase64(image []byte) string {
	var b strings.Builder
	b.Grow(base64.StdEncoding.EncodedLen(len(image)))
	enc := base64.NewEncoder(base64.StdEncoding, &b)
	for off := 0; off < len(image); off += encodeChunkSize {
		end := off + encodeChunkSize
		if end > len(image) {
			end = len(image)
		}
		enc.Write(image[off:end])
	}
	enc.Close()
	return b.String()
}

func buildReceiptPrompt(categories []models.Category) string {
	var list strings.Builder
	for _, c := range categories {
		list.WriteString(c.ID.String())
		list.WriteString(": ")
		list.WriteString(c.Name)
		list.WriteString("\n")
	}

	return fmt.Sprintf(`このレシート画像を読み取り、以下のJSON形式で返してください。

利用可能なカテゴリ:
%s
JSONフォーマット:
{
  "store_name": "店舗名",
  "purchased_at": "YYYY-MM-DD",
  "total_amount": 合計金額(数値),
  "items": [
    {
      "name": "商品名",
      "quantity": 数量(数値),
      "unit_price": 単価(数値),
      "category_id": "最も適切なカテゴリID"
    }
  ]
}

注意:
- 金額は税込みの数値で返してください
- 日付が読み取れない場合は今日の日付を使ってください
- カテゴリIDは上記リストから最も適切なものを選んでください
- JSONのみを返してください、説明は不要です`, list.String())
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string             `json:"role"`
	Content []anthropicContent `json:"content"`
}

type anthropicContent struct {
	Type   string                `json:"type"`
	Text   string                `json:"text,omitempty"`
	Source *anthropicImageSource `json:"source,omitempty"`
}

type anthropicImageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

// ExtractReceipt sends the image and the household's category list to
// the model. Returns the raw text of the first content block and
// whether the model hit the output token limit.
func (s *VisionService) ExtractReceipt(ctx context.Context, image []byte, mediaType string, categories []models.Category) (string, bool, error) {
	if mediaType == "" {
		mediaType = "image/jpeg"
	}

	reqBody := anthropicRequest{
		Model:     s.config.Model,
		MaxTokens: s.config.MaxTokens,
		Messages: []anthropicMessage{
			{
				Role: "user",
				Content: []anthropicContent{
					{
						Type: "image",
						Source: &anthropicImageSource{
							Type:      "base64",
							MediaType: mediaType,
							Data:      encodeImageBase64(image),
						},
					},
					{
						Type: "text",
						Text: buildReceiptPrompt(categories),
					},
				},
			},
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", false, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.config.BaseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", s.config.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		metrics.VisionRequestErrors.Inc()
		return "", false, fmt.Errorf("vision request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		metrics.VisionRequestErrors.Inc()
		s.logger.Error("vision API returned error",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", errBody))
		return "", false, fmt.Errorf("vision API status %d", resp.StatusCode)
	}

	var parsed anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		metrics.VisionRequestErrors.Inc()
		return "", false, fmt.Errorf("failed to decode response: %w", err)
	}

	var text string
	for _, block := range parsed.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	if text == "" {
		return "", false, fmt.Errorf("vision response contained no text")
	}

	truncated := parsed.StopReason == "max_tokens"
	if truncated {
		s.logger.Warn("vision output hit the token limit", zap.Int("max_tokens", s.config.MaxTokens))
	}

	return text, truncated, nil
}
