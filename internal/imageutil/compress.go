// Package imageutil normalizes uploaded receipt photos before storage:
// bounded dimensions and a bounded encoded size keep vision model
// payloads small.
package imageutil

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

const (
	// MaxDimension bounds the longer image edge.
	MaxDimension = 1920
	// MaxEncodedBytes bounds the stored JPEG size.
	MaxEncodedBytes = 800 * 1024

	startQuality = 85
	minQuality   = 30
	qualityStep  = 10
)

// Compress decodes an uploaded image, fits it inside
// MaxDimension x MaxDimension and re-encodes it as JPEG, stepping the
// quality down until the result fits MaxEncodedBytes. Returns the
// encoded bytes. The last attempt is returned even when it still
// exceeds the bound.
func Compress(data []byte) ([]byte, error) {
	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := src.Bounds()
	if bounds.Dx() > MaxDimension || bounds.Dy() > MaxDimension {
		src = imaging.Fit(src, MaxDimension, MaxDimension, imaging.Lanczos)
	}

	var buf bytes.Buffer
	for quality := startQuality; ; quality -= qualityStep {
		buf.Reset()
		if err := imaging.Encode(&buf, src, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
			return nil, fmt.Errorf("failed to encode image: %w", err)
		}
		if buf.Len() <= MaxEncodedBytes || quality-qualityStep < minQuality {
			return buf.Bytes(), nil
		}
	}
}
