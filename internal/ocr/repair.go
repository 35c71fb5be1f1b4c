package ocr

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnparseable means the model output is not valid JSON even after the
// single repair attempt. The caller preserves the raw text for manual
// diagnosis.
var ErrUnparseable = errors.New("ocr: output is not valid JSON")

// Parse parses model output into a JSON object. The output may be
// wrapped in a markdown code fence, and may be cut off mid-array by the
// model's token limit; in that case a single best-effort repair keeps
// every fully-closed item and re-closes the items array and root object.
// The second return reports whether repair was applied.
//
// Only truncation inside the items array is recoverable: the repair
// keys on the last "}," marker (a closed item followed by the start of
// the one that got cut off). Output truncated before any item closes
// fails hard rather than fabricating an empty result.
func Parse(text string) (map[string]any, bool, error) {
	s := stripFence(text)

	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err == nil {
		return obj, false, nil
	}

	idx := strings.LastIndex(s, "},")
	if idx == -1 {
		return nil, false, ErrUnparseable
	}
	repaired := s[:idx+1] + "]}"
	if err := json.Unmarshal([]byte(repaired), &obj); err != nil {
		return nil, false, fmt.Errorf("%w: repair failed: %v", ErrUnparseable, err)
	}
	return obj, true, nil
}

func stripFence(text string) string {
	s := strings.TrimSpace(text)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
