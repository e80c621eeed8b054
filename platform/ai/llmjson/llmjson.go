// Package llmjson extracts JSON payloads from LLM responses. Models routinely
// wrap JSON in markdown fences or surround it with prose, so parsing is
// tolerant: fences are stripped and the outermost object is located before
// unmarshalling.
package llmjson

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractObject locates the outermost JSON object in raw model output and
// returns its bytes. Returns an error when no object can be found.
func ExtractObject(raw string) ([]byte, error) {
	cleaned := stripFences(raw)

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("no JSON object found in model output")
	}

	candidate := cleaned[start : end+1]
	if !json.Valid([]byte(candidate)) {
		return nil, fmt.Errorf("model output is not valid JSON")
	}
	return []byte(candidate), nil
}

// Unmarshal extracts the outermost JSON object from raw and decodes it into v.
func Unmarshal(raw string, v interface{}) error {
	data, err := ExtractObject(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func stripFences(raw string) string {
	cleaned := strings.TrimSpace(raw)
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
		if idx := strings.LastIndex(cleaned, "```"); idx >= 0 {
			cleaned = cleaned[:idx]
		}
	}
	return strings.TrimSpace(cleaned)
}
