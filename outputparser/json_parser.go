// Package outputparser extracts structured values from raw model
// output.
package outputparser

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ExtractJSON pulls a JSON object out of text, handling fenced code
// blocks. It returns the empty string when no object is found.
func ExtractJSON(text string) string {
	// Look for JSON in code blocks
	if start := strings.Index(text, "```json"); start != -1 {
		rest := text[start+7:]
		if end := strings.Index(rest, "```"); end != -1 {
			return strings.TrimSpace(rest[:end])
		}
	}

	// Look for code blocks without language
	if start := strings.Index(text, "```"); start != -1 {
		rest := text[start+3:]
		if end := strings.Index(rest, "```"); end != -1 {
			return strings.TrimSpace(rest[:end])
		}
	}

	// Find JSON object
	if start := strings.Index(text, "{"); start != -1 {
		if end := strings.LastIndex(text, "}"); end > start {
			return text[start : end+1]
		}
	}

	return ""
}

// ParseObject extracts a JSON object from text and unmarshals it
// into v.
func ParseObject(text string, v any) error {
	jsonStr := ExtractJSON(text)
	if jsonStr == "" {
		return errors.New("no JSON found in output")
	}
	if err := json.Unmarshal([]byte(jsonStr), v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	return nil
}
