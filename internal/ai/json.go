package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON returns the JSON object embedded in an LLM completion. Markdown code
// fences and surrounding prose are removed; anything that still is not a single JSON
// object is rejected.
func ExtractJSON(text string) ([]byte, error) {
	s := cleanJSONString(text)
	if s == "" {
		return nil, fmt.Errorf("%w: empty completion", ErrMalformedResponse)
	}
	if strings.HasPrefix(s, "{") && json.Valid([]byte(s)) {
		return []byte(s), nil
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no json object found", ErrMalformedResponse)
	}
	candidate := s[start : end+1]
	if !json.Valid([]byte(candidate)) {
		return nil, fmt.Errorf("%w: invalid json object", ErrMalformedResponse)
	}
	return []byte(candidate), nil
}

// cleanJSONString strips ```json fences.
func cleanJSONString(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if nl := strings.Index(s, "\n"); nl >= 0 {
			s = s[nl+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
