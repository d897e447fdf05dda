package llm

import (
	"encoding/json"
	"strings"
)

// ExtractObject returns the first balanced {...} span in text, tracking
// string literals and escapes so braces inside strings do not count.
// Returns false if no balanced object exists.
func ExtractObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return text[start : i+1], true
				}
			}
		}
	}
	return "", false
}

// ParseJSONResponse extracts and parses the first JSON object embedded in
// an LLM response. The response may wrap the object in prose or markdown
// code fences. Returns nil if no parseable object is found.
func ParseJSONResponse(text string) map[string]any {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	// Strip markdown code fences before scanning
	if strings.HasPrefix(text, "```") {
		lines := strings.Split(text, "\n")
		endIdx := len(lines) - 1
		for i := len(lines) - 1; i > 0; i-- {
			if strings.TrimSpace(lines[i]) == "```" {
				endIdx = i
				break
			}
		}
		text = strings.Join(lines[1:endIdx], "\n")
	}

	obj, ok := ExtractObject(text)
	if !ok {
		return nil
	}

	var result map[string]any
	if err := json.Unmarshal([]byte(obj), &result); err != nil {
		return nil
	}
	return result
}
