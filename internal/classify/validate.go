package classify

import (
	"fmt"
	"strings"
)

const minFieldLength = 5

// payload is a validated classification response.
type payload struct {
	Relevant  bool
	Summary   string
	Comment   string
	Resources string
	Tag       string
}

// validatePayload checks a parsed response against the field contract:
// all five fields present, is_ai_related a genuine boolean, and every text
// field a string (or non-empty string list, joined with newlines) of
// trimmed length >= 5. Tag, comment and resources are exempt from the
// length check when the article is not relevant, since the model has
// nothing to say about those.
func validatePayload(parsed map[string]any) (payload, error) {
	if parsed == nil {
		return payload{}, fmt.Errorf("no JSON object in response")
	}

	rawRelevant, ok := parsed["is_ai_related"]
	if !ok {
		return payload{}, fmt.Errorf("missing field is_ai_related")
	}
	relevant, ok := rawRelevant.(bool)
	if !ok {
		return payload{}, fmt.Errorf("is_ai_related is not a boolean")
	}

	p := payload{Relevant: relevant}
	fields := []struct {
		name   string
		dst    *string
		exempt bool
	}{
		{"summary", &p.Summary, false},
		{"comment", &p.Comment, true},
		{"resources", &p.Resources, true},
		{"ai_tag", &p.Tag, true},
	}

	for _, f := range fields {
		raw, ok := parsed[f.name]
		if !ok {
			return payload{}, fmt.Errorf("missing field %s", f.name)
		}
		text, ok := textValue(raw)
		if !ok {
			return payload{}, fmt.Errorf("field %s is not a string", f.name)
		}
		if len(strings.TrimSpace(text)) < minFieldLength && !(f.exempt && !relevant) {
			return payload{}, fmt.Errorf("field %s too short", f.name)
		}
		*f.dst = text
	}
	return p, nil
}

// textValue accepts a string or a non-empty list of strings, which is
// normalized by joining with newlines.
func textValue(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case []any:
		if len(t) == 0 {
			return "", false
		}
		parts := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return "", false
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, "\n"), true
	default:
		return "", false
	}
}
