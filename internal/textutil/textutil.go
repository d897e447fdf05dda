package textutil

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Typographic Unicode characters normalized to ASCII equivalents.
var punctReplacer = strings.NewReplacer(
	"–", "-", // en dash
	"—", "-", // em dash
	"‘", "'", // left single quote
	"’", "'", // right single quote
	"“", `"`, // left double quote
	"”", `"`, // right double quote
	"…", "...", // ellipsis
	" ", " ", // non-breaking space
	"​", "", // zero-width space
	"‌", "", // zero-width non-joiner
	"‍", "", // zero-width joiner
	"\uFEFF", "", // BOM
)

// Sanitize strips markup, normalizes typographic punctuation to ASCII,
// collapses whitespace runs, and trims. Idempotent.
func Sanitize(text string) string {
	if text == "" {
		return ""
	}

	if strings.ContainsAny(text, "<>") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(text)); err == nil {
			doc.Find("script, style").Remove()
			text = doc.Text()
		}
	}

	text = punctReplacer.Replace(text)
	return strings.Join(strings.Fields(text), " ")
}

// sentenceBacktrack is how far back (in bytes) LimitWords searches for a
// sentence break before giving up and appending an ellipsis.
const sentenceBacktrack = 30

// LimitWords truncates text to at most maxWords words, preferring to cut
// on sentence-terminal punctuation near the truncation point. Re-applying
// with the same budget is a no-op.
func LimitWords(text string, maxWords int) string {
	words := strings.Fields(text)
	if len(words) <= maxWords {
		return text
	}

	truncated := strings.Join(words[:maxWords], " ")
	if endsOnSentence(truncated) {
		return truncated
	}

	lastBreak := lastSentenceBreak(truncated)
	if lastBreak >= 0 && lastBreak >= len(truncated)-sentenceBacktrack {
		return truncated[:lastBreak+1]
	}

	return truncated + "..."
}

func endsOnSentence(text string) bool {
	trimmed := strings.TrimRight(text, " ")
	return strings.HasSuffix(trimmed, ".") ||
		strings.HasSuffix(trimmed, "!") ||
		strings.HasSuffix(trimmed, "?")
}

func lastSentenceBreak(text string) int {
	best := strings.LastIndexByte(text, '.')
	if i := strings.LastIndexByte(text, '!'); i > best {
		best = i
	}
	if i := strings.LastIndexByte(text, '?'); i > best {
		best = i
	}
	return best
}
