package screen

import (
	"strings"

	"clinbrief/internal/model"
)

// Field selects which candidate field a rule inspects.
type Field int

const (
	FieldTitle Field = iota
	FieldLink
)

// Rule rejects candidates whose field contains the pattern
// (case-insensitive substring match).
type Rule struct {
	Field   Field
	Pattern string
	Reason  string
}

// rejectRules is the quality rule table. Heuristic data lives here;
// the matching engine is Reject below.
var rejectRules = []Rule{
	{FieldTitle, "[removed]", "removed_item"},
	{FieldLink, "removed.com", "removed_item"},
	{FieldTitle, "sponsored content", "sponsored"},
	{FieldTitle, "press release:", "press_release"},
	{FieldTitle, "webinar:", "event_promo"},
	{FieldTitle, "register now", "event_promo"},
	{FieldTitle, "job opening", "job_posting"},
	{FieldLink, "/careers/", "job_posting"},
	{FieldLink, "utm_source=newsletter", "newsletter_loop"},
}

// Reject evaluates the rule table against a candidate. Returns the
// matched rule's reason and true if any rule fires.
func Reject(c model.Candidate) (string, bool) {
	title := strings.ToLower(c.Title)
	link := strings.ToLower(c.Link)
	for _, r := range rejectRules {
		field := title
		if r.Field == FieldLink {
			field = link
		}
		if strings.Contains(field, r.Pattern) {
			return r.Reason, true
		}
	}
	return "", false
}
