package screen

import (
	"fmt"
	"math/rand"
	"testing"

	"clinbrief/internal/audit"
	"clinbrief/internal/model"
)

func TestAcceptsRequiresBothVocabularies(t *testing.T) {
	cases := []struct {
		title, description string
		want               bool
	}{
		{"ChatGPT used to draft clinical trial protocol, study finds",
			"Researchers describe how a large language model helped write a clinical trial protocol.", true},
		{"Machine learning predicts patient outcomes", "", true},
		{"New hospital wing opens", "The ribbon was cut on Tuesday.", false},
		{"Machine learning beats benchmark", "A new model tops the leaderboard.", false},
		{"Phase III trial enrolls first patient", "Enrollment began this week.", false},
		{"", "", false},
	}
	for _, tc := range cases {
		if got := Accepts(tc.title, tc.description); got != tc.want {
			t.Errorf("Accepts(%q, %q) = %v, want %v", tc.title, tc.description, got, tc.want)
		}
	}
}

func TestAcceptsConjunctionProperty(t *testing.T) {
	// Filler guaranteed to hit neither vocabulary.
	filler := []string{"sunrise", "harbor", "quartet", "meadow", "lantern"}
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 200; i++ {
		hasSubject := rng.Intn(2) == 0
		hasDomain := rng.Intn(2) == 0

		words := []string{filler[rng.Intn(len(filler))]}
		if hasSubject {
			words = append(words, subjectTerms[rng.Intn(len(subjectTerms))])
		}
		if hasDomain {
			words = append(words, domainTerms[rng.Intn(len(domainTerms))])
		}
		rng.Shuffle(len(words), func(a, b int) { words[a], words[b] = words[b], words[a] })

		text := fmt.Sprintf("%s %s %s", words[0], join(words[1:]), filler[rng.Intn(len(filler))])
		want := hasSubject && hasDomain
		if got := Accepts(text, ""); got != want {
			t.Errorf("text %q: Accepts = %v, want %v (subject=%v domain=%v)",
				text, got, want, hasSubject, hasDomain)
		}
	}
}

func join(words []string) string {
	out := ""
	for i, w := range words {
		if i > 0 {
			out += " "
		}
		out += w
	}
	return out
}

func TestAcceptsNoFalseTokenMatches(t *testing.T) {
	// "ai" must not match inside words like "said" or "trial".
	if Accepts("The chairman said the trial would proceed", "") {
		t.Error("substring 'ai' inside words should not count as a subject match")
	}
}

func TestRejectRules(t *testing.T) {
	cases := []struct {
		cand   model.Candidate
		reason string
		want   bool
	}{
		{model.Candidate{Title: "[Removed]"}, "removed_item", true},
		{model.Candidate{Link: "https://removed.com"}, "removed_item", true},
		{model.Candidate{Title: "Webinar: AI in trials, register today"}, "event_promo", true},
		{model.Candidate{Title: "AI model speeds up patient recruitment"}, "", false},
	}
	for _, tc := range cases {
		reason, got := Reject(tc.cand)
		if got != tc.want || reason != tc.reason {
			t.Errorf("Reject(%+v) = (%q, %v), want (%q, %v)", tc.cand, reason, got, tc.reason, tc.want)
		}
	}
}

func TestFilterDropsRejectedAndScreened(t *testing.T) {
	candidates := []model.Candidate{
		{ID: "1", Title: "Machine learning predicts clinical trial outcomes"},
		{ID: "2", Title: "New hospital wing opens"},
		{ID: "3", Title: "[Removed]"},
	}
	kept := Filter(candidates, audit.Discard())
	if len(kept) != 1 || kept[0].ID != "1" {
		t.Errorf("expected only candidate 1, got %v", kept)
	}
}
