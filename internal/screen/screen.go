// Package screen is the cheap keyword pre-filter that runs before any
// LLM call. A candidate must mention both an AI/ML subject term and a
// clinical-research domain term to be worth classifying.
package screen

import (
	"strings"

	"clinbrief/internal/audit"
	"clinbrief/internal/model"
)

// subjectTerms is the AI/ML technology vocabulary. Single words match on
// token boundaries; phrases match as substrings.
var subjectTerms = []string{
	"ai",
	"artificial intelligence",
	"machine learning",
	"deep learning",
	"neural network",
	"nlp",
	"natural language processing",
	"large language model",
	"llm",
	"chatgpt",
	"gpt",
	"generative",
	"algorithm",
	"algorithms",
	"predictive analytics",
	"computer vision",
	"computational",
	"automation",
	"data science",
}

// domainTerms is the clinical-research vocabulary.
var domainTerms = []string{
	"clinical",
	"trial",
	"trials",
	"patient",
	"patients",
	"drug",
	"pharma",
	"pharmaceutical",
	"fda",
	"regulatory",
	"biomarker",
	"oncology",
	"medical",
	"medicine",
	"healthcare",
	"diagnosis",
	"diagnostic",
	"therapeutic",
	"therapeutics",
	"recruitment",
	"protocol",
	"endpoint",
	"efficacy",
	"biotech",
}

// Accepts reports whether the candidate's title and description contain
// at least one subject term and at least one domain term. Pure function.
func Accepts(title, description string) bool {
	text := strings.ToLower(title + " " + description)
	tokens := tokenSet(text)
	return matchesAny(text, tokens, subjectTerms) && matchesAny(text, tokens, domainTerms)
}

// Filter applies the quality rules and the vocabulary screen, logging one
// record per rejected candidate.
func Filter(candidates []model.Candidate, log *audit.Logger) []model.Candidate {
	var kept []model.Candidate
	for _, c := range candidates {
		if reason, rejected := Reject(c); rejected {
			log.Event("candidate_rejected", "id", c.ID, "link", c.Link, "rule", reason)
			continue
		}
		if !Accepts(c.Title, c.Description) {
			log.Event("candidate_screened_out", "id", c.ID, "title", c.Title)
			continue
		}
		kept = append(kept, c)
	}
	log.Event("screen_summary", "in", len(candidates), "kept", len(kept))
	return kept
}

func matchesAny(text string, tokens map[string]struct{}, terms []string) bool {
	for _, term := range terms {
		if strings.ContainsRune(term, ' ') {
			if strings.Contains(text, term) {
				return true
			}
			continue
		}
		if _, ok := tokens[term]; ok {
			return true
		}
	}
	return false
}

func tokenSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range Tokenize(text) {
		set[tok] = struct{}{}
	}
	return set
}

// Tokenize lowercases text and splits it on non-alphanumeric runes.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})
}
