// Package rank orders classified articles by a composite of topical
// relevance (BM25 over a controlled vocabulary) and recency (exponential
// decay). Ranking only reorders; it never drops articles.
package rank

import (
	"math"
	"sort"
	"strings"
	"time"

	"clinbrief/internal/model"
	"clinbrief/internal/screen"
)

// BM25 constants. Document length is measured in tokens of the combined
// title+description text.
const (
	k1        = 1.2
	b         = 0.75
	avgDocLen = 50.0

	// Fixed corpus-size assumption for the IDF-like weight: vocabulary
	// terms are treated as appearing in docFreq of corpusDocs documents.
	corpusDocs = 1000.0
	docFreq    = 10.0
)

const (
	decayDays       = 30.0
	neutralRecency  = 0.5
	relevanceWeight = 0.7
	recencyWeight   = 0.3
)

// vocabulary is the controlled relevance vocabulary: the topical areas the
// brief is about. Phrases match as substrings, single words on tokens.
var vocabulary = []string{
	"machine learning",
	"deep learning",
	"artificial intelligence",
	"natural language processing",
	"large language model",
	"computer vision",
	"predictive analytics",
	"digital biomarkers",
	"clinical decision support",
	"drug discovery",
	"patient recruitment",
	"trial optimization",
	"regulatory submission",
	"real-world evidence",
	"digital therapeutics",
	"clinical trial",
	"ai",
	"algorithm",
	"biomarker",
	"diagnostics",
	"wearable",
}

var termIDF = math.Log(1.0 + (corpusDocs-docFreq+0.5)/(docFreq+0.5))

// Relevance computes the BM25-style score of the combined title and
// description text against the controlled vocabulary. No vocabulary
// matches scores 0.
func Relevance(title, description string) float64 {
	text := strings.ToLower(title + " " + description)
	tokens := screen.Tokenize(text)
	docLen := float64(len(tokens))
	if docLen == 0 {
		return 0
	}
	spaced := " " + strings.Join(tokens, " ") + " "

	var score float64
	for _, term := range vocabulary {
		tf := termFrequency(term, tokens, spaced)
		if tf == 0 {
			continue
		}
		norm := k1 * (1 - b + b*docLen/avgDocLen)
		score += termIDF * (tf * (k1 + 1)) / (tf + norm)
	}
	return score
}

// Recency scores freshness as exp(-daysOld/30), with daysOld clamped to
// zero. Articles whose date was defaulted at collection time get the
// fixed neutral score.
func Recency(publishedAt time.Time, dateDefaulted bool, now time.Time) float64 {
	if dateDefaulted || publishedAt.IsZero() {
		return neutralRecency
	}
	daysOld := now.Sub(publishedAt).Hours() / 24
	if daysOld < 0 {
		daysOld = 0
	}
	return math.Exp(-daysOld / decayDays)
}

// Composite combines relevance and recency with fixed weights.
func Composite(relevance, recency float64) float64 {
	return relevanceWeight*relevance + recencyWeight*recency
}

// Order returns the articles sorted descending by composite score. The
// sort is stable: ties keep their original relative order. Scores are
// scratch values and are not attached to the returned articles.
func Order(articles []model.Article, now time.Time) []model.Article {
	type scored struct {
		article   model.Article
		composite float64
	}
	scoredArticles := make([]scored, len(articles))
	for i, a := range articles {
		rel := Relevance(a.Title, a.Description)
		rec := Recency(a.PublishedAt, a.DateDefaulted, now)
		scoredArticles[i] = scored{article: a, composite: Composite(rel, rec)}
	}

	sort.SliceStable(scoredArticles, func(i, j int) bool {
		return scoredArticles[i].composite > scoredArticles[j].composite
	})

	ordered := make([]model.Article, len(articles))
	for i, s := range scoredArticles {
		ordered[i] = s.article
	}
	return ordered
}

func termFrequency(term string, tokens []string, spaced string) float64 {
	if strings.ContainsAny(term, " -") {
		needle := " " + strings.Join(screen.Tokenize(term), " ") + " "
		return float64(strings.Count(spaced, needle))
	}
	var n int
	for _, tok := range tokens {
		if tok == term {
			n++
		}
	}
	return float64(n)
}
