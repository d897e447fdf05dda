// Package classify obtains structured relevance judgments for screened
// candidates from an LLM, enforcing a strict response contract with
// bounded retry.
package classify

import (
	"context"
	"fmt"
	"log"
	"unicode/utf8"

	"clinbrief/internal/audit"
	"clinbrief/internal/llm"
	"clinbrief/internal/model"
	"clinbrief/internal/textutil"
)

const classifyPrompt = `You are an AI and clinical research expert. Analyze this article to determine if it relates to AI in clinical research.

AI in clinical research includes:
- Machine learning in drug discovery and development
- AI for patient recruitment and trial optimization
- Natural language processing for clinical data
- Computer vision for medical imaging in trials
- Predictive analytics for clinical outcomes
- Digital biomarkers and wearable technology
- AI-powered diagnostic tools in clinical settings
- Large language models for clinical decision support
- AI for regulatory submissions and compliance
- Digital therapeutics and AI-based interventions
- Real-world evidence collection using AI
- AI ethics in clinical research

Article Title: %s
Article Description: %s

You MUST provide ALL FIVE of the following:
1. is_ai_related: true/false. Does this discuss AI/ML/advanced computational methods in clinical research?
2. A 60-word summary focusing on AI applications in clinical research
3. A 100-word insightful comment about implications, challenges, opportunities, or future directions
4. A 60-word resources section suggesting specific websites, tools, databases, or further reading
5. ai_tag: one category from the list below

AI Tags (choose the most appropriate one):
- "Machine Learning"
- "Natural Language Processing"
- "Computer Vision"
- "Predictive Analytics"
- "Digital Biomarkers"
- "AI Diagnostics"
- "Clinical Decision Support"
- "Drug Discovery AI"
- "Trial Optimization"
- "Regulatory AI"
- "Digital Therapeutics"
- "Generative AI"
- "AI Ethics"

Resources must be DIRECTLY RELATED to this specific article's content, authors, methods, or medical area, not generic AI reading lists.

Respond with ONLY this JSON:
{
    "is_ai_related": true/false,
    "summary": "Your 60-word summary focusing on AI aspects",
    "comment": "Your 100-word comment about implications, challenges, and opportunities",
    "resources": "Your 60-word article-specific resources",
    "ai_tag": "One of the tags from the list above"
}`

const (
	maxAttempts      = 3
	descriptionLimit = 500

	summaryWords   = 60
	commentWords   = 100
	resourcesWords = 60
)

// Result holds the results of a classification run.
type Result struct {
	Processed int
	Relevant  int
	Skipped   int
	Dropped   int
}

// Classifier classifies candidates using an LLM provider.
type Classifier struct {
	provider  llm.Provider
	log       *audit.Logger
	maxTokens int
}

// New creates a Classifier.
func New(provider llm.Provider, auditLog *audit.Logger, maxTokens int) *Classifier {
	if maxTokens <= 0 {
		maxTokens = 500
	}
	if auditLog == nil {
		auditLog = audit.Discard()
	}
	return &Classifier{provider: provider, log: auditLog, maxTokens: maxTokens}
}

// Classify judges every candidate and returns the relevant ones as
// articles. Candidates whose responses never pass validation are dropped,
// never fatal to the run.
func (cl *Classifier) Classify(ctx context.Context, candidates []model.Candidate) ([]model.Article, *Result) {
	result := &Result{}
	var articles []model.Article

	if cl.provider == nil {
		result.Dropped = len(candidates)
		cl.log.Error("classification_unavailable", "candidates", len(candidates))
		log.Printf("No LLM provider available, dropping %d candidates", len(candidates))
		return nil, result
	}

	for _, c := range candidates {
		p, err := cl.classifyOne(ctx, c)
		if err != nil {
			result.Dropped++
			cl.log.Error("classification_failed",
				"candidate_id", c.ID,
				"title", c.Title,
				"error", err.Error())
			log.Printf("Classification failed for %q after %d attempts: %v", c.Title, maxAttempts, err)
			continue
		}

		result.Processed++
		if !p.Relevant {
			result.Skipped++
			cl.log.Event("classified_not_relevant", "candidate_id", c.ID, "title", c.Title)
			continue
		}

		result.Relevant++
		articles = append(articles, model.Article{
			Candidate:      c,
			Classification: applyLimits(p),
		})
		log.Printf("Classified [%s]: %s", articles[len(articles)-1].Tag, c.Title)
	}

	log.Printf("Classification complete: %d processed (%d relevant, %d not relevant), %d dropped",
		result.Processed, result.Relevant, result.Skipped, result.Dropped)
	return articles, result
}

func (cl *Classifier) classifyOne(ctx context.Context, c model.Candidate) (payload, error) {
	description := c.Description
	if len(description) > descriptionLimit {
		cut := descriptionLimit
		for cut > 0 && !utf8.RuneStart(description[cut]) {
			cut--
		}
		description = description[:cut]
	}
	prompt := fmt.Sprintf(classifyPrompt, c.Title, description)

	return retry(maxAttempts,
		func() (string, error) {
			return cl.provider.Generate(ctx, prompt, cl.maxTokens)
		},
		func(raw string) (payload, error) {
			return validatePayload(llm.ParseJSONResponse(raw))
		},
		func(a Attempt) {
			if a.Err != nil {
				cl.log.Warn("classification_attempt",
					"candidate_id", c.ID,
					"attempt", a.Number,
					"raw", a.Raw,
					"error", a.Err.Error())
				return
			}
			cl.log.Event("classification_attempt",
				"candidate_id", c.ID,
				"attempt", a.Number,
				"raw", a.Raw)
		})
}

// applyLimits sanitizes every text field and enforces the per-field word
// budgets.
func applyLimits(p payload) model.Classification {
	return model.Classification{
		Relevant:  true,
		Summary:   textutil.LimitWords(textutil.Sanitize(p.Summary), summaryWords),
		Comment:   textutil.LimitWords(textutil.Sanitize(p.Comment), commentWords),
		Resources: textutil.LimitWords(textutil.Sanitize(p.Resources), resourcesWords),
		Tag:       textutil.Sanitize(p.Tag),
	}
}
