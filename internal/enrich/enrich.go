// Package enrich fills in thin candidate descriptions with readable page
// text extracted from the article itself.
package enrich

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"clinbrief/internal/audit"
	"clinbrief/internal/model"
	"clinbrief/internal/textutil"
)

const (
	// minDescription is the length below which a description is considered
	// too thin to classify well.
	minDescription = 80

	// maxDescription caps extracted page text before it reaches the
	// classifier.
	maxDescription = 1200

	userAgent = "clinbrief/1.0 (content pipeline)"
)

// Result holds the outcome of an enrichment run.
type Result struct {
	Enriched int
	Skipped  int
	Failed   int
}

// Enricher fetches article pages and extracts body text via readability.
type Enricher struct {
	client *http.Client
	log    *audit.Logger
}

// New creates an Enricher.
func New(auditLog *audit.Logger, timeout time.Duration) *Enricher {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	if auditLog == nil {
		auditLog = audit.Discard()
	}
	return &Enricher{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		log: auditLog,
	}
}

// Enrich replaces thin descriptions with extracted page text. Candidates
// that already carry enough text are left alone. A domain that returns an
// HTTP error is skipped for the rest of the run.
func (e *Enricher) Enrich(ctx context.Context, candidates []model.Candidate) ([]model.Candidate, *Result) {
	result := &Result{}
	failedDomains := make(map[string]struct{})

	out := make([]model.Candidate, len(candidates))
	for i, c := range candidates {
		out[i] = c
		if len(c.Description) >= minDescription {
			result.Skipped++
			continue
		}

		domain := linkDomain(c.Link)
		if _, failed := failedDomains[domain]; failed {
			result.Failed++
			continue
		}

		text, httpErr := e.extract(ctx, c.Link)
		if httpErr != nil {
			result.Failed++
			if domain != "" {
				failedDomains[domain] = struct{}{}
			}
			log.Printf("HTTP error for %s, skipping remaining from %s", c.Link, domain)
			e.log.Warn("enrich_domain_failed", "domain", domain, "link", c.Link)
			continue
		}

		if text == "" {
			result.Failed++
			continue
		}

		out[i].Description = text
		result.Enriched++
	}

	e.log.Event("enrich_summary",
		"enriched", result.Enriched,
		"skipped", result.Skipped,
		"failed", result.Failed)
	return out, result
}

// extract fetches the page and runs readability over it. Connection and
// parse failures return empty text; only HTTP status errors are returned,
// since those mark the whole domain as unreachable.
func (e *Enricher) extract(ctx context.Context, link string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", link, nil)
	if err != nil {
		return "", nil
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", nil
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", &httpError{code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil
	}

	parsedURL, _ := url.Parse(link)
	page, err := readability.FromReader(strings.NewReader(string(body)), parsedURL)
	if err != nil {
		return "", nil
	}

	text := textutil.Sanitize(page.TextContent)
	if len(text) < minDescription {
		return "", nil
	}
	if len(text) > maxDescription {
		text = truncateAtSpace(text, maxDescription)
	}
	return text, nil
}

func linkDomain(link string) string {
	u, err := url.Parse(link)
	if err != nil || u == nil {
		return ""
	}
	return strings.ToLower(u.Host)
}

// truncateAtSpace cuts text at the last space before limit so the cap does
// not split a word.
func truncateAtSpace(text string, limit int) string {
	cut := text[:limit]
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return cut
}

type httpError struct {
	code int
}

func (e *httpError) Error() string {
	return http.StatusText(e.code)
}
