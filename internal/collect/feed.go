package collect

import (
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/google/uuid"
	"github.com/mmcdole/gofeed"

	"clinbrief/internal/model"
	"clinbrief/internal/textutil"
)

// sourceNames maps feed domains to display names. Unknown domains fall
// back to a capitalized hostname.
var sourceNames = map[string]string{
	"clinicaltrials.gov":             "ClinicalTrials.gov",
	"fda.gov":                        "FDA",
	"nih.gov":                        "NIH",
	"nature.com":                     "Nature Medicine",
	"nejm.org":                       "NEJM",
	"biopharmadive.com":              "BioPharma Dive",
	"raps.org":                       "RAPS",
	"clinicalresearchnewsonline.com": "Clinical Research News",
	"endpts.com":                     "Endpoints News",
	"centerwatch.com":                "CenterWatch Weekly",
	"appliedclinicaltrialsonline.com": "Applied Clinical Trials",
	"clinicaltrialsarena.com":        "Clinical Trials Arena",
	"outsourcing-pharma.com":         "Outsourcing-Pharma",
	"acrpnet.org":                    "ACRP Blog",
	"pubmed.ncbi.nlm.nih.gov":        "PubMed",
}

// FeedConfig is a single feed to poll.
type FeedConfig struct {
	URL  string
	Name string
}

// FeedParser parses RSS/Atom feeds into candidates.
type FeedParser struct {
	parser *gofeed.Parser
	now    func() time.Time
}

// NewFeedParser creates a FeedParser. now is injectable for tests.
func NewFeedParser(now func() time.Time) *FeedParser {
	if now == nil {
		now = time.Now
	}
	return &FeedParser{parser: gofeed.NewParser(), now: now}
}

// Parse fetches one feed and returns up to maxItems candidates published
// after cutoff, newest first.
func (fp *FeedParser) Parse(fc FeedConfig, maxItems int, cutoff time.Time) ([]model.Candidate, error) {
	feed, err := fp.parser.ParseURL(fc.URL)
	if err != nil {
		return nil, err
	}

	name := fc.Name
	if name == "" {
		name = SourceName(fc.URL)
	}

	var candidates []model.Candidate
	for _, item := range feed.Items {
		c, ok := fp.itemToCandidate(item, name)
		if !ok {
			continue
		}
		if c.PublishedAt.Before(cutoff) {
			continue // older than the window, expected
		}
		candidates = append(candidates, c)
	}

	// Newest first before applying the per-source cap, so the cap keeps
	// the most recent items rather than feed order.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].PublishedAt.After(candidates[j].PublishedAt)
	})
	if len(candidates) > maxItems {
		candidates = candidates[:maxItems]
	}
	return candidates, nil
}

func (fp *FeedParser) itemToCandidate(item *gofeed.Item, source string) (model.Candidate, bool) {
	link := item.Link
	if link == "" {
		link = item.GUID
	}
	title := textutil.Sanitize(item.Title)
	if link == "" || title == "" {
		return model.Candidate{}, false
	}

	published, defaulted := fp.parseDate(item)

	description := item.Description
	if description == "" {
		description = item.Content
	}

	return model.Candidate{
		ID:            uuid.NewString(),
		Title:         title,
		Description:   textutil.Sanitize(description),
		Link:          link,
		PublishedAt:   published,
		DateDefaulted: defaulted,
		Source:        source,
	}, true
}

// parseDate resolves the publication time from whatever the feed offers.
// Unparseable or missing dates default to now; that policy is recorded on
// the candidate, not treated as an error.
func (fp *FeedParser) parseDate(item *gofeed.Item) (time.Time, bool) {
	if item.PublishedParsed != nil {
		return *item.PublishedParsed, false
	}
	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed, false
	}
	for _, raw := range []string{item.Published, item.Updated} {
		if raw == "" {
			continue
		}
		if t, err := dateparse.ParseAny(raw); err == nil {
			return t, false
		}
	}
	return fp.now(), true
}

// SourceName resolves a feed URL to its display name.
func SourceName(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil {
		return "Unknown"
	}
	host := strings.ToLower(u.Hostname())

	if name, ok := sourceNames[host]; ok {
		return name
	}
	// Longest suffix wins so pubmed.ncbi.nlm.nih.gov is never claimed by
	// the shorter nih.gov entry. Equal-length suffixes of one host cannot
	// differ, so the result is deterministic.
	var bestDomain, bestName string
	for domain, name := range sourceNames {
		if strings.HasSuffix(host, "."+domain) && len(domain) > len(bestDomain) {
			bestDomain, bestName = domain, name
		}
	}
	if bestDomain != "" {
		return bestName
	}

	for _, prefix := range []string{"www.", "feeds.", "rss."} {
		host = strings.TrimPrefix(host, prefix)
	}
	if host == "" {
		return "Unknown"
	}
	parts := strings.Split(host, ".")
	name := parts[0]
	if len(parts) >= 2 {
		name = parts[len(parts)-2]
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
