// Package collect gathers raw article candidates from RSS feeds and
// search sources. A single source failing reduces yield but never aborts
// the run.
package collect

import (
	"context"
	"log"
	"time"

	"clinbrief/internal/audit"
	"clinbrief/internal/config"
	"clinbrief/internal/model"
)

// searchDelay is a self-imposed rate limit between consecutive
// search-API calls.
const searchDelay = 100 * time.Millisecond

// Result summarizes a collection run.
type Result struct {
	Candidates []model.Candidate
	TotalFound int
	Duplicates int
	Failures   int
	Sources    map[string]int
}

// Collector orchestrates candidate collection from all configured sources.
type Collector struct {
	feeds         []config.Feed
	limits        map[string]int
	defaultLimit  int
	feedParser    *FeedParser
	news          *NewsAPIClient
	newsQueries   []string
	newsMax       int
	pubmed        *PubMedClient
	pubmedQueries []string
	pubmedMax     int
	daysBack      int
	log           *audit.Logger
	now           func() time.Time
	sleep         func(time.Duration)
}

// New creates a collector from configuration.
func New(cfg *config.Config, auditLog *audit.Logger, daysBack int) *Collector {
	if auditLog == nil {
		auditLog = audit.Discard()
	}
	c := &Collector{
		feeds:        cfg.Sources.Feeds,
		limits:       cfg.Sources.Limits,
		defaultLimit: cfg.Sources.DefaultLimit,
		feedParser:   NewFeedParser(nil),
		daysBack:     daysBack,
		log:          auditLog,
		now:          time.Now,
		sleep:        time.Sleep,
	}
	if c.defaultLimit <= 0 {
		c.defaultLimit = 4
	}

	if cfg.Sources.NewsAPI.Enabled {
		c.news = NewNewsAPIClient(cfg.Sources.NewsAPI.APIKeyEnv)
		c.newsQueries = cfg.Sources.NewsAPI.Queries
		c.newsMax = cfg.Sources.NewsAPI.MaxResults
	}
	if cfg.Sources.PubMed.Enabled {
		c.pubmed = NewPubMedClient()
		c.pubmedQueries = cfg.Sources.PubMed.Queries
		c.pubmedMax = cfg.Sources.PubMed.MaxResults
	}
	return c
}

// Collect fetches all sources, drops items outside the recency window,
// and deduplicates by link (first occurrence wins).
func (c *Collector) Collect(ctx context.Context) *Result {
	r := &Result{Sources: make(map[string]int)}
	cutoff := c.now().AddDate(0, 0, -c.daysBack)

	var all []model.Candidate

	for _, fc := range c.feeds {
		name := fc.Name
		if name == "" {
			name = SourceName(fc.URL)
		}
		limit := c.limits[name]
		if limit <= 0 {
			limit = c.defaultLimit
		}

		entries, err := c.feedParser.Parse(FeedConfig{URL: fc.URL, Name: name}, limit, cutoff)
		if err != nil {
			c.log.Warn("source_fetch_failed", "source", name, "feed_url", fc.URL, "error", err.Error())
			log.Printf("Failed to parse feed %s: %v", fc.URL, err)
			r.Failures++
			continue
		}
		all = append(all, entries...)
		r.Sources[name] += len(entries)
		c.log.Event("source_fetched", "source", name, "feed_url", fc.URL,
			"fetched", len(entries), "max_allowed", limit)
	}

	all = append(all, c.collectNews(ctx, r)...)
	all = append(all, c.collectPubMed(ctx, r)...)

	r.TotalFound = len(all)
	r.Candidates = Dedupe(all)
	r.Duplicates = r.TotalFound - len(r.Candidates)

	c.log.Event("fetch_summary", "total_found", r.TotalFound,
		"unique", len(r.Candidates), "duplicates", r.Duplicates, "failed_sources", r.Failures)
	log.Printf("Collection complete: %d found, %d unique, %d duplicates, %d source failures",
		r.TotalFound, len(r.Candidates), r.Duplicates, r.Failures)
	return r
}

func (c *Collector) collectNews(ctx context.Context, r *Result) []model.Candidate {
	if c.news == nil || !c.news.IsConfigured() {
		return nil
	}

	var all []model.Candidate
	for i, query := range c.newsQueries {
		if i > 0 {
			c.sleep(searchDelay)
		}
		found, err := c.news.Search(ctx, query, c.daysBack, c.newsMax)
		if err != nil {
			c.log.Warn("source_fetch_failed", "source", "NewsAPI", "query", query, "error", err.Error())
			log.Printf("NewsAPI search failed for %q: %v", query, err)
			r.Failures++
			continue
		}
		all = append(all, found...)
		r.Sources["NewsAPI"] += len(found)
		c.log.Event("source_fetched", "source", "NewsAPI", "query", query, "fetched", len(found))
	}
	return all
}

func (c *Collector) collectPubMed(ctx context.Context, r *Result) []model.Candidate {
	if c.pubmed == nil {
		return nil
	}

	var all []model.Candidate
	for i, query := range c.pubmedQueries {
		if i > 0 {
			c.sleep(searchDelay)
		}
		found, err := c.pubmed.Search(ctx, query, c.daysBack, c.pubmedMax)
		if err != nil {
			c.log.Warn("source_fetch_failed", "source", "PubMed", "query", query, "error", err.Error())
			log.Printf("PubMed search failed for %q: %v", query, err)
			r.Failures++
			continue
		}
		all = append(all, found...)
		r.Sources["PubMed"] += len(found)
		c.log.Event("source_fetched", "source", "PubMed", "query", query, "fetched", len(found))
	}
	return all
}

// Dedupe removes candidates with repeated links, keeping the first
// occurrence of each.
func Dedupe(candidates []model.Candidate) []model.Candidate {
	seen := make(map[string]struct{}, len(candidates))
	var unique []model.Candidate
	for _, c := range candidates {
		if _, ok := seen[c.Link]; ok {
			continue
		}
		seen[c.Link] = struct{}{}
		unique = append(unique, c)
	}
	return unique
}
