package collect

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"

	"clinbrief/internal/model"
)

func TestDedupeKeepsFirstOccurrence(t *testing.T) {
	candidates := []model.Candidate{
		{ID: "a", Link: "https://example.com/1", Source: "FDA"},
		{ID: "b", Link: "https://example.com/2"},
		{ID: "c", Link: "https://example.com/1", Source: "NIH"},
		{ID: "d", Link: "https://example.com/2"},
		{ID: "e", Link: "https://example.com/3"},
	}

	unique := Dedupe(candidates)
	if len(unique) != 3 {
		t.Fatalf("expected 3 unique candidates, got %d", len(unique))
	}

	seen := make(map[string]int)
	for _, c := range unique {
		seen[c.Link]++
	}
	for link, n := range seen {
		if n != 1 {
			t.Errorf("link %s appears %d times", link, n)
		}
	}

	if unique[0].ID != "a" || unique[0].Source != "FDA" {
		t.Errorf("expected first occurrence to win, got %+v", unique[0])
	}
}

func TestSourceName(t *testing.T) {
	cases := []struct {
		url, want string
	}{
		{"https://clinicaltrials.gov/ct2/results/rss.xml", "ClinicalTrials.gov"},
		{"https://www.fda.gov/feed.xml", "FDA"},
		{"https://clinicalcenter.nih.gov/rss/news.xml", "NIH"},
		{"https://www.nature.com/nm.rss", "Nature Medicine"},
		{"https://www.nejm.org/feed", "NEJM"},
		{"https://pubmed.ncbi.nlm.nih.gov/search", "PubMed"},
		// Hosts matching several entries resolve to the longest suffix.
		{"https://rss.pubmed.ncbi.nlm.nih.gov/feed", "PubMed"},
		{"https://www.example.com/feed.xml", "Example"},
	}
	for _, tc := range cases {
		if got := SourceName(tc.url); got != tc.want {
			t.Errorf("SourceName(%q) = %q, want %q", tc.url, got, tc.want)
		}
	}
}

func TestItemToCandidateDateFallback(t *testing.T) {
	fixed := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	fp := NewFeedParser(func() time.Time { return fixed })

	c, ok := fp.itemToCandidate(&gofeed.Item{
		Title:     "Some title",
		Link:      "https://example.com/a",
		Published: "not a date at all",
	}, "Test")
	if !ok {
		t.Fatal("expected candidate")
	}
	if !c.DateDefaulted {
		t.Error("expected DateDefaulted for unparseable date")
	}
	if !c.PublishedAt.Equal(fixed) {
		t.Errorf("expected PublishedAt=now, got %v", c.PublishedAt)
	}
}

func TestItemToCandidateParsesLooseDates(t *testing.T) {
	fp := NewFeedParser(nil)
	c, ok := fp.itemToCandidate(&gofeed.Item{
		Title:     "Some title",
		Link:      "https://example.com/a",
		Published: "2026-08-20 14:00:00",
	}, "Test")
	if !ok {
		t.Fatal("expected candidate")
	}
	if c.DateDefaulted {
		t.Error("expected date to parse")
	}
	if c.PublishedAt.Day() != 20 {
		t.Errorf("unexpected date %v", c.PublishedAt)
	}
}

func TestItemToCandidateRequiresTitleAndLink(t *testing.T) {
	fp := NewFeedParser(nil)
	if _, ok := fp.itemToCandidate(&gofeed.Item{Title: "no link"}, "T"); ok {
		t.Error("expected rejection without link")
	}
	if _, ok := fp.itemToCandidate(&gofeed.Item{Link: "https://x.com"}, "T"); ok {
		t.Error("expected rejection without title")
	}
}

func TestItemToCandidateSanitizesText(t *testing.T) {
	fp := NewFeedParser(nil)
	c, _ := fp.itemToCandidate(&gofeed.Item{
		Title:       "AI <b>tool</b> approved",
		Link:        "https://example.com/a",
		Description: "<p>It  uses “machine learning”</p>",
	}, "Test")
	if c.Title != "AI tool approved" {
		t.Errorf("unexpected title %q", c.Title)
	}
	if c.Description != `It uses "machine learning"` {
		t.Errorf("unexpected description %q", c.Description)
	}
}

func TestNewsAPISearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") != "test-key" {
			t.Errorf("missing api key header")
		}
		if got := r.URL.Query().Get("q"); got != "ai clinical trials" {
			t.Errorf("unexpected query %q", got)
		}
		w.Write([]byte(`{
			"status": "ok",
			"articles": [
				{"url": "https://example.com/a", "title": "AI in trials",
				 "publishedAt": "2026-08-20T10:00:00Z", "description": "desc",
				 "source": {"name": "Example News"}},
				{"url": "", "title": "dropped"},
				{"url": "https://example.com/b", "title": "No date item",
				 "source": {"name": ""}}
			]
		}`))
	}))
	defer srv.Close()

	t.Setenv("NEWSAPI_TEST_KEY", "test-key")
	client := NewNewsAPIClient("NEWSAPI_TEST_KEY")
	client.baseURL = srv.URL

	got, err := client.Search(context.Background(), "ai clinical trials", 30, 50)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}
	if got[0].Source != "Example News" || got[0].SearchQuery != "ai clinical trials" {
		t.Errorf("unexpected first candidate %+v", got[0])
	}
	if got[0].DateDefaulted {
		t.Error("expected parsed date on first candidate")
	}
	if !got[1].DateDefaulted || got[1].Source != "NewsAPI" {
		t.Errorf("expected defaulted date and fallback source, got %+v", got[1])
	}
}

func TestNewsAPISearchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	t.Setenv("NEWSAPI_TEST_KEY", "test-key")
	client := NewNewsAPIClient("NEWSAPI_TEST_KEY")
	client.baseURL = srv.URL

	if _, err := client.Search(context.Background(), "q", 30, 50); err == nil {
		t.Error("expected error on HTTP 429")
	}
}

func TestPubMedSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/esearch.fcgi":
			w.Write([]byte(`{"esearchresult": {"idlist": ["11111", "22222"]}}`))
		case r.URL.Path == "/esummary.fcgi":
			w.Write([]byte(`{
				"result": {
					"uids": ["11111", "22222"],
					"11111": {"title": "Machine learning for trial enrollment.",
						"sortpubdate": "2026/08/15",
						"fulljournalname": "Journal of Clinical Trials",
						"authors": [{"name": "Smith J"}, {"name": "Doe A"}]},
					"22222": {"title": "Deep learning imaging endpoints.",
						"pubdate": "2026 Aug 10",
						"fulljournalname": "Nature Medicine",
						"authors": []}
				}
			}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	client := NewPubMedClient()
	client.baseURL = srv.URL

	got, err := client.Search(context.Background(), "machine learning AND clinical trial", 30, 20)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}
	if got[0].Link != "https://pubmed.ncbi.nlm.nih.gov/11111/" {
		t.Errorf("unexpected link %q", got[0].Link)
	}
	if got[0].Source != "PubMed" || got[0].DateDefaulted {
		t.Errorf("unexpected candidate %+v", got[0])
	}
	if got[0].Description == "" {
		t.Error("expected authors/journal description")
	}
}

func TestPubMedSearchNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"esearchresult": {"idlist": []}}`))
	}))
	defer srv.Close()

	client := NewPubMedClient()
	client.baseURL = srv.URL

	got, err := client.Search(context.Background(), "q", 30, 20)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no candidates, got %d", len(got))
	}
}
