package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"clinbrief/internal/audit"
	"clinbrief/internal/brief"
	"clinbrief/internal/config"
	"clinbrief/internal/database"
)

type mockProvider struct {
	response string
	calls    int
}

func (m *mockProvider) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	m.calls++
	return m.response, nil
}

func (m *mockProvider) IsConfigured() bool { return true }

const relevantResponse = `{
	"is_ai_related": true,
	"summary": "A study found ChatGPT can draft clinical trial protocols quickly while keeping investigators in the review loop.",
	"comment": "Generative drafting shifts effort from writing to verification and will force sponsors to define review standards for model-written documents.",
	"resources": "PubMed: large language model protocol drafting. ClinicalTrials.gov: generative AI documentation studies.",
	"ai_tag": "Generative AI"
}`

func feedServer(t *testing.T, title, description string) *httptest.Server {
	t.Helper()
	pubDate := time.Now().AddDate(0, 0, -2).Format(time.RFC1123Z)
	rss := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel>
<title>Test Feed</title>
<item>
<title>%s</title>
<link>https://example.com/article-1</link>
<description>%s</description>
<pubDate>%s</pubDate>
</item>
</channel></rss>`, title, description, pubDate)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(rss))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, feedURL string) *config.Config {
	t.Helper()
	dataDir := t.TempDir()
	return &config.Config{
		Sources: config.Sources{
			Feeds:        []config.Feed{{URL: feedURL, Name: "Test Feed"}},
			DefaultLimit: 10,
		},
		Window:         config.Window{DaysBack: 30, MaxItems: 40},
		Classification: config.Classification{MaxTokens: 500},
		Output:         config.Output{DataDir: dataDir},
	}
}

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRunRelevantArticleEndToEnd(t *testing.T) {
	srv := feedServer(t,
		"ChatGPT used to draft clinical trial protocol, study finds",
		"A clinical trial team used a large language model to draft protocol documents, cutting drafting time and raising oversight questions for investigators and sponsors.")

	cfg := testConfig(t, srv.URL+"/feed.xml")
	db := openTestDB(t)
	provider := &mockProvider{response: relevantResponse}

	p := New(cfg, db, provider, audit.Discard())
	result := p.Run(context.Background(), "2026-08-29", 30)

	for _, step := range result.Steps {
		if step.Err != nil {
			t.Fatalf("step %s failed: %v", step.Name, step.Err)
		}
	}
	if provider.calls != 1 {
		t.Errorf("expected 1 classifier call, got %d", provider.calls)
	}

	data, err := os.ReadFile(filepath.Join(cfg.BriefsPath(), "2026-08-29.json"))
	if err != nil {
		t.Fatalf("reading exported brief: %v", err)
	}
	var doc brief.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decoding brief: %v", err)
	}
	if doc.TotalItems != 1 {
		t.Fatalf("expected exactly 1 item, got %d", doc.TotalItems)
	}
	if doc.Items[0].Tag != "Generative AI" {
		t.Errorf("expected tag 'Generative AI', got %q", doc.Items[0].Tag)
	}
	if doc.Items[0].Link != "https://example.com/article-1" {
		t.Errorf("unexpected link %q", doc.Items[0].Link)
	}

	// archive side effects
	stored, err := db.GetArticleByURL("https://example.com/article-1")
	if err != nil || stored == nil {
		t.Fatalf("expected archived article, err=%v", err)
	}
	cls, _ := db.GetClassification(stored.ID)
	if cls == nil || !cls.Relevant {
		t.Error("expected archived classification")
	}
	last, _ := db.GetLastRunDate()
	if last != "2026-08-29" {
		t.Errorf("expected run report for 2026-08-29, got %q", last)
	}

	// rendered page
	page, err := os.ReadFile(filepath.Join(cfg.SitePath(), "index.html"))
	if err != nil {
		t.Fatalf("reading site page: %v", err)
	}
	if !strings.Contains(string(page), "ChatGPT used to draft clinical trial protocol") {
		t.Error("page missing article title")
	}
}

func TestRunScreenedOutArticleNeverClassified(t *testing.T) {
	srv := feedServer(t,
		"New hospital wing opens",
		"The ribbon cutting ceremony drew hundreds of residents and local officials to celebrate the expansion of the regional hospital campus this week.")

	cfg := testConfig(t, srv.URL+"/feed.xml")
	provider := &mockProvider{response: relevantResponse}

	p := New(cfg, nil, provider, audit.Discard())
	p.Run(context.Background(), "2026-08-29", 30)

	if provider.calls != 0 {
		t.Errorf("classifier should never be invoked, got %d calls", provider.calls)
	}

	data, err := os.ReadFile(filepath.Join(cfg.BriefsPath(), "2026-08-29.json"))
	if err != nil {
		t.Fatalf("reading exported brief: %v", err)
	}
	var doc brief.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decoding brief: %v", err)
	}
	if doc.TotalItems != 0 {
		t.Errorf("expected empty brief, got %d items", doc.TotalItems)
	}
}

func TestRunMalformedClassifierResponsesDropCandidate(t *testing.T) {
	srv := feedServer(t,
		"ChatGPT used to draft clinical trial protocol, study finds",
		"A clinical trial team used a large language model to draft protocol documents, cutting drafting time and raising oversight questions for investigators and sponsors.")

	cfg := testConfig(t, srv.URL+"/feed.xml")
	var logBuf bytes.Buffer
	provider := &mockProvider{response: "sorry, I cannot respond in JSON today"}

	p := New(cfg, nil, provider, audit.New(&logBuf))
	p.Run(context.Background(), "2026-08-29", 30)

	if provider.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", provider.calls)
	}

	warns, errs := 0, 0
	for _, line := range strings.Split(strings.TrimSpace(logBuf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec struct {
			Level string `json:"level"`
			Msg   string `json:"msg"`
		}
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Fatalf("bad audit record %q: %v", line, err)
		}
		switch {
		case rec.Level == "WARN" && rec.Msg == "classification_attempt":
			warns++
		case rec.Level == "ERROR" && rec.Msg == "classification_failed":
			errs++
		}
	}
	if warns != 3 {
		t.Errorf("expected 3 attempt-failure records, got %d", warns)
	}
	if errs != 1 {
		t.Errorf("expected 1 final-failure record, got %d", errs)
	}

	data, err := os.ReadFile(filepath.Join(cfg.BriefsPath(), "2026-08-29.json"))
	if err != nil {
		t.Fatalf("reading exported brief: %v", err)
	}
	var doc brief.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decoding brief: %v", err)
	}
	if doc.TotalItems != 0 {
		t.Errorf("dropped candidate must not be exported, got %d items", doc.TotalItems)
	}
}

func TestExportSurvivesArchiveFailure(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:0/feed.xml")
	db := openTestDB(t)
	p := New(cfg, db, &mockProvider{}, audit.Discard())
	db.Close()

	step := p.export(nil, "2026-08-29")
	if step.Err != nil {
		t.Fatalf("export must not fail when the archive write does: %v", step.Err)
	}
	if _, err := os.Stat(filepath.Join(cfg.BriefsPath(), "2026-08-29.json")); err != nil {
		t.Errorf("brief JSON not written: %v", err)
	}
}

func TestDryRunReportsWithoutFetching(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer srv.Close()

	cfg := testConfig(t, srv.URL+"/feed.xml")
	db := openTestDB(t)

	p := New(cfg, db, &mockProvider{}, audit.Discard())
	result := p.DryRun("2026-08-29")

	if requests != 0 {
		t.Errorf("dry run must not fetch, got %d requests", requests)
	}
	if len(result.Steps) == 0 {
		t.Fatal("expected dry-run steps")
	}
	if !strings.Contains(result.Steps[0].Summary, "1 feeds") {
		t.Errorf("unexpected summary %q", result.Steps[0].Summary)
	}
}
