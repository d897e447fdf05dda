package database

import (
	"path/filepath"
	"testing"
	"time"

	"clinbrief/internal/model"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testCandidate(link string) model.Candidate {
	return model.Candidate{
		ID:          "uid-" + link,
		Title:       "Test Article",
		Description: "A test description.",
		Link:        link,
		PublishedAt: time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC),
		Source:      "FDA",
	}
}

func TestInsertArticle(t *testing.T) {
	db := openTestDB(t)
	id, err := db.InsertArticle("2026-08-29", testCandidate("https://example.com/test"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == 0 {
		t.Error("expected non-zero article ID")
	}
}

func TestInsertDuplicateArticle(t *testing.T) {
	db := openTestDB(t)
	_, _ = db.InsertArticle("2026-08-29", testCandidate("https://example.com/dup"))
	id, err := db.InsertArticle("2026-08-29", testCandidate("https://example.com/dup"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 0 {
		t.Error("expected 0 for duplicate article")
	}
}

func TestGetArticlesForRun(t *testing.T) {
	db := openTestDB(t)
	db.InsertArticle("2026-08-29", testCandidate("https://a.com"))
	db.InsertArticle("2026-08-29", testCandidate("https://b.com"))
	db.InsertArticle("2026-08-28", testCandidate("https://c.com"))

	articles, err := db.GetArticlesForRun("2026-08-29")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(articles) != 2 {
		t.Errorf("expected 2 articles, got %d", len(articles))
	}
}

func TestGetArticleByURL(t *testing.T) {
	db := openTestDB(t)
	c := testCandidate("https://a.com")
	c.DateDefaulted = true
	db.InsertArticle("2026-08-29", c)

	a, err := db.GetArticleByURL("https://a.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a == nil {
		t.Fatal("expected article")
	}
	if !a.DateDefaulted {
		t.Error("expected date_defaulted to round-trip")
	}

	missing, err := db.GetArticleByURL("https://nowhere.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for unknown URL")
	}
}

func TestClassificationLifecycle(t *testing.T) {
	db := openTestDB(t)
	id, _ := db.InsertArticle("2026-08-29", testCandidate("https://a.com"))

	err := db.InsertClassification(id, model.Classification{
		Relevant:  true,
		Summary:   "ML screening cuts chart review time.",
		Comment:   "Shifts workload to algorithms.",
		Resources: "PubMed: ML enrollment",
		Tag:       "Trial Optimization",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c, err := db.GetClassification(id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c == nil {
		t.Fatal("expected classification")
	}
	if !c.Relevant {
		t.Error("expected relevant")
	}
	if c.Tag == nil || *c.Tag != "Trial Optimization" {
		t.Errorf("unexpected tag %v", c.Tag)
	}
}

func TestBriefLifecycle(t *testing.T) {
	db := openTestDB(t)
	_, err := db.InsertBrief("2026-08-29", `{"brief_date":"2026-08-29","items":[]}`, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	b, _ := db.GetBrief("2026-08-29")
	if b == nil {
		t.Fatal("expected brief")
	}
	if b.ItemCount != 5 {
		t.Errorf("expected 5 items, got %d", b.ItemCount)
	}

	// replacing the same date keeps one row
	db.InsertBrief("2026-08-29", `{"brief_date":"2026-08-29","items":[]}`, 7)
	all, _ := db.GetAllBriefs()
	if len(all) != 1 {
		t.Errorf("expected 1 brief, got %d", len(all))
	}
	if all[0].ItemCount != 7 {
		t.Errorf("expected replaced item count 7, got %d", all[0].ItemCount)
	}
}

func TestGetLastRunDate(t *testing.T) {
	db := openTestDB(t)

	last, err := db.GetLastRunDate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if last != "" {
		t.Errorf("expected empty string, got %q", last)
	}

	db.InsertRunReport(RunReport{RunDate: "2026-08-27", Collected: 40})
	db.InsertRunReport(RunReport{RunDate: "2026-08-29", Collected: 35})
	last, _ = db.GetLastRunDate()
	if last != "2026-08-29" {
		t.Errorf("expected '2026-08-29', got %q", last)
	}
}

func TestGetStats(t *testing.T) {
	db := openTestDB(t)
	stats, err := db.GetStats()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TotalArticles != 0 {
		t.Errorf("expected 0 articles, got %d", stats.TotalArticles)
	}

	id, _ := db.InsertArticle("2026-08-29", testCandidate("https://a.com"))
	db.InsertClassification(id, model.Classification{Relevant: true, Summary: "s"})
	db.InsertBrief("2026-08-29", "{}", 1)

	stats, _ = db.GetStats()
	if stats.TotalArticles != 1 || stats.RelevantArticles != 1 || stats.Briefs != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
}
