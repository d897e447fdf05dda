// Package pipeline orchestrates one curation run: collect, enrich,
// screen, classify, rank, export.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"clinbrief/internal/audit"
	"clinbrief/internal/brief"
	"clinbrief/internal/classify"
	"clinbrief/internal/collect"
	"clinbrief/internal/config"
	"clinbrief/internal/database"
	"clinbrief/internal/enrich"
	"clinbrief/internal/llm"
	"clinbrief/internal/model"
	"clinbrief/internal/rank"
	"clinbrief/internal/screen"
)

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of a full pipeline run.
type Result struct {
	RunDate string
	Steps   []StepResult
}

// Pipeline carries everything one run needs as explicit fields. Nothing
// here is shared across runs; construct a fresh Pipeline per run.
type Pipeline struct {
	cfg      *config.Config
	db       *database.DB
	provider llm.Provider
	log      *audit.Logger
	now      func() time.Time

	// archived maps candidate links to their archive row IDs for the
	// duration of this run.
	archived map[string]int64
}

// New creates a pipeline run context. db may be nil to skip archiving.
func New(cfg *config.Config, db *database.DB, provider llm.Provider, auditLog *audit.Logger) *Pipeline {
	if auditLog == nil {
		auditLog = audit.Discard()
	}
	return &Pipeline{
		cfg:      cfg,
		db:       db,
		provider: provider,
		log:      auditLog,
		now:      time.Now,
		archived: make(map[string]int64),
	}
}

// Run executes the full pipeline for runDate (YYYY-MM-DD).
func (p *Pipeline) Run(ctx context.Context, runDate string, daysBack int) *Result {
	r := &Result{RunDate: runDate}
	p.log.Event("run_started", "run_date", runDate, "days_back", daysBack)

	// Step 1: Collect
	log.Println("Step 1/6: Collecting candidates...")
	collector := collect.New(p.cfg, p.log, daysBack)
	collected := collector.Collect(ctx)
	p.archive(runDate, collected.Candidates)
	r.Steps = append(r.Steps, StepResult{
		Name: "Collect",
		Summary: fmt.Sprintf("Found %d candidates (%d total, %d duplicates, %d sources failed)",
			len(collected.Candidates), collected.TotalFound, collected.Duplicates, collected.Failures),
	})

	// Step 2: Enrich
	log.Println("Step 2/6: Enriching descriptions...")
	enricher := enrich.New(p.log, 0)
	candidates, enrichResult := enricher.Enrich(ctx, collected.Candidates)
	r.Steps = append(r.Steps, StepResult{
		Name:    "Enrich",
		Summary: fmt.Sprintf("Enriched %d descriptions, %d failed", enrichResult.Enriched, enrichResult.Failed),
	})

	// Step 3: Screen
	log.Println("Step 3/6: Screening candidates...")
	screened := screen.Filter(candidates, p.log)
	r.Steps = append(r.Steps, StepResult{
		Name:    "Screen",
		Summary: fmt.Sprintf("%d of %d candidates passed screening", len(screened), len(candidates)),
	})

	// Step 4: Classify
	log.Println("Step 4/6: Classifying candidates...")
	classifier := classify.New(p.provider, p.log, p.cfg.Classification.MaxTokens)
	articles, classifyResult := classifier.Classify(ctx, screened)
	p.archiveClassifications(articles)
	r.Steps = append(r.Steps, StepResult{
		Name: "Classify",
		Summary: fmt.Sprintf("Classified %d candidates: %d relevant, %d not relevant, %d dropped",
			classifyResult.Processed, classifyResult.Relevant, classifyResult.Skipped, classifyResult.Dropped),
	})

	// Step 5: Rank
	log.Println("Step 5/6: Ranking articles...")
	ranked := rank.Order(articles, p.now())
	r.Steps = append(r.Steps, StepResult{
		Name:    "Rank",
		Summary: fmt.Sprintf("Ranked %d articles", len(ranked)),
	})

	// Step 6: Export
	log.Println("Step 6/6: Exporting brief...")
	step := p.export(ranked, runDate)
	r.Steps = append(r.Steps, step)

	p.report(runDate, collected, screened, classifyResult, ranked)
	p.log.Event("run_finished", "run_date", runDate, "exported", len(ranked))
	return r
}

// DryRun reports what a run would work with, without fetching or
// classifying anything.
func (p *Pipeline) DryRun(runDate string) *Result {
	r := &Result{RunDate: runDate}

	feeds := len(p.cfg.Sources.Feeds)
	searches := 0
	if p.cfg.Sources.NewsAPI.Enabled {
		searches += len(p.cfg.Sources.NewsAPI.Queries)
	}
	if p.cfg.Sources.PubMed.Enabled {
		searches += len(p.cfg.Sources.PubMed.Queries)
	}
	r.Steps = append(r.Steps, StepResult{
		Name:    "Collect",
		Summary: fmt.Sprintf("[dry-run] would fetch %d feeds and run %d search queries", feeds, searches),
	})

	if p.db != nil {
		archived, _ := p.db.GetArticlesForRun(runDate)
		r.Steps = append(r.Steps, StepResult{
			Name:    "Archive",
			Summary: fmt.Sprintf("[dry-run] %d articles already archived for %s", len(archived), runDate),
		})

		existing, _ := p.db.GetBrief(runDate)
		if existing != nil {
			r.Steps = append(r.Steps, StepResult{
				Name:    "Export",
				Summary: fmt.Sprintf("[dry-run] brief already exists for %s and would be replaced", runDate),
			})
		} else {
			r.Steps = append(r.Steps, StepResult{
				Name:    "Export",
				Summary: fmt.Sprintf("[dry-run] would export brief for %s", runDate),
			})
		}
	}

	return r
}

func (p *Pipeline) export(ranked []model.Article, runDate string) StepResult {
	doc := brief.Build(ranked, runDate, p.now(), p.cfg.Window.MaxItems)

	jsonPath := filepath.Join(p.cfg.BriefsPath(), runDate+".json")
	if err := brief.WriteJSON(doc, jsonPath); err != nil {
		return StepResult{Name: "Export", Err: err}
	}

	htmlPath := filepath.Join(p.cfg.SitePath(), "index.html")
	if err := brief.WriteHTML(doc, htmlPath); err != nil {
		return StepResult{Name: "Export", Err: err}
	}

	if p.db != nil {
		data, err := json.Marshal(doc)
		if err != nil {
			log.Printf("Error marshaling brief for archive: %v", err)
		} else if _, err := p.db.InsertBrief(runDate, string(data), doc.TotalItems); err != nil {
			log.Printf("Error archiving brief for %s: %v", runDate, err)
		}
	}

	return StepResult{
		Name:    "Export",
		Summary: fmt.Sprintf("Exported %d articles to %s", doc.TotalItems, jsonPath),
	}
}

func (p *Pipeline) archive(runDate string, candidates []model.Candidate) {
	if p.db == nil {
		return
	}
	for _, c := range candidates {
		id, err := p.db.InsertArticle(runDate, c)
		if err != nil {
			log.Printf("Error archiving %s: %v", c.Link, err)
			continue
		}
		if id != 0 {
			p.archived[c.Link] = id
		}
	}
}

func (p *Pipeline) archiveClassifications(articles []model.Article) {
	if p.db == nil {
		return
	}
	for _, a := range articles {
		id, ok := p.archived[a.Link]
		if !ok {
			continue
		}
		if err := p.db.InsertClassification(id, a.Classification); err != nil {
			log.Printf("Error archiving classification for %s: %v", a.Link, err)
		}
	}
}

func (p *Pipeline) report(runDate string, collected *collect.Result, screened []model.Candidate, classified *classify.Result, ranked []model.Article) {
	if p.db == nil {
		return
	}
	exported := len(ranked)
	if max := p.cfg.Window.MaxItems; max > 0 && exported > max {
		exported = max
	}
	_, err := p.db.InsertRunReport(database.RunReport{
		RunDate:    runDate,
		Collected:  len(collected.Candidates),
		Screened:   len(screened),
		Classified: classified.Processed,
		Relevant:   classified.Relevant,
		Exported:   exported,
	})
	if err != nil {
		log.Printf("Error writing run report: %v", err)
	}
}
