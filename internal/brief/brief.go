// Package brief builds and exports the final run document: the ranked,
// capped list of relevant articles for one brief date.
package brief

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"clinbrief/internal/model"
)

// Item is one exported article record. The schema is stable across runs;
// downstream consumers read the JSON files directly.
type Item struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Link        string `json:"link"`
	PubDate     string `json:"pub_date"`
	Source      string `json:"source"`
	SearchQuery string `json:"search_query,omitempty"`
	Summary     string `json:"summary"`
	Comment     string `json:"comment"`
	Resources   string `json:"resources"`
	Tag         string `json:"ai_tag"`
}

// Document is the persisted run artifact.
type Document struct {
	BriefDate   string `json:"brief_date"`
	GeneratedAt string `json:"generated_at"`
	Items       []Item `json:"items"`
	TotalItems  int    `json:"total_items"`
}

// Build assembles the document from ranked articles. Display order is
// newest first regardless of ranking order, and the list is capped at
// maxItems.
func Build(articles []model.Article, briefDate string, generatedAt time.Time, maxItems int) Document {
	sorted := make([]model.Article, len(articles))
	copy(sorted, articles)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PublishedAt.After(sorted[j].PublishedAt)
	})
	if maxItems > 0 && len(sorted) > maxItems {
		sorted = sorted[:maxItems]
	}

	items := make([]Item, 0, len(sorted))
	for _, a := range sorted {
		items = append(items, Item{
			ID:          a.ID,
			Title:       a.Title,
			Description: a.Description,
			Link:        a.Link,
			PubDate:     a.PublishedAt.Format(time.RFC3339),
			Source:      a.Source,
			SearchQuery: a.SearchQuery,
			Summary:     a.Summary,
			Comment:     a.Comment,
			Resources:   a.Resources,
			Tag:         a.Tag,
		})
	}

	return Document{
		BriefDate:   briefDate,
		GeneratedAt: generatedAt.Format(time.RFC3339),
		Items:       items,
		TotalItems:  len(items),
	}
}

// WriteJSON writes the document to path, creating parent directories.
func WriteJSON(doc Document, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating briefs directory: %w", err)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding brief: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
