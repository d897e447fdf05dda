package collect

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/google/uuid"

	"clinbrief/internal/model"
	"clinbrief/internal/textutil"
)

const defaultNewsAPIBaseURL = "https://newsapi.org/v2/everything"

// NewsAPIClient fetches candidates from the NewsAPI everything endpoint.
type NewsAPIClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
	now     func() time.Time
}

// NewNewsAPIClient creates a client reading the key from apiKeyEnv.
func NewNewsAPIClient(apiKeyEnv string) *NewsAPIClient {
	return &NewsAPIClient{
		apiKey:  os.Getenv(apiKeyEnv),
		baseURL: defaultNewsAPIBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		now:     time.Now,
	}
}

// IsConfigured returns whether the API key is available.
func (c *NewsAPIClient) IsConfigured() bool {
	return c.apiKey != ""
}

// Search returns candidates matching query within daysBack days.
func (c *NewsAPIClient) Search(ctx context.Context, query string, daysBack, pageSize int) ([]model.Candidate, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("newsapi key not configured")
	}

	now := c.now()
	if pageSize > 100 {
		pageSize = 100
	}

	params := url.Values{
		"q":        {query},
		"from":     {now.AddDate(0, 0, -daysBack).Format("2006-01-02")},
		"to":       {now.Format("2006-01-02")},
		"language": {"en"},
		"pageSize": {fmt.Sprintf("%d", pageSize)},
		"sortBy":   {"relevancy"},
	}

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("newsapi request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("newsapi returned %d", resp.StatusCode)
	}

	var result struct {
		Status   string `json:"status"`
		Articles []struct {
			URL         string `json:"url"`
			Title       string `json:"title"`
			PublishedAt string `json:"publishedAt"`
			Description string `json:"description"`
			Content     string `json:"content"`
			Source      struct {
				Name string `json:"name"`
			} `json:"source"`
		} `json:"articles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding newsapi response: %w", err)
	}
	if result.Status != "ok" {
		return nil, fmt.Errorf("newsapi status: %s", result.Status)
	}

	var candidates []model.Candidate
	for _, a := range result.Articles {
		if a.URL == "" || a.Title == "" {
			continue
		}

		published := now
		defaulted := true
		if a.PublishedAt != "" {
			if t, err := time.Parse(time.RFC3339, a.PublishedAt); err == nil {
				published = t
				defaulted = false
			}
		}

		description := a.Description
		if description == "" {
			description = a.Content
		}

		source := a.Source.Name
		if source == "" {
			source = "NewsAPI"
		}

		candidates = append(candidates, model.Candidate{
			ID:            uuid.NewString(),
			Title:         textutil.Sanitize(a.Title),
			Description:   textutil.Sanitize(description),
			Link:          a.URL,
			PublishedAt:   published,
			DateDefaulted: defaulted,
			Source:        source,
			SearchQuery:   query,
		})
	}
	return candidates, nil
}
