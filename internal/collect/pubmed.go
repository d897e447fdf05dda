package collect

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/google/uuid"

	"clinbrief/internal/model"
	"clinbrief/internal/textutil"
)

const defaultEUtilsBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

// PubMedClient searches PubMed via the NCBI E-utilities: esearch to find
// matching PMIDs, esummary to resolve them into article records.
type PubMedClient struct {
	baseURL string
	client  *http.Client
	now     func() time.Time
}

// NewPubMedClient creates a PubMed search client.
func NewPubMedClient() *PubMedClient {
	return &PubMedClient{
		baseURL: defaultEUtilsBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		now:     time.Now,
	}
}

// Search returns candidates for articles matching query published within
// daysBack days.
func (c *PubMedClient) Search(ctx context.Context, query string, daysBack, maxResults int) ([]model.Candidate, error) {
	ids, err := c.search(ctx, query, daysBack, maxResults)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return c.summaries(ctx, ids, query)
}

func (c *PubMedClient) search(ctx context.Context, query string, daysBack, maxResults int) ([]string, error) {
	params := url.Values{
		"db":       {"pubmed"},
		"term":     {query},
		"retmax":   {fmt.Sprintf("%d", maxResults)},
		"reldate":  {fmt.Sprintf("%d", daysBack)},
		"datetype": {"pdat"},
		"retmode":  {"json"},
		"sort":     {"pub_date"},
	}

	var result struct {
		ESearchResult struct {
			IDList []string `json:"idlist"`
		} `json:"esearchresult"`
	}
	if err := c.get(ctx, "/esearch.fcgi", params, &result); err != nil {
		return nil, fmt.Errorf("pubmed esearch: %w", err)
	}
	return result.ESearchResult.IDList, nil
}

func (c *PubMedClient) summaries(ctx context.Context, ids []string, query string) ([]model.Candidate, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"id":      {strings.Join(ids, ",")},
		"retmode": {"json"},
	}

	// esummary keys each docsum by its PMID next to a "uids" list, so the
	// result map has mixed value shapes and needs two-step decoding.
	var result struct {
		Result map[string]json.RawMessage `json:"result"`
	}
	if err := c.get(ctx, "/esummary.fcgi", params, &result); err != nil {
		return nil, fmt.Errorf("pubmed esummary: %w", err)
	}

	var uids []string
	if raw, ok := result.Result["uids"]; ok {
		if err := json.Unmarshal(raw, &uids); err != nil {
			return nil, fmt.Errorf("decoding pubmed uids: %w", err)
		}
	}

	var candidates []model.Candidate
	for _, uid := range uids {
		raw, ok := result.Result[uid]
		if !ok {
			continue
		}
		var doc struct {
			Title           string `json:"title"`
			PubDate         string `json:"pubdate"`
			SortPubDate     string `json:"sortpubdate"`
			FullJournalName string `json:"fulljournalname"`
			Authors         []struct {
				Name string `json:"name"`
			} `json:"authors"`
		}
		if err := json.Unmarshal(raw, &doc); err != nil || doc.Title == "" {
			continue
		}

		published := c.now()
		defaulted := true
		for _, raw := range []string{doc.SortPubDate, doc.PubDate} {
			if raw == "" {
				continue
			}
			if t, err := dateparse.ParseAny(raw); err == nil {
				published = t
				defaulted = false
				break
			}
		}

		candidates = append(candidates, model.Candidate{
			ID:            uuid.NewString(),
			Title:         textutil.Sanitize(doc.Title),
			Description:   describeDocsum(doc.FullJournalName, authorNames(doc.Authors)),
			Link:          "https://pubmed.ncbi.nlm.nih.gov/" + uid + "/",
			PublishedAt:   published,
			DateDefaulted: defaulted,
			Source:        "PubMed",
			SearchQuery:   query,
		})
	}
	return candidates, nil
}

func (c *PubMedClient) get(ctx context.Context, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("http %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func authorNames(authors []struct {
	Name string `json:"name"`
}) []string {
	var names []string
	for _, a := range authors {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}
	return names
}

func describeDocsum(journal string, authors []string) string {
	var parts []string
	if len(authors) > 3 {
		authors = append(authors[:3], "et al.")
	}
	if len(authors) > 0 {
		parts = append(parts, strings.Join(authors, ", "))
	}
	if journal != "" {
		parts = append(parts, journal)
	}
	return textutil.Sanitize(strings.Join(parts, ". "))
}
