package citecheck

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// semanticScholarClient queries the Semantic Scholar Graph API paper search
// endpoint. The API works without a key at a lower rate limit.
type semanticScholarClient struct {
	baseURL  string
	apiKey   string
	client   *http.Client
	maxBytes int64
}

type s2SearchResponse struct {
	Data []struct {
		Title    string `json:"title"`
		Abstract string `json:"abstract"`
		Year     int    `json:"year"`
		Authors  []struct {
			Name string `json:"name"`
		} `json:"authors"`
	} `json:"data"`
}

// Search returns up to limit papers matching the query.
func (c *semanticScholarClient) Search(ctx context.Context, query string, limit int) ([]paper, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("limit", fmt.Sprintf("%d", limit))
	q.Set("fields", "title,abstract,year,authors")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("semantic scholar: unexpected status %d", resp.StatusCode)
	}

	var parsed s2SearchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("semantic scholar: decode: %w", err)
	}

	papers := make([]paper, 0, len(parsed.Data))
	for _, d := range parsed.Data {
		p := paper{Title: d.Title, Abstract: d.Abstract, Year: d.Year}
		for _, a := range d.Authors {
			p.Authors = append(p.Authors, a.Name)
		}
		papers = append(papers, p)
	}
	return papers, nil
}
