package citecheck

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// crossRefClient talks to the CrossRef REST API. A mailto parameter moves
// requests into CrossRef's polite pool when one is configured.
type crossRefClient struct {
	baseURL  string
	mailto   string
	client   *http.Client
	maxBytes int64
}

type crossRefWork struct {
	Title    []string `json:"title"`
	Abstract string   `json:"abstract"`
	Author   []struct {
		Given  string `json:"given"`
		Family string `json:"family"`
	} `json:"author"`
	Issued struct {
		DateParts [][]int `json:"date-parts"`
	} `json:"issued"`
}

type crossRefItemResponse struct {
	Status  string       `json:"status"`
	Message crossRefWork `json:"message"`
}

type crossRefListResponse struct {
	Status  string `json:"status"`
	Message struct {
		Items []crossRefWork `json:"items"`
	} `json:"message"`
}

// LookupDOI resolves a DOI to its registered work. A nil paper with a nil
// error means CrossRef has no record for that DOI.
func (c *crossRefClient) LookupDOI(ctx context.Context, doi string) (*paper, error) {
	u := strings.TrimRight(c.baseURL, "/") + "/" + url.PathEscape(doi)
	body, status, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("crossref: unexpected status %d", status)
	}

	var resp crossRefItemResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("crossref: decode: %w", err)
	}
	p := workToPaper(resp.Message)
	return &p, nil
}

// Search runs a bibliographic query and returns the top matches.
func (c *crossRefClient) Search(ctx context.Context, query string, rows int) ([]paper, error) {
	q := url.Values{}
	q.Set("query.bibliographic", query)
	q.Set("rows", fmt.Sprintf("%d", rows))
	if c.mailto != "" {
		q.Set("mailto", c.mailto)
	}

	body, status, err := c.get(ctx, c.baseURL+"?"+q.Encode())
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("crossref: unexpected status %d", status)
	}

	var resp crossRefListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("crossref: decode: %w", err)
	}

	papers := make([]paper, 0, len(resp.Message.Items))
	for _, item := range resp.Message.Items {
		papers = append(papers, workToPaper(item))
	}
	return papers, nil
}

func (c *crossRefClient) get(ctx context.Context, rawURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes))
	if err != nil {
		return nil, 0, err
	}
	return body, resp.StatusCode, nil
}

func workToPaper(w crossRefWork) paper {
	p := paper{Abstract: w.Abstract}
	if len(w.Title) > 0 {
		p.Title = w.Title[0]
	}
	for _, a := range w.Author {
		name := strings.TrimSpace(a.Given + " " + a.Family)
		if name != "" {
			p.Authors = append(p.Authors, name)
		}
	}
	if len(w.Issued.DateParts) > 0 && len(w.Issued.DateParts[0]) > 0 {
		p.Year = w.Issued.DateParts[0][0]
	}
	return p
}
