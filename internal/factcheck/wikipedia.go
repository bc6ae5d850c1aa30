package factcheck

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

// wikiClient pulls evidence pages from Wikipedia: a direct page-summary
// lookup when the query happens to name an article, and full-text search
// otherwise.
type wikiClient struct {
	baseURL     string
	summaryBase string
	client      *http.Client
	maxBytes    int64
}

// wikiPage is one evidence source pulled from a search result.
type wikiPage struct {
	Title   string
	URL     string
	Extract string
}

type wikiSearchResponse struct {
	Pages []struct {
		Key         string `json:"key"`
		Title       string `json:"title"`
		Excerpt     string `json:"excerpt"`
		Description string `json:"description"`
	} `json:"pages"`
}

type wikiSummaryResponse struct {
	Title       string `json:"title"`
	Extract     string `json:"extract"`
	ContentURLs struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

var htmlTagRE = regexp.MustCompile(`<[^>]+>`)

// Summary fetches the page summary for a title guess. Most claims do not name
// an article, so a miss here is routine and the caller falls back to search.
func (w *wikiClient) Summary(ctx context.Context, title string) (*wikiPage, error) {
	if w.summaryBase == "" {
		return nil, fmt.Errorf("wikipedia: summary endpoint not configured")
	}
	endpoint := strings.TrimRight(w.summaryBase, "/") + "/page/summary/" + url.PathEscape(title)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, w.maxBytes))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("wikipedia: summary status %d", resp.StatusCode)
	}

	var parsed wikiSummaryResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("wikipedia: decode summary: %w", err)
	}
	if parsed.Extract == "" {
		return nil, fmt.Errorf("wikipedia: summary has no extract")
	}

	pageURL := parsed.ContentURLs.Desktop.Page
	if pageURL == "" {
		pageURL = w.articleBase() + url.PathEscape(strings.ReplaceAll(parsed.Title, " ", "_"))
	}
	return &wikiPage{Title: parsed.Title, URL: pageURL, Extract: parsed.Extract}, nil
}

func (w *wikiClient) Search(ctx context.Context, query string, limit int) ([]wikiPage, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", fmt.Sprintf("%d", limit))

	endpoint := strings.TrimRight(w.baseURL, "/") + "/search/page?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, w.maxBytes))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("wikipedia: unexpected status %d", resp.StatusCode)
	}

	var parsed wikiSearchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("wikipedia: decode: %w", err)
	}

	articleBase := w.articleBase()
	pages := make([]wikiPage, 0, len(parsed.Pages))
	for _, p := range parsed.Pages {
		extract := html.UnescapeString(htmlTagRE.ReplaceAllString(p.Excerpt, ""))
		if p.Description != "" {
			extract = p.Description + ". " + extract
		}
		pages = append(pages, wikiPage{
			Title:   p.Title,
			URL:     articleBase + url.PathEscape(p.Key),
			Extract: extract,
		})
	}
	return pages, nil
}

func (w *wikiClient) articleBase() string {
	u, err := url.Parse(w.baseURL)
	if err != nil || u.Host == "" {
		return "https://en.wikipedia.org/wiki/"
	}
	return u.Scheme + "://" + u.Host + "/wiki/"
}
