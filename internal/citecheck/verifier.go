package citecheck

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/claimlens-ai/claimlens/internal/analysis"
	"github.com/claimlens-ai/claimlens/internal/config"
)

const searchRows = 5

// Verifier checks citations against CrossRef, Semantic Scholar, and the live
// web. One rate limiter is shared across all outbound calls so a single
// request with many citations cannot hammer the upstream APIs.
type Verifier struct {
	crossref *crossRefClient
	scholar  *semanticScholarClient
	urls     *urlChecker
	limiter  *rate.Limiter
	cache    *Cache
	parallel int
}

func New(cfg config.CitationsConfig) (*Verifier, error) {
	timeout := time.Duration(cfg.LookupTimeoutSeconds) * time.Second
	client := &http.Client{Timeout: timeout}

	v := &Verifier{
		crossref: &crossRefClient{
			baseURL:  cfg.CrossRefBaseURL,
			mailto:   os.Getenv(cfg.CrossRefMailtoEnv),
			client:   client,
			maxBytes: cfg.MaxResponseBytes,
		},
		scholar: &semanticScholarClient{
			baseURL:  cfg.SemanticScholarBaseURL,
			apiKey:   os.Getenv(cfg.SemanticScholarAPIKeyEnv),
			client:   client,
			maxBytes: cfg.MaxResponseBytes,
		},
		urls:     &urlChecker{client: client, peekBytes: 64 << 10},
		limiter:  rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		parallel: cfg.MaxParallelLookups,
	}

	if cfg.CacheDir != "" {
		cache, err := OpenCache(cfg.CacheDir, time.Duration(cfg.CacheTTLHours)*time.Hour)
		if err != nil {
			return nil, err
		}
		v.cache = cache
	}

	return v, nil
}

func (v *Verifier) Close() error {
	return v.cache.Close()
}

// VerifyAll verifies every citation in an analysis result, pairing each with
// the text of its nearest claim for relevance scoring. Lookups fan out up to
// the configured parallelism.
func (v *Verifier) VerifyAll(ctx context.Context, res *analysis.Result) []Result {
	claimFor := make(map[int]string)
	for _, p := range res.Pairs {
		if p.Citation != nil {
			claimFor[p.Citation.Start] = p.Claim.Text
		}
	}

	out := make([]Result, len(res.Citations))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(v.parallel)
	for i := range res.Citations {
		g.Go(func() error {
			out[i] = v.Verify(ctx, res.Citations[i], claimFor[res.Citations[i].Start])
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Verify checks a single citation. Claim text may be empty when the citation
// sits far from any claim; relevance scoring degrades gracefully.
func (v *Verifier) Verify(ctx context.Context, c analysis.Citation, claimText string) Result {
	key := cacheKey(c, claimText)
	if v.cache != nil {
		if cached, ok := v.cache.Get(key); ok {
			return *cached
		}
	}

	var res Result
	switch c.Type {
	case analysis.CitationDOI:
		res = v.verifyDOI(ctx, c, claimText)
	case analysis.CitationURL:
		res = v.verifyURL(ctx, c, claimText)
	case analysis.CitationAPA, analysis.CitationMLA:
		res = v.verifyAuthorYear(ctx, c, claimText)
	default:
		res = Result{
			Citation: c,
			Status:   StatusUnknown,
			Detail:   "numbered reference cannot be resolved without a bibliography",
		}
	}

	if v.cache != nil && res.Status != StatusUnknown {
		_ = v.cache.Put(key, res)
	}
	return res
}

// Skipped marks every citation as unchecked. Used when the caller disabled
// citation verification for a request.
func Skipped(citations []analysis.Citation) []Result {
	out := make([]Result, len(citations))
	for i, c := range citations {
		out[i] = Result{Citation: c, Status: StatusUnknown, Detail: "citation verification disabled"}
	}
	return out
}

func (v *Verifier) verifyDOI(ctx context.Context, c analysis.Citation, claimText string) Result {
	res := Result{Citation: c, Source: "crossref"}

	if err := v.limiter.Wait(ctx); err != nil {
		res.Status = StatusUnknown
		res.Detail = "lookup canceled"
		return res
	}
	p, err := v.crossref.LookupDOI(ctx, c.DOI)
	if err != nil {
		res.Status = StatusUnknown
		res.Detail = "crossref lookup failed"
		return res
	}
	if p == nil {
		res.Status = StatusFake
		res.Detail = "DOI is not registered with CrossRef"
		return res
	}

	res.Exists = true
	res.Accessible = true
	res.PaperTitle = p.Title
	res.Relevance = relevance(claimText, p.Title+" "+p.Abstract)
	if res.Relevance > 0.5 {
		res.Status = StatusVerified
	} else {
		res.Status = StatusIrrelevant
		res.Detail = "registered work does not match the claim"
	}
	return res
}

func (v *Verifier) verifyURL(ctx context.Context, c analysis.Citation, claimText string) Result {
	res := Result{Citation: c, Source: "url"}

	if err := v.limiter.Wait(ctx); err != nil {
		res.Status = StatusUnknown
		res.Detail = "lookup canceled"
		return res
	}
	probe, err := v.urls.Probe(ctx, c.URL)
	if err != nil {
		res.Status = StatusFake
		res.Detail = "URL did not respond"
		return res
	}
	if probe.StatusCode != http.StatusOK {
		res.Exists = true
		res.Status = StatusFake
		res.Detail = fmt.Sprintf("URL returned status %d", probe.StatusCode)
		return res
	}

	res.Exists = true
	res.Accessible = true
	res.Relevance = relevance(claimText, probe.BodyPrefix)
	if res.Relevance > 0.3 {
		res.Status = StatusVerified
	} else {
		res.Status = StatusIrrelevant
		res.Detail = "page content does not match the claim"
	}
	return res
}

func (v *Verifier) verifyAuthorYear(ctx context.Context, c analysis.Citation, claimText string) Result {
	res := Result{Citation: c}

	if len(c.Authors) == 0 || c.Year == "" {
		res.Status = StatusUnknown
		res.Detail = "citation is missing an author or year"
		return res
	}

	query := strings.Join(c.Authors, " ") + " " + c.Year

	if err := v.limiter.Wait(ctx); err != nil {
		res.Status = StatusUnknown
		res.Detail = "lookup canceled"
		return res
	}
	s2Papers, s2Err := v.scholar.Search(ctx, query, searchRows)
	if s2Err == nil {
		if best, score, ok := bestMatch(s2Papers, c, claimText); ok {
			res.Exists = true
			res.Accessible = true
			res.Source = "semantic_scholar"
			res.PaperTitle = best.Title
			res.Relevance = score
			if score > 0.5 {
				res.Status = StatusVerified
			} else {
				res.Status = StatusIrrelevant
				res.Detail = "matching work does not cover the claim"
			}
			return res
		}
	}

	if err := v.limiter.Wait(ctx); err != nil {
		res.Status = StatusUnknown
		res.Detail = "lookup canceled"
		return res
	}
	crPapers, crErr := v.crossref.Search(ctx, query, searchRows)
	if crErr == nil {
		if best, score, ok := bestMatch(crPapers, c, claimText); ok && score > 0.3 {
			res.Exists = true
			res.Accessible = true
			res.Source = "crossref"
			res.PaperTitle = best.Title
			res.Relevance = score
			res.Status = StatusVerified
			return res
		}
	}

	if s2Err != nil && crErr != nil {
		res.Status = StatusUnknown
		res.Detail = "academic search unavailable"
		return res
	}

	res.Status = StatusFake
	res.Detail = "no matching work found in Semantic Scholar or CrossRef"
	return res
}

var surnameRE = regexp.MustCompile(`[A-Z][a-z]+`)

// bestMatch filters papers down to those matching the cited year and at least
// one cited surname, then returns the one most relevant to the claim.
func bestMatch(papers []paper, c analysis.Citation, claimText string) (paper, float64, bool) {
	year, err := strconv.Atoi(c.Year)
	if err != nil {
		return paper{}, 0, false
	}
	surnames := citedSurnames(c.Authors)

	var best paper
	bestScore := -1.0
	for _, p := range papers {
		if p.Year != year || !authorMatches(p.Authors, surnames) {
			continue
		}
		score := relevance(claimText, p.Title+" "+p.Abstract)
		if score > bestScore {
			best = p
			bestScore = score
		}
	}
	if bestScore < 0 {
		return paper{}, 0, false
	}
	return best, bestScore, true
}

func citedSurnames(authors []string) []string {
	var out []string
	for _, a := range authors {
		for _, name := range surnameRE.FindAllString(a, -1) {
			if name == "Et" || name == "Al" {
				continue
			}
			out = append(out, strings.ToLower(name))
		}
	}
	return out
}

func authorMatches(paperAuthors, surnames []string) bool {
	if len(surnames) == 0 {
		return false
	}
	for _, pa := range paperAuthors {
		lower := strings.ToLower(pa)
		for _, s := range surnames {
			if strings.Contains(lower, s) {
				return true
			}
		}
	}
	return false
}

func cacheKey(c analysis.Citation, claimText string) string {
	sum := sha256.Sum256([]byte(string(c.Type) + "\x00" + c.Text + "\x00" + claimText))
	return hex.EncodeToString(sum[:])
}
