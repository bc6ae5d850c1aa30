package factcheck

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/claimlens-ai/claimlens/internal/analysis"
	"github.com/claimlens-ai/claimlens/internal/config"
	"github.com/claimlens-ai/claimlens/internal/nli"
)

// Verifier checks claims against Wikipedia evidence. With a loaded model
// engine it scores semantic similarity and contradiction; without one it
// falls back to lexical overlap, which cannot detect contradictions.
type Verifier struct {
	wiki                   *wikiClient
	engine                 *nli.Engine
	cfg                    config.FactsConfig
	contradictionThreshold float64
}

func New(cfg config.FactsConfig, engine *nli.Engine, contradictionThreshold float64) *Verifier {
	return &Verifier{
		wiki: &wikiClient{
			baseURL:     cfg.WikipediaBaseURL,
			summaryBase: cfg.WikipediaSummaryBaseURL,
			client:      &http.Client{Timeout: time.Duration(cfg.LookupTimeoutSeconds) * time.Second},
			maxBytes:    1 << 20,
		},
		engine:                 engine,
		cfg:                    cfg,
		contradictionThreshold: contradictionThreshold,
	}
}

// ModelBacked reports whether verification runs on the NLI models.
func (v *Verifier) ModelBacked() bool {
	return v.engine.Ready()
}

// VerifyAll verifies every claim in order.
func (v *Verifier) VerifyAll(ctx context.Context, claims []analysis.Claim) []Result {
	out := make([]Result, len(claims))
	for i, c := range claims {
		out[i] = v.Verify(ctx, c)
	}
	return out
}

// Skipped marks every claim as unchecked. Used when the caller disabled fact
// verification for a request.
func Skipped(claims []analysis.Claim) []Result {
	out := make([]Result, len(claims))
	for i, c := range claims {
		out[i] = Result{Claim: c, Status: StatusUnchecked, Detail: "fact verification disabled"}
	}
	return out
}

// Verify checks one claim.
func (v *Verifier) Verify(ctx context.Context, claim analysis.Claim) Result {
	res := Result{Claim: claim, Status: StatusNoEvidence}

	query := searchQuery(claim.Text)
	if query == "" {
		res.Detail = "claim has no searchable terms"
		return res
	}

	pages := v.retrieve(ctx, query, &res)
	if res.Status == StatusUnchecked {
		return res
	}
	if len(pages) == 0 {
		res.Detail = "no evidence found"
		return res
	}

	if v.engine.Ready() {
		if done := v.scoreNLI(&res, claim.Text, pages); done {
			return res
		}
	}
	v.scoreLexical(&res, claim.Text, pages)
	return res
}

// retrieve gathers evidence pages: a page-summary lookup for the query as a
// title guess first, then full-text search. Marks the result unchecked when
// search itself is unreachable; summary misses are expected and silent.
func (v *Verifier) retrieve(ctx context.Context, query string, res *Result) []wikiPage {
	if page, err := v.wiki.Summary(ctx, strings.ReplaceAll(query, " ", "_")); err == nil {
		return []wikiPage{*page}
	}

	pages, err := v.wiki.Search(ctx, query, v.cfg.MaxSources)
	if err != nil {
		res.Status = StatusUnchecked
		res.Detail = "evidence search unavailable"
		return nil
	}
	return pages
}

// scoreNLI fills in model-backed similarity and contradiction scores. It
// returns false when the model errors out so the lexical path can take over.
func (v *Verifier) scoreNLI(res *Result, claimText string, pages []wikiPage) bool {
	claimVec, err := v.engine.Embed(claimText)
	if err != nil {
		return false
	}

	var sum, max, maxContra float64
	var contraSource string
	sources := make([]Source, 0, len(pages))
	for _, p := range pages {
		vec, err := v.engine.Embed(p.Extract)
		if err != nil {
			return false
		}
		sim := nli.Cosine(claimVec, vec)

		verdict, err := v.engine.Classify(p.Extract, claimText)
		if err != nil {
			return false
		}

		sources = append(sources, Source{
			Title:         p.Title,
			URL:           p.URL,
			Similarity:    sim,
			Contradiction: verdict.Contradiction,
		})
		sum += sim
		if sim > max {
			max = sim
		}
		if verdict.Contradiction > maxContra {
			maxContra = verdict.Contradiction
			contraSource = p.Title
		}
	}

	res.Method = "nli"
	res.Sources = sources
	res.EvidenceScore = evidenceScore(sum, max, len(sources))

	if maxContra > v.contradictionThreshold {
		res.Status = StatusContradicted
		res.Detail = fmt.Sprintf("evidence in %q disputes the claim", contraSource)
		return true
	}
	res.Status = v.statusFor(res.EvidenceScore)
	return true
}

func (v *Verifier) scoreLexical(res *Result, claimText string, pages []wikiPage) {
	var sum, max float64
	sources := make([]Source, 0, len(pages))
	for _, p := range pages {
		sim := overlapSimilarity(claimText, p.Extract)
		sources = append(sources, Source{Title: p.Title, URL: p.URL, Similarity: sim})
		sum += sim
		if sim > max {
			max = sim
		}
	}

	res.Method = "lexical"
	res.Sources = sources
	res.EvidenceScore = evidenceScore(sum, max, len(sources))
	res.Status = v.statusFor(res.EvidenceScore)
}

// evidenceScore blends the average and the best source similarity so one
// strong source still counts while a pile of weak ones does not.
func evidenceScore(sum, max float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return 0.6*(sum/float64(n)) + 0.4*max
}

func (v *Verifier) statusFor(score float64) Status {
	switch {
	case score > v.cfg.SupportThreshold:
		return StatusSupported
	case score > v.cfg.WeakThreshold:
		return StatusWeak
	default:
		return StatusNoEvidence
	}
}

var queryWordRE = regexp.MustCompile(`[A-Za-z0-9]+`)

var queryStopwords = map[string]struct{}{
	"about": {}, "according": {}, "their": {}, "there": {}, "these": {},
	"those": {}, "which": {}, "would": {}, "could": {}, "should": {},
	"research": {}, "shows": {}, "studies": {}, "study": {}, "indicate": {},
	"suggests": {}, "evidence": {}, "found": {}, "that": {}, "with": {},
}

const maxQueryTerms = 8

// searchQuery keeps the distinctive terms of a claim: proper nouns and any
// longer words that are not boilerplate factual phrasing.
func searchQuery(claimText string) string {
	var terms []string
	seen := make(map[string]struct{})
	for _, w := range queryWordRE.FindAllString(claimText, -1) {
		lower := strings.ToLower(w)
		if _, dup := seen[lower]; dup {
			continue
		}
		if _, stop := queryStopwords[lower]; stop {
			continue
		}
		capitalized := w[0] >= 'A' && w[0] <= 'Z'
		numeric := w[0] >= '0' && w[0] <= '9'
		if !capitalized && !numeric && len(w) < 5 {
			continue
		}
		seen[lower] = struct{}{}
		terms = append(terms, w)
		if len(terms) == maxQueryTerms {
			break
		}
	}
	return strings.Join(terms, " ")
}

// overlapSimilarity is the lexical fallback: the share of a claim's keywords
// that also appear in the evidence text.
func overlapSimilarity(claimText, evidence string) float64 {
	claimWords := keywordSet(claimText)
	if len(claimWords) == 0 {
		return 0
	}
	evidenceWords := keywordSet(evidence)
	overlap := 0
	for w := range claimWords {
		if _, ok := evidenceWords[w]; ok {
			overlap++
		}
	}
	return float64(overlap) / float64(len(claimWords))
}

func keywordSet(text string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, w := range queryWordRE.FindAllString(strings.ToLower(text), -1) {
		if len(w) >= 4 {
			out[w] = struct{}{}
		}
	}
	return out
}
