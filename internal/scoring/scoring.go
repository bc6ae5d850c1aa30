package scoring

import (
	"fmt"
	"math"

	"github.com/claimlens-ai/claimlens/internal/analysis"
	"github.com/claimlens-ai/claimlens/internal/citecheck"
	"github.com/claimlens-ai/claimlens/internal/config"
	"github.com/claimlens-ai/claimlens/internal/factcheck"
)

// RiskLevel buckets the numeric risk score.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Location is the byte span in the input text an issue points at.
type Location struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Issue is one actionable finding in a report.
type Issue struct {
	Type           string   `json:"type"`
	Severity       string   `json:"severity"`
	Excerpt        string   `json:"excerpt"`
	Detail         string   `json:"detail,omitempty"`
	Location       Location `json:"location"`
	Recommendation string   `json:"recommendation"`
}

// Summary holds the counts the risk score is derived from.
type Summary struct {
	Claims             int `json:"claims"`
	Citations          int `json:"citations"`
	VerifiedClaims     int `json:"verified_claims"`
	VerifiedCitations  int `json:"verified_citations"`
	FakeCitations      int `json:"fake_citations"`
	BrokenLinks        int `json:"broken_links"`
	UnverifiedClaims   int `json:"unverified_claims"`
	ContradictedClaims int `json:"contradicted_claims"`
}

// Report is the scored outcome of one verification run.
type Report struct {
	RiskScore int               `json:"risk_score"`
	RiskLevel RiskLevel         `json:"risk_level"`
	Summary   Summary           `json:"summary"`
	Issues    []Issue           `json:"issues"`
	Claims    []factcheck.Result `json:"claims"`
	Citations []citecheck.Result `json:"citations"`
}

// Scorer turns verification results into a weighted risk report.
type Scorer struct {
	cfg config.ScoringConfig
}

func New(cfg config.ScoringConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score computes the summary, issue list, and weighted risk score. Fact and
// citation results line up index-for-index with the analysis result.
func (s *Scorer) Score(ar *analysis.Result, cites []citecheck.Result, facts []factcheck.Result) *Report {
	report := &Report{
		Issues:    []Issue{},
		Claims:    facts,
		Citations: cites,
	}
	sum := &report.Summary
	sum.Claims = len(ar.Claims)
	sum.Citations = len(cites)

	verifiedCitationStarts := make(map[int]bool)
	for _, c := range cites {
		switch {
		case c.Status == citecheck.StatusVerified:
			sum.VerifiedCitations++
			verifiedCitationStarts[c.Citation.Start] = true
		case c.Citation.Type == analysis.CitationURL && c.Status == citecheck.StatusFake:
			sum.BrokenLinks++
			report.Issues = append(report.Issues, Issue{
				Type:           "broken_link",
				Severity:       "medium",
				Excerpt:        c.Citation.Text,
				Detail:         c.Detail,
				Location:       Location{Start: c.Citation.Start, End: c.Citation.End},
				Recommendation: "Update or remove the dead link.",
			})
		case c.Status == citecheck.StatusFake:
			sum.FakeCitations++
			report.Issues = append(report.Issues, Issue{
				Type:           "fake_citation",
				Severity:       "high",
				Excerpt:        c.Citation.Text,
				Detail:         c.Detail,
				Location:       Location{Start: c.Citation.Start, End: c.Citation.End},
				Recommendation: "Remove the citation or replace it with a verifiable source.",
			})
		case c.Status == citecheck.StatusIrrelevant:
			report.Issues = append(report.Issues, Issue{
				Type:           "irrelevant_citation",
				Severity:       "medium",
				Excerpt:        c.Citation.Text,
				Detail:         c.Detail,
				Location:       Location{Start: c.Citation.Start, End: c.Citation.End},
				Recommendation: "Check that the cited work actually supports the claim.",
			})
		}
	}

	citedVerified := make([]bool, len(ar.Claims))
	for i, p := range ar.Pairs {
		if i >= len(citedVerified) {
			break
		}
		if p.Citation != nil && verifiedCitationStarts[p.Citation.Start] {
			citedVerified[i] = true
		}
	}

	for i, f := range facts {
		switch f.Status {
		case factcheck.StatusSupported:
			sum.VerifiedClaims++
		case factcheck.StatusContradicted:
			sum.ContradictedClaims++
			report.Issues = append(report.Issues, Issue{
				Type:           "contradicted_claim",
				Severity:       "high",
				Excerpt:        f.Claim.Text,
				Detail:         f.Detail,
				Location:       Location{Start: f.Claim.Start, End: f.Claim.End},
				Recommendation: "Revise the claim; available evidence disputes it.",
			})
		case factcheck.StatusWeak:
			sum.UnverifiedClaims++
			report.Issues = append(report.Issues, Issue{
				Type:           "weak_evidence",
				Severity:       "low",
				Excerpt:        f.Claim.Text,
				Detail:         fmt.Sprintf("evidence score %.2f", f.EvidenceScore),
				Location:       Location{Start: f.Claim.Start, End: f.Claim.End},
				Recommendation: "Strengthen the claim with a direct source.",
			})
		case factcheck.StatusNoEvidence, factcheck.StatusUnchecked:
			if i < len(citedVerified) && citedVerified[i] {
				break
			}
			sum.UnverifiedClaims++
			report.Issues = append(report.Issues, Issue{
				Type:           "unverified_claim",
				Severity:       "medium",
				Excerpt:        f.Claim.Text,
				Location:       Location{Start: f.Claim.Start, End: f.Claim.End},
				Recommendation: "Add a citation for the claim or soften its wording.",
			})
		}
	}

	report.RiskScore = s.riskScore(sum)
	report.RiskLevel = s.riskLevel(report.RiskScore)
	return report
}

// riskScore normalizes every count by the claim total, so a short text with a
// single fabricated reference scores as badly as a long one full of them.
func (s *Scorer) riskScore(sum *Summary) int {
	if sum.Claims == 0 {
		return 0
	}
	w := s.cfg.Weights
	total := float64(sum.Claims)

	score := w.UnverifiedClaims*float64(sum.UnverifiedClaims)/total +
		w.FakeCitations*float64(sum.FakeCitations)/total +
		w.BrokenLinks*float64(sum.BrokenLinks)/total +
		w.ContradictedClaims*float64(sum.ContradictedClaims)/total

	if score > 1 {
		score = 1
	}
	return int(math.Round(score * 100))
}

func (s *Scorer) riskLevel(score int) RiskLevel {
	switch {
	case score <= s.cfg.Thresholds.Low:
		return RiskLow
	case score <= s.cfg.Thresholds.Medium:
		return RiskMedium
	default:
		return RiskHigh
	}
}
