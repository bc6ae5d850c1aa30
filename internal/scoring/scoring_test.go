package scoring

import (
	"testing"

	"github.com/claimlens-ai/claimlens/internal/analysis"
	"github.com/claimlens-ai/claimlens/internal/citecheck"
	"github.com/claimlens-ai/claimlens/internal/config"
	"github.com/claimlens-ai/claimlens/internal/factcheck"
)

func testScorer() *Scorer {
	return New(config.ScoringConfig{
		Weights: config.ScoreWeights{
			UnverifiedClaims:   0.4,
			FakeCitations:      0.4,
			BrokenLinks:        0.2,
			ContradictedClaims: 0.3,
		},
		Thresholds: config.RiskThresholds{Low: 30, Medium: 60},
	})
}

func TestScoreEmptyInput(t *testing.T) {
	report := testScorer().Score(&analysis.Result{}, nil, nil)
	if report.RiskScore != 0 {
		t.Errorf("score = %d, want 0", report.RiskScore)
	}
	if report.RiskLevel != RiskLow {
		t.Errorf("level = %s, want low", report.RiskLevel)
	}
	if len(report.Issues) != 0 {
		t.Errorf("issues = %d, want 0", len(report.Issues))
	}
}

func TestScoreMixedFindings(t *testing.T) {
	claims := []analysis.Claim{
		{Text: "cited and fine", Start: 0, End: 14},
		{Text: "contradicted", Start: 100, End: 112},
		{Text: "unverified", Start: 200, End: 210},
	}
	citations := []analysis.Citation{
		{Type: analysis.CitationAPA, Text: "Good (2020)", Start: 10, End: 21},
		{Type: analysis.CitationAPA, Text: "Fake (2021)", Start: 300, End: 311},
		{Type: analysis.CitationURL, Text: "https://dead.example", Start: 320, End: 340},
		{Type: analysis.CitationDOI, Text: "doi:10.1/off-topic", Start: 350, End: 368},
	}
	ar := &analysis.Result{
		Claims:    claims,
		Citations: citations,
		Pairs: []analysis.Pair{
			{Claim: claims[0], Citation: &citations[0], Proximity: 1},
			{Claim: claims[1]},
			{Claim: claims[2]},
		},
	}

	cites := []citecheck.Result{
		{Citation: citations[0], Exists: true, Accessible: true, Status: citecheck.StatusVerified},
		{Citation: citations[1], Status: citecheck.StatusFake},
		{Citation: citations[2], Exists: true, Status: citecheck.StatusFake},
		{Citation: citations[3], Exists: true, Accessible: true, Status: citecheck.StatusIrrelevant},
	}
	facts := []factcheck.Result{
		{Claim: claims[0], Status: factcheck.StatusNoEvidence},
		{Claim: claims[1], Status: factcheck.StatusContradicted},
		{Claim: claims[2], Status: factcheck.StatusNoEvidence},
	}

	report := testScorer().Score(ar, cites, facts)

	want := Summary{
		Claims:             3,
		Citations:          4,
		VerifiedCitations:  1,
		FakeCitations:      1,
		BrokenLinks:        1,
		UnverifiedClaims:   1,
		ContradictedClaims: 1,
	}
	if report.Summary != want {
		t.Errorf("summary = %+v, want %+v", report.Summary, want)
	}

	// All four ratios over the claim total: (0.4 + 0.3 + 0.4 + 0.2) * (1/3) = 0.4333
	if report.RiskScore != 43 {
		t.Errorf("score = %d, want 43", report.RiskScore)
	}
	if report.RiskLevel != RiskMedium {
		t.Errorf("level = %s, want medium", report.RiskLevel)
	}

	types := map[string]int{}
	for _, iss := range report.Issues {
		types[iss.Type]++
		if iss.Location == (Location{}) {
			t.Errorf("issue %s has no location", iss.Type)
		}
	}
	for _, typ := range []string{"fake_citation", "broken_link", "irrelevant_citation", "contradicted_claim", "unverified_claim"} {
		if types[typ] != 1 {
			t.Errorf("issue %s count = %d, want 1", typ, types[typ])
		}
	}
}

// Citation counts are normalized by the claim total, not the citation total;
// two fabricated references among two claims max out that term regardless of
// how many good citations surround them.
func TestFakeCitationRatioUsesClaimTotal(t *testing.T) {
	claims := []analysis.Claim{
		{Text: "first claim", Start: 0, End: 11},
		{Text: "second claim", Start: 50, End: 62},
	}
	citations := []analysis.Citation{
		{Type: analysis.CitationAPA, Text: "Real (2020)", Start: 12, End: 23},
		{Type: analysis.CitationAPA, Text: "AlsoReal (2021)", Start: 64, End: 79},
		{Type: analysis.CitationAPA, Text: "Fake (2022)", Start: 90, End: 101},
		{Type: analysis.CitationAPA, Text: "Bogus (2023)", Start: 110, End: 122},
	}
	ar := &analysis.Result{
		Claims:    claims,
		Citations: citations,
		Pairs: []analysis.Pair{
			{Claim: claims[0], Citation: &citations[0], Proximity: 1},
			{Claim: claims[1], Citation: &citations[1], Proximity: 1},
		},
	}
	cites := []citecheck.Result{
		{Citation: citations[0], Exists: true, Accessible: true, Status: citecheck.StatusVerified},
		{Citation: citations[1], Exists: true, Accessible: true, Status: citecheck.StatusVerified},
		{Citation: citations[2], Status: citecheck.StatusFake},
		{Citation: citations[3], Status: citecheck.StatusFake},
	}
	facts := []factcheck.Result{
		{Claim: claims[0], Status: factcheck.StatusSupported},
		{Claim: claims[1], Status: factcheck.StatusSupported},
	}

	report := testScorer().Score(ar, cites, facts)

	if report.Summary.VerifiedClaims != 2 {
		t.Errorf("verified claims = %d, want 2", report.Summary.VerifiedClaims)
	}
	// 0.4 * (2 fake / 2 claims) = 0.4
	if report.RiskScore != 40 {
		t.Errorf("score = %d, want 40", report.RiskScore)
	}
	if report.RiskLevel != RiskMedium {
		t.Errorf("level = %s, want medium", report.RiskLevel)
	}
}

func TestScoreClaimCoveredByVerifiedCitation(t *testing.T) {
	claims := []analysis.Claim{{Text: "cited claim"}}
	citations := []analysis.Citation{{Type: analysis.CitationDOI, Text: "doi:10.1/a", Start: 5}}
	ar := &analysis.Result{
		Claims:    claims,
		Citations: citations,
		Pairs:     []analysis.Pair{{Claim: claims[0], Citation: &citations[0], Proximity: 1}},
	}
	cites := []citecheck.Result{{Citation: citations[0], Exists: true, Accessible: true, Status: citecheck.StatusVerified}}
	facts := []factcheck.Result{{Claim: claims[0], Status: factcheck.StatusUnchecked}}

	report := testScorer().Score(ar, cites, facts)
	if report.Summary.UnverifiedClaims != 0 {
		t.Errorf("unverified = %d, want 0: a verified citation covers the claim", report.Summary.UnverifiedClaims)
	}
	if report.RiskScore != 0 {
		t.Errorf("score = %d, want 0", report.RiskScore)
	}
}

func TestScoreAllBad(t *testing.T) {
	claims := []analysis.Claim{{Text: "made up"}}
	citations := []analysis.Citation{{Type: analysis.CitationAPA, Text: "Nobody (1999)", Start: 10}}
	ar := &analysis.Result{
		Claims:    claims,
		Citations: citations,
		Pairs:     []analysis.Pair{{Claim: claims[0], Citation: &citations[0], Proximity: 1}},
	}
	cites := []citecheck.Result{{Citation: citations[0], Status: citecheck.StatusFake}}
	facts := []factcheck.Result{{Claim: claims[0], Status: factcheck.StatusNoEvidence}}

	report := testScorer().Score(ar, cites, facts)
	if report.RiskScore != 80 {
		t.Errorf("score = %d, want 80", report.RiskScore)
	}
	if report.RiskLevel != RiskHigh {
		t.Errorf("level = %s, want high", report.RiskLevel)
	}
}

func TestRiskLevelBoundaries(t *testing.T) {
	s := testScorer()
	cases := []struct {
		score int
		want  RiskLevel
	}{
		{0, RiskLow}, {30, RiskLow}, {31, RiskMedium}, {60, RiskMedium}, {61, RiskHigh}, {100, RiskHigh},
	}
	for _, tc := range cases {
		if got := s.riskLevel(tc.score); got != tc.want {
			t.Errorf("riskLevel(%d) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestWeakEvidenceCountsAsUnverified(t *testing.T) {
	claims := []analysis.Claim{
		{Text: "weakly supported", Start: 0, End: 16},
		{Text: "also weakly supported", Start: 20, End: 41},
	}
	ar := &analysis.Result{Claims: claims, Pairs: []analysis.Pair{{Claim: claims[0]}, {Claim: claims[1]}}}
	facts := []factcheck.Result{
		{Claim: claims[0], Status: factcheck.StatusWeak, EvidenceScore: 0.5},
		{Claim: claims[1], Status: factcheck.StatusWeak, EvidenceScore: 0.45},
	}

	report := testScorer().Score(ar, nil, facts)
	if report.Summary.UnverifiedClaims != 2 {
		t.Errorf("unverified = %d, want 2: weak evidence counts as unverified", report.Summary.UnverifiedClaims)
	}
	// 0.4 * (2/2) = 0.4
	if report.RiskScore != 40 {
		t.Errorf("score = %d, want 40", report.RiskScore)
	}
	if report.RiskLevel != RiskMedium {
		t.Errorf("level = %s, want medium", report.RiskLevel)
	}
	if len(report.Issues) != 2 || report.Issues[0].Type != "weak_evidence" {
		t.Fatalf("issues = %+v, want two weak_evidence", report.Issues)
	}
	if report.Issues[0].Severity != "low" {
		t.Errorf("severity = %s, want low", report.Issues[0].Severity)
	}
	if report.Issues[0].Location != (Location{Start: 0, End: 16}) {
		t.Errorf("location = %+v", report.Issues[0].Location)
	}
}
