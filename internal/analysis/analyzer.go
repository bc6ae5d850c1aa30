package analysis

// Analyzer combines claim and citation extraction over one input.
type Analyzer struct {
	claims    *ClaimExtractor
	citations *CitationExtractor
}

func NewAnalyzer() *Analyzer {
	return &Analyzer{
		claims:    NewClaimExtractor(),
		citations: NewCitationExtractor(),
	}
}

// Analyze extracts claims and citations and pairs them up.
func (a *Analyzer) Analyze(text string) *Result {
	claims := a.claims.Extract(text)
	citations := a.citations.Extract(text)

	return &Result{
		Claims:    claims,
		Citations: citations,
		Pairs:     PairClaims(claims, citations),
	}
}
