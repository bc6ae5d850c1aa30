package factcheck

import "github.com/claimlens-ai/claimlens/internal/analysis"

// Status is the outcome of verifying one claim against evidence.
type Status string

const (
	StatusSupported    Status = "supported"    // evidence clearly backs the claim
	StatusWeak         Status = "weak"         // partial evidence only
	StatusNoEvidence   Status = "no_evidence"  // nothing relevant found
	StatusContradicted Status = "contradicted" // evidence disputes the claim
	StatusUnchecked    Status = "unchecked"    // fact verification was disabled
)

// Source is one piece of evidence consulted for a claim.
type Source struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	Similarity    float64 `json:"similarity"`
	Contradiction float64 `json:"contradiction,omitempty"`
}

// Result records what we learned about one claim.
type Result struct {
	Claim         analysis.Claim `json:"claim"`
	Status        Status         `json:"status"`
	EvidenceScore float64        `json:"evidence_score"`
	Method        string         `json:"method,omitempty"` // nli | lexical
	Sources       []Source       `json:"sources,omitempty"`
	Detail        string         `json:"detail,omitempty"`
}
