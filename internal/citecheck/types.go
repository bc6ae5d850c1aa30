package citecheck

import "github.com/claimlens-ai/claimlens/internal/analysis"

// Status is the outcome of verifying one citation.
type Status string

const (
	StatusVerified   Status = "verified"   // found and relevant to the claim
	StatusIrrelevant Status = "irrelevant" // found but unrelated to the claim
	StatusFake       Status = "fake"       // not found anywhere we looked
	StatusUnknown    Status = "unknown"    // could not be checked (e.g. IEEE without a reference list)
)

// Result records what we learned about one citation.
type Result struct {
	Citation   analysis.Citation `json:"citation"`
	Exists     bool              `json:"exists"`
	Accessible bool              `json:"accessible"`
	Relevance  float64           `json:"relevance"`
	Status     Status            `json:"status"`
	Source     string            `json:"source,omitempty"` // crossref | semantic_scholar | url
	PaperTitle string            `json:"paper_title,omitempty"`
	Detail     string            `json:"detail,omitempty"`
}

// paper is the slice of metadata we need from either academic API.
type paper struct {
	Title    string
	Abstract string
	Year     int
	Authors  []string
}
