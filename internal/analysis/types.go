package analysis

// CitationType identifies the citation format a span was matched as.
type CitationType string

const (
	CitationAPA  CitationType = "apa"
	CitationMLA  CitationType = "mla"
	CitationIEEE CitationType = "ieee"
	CitationURL  CitationType = "url"
	CitationDOI  CitationType = "doi"
)

// Claim is a single factual assertion found in the input text.
type Claim struct {
	Text       string  `json:"text"`
	Sentence   int     `json:"sentence"` // sentence index, 0-based
	Start      int     `json:"start"`    // byte offset in the input
	End        int     `json:"end"`
	Confidence float64 `json:"confidence"`
}

// Citation is a bibliographic reference found in the input text.
type Citation struct {
	Text      string       `json:"text"`
	Type      CitationType `json:"type"`
	Authors   []string     `json:"authors,omitempty"`
	Year      string       `json:"year,omitempty"`
	URL       string       `json:"url,omitempty"`
	DOI       string       `json:"doi,omitempty"`
	RefNumber string       `json:"ref_number,omitempty"`
	Start     int          `json:"start"`
	End       int          `json:"end"`
}

// Pair links a claim to its nearest citation, if one sits close enough.
type Pair struct {
	Claim     Claim     `json:"claim"`
	Citation  *Citation `json:"citation,omitempty"`
	Proximity float64   `json:"proximity"` // 1/(1+distance/100), 0 when uncited
}

// Result groups everything extracted from one input.
type Result struct {
	Claims    []Claim    `json:"claims"`
	Citations []Citation `json:"citations"`
	Pairs     []Pair     `json:"pairs"`
}

// CitedClaims returns how many claims have a citation attached.
func (r *Result) CitedClaims() int {
	n := 0
	for _, p := range r.Pairs {
		if p.Citation != nil {
			n++
		}
	}
	return n
}
