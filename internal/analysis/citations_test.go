package analysis

import "testing"

func TestCitationExtraction(t *testing.T) {
	e := NewCitationExtractor()

	cases := []struct {
		name      string
		text      string
		wantTypes []CitationType
	}{
		{
			name:      "apa with et al",
			text:      "According to Smith et al. (2021), results improved.",
			wantTypes: []CitationType{CitationAPA},
		},
		{
			name:      "apa two authors",
			text:      "Smith and Jones (2020) disagree.",
			wantTypes: []CitationType{CitationAPA},
		},
		{
			name:      "mla",
			text:      "As argued in Johnson 2022, the effect persists.",
			wantTypes: []CitationType{CitationMLA},
		},
		{
			name:      "ieee",
			text:      "The effect was reported earlier [3].",
			wantTypes: []CitationType{CitationIEEE},
		},
		{
			name:      "url trailing punctuation trimmed",
			text:      "See https://example.com/paper.pdf.",
			wantTypes: []CitationType{CitationURL},
		},
		{
			name:      "doi",
			text:      "Published as doi:10.1000/xyz123.",
			wantTypes: []CitationType{CitationDOI},
		},
		{
			name:      "apa wins over mla on same span",
			text:      "Smith (2019) showed this first.",
			wantTypes: []CitationType{CitationAPA},
		},
		{
			name:      "mixed ordered by position",
			text:      "Smith et al. (2021) report 73% [1], see https://example.com/a.",
			wantTypes: []CitationType{CitationAPA, CitationIEEE, CitationURL},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := e.Extract(tc.text)
			if len(got) != len(tc.wantTypes) {
				t.Fatalf("got %d citations, want %d: %#v", len(got), len(tc.wantTypes), got)
			}
			for i, c := range got {
				if c.Type != tc.wantTypes[i] {
					t.Errorf("citation %d type = %s, want %s", i, c.Type, tc.wantTypes[i])
				}
				if tc.text[c.Start:c.End] != c.Text {
					t.Errorf("citation %d offsets do not slice back to %q", i, c.Text)
				}
			}
		})
	}
}

func TestCitationFields(t *testing.T) {
	e := NewCitationExtractor()

	apa := e.Extract("According to Smith et al. (2021), models improved.")
	if len(apa) != 1 || apa[0].Year != "2021" {
		t.Fatalf("apa year = %+v", apa)
	}
	if len(apa[0].Authors) != 1 || apa[0].Authors[0] != "Smith et al." {
		t.Fatalf("apa authors = %v", apa[0].Authors)
	}

	doi := e.Extract("Published as doi:10.1000/xyz123, widely cited.")
	if len(doi) != 1 || doi[0].DOI != "10.1000/xyz123" {
		t.Fatalf("doi = %+v", doi)
	}

	url := e.Extract("Visit https://example.com/research.")
	if len(url) != 1 || url[0].URL != "https://example.com/research" {
		t.Fatalf("url = %+v", url)
	}

	ieee := e.Extract("Reported in [12] last year.")
	if len(ieee) != 1 || ieee[0].RefNumber != "12" {
		t.Fatalf("ieee = %+v", ieee)
	}
}

func TestPairClaims(t *testing.T) {
	text := "According to Smith et al. (2021), GPT models reduce hallucinations by 73%. " +
		"Unrelated filler goes here with no sources at all, stretched out to keep distance large, " +
		"padding padding padding padding padding padding padding padding padding padding. " +
		"Research shows water is wet per Johnson."

	claimer := NewClaimExtractor()
	citer := NewCitationExtractor()

	claims := claimer.Extract(text)
	citations := citer.Extract(text)
	pairs := PairClaims(claims, citations)

	if len(pairs) != len(claims) {
		t.Fatalf("got %d pairs for %d claims", len(pairs), len(claims))
	}

	first := pairs[0]
	if first.Citation == nil {
		t.Fatal("first claim should pair with its inline citation")
	}
	if first.Proximity != 1.0 {
		t.Errorf("inline citation proximity = %v, want 1.0", first.Proximity)
	}

	last := pairs[len(pairs)-1]
	if last.Citation != nil {
		t.Errorf("far claim should stay uncited, got %+v", last.Citation)
	}
	if last.Proximity != 0 {
		t.Errorf("uncited proximity = %v, want 0", last.Proximity)
	}
}
