package redact

import (
	"strings"
	"testing"
)

func TestStringRedaction(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		disallow []string
		require  []string
	}{
		{
			name:     "bearer header",
			input:    "Authorization: Bearer ss-secret-123",
			disallow: []string{"ss-secret-123"},
			require:  []string{"[REDACTED]"},
		},
		{
			name:     "semantic scholar api key",
			input:    "x-api-key: a1b2c3d4e5f6",
			disallow: []string{"a1b2c3d4e5f6"},
			require:  []string{"x-api-key=[REDACTED]"},
		},
		{
			name:     "crossref mailto",
			input:    "mailto=ops@example.com rows=5",
			disallow: []string{"ops@example.com"},
			require:  []string{"mailto=[REDACTED]"},
		},
		{
			name:     "lookup url with query",
			input:    "querying https://api.crossref.org/works/10.1000/xyz?mailto=me@example.com",
			disallow: []string{"mailto=me@example.com"},
			require:  []string{"https://api.crossref.org"},
		},
		{
			name:     "generic token",
			input:    "token=supersecretvalue key=anotherlongsecret",
			disallow: []string{"supersecretvalue", "anotherlongsecret"},
			require:  []string{"[REDACTED]"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := String(tc.input)
			for _, bad := range tc.disallow {
				if bad != "" && strings.Contains(out, bad) {
					t.Fatalf("output still contains %q: %s", bad, out)
				}
			}
			for _, want := range tc.require {
				if want != "" && !strings.Contains(out, want) {
					t.Fatalf("output missing required substring %q: %s", want, out)
				}
			}
		})
	}
}
