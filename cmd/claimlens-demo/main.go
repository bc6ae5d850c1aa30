package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"
)

const sampleText = `According to recent studies, GPT-4 has shown a 95% accuracy rate ` +
	`in medical diagnosis (Smith et al., 2023). The model was trained on 45 trillion ` +
	`tokens of data. Research shows that transformer models like BERT have ` +
	`revolutionized natural language processing (Devlin, 2019). For more details see ` +
	`https://arxiv.org/abs/1810.04805. These findings were published in Nature ` +
	`(doi:10.1038/s41586-023-1), demonstrating significant improvements.`

type verifyResponse struct {
	RequestID  string `json:"request_id"`
	RiskScore  int    `json:"risk_score"`
	RiskLevel  string `json:"risk_level"`
	Statistics struct {
		Claims             int `json:"claims"`
		Citations          int `json:"citations"`
		VerifiedClaims     int `json:"verified_claims"`
		VerifiedCitations  int `json:"verified_citations"`
		FakeCitations      int `json:"fake_citations"`
		BrokenLinks        int `json:"broken_links"`
		UnverifiedClaims   int `json:"unverified_claims"`
		ContradictedClaims int `json:"contradicted_claims"`
	} `json:"statistics"`
	Issues []struct {
		Type           string `json:"type"`
		Severity       string `json:"severity"`
		Excerpt        string `json:"excerpt"`
		Detail         string `json:"detail"`
		Recommendation string `json:"recommendation"`
	} `json:"issues"`
}

// claimlens-demo posts a sample text (or a file) to a running claimlens
// instance and pretty-prints the report.
func main() {
	baseURL := flag.String("url", "http://localhost:8000", "claimlens base URL")
	file := flag.String("file", "", "file with text to verify (default: built-in sample)")
	noCitations := flag.Bool("no-citations", false, "skip citation verification")
	noFacts := flag.Bool("no-facts", false, "skip fact verification")
	flag.Parse()

	text := sampleText
	if *file != "" {
		data, err := os.ReadFile(*file)
		if err != nil {
			log.Fatalf("read %s: %v", *file, err)
		}
		text = string(data)
	}

	payload, err := json.Marshal(map[string]interface{}{
		"text":             text,
		"verify_citations": !*noCitations,
		"verify_facts":     !*noFacts,
	})
	if err != nil {
		log.Fatalf("encode request: %v", err)
	}

	client := &http.Client{Timeout: 2 * time.Minute}
	resp, err := client.Post(*baseURL+"/verify", "application/json", bytes.NewReader(payload))
	if err != nil {
		log.Fatalf("POST /verify: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errBody struct {
			Error struct {
				Message string `json:"message"`
				Type    string `json:"type"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		log.Fatalf("verify failed: HTTP %d %s (%s)", resp.StatusCode, errBody.Error.Message, errBody.Error.Type)
	}

	var report verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		log.Fatalf("decode response: %v", err)
	}

	fmt.Printf("request %s\n", report.RequestID)
	fmt.Printf("risk: %d/100 (%s)\n\n", report.RiskScore, report.RiskLevel)

	st := report.Statistics
	fmt.Printf("claims: %d (verified %d)  citations: %d (verified %d)\n",
		st.Claims, st.VerifiedClaims, st.Citations, st.VerifiedCitations)
	fmt.Printf("fake citations: %d  broken links: %d  unverified claims: %d  contradicted: %d\n\n",
		st.FakeCitations, st.BrokenLinks, st.UnverifiedClaims, st.ContradictedClaims)

	if len(report.Issues) == 0 {
		fmt.Println("no issues found")
		return
	}
	for i, iss := range report.Issues {
		fmt.Printf("%d. [%s] %s\n", i+1, iss.Severity, iss.Type)
		if iss.Excerpt != "" {
			fmt.Printf("   %q\n", iss.Excerpt)
		}
		if iss.Detail != "" {
			fmt.Printf("   %s\n", iss.Detail)
		}
		fmt.Printf("   -> %s\n", iss.Recommendation)
	}
}
