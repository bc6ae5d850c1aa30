package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/claimlens-ai/claimlens/internal/citecheck"
	"github.com/claimlens-ai/claimlens/internal/config"
	"github.com/claimlens-ai/claimlens/internal/factcheck"
)

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg, err := config.Load("testdata/does-not-exist.yaml")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	cfg.Server.Addr = ":0"
	cfg.Server.MaxInFlightRequests = 4
	cfg.Server.RequestTimeoutSeconds = 5
	cfg.Citations.RequestsPerSecond = 1000
	cfg.Citations.Burst = 100
	cfg.Citations.LookupTimeoutSeconds = 2
	cfg.Facts.LookupTimeoutSeconds = 2

	return cfg
}

// newTestServer builds a server with no verifiers wired; citation and fact
// checks fall back to their skipped results.
func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	return New(cfg, Deps{})
}

func postVerify(t *testing.T, srv *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/verify", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	srv.mux.ServeHTTP(rr, req)
	return rr
}

func TestVerifyMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, newTestConfig(t))

	req := httptest.NewRequest(http.MethodGet, "/verify", nil)
	rr := httptest.NewRecorder()
	srv.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
	var body errorBody
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("error body not JSON: %v", err)
	}
	if body.Error.Type != "invalid_request_error" {
		t.Errorf("error type = %q", body.Error.Type)
	}
}

func TestVerifyRejectsOversizedBody(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Server.MaxRequestBodyBytes = 10

	srv := newTestServer(t, cfg)
	rr := postVerify(t, srv, `{"text":"`+strings.Repeat("a", 64)+`"}`)

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rr.Code)
	}
}

func TestVerifyRejectsBadInput(t *testing.T) {
	srv := newTestServer(t, newTestConfig(t))

	cases := []struct {
		name string
		body string
	}{
		{"invalid json", `{"text":`},
		{"missing text", `{}`},
		{"blank text", `{"text":"   "}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if rr := postVerify(t, srv, tc.body); rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rr.Code)
			}
		})
	}
}

func TestVerifyInFlightLimit(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Server.MaxInFlightRequests = 1

	srv := newTestServer(t, cfg)

	// Occupy the only slot so the next request is turned away.
	srv.inflight <- struct{}{}
	defer func() { <-srv.inflight }()

	if rr := postVerify(t, srv, `{"text":"hello"}`); rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
}

func TestVerifyWithSkippedCheckers(t *testing.T) {
	srv := newTestServer(t, newTestConfig(t))

	rr := postVerify(t, srv, `{"text":"Research shows models improve rapidly over time (doi:10.1000/x)."}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp verifyResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.RequestID == "" {
		t.Error("request id missing")
	}
	if resp.Statistics.Citations != 1 {
		t.Errorf("citations = %d, want 1", resp.Statistics.Citations)
	}
	if len(resp.Details.Citations) != 1 || resp.Details.Citations[0].Status != citecheck.StatusUnknown {
		t.Errorf("citation details = %+v, want one unknown", resp.Details.Citations)
	}
	for _, c := range resp.Details.Claims {
		if c.Status != factcheck.StatusUnchecked {
			t.Errorf("claim status = %s, want unchecked", c.Status)
		}
	}
}

func TestVerifyEndToEnd(t *testing.T) {
	crossref := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","message":{"title":["Research shows that GPT models reduce hallucinations"],"abstract":"Large study of model hallucinations.","issued":{"date-parts":[[2023]]}}}`))
	}))
	defer crossref.Close()

	wiki := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"pages":[]}`))
	}))
	defer wiki.Close()

	cfg := newTestConfig(t)
	cfg.Citations.CrossRefBaseURL = crossref.URL
	cfg.Citations.SemanticScholarBaseURL = crossref.URL
	cfg.Facts.WikipediaBaseURL = wiki.URL

	cites, err := citecheck.New(cfg.Citations)
	if err != nil {
		t.Fatal(err)
	}
	defer cites.Close()
	facts := factcheck.New(cfg.Facts, nil, cfg.Models.ContradictionThreshold)

	srv := New(cfg, Deps{Citations: cites, Facts: facts})

	rr := postVerify(t, srv, `{"text":"Research shows that GPT models reduce hallucinations by 73% (doi:10.1000/x)."}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp verifyResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Statistics.VerifiedCitations != 1 {
		t.Errorf("verified citations = %d, want 1: %+v", resp.Statistics.VerifiedCitations, resp.Details.Citations)
	}
	// A claim backed by a verified citation is not counted as unverified even
	// when Wikipedia has nothing to say about it.
	if resp.Statistics.UnverifiedClaims != 0 {
		t.Errorf("unverified claims = %d, want 0", resp.Statistics.UnverifiedClaims)
	}
	if resp.RiskLevel != "low" {
		t.Errorf("risk level = %s, want low", resp.RiskLevel)
	}
	if resp.ModelBacked {
		t.Error("model backed should be false without an NLI engine")
	}

	// Finished reports stay queryable by id.
	req := httptest.NewRequest(http.MethodGet, "/console/api/requests/"+resp.RequestID, nil)
	rr2 := httptest.NewRecorder()
	srv.mux.ServeHTTP(rr2, req)
	if rr2.Code != http.StatusOK {
		t.Fatalf("stored request lookup = %d", rr2.Code)
	}
	var stored verifyResponse
	if err := json.Unmarshal(rr2.Body.Bytes(), &stored); err != nil {
		t.Fatal(err)
	}
	if stored.RiskScore != resp.RiskScore {
		t.Errorf("stored risk score = %d, want %d", stored.RiskScore, resp.RiskScore)
	}
}

func TestVerifyFlagsDisableCheckers(t *testing.T) {
	crossref := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("citation lookup should not run when verify_citations is false")
	}))
	defer crossref.Close()

	cfg := newTestConfig(t)
	cfg.Citations.CrossRefBaseURL = crossref.URL
	cfg.Citations.SemanticScholarBaseURL = crossref.URL

	cites, err := citecheck.New(cfg.Citations)
	if err != nil {
		t.Fatal(err)
	}
	defer cites.Close()

	srv := New(cfg, Deps{Citations: cites})

	rr := postVerify(t, srv, `{"text":"Studies indicate results vary (doi:10.1000/x).","verify_citations":false,"verify_facts":false}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var resp verifyResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	for _, c := range resp.Details.Citations {
		if c.Status != citecheck.StatusUnknown {
			t.Errorf("citation status = %s, want unknown", c.Status)
		}
	}
}

func TestBanner(t *testing.T) {
	srv := newTestServer(t, newTestConfig(t))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	srv.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var banner map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &banner); err != nil {
		t.Fatal(err)
	}
	if banner["name"] != "claimlens" {
		t.Errorf("name = %v", banner["name"])
	}

	req = httptest.NewRequest(http.MethodGet, "/nope", nil)
	rr = httptest.NewRecorder()
	srv.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown path = %d, want 404", rr.Code)
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, newTestConfig(t))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	srv.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK || rr.Body.String() != "ok" {
		t.Fatalf("healthz = %d %q", rr.Code, rr.Body.String())
	}
}

func TestReadyzRequiresModel(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Models.RequireNLI = true

	srv := newTestServer(t, cfg)

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rr := httptest.NewRecorder()
	srv.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without a model, got %d", rr.Code)
	}

	cfg2 := newTestConfig(t)
	srv2 := newTestServer(t, cfg2)

	rr = httptest.NewRecorder()
	srv2.mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 in lexical-only mode, got %d", rr.Code)
	}
}

func TestConsoleStatus(t *testing.T) {
	srv := newTestServer(t, newTestConfig(t))

	req := httptest.NewRequest(http.MethodGet, "/console/api/status", nil)
	rr := httptest.NewRecorder()
	srv.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var st consoleStatus
	if err := json.Unmarshal(rr.Body.Bytes(), &st); err != nil {
		t.Fatal(err)
	}
	if st.Mode != "lexical_only" {
		t.Errorf("mode = %q", st.Mode)
	}
	if st.MaxInFlight != 4 {
		t.Errorf("max in flight = %d", st.MaxInFlight)
	}
}

func TestConsoleRequestNotFound(t *testing.T) {
	srv := newTestServer(t, newTestConfig(t))

	req := httptest.NewRequest(http.MethodGet, "/console/api/requests/nope", nil)
	rr := httptest.NewRecorder()
	srv.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}
