package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/claimlens-ai/claimlens/internal/audit"
	"github.com/claimlens-ai/claimlens/internal/citecheck"
	"github.com/claimlens-ai/claimlens/internal/factcheck"
	"github.com/claimlens-ai/claimlens/internal/scoring"
)

type verifyRequest struct {
	Text            string `json:"text"`
	VerifyCitations *bool  `json:"verify_citations"` // nil means true
	VerifyFacts     *bool  `json:"verify_facts"`     // nil means true
}

type verifyDetails struct {
	Claims    []factcheck.Result `json:"claims"`
	Citations []citecheck.Result `json:"citations"`
}

type verifyResponse struct {
	RequestID   string            `json:"request_id"`
	RiskScore   int               `json:"risk_score"`
	RiskLevel   scoring.RiskLevel `json:"risk_level"`
	Statistics  scoring.Summary   `json:"statistics"`
	Issues      []scoring.Issue   `json:"issues"`
	Details     verifyDetails     `json:"details"`
	ModelBacked bool              `json:"model_backed"`
	TimingMs    audit.Timing      `json:"timing_ms"`
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "invalid_request_error")
		return
	}

	select {
	case s.inflight <- struct{}{}:
		defer func() { <-s.inflight }()
	default:
		writeError(w, http.StatusTooManyRequests, "too many in-flight requests", "rate_limit_error")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxRequestBodyBytes)

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large", "invalid_request_error")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body", "invalid_request_error")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "missing or empty text", "invalid_request_error")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(s.cfg.Server.RequestTimeoutSeconds)*time.Second)
	defer cancel()

	requestID := uuid.NewString()
	start := time.Now()

	ar := s.analyzer.Analyze(req.Text)

	var (
		cites  []citecheck.Result
		facts  []factcheck.Result
		timing audit.Timing
	)

	if boolOrTrue(req.VerifyCitations) && s.citations != nil {
		t0 := time.Now()
		cites = s.citations.VerifyAll(ctx, ar)
		timing.CitationsMs = msSince(t0)
	} else {
		cites = citecheck.Skipped(ar.Citations)
	}

	if boolOrTrue(req.VerifyFacts) && s.facts != nil {
		t0 := time.Now()
		facts = s.facts.VerifyAll(ctx, ar.Claims)
		timing.FactsMs = msSince(t0)
	} else {
		facts = factcheck.Skipped(ar.Claims)
	}

	report := s.scorer.Score(ar, cites, facts)
	if report == nil {
		writeError(w, http.StatusInternalServerError, "verification failed", "internal_error")
		return
	}
	timing.TotalMs = msSince(start)

	modelBacked := s.facts != nil && s.facts.ModelBacked()

	resp := &verifyResponse{
		RequestID:  requestID,
		RiskScore:  report.RiskScore,
		RiskLevel:  report.RiskLevel,
		Statistics: report.Summary,
		Issues:     report.Issues,
		Details: verifyDetails{
			Claims:    report.Claims,
			Citations: report.Citations,
		},
		ModelBacked: modelBacked,
		TimingMs:    timing,
	}
	s.store.Put(requestID, resp)

	if s.audit != nil {
		s.audit.Emit(ctx, audit.BuildEvent(audit.BuildParams{
			RequestID:   requestID,
			Text:        req.Text,
			Level:       s.cfg.Audit.Level,
			Report:      report,
			ModelBacked: modelBacked,
			Timing:      timing,
		}))
	}
	if s.telemetry != nil {
		s.telemetry.RecordVerifyMetrics(string(report.RiskLevel), s.mode(), timing.TotalMs, timing.CitationsMs, timing.FactsMs, len(report.Issues))
	}

	writeJSON(w, http.StatusOK, resp)
}

func boolOrTrue(b *bool) bool {
	if b == nil {
		return true
	}
	return *b
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}
