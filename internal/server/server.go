package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/claimlens-ai/claimlens/internal/analysis"
	"github.com/claimlens-ai/claimlens/internal/audit"
	"github.com/claimlens-ai/claimlens/internal/citecheck"
	"github.com/claimlens-ai/claimlens/internal/config"
	"github.com/claimlens-ai/claimlens/internal/console"
	"github.com/claimlens-ai/claimlens/internal/factcheck"
	"github.com/claimlens-ai/claimlens/internal/scoring"
	"github.com/claimlens-ai/claimlens/internal/telemetry"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// Deps bundles the verification components the server routes requests through.
type Deps struct {
	Citations     *citecheck.Verifier
	Facts         *factcheck.Verifier
	Audit         *audit.Emitter
	Telemetry     *telemetry.Provider
	BundleVersion string // installed model bundle, empty in lexical-only mode
}

// Server wraps the HTTP components for claimlens.
type Server struct {
	mux           *http.ServeMux
	cfg           *config.Config
	analyzer      *analysis.Analyzer
	citations     *citecheck.Verifier
	facts         *factcheck.Verifier
	scorer        *scoring.Scorer
	audit         *audit.Emitter
	telemetry     *telemetry.Provider
	store         *requestStore
	inflight      chan struct{}
	bundleVersion string
	startedAt     time.Time

	httpServer *http.Server
}

func New(cfg *config.Config, deps Deps) *Server {
	mux := http.NewServeMux()

	s := &Server{
		mux:           mux,
		cfg:           cfg,
		analyzer:      analysis.NewAnalyzer(),
		citations:     deps.Citations,
		facts:         deps.Facts,
		scorer:        scoring.New(cfg.Scoring),
		audit:         deps.Audit,
		telemetry:     deps.Telemetry,
		store:         newRequestStore(time.Duration(cfg.Server.RequestTTLMinutes) * time.Minute),
		inflight:      make(chan struct{}, cfg.Server.MaxInFlightRequests),
		bundleVersion: deps.BundleVersion,
		startedAt:     time.Now(),
	}

	mux.HandleFunc("/", s.handleBanner)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/verify", s.handleVerify)

	mux.Handle("/console/", console.Handler())
	mux.Handle("/console", http.RedirectHandler("/console/", http.StatusMovedPermanently))
	mux.HandleFunc("/console/api/status", s.handleConsoleStatus)
	mux.HandleFunc("/console/api/requests/", s.handleConsoleRequest)

	return s
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler { return s.mux }

// Start blocks serving HTTP until the listener fails or Shutdown is called.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: time.Duration(s.cfg.Server.ReadHeaderTimeoutSeconds) * time.Second,
		ReadTimeout:       time.Duration(s.cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Server.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Server.IdleTimeoutSeconds) * time.Second,
	}
	log.Printf("claimlens listening on %s", addr)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) mode() string {
	if s.facts != nil && s.facts.ModelBacked() {
		return "nli"
	}
	return "lexical_only"
}

func (s *Server) handleBanner(w http.ResponseWriter, r *http.Request) {
	// The root pattern catches everything the mux doesn't know.
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "invalid_request_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":    "claimlens",
		"version": Version,
		"mode":    s.mode(),
		"endpoints": []string{
			"POST /verify",
			"GET /healthz",
			"GET /readyz",
			"GET /console/",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ready := true
	if s.cfg.Models.RequireNLI && s.mode() != "nli" {
		ready = false
	}
	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]interface{}{
		"ready": ready,
		"mode":  s.mode(),
	})
}

type consoleStatus struct {
	Version         string  `json:"version"`
	Mode            string  `json:"mode"`
	BundleVersion   string  `json:"bundle_version,omitempty"`
	AuditLevel      string  `json:"audit_level"`
	MaxBodyBytes    int64   `json:"max_body_bytes"`
	MaxInFlight     int     `json:"max_in_flight"`
	RequestTimeoutS int     `json:"request_timeout_seconds"`
	UptimeSeconds   float64 `json:"uptime_seconds"`
	StoredRequests  int     `json:"stored_requests"`
	AuditEnqueued   uint64  `json:"audit_enqueued"`
	AuditDropped    uint64  `json:"audit_dropped"`
}

func (s *Server) handleConsoleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "invalid_request_error")
		return
	}
	st := consoleStatus{
		Version:         Version,
		Mode:            s.mode(),
		BundleVersion:   s.bundleVersion,
		AuditLevel:      s.cfg.Audit.Level,
		MaxBodyBytes:    s.cfg.Server.MaxRequestBodyBytes,
		MaxInFlight:     s.cfg.Server.MaxInFlightRequests,
		RequestTimeoutS: s.cfg.Server.RequestTimeoutSeconds,
		UptimeSeconds:   time.Since(s.startedAt).Seconds(),
		StoredRequests:  s.store.Len(),
	}
	if s.audit != nil {
		m := s.audit.MetricsSnapshot()
		st.AuditEnqueued = m.Enqueued()
		st.AuditDropped = m.Dropped()
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleConsoleRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "invalid_request_error")
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/console/api/requests/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "missing request id", "invalid_request_error")
		return
	}
	resp, ok := s.store.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown or expired request id", "not_found_error")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("failed to write response: %v", err)
	}
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// writeError writes a JSON error body with a stable shape.
func writeError(w http.ResponseWriter, status int, message, typ string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{
		Error: errorDetail{Message: message, Type: typ},
	})
}
