package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Validate checks the loaded config for required fields and safe values.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	if strings.TrimSpace(cfg.Server.Addr) == "" {
		return errors.New("server.addr must be set")
	}

	if err := validateBaseURL("citations.crossref_base_url", cfg.Citations.CrossRefBaseURL, cfg.Citations.AllowPrivateHosts); err != nil {
		return err
	}
	if err := validateBaseURL("citations.semantic_scholar_base_url", cfg.Citations.SemanticScholarBaseURL, cfg.Citations.AllowPrivateHosts); err != nil {
		return err
	}
	if err := validateBaseURL("facts.wikipedia_base_url", cfg.Facts.WikipediaBaseURL, cfg.Citations.AllowPrivateHosts); err != nil {
		return err
	}
	if err := validateBaseURL("facts.wikipedia_summary_base_url", cfg.Facts.WikipediaSummaryBaseURL, cfg.Citations.AllowPrivateHosts); err != nil {
		return err
	}
	if cfg.Models.BaseURL != "" {
		if err := validateBaseURL("models.base_url", cfg.Models.BaseURL, cfg.Citations.AllowPrivateHosts); err != nil {
			return err
		}
		if strings.TrimSpace(cfg.Models.Version) == "" {
			return errors.New("models.version must be set when models.base_url is configured")
		}
	}

	if cfg.Models.RequireNLI && cfg.Models.AllowLexicalOnly {
		return errors.New("models.require_nli and models.allow_lexical_only are mutually exclusive")
	}

	if cfg.Scoring.Thresholds.Low < 0 || cfg.Scoring.Thresholds.Medium > 100 ||
		cfg.Scoring.Thresholds.Low >= cfg.Scoring.Thresholds.Medium {
		return fmt.Errorf("scoring.thresholds must satisfy 0 <= low < medium <= 100, got low=%d medium=%d",
			cfg.Scoring.Thresholds.Low, cfg.Scoring.Thresholds.Medium)
	}

	w := cfg.Scoring.Weights
	for field, v := range map[string]float64{
		"unverified_claims":   w.UnverifiedClaims,
		"fake_citations":      w.FakeCitations,
		"broken_links":        w.BrokenLinks,
		"contradicted_claims": w.ContradictedClaims,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("scoring.weights.%s must be in [0,1], got %v", field, v)
		}
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Audit.Level)) {
	case "metadata", "redacted", "full":
	default:
		return fmt.Errorf("audit.level must be metadata, redacted or full, got %q", cfg.Audit.Level)
	}

	if err := validateAuditSinks(cfg.Audit.Sinks); err != nil {
		return err
	}

	if err := validateTelemetryConfig(cfg.Telemetry); err != nil {
		return err
	}

	return nil
}

func validateAuditSinks(sinks []AuditSinkConfig) error {
	for i, s := range sinks {
		switch strings.ToLower(strings.TrimSpace(s.Type)) {
		case "stdout":
		case "file_jsonl":
			if strings.TrimSpace(s.Path) == "" {
				return fmt.Errorf("audit sink %d (file_jsonl) missing path", i)
			}
		case "webhook":
			if strings.TrimSpace(s.URL) == "" {
				return fmt.Errorf("audit sink %d (webhook) missing url", i)
			}
			u, err := url.Parse(s.URL)
			if err != nil || u.Scheme == "" || u.Host == "" {
				return fmt.Errorf("audit sink %d (webhook) has invalid url", i)
			}
			if u.Scheme != "http" && u.Scheme != "https" {
				return fmt.Errorf("audit sink %d (webhook) url must be http or https", i)
			}
		default:
			return fmt.Errorf("audit sink %d has unknown type %q", i, s.Type)
		}
	}
	return nil
}

func validateTelemetryConfig(t TelemetryConfig) error {
	if !t.Enabled {
		return nil
	}
	if strings.TrimSpace(t.Endpoint) == "" {
		return errors.New("telemetry enabled but endpoint is empty")
	}
	if t.Protocol != "" {
		switch strings.ToLower(strings.TrimSpace(t.Protocol)) {
		case "grpc", "http":
		default:
			return fmt.Errorf("telemetry.protocol must be grpc or http, got %q", t.Protocol)
		}
	}
	return nil
}

func validateBaseURL(field, raw string, allowPrivate bool) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s is not a valid URL", field)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must be http or https", field)
	}
	if err := blockPrivateHost(u.Host, allowPrivate); err != nil {
		return fmt.Errorf("%s blocked: %w", field, err)
	}
	return nil
}

func blockPrivateHost(hostport string, allowPrivate bool) error {
	if allowPrivate {
		return nil
	}
	host := hostport
	if strings.Contains(hostport, "]") || strings.Contains(hostport, ":") {
		if h, _, err := net.SplitHostPort(hostport); err == nil {
			host = h
		}
	}
	if strings.EqualFold(strings.TrimSpace(host), "localhost") {
		return errors.New("private network host localhost blocked for SSRF safety")
	}

	if ip := net.ParseIP(host); ip != nil && isPrivateIP(ip) {
		return fmt.Errorf("private network IP %s blocked for SSRF safety", ip.String())
	}
	return nil
}

func isPrivateIP(ip net.IP) bool {
	privateBlocks := []*net.IPNet{
		{IP: net.ParseIP("127.0.0.0"), Mask: net.CIDRMask(8, 32)},
		{IP: net.ParseIP("10.0.0.0"), Mask: net.CIDRMask(8, 32)},
		{IP: net.ParseIP("172.16.0.0"), Mask: net.CIDRMask(12, 32)},
		{IP: net.ParseIP("192.168.0.0"), Mask: net.CIDRMask(16, 32)},
		{IP: net.ParseIP("169.254.0.0"), Mask: net.CIDRMask(16, 32)},
		{IP: net.ParseIP("::1"), Mask: net.CIDRMask(128, 128)},
		{IP: net.ParseIP("fc00::"), Mask: net.CIDRMask(7, 128)},
		{IP: net.ParseIP("fe80::"), Mask: net.CIDRMask(10, 128)},
	}
	for _, block := range privateBlocks {
		if block.Contains(ip) {
			return true
		}
	}
	return false
}
