package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds claimlens configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Citations CitationsConfig `yaml:"citations"`
	Facts     FactsConfig     `yaml:"facts"`
	Models    ModelsConfig    `yaml:"models"`
	Scoring   ScoringConfig   `yaml:"scoring"`
	Audit     AuditConfig     `yaml:"audit"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type ServerConfig struct {
	Addr                     string `yaml:"addr"` // HTTP listen address, e.g. ":8000"
	MaxRequestBodyBytes      int64  `yaml:"max_request_body_bytes"`
	MaxInFlightRequests      int    `yaml:"max_in_flight_requests"`
	ReadHeaderTimeoutSeconds int    `yaml:"read_header_timeout_seconds"`
	ReadTimeoutSeconds       int    `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds      int    `yaml:"write_timeout_seconds"`
	IdleTimeoutSeconds       int    `yaml:"idle_timeout_seconds"`
	RequestTimeoutSeconds    int    `yaml:"request_timeout_seconds"` // budget for a single /verify
	RequestTTLMinutes        int    `yaml:"request_ttl_minutes"`     // how long finished reports stay queryable
}

type CitationsConfig struct {
	CrossRefBaseURL          string  `yaml:"crossref_base_url"`
	SemanticScholarBaseURL   string  `yaml:"semantic_scholar_base_url"`
	CrossRefMailtoEnv        string  `yaml:"crossref_mailto_env"`          // e.g. "CROSSREF_MAILTO"
	SemanticScholarAPIKeyEnv string  `yaml:"semantic_scholar_api_key_env"` // e.g. "SEMANTIC_SCHOLAR_API_KEY"
	LookupTimeoutSeconds     int     `yaml:"lookup_timeout_seconds"`
	RequestsPerSecond        float64 `yaml:"requests_per_second"` // shared across all outbound lookups
	Burst                    int     `yaml:"burst"`
	MaxResponseBytes         int64   `yaml:"max_response_bytes"`
	MaxParallelLookups       int     `yaml:"max_parallel_lookups"`
	CacheDir                 string  `yaml:"cache_dir"` // empty disables the lookup cache
	CacheTTLHours            int     `yaml:"cache_ttl_hours"`
	AllowPrivateHosts        bool    `yaml:"allow_private_hosts"`
}

type FactsConfig struct {
	WikipediaBaseURL        string  `yaml:"wikipedia_base_url"`
	WikipediaSummaryBaseURL string  `yaml:"wikipedia_summary_base_url"`
	MaxSources              int     `yaml:"max_sources"`
	SupportThreshold        float64 `yaml:"support_threshold"`
	WeakThreshold           float64 `yaml:"weak_threshold"`
	LookupTimeoutSeconds    int     `yaml:"lookup_timeout_seconds"`
}

type ModelsConfig struct {
	Dir                    string  `yaml:"dir"`      // bundle root, versions installed underneath
	BaseURL                string  `yaml:"base_url"` // where manifests and files are fetched from
	Version                string  `yaml:"version"`
	SeqLen                 int     `yaml:"seq_len"`
	RequireNLI             bool    `yaml:"require_nli"`        // readyz stays 503 until the model loads
	AllowLexicalOnly       bool    `yaml:"allow_lexical_only"` // fall back to lexical scoring without a model
	UpdateOnStart          bool    `yaml:"update_on_start"`
	DownloadTimeoutSeconds int     `yaml:"download_timeout_seconds"`
	ContradictionThreshold float64 `yaml:"contradiction_threshold"`
}

type ScoringConfig struct {
	Weights    ScoreWeights   `yaml:"weights"`
	Thresholds RiskThresholds `yaml:"thresholds"`
}

type ScoreWeights struct {
	UnverifiedClaims   float64 `yaml:"unverified_claims"`
	FakeCitations      float64 `yaml:"fake_citations"`
	BrokenLinks        float64 `yaml:"broken_links"`
	ContradictedClaims float64 `yaml:"contradicted_claims"`
}

type RiskThresholds struct {
	Low    int `yaml:"low"`    // score <= Low => low risk
	Medium int `yaml:"medium"` // score <= Medium => medium risk, above => high
}

type AuditConfig struct {
	Level                  string            `yaml:"level"` // metadata | redacted | full
	QueueSize              int               `yaml:"queue_size"`
	Workers                int               `yaml:"workers"`
	ShutdownTimeoutSeconds int               `yaml:"shutdown_timeout_seconds"`
	Sinks                  []AuditSinkConfig `yaml:"sinks"`
}

type AuditSinkConfig struct {
	Type           string            `yaml:"type"` // stdout | file_jsonl | webhook
	Path           string            `yaml:"path"`
	URL            string            `yaml:"url"`
	Headers        map[string]string `yaml:"headers"`
	TimeoutSeconds int               `yaml:"timeout_seconds"`
}

type TelemetryConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
	Protocol string `yaml:"protocol"` // grpc | http
	Service  string `yaml:"service"`
	Version  string `yaml:"version"`
}

// Load reads configuration from a YAML file.
// If the file doesn't exist, it returns a default config and no error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

func defaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8000"
	}
	if cfg.Server.MaxRequestBodyBytes <= 0 {
		cfg.Server.MaxRequestBodyBytes = 1 << 20
	}
	if cfg.Server.MaxInFlightRequests <= 0 {
		cfg.Server.MaxInFlightRequests = 8
	}
	if cfg.Server.ReadHeaderTimeoutSeconds <= 0 {
		cfg.Server.ReadHeaderTimeoutSeconds = 5
	}
	if cfg.Server.ReadTimeoutSeconds <= 0 {
		cfg.Server.ReadTimeoutSeconds = 30
	}
	if cfg.Server.WriteTimeoutSeconds <= 0 {
		cfg.Server.WriteTimeoutSeconds = 180
	}
	if cfg.Server.IdleTimeoutSeconds <= 0 {
		cfg.Server.IdleTimeoutSeconds = 60
	}
	if cfg.Server.RequestTimeoutSeconds <= 0 {
		cfg.Server.RequestTimeoutSeconds = 120
	}
	if cfg.Server.RequestTTLMinutes <= 0 {
		cfg.Server.RequestTTLMinutes = 30
	}

	if cfg.Citations.CrossRefBaseURL == "" {
		cfg.Citations.CrossRefBaseURL = "https://api.crossref.org/works"
	}
	if cfg.Citations.SemanticScholarBaseURL == "" {
		cfg.Citations.SemanticScholarBaseURL = "https://api.semanticscholar.org/graph/v1/paper/search"
	}
	if cfg.Citations.CrossRefMailtoEnv == "" {
		cfg.Citations.CrossRefMailtoEnv = "CROSSREF_MAILTO"
	}
	if cfg.Citations.SemanticScholarAPIKeyEnv == "" {
		cfg.Citations.SemanticScholarAPIKeyEnv = "SEMANTIC_SCHOLAR_API_KEY"
	}
	if cfg.Citations.LookupTimeoutSeconds <= 0 {
		cfg.Citations.LookupTimeoutSeconds = 10
	}
	if cfg.Citations.RequestsPerSecond <= 0 {
		cfg.Citations.RequestsPerSecond = 2
	}
	if cfg.Citations.Burst <= 0 {
		cfg.Citations.Burst = 1
	}
	if cfg.Citations.MaxResponseBytes <= 0 {
		cfg.Citations.MaxResponseBytes = 4 << 20
	}
	if cfg.Citations.MaxParallelLookups <= 0 {
		cfg.Citations.MaxParallelLookups = 4
	}
	if cfg.Citations.CacheTTLHours <= 0 {
		cfg.Citations.CacheTTLHours = 24
	}

	if cfg.Facts.WikipediaBaseURL == "" {
		cfg.Facts.WikipediaBaseURL = "https://en.wikipedia.org/w/rest.php/v1"
	}
	if cfg.Facts.WikipediaSummaryBaseURL == "" {
		cfg.Facts.WikipediaSummaryBaseURL = "https://en.wikipedia.org/api/rest_v1"
	}
	if cfg.Facts.MaxSources <= 0 {
		cfg.Facts.MaxSources = 5
	}
	if cfg.Facts.SupportThreshold <= 0 {
		cfg.Facts.SupportThreshold = 0.7
	}
	if cfg.Facts.WeakThreshold <= 0 {
		cfg.Facts.WeakThreshold = 0.4
	}
	if cfg.Facts.LookupTimeoutSeconds <= 0 {
		cfg.Facts.LookupTimeoutSeconds = 5
	}

	if cfg.Models.Dir == "" {
		cfg.Models.Dir = "models"
	}
	if cfg.Models.SeqLen <= 0 {
		cfg.Models.SeqLen = 256
	}
	if cfg.Models.DownloadTimeoutSeconds <= 0 {
		cfg.Models.DownloadTimeoutSeconds = 300
	}
	if cfg.Models.ContradictionThreshold <= 0 {
		cfg.Models.ContradictionThreshold = 0.5
	}
	if !cfg.Models.RequireNLI && !cfg.Models.AllowLexicalOnly {
		cfg.Models.AllowLexicalOnly = true
	}

	if cfg.Scoring.Weights == (ScoreWeights{}) {
		cfg.Scoring.Weights = ScoreWeights{
			UnverifiedClaims:   0.4,
			FakeCitations:      0.4,
			BrokenLinks:        0.2,
			ContradictedClaims: 0.3,
		}
	}
	if cfg.Scoring.Thresholds == (RiskThresholds{}) {
		cfg.Scoring.Thresholds = RiskThresholds{Low: 30, Medium: 60}
	}

	if cfg.Audit.Level == "" {
		cfg.Audit.Level = "metadata"
	}
	if cfg.Audit.QueueSize <= 0 {
		cfg.Audit.QueueSize = 1000
	}
	if cfg.Audit.Workers <= 0 {
		cfg.Audit.Workers = 1
	}
	if cfg.Audit.ShutdownTimeoutSeconds <= 0 {
		cfg.Audit.ShutdownTimeoutSeconds = 2
	}
	if len(cfg.Audit.Sinks) == 0 {
		cfg.Audit.Sinks = []AuditSinkConfig{{Type: "stdout"}}
	}

	if cfg.Telemetry.Service == "" {
		cfg.Telemetry.Service = "claimlens"
	}
}
