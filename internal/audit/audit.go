package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/claimlens-ai/claimlens/internal/config"
	"github.com/claimlens-ai/claimlens/internal/redact"
	"github.com/claimlens-ai/claimlens/internal/scoring"
)

// Logging levels control how much of the submitted text leaves the process.
const (
	LevelMetadata = "metadata"
	LevelRedacted = "redacted"
	LevelFull     = "full"
)

// Timing records where a verification run spent its time.
type Timing struct {
	CitationsMs float64 `json:"citations_ms"`
	FactsMs     float64 `json:"facts_ms"`
	TotalMs     float64 `json:"total_ms"`
}

// Event is the canonical audit payload for one verification run.
type Event struct {
	Version     string          `json:"version"`
	Timestamp   time.Time       `json:"timestamp"`
	RequestID   string          `json:"request_id"`
	TextPreview string          `json:"text_preview,omitempty"`
	RiskScore   int             `json:"risk_score"`
	RiskLevel   string          `json:"risk_level"`
	Summary     scoring.Summary `json:"summary"`
	Issues      []scoring.Issue `json:"issues,omitempty"`
	ModelBacked bool            `json:"model_backed"`
	TimingMs    Timing          `json:"timing_ms"`
}

// BuildParams collects inputs needed to assemble an audit event.
type BuildParams struct {
	RequestID   string
	Text        string
	Level       string
	Report      *scoring.Report
	ModelBacked bool
	Timing      Timing
}

// BuildEvent creates an audit event from a finished verification run. At the
// metadata level neither the input text nor issue excerpts are included.
func BuildEvent(params BuildParams) *Event {
	if params.Report == nil {
		return nil
	}
	level := params.Level
	if level == "" {
		level = LevelMetadata
	}

	ev := &Event{
		Version:     "1",
		Timestamp:   time.Now().UTC(),
		RequestID:   ensureRequestID(params.RequestID),
		RiskScore:   params.Report.RiskScore,
		RiskLevel:   string(params.Report.RiskLevel),
		Summary:     params.Report.Summary,
		ModelBacked: params.ModelBacked,
		TimingMs:    params.Timing,
	}

	switch level {
	case LevelFull:
		ev.TextPreview = redact.String(truncate(params.Text, 500))
		ev.Issues = params.Report.Issues
	case LevelRedacted:
		ev.TextPreview = redact.String(truncate(simpleRedact(params.Text), 500))
		ev.Issues = redactIssues(params.Report.Issues)
	default:
		// metadata-only: counts and scores, no text
	}

	return ev
}

// Sink consumes audit events (stdout, file, webhook).
type Sink interface {
	Name() string
	Deliver(context.Context, *Event) error
	Close(context.Context) error
}

// BuildSinks constructs the configured sink set.
func BuildSinks(cfgs []config.AuditSinkConfig) ([]Sink, error) {
	sinks := make([]Sink, 0, len(cfgs))
	for _, sc := range cfgs {
		switch sc.Type {
		case "stdout":
			sinks = append(sinks, &StdoutSink{})
		case "file_jsonl":
			s, err := NewFileSink(sc.Path)
			if err != nil {
				return nil, err
			}
			sinks = append(sinks, s)
		case "webhook":
			s, err := NewWebhookSink(sc.URL, sc.Headers, time.Duration(sc.TimeoutSeconds)*time.Second)
			if err != nil {
				return nil, err
			}
			sinks = append(sinks, s)
		default:
			return nil, fmt.Errorf("unknown audit sink type %q", sc.Type)
		}
	}
	return sinks, nil
}

// StdoutSink logs events as single JSON lines through the redacting logger.
type StdoutSink struct{}

func (s *StdoutSink) Name() string { return "stdout" }

func (s *StdoutSink) Deliver(_ context.Context, ev *Event) error {
	if ev == nil {
		return nil
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	redact.Logf("audit: %s", string(data))
	return nil
}

func (s *StdoutSink) Close(context.Context) error { return nil }

func ensureRequestID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

func redactIssues(issues []scoring.Issue) []scoring.Issue {
	if len(issues) == 0 {
		return nil
	}
	out := make([]scoring.Issue, len(issues))
	for i, iss := range issues {
		iss.Excerpt = redact.String(simpleRedact(iss.Excerpt))
		iss.Detail = redact.String(simpleRedact(iss.Detail))
		out[i] = iss
	}
	return out
}

var (
	emailRegex = regexp.MustCompile(`(?i)[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	tokenRegex = regexp.MustCompile(`[A-Za-z0-9_\-]{20,}`)
)

func simpleRedact(s string) string {
	s = emailRegex.ReplaceAllString(s, "[REDACTED_EMAIL]")
	s = tokenRegex.ReplaceAllString(s, "[REDACTED_TOKEN]")
	return s
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
