package citecheck

import (
	"context"
	"io"
	"net/http"
)

// urlChecker probes cited URLs. It tries HEAD first and falls back to a GET
// when the server rejects HEAD, reading only a small prefix of the body for
// relevance scoring.
type urlChecker struct {
	client    *http.Client
	peekBytes int64
}

type urlProbe struct {
	StatusCode int
	BodyPrefix string
}

func (u *urlChecker) Probe(ctx context.Context, rawURL string) (*urlProbe, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := u.client.Do(req)
	if err == nil {
		resp.Body.Close()
		if resp.StatusCode != http.StatusMethodNotAllowed && resp.StatusCode != http.StatusNotImplemented {
			if resp.StatusCode != http.StatusOK {
				return &urlProbe{StatusCode: resp.StatusCode}, nil
			}
			return u.fetchPrefix(ctx, rawURL)
		}
	}

	// Either the transport failed or the server does not support HEAD.
	return u.fetchPrefix(ctx, rawURL)
}

func (u *urlChecker) fetchPrefix(ctx context.Context, rawURL string) (*urlProbe, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	prefix, err := io.ReadAll(io.LimitReader(resp.Body, u.peekBytes))
	if err != nil {
		return &urlProbe{StatusCode: resp.StatusCode}, nil
	}
	return &urlProbe{StatusCode: resp.StatusCode, BodyPrefix: string(prefix)}, nil
}
