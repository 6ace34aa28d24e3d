package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"
)

// Transport posts GraphQL payloads to the upstream endpoint. One Transport
// is shared by all requests; the underlying http.Client pools connections.
type Transport struct {
	client    *http.Client
	endpoint  string
	userAgent string
}

// NewTransport builds the shared HTTP client. The bearer token is attached by
// an oauth2 transport, which itself sits on an instrumented base transport.
func NewTransport(cfg Config) (*Transport, error) {
	if cfg.Token == "" {
		return nil, ErrMissingToken
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token, TokenType: "Bearer"})
	client := &http.Client{
		Transport: &oauth2.Transport{
			Source: ts,
			Base:   otelhttp.NewTransport(http.DefaultTransport),
		},
		Timeout: cfg.Timeout,
	}

	return &Transport{
		client:    client,
		endpoint:  cfg.Endpoint,
		userAgent: cfg.UserAgent,
	}, nil
}

// Post sends payload as JSON and returns the status and full body. Any
// status is returned as-is; only failures to complete the exchange are
// errors.
func (t *Transport) Post(ctx context.Context, payload interface{}) (*Response, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", t.userAgent)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}
