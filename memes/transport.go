package memes

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/atul-1602/memecraft/httpclient"
)

// Transport performs one bounded attempt at retrieving the template list.
type Transport interface {
	// Name identifies the transport in logs, metrics and error details.
	Name() string
	// Timeout is the per-attempt deadline.
	Timeout() time.Duration
	// Fetch issues the request and decodes the upstream envelope.
	Fetch(ctx context.Context) ([]Template, error)
}

var defaultHeaders = map[string]string{
	"Accept":       "application/json",
	"Content-Type": "application/json",
}

// DirectTransport calls the upstream endpoint directly.
type DirectTransport struct {
	client   *httpclient.Client
	endpoint string
	timeout  time.Duration
}

// NewDirectTransport creates the primary transport.
func NewDirectTransport(client *httpclient.Client, endpoint string, timeout time.Duration) *DirectTransport {
	return &DirectTransport{client: client, endpoint: endpoint, timeout: timeout}
}

func (t *DirectTransport) Name() string           { return "direct" }
func (t *DirectTransport) Timeout() time.Duration { return t.timeout }

// Fetch implements Transport.
func (t *DirectTransport) Fetch(ctx context.Context) ([]Template, error) {
	resp, err := t.client.Do(ctx, httpclient.Request{
		Path:    t.endpoint,
		Headers: defaultHeaders,
		Timeout: t.timeout,
	})
	if err != nil {
		return nil, err
	}
	return decodeEnvelope(resp.Body)
}

// RelayTransport routes the same request through a CORS relay by appending
// the escaped upstream URL to a fixed prefix.
type RelayTransport struct {
	client   *httpclient.Client
	prefix   string
	endpoint string
	timeout  time.Duration
}

// NewRelayTransport creates the fallback transport.
func NewRelayTransport(client *httpclient.Client, prefix, endpoint string, timeout time.Duration) *RelayTransport {
	return &RelayTransport{client: client, prefix: prefix, endpoint: endpoint, timeout: timeout}
}

func (t *RelayTransport) Name() string           { return "relay" }
func (t *RelayTransport) Timeout() time.Duration { return t.timeout }

// URL returns the relay URL for the upstream endpoint.
func (t *RelayTransport) URL() string {
	return RelayURL(t.prefix, t.endpoint)
}

// Fetch implements Transport.
func (t *RelayTransport) Fetch(ctx context.Context) ([]Template, error) {
	resp, err := t.client.Do(ctx, httpclient.Request{
		Path:    t.URL(),
		Headers: defaultHeaders,
		Timeout: t.timeout,
	})
	if err != nil {
		return nil, err
	}
	body, err := unwrapRelay(resp.Body)
	if err != nil {
		return nil, err
	}
	return decodeEnvelope(body)
}

// RelayURL builds prefix + escaped target, matching encodeURIComponent for
// URL characters.
func RelayURL(prefix, target string) string {
	return prefix + strings.ReplaceAll(url.QueryEscape(target), "+", "%20")
}
