package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Config configures a Client.
type Config struct {
	// BaseURL is joined with relative request paths.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	// Timeout bounds requests that do not set their own. Defaults to 30s.
	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent string        `yaml:"user_agent" mapstructure:"user_agent"`
	// MaxResponseBytes caps how much of a body is read. Defaults to 10 MiB.
	MaxResponseBytes int64             `yaml:"max_response_bytes" mapstructure:"max_response_bytes"`
	Headers          map[string]string `yaml:"headers" mapstructure:"headers"`
}

func (c *Config) applyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxResponseBytes <= 0 {
		c.MaxResponseBytes = 10 << 20
	}
}

// Request is one outbound call.
type Request struct {
	// Method defaults to GET.
	Method string
	// Path is a full URL, or relative to Config.BaseURL.
	Path    string
	Headers map[string]string
	Query   url.Values
	// Timeout overrides Config.Timeout for this request.
	Timeout time.Duration
}

// Response is a fully read reply.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Client runs every request under its own deadline and reports failures
// as *Error.
type Client struct {
	hc  *http.Client
	cfg Config
}

// New builds a Client on a clone of the default transport.
func New(cfg Config) (*Client, error) {
	return NewWithHTTPClient(cfg, &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()})
}

// NewWithHTTPClient builds a Client on hc, e.g. one from httptest.
// Deadlines come from the request context, so hc.Timeout should be zero.
func NewWithHTTPClient(cfg Config, hc *http.Client) (*Client, error) {
	cfg.applyDefaults()
	if cfg.BaseURL != "" {
		if _, err := url.Parse(cfg.BaseURL); err != nil {
			return nil, fmt.Errorf("httpclient: base_url: %w", err)
		}
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{hc: hc, cfg: cfg}, nil
}

// Do sends req and reads the whole body. A non-2xx reply is returned along
// with its classified *Error so callers can still inspect it.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = c.cfg.Timeout
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := c.newRequest(reqCtx, req)
	if err != nil {
		return nil, &Error{Kind: KindInvalid, Err: err}
	}

	resp, err := c.hc.Do(httpReq)
	if err != nil {
		return nil, transportError(ctx, reqCtx, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.cfg.MaxResponseBytes+1))
	if err != nil {
		return nil, transportError(ctx, reqCtx, fmt.Errorf("read body: %w", err))
	}
	if int64(len(body)) > c.cfg.MaxResponseBytes {
		return nil, TooLarge(c.cfg.MaxResponseBytes)
	}

	out := &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}
	if statusErr := CheckStatus(resp.StatusCode, body); statusErr != nil {
		return out, statusErr
	}
	return out, nil
}

func (c *Client) newRequest(ctx context.Context, req Request) (*http.Request, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	target := req.Path
	if c.cfg.BaseURL != "" && !strings.Contains(target, "://") {
		target = strings.TrimSuffix(c.cfg.BaseURL, "/") + "/" + strings.TrimPrefix(target, "/")
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, http.NoBody)
	if err != nil {
		return nil, err
	}
	if len(req.Query) > 0 {
		q := httpReq.URL.Query()
		for k, vs := range req.Query {
			q[k] = append(q[k], vs...)
		}
		httpReq.URL.RawQuery = q.Encode()
	}
	if c.cfg.UserAgent != "" {
		httpReq.Header.Set("User-Agent", c.cfg.UserAgent)
	}
	for _, headers := range []map[string]string{c.cfg.Headers, req.Headers} {
		for k, v := range headers {
			httpReq.Header.Set(k, v)
		}
	}
	return httpReq, nil
}

// transportError tells the request's own deadline apart from the caller
// giving up and from a plain connection failure.
func transportError(parent, req context.Context, err error) *Error {
	switch {
	case parent.Err() != nil && !errors.Is(parent.Err(), context.DeadlineExceeded):
		return Canceled(err)
	case parent.Err() != nil, errors.Is(req.Err(), context.DeadlineExceeded):
		return Timeout(err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Timeout(err)
	}
	return Connection(err)
}
