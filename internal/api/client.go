// Package api is the HTTP client for the finance REST backend.
//
// Every call returns either a decoded payload or an error classified as
// *core.AuthError (the session is dead) or *core.TransientDataError
// (anything else: network, timeout, 5xx, malformed body).
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"alkansya/internal/core"
	"alkansya/internal/log"
	"alkansya/internal/metrics"
)

const (
	maxResponseBytes = 4 << 20
	maxErrorSnippet  = 256

	HeaderRequestID = "X-Request-ID"
)

// ErrMissingToken is returned before any I/O when an authenticated call gets no token
var ErrMissingToken = errors.New("missing bearer token")

// Config holds client settings
type Config struct {
	BaseURL      string
	ValidatePath string
	Timeout      time.Duration
	RateLimit    float64 // requests per second, 0 disables limiting
	RateBurst    int
	HTTPClient   *http.Client
	Metrics      metrics.Recorder
}

// Client talks to the remote API
type Client struct {
	baseURL      *url.URL
	validatePath string
	http         *http.Client
	limiter      *rate.Limiter
	logger       *log.Logger
	structured   *log.StructuredLogger
	metrics      metrics.Recorder
}

// New creates a client. The base URL must be absolute.
func New(cfg Config, logger *log.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base URL %q must be absolute", cfg.BaseURL)
	}

	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentAPI)

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	validatePath := cfg.ValidatePath
	if validatePath == "" {
		validatePath = "/validate"
	}

	rec := cfg.Metrics
	if rec == nil {
		rec = metrics.Nop{}
	}

	return &Client{
		baseURL:      base,
		validatePath: validatePath,
		http:         httpClient,
		limiter:      limiter,
		logger:       logger,
		structured:   log.NewStructuredLogger(logger),
		metrics:      rec,
	}, nil
}

// call describes one request
type call struct {
	op     string // resource/operation name used in errors, logs and metrics
	method string
	path   string
	token  string
	auth   bool
	query  url.Values
	body   any
	out    any
}

func (c *Client) do(ctx context.Context, cl call) error {
	if cl.auth && cl.token == "" {
		return &core.AuthError{Op: cl.op, Err: ErrMissingToken}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &core.TransientDataError{Op: cl.op, Err: fmt.Errorf("rate limiter: %w", err)}
		}
	}

	req, err := c.newRequest(ctx, cl)
	if err != nil {
		return &core.TransientDataError{Op: cl.op, Err: err}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.finish(ctx, cl, req, 0, start)
		return &core.TransientDataError{Op: cl.op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	c.finish(ctx, cl, req, resp.StatusCode, start)
	if err != nil {
		return &core.TransientDataError{Op: cl.op, Status: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	if err := classifyStatus(cl.op, resp.StatusCode, raw); err != nil {
		return err
	}

	if cl.out == nil {
		return nil
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return &core.TransientDataError{Op: cl.op, Status: resp.StatusCode, Err: errors.New("empty response body")}
	}
	if err := json.Unmarshal(raw, cl.out); err != nil {
		return &core.TransientDataError{Op: cl.op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, cl call) (*http.Request, error) {
	u := c.baseURL.JoinPath(cl.path)
	if len(cl.query) > 0 {
		u.RawQuery = cl.query.Encode()
	}

	var body io.Reader
	if cl.body != nil {
		b, err := json.Marshal(cl.body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cl.token != "" {
		req.Header.Set("Authorization", "Bearer "+cl.token)
	}
	req.Header.Set(HeaderRequestID, uuid.NewString())
	return req, nil
}

func (c *Client) finish(ctx context.Context, cl call, req *http.Request, status int, start time.Time) {
	elapsed := time.Since(start)
	c.metrics.RecordAPIResponse(cl.op, status, elapsed)
	c.structured.LogHTTPEnd(ctx, log.ComponentAPI, req.Method, req.URL.Path, status, elapsed.Milliseconds())
}

// classifyStatus maps a non-2xx response onto the error taxonomy.
// 401/403 are always auth failures; other statuses are auth failures only
// when the body says the session is gone.
func classifyStatus(op string, status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}
	snippet := snippetOf(body)
	if core.IsAuthStatus(status) || core.LooksLikeAuthMessage(snippet) {
		return &core.AuthError{Op: op, Status: status, Err: errorFromBody(snippet)}
	}
	return &core.TransientDataError{Op: op, Status: status, Err: errorFromBody(snippet)}
}

func errorFromBody(snippet string) error {
	if snippet == "" {
		return nil
	}
	return errors.New(snippet)
}

func snippetOf(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorSnippet {
		s = s[:maxErrorSnippet]
	}
	return s
}
