package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rpggio/stocksync/internal/domain/usage"
	"github.com/rpggio/stocksync/internal/notify"
	"github.com/rpggio/stocksync/internal/tenant"
)

// MaxAttempts is the number of times a request is sent. The gateway does
// not retry; callers decide whether to repeat an operation.
const MaxAttempts = 1

// Header names on the wire.
const (
	HeaderTenant      = "X-Tenant-ID"
	HeaderPlan        = "X-Organization-Plan"
	HeaderPerformedBy = "X-Performed-By"
	HeaderUsageSKU    = "X-Usage-SKU"
	HeaderUsageAI     = "X-Usage-AI"
)

// Request describes one API call relative to the base URL.
type Request struct {
	Method      string
	Path        string
	Query       url.Values
	Body        any
	PerformedBy string
}

// Response is the raw server reply.
type Response struct {
	Method     string
	Path       string
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Decode unmarshals the body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", r.Method, r.Path, err)
	}
	return nil
}

// Message returns the server's error message, falling back to the raw body.
func (r *Response) Message() string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(r.Body, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return strings.TrimSpace(string(r.Body))
}

// Err returns a *StatusError for non-2xx responses and nil otherwise.
func (r *Response) Err() error {
	if r.OK() {
		return nil
	}
	return &StatusError{
		Method:     r.Method,
		Path:       r.Path,
		StatusCode: r.StatusCode,
		Class:      Classify(r.StatusCode),
		Message:    r.Message(),
	}
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithNotifier sets the notification sink.
func WithNotifier(n notify.Notifier) Option {
	return func(c *Client) { c.notifier = n }
}

// WithUsage sets the tracker that receives usage headers.
func WithUsage(t *usage.Tracker) Option {
	return func(c *Client) { c.usage = t }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithTimeout bounds each request. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// Client is the authenticated gateway to the inventory API.
type Client struct {
	baseURL  string
	http     *http.Client
	notifier notify.Notifier
	usage    *usage.Tracker
	logger   *slog.Logger
	timeout  time.Duration
}

// New creates a gateway for baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     http.DefaultClient,
		notifier: notify.Discard{},
		usage:    usage.NewTracker(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c
}

// Usage returns the tracker fed by this client.
func (c *Client) Usage() *usage.Tracker {
	return c.usage
}

// Do sends req on behalf of tc. 402 and 429 responses are returned, not
// turned into errors, after the matching notification is raised.
func (c *Client) Do(ctx context.Context, tc tenant.Context, req Request) (*Response, error) {
	token, err := tc.Token(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("getting token: %w", err)
	}

	var resp *Response
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		resp, err = c.send(ctx, tc, token, req)
		if err == nil {
			break
		}
	}
	if err != nil {
		if ctx.Err() == nil {
			c.notifier.Notify(ctx, notify.Connectivity())
		}
		c.logger.WarnContext(ctx, "request failed", "method", req.Method, "path", req.Path, "tenant_id", tc.TenantID, "error", err)
		return nil, fmt.Errorf("%w: %s %s: %v", ErrConnectivity, req.Method, req.Path, err)
	}

	c.publishUsage(ctx, resp.Header)

	switch resp.StatusCode {
	case http.StatusPaymentRequired:
		c.notifier.Notify(ctx, notify.PlanLimit(resp.Message()))
	case http.StatusTooManyRequests:
		c.notifier.Notify(ctx, notify.RateLimit())
	}

	c.logger.DebugContext(ctx, "request", "method", req.Method, "path", req.Path, "tenant_id", tc.TenantID, "status", resp.StatusCode)
	return resp, nil
}

func (c *Client) send(ctx context.Context, tc tenant.Context, token string, req Request) (*Response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	target := c.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encoding body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set(HeaderTenant, tc.TenantID)
	httpReq.Header.Set(HeaderPlan, tc.Plan)
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.PerformedBy != "" {
		httpReq.Header.Set(HeaderPerformedBy, req.PerformedBy)
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	return &Response{
		Method:     req.Method,
		Path:       req.Path,
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       data,
	}, nil
}

func (c *Client) publishUsage(ctx context.Context, h http.Header) {
	sku := c.parseQuota(ctx, h.Get(HeaderUsageSKU))
	ai := c.parseQuota(ctx, h.Get(HeaderUsageAI))
	c.usage.Publish(sku, ai)
}

func (c *Client) parseQuota(ctx context.Context, raw string) *usage.Quota {
	if raw == "" {
		return nil
	}
	q, err := usage.ParseQuota(raw)
	if err != nil {
		c.logger.DebugContext(ctx, "ignoring usage header", "value", raw, "error", err)
		return nil
	}
	return &q
}
