// Package transport implements the authenticated request gateway. Every
// domain service call goes through Client, which attaches the bearer token,
// performs at most one transparent token refresh and retry on a 401, and
// turns every failure into a message-bearing error.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"housepass/internal/transport/metrics"
	"housepass/internal/transport/tracer"
	"housepass/pkg/apierrors"
	"housepass/pkg/circuit"
)

const (
	genericRequestMessage = "Something went wrong. Please try again."
	timeoutMessage        = "The request timed out. Please try again."
	offlineMessage        = "The backend is unreachable right now. Please try again shortly."
	sessionGoneMessage    = "Your session has expired. Please log in again."
)

// Session is the slice of the session manager the gateway needs. Refresh
// must clear the session itself on failure; the gateway still calls Logout
// so backend-side revocation is attempted.
type Session interface {
	AccessToken() string
	Refresh(ctx context.Context) (string, error)
	Logout(ctx context.Context)
}

// Client is the authenticated request gateway.
type Client struct {
	baseURL    string
	session    Session
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger
	tracer     tracer.Tracer
	breaker    *circuit.Breaker
	metrics    *metrics.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTimeout sets the maximum wait per logical call. Default 30s.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPClient overrides the underlying HTTP client (tests).
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTracer attaches a tracer; one span is emitted per logical call.
func WithTracer(t tracer.Tracer) Option {
	return func(c *Client) {
		if t != nil {
			c.tracer = t
		}
	}
}

// WithBreaker attaches a circuit breaker. Off by default; door stations on
// flaky venue links enable it to fail fast instead of stacking timeouts.
func WithBreaker(b *circuit.Breaker) Option {
	return func(c *Client) {
		c.breaker = b
	}
}

// WithMetrics attaches Prometheus collectors. Optional; recording is
// nil-guarded.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient creates a gateway for the given backend base URL and session.
func NewClient(baseURL string, session Session, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		session:    session,
		timeout:    30 * time.Second,
		httpClient: &http.Client{},
		logger:     slog.Default(),
		tracer:     tracer.Noop{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RequestOption adjusts a single call.
type RequestOption func(*requestConfig)

type requestConfig struct {
	headers        http.Header
	idempotencyKey string
}

// WithHeader sets a header for this call; caller headers override the
// gateway defaults, including Content-Type.
func WithHeader(key, value string) RequestOption {
	return func(rc *requestConfig) {
		rc.headers.Set(key, value)
	}
}

// WithIdempotencyKey attaches an Idempotency-Key header so an unsafe
// operation can be retried by the operator without double effect.
func WithIdempotencyKey(key string) RequestOption {
	return func(rc *requestConfig) {
		rc.idempotencyKey = key
	}
}

// Get issues a GET and decodes the response into out.
func (c *Client) Get(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodGet, path, nil, out, opts...)
}

// Post issues a POST with a JSON-encoded body.
func (c *Client) Post(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodPost, path, body, out, opts...)
}

// Put issues a PUT with a JSON-encoded body.
func (c *Client) Put(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodPut, path, body, out, opts...)
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodDelete, path, nil, out, opts...)
}

// Do performs one logical call: attempt, conditionally refresh, and
// conditionally retry exactly once. The two-step structure (rather than
// recursion) is what enforces the retry-once invariant.
func (c *Client) Do(ctx context.Context, method, path string, body, out any, opts ...RequestOption) error {
	start := time.Now()
	err := c.do(ctx, method, path, body, out, opts...)
	c.observeDuration(time.Since(start))
	if err != nil {
		var apiErr *apierrors.Error
		if errors.As(err, &apiErr) {
			c.incrementFailures(string(apiErr.Code))
		}
	}
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, opts ...RequestOption) error {
	if c.breaker != nil && !c.breaker.Allow() {
		return apierrors.New(apierrors.CodeRequest, offlineMessage)
	}

	cfg := requestConfig{headers: http.Header{}}
	for _, opt := range opts {
		opt(&cfg)
	}

	var encoded []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return apierrors.Wrap(err, apierrors.CodeInternal, genericRequestMessage)
		}
		encoded = data
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ctx, span := c.tracer.Start(ctx, "api.request",
		tracer.String("http.method", method),
		tracer.String("http.path", path),
	)

	err := c.roundTrips(ctx, method, path, encoded, out, &cfg, span)
	span.End(err)

	// The breaker tracks connectivity only; a backend rejection is still a
	// reachable backend.
	if c.breaker != nil {
		if isNetworkFailure(err) {
			if opened := c.breaker.RecordFailure(); opened {
				c.logger.Warn("backend circuit opened", "path", path)
			}
		} else {
			c.breaker.RecordSuccess()
		}
	}
	return err
}

// roundTrips holds the attempt → refresh → single retry pipeline.
func (c *Client) roundTrips(ctx context.Context, method, path string, body []byte, out any, cfg *requestConfig, span tracer.Span) error {
	status, respBody, err := c.attempt(ctx, method, path, body, c.session.AccessToken(), cfg)
	if err != nil {
		return c.translateTransportError(err)
	}

	if status == http.StatusUnauthorized {
		newToken, refreshErr := c.session.Refresh(ctx)
		if refreshErr != nil {
			c.session.Logout(ctx)
			return apierrors.Wrap(refreshErr, apierrors.CodeSessionExpired, sessionGoneMessage)
		}

		span.SetAttributes(tracer.Bool("auth.retried", true))
		c.incrementRetries()
		status, respBody, err = c.attempt(ctx, method, path, body, newToken, cfg)
		if err != nil {
			return c.translateTransportError(err)
		}
		if status == http.StatusUnauthorized {
			// The fresh token was rejected too; give up rather than loop.
			c.session.Logout(ctx)
			return apierrors.New(apierrors.CodeSessionExpired, sessionGoneMessage)
		}
	}

	span.SetAttributes(tracer.Int("http.status", status))
	c.observeRequest(method, status)

	if status < 200 || status >= 300 {
		return apierrors.New(apierrors.CodeRequest, apierrors.ExtractMessage(respBody, genericRequestMessage))
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return apierrors.Wrap(err, apierrors.CodeRequest, "The server returned an unexpected response.")
		}
	}
	return nil
}

// attempt performs a single HTTP round trip.
func (c *Client) attempt(ctx context.Context, method, path string, body []byte, token string, cfg *requestConfig) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if cfg.idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", cfg.idempotencyKey)
	}
	for key, values := range cfg.headers {
		req.Header.Del(key)
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}

// errUnreachable marks connectivity failures so the breaker can tell them
// apart from backend rejections, which share CodeRequest.
var errUnreachable = errors.New("backend unreachable")

func (c *Client) translateTransportError(err error) error {
	wrapped := fmt.Errorf("%w: %w", errUnreachable, err)
	if errors.Is(err, context.DeadlineExceeded) {
		return apierrors.Wrap(wrapped, apierrors.CodeTimeout, timeoutMessage)
	}
	return apierrors.Wrap(wrapped, apierrors.CodeRequest, offlineMessage)
}

func isNetworkFailure(err error) bool {
	return errors.Is(err, errUnreachable)
}

func (c *Client) observeRequest(method string, status int) {
	if c.metrics != nil {
		c.metrics.ObserveRequest(method, status)
	}
}

func (c *Client) incrementRetries() {
	if c.metrics != nil {
		c.metrics.IncrementRetries()
	}
}

func (c *Client) incrementFailures(code string) {
	if c.metrics != nil {
		c.metrics.IncrementFailures(code)
	}
}

func (c *Client) observeDuration(d time.Duration) {
	if c.metrics != nil {
		c.metrics.ObserveDuration(float64(d.Milliseconds()))
	}
}
