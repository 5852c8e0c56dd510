package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"time"

	"glimpse/internal/logging"
)

const (
	defaultBaseURL     = "https://openrouter.ai/api/v1"
	defaultHTTPTimeout = 60 * time.Second
	defaultMaxRetries  = 3
	defaultRetryBase   = time.Second
)

// Config captures the runtime settings required to talk to the gateway.
type Config struct {
	APIKey         string
	BaseURL        string
	Referer        string
	Title          string
	TimeoutSeconds int
}

// Client wraps the OpenRouter HTTP API with authentication, a fixed request
// timeout, and a bounded retry/backoff policy keyed on response status.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger

	maxRetries int
	retryBase  time.Duration
	sleeper    func(context.Context, time.Duration) error
	jitter     func() float64
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithMaxRetries overrides the retry bound (defaults to 3 retries, 4 attempts).
func WithMaxRetries(retries int) Option {
	return func(c *Client) {
		if retries >= 0 {
			c.maxRetries = retries
		}
	}
}

// WithRetryBase overrides the backoff base delay.
func WithRetryBase(base time.Duration) Option {
	return func(c *Client) {
		if base > 0 {
			c.retryBase = base
		}
	}
}

// WithSleeper overrides how backoff sleeps are performed (useful for tests).
func WithSleeper(sleeper func(context.Context, time.Duration) error) Option {
	return func(c *Client) {
		if sleeper != nil {
			c.sleeper = sleeper
		}
	}
}

// WithJitter overrides the jitter source. The function must return a value
// in [0,1); the backoff formula maps it onto uniform(0.5, 1.0).
func WithJitter(jitter func() float64) Option {
	return func(c *Client) {
		if jitter != nil {
			c.jitter = jitter
		}
	}
}

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logging.NewComponentLogger(logger, "openrouter")
		}
	}
}

// NewClient constructs a gateway client from the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			Referer:        strings.TrimSpace(cfg.Referer),
			Title:          strings.TrimSpace(cfg.Title),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
		logger:     logging.NewNop(),
		maxRetries: defaultMaxRetries,
		retryBase:  defaultRetryBase,
		jitter:     rand.Float64,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	return client
}

// Do issues one API request through the retry loop and returns the raw
// response body. Retryable classifications (rate limits, server errors,
// connection failures) are retried with exponential backoff and half-range
// jitter; terminal classifications short-circuit immediately. When all
// attempts are exhausted the last retryable error is surfaced to the caller.
func (c *Client) Do(ctx context.Context, method, endpoint string, body any) ([]byte, error) {
	attempts := c.maxRetries + 1
	var lastErr *APIError

	for attempt := 1; attempt <= attempts; attempt++ {
		data, apiErr := c.doOnce(ctx, method, endpoint, body)
		if apiErr == nil {
			return data, nil
		}
		if !apiErr.Kind.Retryable() {
			return nil, apiErr
		}
		lastErr = apiErr
		if attempt == attempts {
			break
		}
		delay := c.backoffDelay(attempt)
		c.logger.Warn("retrying request",
			logging.String("endpoint", endpoint),
			logging.String("classification", apiErr.Kind.String()),
			logging.Int("attempt", attempt),
			logging.Duration("delay", delay),
			logging.Error(apiErr))
		if err := c.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("openrouter: %d attempts exhausted: %w", attempts, lastErr)
}

// ListModels fetches the full catalog listing. It performs zero internal
// retries; callers (typically a directory refresh) decide whether to retry.
func (c *Client) ListModels(ctx context.Context) ([]Model, error) {
	body, apiErr := c.doOnce(ctx, http.MethodGet, "/models", nil)
	if apiErr != nil {
		return nil, apiErr
	}
	var listing modelListResponse
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, &APIError{Kind: KindUnknown, Message: "decode model listing", Err: err}
	}
	return listing.Data, nil
}

// GetModel fetches metadata for a single model id. A 4xx response means the
// id is unknown upstream. Performs zero internal retries.
func (c *Client) GetModel(ctx context.Context, id string) (Model, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Model{}, &APIError{Kind: KindInvalidRequest, Message: "model id required"}
	}
	body, apiErr := c.doOnce(ctx, http.MethodGet, "/models/"+id, nil)
	if apiErr != nil {
		return Model{}, apiErr
	}
	var lookup modelLookupResponse
	if err := json.Unmarshal(body, &lookup); err == nil && lookup.Data != nil {
		return *lookup.Data, nil
	}
	var model Model
	if err := json.Unmarshal(body, &model); err != nil || model.ID == "" {
		return Model{}, &APIError{Kind: KindUnknown, Message: "decode model lookup", Err: err}
	}
	return model, nil
}

// ChatCompletion issues a chat completion call through the retry loop.
func (c *Client) ChatCompletion(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	var completion ChatResponse
	if strings.TrimSpace(req.Model) == "" {
		return completion, &APIError{Kind: KindInvalidRequest, Message: "model required"}
	}
	if len(req.Messages) == 0 {
		return completion, &APIError{Kind: KindInvalidRequest, Message: "messages required"}
	}
	body, err := c.Do(ctx, http.MethodPost, "/chat/completions", req)
	if err != nil {
		return completion, err
	}
	if err := json.Unmarshal(body, &completion); err != nil {
		return completion, &APIError{Kind: KindUnknown, Message: "decode completion", Err: err}
	}
	return completion, nil
}

// doOnce performs a single attempt and classifies any failure.
func (c *Client) doOnce(ctx context.Context, method, endpoint string, body any) ([]byte, *APIError) {
	target, err := url.JoinPath(c.cfg.BaseURL, endpoint)
	if err != nil {
		return nil, &APIError{Kind: KindUnknown, Message: "build url", Err: err}
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, &APIError{Kind: KindUnknown, Message: "encode body", Err: err}
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, &APIError{Kind: KindUnknown, Message: "new request", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		req.Header.Set("X-Title", c.cfg.Title)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransport(ctx, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransport(ctx, err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, classifyStatus(resp.StatusCode, data)
	}
	return data, nil
}

// backoffDelay computes the delay before retry k (1-indexed):
// base * 2^(k-1) * uniform(0.5, 1.0).
func (c *Client) backoffDelay(retry int) time.Duration {
	if retry < 1 {
		retry = 1
	}
	delay := c.retryBase
	for i := 1; i < retry; i++ {
		delay *= 2
	}
	factor := 0.5 + 0.5*c.jitter()
	return time.Duration(float64(delay) * factor)
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if c.sleeper != nil {
		return c.sleeper(ctx, delay)
	}
	if ctx == nil {
		return errors.New("openrouter: nil context")
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
