package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("github.com/vampirenirmal/brandkit/internal/media")

// ErrNotConfigured is returned on first use when no media credential was
// supplied.
var ErrNotConfigured = errors.New("media generation API key not configured")

// ErrNoMedia means the provider answered without a usable URL.
var ErrNoMedia = errors.New("no media URL in response")

// File is one generated media file.
type File struct {
	URL string `json:"url"`
}

// Result is the subset of a provider response the pipeline reads.
type Result struct {
	Images []File `json:"images"`
	Video  *File  `json:"video"`
}

// URL returns the first image URL, else the video URL.
func (r Result) URL() (string, error) {
	if len(r.Images) > 0 && r.Images[0].URL != "" {
		return r.Images[0].URL, nil
	}
	if r.Video != nil && r.Video.URL != "" {
		return r.Video.URL, nil
	}
	return "", ErrNoMedia
}

// Runner submits one generation job and waits for its result.
type Runner interface {
	Run(ctx context.Context, model string, input map[string]any) (Result, error)
}

// StatusError is a non-2xx provider response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("media API error (status %d): %s", e.StatusCode, e.Body)
}

// Client calls a synchronous media-generation endpoint at {baseURL}/{model}.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
	logger     *slog.Logger
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

func WithRetry(maxRetries int) Option {
	return func(c *Client) {
		c.maxRetries = maxRetries
	}
}

// WithRateLimit spaces outgoing jobs; the provider throttles bursts.
func WithRateLimit(requestsPerMinute int, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), burst)
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger.With("component", "media_client")
	}
}

func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    "https://fal.run",
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		limiter:    rate.NewLimiter(rate.Limit(1), 2),
		maxRetries: 1,
		logger:     slog.Default().With("component", "media_client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether a credential is present.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

func (c *Client) Run(ctx context.Context, model string, input map[string]any) (Result, error) {
	ctx, span := tracer.Start(ctx, "media.run")
	defer span.End()
	span.SetAttributes(attribute.String("model", model))

	if !c.Configured() {
		span.RecordError(ErrNotConfigured)
		span.SetStatus(codes.Error, "not configured")
		return Result{}, ErrNotConfigured
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return Result{}, fmt.Errorf("rate limit wait failed: %w", err)
	}

	body, err := json.Marshal(input)
	if err != nil {
		return Result{}, fmt.Errorf("marshaling input: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(attempt) * 2 * time.Second):
			case <-ctx.Done():
				return Result{}, ctx.Err()
			}
		}

		start := time.Now()
		res, err := c.do(ctx, model, body)
		if err == nil {
			c.logger.Info("media job completed",
				"model", model,
				"attempt", attempt,
				"duration_ms", time.Since(start).Milliseconds())
			return res, nil
		}

		lastErr = err
		var se *StatusError
		if errors.As(err, &se) && se.StatusCode < 500 && se.StatusCode != http.StatusTooManyRequests {
			break
		}
		c.logger.Warn("media job failed",
			"model", model,
			"attempt", attempt,
			"error", err)
	}

	span.RecordError(lastErr)
	span.SetStatus(codes.Error, "media job failed")
	return Result{}, lastErr
}

func (c *Client) do(ctx context.Context, model string, body []byte) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+strings.TrimLeft(model, "/"), bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Key "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := string(respBody)
		if len(msg) > 512 {
			msg = msg[:512] + "..."
		}
		return Result{}, &StatusError{StatusCode: resp.StatusCode, Body: msg}
	}

	var res Result
	if err := json.Unmarshal(respBody, &res); err != nil {
		return Result{}, fmt.Errorf("parsing response: %w", err)
	}
	return res, nil
}
