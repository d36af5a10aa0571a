package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("github.com/vampirenirmal/brandkit/internal/agent")

// ErrNotConfigured is returned on first use when no text-generation
// credential was supplied.
var ErrNotConfigured = errors.New("text generation API key not configured")

// Supported provider wire formats.
const (
	APIGemini    = "gemini"
	APIOpenAI    = "openai"
	APIAnthropic = "anthropic"
)

// APIError is a non-2xx provider response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Body)
}

type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	maxRetries int
	limiter    *rate.Limiter
	apiType    string
	maxTokens  int
	logger     *slog.Logger
}

type Option func(*Client)

func WithRetry(maxRetries int) Option {
	return func(c *Client) {
		c.maxRetries = maxRetries
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		transport := c.httpClient.Transport
		c.httpClient = &http.Client{
			Timeout:   timeout,
			Transport: transport,
		}
	}
}

func WithRateLimit(requestsPerMinute int, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), burst)
	}
}

// WithAPIConfig points the client at a provider. An empty apiType is
// inferred from the base URL.
func WithAPIConfig(apiType, baseURL, model string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
		c.model = model
		c.apiType = apiType
		if c.apiType == "" {
			c.apiType = detectAPIType(baseURL)
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger.With("component", "text_client")
	}
}

func detectAPIType(baseURL string) string {
	switch {
	case strings.Contains(baseURL, "openai"):
		return APIOpenAI
	case strings.Contains(baseURL, "anthropic"):
		return APIAnthropic
	default:
		return APIGemini
	}
}

// NewClient never fails on a missing key; the first call reports
// ErrNotConfigured instead.
func NewClient(apiKey string, opts ...Option) *Client {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     10,
		IdleConnTimeout:     90 * time.Second,
	}

	c := &Client{
		apiKey:  apiKey,
		baseURL: "https://generativelanguage.googleapis.com/v1beta",
		model:   "gemini-2.5-pro",
		httpClient: &http.Client{
			Timeout:   120 * time.Second,
			Transport: transport,
		},
		maxRetries: 2,
		limiter:    rate.NewLimiter(rate.Limit(1), 1),
		apiType:    APIGemini,
		maxTokens:  8192,
		logger:     slog.Default().With("component", "text_client"),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.logger.Debug("text client initialized",
		"api_type", c.apiType,
		"base_url", c.baseURL,
		"model", c.model,
		"configured", c.Configured(),
		"max_retries", c.maxRetries,
		"rate_limit", fmt.Sprintf("%v req/s", c.limiter.Limit()))

	return c
}

// Configured reports whether a credential is present.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	return c.complete(ctx, "", prompt, false)
}

func (c *Client) CompleteJSON(ctx context.Context, prompt string) (string, error) {
	return c.complete(ctx, "", prompt, true)
}

// CompleteWithSystem makes a request with separate system and user prompts
func (c *Client) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return c.complete(ctx, systemPrompt, userPrompt, false)
}

// CompleteJSONWithSystem makes a JSON request with separate system and user prompts
func (c *Client) CompleteJSONWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return c.complete(ctx, systemPrompt, userPrompt, true)
}

func (c *Client) complete(ctx context.Context, systemPrompt, userPrompt string, forceJSON bool) (string, error) {
	ctx, span := tracer.Start(ctx, "agent.complete")
	defer span.End()
	span.SetAttributes(
		attribute.String("api_type", c.apiType),
		attribute.String("model", c.model),
		attribute.Bool("force_json", forceJSON),
	)

	if !c.Configured() {
		span.RecordError(ErrNotConfigured)
		span.SetStatus(codes.Error, "not configured")
		return "", ErrNotConfigured
	}

	requestID := uuid.NewString()
	startTime := time.Now()

	if err := c.limiter.Wait(ctx); err != nil {
		c.logger.Error("rate limit wait failed",
			"request_id", requestID,
			"error", err)
		return "", fmt.Errorf("rate limit wait failed: %w", err)
	}

	c.logger.Debug("rate limit passed for text request",
		"request_id", requestID,
		"wait_duration_ms", time.Since(startTime).Milliseconds())

	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				c.logger.Warn("request cancelled during backoff",
					"request_id", requestID,
					"attempt", attempt)
				return "", ctx.Err()
			}
		}

		attemptStart := time.Now()
		response, err := c.doRequest(ctx, systemPrompt, userPrompt, forceJSON)
		if err == nil {
			c.logger.Info("text request successful",
				"request_id", requestID,
				"attempt", attempt,
				"duration_ms", time.Since(attemptStart).Milliseconds(),
				"response_length", len(response),
				"total_duration_ms", time.Since(startTime).Milliseconds())
			return response, nil
		}

		lastErr = err
		if !isRetryable(err) {
			c.logger.Error("text request failed with non-retryable error",
				"request_id", requestID,
				"attempt", attempt,
				"error", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, "non-retryable")
			return "", err
		}

		c.logger.Warn("text request failed, will retry",
			"request_id", requestID,
			"attempt", attempt,
			"duration_ms", time.Since(attemptStart).Milliseconds(),
			"error", err)
	}

	c.logger.Error("text request failed after max retries",
		"request_id", requestID,
		"max_retries", c.maxRetries,
		"total_duration_ms", time.Since(startTime).Milliseconds(),
		"last_error", lastErr)

	span.RecordError(lastErr)
	span.SetStatus(codes.Error, "retries exhausted")
	return "", fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *Client) doRequest(ctx context.Context, systemPrompt, userPrompt string, forceJSON bool) (string, error) {
	switch c.apiType {
	case APIOpenAI:
		return c.doOpenAIRequest(ctx, systemPrompt, userPrompt, forceJSON)
	case APIAnthropic:
		return c.doAnthropicRequest(ctx, systemPrompt, userPrompt, forceJSON)
	default:
		return c.doGeminiRequest(ctx, systemPrompt, userPrompt, forceJSON)
	}
}

const jsonOnlyInstruction = "Respond with a single valid JSON object only. Do not include markdown formatting, explanations, or any text outside of the JSON object."

func (c *Client) doGeminiRequest(ctx context.Context, systemPrompt, userPrompt string, forceJSON bool) (string, error) {
	type part struct {
		Text string `json:"text"`
	}
	type content struct {
		Role  string `json:"role,omitempty"`
		Parts []part `json:"parts"`
	}

	requestBody := map[string]any{
		"contents": []content{{Role: "user", Parts: []part{{Text: userPrompt}}}},
	}
	if systemPrompt != "" {
		requestBody["systemInstruction"] = content{Parts: []part{{Text: systemPrompt}}}
	}
	genConfig := map[string]any{"maxOutputTokens": c.maxTokens}
	if forceJSON {
		genConfig["responseMimeType"] = "application/json"
	}
	requestBody["generationConfig"] = genConfig

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))
	respBody, err := c.post(ctx, endpoint, requestBody, map[string]string{
		"x-goog-api-key": c.apiKey,
	})
	if err != nil {
		return "", err
	}

	var response struct {
		Candidates []struct {
			Content struct {
				Parts []part `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(respBody, &response); err != nil {
		return "", fmt.Errorf("parsing response: %w", err)
	}
	if len(response.Candidates) == 0 || len(response.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	var sb strings.Builder
	for _, p := range response.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}

func (c *Client) doOpenAIRequest(ctx context.Context, systemPrompt, userPrompt string, forceJSON bool) (string, error) {
	if forceJSON {
		systemPrompt = strings.TrimSpace(systemPrompt + "\n\n" + jsonOnlyInstruction)
	}

	var messages []map[string]string
	if systemPrompt != "" {
		messages = append(messages, map[string]string{"role": "system", "content": systemPrompt})
	}
	messages = append(messages, map[string]string{"role": "user", "content": userPrompt})

	requestBody := map[string]any{
		"model":      c.model,
		"messages":   messages,
		"max_tokens": c.maxTokens,
	}
	if forceJSON {
		requestBody["response_format"] = map[string]string{"type": "json_object"}
	}

	respBody, err := c.post(ctx, c.baseURL+"/chat/completions", requestBody, map[string]string{
		"Authorization": "Bearer " + c.apiKey,
	})
	if err != nil {
		return "", err
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &response); err != nil {
		return "", fmt.Errorf("parsing response: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	return response.Choices[0].Message.Content, nil
}

func (c *Client) doAnthropicRequest(ctx context.Context, systemPrompt, userPrompt string, forceJSON bool) (string, error) {
	if forceJSON {
		systemPrompt = strings.TrimSpace(systemPrompt + "\n\n" + jsonOnlyInstruction)
	}

	requestBody := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "user", "content": userPrompt},
		},
		"max_tokens": c.maxTokens,
	}
	if systemPrompt != "" {
		requestBody["system"] = systemPrompt
	}

	respBody, err := c.post(ctx, c.baseURL+"/messages", requestBody, map[string]string{
		"x-api-key":         c.apiKey,
		"anthropic-version": "2023-06-01",
	})
	if err != nil {
		return "", err
	}

	var response struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(respBody, &response); err != nil {
		return "", fmt.Errorf("parsing response: %w", err)
	}
	if len(response.Content) == 0 {
		return "", fmt.Errorf("no content in response")
	}
	return response.Content[0].Text, nil
}

func (c *Client) post(ctx context.Context, endpoint string, payload any, headers map[string]string) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	httpStart := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	c.logger.Debug("provider response received",
		"api_type", c.apiType,
		"status_code", resp.StatusCode,
		"body_size", len(respBody),
		"duration_ms", time.Since(httpStart).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: truncate(string(respBody), 512)}
	}
	return respBody, nil
}

// isRetryable retries throttling, server errors and transport failures.
func isRetryable(err error) bool {
	if errors.Is(err, ErrNotConfigured) || errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
	}
	return true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
