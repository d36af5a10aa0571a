package agent

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientMissingKeyDefersToFirstUse(t *testing.T) {
	c := NewClient("")
	assert.False(t, c.Configured())

	_, err := c.Complete(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestClientGeminiRequest(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &gotBody))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"{\"ok\":"},{"text":"true}"}]}}]}`)
	}))
	defer srv.Close()

	c := NewClient("test-key",
		WithAPIConfig(APIGemini, srv.URL, "gemini-test"),
		WithRateLimit(6000, 10))

	out, err := c.CompleteJSONWithSystem(context.Background(), "be a strategist", "idea")
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, out)

	assert.Contains(t, gotBody, "systemInstruction")
	genConfig := gotBody["generationConfig"].(map[string]any)
	assert.Equal(t, "application/json", genConfig["responseMimeType"])
}

func TestClientLogsUUIDRequestIDs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"choices":[{"message":{"content":"hello"}}]}`)
	}))
	defer srv.Close()

	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	c := NewClient("sk-test",
		WithAPIConfig(APIOpenAI, srv.URL, "gpt-4o-mini"),
		WithRateLimit(6000, 10),
		WithLogger(logger))

	for i := 0; i < 2; i++ {
		_, err := c.Complete(context.Background(), "hello")
		require.NoError(t, err)
	}

	seen := map[string]bool{}
	sc := bufio.NewScanner(&logs)
	for sc.Scan() {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &entry))
		id, ok := entry["request_id"].(string)
		if !ok {
			continue
		}
		_, err := uuid.Parse(id)
		assert.NoError(t, err, "request_id %q", id)
		seen[id] = true
	}
	assert.Len(t, seen, 2, "each request gets its own id")
}

func TestClientOpenAIRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		io.WriteString(w, `{"choices":[{"message":{"content":"hello"}}]}`)
	}))
	defer srv.Close()

	c := NewClient("sk-test", WithAPIConfig(APIOpenAI, srv.URL, "gpt-4o-mini"), WithRateLimit(6000, 10))
	out, err := c.Complete(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}

func TestClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, `{"content":[{"text":"second time lucky"}]}`)
	}))
	defer srv.Close()

	c := NewClient("key", WithAPIConfig(APIAnthropic, srv.URL, "claude"), WithRetry(2), WithRateLimit(6000, 10))
	out, err := c.Complete(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "second time lucky", out)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":"bad"}`)
	}))
	defer srv.Close()

	c := NewClient("key", WithAPIConfig(APIOpenAI, srv.URL, "m"), WithRetry(3), WithTimeout(5*time.Second), WithRateLimit(6000, 10))
	_, err := c.Complete(context.Background(), "hi")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDetectAPIType(t *testing.T) {
	assert.Equal(t, APIOpenAI, detectAPIType("https://api.openai.com/v1"))
	assert.Equal(t, APIAnthropic, detectAPIType("https://api.anthropic.com/v1"))
	assert.Equal(t, APIGemini, detectAPIType("https://generativelanguage.googleapis.com/v1beta"))
}
