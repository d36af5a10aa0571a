package media

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientRun(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fal-ai/flux/dev", r.URL.Path)
		assert.Equal(t, "Key media-key", r.Header.Get("Authorization"))

		var input map[string]any
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &input))
		assert.Equal(t, "a logo", input["prompt"])

		io.WriteString(w, `{"images":[{"url":"https://cdn.example/logo.png"}]}`)
	}))
	defer srv.Close()

	c := NewClient("media-key", WithBaseURL(srv.URL), WithRateLimit(6000, 10))
	res, err := c.Run(context.Background(), "fal-ai/flux/dev", map[string]any{"prompt": "a logo"})
	require.NoError(t, err)

	url, err := res.URL()
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/logo.png", url)
}

func TestClientRunVideoResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"video":{"url":"https://cdn.example/promo.mp4"}}`)
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL), WithRateLimit(6000, 10))
	res, err := c.Run(context.Background(), "fal-ai/veo3", map[string]any{"prompt": "p"})
	require.NoError(t, err)
	url, err := res.URL()
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/promo.mp4", url)
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		io.WriteString(w, `{"detail":"prompt rejected"}`)
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL), WithRetry(3), WithRateLimit(6000, 10))
	_, err := c.Run(context.Background(), "fal-ai/flux/schnell", map[string]any{"prompt": "p"})

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnprocessableEntity, se.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClientMissingKey(t *testing.T) {
	_, err := NewClient("").Run(context.Background(), "m", nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
}
