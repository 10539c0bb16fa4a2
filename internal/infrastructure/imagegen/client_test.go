package imagegen

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-runner-api/internal/config"
	"ai-runner-api/internal/domain/prompt"
)

var pngBytes = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}

func newTestClient(baseURL string) *Client {
	return NewClient(&config.ImageGenConfig{
		BaseURL:        baseURL,
		Token:          "hf_test",
		MaxAttempts:    3,
		LoadingBackoff: time.Millisecond,
		RetryBackoff:   time.Millisecond,
		Timeout:        5 * time.Second,
	})
}

// sequenceServer 按顺序返回预设响应，超出后重复最后一个
func sequenceServer(t *testing.T, handlers ...http.HandlerFunc) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		idx := int(n) - 1
		if idx >= len(handlers) {
			idx = len(handlers) - 1
		}
		handlers[idx](w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func image(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(pngBytes)
}

func status(code int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if body != "" {
			w.Header().Set("Content-Type", "application/json")
		}
		w.WriteHeader(code)
		_, _ = w.Write([]byte(body))
	}
}

func TestGenerateSendsContract(t *testing.T) {
	var got generateRequest
	srv, calls := sequenceServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, generatePath, r.URL.Path)
		assert.Equal(t, "hf_test", r.Header.Get("X-HF-Token"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		image(w, r)
	})

	settings := prompt.DefaultSettings()
	img, err := newTestClient(srv.URL).Generate(context.Background(), "a cat", settings)

	require.NoError(t, err)
	assert.Equal(t, pngBytes, img.Data)
	assert.Equal(t, "image/png", img.ContentType)
	assert.Equal(t, 1, img.Attempts)
	assert.EqualValues(t, 1, atomic.LoadInt32(calls))

	assert.Equal(t, "a cat", got.Prompt)
	assert.Equal(t, settings.NegativePrompt, got.NegativePrompt)
	assert.Equal(t, 7.5, got.GuidanceScale)
	assert.Equal(t, 20, got.NumInferenceSteps)
	assert.Equal(t, 1344, got.Width)
	assert.Equal(t, 768, got.Height)
}

func TestGenerateRetries(t *testing.T) {
	tests := []struct {
		name      string
		handlers  []http.HandlerFunc
		wantErr   error
		wantCalls int32
	}{
		{"model loading then ok", []http.HandlerFunc{status(503, ""), image}, nil, 2},
		{"rate limited then ok", []http.HandlerFunc{status(429, `{"error":"slow down"}`), status(429, ""), image}, nil, 3},
		{"model loading exhausts attempts", []http.HandlerFunc{status(503, "")}, ErrModelLoading, 3},
		{"rate limit exhausts attempts", []http.HandlerFunc{status(429, "")}, ErrRateLimited, 3},
		{"other status is terminal", []http.HandlerFunc{status(400, `{"error":"bad prompt"}`), image}, ErrUpstream, 1},
		{"non image non json is terminal", []http.HandlerFunc{status(200, "<html>oops</html>"), image}, ErrUnexpectedFormat, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, calls := sequenceServer(t, tt.handlers...)
			img, err := newTestClient(srv.URL).Generate(context.Background(), "a cat", prompt.DefaultSettings())

			assert.EqualValues(t, tt.wantCalls, atomic.LoadInt32(calls))
			if tt.wantErr == nil {
				require.NoError(t, err)
				assert.Equal(t, int(tt.wantCalls), img.Attempts)
				return
			}
			assert.Nil(t, img)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestGenerateSurfacesUpstreamMessage(t *testing.T) {
	srv, _ := sequenceServer(t, status(400, `{"error":"bad prompt"}`))
	_, err := newTestClient(srv.URL).Generate(context.Background(), "a cat", prompt.DefaultSettings())

	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, 400, upstream.StatusCode)
	assert.Equal(t, "bad prompt", upstream.Error())
}

func TestGenerateFallsBackToStatusText(t *testing.T) {
	srv, _ := sequenceServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	_, err := newTestClient(srv.URL).Generate(context.Background(), "a cat", prompt.DefaultSettings())
	require.Error(t, err)
	assert.Equal(t, "API error: Internal Server Error", err.Error())
}

func TestGenerateJSONErrorOnSuccessStatus(t *testing.T) {
	srv, _ := sequenceServer(t, status(200, `{"error":"content filtered"}`))
	_, err := newTestClient(srv.URL).Generate(context.Background(), "a cat", prompt.DefaultSettings())
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Equal(t, "content filtered", err.Error())
}

func TestGenerateRequiresToken(t *testing.T) {
	srv, calls := sequenceServer(t, image)
	c := newTestClient(srv.URL)
	c.token = ""

	_, err := c.Generate(context.Background(), "a cat", prompt.DefaultSettings())
	assert.ErrorIs(t, err, ErrTokenMissing)
	assert.EqualValues(t, 0, atomic.LoadInt32(calls))
}

func TestGenerateRetriesTransportErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(image))
	url := srv.URL
	srv.Close()

	_, err := newTestClient(url).Generate(context.Background(), "a cat", prompt.DefaultSettings())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "image generation request failed")
}

func TestGenerateStopsWaitingOnCancel(t *testing.T) {
	srv, calls := sequenceServer(t, status(503, ""))
	c := newTestClient(srv.URL)
	c.loadingBackoff = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	started := time.Now()
	_, err := c.Generate(ctx, "a cat", prompt.DefaultSettings())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(started), 5*time.Second)
	assert.EqualValues(t, 1, atomic.LoadInt32(calls))
}

func TestGenerateThrottlesOutboundCalls(t *testing.T) {
	srv, calls := sequenceServer(t, image)
	c := NewClient(&config.ImageGenConfig{
		BaseURL:           srv.URL,
		Token:             "hf_test",
		MaxAttempts:       1,
		RequestsPerSecond: 0.001,
		Burst:             1,
	})

	_, err := c.Generate(context.Background(), "a cat", prompt.DefaultSettings())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.Generate(ctx, "a dog", prompt.DefaultSettings())
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.EqualValues(t, 1, atomic.LoadInt32(calls))
}

func TestGenerateThrottleWaitHonoursCancel(t *testing.T) {
	srv, calls := sequenceServer(t, image)
	c := NewClient(&config.ImageGenConfig{
		BaseURL:           srv.URL,
		Token:             "hf_test",
		MaxAttempts:       1,
		RequestsPerSecond: 0.001,
		Burst:             1,
	})
	_, err := c.Generate(context.Background(), "a cat", prompt.DefaultSettings())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Generate(ctx, "a dog", prompt.DefaultSettings())
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrRateLimited)
	assert.EqualValues(t, 1, atomic.LoadInt32(calls))
}

func TestIsImage(t *testing.T) {
	assert.True(t, isImage("image/png"))
	assert.True(t, isImage("image/jpeg; charset=binary"))
	assert.False(t, isImage("application/json"))
	assert.False(t, isImage(""))
}
