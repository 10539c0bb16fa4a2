package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-runner-api/internal/application/playground"
	"ai-runner-api/internal/application/translation"
	"ai-runner-api/internal/config"
	"ai-runner-api/internal/domain/prompt"
	"ai-runner-api/internal/infrastructure/imagegen"
	"ai-runner-api/internal/interfaces/http/handler"
	"ai-runner-api/pkg/utils"
)

type okChecker struct{}

func (okChecker) HealthCheck(context.Context) error { return nil }

type pngGenerator struct{}

func (pngGenerator) Generate(context.Context, string, prompt.GenerationSettings) (*imagegen.Image, error) {
	return &imagegen.Image{Data: []byte{0x89, 'P', 'N', 'G'}, ContentType: "image/png", Attempts: 1}, nil
}

type denyAll struct{}

func (denyAll) Allow(context.Context, string, int, time.Duration) (bool, error) { return false, nil }

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.App.Name = "ai-runner-api"
	cfg.Observability.Metrics.Enabled = true
	cfg.Observability.Metrics.Path = "/metrics"
	cfg.Security.RateLimit.Enabled = true
	cfg.Security.RateLimit.Requests = 1
	cfg.Security.RateLimit.Window = time.Minute
	cfg.Security.CORS.AllowedOrigins = []string{"https://airunner2033.com"}
	return cfg
}

func testHandlers() *Handlers {
	return &Handlers{
		Health:      handler.NewHealthHandler("test", okChecker{}, okChecker{}),
		Prompt:      handler.NewPromptHandler(playground.NewService(pngGenerator{}, 0)),
		Translation: handler.NewTranslationHandler(translation.NewTranslator(nil, nil, nil, "EN", "SL")),
	}
}

func serve(r *Router, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.Engine().ServeHTTP(w, req)
	return w
}

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	m.Run()
}

func TestSystemRoutes(t *testing.T) {
	r := New(testConfig(), testHandlers(), nil, nil)

	for _, path := range []string{"/health", "/live", "/ready", "/metrics"} {
		w := serve(r, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
	w := serve(r, http.MethodGet, "/health", "", "")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestProtectedRoutes(t *testing.T) {
	verifier := utils.NewJWTVerifier("router-secret", "", "")
	r := New(testConfig(), testHandlers(), verifier, nil)

	w := serve(r, http.MethodPost, "/v1/prompts/analyze", `{"prompt":"a cat"}`, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(r, http.MethodPost, "/v1/prompts/generate", `{"prompt":"a cat"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := verifier.SignToken("user-1", "", "", time.Hour)
	require.NoError(t, err)
	w = serve(r, http.MethodPost, "/v1/prompts/generate", `{"prompt":"a cat"}`, token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

	w = serve(r, http.MethodDelete, "/v1/translate/cache", "", token)
	assert.Equal(t, http.StatusForbidden, w.Code)

	admin, err := verifier.SignToken("user-2", "", "admin", time.Hour)
	require.NoError(t, err)
	w = serve(r, http.MethodDelete, "/v1/translate/cache", "", admin)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimitedRoutes(t *testing.T) {
	r := New(testConfig(), testHandlers(), nil, denyAll{})

	w := serve(r, http.MethodPost, "/v1/prompts/compare", `{"prompt":"a cat"}`, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// 纯分析接口不限流
	w = serve(r, http.MethodPost, "/v1/prompts/enhance", `{"prompt":"a cat"}`, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	r := New(testConfig(), testHandlers(), nil, nil)

	req := httptest.NewRequest(http.MethodOptions, "/v1/prompts/analyze", nil)
	req.Header.Set("Origin", "https://airunner2033.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	r.Engine().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://airunner2033.com", w.Header().Get("Access-Control-Allow-Origin"))
}
