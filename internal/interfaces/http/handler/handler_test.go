package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-runner-api/internal/application/contact"
	"ai-runner-api/internal/application/playground"
	"ai-runner-api/internal/application/translation"
	"ai-runner-api/internal/domain/entity"
	"ai-runner-api/internal/domain/prompt"
	"ai-runner-api/internal/domain/repository"
	"ai-runner-api/internal/infrastructure/chat"
	"ai-runner-api/internal/infrastructure/imagegen"
	"ai-runner-api/internal/infrastructure/optimizer"
	apperrors "ai-runner-api/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			_ = json.NewEncoder(&buf).Encode(body)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// --- prompt ---

type stubGenerator struct {
	err error
}

func (g *stubGenerator) Generate(_ context.Context, text string, _ prompt.GenerationSettings) (*imagegen.Image, error) {
	if g.err != nil {
		return nil, g.err
	}
	return &imagegen.Image{Data: []byte("png:" + text), ContentType: "image/png", Attempts: 2}, nil
}

func promptRouter(gen playground.ImageGenerator) *gin.Engine {
	h := NewPromptHandler(playground.NewService(gen, 0))
	r := gin.New()
	r.POST("/analyze", h.Analyze)
	r.POST("/enhance", h.Enhance)
	r.GET("/settings", h.Settings)
	r.POST("/generate", h.Generate)
	r.POST("/compare", h.Compare)
	return r
}

func TestPromptAnalyze(t *testing.T) {
	r := promptRouter(&stubGenerator{})

	w := perform(r, http.MethodPost, "/analyze", map[string]string{"prompt": "Something cool"})
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, "bad", data["quality"])
	assert.Equal(t, "Something cool", data["prompt"])

	w = perform(r, http.MethodPost, "/analyze", "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPromptEnhance(t *testing.T) {
	w := perform(promptRouter(&stubGenerator{}), http.MethodPost, "/enhance", map[string]string{"prompt": "A picture"})
	require.Equal(t, http.StatusOK, w.Code)

	data := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, "A picture", data["original"])
	assert.Len(t, data["improvements"], 5)
}

func TestPromptSettings(t *testing.T) {
	w := perform(promptRouter(&stubGenerator{}), http.MethodGet, "/settings", nil)
	require.Equal(t, http.StatusOK, w.Code)

	data := decode(t, w)["data"].(map[string]any)
	assert.Len(t, data["aspect_ratios"], len(prompt.AspectRatios))
	assert.Equal(t, 7.5, data["defaults"].(map[string]any)["guidanceScale"])
}

func TestPromptGenerate(t *testing.T) {
	w := perform(promptRouter(&stubGenerator{}), http.MethodPost, "/generate", map[string]any{"prompt": "a fox"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "2", w.Header().Get("X-Image-Attempts"))
	assert.Equal(t, "png:a fox", w.Body.String())
}

func TestPromptGenerateErrors(t *testing.T) {
	tests := []struct {
		name       string
		prompt     string
		err        error
		wantStatus int
		wantText   string
	}{
		{"blank prompt", "   ", nil, http.StatusBadRequest, playground.EmptyPromptHint},
		{"model loading", "a fox", imagegen.ErrModelLoading, http.StatusServiceUnavailable, "model is loading"},
		{"rate limited", "a fox", imagegen.ErrRateLimited, http.StatusTooManyRequests, "rate limit exceeded"},
		{"upstream message", "a fox", &imagegen.UpstreamError{StatusCode: 400, Message: "NSFW content detected"}, http.StatusBadGateway, "NSFW content detected"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := perform(promptRouter(&stubGenerator{err: tt.err}), http.MethodPost, "/generate", map[string]any{"prompt": tt.prompt})
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantText)
		})
	}
}

func TestPromptCompare(t *testing.T) {
	w := perform(promptRouter(&stubGenerator{}), http.MethodPost, "/compare", map[string]any{
		"prompt":       "A picture",
		"aspect_ratio": "1:1",
	})
	require.Equal(t, http.StatusOK, w.Code)

	data := decode(t, w)["data"].(map[string]any)
	original := data["original"].(map[string]any)
	enhanced := data["enhanced"].(map[string]any)
	assert.Equal(t, "A picture", original["prompt"])
	assert.True(t, strings.HasPrefix(original["image"].(string), "data:image/png;base64,"))
	assert.NotEqual(t, original["prompt"], enhanced["prompt"])
	assert.EqualValues(t, 1024, data["settings"].(map[string]any)["width"])
}

// --- optimizer ---

type stubOptimizer struct {
	err     error
	reverse optimizer.ReverseRequest
}

func (o *stubOptimizer) Optimize(_ context.Context, text, model string) (string, error) {
	if o.err != nil {
		return "", o.err
	}
	return "optimized for " + model + ": " + text, nil
}

func (o *stubOptimizer) ReverseAI(_ context.Context, req optimizer.ReverseRequest) (*optimizer.ReverseResult, error) {
	o.reverse = req
	if o.err != nil {
		return nil, o.err
	}
	return &optimizer.ReverseResult{ReconstructedPrompt: "a neon city"}, nil
}

func optimizerRouter(o Optimizer) *gin.Engine {
	h := NewOptimizerHandler(o)
	r := gin.New()
	r.POST("/optimize", h.Optimize)
	r.POST("/reverse", h.Reverse)
	return r
}

func TestOptimize(t *testing.T) {
	w := perform(optimizerRouter(&stubOptimizer{}), http.MethodPost, "/optimize", map[string]string{"prompt": "cat", "model": "Midjourney"})
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, "midjourney", data["model"])

	w = perform(optimizerRouter(&stubOptimizer{}), http.MethodPost, "/optimize", map[string]string{"prompt": "cat"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOptimizeErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantText   string
	}{
		{"empty prompt", optimizer.ErrEmptyPrompt, http.StatusBadRequest, "prompt is required"},
		{"unsupported model", errors.Join(optimizer.ErrUnsupportedModel), http.StatusBadRequest, "model is not supported"},
		{"upstream 4xx", &optimizer.APIError{StatusCode: 422, Detail: "Prompt too long"}, http.StatusBadRequest, "Prompt too long"},
		{"upstream 5xx", &optimizer.APIError{StatusCode: 500, Detail: "Request failed with status 500"}, http.StatusBadGateway, "Request failed with status 500"},
		{"transport", errors.New("dial tcp: refused"), http.StatusInternalServerError, "prompt optimization failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := perform(optimizerRouter(&stubOptimizer{err: tt.err}), http.MethodPost, "/optimize", map[string]string{"prompt": "cat", "model": "sora"})
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantText)
		})
	}
}

func TestReverseDefaults(t *testing.T) {
	o := &stubOptimizer{}
	w := perform(optimizerRouter(o), http.MethodPost, "/reverse", map[string]any{"mode": "image", "target": "https://example.com/a.png"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 40, o.reverse.Creativity)
	assert.Equal(t, 70, o.reverse.Depth)

	w = perform(optimizerRouter(o), http.MethodPost, "/reverse", map[string]any{"mode": "image", "target": "x", "creativity": 0})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, o.reverse.Creativity)
}

// --- chat ---

type stubChat struct {
	reply string
	err   error
}

func (s *stubChat) Reply(context.Context, string, string) (string, error) {
	return s.reply, s.err
}

func TestChat(t *testing.T) {
	route := func(c ChatClient) *gin.Engine {
		r := gin.New()
		r.POST("/chat", NewChatHandler(c).Chat)
		return r
	}

	w := perform(route(&stubChat{reply: "Meow!"}), http.MethodPost, "/chat", map[string]string{"message": "hi"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Meow!", decode(t, w)["data"].(map[string]any)["reply"])

	w = perform(route(&stubChat{}), http.MethodPost, "/chat", map[string]string{"message": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Message is required")

	w = perform(route(&stubChat{err: chat.ErrNotConfigured}), http.MethodPost, "/chat", map[string]string{"message": "hi"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "LLM API key is not configured on the server")

	w = perform(route(&stubChat{err: &chat.BackendError{StatusCode: 401, Details: "invalid key"}}), http.MethodPost, "/chat", map[string]string{"message": "hi"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "invalid key")
}

// --- translation ---

type upperProvider struct{}

func (upperProvider) Configured() bool { return true }

func (upperProvider) Translate(_ context.Context, text, _, target string) (string, error) {
	return target + ":" + strings.ToUpper(text), nil
}

func TestTranslate(t *testing.T) {
	h := NewTranslationHandler(translation.NewTranslator(upperProvider{}, nil, nil, "EN", "SL"))
	r := gin.New()
	r.POST("/translate", h.Translate)
	r.DELETE("/translate/cache", h.ResetCache)

	w := perform(r, http.MethodPost, "/translate", map[string]any{"text": "hello"})
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, "SL:HELLO", data["text"])
	assert.Equal(t, "SL", data["target_lang"])

	w = perform(r, http.MethodPost, "/translate", map[string]any{
		"data":        map[string]any{"nav": []any{"home"}},
		"target_lang": "DE",
	})
	require.Equal(t, http.StatusOK, w.Code)
	data = decode(t, w)["data"].(map[string]any)
	assert.Equal(t, []any{"DE:HOME"}, data["data"].(map[string]any)["nav"])

	w = perform(r, http.MethodPost, "/translate", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = perform(r, http.MethodDelete, "/translate/cache", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, decode(t, w)["data"].(map[string]any)["memory_cleared"])
}

// --- contact ---

type stubContactService struct {
	in         contact.SubmitInput
	err        error
	items      []*entity.ContactRequest
	republishN int
	limit      int
}

func (s *stubContactService) Submit(_ context.Context, in contact.SubmitInput) (*entity.ContactRequest, error) {
	s.in = in
	if s.err != nil {
		return nil, s.err
	}
	c := entity.NewContactRequest(in.Name, in.Email, in.Subject, in.Message, in.Course, in.Interests)
	c.MarkQueued("1-0")
	return c, nil
}

func (s *stubContactService) Get(_ context.Context, id string) (*entity.ContactRequest, error) {
	for _, c := range s.items {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (s *stubContactService) List(_ context.Context, _ repository.ContactFilter, page, pageSize int) (*repository.PagedResult[*entity.ContactRequest], error) {
	return repository.NewPagedResult(s.items, int64(len(s.items)), repository.NewPagination(page, pageSize)), nil
}

func (s *stubContactService) RepublishPending(_ context.Context, limit int) (int, error) {
	s.limit = limit
	if s.err != nil {
		return 0, s.err
	}
	return s.republishN, nil
}

func contactRouter(svc ContactService) *gin.Engine {
	h := NewContactHandler(svc)
	r := gin.New()
	r.POST("/contact", h.Submit)
	r.GET("/contact", h.List)
	r.GET("/contact/:id", h.Get)
	r.POST("/contact/republish", h.Republish)
	return r
}

func TestContactSubmit(t *testing.T) {
	svc := &stubContactService{}
	w := perform(contactRouter(svc), http.MethodPost, "/contact", map[string]any{
		"name":      "Ana",
		"email":     "ana@example.com",
		"message":   "Book me in",
		"interests": []string{"images"},
	})
	require.Equal(t, http.StatusAccepted, w.Code)
	data := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, "queued", data["status"])
	assert.Equal(t, []string{"images"}, svc.in.Interests)

	w = perform(contactRouter(svc), http.MethodPost, "/contact", map[string]any{"name": "Ana", "email": "nope", "message": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	failing := &stubContactService{err: apperrors.New(apperrors.CodeDatabaseError, "failed to save contact request")}
	w = perform(contactRouter(failing), http.MethodPost, "/contact", map[string]any{"name": "Ana", "email": "ana@example.com", "message": "x"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "5001")
}

func TestContactListAndGet(t *testing.T) {
	c := entity.NewContactRequest("Ana", "ana@example.com", "", "hello", "", nil)
	svc := &stubContactService{items: []*entity.ContactRequest{c}}
	r := contactRouter(svc)

	w := perform(r, http.MethodGet, "/contact?page=1&page_size=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Len(t, body["data"].(map[string]any)["items"], 1)
	assert.EqualValues(t, 1, body["meta"].(map[string]any)["total"])

	w = perform(r, http.MethodGet, "/contact/"+c.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = perform(r, http.MethodGet, "/contact/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestContactRepublish(t *testing.T) {
	svc := &stubContactService{republishN: 3}
	w := perform(contactRouter(svc), http.MethodPost, "/contact/republish", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 3, decode(t, w)["data"].(map[string]any)["published"])
	assert.Equal(t, 50, svc.limit)

	w = perform(contactRouter(svc), http.MethodPost, "/contact/republish?limit=500", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	failing := &stubContactService{err: apperrors.New(apperrors.CodeCacheError, "failed to queue contact request")}
	w = perform(contactRouter(failing), http.MethodPost, "/contact/republish?limit=5", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, 5, failing.limit)
}

// --- health ---

type stubChecker struct{ err error }

func (s stubChecker) HealthCheck(context.Context) error { return s.err }

func TestReady(t *testing.T) {
	route := func(h *HealthHandler) *gin.Engine {
		r := gin.New()
		r.GET("/ready", h.Ready)
		r.GET("/health", h.Health)
		return r
	}

	w := perform(route(NewHealthHandler("v1", stubChecker{}, stubChecker{})), http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = perform(route(NewHealthHandler("v1", stubChecker{}, stubChecker{err: errors.New("redis down")})), http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	checks := decode(t, w)["checks"].(map[string]any)
	assert.Equal(t, "error", checks["redis"].(map[string]any)["status"])
	assert.Equal(t, "ok", checks["postgres"].(map[string]any)["status"])

	w = perform(route(NewHealthHandler("v1", nil, stubChecker{})), http.MethodGet, "/health", nil)
	assert.Contains(t, w.Body.String(), `"version":"v1"`)
}
