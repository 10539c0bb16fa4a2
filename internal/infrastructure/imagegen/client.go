// Package imagegen 提供图像生成代理客户端
package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"ai-runner-api/internal/config"
	"ai-runner-api/internal/domain/prompt"
	"ai-runner-api/pkg/logger"
	"ai-runner-api/pkg/metrics"
)

var tracer = otel.Tracer("imagegen")

const generatePath = "/api/hf/generate-image"

var (
	ErrTokenMissing     = errors.New("image generation token is not configured")
	ErrModelLoading     = errors.New("model is loading")
	ErrRateLimited      = errors.New("image provider rate limit exceeded")
	ErrUpstream         = errors.New("image provider error")
	ErrUnexpectedFormat = errors.New("unexpected response format")
)

// UpstreamError 上游返回的终止性错误
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return e.Message
}

// Unwrap 使 errors.Is(err, ErrUpstream) 成立
func (e *UpstreamError) Unwrap() error {
	return ErrUpstream
}

// Image 生成结果
type Image struct {
	Data        []byte
	ContentType string
	Attempts    int
}

type generateRequest struct {
	Prompt            string  `json:"prompt"`
	NegativePrompt    string  `json:"negativePrompt"`
	GuidanceScale     float64 `json:"guidanceScale"`
	NumInferenceSteps int     `json:"numInferenceSteps"`
	Width             int     `json:"width"`
	Height            int     `json:"height"`
}

type errorBody struct {
	Error string `json:"error"`
}

// Client 图像生成客户端，带有限次重试
type Client struct {
	endpoint       string
	token          string
	maxAttempts    int
	loadingBackoff time.Duration
	retryBackoff   time.Duration
	limiter        *rate.Limiter
	httpClient     *http.Client
}

// NewClient 创建图像生成客户端
func NewClient(cfg *config.ImageGenConfig) *Client {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	loading := cfg.LoadingBackoff
	if loading <= 0 {
		loading = 5 * time.Second
	}
	retry := cfg.RetryBackoff
	if retry <= 0 {
		retry = 2 * time.Second
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return &Client{
		endpoint:       strings.TrimRight(cfg.BaseURL, "/") + generatePath,
		token:          cfg.Token,
		maxAttempts:    maxAttempts,
		loadingBackoff: loading,
		retryBackoff:   retry,
		limiter:        limiter,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// attemptResult 单次请求的结果分类
type attemptResult struct {
	image   *Image
	err     error
	retry   bool
	backoff time.Duration
	outcome string
}

// Generate 调用代理生成图像
// 503 与 429 以及网络错误按 (attempt+1) 线性退避重试，其余非 2xx 立即失败
func (c *Client) Generate(ctx context.Context, text string, settings prompt.GenerationSettings) (*Image, error) {
	ctx, span := tracer.Start(ctx, "imagegen.Generate",
		trace.WithAttributes(
			attribute.Int("imagegen.width", settings.Width),
			attribute.Int("imagegen.height", settings.Height),
			attribute.Int("imagegen.max_attempts", c.maxAttempts),
		))
	defer span.End()

	if c.token == "" {
		span.SetStatus(codes.Error, ErrTokenMissing.Error())
		return nil, ErrTokenMissing
	}

	body, err := json.Marshal(&generateRequest{
		Prompt:            text,
		NegativePrompt:    settings.NegativePrompt,
		GuidanceScale:     settings.GuidanceScale,
		NumInferenceSteps: settings.NumInferenceSteps,
		Width:             settings.Width,
		Height:            settings.Height,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal generate request: %w", err)
	}

	start := time.Now()
	defer func() {
		metrics.ImageGenerationDuration.Observe(time.Since(start).Seconds())
	}()

	log := logger.FromContext(ctx)
	var last error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		res := c.attempt(ctx, body, attempt)
		metrics.ImageGenerationAttempts.WithLabelValues(res.outcome).Inc()

		if res.err == nil {
			res.image.Attempts = attempt + 1
			span.SetAttributes(attribute.Int("imagegen.attempts", attempt+1))
			metrics.ImageGenerationTotal.WithLabelValues("success").Inc()
			return res.image, nil
		}

		last = res.err
		if !res.retry || attempt == c.maxAttempts-1 {
			break
		}

		log.Warn("image generation attempt failed, retrying",
			"attempt", attempt+1,
			"outcome", res.outcome,
			"backoff", res.backoff.String(),
		)
		if err := wait(ctx, res.backoff); err != nil {
			last = err
			break
		}
	}

	span.RecordError(last)
	span.SetStatus(codes.Error, last.Error())
	metrics.ImageGenerationTotal.WithLabelValues("failed").Inc()
	return nil, last
}

func (c *Client) attempt(ctx context.Context, body []byte, attempt int) attemptResult {
	step := time.Duration(attempt + 1)

	// 重试同样占用配额
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return attemptResult{err: ctx.Err(), outcome: "canceled"}
			}
			// 等待时间超出截止时间
			return attemptResult{err: fmt.Errorf("%w: %w", ErrRateLimited, err), outcome: "throttled"}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return attemptResult{err: fmt.Errorf("failed to create generate request: %w", err), outcome: "failed"}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-HF-Token", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return attemptResult{err: ctx.Err(), outcome: "canceled"}
		}
		return attemptResult{
			err:     fmt.Errorf("image generation request failed: %w", err),
			retry:   true,
			backoff: c.retryBackoff * step,
			outcome: "transport",
		}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return attemptResult{
			err:     fmt.Errorf("failed to read generate response: %w", err),
			retry:   true,
			backoff: c.retryBackoff * step,
			outcome: "transport",
		}
	}

	switch {
	case resp.StatusCode == http.StatusServiceUnavailable:
		return attemptResult{err: ErrModelLoading, retry: true, backoff: c.loadingBackoff * step, outcome: "model_loading"}
	case resp.StatusCode == http.StatusTooManyRequests:
		return attemptResult{err: ErrRateLimited, retry: true, backoff: c.retryBackoff * step, outcome: "rate_limited"}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		msg := errorMessage(payload)
		if msg == "" {
			msg = "API error: " + statusText(resp)
		}
		return attemptResult{err: &UpstreamError{StatusCode: resp.StatusCode, Message: msg}, outcome: "failed"}
	}

	contentType := resp.Header.Get("Content-Type")
	if isImage(contentType) {
		return attemptResult{image: &Image{Data: payload, ContentType: contentType}, outcome: "ok"}
	}
	if msg := errorMessage(payload); msg != "" {
		return attemptResult{err: &UpstreamError{StatusCode: resp.StatusCode, Message: msg}, outcome: "failed"}
	}
	return attemptResult{err: ErrUnexpectedFormat, outcome: "failed"}
}

func isImage(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mediaType, "image/")
}

// errorMessage 从 JSON 错误体中提取 error 字段
func errorMessage(payload []byte) string {
	var body errorBody
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	return body.Error
}

func statusText(resp *http.Response) string {
	if text := http.StatusText(resp.StatusCode); text != "" {
		return text
	}
	return resp.Status
}

func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
