// Package optimizer 提供提示词优化服务（optimize / reverse-ai）客户端
package optimizer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"ai-runner-api/internal/config"
	"ai-runner-api/pkg/metrics"
)

var tracer = otel.Tracer("optimizer")

// SupportedModels 优化服务支持的目标模型
var SupportedModels = []string{"chatgpt", "cursor", "midjourney", "leonardo", "sora", "veo"}

// ReverseModes 逆向分析支持的内容类型
var ReverseModes = []string{"image", "site", "video", "article"}

// DetectAI 灵敏度
const (
	DetectLight    = "light"
	DetectBalanced = "balanced"
	DetectStrict   = "strict"
)

var (
	ErrEmptyPrompt      = errors.New("prompt cannot be empty")
	ErrUnsupportedModel = errors.New("model is not supported")
	ErrInvalidMode      = errors.New("reverse mode is not supported")
	ErrEmptyTarget      = errors.New("target cannot be empty")
)

// APIError 优化服务返回的错误
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return e.Detail
}

// ReverseRequest 逆向分析请求
type ReverseRequest struct {
	Mode       string `json:"mode"`
	Target     string `json:"target"`
	Notes      string `json:"notes"`
	Creativity int    `json:"creativity"`
	Depth      int    `json:"depth"`
	DetectAI   string `json:"detect_ai"`
}

// ReverseResult 逆向分析结果，可选字段为 nil 表示服务未给出
type ReverseResult struct {
	ReconstructedPrompt string   `json:"reconstructed_prompt"`
	StyleBreakdown      *string  `json:"style_breakdown,omitempty"`
	TechStack           []string `json:"tech_stack,omitempty"`
	AIProbability       *float64 `json:"ai_probability,omitempty"`
	ExtraNotes          *string  `json:"extra_notes,omitempty"`
}

type optimizeRequest struct {
	Prompt string `json:"prompt"`
	Model  string `json:"model"`
}

type optimizeResponse struct {
	OptimizedPrompt string `json:"optimized_prompt"`
}

type errorBody struct {
	Detail string `json:"detail"`
	Error  string `json:"error"`
}

// Client 优化服务客户端
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient 创建优化服务客户端
func NewClient(cfg *config.OptimizerConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// NormalizeModel 校验并小写化目标模型
func NormalizeModel(model string) (string, error) {
	m := strings.ToLower(strings.TrimSpace(model))
	for _, s := range SupportedModels {
		if s == m {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q (supported: %s)", ErrUnsupportedModel, model, strings.Join(SupportedModels, ", "))
}

// Optimize 为指定模型优化提示词
func (c *Client) Optimize(ctx context.Context, text, model string) (string, error) {
	ctx, span := tracer.Start(ctx, "optimizer.Optimize",
		trace.WithAttributes(attribute.String("optimizer.model", model)))
	defer span.End()

	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyPrompt
	}
	m, err := NormalizeModel(model)
	if err != nil {
		return "", err
	}

	var resp optimizeResponse
	if err := c.post(ctx, "/optimize", &optimizeRequest{Prompt: text, Model: m}, &resp); err != nil {
		span.RecordError(err)
		return "", err
	}
	return resp.OptimizedPrompt, nil
}

// Normalize 校验并补全逆向分析请求
func (r ReverseRequest) Normalize() (ReverseRequest, error) {
	r.Mode = strings.ToLower(strings.TrimSpace(r.Mode))
	if r.Mode == "" {
		r.Mode = "image"
	}
	valid := false
	for _, m := range ReverseModes {
		if m == r.Mode {
			valid = true
			break
		}
	}
	if !valid {
		return r, fmt.Errorf("%w: %q", ErrInvalidMode, r.Mode)
	}
	if strings.TrimSpace(r.Target) == "" {
		return r, ErrEmptyTarget
	}
	r.Creativity = clampPercent(r.Creativity)
	r.Depth = clampPercent(r.Depth)
	switch r.DetectAI {
	case DetectLight, DetectBalanced, DetectStrict:
	default:
		r.DetectAI = DetectBalanced
	}
	return r, nil
}

// ReverseAI 推断内容最可能的生成方式
func (c *Client) ReverseAI(ctx context.Context, req ReverseRequest) (*ReverseResult, error) {
	ctx, span := tracer.Start(ctx, "optimizer.ReverseAI",
		trace.WithAttributes(attribute.String("optimizer.mode", req.Mode)))
	defer span.End()

	req, err := req.Normalize()
	if err != nil {
		return nil, err
	}

	var resp ReverseResult
	if err := c.post(ctx, "/reverse-ai", &req, &resp); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return &resp, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	start := time.Now()
	status := "error"
	defer func() {
		metrics.ExternalCallTotal.WithLabelValues("optimizer", status).Inc()
		metrics.ExternalCallDuration.WithLabelValues("optimizer").Observe(time.Since(start).Seconds())
	}()

	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal optimizer request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create optimizer request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("optimizer request failed: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		var eb errorBody
		_ = json.NewDecoder(httpResp.Body).Decode(&eb)
		detail := eb.Detail
		if detail == "" {
			detail = eb.Error
		}
		if detail == "" {
			detail = fmt.Sprintf("Request failed with status %d", httpResp.StatusCode)
		}
		return &APIError{StatusCode: httpResp.StatusCode, Detail: detail}
	}

	if err := json.NewDecoder(httpResp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode optimizer response: %w", err)
	}
	status = "ok"
	return nil
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
