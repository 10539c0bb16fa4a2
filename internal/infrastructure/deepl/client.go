// Package deepl 提供 DeepL 翻译 API 客户端
package deepl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"ai-runner-api/internal/config"
	"ai-runner-api/pkg/metrics"
)

var tracer = otel.Tracer("deepl")

const translatePath = "/v2/translate"

// ErrNotConfigured 未配置 API Key
var ErrNotConfigured = errors.New("deepl api key is not configured")

// StatusError DeepL 返回非 2xx
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("DeepL API error: %d", e.StatusCode)
}

type translateResponse struct {
	Translations []struct {
		DetectedSourceLanguage string `json:"detected_source_language"`
		Text                   string `json:"text"`
	} `json:"translations"`
}

// Client DeepL 客户端
type Client struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

// NewClient 创建 DeepL 客户端
func NewClient(cfg *config.DeepLConfig) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = "https://api-free.deepl.com"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		apiKey:   cfg.APIKey,
		endpoint: base + translatePath,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Configured 是否配置了 API Key
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Translate 翻译单段文本，语言代码使用 DeepL 形式（如 EN、SL）
// 响应中没有译文时返回原文
func (c *Client) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	ctx, span := tracer.Start(ctx, "deepl.Translate",
		trace.WithAttributes(
			attribute.String("deepl.source_lang", sourceLang),
			attribute.String("deepl.target_lang", targetLang),
			attribute.Int("deepl.text_len", len(text)),
		))
	defer span.End()

	if !c.Configured() {
		return "", ErrNotConfigured
	}

	start := time.Now()
	status := "error"
	defer func() {
		metrics.ExternalCallTotal.WithLabelValues("deepl", status).Inc()
		metrics.ExternalCallDuration.WithLabelValues("deepl").Observe(time.Since(start).Seconds())
	}()

	form := url.Values{}
	form.Set("text", text)
	form.Set("target_lang", strings.ToUpper(targetLang))
	form.Set("source_lang", strings.ToUpper(sourceLang))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create deepl request: %w", err)
	}
	req.Header.Set("Authorization", "DeepL-Auth-Key "+c.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("deepl request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := &StatusError{StatusCode: resp.StatusCode}
		span.RecordError(err)
		return "", err
	}

	var out translateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to decode deepl response: %w", err)
	}

	status = "ok"
	if len(out.Translations) == 0 || out.Translations[0].Text == "" {
		return text, nil
	}
	return out.Translations[0].Text, nil
}
