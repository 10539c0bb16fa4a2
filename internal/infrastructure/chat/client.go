// Package chat 提供站点助手使用的 OpenAI 兼容聊天补全客户端
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"ai-runner-api/internal/config"
	"ai-runner-api/pkg/metrics"
)

var tracer = otel.Tracer("chat")

// SystemPrompt 全息黑猫助手的人设
const SystemPrompt = `You are the holographic AI Runner Black Cat, a playful yet highly knowledgeable AI assistant for the AI Runner 2033 platform.

You MUST:
- Be concise, practical, and friendly.
- Help users understand and use AI Runner 2033: prompt optimizer, reverse AI lab, AI courses, workshops, and experimentation tools.
- Suggest relevant features, pages, or workflows from AI Runner 2033 when it makes sense.
- If you do not know something, say so honestly and suggest how the user might explore or learn it.

Context about AI Runner 2033 (use naturally, do not list as bullets unless asked):
- It is a cyberpunk-themed AI education and experimentation platform.
- Users can test prompts, optimize them, and reverse engineer AI-generated content (images, text, etc.).
- It offers learning paths, courses, and workshops on prompt engineering, AI tools, and creative AI workflows.
- It is run by Robert and focuses on practical, real-world AI skills for students, creators, and professionals.
- The visual identity includes a neon, holographic black cat mascot.

Stay in character as the holographic cat, but do not overdo roleplay. Focus on being a genuinely helpful AI guide.`

// FallbackReply 模型未返回内容时的回复
const FallbackReply = "I had trouble generating a detailed answer just now, but the AI Runner cat is online. Please try asking again with a bit more detail."

const completionsPath = "/chat/completions"

// ErrNotConfigured 未配置任何 LLM Key
var ErrNotConfigured = errors.New("llm api key is not configured")

// BackendError 上游返回非 2xx
type BackendError struct {
	StatusCode int
	Details    string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("chat backend failed: status=%d", e.StatusCode)
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string    `json:"model"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	Messages    []message `json:"messages"`
}

type completionResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

// provider 选中的上游
type provider struct {
	name     string
	endpoint string
	apiKey   string
	model    string
}

// Client 聊天补全客户端
type Client struct {
	provider    *provider
	temperature float64
	maxTokens   int
	httpClient  *http.Client
}

// NewClient 创建聊天客户端，配置了 Groq Key 时优先使用 Groq
func NewClient(cfg *config.ChatConfig) *Client {
	var p *provider
	switch {
	case cfg.GroqAPIKey != "":
		p = &provider{
			name:     "groq",
			endpoint: strings.TrimRight(cfg.GroqBaseURL, "/") + completionsPath,
			apiKey:   cfg.GroqAPIKey,
			model:    orDefault(cfg.GroqModel, "llama-3.1-8b-instant"),
		}
	case cfg.OpenAIAPIKey != "":
		p = &provider{
			name:     "openai",
			endpoint: strings.TrimRight(cfg.OpenAIURL, "/") + completionsPath,
			apiKey:   cfg.OpenAIAPIKey,
			model:    orDefault(cfg.OpenAIModel, "gpt-4o-mini"),
		}
	}

	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = 0.4
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 600
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		provider:    p,
		temperature: temperature,
		maxTokens:   maxTokens,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// Provider 当前使用的上游名称，未配置时为空
func (c *Client) Provider() string {
	if c.provider == nil {
		return ""
	}
	return c.provider.name
}

// UserContent 构造发送给模型的用户消息
func UserContent(msg, source string) string {
	if source == "" {
		source = "unknown"
	}
	return fmt.Sprintf("User is chatting via the floating holographic cat widget on the AI Runner 2033 site. Source: %s. Message: %s", source, msg)
}

// Reply 获取助手回复，模型返回空内容时使用 FallbackReply
func (c *Client) Reply(ctx context.Context, msg, source string) (string, error) {
	ctx, span := tracer.Start(ctx, "chat.Reply",
		trace.WithAttributes(attribute.String("chat.source", source)))
	defer span.End()

	if c.provider == nil {
		return "", ErrNotConfigured
	}
	span.SetAttributes(
		attribute.String("chat.provider", c.provider.name),
		attribute.String("chat.model", c.provider.model),
	)

	start := time.Now()
	status := "error"
	defer func() {
		metrics.ExternalCallTotal.WithLabelValues(c.provider.name, status).Inc()
		metrics.ExternalCallDuration.WithLabelValues(c.provider.name).Observe(time.Since(start).Seconds())
	}()

	body, err := json.Marshal(&completionRequest{
		Model:       c.provider.model,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		Messages: []message{
			{Role: "system", Content: SystemPrompt},
			{Role: "user", Content: UserContent(msg, source)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.provider.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.provider.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		details, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		err := &BackendError{StatusCode: resp.StatusCode, Details: string(details)}
		span.RecordError(err)
		return "", err
	}

	status = "ok"
	var out completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return FallbackReply, nil
	}
	if len(out.Choices) == 0 {
		return FallbackReply, nil
	}
	reply := strings.TrimSpace(out.Choices[0].Message.Content)
	if reply == "" {
		return FallbackReply, nil
	}
	return reply, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
