package translation

import (
	"context"
	"strings"

	"golang.org/x/sync/singleflight"

	"ai-runner-api/pkg/logger"
	"ai-runner-api/pkg/metrics"
)

// Provider 翻译服务端口
type Provider interface {
	Configured() bool
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// Translator 翻译器
// 空白文本原样返回；未配置或调用失败时返回原文且不写缓存
type Translator struct {
	provider Provider
	memory   *MemoryCache
	remote   RemoteCache
	group    singleflight.Group
	source   string
	target   string
}

// NewTranslator 创建翻译器，remote 可为 nil
func NewTranslator(provider Provider, memory *MemoryCache, remote RemoteCache, source, target string) *Translator {
	if memory == nil {
		memory = NewMemoryCache(0)
	}
	if source == "" {
		source = "EN"
	}
	if target == "" {
		target = "SL"
	}
	return &Translator{
		provider: provider,
		memory:   memory,
		remote:   remote,
		source:   source,
		target:   target,
	}
}

// Languages 默认源语言与目标语言
func (t *Translator) Languages() (string, string) {
	return t.source, t.target
}

// Translate 翻译文本，source/target 为空时使用默认值
func (t *Translator) Translate(ctx context.Context, text, source, target string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	source, target = t.langs(source, target)
	if strings.EqualFold(source, target) {
		return text
	}

	key := CacheKey(source, target, text)
	if v, ok := t.memory.Get(key); ok {
		metrics.TranslationCacheTotal.WithLabelValues("memory_hit").Inc()
		return v
	}

	v, _, _ := t.group.Do(key, func() (interface{}, error) {
		return t.load(ctx, key, text, source, target), nil
	})
	return v.(string)
}

func (t *Translator) load(ctx context.Context, key, text, source, target string) string {
	// 并发请求可能已经填充
	if v, ok := t.memory.Get(key); ok {
		return v
	}

	if t.remote != nil {
		v, ok, err := t.remote.Get(ctx, key)
		if err != nil {
			logger.Warn(ctx, "translation cache read failed", "error", err.Error())
		} else if ok {
			metrics.TranslationCacheTotal.WithLabelValues("redis_hit").Inc()
			t.memory.Set(key, v)
			return v
		}
	}
	metrics.TranslationCacheTotal.WithLabelValues("miss").Inc()

	if t.provider == nil || !t.provider.Configured() {
		logger.Warn(ctx, "translation provider not configured, returning original text")
		return text
	}

	translated, err := t.provider.Translate(ctx, text, source, target)
	if err != nil {
		logger.Error(ctx, "translation failed, returning original text", err,
			"source", source, "target", target)
		return text
	}

	t.memory.Set(key, translated)
	if t.remote != nil {
		if err := t.remote.Set(ctx, key, translated); err != nil {
			logger.Warn(ctx, "translation cache write failed", "error", err.Error())
		}
	}
	return translated
}

// TranslateTree 递归翻译 JSON 值中的全部字符串
// 支持 string、[]any、map[string]any，其余类型原样返回
func (t *Translator) TranslateTree(ctx context.Context, v any, source, target string) any {
	switch val := v.(type) {
	case string:
		return t.Translate(ctx, val, source, target)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = t.TranslateTree(ctx, item, source, target)
		}
		return out
	case []string:
		out := make([]string, len(val))
		for i, item := range val {
			out[i] = t.Translate(ctx, item, source, target)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = t.TranslateTree(ctx, item, source, target)
		}
		return out
	default:
		return v
	}
}

// ResetResult 缓存清理结果
type ResetResult struct {
	MemoryCleared int `json:"memory_cleared"`
	RemoteCleared int `json:"remote_cleared"`
}

// Reset 清空内存缓存，includeRemote 为 true 时同时清空共享缓存
func (t *Translator) Reset(ctx context.Context, includeRemote bool) (ResetResult, error) {
	res := ResetResult{MemoryCleared: t.memory.Reset()}
	if !includeRemote || t.remote == nil {
		return res, nil
	}
	n, err := t.remote.Clear(ctx)
	if err != nil {
		return res, err
	}
	res.RemoteCleared = n
	return res, nil
}

func (t *Translator) langs(source, target string) (string, string) {
	if source == "" {
		source = t.source
	}
	if target == "" {
		target = t.target
	}
	return source, target
}
