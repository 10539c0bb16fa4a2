// Package translation 提供带两级缓存的文案翻译
package translation

import (
	"context"
	"strings"
	"sync"

	"github.com/golang/groupcache/lru"
)

// RemoteCache 共享缓存（Redis），实现需并发安全
type RemoteCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Clear(ctx context.Context) (int, error)
}

// CacheKey 构建缓存键：{src}-{dst}-{text}，语言代码小写
func CacheKey(source, target, text string) string {
	return strings.ToLower(source) + "-" + strings.ToLower(target) + "-" + text
}

// MemoryCache 进程内 LRU 缓存，可随应用实例创建和重置
type MemoryCache struct {
	mu    sync.Mutex
	cache *lru.Cache
}

// NewMemoryCache 创建内存缓存，maxEntries <= 0 表示不限
func NewMemoryCache(maxEntries int) *MemoryCache {
	if maxEntries < 0 {
		maxEntries = 0
	}
	return &MemoryCache{cache: lru.New(maxEntries)}
}

// Get 获取译文
func (m *MemoryCache) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.cache.Get(key)
	if !ok {
		return "", false
	}
	return v.(string), true
}

// Set 写入译文
func (m *MemoryCache) Set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache.Add(key, value)
}

// Len 当前条目数
func (m *MemoryCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cache.Len()
}

// Reset 清空缓存并返回清除的条目数
func (m *MemoryCache) Reset() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := m.cache.Len()
	m.cache.Clear()
	return n
}
