package cache

import (
	"sync"
	"time"

	"github.com/google/wire"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/retrys/server/pkg/config"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var Provider = wire.NewSet(NewNotifyRateLimiter)

// NotifyRateLimiter 通知限流器缓存。
// 按通知键（通常是 组+场景）缓存令牌桶限流器，写入 30 分钟后过期。
// 限流器由通知方首次使用时创建写入，这里只负责存取和过期。
type NotifyRateLimiter struct {
	ttl        time.Duration
	maxEntries int
	logger     *zap.Logger

	// mu 保护 cache 字段本身，Close 可能与在途单元的读写并发
	mu    sync.RWMutex
	cache *expirable.LRU[string, *rate.Limiter]
}

func NewNotifyRateLimiter(cfg config.RateLimiterConfig, logger *zap.Logger) *NotifyRateLimiter {
	return &NotifyRateLimiter{
		ttl:        cfg.TTL,
		maxEntries: cfg.MaxEntries,
		logger:     logger,
	}
}

// Start 进程级单例，启动时创建。重启后限流器从空桶重建，不持久化。
func (c *NotifyRateLimiter) Start() {
	c.mu.Lock()
	c.cache = expirable.NewLRU[string, *rate.Limiter](c.maxEntries, nil, c.ttl)
	c.mu.Unlock()
	c.logger.Info("notify rate limiter cache started",
		zap.Duration("ttl", c.ttl),
		zap.Int("max_entries", c.maxEntries))
}

func (c *NotifyRateLimiter) Close() {
	c.mu.Lock()
	c.cache = nil
	c.mu.Unlock()
	c.logger.Info("notify rate limiter cache stopped")
}

// Get 超过过期窗口未写入的键视为不存在
func (c *NotifyRateLimiter) Get(key string) (*rate.Limiter, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.cache == nil {
		return nil, false
	}
	return c.cache.Get(key)
}

func (c *NotifyRateLimiter) Put(key string, limiter *rate.Limiter) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.cache == nil {
		return
	}
	c.cache.Add(key, limiter)
}

// GetOrCreate 不存在时按给定速率创建并写入
func (c *NotifyRateLimiter) GetOrCreate(key string, permitsPerSecond float64) *rate.Limiter {
	if limiter, ok := c.Get(key); ok {
		return limiter
	}
	limiter := rate.NewLimiter(rate.Limit(permitsPerSecond), int(permitsPerSecond)+1)
	c.Put(key, limiter)
	return limiter
}
