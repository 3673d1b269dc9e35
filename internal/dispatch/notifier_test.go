package dispatch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/retrys/server/internal/biz/retrytask"
	"github.com/retrys/server/internal/cache"
	"github.com/retrys/server/pkg/config"
)

func TestExhaustionNotifierRateLimitsPerScene(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	limiters := cache.NewNotifyRateLimiter(config.RateLimiterConfig{TTL: time.Minute, MaxEntries: 16}, zap.NewNop())
	limiters.Start()
	t.Cleanup(limiters.Close)

	// 0.5 permits/s 对应容量 1 的令牌桶，同一场景的第二次告警应被丢弃
	n := NewExhaustionNotifier(limiters, config.RateLimiterConfig{PermitsPerSecond: 0.5}, zap.New(core))

	task := &retrytask.RetryTask{
		NamespaceID: "ns-1",
		GroupName:   "order",
		SceneName:   "pay-timeout",
		UniqueID:    "u-1",
		RetryCount:  5,
	}
	n.Notify(task)
	n.Notify(task)
	assert.Equal(t, 1, logs.Len())

	// 不同场景使用独立的限流器
	other := &retrytask.RetryTask{
		NamespaceID: "ns-1",
		GroupName:   "order",
		SceneName:   "refund",
		UniqueID:    "u-2",
	}
	n.Notify(other)
	assert.Equal(t, 2, logs.Len())
}
