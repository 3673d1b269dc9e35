package dispatch

import (
	"github.com/retrys/server/internal/biz/retrytask"
	"github.com/retrys/server/internal/cache"
	"github.com/retrys/server/pkg/config"
	"go.uber.org/zap"
)

// ExhaustionNotifier 重试耗尽告警。
// 同一个 (组, 场景) 的告警经过令牌桶限流，避免批量耗尽时刷屏。
type ExhaustionNotifier struct {
	limiters         *cache.NotifyRateLimiter
	permitsPerSecond float64
	logger           *zap.Logger
}

func NewExhaustionNotifier(limiters *cache.NotifyRateLimiter, cfg config.RateLimiterConfig, logger *zap.Logger) *ExhaustionNotifier {
	return &ExhaustionNotifier{
		limiters:         limiters,
		permitsPerSecond: cfg.PermitsPerSecond,
		logger:           logger,
	}
}

func (n *ExhaustionNotifier) notifyKey(task *retrytask.RetryTask) string {
	return task.GroupName + "_" + task.SceneName
}

// Notify 超出速率的告警直接丢弃，不排队
func (n *ExhaustionNotifier) Notify(task *retrytask.RetryTask) {
	limiter := n.limiters.GetOrCreate(n.notifyKey(task), n.permitsPerSecond)
	if limiter == nil || !limiter.Allow() {
		return
	}

	n.logger.Warn("retry task reached max retry count",
		zap.String("namespace_id", task.NamespaceID),
		zap.String("group_name", task.GroupName),
		zap.String("scene_name", task.SceneName),
		zap.String("unique_id", task.UniqueID),
		zap.Int("retry_count", task.RetryCount))
}
