package lock

import (
	"context"
	"fmt"
	"time"

	redis "github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// 仅持有者可以删除锁
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

// RedisLocker 基于 SET NX PX 的分布式锁，过期时间取 atMost
type RedisLocker struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRedisLocker(client *redis.Client, logger *zap.Logger) *RedisLocker {
	return &RedisLocker{client: client, logger: logger}
}

func (l *RedisLocker) WithLock(ctx context.Context, name string, atMost, atLeast time.Duration, fn func(ctx context.Context) error) error {
	token := uuid.NewString()
	acquired, err := l.client.SetNX(ctx, name, token, atMost).Result()
	if err != nil {
		return fmt.Errorf("failed to acquire lock %s: %w", name, err)
	}
	if !acquired {
		return ErrNotAcquired
	}
	acquiredAt := time.Now()

	defer func() {
		holdAtLeast(ctx, acquiredAt, atLeast)
		if err := l.client.Eval(context.Background(), releaseScript, []string{name}, token).Err(); err != nil {
			l.logger.Error("failed to release lock",
				zap.String("lock_name", name),
				zap.Error(err))
		}
	}()

	runCtx, cancel := context.WithTimeout(ctx, atMost)
	defer cancel()
	return fn(runCtx)
}
