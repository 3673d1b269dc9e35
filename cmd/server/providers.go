package main

import (
	"fmt"

	redis "github.com/go-redis/redis/v8"
	"github.com/retrys/server/internal/api"
	"github.com/retrys/server/internal/cache"
	"github.com/retrys/server/internal/dispatch"
	"github.com/retrys/server/internal/infra/persistence/commonrepo"
	"github.com/retrys/server/internal/lock"
	"github.com/retrys/server/internal/orm"
	"github.com/retrys/server/internal/summary"
	"github.com/retrys/server/pkg/config"
	"go.uber.org/zap"
)

// App 聚合顶层组件，便于统一启动和关闭。
type App struct {
	Dispatcher  *dispatch.Dispatcher
	Pool        *dispatch.UnitPool
	Schedule    *summary.JobSummarySchedule
	RateLimiter *cache.NotifyRateLimiter
	APIServer   *api.Server
}

func NewApp(
	dispatcher *dispatch.Dispatcher,
	pool *dispatch.UnitPool,
	schedule *summary.JobSummarySchedule,
	rateLimiter *cache.NotifyRateLimiter,
	apiServer *api.Server,
) *App {
	return &App{
		Dispatcher:  dispatcher,
		Pool:        pool,
		Schedule:    schedule,
		RateLimiter: rateLimiter,
		APIServer:   apiServer,
	}
}

// ProvideRedisClient builds a redis client from typed config.
// Returns nil when redis is disabled.
func ProvideRedisClient(cfg config.Config) *redis.Client {
	if !cfg.Redis.Enabled {
		return nil
	}
	addr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// ProvideLocker selects the distributed lock backend.
// redis 可用时优先 redis，否则退回 MySQL GET_LOCK。
func ProvideLocker(cfg config.Config, storage *orm.Storage, logger *zap.Logger) (lock.Locker, error) {
	if cfg.Summary.LockType == "redis" {
		client := ProvideRedisClient(cfg)
		if client == nil {
			return nil, fmt.Errorf("lock_type is redis but redis is disabled")
		}
		return lock.NewRedisLocker(client, logger), nil
	}

	sqlDB, err := storage.DB().DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB for locker: %w", err)
	}
	return lock.NewMysqlLocker(sqlDB, logger), nil
}

// 标量参数不进依赖图，按类型提供配置段。
func ProvideDispatchConfig(cfg config.Config) config.DispatchConfig {
	return cfg.Dispatch
}

func ProvideRetryConfig(cfg config.Config) config.RetryConfig {
	return cfg.Retry
}

func ProvideSummaryConfig(cfg config.Config) config.SummaryConfig {
	return cfg.Summary
}

func ProvideRateLimiterConfig(cfg config.Config) config.RateLimiterConfig {
	return cfg.RateLimiter
}

func ProvideDB(storage *orm.Storage) commonrepo.DB {
	return storage.DB()
}

func ProvideTransaction(db commonrepo.DB) commonrepo.Transaction {
	repo := commonrepo.NewDefaultRepo(db)
	return &repo
}
