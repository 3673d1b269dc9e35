package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/retrys/server/internal/api"
	"github.com/retrys/server/internal/biz/node"
	"github.com/retrys/server/internal/cache"
	"github.com/retrys/server/internal/dispatch"
	"github.com/retrys/server/internal/infra/persistence/commonrepo"
	"github.com/retrys/server/internal/infra/persistence/retrylogrepo"
	"github.com/retrys/server/internal/infra/persistence/retrytaskrepo"
	"github.com/retrys/server/internal/infra/persistence/scenerepo"
	"github.com/retrys/server/internal/infra/persistence/summaryrepo"
	"github.com/retrys/server/internal/orm"
	"github.com/retrys/server/internal/rpc"
	"github.com/retrys/server/internal/summary"
	"github.com/retrys/server/pkg/config"
	"github.com/retrys/server/pkg/logger"
	"github.com/yitter/idgenerator-go/idgen"
	"go.uber.org/zap"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "configs/config.yaml", "path to config file")
	flag.Parse()

	// 雪花ID生成器
	options := idgen.NewIdGeneratorOptions(1)
	options.WorkerIdBitLength = 6
	idgen.SetIdGenerator(options)

	// 加载配置
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 创建日志器
	zapLogger, err := logger.New(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting retry server",
		zap.String("instance_id", cfg.Dispatch.InstanceID))

	// 创建存储
	db, err := orm.New(orm.Config{
		Host:                  cfg.Database.Host,
		Port:                  cfg.Database.Port,
		Database:              cfg.Database.Database,
		User:                  cfg.Database.User,
		Password:              cfg.Database.Password,
		MaxConnections:        cfg.Database.MaxConnections,
		MaxIdleConnections:    cfg.Database.MaxIdleConnections,
		ConnectionMaxLifetime: cfg.Database.ConnectionMaxLifetime,
	})
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// 创建repositories
	taskRepo := retrytaskrepo.NewMysqlRepositoryImpl(db.DB())
	logRepo := retrylogrepo.NewMysqlRepositoryImpl(db.DB())
	sceneRepo := scenerepo.NewMysqlRepositoryImpl(db.DB())
	summaryRepo := summaryrepo.NewMysqlRepositoryImpl(db.DB())
	batchRepo := summaryrepo.NewBatchRepositoryImpl(db.DB())
	txRepo := commonrepo.NewDefaultRepo(db.DB())

	// 节点注册表和RPC客户端工厂
	registry := node.NewMemoryRegistry()
	strategies := rpc.NewStrategyManager()
	factory := rpc.NewClientFactory(registry, strategies, zapLogger)

	// 通知限流器缓存
	rateLimiterCache := cache.NewNotifyRateLimiter(cfg.RateLimiter, zapLogger)
	rateLimiterCache.Start()
	defer rateLimiterCache.Close()

	// 派发链路
	callbackHandler := dispatch.NewCallbackTaskHandler(taskRepo, zapLogger)
	notifier := dispatch.NewExhaustionNotifier(rateLimiterCache, cfg.RateLimiter, zapLogger)
	completion := dispatch.NewCompletionHandler(
		taskRepo, logRepo, sceneRepo, callbackHandler, notifier, &txRepo,
		cfg.Retry, zapLogger)
	execUnit := dispatch.NewExecUnit(factory, completion, cfg.Retry, zapLogger)
	callbackUnit := dispatch.NewCallbackUnit(taskRepo, callbackHandler, factory, completion, cfg.Retry, zapLogger)

	pool := dispatch.NewUnitPool(cfg.Dispatch, zapLogger)
	pool.Start()
	defer pool.Stop()

	dispatcher := dispatch.NewDispatcher(
		taskRepo, logRepo, sceneRepo, registry, strategies, pool,
		execUnit, callbackUnit, cfg.Dispatch, zapLogger)
	dispatcher.Start()
	defer dispatcher.Stop()

	// 日统计调度，持分布式锁运行
	locker, err := ProvideLocker(*cfg, db, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to create distributed locker", zap.Error(err))
	}
	summarySchedule := summary.NewJobSummarySchedule(
		batchRepo, summaryRepo, locker, cfg.Summary, zapLogger)
	if err := summarySchedule.Start(); err != nil {
		zapLogger.Fatal("Failed to start job summary schedule", zap.Error(err))
	}
	defer summarySchedule.Close()

	// 管理API
	apiServer := api.NewServer(registry, taskRepo, sceneRepo, summaryRepo, pool, callbackUnit, zapLogger)
	httpServer := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        apiServer.Router(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		zapLogger.Info("Starting API server", zap.Int("port", cfg.Server.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start API server", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	zapLogger.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		zapLogger.Error("Failed to shutdown API server", zap.Error(err))
	}

	zapLogger.Info("Shutdown complete")
}
