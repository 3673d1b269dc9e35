package dispatch

import (
	"context"
	"time"

	"github.com/retrys/server/internal/rpc"
	"github.com/retrys/server/pkg/config"
	"go.uber.org/zap"
)

// ExecUnit 一次性执行单元：只负责一个重试任务的单次派发。
// 调用结束（成功、异常或无可用节点）后即终止，绝不复用。
type ExecUnit struct {
	factory        *rpc.ClientFactory
	completion     *CompletionHandler
	defaultTimeout time.Duration
	logger         *zap.Logger
}

func NewExecUnit(factory *rpc.ClientFactory, completion *CompletionHandler, cfg config.RetryConfig, logger *zap.Logger) *ExecUnit {
	return &ExecUnit{
		factory:        factory,
		completion:     completion,
		defaultTimeout: cfg.DefaultExecutorTimeout,
		logger:         logger,
	}
}

// executorTimeout 场景未配置执行超时时退回全局默认值
func executorTimeout(sceneTimeout, fallback time.Duration) time.Duration {
	if sceneTimeout <= 0 {
		return fallback
	}
	return sceneTimeout
}

// Run 同步调用客户端并把结果转交完成协调器。
// 调用过程中的异常只记日志，不向上传播，也不记为任务失败。
func (u *ExecUnit) Run(ctx context.Context, rc *RetryContext) {
	task := rc.Task
	if rc.Node == nil {
		u.logger.Warn("no node resolved for retry task, skip dispatch",
			zap.String("unique_id", task.UniqueID),
			zap.String("group_name", task.GroupName))
		return
	}

	client, err := u.factory.NewRequest().
		NodeInfo(rc.Node).
		RouteKey(rc.Scene.RouteKey).
		AllocKey(rc.Scene.SceneName).
		Failover(true).
		Timeout(executorTimeout(rc.Scene.ExecutorTimeout, u.defaultTimeout)).
		BuildForGroup(task.NamespaceID, task.GroupName)
	if err != nil {
		u.logger.Error("failed to build rpc client",
			zap.String("unique_id", task.UniqueID),
			zap.String("group_name", task.GroupName),
			zap.Int64("timestamp", time.Now().UnixMilli()),
			zap.Error(err))
		return
	}

	result, err := client.DispatchRetry(ctx, &rpc.DispatchRetryRequest{
		IdempotentID: task.IdempotentID,
		UniqueID:     task.UniqueID,
		NamespaceID:  task.NamespaceID,
		GroupName:    task.GroupName,
		SceneName:    task.SceneName,
		ExecutorName: task.ExecutorName,
		ArgsStr:      task.ArgsStr,
		RetryCount:   task.RetryCount,
	})
	if err != nil {
		// 诊断日志，不构成任务失败；任务留待下一轮调度
		u.logger.Error("retry dispatch rpc failed",
			zap.String("unique_id", task.UniqueID),
			zap.String("group_name", task.GroupName),
			zap.String("scene_name", task.SceneName),
			zap.Int64("timestamp", time.Now().UnixMilli()),
			zap.Error(err))
		return
	}

	if result.OK() {
		u.completion.OnSuccess(ctx, task)
	} else {
		u.logger.Info("retry attempt failed on client",
			zap.String("unique_id", task.UniqueID),
			zap.String("message", result.Message))
		u.completion.OnFailure(ctx, task)
	}
}
