package dispatch

import (
	"context"
	"errors"
	"time"

	"github.com/retrys/server/internal/biz/retrytask"
	"github.com/retrys/server/internal/rpc"
	"github.com/retrys/server/pkg/config"
	"go.uber.org/zap"
)

// ErrOriginTaskNotFound 回调任务找不到对应的原始任务，属于配置性错误
var ErrOriginTaskNotFound = errors.New("origin retry task not found for callback task")

// CallbackUnit 一次性回调单元：把任务的最终状态通知到客户端。
// 回调投递失败不会自动重试，只通过日志暴露。
type CallbackUnit struct {
	taskRepo        retrytask.Repo
	callbackHandler *CallbackTaskHandler
	factory         *rpc.ClientFactory
	completion      *CompletionHandler
	defaultTimeout  time.Duration
	logger          *zap.Logger
}

func NewCallbackUnit(
	taskRepo retrytask.Repo,
	callbackHandler *CallbackTaskHandler,
	factory *rpc.ClientFactory,
	completion *CompletionHandler,
	cfg config.RetryConfig,
	logger *zap.Logger,
) *CallbackUnit {
	return &CallbackUnit{
		taskRepo:        taskRepo,
		callbackHandler: callbackHandler,
		factory:         factory,
		completion:      completion,
		defaultTimeout:  cfg.DefaultExecutorTimeout,
		logger:          logger,
	}
}

func (u *CallbackUnit) Run(ctx context.Context, cc *CallbackContext) {
	task := cc.Task
	if cc.Node == nil {
		u.logger.Warn("no node resolved for callback task, skip dispatch",
			zap.String("unique_id", task.UniqueID),
			zap.String("group_name", task.GroupName))
		return
	}

	result, err := u.callClient(ctx, cc)
	if err != nil {
		u.logger.Error("callback rpc failed",
			zap.String("unique_id", task.UniqueID),
			zap.String("group_name", task.GroupName),
			zap.Int64("timestamp", time.Now().UnixMilli()),
			zap.Error(err))
		return
	}

	// 回调任务自身也是状态机的一员：结果进入协调器，
	// 按固定的回调最大重试次数推进
	if result.OK() {
		u.completion.OnSuccess(ctx, task)
	} else {
		u.completion.OnFailure(ctx, task)
	}
}

func (u *CallbackUnit) callClient(ctx context.Context, cc *CallbackContext) (*rpc.Result, error) {
	callbackTask := cc.Task

	originUniqueID, err := u.callbackHandler.OriginUniqueID(callbackTask.UniqueID)
	if err != nil {
		return nil, err
	}

	// 回查原始任务当前状态；查不到说明配置损坏，中止本单元
	originStatus, found, err := u.taskRepo.GetStatusByUniqueID(ctx,
		callbackTask.NamespaceID, callbackTask.GroupName, originUniqueID)
	if err != nil {
		return nil, err
	}
	if !found {
		u.logger.Error("origin retry task not found",
			zap.String("callback_unique_id", callbackTask.UniqueID),
			zap.String("origin_unique_id", originUniqueID))
		return nil, ErrOriginTaskNotFound
	}

	client, err := u.factory.NewRequest().
		NodeInfo(cc.Node).
		RouteKey(cc.Scene.RouteKey).
		AllocKey(cc.Scene.SceneName).
		Failover(true).
		Timeout(executorTimeout(cc.Scene.ExecutorTimeout, u.defaultTimeout)).
		BuildForGroup(callbackTask.NamespaceID, callbackTask.GroupName)
	if err != nil {
		return nil, err
	}

	return client.Callback(ctx, &rpc.RetryCallbackRequest{
		IdempotentID: callbackTask.IdempotentID,
		RetryStatus:  int(originStatus),
		ArgsStr:      callbackTask.ArgsStr,
		Scene:        callbackTask.SceneName,
		Group:        callbackTask.GroupName,
		ExecutorName: callbackTask.ExecutorName,
		UniqueID:     callbackTask.UniqueID,
		NamespaceID:  callbackTask.NamespaceID,
	})
}
