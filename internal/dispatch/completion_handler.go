package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/retrys/server/internal/biz/retrylog"
	"github.com/retrys/server/internal/biz/retrytask"
	"github.com/retrys/server/internal/biz/scene"
	"github.com/retrys/server/internal/infra/persistence/commonrepo"
	"github.com/retrys/server/pkg/config"
	"go.uber.org/zap"
)

// ErrLogUpdateInconsistency 日志状态回写应当恰好影响一行
var ErrLogUpdateInconsistency = errors.New("retry task log update affected unexpected row count")

// CompletionHandler 完成协调器：消费一次执行结果，驱动任务状态机。
//
// 失败路径下，状态更新和回调任务创建在同一个事务内；事务失败被吞掉并记日志，
// 任务保持 RUNNING，等下一轮调度重新选中，属于有意的至少一次语义。
// 日志状态回写在事务之外尽力执行，即便事务失败也会尝试，保证可观测性。
type CompletionHandler struct {
	taskRepo        retrytask.Repo
	logRepo         retrylog.Repo
	sceneRepo       scene.Repo
	callbackHandler *CallbackTaskHandler
	notifier        *ExhaustionNotifier
	tx              commonrepo.Transaction
	// 回调任务固定的最大重试次数，不读场景配置
	callbackMaxRetryCount int
	logger                *zap.Logger
}

func NewCompletionHandler(
	taskRepo retrytask.Repo,
	logRepo retrylog.Repo,
	sceneRepo scene.Repo,
	callbackHandler *CallbackTaskHandler,
	notifier *ExhaustionNotifier,
	tx commonrepo.Transaction,
	cfg config.RetryConfig,
	logger *zap.Logger,
) *CompletionHandler {
	return &CompletionHandler{
		taskRepo:              taskRepo,
		logRepo:               logRepo,
		sceneRepo:             sceneRepo,
		callbackHandler:       callbackHandler,
		notifier:              notifier,
		tx:                    tx,
		callbackMaxRetryCount: cfg.CallbackMaxRetryCount,
		logger:                logger,
	}
}

// OnSuccess 执行成功：任务置为 SUCCESS，日志回写
func (h *CompletionHandler) OnSuccess(ctx context.Context, task *retrytask.RetryTask) {
	err := h.tx.Execute(ctx, func(ctx context.Context) error {
		task.RetryStatus = retrytask.RetryStatusSuccess
		return h.taskRepo.Update(ctx, task)
	})
	if err != nil {
		h.logger.Error("failed to update retry task on success",
			zap.String("unique_id", task.UniqueID),
			zap.String("group_name", task.GroupName),
			zap.Error(err))
	}

	h.mirrorTaskLog(ctx, task)
}

// OnFailure 执行失败：判断重试是否耗尽，耗尽则置为 MAX_RETRY_COUNT
// 并创建恰好一个回调任务，两者同一事务。
func (h *CompletionHandler) OnFailure(ctx context.Context, task *retrytask.RetryTask) {
	// 终态任务不再推进，重复投递不会产生第二个回调任务
	if task.RetryStatus.IsTerminal() {
		h.logger.Warn("completion for task already in terminal status, ignored",
			zap.String("unique_id", task.UniqueID),
			zap.String("status", task.RetryStatus.String()))
		return
	}

	sceneConfig, sceneErr := h.sceneRepo.GetByGroupAndScene(ctx, task.NamespaceID, task.GroupName, task.SceneName)
	if sceneErr != nil && !task.IsCallback() {
		// 普通任务缺少场景配置无法判定耗尽，中止本单元；任务留待下一轮
		h.logger.Error("failed to load scene config",
			zap.String("unique_id", task.UniqueID),
			zap.String("scene_name", task.SceneName),
			zap.Error(sceneErr))
		return
	}

	err := h.tx.Execute(ctx, func(ctx context.Context) error {
		// 始终以当前持久化的重试次数判定耗尽，容忍乱序或重复投递
		current, err := h.taskRepo.GetByUniqueID(ctx, task.NamespaceID, task.GroupName, task.UniqueID)
		if err != nil {
			return fmt.Errorf("failed to reload retry task: %w", err)
		}
		if current == nil {
			return fmt.Errorf("retry task disappeared: %s", task.UniqueID)
		}
		if current.RetryStatus.IsTerminal() {
			return nil
		}
		task.RetryCount = current.RetryCount

		maxRetryCount := h.callbackMaxRetryCount
		if !task.IsCallback() {
			maxRetryCount = sceneConfig.MaxRetryCount
		}

		if maxRetryCount <= task.RetryCount {
			task.MarkMaxRetry()
			// 失败路径上这是创建回调任务的唯一入口
			if !task.IsCallback() {
				if err := h.callbackHandler.Create(ctx, task); err != nil {
					return err
				}
			}
		}

		return h.taskRepo.Update(ctx, task)
	})
	if err != nil {
		// 吞掉异常：任务保持原状态，等待下一轮调度重新处理
		h.logger.Error("failed to update retry task on failure",
			zap.String("unique_id", task.UniqueID),
			zap.String("group_name", task.GroupName),
			zap.Error(err))
	} else if task.RetryStatus == retrytask.RetryStatusMaxRetryCount {
		h.notifier.Notify(task)
	}

	// 事务成败与否都回写日志
	h.mirrorTaskLog(ctx, task)
}

// mirrorTaskLog 把该执行标识最新一条日志的状态改写为任务当前状态。
// 没有日志不算错误；有日志但改写行数不为 1 视为数据不一致。
func (h *CompletionHandler) mirrorTaskLog(ctx context.Context, task *retrytask.RetryTask) {
	latest, err := h.logRepo.LatestByIdempotentID(ctx, task.NamespaceID, task.GroupName, task.IdempotentID)
	if err != nil {
		h.logger.Error("failed to query latest retry task log",
			zap.String("idempotent_id", task.IdempotentID),
			zap.Error(err))
		return
	}
	if latest == nil {
		return
	}

	affected, err := h.logRepo.UpdateStatusByID(ctx, latest.ID, task.RetryStatus)
	if err != nil {
		h.logger.Error("failed to update retry task log",
			zap.Uint64("log_id", latest.ID),
			zap.String("idempotent_id", task.IdempotentID),
			zap.Error(err))
		return
	}
	if affected != 1 {
		h.logger.Error("retry task log update inconsistency",
			zap.Uint64("log_id", latest.ID),
			zap.Int64("affected", affected),
			zap.Error(ErrLogUpdateInconsistency))
	}
}
