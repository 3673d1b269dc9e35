package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/retrys/server/internal/biz/retrytask"
	"go.uber.org/zap"
)

// CallbackUniqueIDPrefix 回调任务的唯一ID由原始任务唯一ID加前缀构成，
// 两个方向都可以确定性推导。
const CallbackUniqueIDPrefix = "CB_"

var ErrInvalidCallbackUniqueID = errors.New("invalid callback unique id")

// CallbackTaskHandler 负责回调任务的创建和命名约定
type CallbackTaskHandler struct {
	taskRepo retrytask.Repo
	logger   *zap.Logger
}

func NewCallbackTaskHandler(taskRepo retrytask.Repo, logger *zap.Logger) *CallbackTaskHandler {
	return &CallbackTaskHandler{
		taskRepo: taskRepo,
		logger:   logger,
	}
}

// CallbackUniqueID 由原始任务唯一ID推导回调任务唯一ID
func (h *CallbackTaskHandler) CallbackUniqueID(originUniqueID string) string {
	return CallbackUniqueIDPrefix + originUniqueID
}

// OriginUniqueID 由回调任务唯一ID还原原始任务唯一ID
func (h *CallbackTaskHandler) OriginUniqueID(callbackUniqueID string) (string, error) {
	if !strings.HasPrefix(callbackUniqueID, CallbackUniqueIDPrefix) {
		return "", fmt.Errorf("%w: %s", ErrInvalidCallbackUniqueID, callbackUniqueID)
	}
	return strings.TrimPrefix(callbackUniqueID, CallbackUniqueIDPrefix), nil
}

// Create 由重试耗尽的任务派生一个回调任务。
// 调用方负责事务边界。同一个原始任务重复进入时不会创建第二个回调任务。
func (h *CallbackTaskHandler) Create(ctx context.Context, origin *retrytask.RetryTask) error {
	callbackUniqueID := h.CallbackUniqueID(origin.UniqueID)

	existing, err := h.taskRepo.GetByUniqueID(ctx, origin.NamespaceID, origin.GroupName, callbackUniqueID)
	if err != nil {
		return fmt.Errorf("failed to check existing callback task: %w", err)
	}
	if existing != nil {
		h.logger.Info("callback task already exists, skip creating",
			zap.String("unique_id", callbackUniqueID),
			zap.String("group_name", origin.GroupName))
		return nil
	}

	callbackTask := &retrytask.RetryTask{
		NamespaceID:   origin.NamespaceID,
		GroupName:     origin.GroupName,
		SceneName:     origin.SceneName,
		UniqueID:      callbackUniqueID,
		IdempotentID:  uuid.NewString(),
		ExecutorName:  origin.ExecutorName,
		ArgsStr:       origin.ArgsStr,
		RetryStatus:   retrytask.RetryStatusRunning,
		RetryCount:    0,
		TaskType:      retrytask.TaskTypeCallback,
		NextTriggerAt: time.Now(),
	}
	if err := h.taskRepo.Create(ctx, callbackTask); err != nil {
		return fmt.Errorf("failed to create callback task: %w", err)
	}

	h.logger.Info("callback task created",
		zap.String("unique_id", callbackUniqueID),
		zap.String("origin_unique_id", origin.UniqueID),
		zap.String("group_name", origin.GroupName))
	return nil
}
