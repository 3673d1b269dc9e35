package retrytask

import (
	"context"
	"time"

	"github.com/samber/mo"
)

type Repo interface {
	Create(ctx context.Context, task *RetryTask) error
	GetByUniqueID(ctx context.Context, namespaceID, groupName, uniqueID string) (*RetryTask, error)

	// GetStatusByUniqueID 只查询任务当前状态，供回调单元回查原始任务
	GetStatusByUniqueID(ctx context.Context, namespaceID, groupName, uniqueID string) (RetryStatus, bool, error)

	Update(ctx context.Context, task *RetryTask) error
	List(ctx context.Context, filter *Filter) ([]*RetryTask, error)

	// FindDispatchable 查找到期且仍处于 RUNNING 状态的任务
	FindDispatchable(ctx context.Context, before time.Time, limit int) ([]*RetryTask, error)
}

type Filter struct {
	NamespaceID mo.Option[string]
	GroupName   mo.Option[string]
	SceneName   mo.Option[string]
	RetryStatus mo.Option[RetryStatus]
	TaskType    mo.Option[TaskType]
}
