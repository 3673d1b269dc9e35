package retrylog

import (
	"context"

	"github.com/retrys/server/internal/biz/retrytask"
)

type Repo interface {
	Create(ctx context.Context, log *RetryTaskLog) error

	// LatestByIdempotentID 取该执行标识下最新一条日志，没有则返回 nil
	LatestByIdempotentID(ctx context.Context, namespaceID, groupName, idempotentID string) (*RetryTaskLog, error)

	// UpdateStatusByID 按主键改写日志状态，返回影响行数
	UpdateStatusByID(ctx context.Context, id uint64, status retrytask.RetryStatus) (int64, error)

	ListByUniqueID(ctx context.Context, namespaceID, groupName, uniqueID string) ([]*RetryTaskLog, error)
}
