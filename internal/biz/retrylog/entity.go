package retrylog

import (
	"time"

	"github.com/retrys/server/internal/biz/retrytask"
)

// RetryTaskLog 每次执行追加一条，按 idempotent_id 关联任务。
// 只有最新一条会被改写成任务的最终状态，历史记录不可变。
type RetryTaskLog struct {
	ID           uint64
	CreatedAt    time.Time
	NamespaceID  string
	GroupName    string
	SceneName    string
	UniqueID     string
	IdempotentID string
	ExecutorName string
	ArgsStr      string
	RetryStatus  retrytask.RetryStatus
	TaskType     retrytask.TaskType
	ErrorMessage string
}
