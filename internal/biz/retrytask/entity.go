package retrytask

import (
	"errors"
	"time"
)

// RetryTask 一条可重试的工作单元
type RetryTask struct {
	ID            uint64
	CreatedAt     time.Time
	UpdatedAt     time.Time
	NamespaceID   string
	GroupName     string
	SceneName     string
	UniqueID      string // 任务逻辑标识
	IdempotentID  string // 单次执行标识
	ExecutorName  string
	ArgsStr       string
	RetryStatus   RetryStatus
	RetryCount    int // 只增不减
	TaskType      TaskType
	NextTriggerAt time.Time
}

// MarkRetried 记录一次派发，重试次数单调递增
func (t *RetryTask) MarkRetried(next time.Time) {
	t.RetryCount++
	t.NextTriggerAt = next
}

func (t *RetryTask) MarkSuccess() error {
	if t.RetryStatus.IsTerminal() {
		return errors.New("task already in terminal status")
	}
	t.RetryStatus = RetryStatusSuccess
	return nil
}

// MarkMaxRetry 重试耗尽
func (t *RetryTask) MarkMaxRetry() {
	t.RetryStatus = RetryStatusMaxRetryCount
}

func (t *RetryTask) IsCallback() bool {
	return t.TaskType == TaskTypeCallback
}
