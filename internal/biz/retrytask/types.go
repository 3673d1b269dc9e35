package retrytask

// RetryStatus 重试任务状态
type RetryStatus int

const (
	RetryStatusRunning       RetryStatus = 1
	RetryStatusSuccess       RetryStatus = 2
	RetryStatusFail          RetryStatus = 3
	RetryStatusMaxRetryCount RetryStatus = 4
	RetryStatusCancel        RetryStatus = 5
	RetryStatusStop          RetryStatus = 6
)

// IsTerminal 终态任务不再参与调度
func (s RetryStatus) IsTerminal() bool {
	switch s {
	case RetryStatusSuccess, RetryStatusMaxRetryCount, RetryStatusCancel, RetryStatusStop:
		return true
	}
	return false
}

func (s RetryStatus) String() string {
	switch s {
	case RetryStatusRunning:
		return "running"
	case RetryStatusSuccess:
		return "success"
	case RetryStatusFail:
		return "fail"
	case RetryStatusMaxRetryCount:
		return "max_retry_count"
	case RetryStatusCancel:
		return "cancel"
	case RetryStatusStop:
		return "stop"
	}
	return "unknown"
}

// TaskType 任务类型
type TaskType int

const (
	TaskTypeNormal   TaskType = 1
	TaskTypeCallback TaskType = 2
)
