package summary

import "time"

// BatchStatus 任务批次状态
type BatchStatus int

const (
	BatchStatusWaiting BatchStatus = 1
	BatchStatusRunning BatchStatus = 2
	BatchStatusSuccess BatchStatus = 3
	BatchStatusFail    BatchStatus = 4
	BatchStatusStop    BatchStatus = 5
	BatchStatusCancel  BatchStatus = 6
)

// SystemTaskType 统计归属的系统任务类型
type SystemTaskType int

const (
	SystemTaskTypeRetry    SystemTaskType = 1
	SystemTaskTypeCallback SystemTaskType = 2
	SystemTaskTypeJob      SystemTaskType = 3
	SystemTaskTypeWorkflow SystemTaskType = 4
)

// WorkflowTaskBatch 工作流任务批次，统计任务的数据来源
type WorkflowTaskBatch struct {
	ID              uint64
	CreatedAt       time.Time
	NamespaceID     string
	GroupName       string
	WorkflowID      uint64
	TaskBatchStatus BatchStatus
	OperationReason string
}

// BatchSummaryRow 分组查询返回的一行：
// (命名空间, 组, 业务ID, 批次状态, 操作原因) 一组对应一行
type BatchSummaryRow struct {
	NamespaceID          string
	GroupName            string
	JobID                uint64
	TaskBatchStatus      BatchStatus
	OperationReason      string
	OperationReasonTotal int
	SuccessNum           int
	FailNum              int
	StopNum              int
	CancelNum            int
}

// BatchReason 操作原因直方图的一项，只在统计计算过程中出现
type BatchReason struct {
	Reason string `json:"reason"`
	Total  int    `json:"total"`
}

// JobSummary 每 (业务ID, 触发日, 任务类型) 一行的日统计。
// 唯一性由应用层 insertOrUpdate 保证，不依赖存储约束。
type JobSummary struct {
	ID             uint64
	CreatedAt      time.Time
	UpdatedAt      time.Time
	NamespaceID    string
	GroupName      string
	BusinessID     uint64
	TriggerAt      time.Time
	SystemTaskType SystemTaskType
	SuccessNum     int
	FailNum        int
	StopNum        int
	CancelNum      int
	FailReason     []byte // JSON 编码的 []BatchReason
	StopReason     []byte
	CancelReason   []byte
}
