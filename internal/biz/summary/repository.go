package summary

import (
	"context"
	"time"
)

type BatchRepo interface {
	// SummarizeWorkflowBatches 查询层完成预分组：
	// GROUP BY namespace_id, group_name, workflow_id, task_batch_status, operation_reason
	SummarizeWorkflowBatches(ctx context.Context, from, to time.Time) ([]*BatchSummaryRow, error)
}

type Repo interface {
	// FindByTriggerAt 按触发日和任务类型拉取候选业务ID已有的统计行
	FindByTriggerAt(ctx context.Context, triggerAt time.Time, taskType SystemTaskType, businessIDs []uint64) ([]*JobSummary, error)
	BatchInsert(ctx context.Context, summaries []*JobSummary) (int64, error)
	BatchUpdate(ctx context.Context, summaries []*JobSummary) (int64, error)
	List(ctx context.Context, namespaceID string, from, to time.Time) ([]*JobSummary, error)
}
