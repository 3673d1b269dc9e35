package summaryrepo

import (
	"context"
	"time"

	"github.com/google/wire"
	domain "github.com/retrys/server/internal/biz/summary"
	"github.com/retrys/server/internal/infra/persistence/commonrepo"
	"github.com/samber/lo"
)

var Provider = wire.NewSet(NewMysqlRepositoryImpl, NewBatchRepositoryImpl)

type MysqlRepositoryImpl struct {
	commonrepo.DefaultRepo
}

func NewMysqlRepositoryImpl(db commonrepo.DB) domain.Repo {
	return &MysqlRepositoryImpl{DefaultRepo: commonrepo.NewDefaultRepo(db)}
}

func (r *MysqlRepositoryImpl) FindByTriggerAt(ctx context.Context, triggerAt time.Time, taskType domain.SystemTaskType, businessIDs []uint64) ([]*domain.JobSummary, error) {
	if len(businessIDs) == 0 {
		return nil, nil
	}
	var pos []JobSummaryPo
	err := r.Db(ctx).
		Where("trigger_at = ? AND system_task_type = ? AND business_id IN ?", triggerAt, taskType, businessIDs).
		Find(&pos).Error
	if err != nil {
		return nil, err
	}
	return lo.Map(pos, func(po JobSummaryPo, _ int) *domain.JobSummary {
		return po.ToDomain()
	}), nil
}

func (r *MysqlRepositoryImpl) BatchInsert(ctx context.Context, summaries []*domain.JobSummary) (int64, error) {
	if len(summaries) == 0 {
		return 0, nil
	}
	pos := lo.Map(summaries, func(s *domain.JobSummary, _ int) *JobSummaryPo {
		return new(JobSummaryPo).FromDomain(s)
	})
	tx := r.Db(ctx).Create(pos)
	return tx.RowsAffected, tx.Error
}

// BatchUpdate 按 (business_id, trigger_at, system_task_type) 覆盖统计值
func (r *MysqlRepositoryImpl) BatchUpdate(ctx context.Context, summaries []*domain.JobSummary) (int64, error) {
	var total int64
	for _, s := range summaries {
		tx := r.Db(ctx).Model(&JobSummaryPo{}).
			Where("business_id = ? AND trigger_at = ? AND system_task_type = ?", s.BusinessID, s.TriggerAt, s.SystemTaskType).
			Updates(map[string]any{
				"success_num":   s.SuccessNum,
				"fail_num":      s.FailNum,
				"stop_num":      s.StopNum,
				"cancel_num":    s.CancelNum,
				"fail_reason":   []byte(s.FailReason),
				"stop_reason":   []byte(s.StopReason),
				"cancel_reason": []byte(s.CancelReason),
			})
		if tx.Error != nil {
			return total, tx.Error
		}
		total += tx.RowsAffected
	}
	return total, nil
}

func (r *MysqlRepositoryImpl) List(ctx context.Context, namespaceID string, from, to time.Time) ([]*domain.JobSummary, error) {
	var pos []JobSummaryPo
	err := r.Db(ctx).
		Where("namespace_id = ? AND trigger_at BETWEEN ? AND ?", namespaceID, from, to).
		Order("trigger_at DESC").
		Find(&pos).Error
	if err != nil {
		return nil, err
	}
	return lo.Map(pos, func(po JobSummaryPo, _ int) *domain.JobSummary {
		return po.ToDomain()
	}), nil
}

type BatchRepositoryImpl struct {
	commonrepo.DefaultRepo
}

func NewBatchRepositoryImpl(db commonrepo.DB) domain.BatchRepo {
	return &BatchRepositoryImpl{DefaultRepo: commonrepo.NewDefaultRepo(db)}
}

// SummarizeWorkflowBatches 分组聚合一天的批次数据。
// 状态计数在 SQL 层展开成按状态的条件求和，操作原因计数随分组行返回。
func (r *BatchRepositoryImpl) SummarizeWorkflowBatches(ctx context.Context, from, to time.Time) ([]*domain.BatchSummaryRow, error) {
	var rows []*domain.BatchSummaryRow
	err := r.Db(ctx).
		Model(&WorkflowTaskBatchPo{}).
		Select(`namespace_id,
			group_name,
			workflow_id AS job_id,
			task_batch_status,
			operation_reason,
			COUNT(*) AS operation_reason_total,
			SUM(CASE WHEN task_batch_status = ? THEN 1 ELSE 0 END) AS success_num,
			SUM(CASE WHEN task_batch_status = ? THEN 1 ELSE 0 END) AS fail_num,
			SUM(CASE WHEN task_batch_status = ? THEN 1 ELSE 0 END) AS stop_num,
			SUM(CASE WHEN task_batch_status = ? THEN 1 ELSE 0 END) AS cancel_num`,
			domain.BatchStatusSuccess, domain.BatchStatusFail, domain.BatchStatusStop, domain.BatchStatusCancel).
		Where("created_at BETWEEN ? AND ?", from, to).
		Group("namespace_id, group_name, workflow_id, task_batch_status, operation_reason").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
