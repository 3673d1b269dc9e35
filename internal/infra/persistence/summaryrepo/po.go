package summaryrepo

import (
	"time"

	domain "github.com/retrys/server/internal/biz/summary"
	"github.com/retrys/server/internal/infra/persistence/commonrepo"
	"gorm.io/datatypes"
)

type WorkflowTaskBatchPo struct {
	ID              uint64             `gorm:"primarykey"`
	CreatedAt       time.Time          `gorm:"index;autoCreateTime"`
	NamespaceID     string             `gorm:"column:namespace_id;size:64;not null"`
	GroupName       string             `gorm:"column:group_name;size:64;not null"`
	WorkflowID      uint64             `gorm:"column:workflow_id;not null;index"`
	TaskBatchStatus domain.BatchStatus `gorm:"column:task_batch_status;not null;index"`
	OperationReason string             `gorm:"column:operation_reason;size:256"`
}

func (b *WorkflowTaskBatchPo) TableName() string {
	return "workflow_task_batch"
}

type JobSummaryPo struct {
	commonrepo.Mode
	NamespaceID    string                `gorm:"column:namespace_id;size:64;not null"`
	GroupName      string                `gorm:"column:group_name;size:64;not null"`
	BusinessID     uint64                `gorm:"column:business_id;not null;index:idx_biz_trigger,priority:1"`
	TriggerAt      time.Time             `gorm:"column:trigger_at;not null;index:idx_biz_trigger,priority:2"`
	SystemTaskType domain.SystemTaskType `gorm:"column:system_task_type;not null;default:3"`
	SuccessNum     int                   `gorm:"column:success_num;not null;default:0"`
	FailNum        int                   `gorm:"column:fail_num;not null;default:0"`
	StopNum        int                   `gorm:"column:stop_num;not null;default:0"`
	CancelNum      int                   `gorm:"column:cancel_num;not null;default:0"`
	FailReason     datatypes.JSON        `gorm:"column:fail_reason;type:json"`
	StopReason     datatypes.JSON        `gorm:"column:stop_reason;type:json"`
	CancelReason   datatypes.JSON        `gorm:"column:cancel_reason;type:json"`
}

func (s *JobSummaryPo) TableName() string {
	return "job_summary"
}

func (po *JobSummaryPo) FromDomain(in *domain.JobSummary) *JobSummaryPo {
	return &JobSummaryPo{
		Mode: commonrepo.Mode{
			ID:        in.ID,
			CreatedAt: in.CreatedAt,
			UpdatedAt: in.UpdatedAt,
		},
		NamespaceID:    in.NamespaceID,
		GroupName:      in.GroupName,
		BusinessID:     in.BusinessID,
		TriggerAt:      in.TriggerAt,
		SystemTaskType: in.SystemTaskType,
		SuccessNum:     in.SuccessNum,
		FailNum:        in.FailNum,
		StopNum:        in.StopNum,
		CancelNum:      in.CancelNum,
		FailReason:     datatypes.JSON(in.FailReason),
		StopReason:     datatypes.JSON(in.StopReason),
		CancelReason:   datatypes.JSON(in.CancelReason),
	}
}

func (po *JobSummaryPo) ToDomain() *domain.JobSummary {
	return &domain.JobSummary{
		ID:             po.ID,
		CreatedAt:      po.CreatedAt,
		UpdatedAt:      po.UpdatedAt,
		NamespaceID:    po.NamespaceID,
		GroupName:      po.GroupName,
		BusinessID:     po.BusinessID,
		TriggerAt:      po.TriggerAt,
		SystemTaskType: po.SystemTaskType,
		SuccessNum:     po.SuccessNum,
		FailNum:        po.FailNum,
		StopNum:        po.StopNum,
		CancelNum:      po.CancelNum,
		FailReason:     []byte(po.FailReason),
		StopReason:     []byte(po.StopReason),
		CancelReason:   []byte(po.CancelReason),
	}
}
