package retrylogrepo

import (
	"time"

	"github.com/retrys/server/internal/biz/retrylog"
	"github.com/retrys/server/internal/biz/retrytask"
)

type RetryTaskLogPo struct {
	ID           uint64                `gorm:"primarykey"`
	CreatedAt    time.Time             `gorm:"index;autoCreateTime"`
	NamespaceID  string                `gorm:"column:namespace_id;size:64;not null;index:idx_ns_group_idem,priority:1"`
	GroupName    string                `gorm:"column:group_name;size:64;not null;index:idx_ns_group_idem,priority:2"`
	SceneName    string                `gorm:"column:scene_name;size:64;not null"`
	UniqueID     string                `gorm:"column:unique_id;size:64;not null;index"`
	IdempotentID string                `gorm:"column:idempotent_id;size:64;not null;index:idx_ns_group_idem,priority:3"`
	ExecutorName string                `gorm:"column:executor_name;size:512;not null"`
	ArgsStr      string                `gorm:"column:args_str;type:text"`
	RetryStatus  retrytask.RetryStatus `gorm:"column:retry_status;not null"`
	TaskType     retrytask.TaskType    `gorm:"column:task_type;not null;default:1"`
	ErrorMessage string                `gorm:"column:error_message;type:text"`
}

func (l *RetryTaskLogPo) TableName() string {
	return "retry_task_log"
}

func (po *RetryTaskLogPo) FromDomain(in *retrylog.RetryTaskLog) *RetryTaskLogPo {
	return &RetryTaskLogPo{
		ID:           in.ID,
		CreatedAt:    in.CreatedAt,
		NamespaceID:  in.NamespaceID,
		GroupName:    in.GroupName,
		SceneName:    in.SceneName,
		UniqueID:     in.UniqueID,
		IdempotentID: in.IdempotentID,
		ExecutorName: in.ExecutorName,
		ArgsStr:      in.ArgsStr,
		RetryStatus:  in.RetryStatus,
		TaskType:     in.TaskType,
		ErrorMessage: in.ErrorMessage,
	}
}

func (po *RetryTaskLogPo) ToDomain() *retrylog.RetryTaskLog {
	return &retrylog.RetryTaskLog{
		ID:           po.ID,
		CreatedAt:    po.CreatedAt,
		NamespaceID:  po.NamespaceID,
		GroupName:    po.GroupName,
		SceneName:    po.SceneName,
		UniqueID:     po.UniqueID,
		IdempotentID: po.IdempotentID,
		ExecutorName: po.ExecutorName,
		ArgsStr:      po.ArgsStr,
		RetryStatus:  po.RetryStatus,
		TaskType:     po.TaskType,
		ErrorMessage: po.ErrorMessage,
	}
}
