package retrytaskrepo

import (
	"time"

	domain "github.com/retrys/server/internal/biz/retrytask"
	"github.com/retrys/server/internal/infra/persistence/commonrepo"
)

type RetryTaskPo struct {
	commonrepo.Mode
	NamespaceID   string             `gorm:"column:namespace_id;size:64;not null;index:idx_ns_group_unique,unique,priority:1"`
	GroupName     string             `gorm:"column:group_name;size:64;not null;index:idx_ns_group_unique,unique,priority:2"`
	SceneName     string             `gorm:"column:scene_name;size:64;not null"`
	UniqueID      string             `gorm:"column:unique_id;size:64;not null;index:idx_ns_group_unique,unique,priority:3"` // 任务逻辑标识
	IdempotentID  string             `gorm:"column:idempotent_id;size:64;not null;index"`                                   // 执行标识
	ExecutorName  string             `gorm:"column:executor_name;size:512;not null"`
	ArgsStr       string             `gorm:"column:args_str;type:text"`
	RetryStatus   domain.RetryStatus `gorm:"column:retry_status;not null;index"`
	RetryCount    int                `gorm:"column:retry_count;not null;default:0"`
	TaskType      domain.TaskType    `gorm:"column:task_type;not null;default:1"`
	NextTriggerAt time.Time          `gorm:"column:next_trigger_at;index"`
}

func (t *RetryTaskPo) TableName() string {
	return "retry_task"
}
