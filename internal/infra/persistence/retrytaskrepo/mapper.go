package retrytaskrepo

import (
	domain "github.com/retrys/server/internal/biz/retrytask"
	"github.com/retrys/server/internal/infra/persistence/commonrepo"
)

func (po *RetryTaskPo) FromDomain(in *domain.RetryTask) *RetryTaskPo {
	return &RetryTaskPo{
		Mode: commonrepo.Mode{
			ID:        in.ID,
			CreatedAt: in.CreatedAt,
			UpdatedAt: in.UpdatedAt,
		},
		NamespaceID:   in.NamespaceID,
		GroupName:     in.GroupName,
		SceneName:     in.SceneName,
		UniqueID:      in.UniqueID,
		IdempotentID:  in.IdempotentID,
		ExecutorName:  in.ExecutorName,
		ArgsStr:       in.ArgsStr,
		RetryStatus:   in.RetryStatus,
		RetryCount:    in.RetryCount,
		TaskType:      in.TaskType,
		NextTriggerAt: in.NextTriggerAt,
	}
}

func (po *RetryTaskPo) ToDomain() *domain.RetryTask {
	return &domain.RetryTask{
		ID:            po.ID,
		CreatedAt:     po.CreatedAt,
		UpdatedAt:     po.UpdatedAt,
		NamespaceID:   po.NamespaceID,
		GroupName:     po.GroupName,
		SceneName:     po.SceneName,
		UniqueID:      po.UniqueID,
		IdempotentID:  po.IdempotentID,
		ExecutorName:  po.ExecutorName,
		ArgsStr:       po.ArgsStr,
		RetryStatus:   po.RetryStatus,
		RetryCount:    po.RetryCount,
		TaskType:      po.TaskType,
		NextTriggerAt: po.NextTriggerAt,
	}
}
