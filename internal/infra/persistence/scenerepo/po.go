package scenerepo

import (
	"time"

	domain "github.com/retrys/server/internal/biz/scene"
	"github.com/retrys/server/internal/infra/persistence/commonrepo"
)

type SceneConfigPo struct {
	commonrepo.Mode
	NamespaceID     string `gorm:"column:namespace_id;size:64;not null;index:idx_ns_group_scene,unique,priority:1"`
	GroupName       string `gorm:"column:group_name;size:64;not null;index:idx_ns_group_scene,unique,priority:2"`
	SceneName       string `gorm:"column:scene_name;size:64;not null;index:idx_ns_group_scene,unique,priority:3"`
	MaxRetryCount   int    `gorm:"column:max_retry_count;not null;default:5"`
	RouteKey        string `gorm:"column:route_key;size:50;not null;default:'round_robin'"`
	ExecutorTimeout int    `gorm:"column:executor_timeout;not null;default:60"` // 秒
	Description     string `gorm:"column:description;size:256"`
}

func (s *SceneConfigPo) TableName() string {
	return "retry_scene_config"
}

func (po *SceneConfigPo) ToDomain() *domain.SceneConfig {
	return &domain.SceneConfig{
		ID:              po.ID,
		CreatedAt:       po.CreatedAt,
		UpdatedAt:       po.UpdatedAt,
		NamespaceID:     po.NamespaceID,
		GroupName:       po.GroupName,
		SceneName:       po.SceneName,
		MaxRetryCount:   po.MaxRetryCount,
		RouteKey:        domain.RouteKey(po.RouteKey),
		ExecutorTimeout: time.Duration(po.ExecutorTimeout) * time.Second,
		Description:     po.Description,
	}
}
