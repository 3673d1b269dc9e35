package scene

import "time"

// RouteKey 路由策略标识，决定组内节点的选择算法
type RouteKey string

const (
	RouteRoundRobin     RouteKey = "round_robin"
	RouteRandom         RouteKey = "random"
	RouteConsistentHash RouteKey = "consistent_hash"
)

// SceneConfig 场景配置，按 (组, 场景) 维度生效。
// 对派发链路只读，归配置管理模块维护。
type SceneConfig struct {
	ID              uint64
	CreatedAt       time.Time
	UpdatedAt       time.Time
	NamespaceID     string
	GroupName       string
	SceneName       string
	MaxRetryCount   int
	RouteKey        RouteKey
	ExecutorTimeout time.Duration
	Description     string
}
