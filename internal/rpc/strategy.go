package rpc

import (
	"fmt"

	"github.com/retrys/server/internal/biz/node"
	"github.com/retrys/server/internal/biz/scene"
)

// Strategy 路由策略接口，在组内多个节点中挑选一个
type Strategy interface {
	Select(nodes []*node.RegisterNodeInfo, allocKey string) (*node.RegisterNodeInfo, error)
	Name() string
}

// StrategyManager 按 RouteKey 分发到具体策略
type StrategyManager struct {
	strategies map[scene.RouteKey]Strategy
}

func NewStrategyManager() *StrategyManager {
	m := &StrategyManager{
		strategies: make(map[scene.RouteKey]Strategy),
	}
	m.strategies[scene.RouteRoundRobin] = NewRoundRobinStrategy()
	m.strategies[scene.RouteRandom] = NewRandomStrategy()
	m.strategies[scene.RouteConsistentHash] = NewConsistentHashStrategy()
	return m
}

// Get 未知的路由键回退到轮询
func (m *StrategyManager) Get(routeKey scene.RouteKey) Strategy {
	strategy, ok := m.strategies[routeKey]
	if !ok {
		return m.strategies[scene.RouteRoundRobin]
	}
	return strategy
}

func (m *StrategyManager) GetStrict(routeKey scene.RouteKey) (Strategy, error) {
	strategy, ok := m.strategies[routeKey]
	if !ok {
		return nil, fmt.Errorf("unknown route key: %s", routeKey)
	}
	return strategy, nil
}
