package rpc

import (
	"sync"

	"github.com/retrys/server/internal/biz/node"
)

// RoundRobinStrategy 轮询策略，按组维护游标
type RoundRobinStrategy struct {
	mu      sync.Mutex
	cursors map[string]int
}

func NewRoundRobinStrategy() *RoundRobinStrategy {
	return &RoundRobinStrategy{
		cursors: make(map[string]int),
	}
}

func (s *RoundRobinStrategy) Select(nodes []*node.RegisterNodeInfo, _ string) (*node.RegisterNodeInfo, error) {
	if len(nodes) == 0 {
		return nil, ErrNoAvailableNode
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := nodes[0].NamespaceID + "/" + nodes[0].GroupName
	index := s.cursors[key] % len(nodes)
	s.cursors[key] = (index + 1) % len(nodes)
	return nodes[index], nil
}

func (s *RoundRobinStrategy) Name() string {
	return "round_robin"
}
