package rpc

import (
	"hash/fnv"

	"github.com/retrys/server/internal/biz/node"
)

// ConsistentHashStrategy 按分配键哈希，同一个 allocKey 始终路由到同一个节点
type ConsistentHashStrategy struct{}

func NewConsistentHashStrategy() *ConsistentHashStrategy {
	return &ConsistentHashStrategy{}
}

func (s *ConsistentHashStrategy) Select(nodes []*node.RegisterNodeInfo, allocKey string) (*node.RegisterNodeInfo, error) {
	if len(nodes) == 0 {
		return nil, ErrNoAvailableNode
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(allocKey))
	return nodes[int(h.Sum32())%len(nodes)], nil
}

func (s *ConsistentHashStrategy) Name() string {
	return "consistent_hash"
}
