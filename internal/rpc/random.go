package rpc

import (
	"math/rand"

	"github.com/retrys/server/internal/biz/node"
)

// RandomStrategy 随机策略
type RandomStrategy struct{}

func NewRandomStrategy() *RandomStrategy {
	return &RandomStrategy{}
}

func (s *RandomStrategy) Select(nodes []*node.RegisterNodeInfo, _ string) (*node.RegisterNodeInfo, error) {
	if len(nodes) == 0 {
		return nil, ErrNoAvailableNode
	}
	return nodes[rand.Intn(len(nodes))], nil
}

func (s *RandomStrategy) Name() string {
	return "random"
}
