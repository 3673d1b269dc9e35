package rpc

import (
	"net/http"
	"time"

	"github.com/google/wire"
	"github.com/retrys/server/internal/biz/node"
	"github.com/retrys/server/internal/biz/scene"
	"go.uber.org/zap"
)

var Provider = wire.NewSet(NewClientFactory, NewStrategyManager)

// ClientFactory 远程客户端工厂。
// 给定目标节点或者组，结合路由策略解析出一个节点并生成绑定到该节点的客户端。
type ClientFactory struct {
	registry   node.Registry
	strategies *StrategyManager
	logger     *zap.Logger
}

func NewClientFactory(registry node.Registry, strategies *StrategyManager, logger *zap.Logger) *ClientFactory {
	return &ClientFactory{
		registry:   registry,
		strategies: strategies,
		logger:     logger,
	}
}

// RequestBuilder 链式构造一次客户端调用的全部参数
type RequestBuilder struct {
	factory  *ClientFactory
	nodeInfo *node.RegisterNodeInfo
	routeKey scene.RouteKey
	allocKey string
	failover bool
	timeout  time.Duration
}

func (f *ClientFactory) NewRequest() *RequestBuilder {
	return &RequestBuilder{
		factory:  f,
		routeKey: scene.RouteRoundRobin,
		timeout:  60 * time.Second,
	}
}

// NodeInfo 指定固定节点，跳过路由选择；失败转移候选仍取同组其他节点
func (b *RequestBuilder) NodeInfo(info *node.RegisterNodeInfo) *RequestBuilder {
	b.nodeInfo = info
	return b
}

func (b *RequestBuilder) RouteKey(routeKey scene.RouteKey) *RequestBuilder {
	b.routeKey = routeKey
	return b
}

func (b *RequestBuilder) AllocKey(allocKey string) *RequestBuilder {
	b.allocKey = allocKey
	return b
}

func (b *RequestBuilder) Failover(enabled bool) *RequestBuilder {
	b.failover = enabled
	return b
}

// Timeout 只约束 RPC 调用本身，不包含节点解析
func (b *RequestBuilder) Timeout(timeout time.Duration) *RequestBuilder {
	b.timeout = timeout
	return b
}

// BuildForGroup 在组内按路由策略解析节点并生成客户端
func (b *RequestBuilder) BuildForGroup(namespaceID, groupName string) (*Client, error) {
	nodes := b.factory.registry.GetServerNodes(namespaceID, groupName)
	if len(nodes) == 0 {
		return nil, ErrNoAvailableNode
	}

	primary := b.nodeInfo
	if primary == nil {
		strategy := b.factory.strategies.Get(b.routeKey)
		selected, err := strategy.Select(nodes, b.allocKey)
		if err != nil {
			return nil, err
		}
		primary = selected
	}

	// 候选节点排除已解析的主节点，故障转移不会重试同一个节点
	candidates := make([]*node.RegisterNodeInfo, 0, len(nodes)-1)
	for _, n := range nodes {
		if n.HostID != primary.HostID {
			candidates = append(candidates, n)
		}
	}

	return &Client{
		primary:    primary,
		candidates: candidates,
		failover:   b.failover,
		httpClient: &http.Client{Timeout: b.timeout},
		logger:     b.factory.logger,
	}, nil
}
