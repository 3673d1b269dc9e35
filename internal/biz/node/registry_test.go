package node

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registryNode(hostID string, expireAt time.Time) *RegisterNodeInfo {
	return &RegisterNodeInfo{
		NamespaceID: "ns",
		GroupName:   "group",
		HostID:      hostID,
		HostIP:      "127.0.0.1",
		HostPort:    8080,
		ExpireAt:    expireAt,
	}
}

func TestMemoryRegistryHeartbeatAndGet(t *testing.T) {
	r := NewMemoryRegistry()
	alive := time.Now().Add(time.Minute)

	r.Heartbeat(registryNode("c", alive))
	r.Heartbeat(registryNode("a", alive))
	r.Heartbeat(registryNode("b", alive))

	nodes := r.GetServerNodes("ns", "group")
	require.Len(t, nodes, 3)
	// 按 HostID 稳定排序
	assert.Equal(t, "a", nodes[0].HostID)
	assert.Equal(t, "b", nodes[1].HostID)
	assert.Equal(t, "c", nodes[2].HostID)

	assert.Empty(t, r.GetServerNodes("ns", "other-group"))
}

func TestMemoryRegistryFiltersExpired(t *testing.T) {
	r := NewMemoryRegistry()
	r.Heartbeat(registryNode("alive", time.Now().Add(time.Minute)))
	r.Heartbeat(registryNode("expired", time.Now().Add(-time.Second)))

	nodes := r.GetServerNodes("ns", "group")
	require.Len(t, nodes, 1)
	assert.Equal(t, "alive", nodes[0].HostID)
}

func TestMemoryRegistryHeartbeatRenews(t *testing.T) {
	r := NewMemoryRegistry()
	r.Heartbeat(registryNode("a", time.Now().Add(-time.Second)))
	assert.Empty(t, r.GetServerNodes("ns", "group"))

	// 新心跳覆盖过期记录
	r.Heartbeat(registryNode("a", time.Now().Add(time.Minute)))
	assert.Len(t, r.GetServerNodes("ns", "group"), 1)
}

func TestMemoryRegistryOffline(t *testing.T) {
	r := NewMemoryRegistry()
	alive := time.Now().Add(time.Minute)
	r.Heartbeat(registryNode("a", alive))
	r.Heartbeat(registryNode("b", alive))

	r.Offline("ns", "group", "a")

	nodes := r.GetServerNodes("ns", "group")
	require.Len(t, nodes, 1)
	assert.Equal(t, "b", nodes[0].HostID)

	// 下线不存在的节点不报错
	r.Offline("ns", "group", "missing")
	r.Offline("ns", "unknown-group", "a")
}

func TestNodeAddr(t *testing.T) {
	n := registryNode("a", time.Now())
	assert.Equal(t, "127.0.0.1:8080", n.Addr())
}
