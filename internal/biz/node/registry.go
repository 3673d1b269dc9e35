package node

import (
	"sort"
	"sync"
	"time"
)

// Registry 节点注册表，按 (命名空间, 组) 维护存活节点快照
type Registry interface {
	// GetServerNodes 返回该组当前存活的节点，按 HostID 稳定排序
	GetServerNodes(namespaceID, groupName string) []*RegisterNodeInfo
	Heartbeat(info *RegisterNodeInfo)
	Offline(namespaceID, groupName, hostID string)
}

type groupKey struct {
	namespaceID string
	groupName   string
}

// MemoryRegistry 内存注册表实现，由心跳接口喂入
type MemoryRegistry struct {
	mu    sync.RWMutex
	nodes map[groupKey]map[string]*RegisterNodeInfo
	now   func() time.Time
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		nodes: make(map[groupKey]map[string]*RegisterNodeInfo),
		now:   time.Now,
	}
}

func (r *MemoryRegistry) Heartbeat(info *RegisterNodeInfo) {
	key := groupKey{namespaceID: info.NamespaceID, groupName: info.GroupName}

	r.mu.Lock()
	defer r.mu.Unlock()
	group, ok := r.nodes[key]
	if !ok {
		group = make(map[string]*RegisterNodeInfo)
		r.nodes[key] = group
	}
	group[info.HostID] = info
}

func (r *MemoryRegistry) Offline(namespaceID, groupName, hostID string) {
	key := groupKey{namespaceID: namespaceID, groupName: groupName}

	r.mu.Lock()
	defer r.mu.Unlock()
	if group, ok := r.nodes[key]; ok {
		delete(group, hostID)
	}
}

func (r *MemoryRegistry) GetServerNodes(namespaceID, groupName string) []*RegisterNodeInfo {
	key := groupKey{namespaceID: namespaceID, groupName: groupName}
	now := r.now()

	r.mu.RLock()
	defer r.mu.RUnlock()
	group, ok := r.nodes[key]
	if !ok {
		return nil
	}

	alive := make([]*RegisterNodeInfo, 0, len(group))
	for _, info := range group {
		if info.Alive(now) {
			alive = append(alive, info)
		}
	}
	// 稳定排序，保证轮询和一致性哈希的候选顺序可预期
	sort.Slice(alive, func(i, j int) bool {
		return alive[i].HostID < alive[j].HostID
	})
	return alive
}
