package node

import (
	"fmt"
	"time"
)

// RegisterNodeInfo 一个存活的客户端节点注册信息，对派发链路只读
type RegisterNodeInfo struct {
	NamespaceID string
	GroupName   string
	HostID      string
	HostIP      string
	HostPort    int
	ExpireAt    time.Time
}

func (n *RegisterNodeInfo) Addr() string {
	return fmt.Sprintf("%s:%d", n.HostIP, n.HostPort)
}

// Alive 节点心跳是否仍在有效期内
func (n *RegisterNodeInfo) Alive(now time.Time) bool {
	return n.ExpireAt.After(now)
}
