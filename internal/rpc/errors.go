package rpc

import (
	"errors"
	"fmt"
)

var (
	// ErrNoAvailableNode 组内没有存活节点，或路由没有命中任何节点
	ErrNoAvailableNode = errors.New("no available node")
	// ErrRpcTimeout 远端调用超时
	ErrRpcTimeout = errors.New("rpc call timeout")
)

// RemoteExecutionError 远端应用层返回的错误，保留原始响应内容
type RemoteExecutionError struct {
	Addr       string
	StatusCode int
	Message    string
}

func (e *RemoteExecutionError) Error() string {
	return fmt.Sprintf("remote execution error from %s (status %d): %s", e.Addr, e.StatusCode, e.Message)
}
