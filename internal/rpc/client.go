package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/retrys/server/internal/biz/node"
	"go.uber.org/zap"
)

const (
	// StatusOK 客户端应答中的成功标记
	StatusOK = 1

	dispatchPath = "/retry/dispatch/v1"
	callbackPath = "/retry/callback/v1"
)

// Result 客户端应答：成功标记加可选的错误内容
type Result struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (r *Result) OK() bool {
	return r.Status == StatusOK
}

// DispatchRetryRequest 重试派发请求体
type DispatchRetryRequest struct {
	IdempotentID string `json:"idempotentId"`
	UniqueID     string `json:"uniqueId"`
	NamespaceID  string `json:"namespaceId"`
	GroupName    string `json:"groupName"`
	SceneName    string `json:"sceneName"`
	ExecutorName string `json:"executorName"`
	ArgsStr      string `json:"argsStr"`
	RetryCount   int    `json:"retryCount"`
}

// RetryCallbackRequest 回调请求体，通知客户端任务的最终状态
type RetryCallbackRequest struct {
	IdempotentID string `json:"idempotentId"`
	RetryStatus  int    `json:"retryStatus"`
	ArgsStr      string `json:"argsStr"`
	Scene        string `json:"scene"`
	Group        string `json:"group"`
	ExecutorName string `json:"executorName"`
	UniqueID     string `json:"uniqueId"`
	NamespaceID  string `json:"namespaceId"`
}

// Client 绑定到一个已解析节点的远程客户端。
// failover 开启时，连接失败会依次尝试同组的候选节点，绝不会重试失败过的节点。
type Client struct {
	primary    *node.RegisterNodeInfo
	candidates []*node.RegisterNodeInfo // 不含 primary
	failover   bool
	httpClient *http.Client
	logger     *zap.Logger
}

func (c *Client) DispatchRetry(ctx context.Context, req *DispatchRetryRequest) (*Result, error) {
	return c.call(ctx, dispatchPath, req)
}

func (c *Client) Callback(ctx context.Context, req *RetryCallbackRequest) (*Result, error) {
	return c.call(ctx, callbackPath, req)
}

func (c *Client) call(ctx context.Context, path string, payload any) (*Result, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	targets := []*node.RegisterNodeInfo{c.primary}
	if c.failover {
		targets = append(targets, c.candidates...)
	}

	var lastErr error
	for i, target := range targets {
		result, err := c.post(ctx, target, path, body)
		if err == nil {
			return result, nil
		}
		lastErr = err

		// 仅连接失败触发故障转移，超时和远端应用错误直接返回
		if !c.failover || !isConnectionError(err) {
			return nil, err
		}
		if i < len(targets)-1 {
			c.logger.Warn("node unreachable, failing over to next candidate",
				zap.String("addr", target.Addr()),
				zap.Error(err))
		}
	}
	return nil, lastErr
}

func (c *Client) post(ctx context.Context, target *node.RegisterNodeInfo, path string, body []byte) (*Result, error) {
	reqURL := "http://" + target.Addr() + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeoutError(err) {
			return nil, fmt.Errorf("%w: %s", ErrRpcTimeout, target.Addr())
		}
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &RemoteExecutionError{
			Addr:       target.Addr(),
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
		}
	}

	var result Result
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &result, nil
}

func isTimeoutError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr) && urlErr.Timeout()
}

func isConnectionError(err error) bool {
	if isTimeoutError(err) {
		return false
	}
	var remoteErr *RemoteExecutionError
	if errors.As(err, &remoteErr) {
		return false
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
