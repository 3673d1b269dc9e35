package dispatch

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/retrys/server/internal/biz/node"
	"github.com/retrys/server/internal/biz/retrytask"
	"github.com/retrys/server/internal/rpc"
	"github.com/retrys/server/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func executorNode(t *testing.T, srv *httptest.Server) *node.RegisterNodeInfo {
	t.Helper()

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	host, portStr, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	return &node.RegisterNodeInfo{
		NamespaceID: "ns",
		GroupName:   "group",
		HostID:      "host-1",
		HostIP:      host,
		HostPort:    port,
		ExpireAt:    time.Now().Add(time.Minute),
	}
}

type callbackFixture struct {
	taskRepo *fakeTaskRepo
	registry *node.MemoryRegistry
	unit     *CallbackUnit
}

func newCallbackFixture(t *testing.T) *callbackFixture {
	t.Helper()

	taskRepo := newFakeTaskRepo()
	logRepo := newFakeLogRepo()
	sceneRepo := &fakeSceneRepo{config: sceneWithMaxRetry(3)}
	logger := zap.NewNop()

	registry := node.NewMemoryRegistry()
	factory := rpc.NewClientFactory(registry, rpc.NewStrategyManager(), logger)
	callbackHandler := NewCallbackTaskHandler(taskRepo, logger)
	completion := NewCompletionHandler(taskRepo, logRepo, sceneRepo, callbackHandler,
		testNotifier(logger), &fakeTx{}, config.RetryConfig{CallbackMaxRetryCount: callbackMaxRetryForTest}, logger)

	return &callbackFixture{
		taskRepo: taskRepo,
		registry: registry,
		unit:     NewCallbackUnit(taskRepo, callbackHandler, factory, completion, config.RetryConfig{}, logger),
	}
}

func TestCallbackUnitDeliversOriginStatus(t *testing.T) {
	var received rpc.RetryCallbackRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":1}`))
	}))
	defer srv.Close()

	f := newCallbackFixture(t)
	target := executorNode(t, srv)
	f.registry.Heartbeat(target)

	origin := runningTask("task-1", 3)
	origin.RetryStatus = retrytask.RetryStatusMaxRetryCount
	f.taskRepo.put(origin)

	callback := runningTask("CB_task-1", 0)
	callback.TaskType = retrytask.TaskTypeCallback
	f.taskRepo.put(callback)

	f.unit.Run(context.Background(), &CallbackContext{
		Task:  callback,
		Node:  target,
		Scene: sceneWithMaxRetry(3),
	})

	// 回调内容携带原始任务的最终状态
	assert.Equal(t, "CB_task-1", received.UniqueID)
	assert.Equal(t, int(retrytask.RetryStatusMaxRetryCount), received.RetryStatus)
	assert.Equal(t, "group", received.Group)
	assert.Equal(t, "scene", received.Scene)

	// 客户端确认后回调任务置为 SUCCESS
	assert.Equal(t, retrytask.RetryStatusSuccess, f.taskRepo.get("ns", "group", "CB_task-1").RetryStatus)
}

func TestCallbackUnitFailureEntersStateMachine(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":0,"message":"client rejected"}`))
	}))
	defer srv.Close()

	f := newCallbackFixture(t)
	target := executorNode(t, srv)
	f.registry.Heartbeat(target)

	origin := runningTask("task-1", 3)
	origin.RetryStatus = retrytask.RetryStatusMaxRetryCount
	f.taskRepo.put(origin)

	// 已经重试到上限的回调任务，这次失败后进入 MAX_RETRY_COUNT
	callback := runningTask("CB_task-1", callbackMaxRetryForTest)
	callback.TaskType = retrytask.TaskTypeCallback
	f.taskRepo.put(callback)

	f.unit.Run(context.Background(), &CallbackContext{
		Task:  callback,
		Node:  target,
		Scene: sceneWithMaxRetry(3),
	})

	stored := f.taskRepo.get("ns", "group", "CB_task-1")
	assert.Equal(t, retrytask.RetryStatusMaxRetryCount, stored.RetryStatus)
	// 回调任务不再派生新的回调
	assert.Nil(t, f.taskRepo.get("ns", "group", "CB_CB_task-1"))
}

func TestCallbackUnitOriginMissingAborts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("executor should not be called when origin task is missing")
	}))
	defer srv.Close()

	f := newCallbackFixture(t)
	target := executorNode(t, srv)
	f.registry.Heartbeat(target)

	// 只有回调任务，原始任务不存在
	callback := runningTask("CB_task-1", 0)
	callback.TaskType = retrytask.TaskTypeCallback
	f.taskRepo.put(callback)

	f.unit.Run(context.Background(), &CallbackContext{
		Task:  callback,
		Node:  target,
		Scene: sceneWithMaxRetry(3),
	})

	// 中止：回调任务状态不推进
	assert.Equal(t, retrytask.RetryStatusRunning, f.taskRepo.get("ns", "group", "CB_task-1").RetryStatus)
}

func TestCallbackUnitNoNodeSkips(t *testing.T) {
	f := newCallbackFixture(t)

	callback := runningTask("CB_task-1", 0)
	callback.TaskType = retrytask.TaskTypeCallback
	f.taskRepo.put(callback)

	f.unit.Run(context.Background(), &CallbackContext{
		Task:  callback,
		Node:  nil,
		Scene: sceneWithMaxRetry(3),
	})

	assert.Equal(t, retrytask.RetryStatusRunning, f.taskRepo.get("ns", "group", "CB_task-1").RetryStatus)
}
