package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/retrys/server/internal/biz/retrylog"
	"github.com/retrys/server/internal/biz/retrytask"
	"github.com/retrys/server/internal/biz/scene"
	"github.com/retrys/server/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const callbackMaxRetryForTest = 288

type completionFixture struct {
	taskRepo  *fakeTaskRepo
	logRepo   *fakeLogRepo
	sceneRepo *fakeSceneRepo
	tx        *fakeTx
	handler   *CompletionHandler
}

func newCompletionFixture(sceneConfig *scene.SceneConfig) *completionFixture {
	taskRepo := newFakeTaskRepo()
	logRepo := newFakeLogRepo()
	sceneRepo := &fakeSceneRepo{config: sceneConfig}
	tx := &fakeTx{}
	logger := zap.NewNop()
	callbackHandler := NewCallbackTaskHandler(taskRepo, logger)
	return &completionFixture{
		taskRepo:  taskRepo,
		logRepo:   logRepo,
		sceneRepo: sceneRepo,
		tx:        tx,
		handler: NewCompletionHandler(taskRepo, logRepo, sceneRepo, callbackHandler,
			testNotifier(logger), tx, config.RetryConfig{CallbackMaxRetryCount: callbackMaxRetryForTest}, logger),
	}
}

func runningTask(uniqueID string, retryCount int) *retrytask.RetryTask {
	return &retrytask.RetryTask{
		NamespaceID:   "ns",
		GroupName:     "group",
		SceneName:     "scene",
		UniqueID:      uniqueID,
		IdempotentID:  "idem-" + uniqueID,
		ExecutorName:  "demoExecutor",
		ArgsStr:       `{"orderId":42}`,
		RetryStatus:   retrytask.RetryStatusRunning,
		RetryCount:    retryCount,
		TaskType:      retrytask.TaskTypeNormal,
		NextTriggerAt: time.Now(),
	}
}

func sceneWithMaxRetry(max int) *scene.SceneConfig {
	return &scene.SceneConfig{
		NamespaceID:     "ns",
		GroupName:       "group",
		SceneName:       "scene",
		MaxRetryCount:   max,
		RouteKey:        scene.RouteRoundRobin,
		ExecutorTimeout: 10 * time.Second,
	}
}

func TestOnSuccess(t *testing.T) {
	f := newCompletionFixture(sceneWithMaxRetry(3))

	task := runningTask("task-1", 1)
	f.taskRepo.put(task)
	require.NoError(t, f.logRepo.Create(context.Background(), &retrylog.RetryTaskLog{
		NamespaceID:  task.NamespaceID,
		GroupName:    task.GroupName,
		UniqueID:     task.UniqueID,
		IdempotentID: task.IdempotentID,
		RetryStatus:  retrytask.RetryStatusRunning,
	}))

	f.handler.OnSuccess(context.Background(), task)

	stored := f.taskRepo.get("ns", "group", "task-1")
	assert.Equal(t, retrytask.RetryStatusSuccess, stored.RetryStatus)

	// 最新一条日志被改写成任务最终状态
	latest, err := f.logRepo.LatestByIdempotentID(context.Background(), "ns", "group", task.IdempotentID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, retrytask.RetryStatusSuccess, latest.RetryStatus)
}

func TestOnFailureNotExhausted(t *testing.T) {
	f := newCompletionFixture(sceneWithMaxRetry(5))

	task := runningTask("task-1", 2)
	f.taskRepo.put(task)

	f.handler.OnFailure(context.Background(), task)

	stored := f.taskRepo.get("ns", "group", "task-1")
	assert.Equal(t, retrytask.RetryStatusRunning, stored.RetryStatus)
	// 未耗尽不产生回调任务
	assert.Nil(t, f.taskRepo.get("ns", "group", "CB_task-1"))
}

func TestOnFailureExhausted(t *testing.T) {
	f := newCompletionFixture(sceneWithMaxRetry(3))

	task := runningTask("task-1", 3)
	f.taskRepo.put(task)

	f.handler.OnFailure(context.Background(), task)

	stored := f.taskRepo.get("ns", "group", "task-1")
	assert.Equal(t, retrytask.RetryStatusMaxRetryCount, stored.RetryStatus)

	// 恰好创建一个回调任务，初始状态 RUNNING、计数归零
	callback := f.taskRepo.get("ns", "group", "CB_task-1")
	require.NotNil(t, callback)
	assert.Equal(t, retrytask.TaskTypeCallback, callback.TaskType)
	assert.Equal(t, retrytask.RetryStatusRunning, callback.RetryStatus)
	assert.Equal(t, 0, callback.RetryCount)
	assert.NotEmpty(t, callback.IdempotentID)
	assert.NotEqual(t, task.IdempotentID, callback.IdempotentID)
}

func TestOnFailureExhaustedTwiceCreatesOneCallback(t *testing.T) {
	f := newCompletionFixture(sceneWithMaxRetry(3))

	task := runningTask("task-1", 3)
	f.taskRepo.put(task)

	f.handler.OnFailure(context.Background(), task)
	firstCallback := f.taskRepo.get("ns", "group", "CB_task-1")
	require.NotNil(t, firstCallback)

	// 重复投递：任务已是终态，不再推进，也不会出现第二个回调任务
	duplicate := runningTask("task-1", 3)
	f.handler.OnFailure(context.Background(), duplicate)

	assert.Equal(t, firstCallback.IdempotentID, f.taskRepo.get("ns", "group", "CB_task-1").IdempotentID)
	assert.Equal(t, 2, f.taskRepo.count())
}

func TestOnFailureReloadsPersistedRetryCount(t *testing.T) {
	f := newCompletionFixture(sceneWithMaxRetry(3))

	// 持久化的计数已经推进到 3，传入的快照还停在 1
	persisted := runningTask("task-1", 3)
	f.taskRepo.put(persisted)
	stale := runningTask("task-1", 1)

	f.handler.OnFailure(context.Background(), stale)

	stored := f.taskRepo.get("ns", "group", "task-1")
	assert.Equal(t, retrytask.RetryStatusMaxRetryCount, stored.RetryStatus)
}

func TestOnFailureTerminalTaskIgnored(t *testing.T) {
	f := newCompletionFixture(sceneWithMaxRetry(3))

	task := runningTask("task-1", 3)
	task.RetryStatus = retrytask.RetryStatusSuccess
	f.taskRepo.put(task)

	f.handler.OnFailure(context.Background(), task)

	assert.Equal(t, 0, f.tx.calls)
	assert.Equal(t, retrytask.RetryStatusSuccess, f.taskRepo.get("ns", "group", "task-1").RetryStatus)
}

func TestOnFailureCallbackTaskUsesFixedMaxRetry(t *testing.T) {
	// 回调任务不读场景配置，场景缺失也能推进
	f := newCompletionFixture(nil)

	callback := runningTask("CB_task-1", callbackMaxRetryForTest)
	callback.TaskType = retrytask.TaskTypeCallback
	f.taskRepo.put(callback)

	f.handler.OnFailure(context.Background(), callback)

	stored := f.taskRepo.get("ns", "group", "CB_task-1")
	assert.Equal(t, retrytask.RetryStatusMaxRetryCount, stored.RetryStatus)
	// 回调任务耗尽不会再派生回调
	assert.Nil(t, f.taskRepo.get("ns", "group", "CB_CB_task-1"))
	assert.Equal(t, 1, f.taskRepo.count())
}

func TestOnFailureCallbackTaskNotExhausted(t *testing.T) {
	f := newCompletionFixture(nil)

	callback := runningTask("CB_task-1", 5)
	callback.TaskType = retrytask.TaskTypeCallback
	f.taskRepo.put(callback)

	f.handler.OnFailure(context.Background(), callback)

	assert.Equal(t, retrytask.RetryStatusRunning, f.taskRepo.get("ns", "group", "CB_task-1").RetryStatus)
}

func TestOnFailureSceneMissingAbortsNormalTask(t *testing.T) {
	f := newCompletionFixture(nil)

	task := runningTask("task-1", 3)
	f.taskRepo.put(task)

	f.handler.OnFailure(context.Background(), task)

	// 无法判定耗尽，任务留在 RUNNING 等下一轮
	assert.Equal(t, 0, f.tx.calls)
	assert.Equal(t, retrytask.RetryStatusRunning, f.taskRepo.get("ns", "group", "task-1").RetryStatus)
}

func TestOnFailureLogMirroredEvenWhenTxFails(t *testing.T) {
	f := newCompletionFixture(sceneWithMaxRetry(3))
	f.tx.err = errTxBoom

	task := runningTask("task-1", 3)
	f.taskRepo.put(task)
	require.NoError(t, f.logRepo.Create(context.Background(), &retrylog.RetryTaskLog{
		NamespaceID:  task.NamespaceID,
		GroupName:    task.GroupName,
		UniqueID:     task.UniqueID,
		IdempotentID: task.IdempotentID,
		RetryStatus:  retrytask.RetryStatusRunning,
	}))

	f.handler.OnFailure(context.Background(), task)

	// 事务失败：任务保持 RUNNING
	assert.Equal(t, retrytask.RetryStatusRunning, f.taskRepo.get("ns", "group", "task-1").RetryStatus)

	// 日志回写仍然执行
	latest, err := f.logRepo.LatestByIdempotentID(context.Background(), "ns", "group", task.IdempotentID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, task.RetryStatus, latest.RetryStatus)
}

func TestMirrorTaskLogNoLogIsNoop(t *testing.T) {
	f := newCompletionFixture(sceneWithMaxRetry(3))

	task := runningTask("task-1", 0)
	f.taskRepo.put(task)

	// 没有任何日志也不报错
	f.handler.OnSuccess(context.Background(), task)
	assert.Equal(t, retrytask.RetryStatusSuccess, f.taskRepo.get("ns", "group", "task-1").RetryStatus)
}
