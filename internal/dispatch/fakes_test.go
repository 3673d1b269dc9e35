package dispatch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/retrys/server/internal/biz/retrylog"
	"github.com/retrys/server/internal/biz/retrytask"
	"github.com/retrys/server/internal/biz/scene"
	"github.com/retrys/server/internal/cache"
	"github.com/retrys/server/pkg/config"
	"go.uber.org/zap"
)

// fakeTaskRepo 内存任务仓储，按 (ns, group, uniqueID) 索引
type fakeTaskRepo struct {
	mu    sync.Mutex
	tasks map[string]*retrytask.RetryTask

	createErr error
	getErr    error
	updateErr error
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: make(map[string]*retrytask.RetryTask)}
}

func taskKey(namespaceID, groupName, uniqueID string) string {
	return namespaceID + "/" + groupName + "/" + uniqueID
}

func (r *fakeTaskRepo) put(task *retrytask.RetryTask) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *task
	r.tasks[taskKey(task.NamespaceID, task.GroupName, task.UniqueID)] = &copied
}

func (r *fakeTaskRepo) get(namespaceID, groupName, uniqueID string) *retrytask.RetryTask {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tasks[taskKey(namespaceID, groupName, uniqueID)]
}

func (r *fakeTaskRepo) Create(_ context.Context, task *retrytask.RetryTask) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.put(task)
	return nil
}

func (r *fakeTaskRepo) GetByUniqueID(_ context.Context, namespaceID, groupName, uniqueID string) (*retrytask.RetryTask, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	task := r.get(namespaceID, groupName, uniqueID)
	if task == nil {
		return nil, nil
	}
	copied := *task
	return &copied, nil
}

func (r *fakeTaskRepo) GetStatusByUniqueID(ctx context.Context, namespaceID, groupName, uniqueID string) (retrytask.RetryStatus, bool, error) {
	task, err := r.GetByUniqueID(ctx, namespaceID, groupName, uniqueID)
	if err != nil {
		return 0, false, err
	}
	if task == nil {
		return 0, false, nil
	}
	return task.RetryStatus, true, nil
}

func (r *fakeTaskRepo) Update(_ context.Context, task *retrytask.RetryTask) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.put(task)
	return nil
}

func (r *fakeTaskRepo) List(_ context.Context, _ *retrytask.Filter) ([]*retrytask.RetryTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*retrytask.RetryTask, 0, len(r.tasks))
	for _, task := range r.tasks {
		copied := *task
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeTaskRepo) FindDispatchable(_ context.Context, before time.Time, limit int) ([]*retrytask.RetryTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*retrytask.RetryTask, 0)
	for _, task := range r.tasks {
		if task.RetryStatus == retrytask.RetryStatusRunning && !task.NextTriggerAt.After(before) {
			copied := *task
			out = append(out, &copied)
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (r *fakeTaskRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}

// fakeLogRepo 内存日志仓储，追加写
type fakeLogRepo struct {
	mu     sync.Mutex
	logs   []*retrylog.RetryTaskLog
	nextID uint64

	affectedOverride *int64
	queryErr         error
}

func newFakeLogRepo() *fakeLogRepo {
	return &fakeLogRepo{}
}

func (r *fakeLogRepo) Create(_ context.Context, log *retrylog.RetryTaskLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	copied := *log
	copied.ID = r.nextID
	r.logs = append(r.logs, &copied)
	return nil
}

func (r *fakeLogRepo) LatestByIdempotentID(_ context.Context, namespaceID, groupName, idempotentID string) (*retrylog.RetryTaskLog, error) {
	if r.queryErr != nil {
		return nil, r.queryErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.logs) - 1; i >= 0; i-- {
		log := r.logs[i]
		if log.NamespaceID == namespaceID && log.GroupName == groupName && log.IdempotentID == idempotentID {
			copied := *log
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeLogRepo) UpdateStatusByID(_ context.Context, id uint64, status retrytask.RetryStatus) (int64, error) {
	if r.affectedOverride != nil {
		return *r.affectedOverride, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var affected int64
	for _, log := range r.logs {
		if log.ID == id {
			log.RetryStatus = status
			affected++
		}
	}
	return affected, nil
}

func (r *fakeLogRepo) ListByUniqueID(_ context.Context, namespaceID, groupName, uniqueID string) ([]*retrylog.RetryTaskLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*retrylog.RetryTaskLog, 0)
	for _, log := range r.logs {
		if log.NamespaceID == namespaceID && log.GroupName == groupName && log.UniqueID == uniqueID {
			copied := *log
			out = append(out, &copied)
		}
	}
	return out, nil
}

// fakeSceneRepo 固定返回一份场景配置
type fakeSceneRepo struct {
	config *scene.SceneConfig
	err    error
}

func (r *fakeSceneRepo) GetByGroupAndScene(_ context.Context, _, _, _ string) (*scene.SceneConfig, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.config == nil {
		return nil, scene.ErrSceneNotFound
	}
	return r.config, nil
}

func (r *fakeSceneRepo) ListByGroup(_ context.Context, _, _ string) ([]*scene.SceneConfig, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.config == nil {
		return nil, nil
	}
	return []*scene.SceneConfig{r.config}, nil
}

var errTxBoom = errors.New("tx boom")

// fakeTx 直接执行回调；err 非空时模拟事务开启失败，回调不执行
type fakeTx struct {
	err   error
	calls int
}

func (t *fakeTx) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	if t.err != nil {
		return t.err
	}
	return fn(ctx)
}

func testNotifier(logger *zap.Logger) *ExhaustionNotifier {
	limiters := cache.NewNotifyRateLimiter(config.RateLimiterConfig{TTL: time.Minute, MaxEntries: 16}, logger)
	limiters.Start()
	return NewExhaustionNotifier(limiters, config.RateLimiterConfig{PermitsPerSecond: 100}, logger)
}
