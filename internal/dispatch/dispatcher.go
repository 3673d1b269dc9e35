package dispatch

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/retrys/server/internal/biz/node"
	"github.com/retrys/server/internal/biz/retrylog"
	"github.com/retrys/server/internal/biz/retrytask"
	"github.com/retrys/server/internal/biz/scene"
	"github.com/retrys/server/internal/rpc"
	"github.com/retrys/server/pkg/config"
	"go.uber.org/zap"
)

// delayLevels 重试退避梯度，按已重试次数取下次触发间隔
var delayLevels = []time.Duration{
	1 * time.Second, 5 * time.Second, 10 * time.Second, 30 * time.Second,
	1 * time.Minute, 2 * time.Minute, 5 * time.Minute, 10 * time.Minute,
	30 * time.Minute, 1 * time.Hour, 2 * time.Hour,
}

func nextTriggerDelay(retryCount int) time.Duration {
	if retryCount < 0 {
		retryCount = 0
	}
	if retryCount >= len(delayLevels) {
		return delayLevels[len(delayLevels)-1]
	}
	return delayLevels[retryCount]
}

// Dispatcher 周期扫描到期的 RUNNING 任务，逐个生成一次性执行单元。
// 终态任务不会被选中，这保证了单任务派发的有序性。
type Dispatcher struct {
	taskRepo     retrytask.Repo
	logRepo      retrylog.Repo
	sceneRepo    scene.Repo
	registry     node.Registry
	strategies   *rpc.StrategyManager
	pool         *UnitPool
	execUnit     *ExecUnit
	callbackUnit *CallbackUnit

	scanInterval time.Duration
	scanLimit    int

	stopCh chan struct{}
	logger *zap.Logger
}

func NewDispatcher(
	taskRepo retrytask.Repo,
	logRepo retrylog.Repo,
	sceneRepo scene.Repo,
	registry node.Registry,
	strategies *rpc.StrategyManager,
	pool *UnitPool,
	execUnit *ExecUnit,
	callbackUnit *CallbackUnit,
	cfg config.DispatchConfig,
	logger *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		taskRepo:     taskRepo,
		logRepo:      logRepo,
		sceneRepo:    sceneRepo,
		registry:     registry,
		strategies:   strategies,
		pool:         pool,
		execUnit:     execUnit,
		callbackUnit: callbackUnit,
		scanInterval: cfg.ScanInterval,
		scanLimit:    cfg.ScanLimit,
		stopCh:       make(chan struct{}),
		logger:       logger,
	}
}

func (d *Dispatcher) Start() {
	go d.loop()
	d.logger.Info("retry dispatcher started",
		zap.Duration("scan_interval", d.scanInterval))
}

func (d *Dispatcher) Stop() {
	close(d.stopCh)
	d.logger.Info("retry dispatcher stopped")
}

func (d *Dispatcher) loop() {
	ticker := time.NewTicker(d.scanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.scanOnce(context.Background())
		case <-d.stopCh:
			return
		}
	}
}

func (d *Dispatcher) scanOnce(ctx context.Context) {
	tasks, err := d.taskRepo.FindDispatchable(ctx, time.Now(), d.scanLimit)
	if err != nil {
		d.logger.Error("failed to scan dispatchable tasks", zap.Error(err))
		return
	}

	for _, task := range tasks {
		d.dispatchOne(ctx, task)
	}
}

func (d *Dispatcher) dispatchOne(ctx context.Context, task *retrytask.RetryTask) {
	sceneConfig, err := d.sceneRepo.GetByGroupAndScene(ctx, task.NamespaceID, task.GroupName, task.SceneName)
	if err != nil {
		d.logger.Error("failed to load scene config, skip task",
			zap.String("unique_id", task.UniqueID),
			zap.String("scene_name", task.SceneName),
			zap.Error(err))
		return
	}

	// 无节点也会走一遍：单元内部记日志后干净退出
	target := d.resolveNode(task, sceneConfig)

	// 每次尝试换新的执行标识，记一条 RUNNING 日志，推进重试计数
	task.IdempotentID = uuid.NewString()
	task.MarkRetried(time.Now().Add(nextTriggerDelay(task.RetryCount)))
	if err := d.taskRepo.Update(ctx, task); err != nil {
		d.logger.Error("failed to mark task retried, skip dispatch",
			zap.String("unique_id", task.UniqueID),
			zap.Error(err))
		return
	}
	if err := d.appendTaskLog(ctx, task); err != nil {
		d.logger.Error("failed to append retry task log",
			zap.String("unique_id", task.UniqueID),
			zap.Error(err))
	}

	rc := &RetryContext{Task: task, Node: target, Scene: sceneConfig}
	if task.IsCallback() {
		cc := &CallbackContext{Task: task, Node: target, Scene: sceneConfig}
		d.pool.Submit(func(ctx context.Context) {
			d.callbackUnit.Run(ctx, cc)
		})
		return
	}
	d.pool.Submit(func(ctx context.Context) {
		d.execUnit.Run(ctx, rc)
	})
}

func (d *Dispatcher) resolveNode(task *retrytask.RetryTask, sceneConfig *scene.SceneConfig) *node.RegisterNodeInfo {
	nodes := d.registry.GetServerNodes(task.NamespaceID, task.GroupName)
	if len(nodes) == 0 {
		return nil
	}
	strategy := d.strategies.Get(sceneConfig.RouteKey)
	selected, err := strategy.Select(nodes, sceneConfig.SceneName)
	if err != nil {
		return nil
	}
	return selected
}

func (d *Dispatcher) appendTaskLog(ctx context.Context, task *retrytask.RetryTask) error {
	return d.logRepo.Create(ctx, &retrylog.RetryTaskLog{
		NamespaceID:  task.NamespaceID,
		GroupName:    task.GroupName,
		SceneName:    task.SceneName,
		UniqueID:     task.UniqueID,
		IdempotentID: task.IdempotentID,
		ExecutorName: task.ExecutorName,
		ArgsStr:      task.ArgsStr,
		RetryStatus:  retrytask.RetryStatusRunning,
		TaskType:     task.TaskType,
	})
}
