package dispatch

import (
	"context"
	"sync"

	"github.com/retrys/server/pkg/config"
	"go.uber.org/zap"
)

// UnitPool 有界的一次性单元执行池。
// 每个提交的单元只处理一条消息，跑完即弃，单元之间不共享可变状态。
type UnitPool struct {
	maxWorkers int
	unitCh     chan func(ctx context.Context)
	stopCh     chan struct{}
	wg         sync.WaitGroup
	logger     *zap.Logger
}

func NewUnitPool(cfg config.DispatchConfig, logger *zap.Logger) *UnitPool {
	return &UnitPool{
		maxWorkers: cfg.MaxWorkers,
		unitCh:     make(chan func(ctx context.Context), cfg.MaxWorkers*2),
		stopCh:     make(chan struct{}),
		logger:     logger,
	}
}

func (p *UnitPool) Start() {
	for i := 0; i < p.maxWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	p.logger.Info("dispatch unit pool started",
		zap.Int("workers", p.maxWorkers))
}

func (p *UnitPool) Stop() {
	close(p.stopCh)
	p.wg.Wait()
	p.logger.Info("dispatch unit pool stopped")
}

// Submit 队列满时丢弃并记日志，任务等下一轮扫描重新进入
func (p *UnitPool) Submit(unit func(ctx context.Context)) bool {
	select {
	case p.unitCh <- unit:
		return true
	default:
		p.logger.Warn("dispatch unit queue is full, dropping unit")
		return false
	}
}

func (p *UnitPool) worker(id int) {
	defer p.wg.Done()

	p.logger.Debug("dispatch worker started", zap.Int("worker_id", id))
	for {
		select {
		case unit := <-p.unitCh:
			p.runUnit(unit)
		case <-p.stopCh:
			p.logger.Debug("dispatch worker stopped", zap.Int("worker_id", id))
			return
		}
	}
}

// runUnit 单元是故障终点：panic 也不能影响共享的派发设施
func (p *UnitPool) runUnit(unit func(ctx context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("dispatch unit panicked",
				zap.Any("panic", r))
		}
	}()
	unit(context.Background())
}
