package summary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/wire"
	domain "github.com/retrys/server/internal/biz/summary"
	"github.com/retrys/server/internal/lock"
	"github.com/retrys/server/pkg/config"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var Provider = wire.NewSet(NewJobSummarySchedule)

const (
	lockName    = "workflowJobSummarySchedule"
	lockAtMost  = "PT1M"
	lockAtLeast = "PT20S"
)

// JobSummarySchedule 按日聚合任务批次结果，写入统计表。
// 每分钟调度一次，持分布式锁运行，多实例间互斥。
type JobSummarySchedule struct {
	batchRepo   domain.BatchRepo
	summaryRepo domain.Repo
	locker      lock.Locker
	// 回溯天数，每轮从今天(第0天)往前重算 summaryDay 个自然日窗口
	summaryDay int
	logger     *zap.Logger

	cron    *cron.Cron
	entryID cron.EntryID
	now     func() time.Time
}

func NewJobSummarySchedule(
	batchRepo domain.BatchRepo,
	summaryRepo domain.Repo,
	locker lock.Locker,
	cfg config.SummaryConfig,
	logger *zap.Logger,
) *JobSummarySchedule {
	return &JobSummarySchedule{
		batchRepo:   batchRepo,
		summaryRepo: summaryRepo,
		locker:      locker,
		summaryDay:  cfg.SummaryDay,
		logger:      logger,
		cron:        cron.New(),
		now:         time.Now,
	}
}

func (s *JobSummarySchedule) Start() error {
	entryID, err := s.cron.AddFunc("@every 1m", s.execute)
	if err != nil {
		return fmt.Errorf("failed to schedule job summary: %w", err)
	}
	s.entryID = entryID
	s.cron.Start()
	s.logger.Info("job summary schedule started",
		zap.Int("summary_day", s.summaryDay))
	return nil
}

func (s *JobSummarySchedule) Close() {
	s.cron.Remove(s.entryID)
	s.cron.Stop()
	s.logger.Info("job summary schedule stopped")
}

func (s *JobSummarySchedule) execute() {
	ctx := context.Background()

	atMost, _ := lock.ParseDuration(lockAtMost)
	atLeast, _ := lock.ParseDuration(lockAtLeast)

	err := s.locker.WithLock(ctx, lockName, atMost, atLeast, s.doExecute)
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return
		}
		// 一次失败只中止本轮，窗口每轮重算，下一轮会重试同一天
		s.logger.Error("job summary schedule run failed", zap.Error(err))
	}
}

func (s *JobSummarySchedule) doExecute(ctx context.Context) error {
	for i := 0; i < s.summaryDay; i++ {
		day := s.now().AddDate(0, 0, -i)
		if err := s.summarizeDay(ctx, day); err != nil {
			return fmt.Errorf("failed to summarize day %s: %w", day.Format("2006-01-02"), err)
		}
	}
	return nil
}

// summarizeDay 统计一个自然日（00:00:00 - 23:59:59.999...）的批次数据
func (s *JobSummarySchedule) summarizeDay(ctx context.Context, day time.Time) error {
	dayFrom := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayTo := dayFrom.AddDate(0, 0, 1).Add(-time.Nanosecond)

	rows, err := s.batchRepo.SummarizeWorkflowBatches(ctx, dayFrom, dayTo)
	if err != nil {
		return err
	}
	// 当天没有批次是正常情况
	if len(rows) == 0 {
		return nil
	}

	candidates, err := buildSummaries(dayFrom, rows)
	if err != nil {
		return err
	}

	businessIDs := make([]uint64, 0, len(candidates))
	for _, c := range candidates {
		businessIDs = append(businessIDs, c.BusinessID)
	}

	existing, err := s.summaryRepo.FindByTriggerAt(ctx, dayFrom, domain.SystemTaskTypeWorkflow, businessIDs)
	if err != nil {
		return err
	}

	type summaryKey struct {
		businessID uint64
		triggerAt  time.Time
	}
	existingMap := make(map[summaryKey]*domain.JobSummary, len(existing))
	for _, e := range existing {
		existingMap[summaryKey{businessID: e.BusinessID, triggerAt: e.TriggerAt}] = e
	}

	var waitInserts, waitUpdates []*domain.JobSummary
	for _, c := range candidates {
		if _, ok := existingMap[summaryKey{businessID: c.BusinessID, triggerAt: c.TriggerAt}]; ok {
			waitUpdates = append(waitUpdates, c)
		} else {
			waitInserts = append(waitInserts, c)
		}
	}

	var updateTotal, insertTotal int64
	if len(waitUpdates) > 0 {
		if updateTotal, err = s.summaryRepo.BatchUpdate(ctx, waitUpdates); err != nil {
			return err
		}
	}
	if len(waitInserts) > 0 {
		if insertTotal, err = s.summaryRepo.BatchInsert(ctx, waitInserts); err != nil {
			return err
		}
	}

	s.logger.Debug("job summary day done",
		zap.Time("day_from", dayFrom),
		zap.Time("day_to", dayTo),
		zap.Int64("updated", updateTotal),
		zap.Int64("inserted", insertTotal))
	return nil
}

// buildSummaries 按业务ID二次分组，汇总计数并构建原因直方图
func buildSummaries(triggerAt time.Time, rows []*domain.BatchSummaryRow) ([]*domain.JobSummary, error) {
	byJob := make(map[uint64][]*domain.BatchSummaryRow)
	for _, row := range rows {
		byJob[row.JobID] = append(byJob[row.JobID], row)
	}

	jobIDs := make([]uint64, 0, len(byJob))
	for jobID := range byJob {
		jobIDs = append(jobIDs, jobID)
	}
	sort.Slice(jobIDs, func(i, j int) bool { return jobIDs[i] < jobIDs[j] })

	summaries := make([]*domain.JobSummary, 0, len(byJob))
	for _, jobID := range jobIDs {
		group := byJob[jobID]

		jobSummary := &domain.JobSummary{
			BusinessID:     jobID,
			TriggerAt:      triggerAt,
			NamespaceID:    group[0].NamespaceID,
			GroupName:      group[0].GroupName,
			SystemTaskType: domain.SystemTaskTypeWorkflow,
		}
		for _, row := range group {
			jobSummary.SuccessNum += row.SuccessNum
			jobSummary.FailNum += row.FailNum
			jobSummary.StopNum += row.StopNum
			jobSummary.CancelNum += row.CancelNum
		}

		var err error
		if jobSummary.FailReason, err = reasonsJSON(domain.BatchStatusFail, group); err != nil {
			return nil, err
		}
		if jobSummary.StopReason, err = reasonsJSON(domain.BatchStatusStop, group); err != nil {
			return nil, err
		}
		if jobSummary.CancelReason, err = reasonsJSON(domain.BatchStatusCancel, group); err != nil {
			return nil, err
		}
		summaries = append(summaries, jobSummary)
	}
	return summaries, nil
}

// reasonsJSON 过滤出指定状态的分组行，编码为 (原因, 总数) 列表
func reasonsJSON(status domain.BatchStatus, rows []*domain.BatchSummaryRow) ([]byte, error) {
	reasons := make([]domain.BatchReason, 0)
	for _, row := range rows {
		if row.TaskBatchStatus != status {
			continue
		}
		reasons = append(reasons, domain.BatchReason{
			Reason: row.OperationReason,
			Total:  row.OperationReasonTotal,
		})
	}
	return json.Marshal(reasons)
}
