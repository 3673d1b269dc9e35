package retrytaskrepo

import (
	"context"
	"errors"
	"time"

	"github.com/google/wire"
	domain "github.com/retrys/server/internal/biz/retrytask"
	"github.com/retrys/server/internal/infra/persistence/commonrepo"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

var Provider = wire.NewSet(NewMysqlRepositoryImpl)

type MysqlRepositoryImpl struct {
	commonrepo.DefaultRepo
}

func NewMysqlRepositoryImpl(db commonrepo.DB) domain.Repo {
	return &MysqlRepositoryImpl{DefaultRepo: commonrepo.NewDefaultRepo(db)}
}

func (r *MysqlRepositoryImpl) Create(ctx context.Context, task *domain.RetryTask) error {
	po := new(RetryTaskPo).FromDomain(task)
	err := r.Db(ctx).Create(po).Error
	if err != nil {
		return err
	}
	task.ID = po.ID
	task.CreatedAt = po.CreatedAt
	task.UpdatedAt = po.UpdatedAt
	return nil
}

func (r *MysqlRepositoryImpl) GetByUniqueID(ctx context.Context, namespaceID, groupName, uniqueID string) (*domain.RetryTask, error) {
	var po RetryTaskPo
	err := r.Db(ctx).
		Where("namespace_id = ? AND group_name = ? AND unique_id = ?", namespaceID, groupName, uniqueID).
		First(&po).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return po.ToDomain(), nil
}

func (r *MysqlRepositoryImpl) GetStatusByUniqueID(ctx context.Context, namespaceID, groupName, uniqueID string) (domain.RetryStatus, bool, error) {
	var po RetryTaskPo
	err := r.Db(ctx).
		Select("retry_status").
		Where("namespace_id = ? AND group_name = ? AND unique_id = ?", namespaceID, groupName, uniqueID).
		First(&po).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return po.RetryStatus, true, nil
}

func (r *MysqlRepositoryImpl) Update(ctx context.Context, task *domain.RetryTask) error {
	po := new(RetryTaskPo).FromDomain(task)
	return r.Db(ctx).Save(po).Error
}

func (r *MysqlRepositoryImpl) List(ctx context.Context, filter *domain.Filter) ([]*domain.RetryTask, error) {
	var pos []RetryTaskPo
	query := r.Db(ctx).Model(&RetryTaskPo{})
	if filter.NamespaceID.IsPresent() {
		query = query.Where("namespace_id = ?", filter.NamespaceID.MustGet())
	}
	if filter.GroupName.IsPresent() {
		query = query.Where("group_name = ?", filter.GroupName.MustGet())
	}
	if filter.SceneName.IsPresent() {
		query = query.Where("scene_name = ?", filter.SceneName.MustGet())
	}
	if filter.RetryStatus.IsPresent() {
		query = query.Where("retry_status = ?", filter.RetryStatus.MustGet())
	}
	if filter.TaskType.IsPresent() {
		query = query.Where("task_type = ?", filter.TaskType.MustGet())
	}
	if err := query.Find(&pos).Error; err != nil {
		return nil, err
	}
	return lo.Map(pos, func(po RetryTaskPo, _ int) *domain.RetryTask {
		return po.ToDomain()
	}), nil
}

func (r *MysqlRepositoryImpl) FindDispatchable(ctx context.Context, before time.Time, limit int) ([]*domain.RetryTask, error) {
	var pos []RetryTaskPo
	err := r.Db(ctx).
		Where("retry_status = ? AND next_trigger_at <= ?",
			domain.RetryStatusRunning, before).
		Order("next_trigger_at ASC").
		Limit(limit).
		Find(&pos).Error
	if err != nil {
		return nil, err
	}
	return lo.Map(pos, func(po RetryTaskPo, _ int) *domain.RetryTask {
		return po.ToDomain()
	}), nil
}
