package retrylogrepo

import (
	"context"
	"errors"

	"github.com/google/wire"
	domain "github.com/retrys/server/internal/biz/retrylog"
	"github.com/retrys/server/internal/biz/retrytask"
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

func (r *MysqlRepositoryImpl) Create(ctx context.Context, log *domain.RetryTaskLog) error {
	po := new(RetryTaskLogPo).FromDomain(log)
	err := r.Db(ctx).Create(po).Error
	if err != nil {
		return err
	}
	log.ID = po.ID
	log.CreatedAt = po.CreatedAt
	return nil
}

// LatestByIdempotentID 按插入顺序倒序取第一条
func (r *MysqlRepositoryImpl) LatestByIdempotentID(ctx context.Context, namespaceID, groupName, idempotentID string) (*domain.RetryTaskLog, error) {
	var po RetryTaskLogPo
	err := r.Db(ctx).
		Where("namespace_id = ? AND group_name = ? AND idempotent_id = ?", namespaceID, groupName, idempotentID).
		Order("id DESC").
		First(&po).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return po.ToDomain(), nil
}

func (r *MysqlRepositoryImpl) UpdateStatusByID(ctx context.Context, id uint64, status retrytask.RetryStatus) (int64, error) {
	tx := r.Db(ctx).Model(&RetryTaskLogPo{}).Where("id = ?", id).Update("retry_status", status)
	return tx.RowsAffected, tx.Error
}

func (r *MysqlRepositoryImpl) ListByUniqueID(ctx context.Context, namespaceID, groupName, uniqueID string) ([]*domain.RetryTaskLog, error) {
	var pos []RetryTaskLogPo
	err := r.Db(ctx).
		Where("namespace_id = ? AND group_name = ? AND unique_id = ?", namespaceID, groupName, uniqueID).
		Order("id DESC").
		Find(&pos).Error
	if err != nil {
		return nil, err
	}
	return lo.Map(pos, func(po RetryTaskLogPo, _ int) *domain.RetryTaskLog {
		return po.ToDomain()
	}), nil
}
