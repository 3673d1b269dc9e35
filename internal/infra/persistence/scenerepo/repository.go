package scenerepo

import (
	"context"
	"errors"

	"github.com/google/wire"
	domain "github.com/retrys/server/internal/biz/scene"
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

func (r *MysqlRepositoryImpl) GetByGroupAndScene(ctx context.Context, namespaceID, groupName, sceneName string) (*domain.SceneConfig, error) {
	var po SceneConfigPo
	err := r.Db(ctx).
		Where("namespace_id = ? AND group_name = ? AND scene_name = ?", namespaceID, groupName, sceneName).
		First(&po).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSceneNotFound
		}
		return nil, err
	}
	return po.ToDomain(), nil
}

func (r *MysqlRepositoryImpl) ListByGroup(ctx context.Context, namespaceID, groupName string) ([]*domain.SceneConfig, error) {
	var pos []SceneConfigPo
	err := r.Db(ctx).
		Where("namespace_id = ? AND group_name = ?", namespaceID, groupName).
		Find(&pos).Error
	if err != nil {
		return nil, err
	}
	return lo.Map(pos, func(po SceneConfigPo, _ int) *domain.SceneConfig {
		return po.ToDomain()
	}), nil
}
