package scene

import (
	"context"
	"errors"
)

var ErrSceneNotFound = errors.New("scene config not found")

type Repo interface {
	// GetByGroupAndScene 场景缺失返回 ErrSceneNotFound
	GetByGroupAndScene(ctx context.Context, namespaceID, groupName, sceneName string) (*SceneConfig, error)
	ListByGroup(ctx context.Context, namespaceID, groupName string) ([]*SceneConfig, error)
}
