package dispatch

import (
	"github.com/retrys/server/internal/biz/node"
	"github.com/retrys/server/internal/biz/retrytask"
	"github.com/retrys/server/internal/biz/scene"
)

// RetryContext 一次重试派发的全部输入，提交给执行单元后不再变更
type RetryContext struct {
	Task  *retrytask.RetryTask
	Node  *node.RegisterNodeInfo
	Scene *scene.SceneConfig
}

// CallbackContext 一次回调派发的输入，Task 是 CALLBACK 类型任务
type CallbackContext struct {
	Task  *retrytask.RetryTask
	Node  *node.RegisterNodeInfo
	Scene *scene.SceneConfig
}
