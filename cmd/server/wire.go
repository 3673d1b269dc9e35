//go:build wireinject
// +build wireinject

package main

//go:generate go run -mod=mod github.com/google/wire/cmd/wire

import (
	"github.com/google/wire"
	"github.com/retrys/server/internal/api"
	"github.com/retrys/server/internal/biz/node"
	"github.com/retrys/server/internal/cache"
	"github.com/retrys/server/internal/dispatch"
	"github.com/retrys/server/internal/infra/persistence/retrylogrepo"
	"github.com/retrys/server/internal/infra/persistence/retrytaskrepo"
	"github.com/retrys/server/internal/infra/persistence/scenerepo"
	"github.com/retrys/server/internal/infra/persistence/summaryrepo"
	"github.com/retrys/server/internal/orm"
	"github.com/retrys/server/internal/rpc"
	"github.com/retrys/server/internal/summary"
	"github.com/retrys/server/pkg/config"
	"go.uber.org/zap"
)

func InitializeApp(logger *zap.Logger, cfg config.Config, storage *orm.Storage) (*App, error) {
	wire.Build(
		NewApp,

		ProvideDispatchConfig,
		ProvideRetryConfig,
		ProvideSummaryConfig,
		ProvideRateLimiterConfig,

		ProvideDB,
		ProvideTransaction,
		ProvideLocker,

		node.NewMemoryRegistry,
		wire.Bind(new(node.Registry), new(*node.MemoryRegistry)),

		// http api providers
		api.Provider,

		// 派发与回调
		dispatch.Provider,
		rpc.Provider,
		cache.Provider,
		summary.Provider,

		// infra providers
		retrytaskrepo.Provider,
		retrylogrepo.Provider,
		scenerepo.Provider,
		summaryrepo.Provider,
	)
	return nil, nil
}
