//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"FinRatio/pkg/config"
	"FinRatio/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideRedisCache,
		ProvideClickHouseClient,
		ProvideKafkaProducer,

		// Upstream data
		ProvideSnapshotCache,
		ProvideUpstream,
		ProvideFundamentalsProvider,
		ProvideInvalidator,
		ProvideCalculator,

		// Repositories
		ProvideRatioStore,
		ProvideRatioPublisher,

		// Use cases
		ProvideReportHolder,
		ProvideRatioPipeline,
		ProvideScheduler,
		ProvideRefreshQueue,
		ProvideRefresher,

		// Transport
		ProvideHub,
		ProvideHandlers,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return nil, nil, nil
}
