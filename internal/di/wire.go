//go:build wireinject
// +build wireinject

package di

import (
	"AprSight/pkg/config"
	"AprSight/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideCache,
		ProvideQueues,

		// Stores
		ProvideHistoryStore,
		ProvideFeatureStore,
		ProvideSurvivalStore,
		ProvideTradeStore,

		// Event fanout and live push
		ProvideLiveHub,
		ProvideEventPublisher,

		// Use cases
		ProvideSimulator,
		ProvidePipeline,
		ProvideSurvivalJob,
		ProvideObservationsHandler,
		ProvideQueryUseCase,

		// HTTP surface
		ProvideHTTPHandler,

		// Application
		ProvideApp,
	)
	return &server.App{}, nil
}
