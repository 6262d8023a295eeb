//go:build wireinject

package bootstrap

import (
	"context"

	"stockprices-service/internal/application"
	"stockprices-service/internal/infrastructure/worker"

	"github.com/google/wire"
)

var infraSet = wire.NewSet(
	ProvideLogger,
	ProvideConfig,
	ProvideStorage,
	ProvideRedisClient,
	ProvideThrottlePolicy,
	ProvideHistoryGate,
	ProvideIngestor,
)

// API injector: HTTP server plus the optional embedded consumer.
func InitAPI(ctx context.Context) (APIApp, func(), error) {
	wire.Build(
		infraSet,
		ProvideExternalSource,
		ProvideStockService,
		ProvideServer,
		ProvideEmbeddedConsumer,
		ProvideAPIApp,
	)
	return APIApp{}, nil, nil
}

// Consumer injector: the consumer group pool.
func InitConsumer(ctx context.Context) (application.Worker, func(), error) {
	wire.Build(
		infraSet,
		ProvideConsumerPool,
		wire.Bind(new(application.Worker), new(*worker.ConsumerPool)),
	)
	return nil, nil, nil
}
