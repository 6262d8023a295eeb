package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"stockprices-service/internal/application"
	"stockprices-service/internal/config"
	infraconfig "stockprices-service/internal/infrastructure/config"
	httpserver "stockprices-service/internal/infrastructure/http"
	"stockprices-service/internal/infrastructure/logx"
	"stockprices-service/internal/infrastructure/memstore"
	"stockprices-service/internal/infrastructure/pg"
	"stockprices-service/internal/infrastructure/provider"
	redisstore "stockprices-service/internal/infrastructure/redis"
	"stockprices-service/internal/infrastructure/worker"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var ErrMissingDBURL = errors.New("DATABASE_URL is required for STORAGE=pg")

// Storage bundles the record store with the history repo and unit of work
// of the same backend.
type Storage struct {
	Store   application.PriceStore
	History application.PriceHistoryRepo
	UoW     application.UnitOfWork
	Ping    func(context.Context) error
}

// APIApp is what cmd/api runs: the HTTP server and, with EMBED_CONSUMER, a
// consumer pool sharing its store.
type APIApp struct {
	Server   *httpserver.Server
	Consumer application.Worker
}

func ProvideLogger() *zap.Logger { return logx.L() }

func ProvideConfig() config.Config { return config.Load() }

func ProvideStorage(ctx context.Context, log *zap.Logger, cfg config.Config) (Storage, func(), error) {
	switch cfg.Storage {
	case "memory":
		store := memstore.NewPriceStore(infraconfig.DefaultStoreShards)
		return Storage{
			Store:   store,
			History: memstore.NewHistoryRepo(),
			UoW:     application.NoopUoW{},
			Ping:    store.Ping,
		}, func() {}, nil
	case "pg":
		if cfg.DatabaseURL == "" {
			return Storage{}, func() {}, ErrMissingDBURL
		}
		db, err := pg.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return Storage{}, func() {}, err
		}
		if err := pg.RunMigrations(ctx, db); err != nil {
			db.Close()
			return Storage{}, func() {}, err
		}
		repo := pg.NewPriceRepo(db)
		cleanup := func() {
			log.Info("closing pg")
			db.Close()
		}
		return Storage{
			Store:   repo,
			History: repo,
			UoW:     pg.NewUnitOfWork(db),
			Ping:    db.Ping,
		}, cleanup, nil
	default:
		return Storage{}, func() {}, fmt.Errorf("unsupported STORAGE=%q", cfg.Storage)
	}
}

// ProvideRedisClient returns nil unless the history gate lives in Redis.
func ProvideRedisClient(cfg config.Config) (*redis.Client, func(), error) {
	if cfg.HistoryBackend != "redis" {
		return nil, func() {}, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	return client, func() { _ = client.Close() }, nil
}

func ProvideThrottlePolicy(cfg config.Config) (application.ThrottlePolicy, error) {
	delta, err := decimal.NewFromString(cfg.HistoryMinPriceDelta)
	if err != nil {
		return application.ThrottlePolicy{}, fmt.Errorf("HISTORY_MIN_PRICE_DELTA: %w", err)
	}
	if cfg.HistoryMinInterval <= 0 {
		return application.ThrottlePolicy{}, errors.New("HISTORY_MIN_INTERVAL_MS must be positive")
	}
	return application.ThrottlePolicy{MinPriceDelta: delta.Abs(), MinInterval: cfg.HistoryMinInterval}, nil
}

func ProvideHistoryGate(cfg config.Config, client *redis.Client, policy application.ThrottlePolicy) application.HistoryGate {
	switch cfg.HistoryBackend {
	case "redis":
		return redisstore.NewHistoryGate(client, policy)
	case "memory":
		return memstore.NewHistoryGate(policy)
	default:
		return application.NoopHistoryGate{}
	}
}

// ProvideExternalSource picks the proxy source. An unset PROVIDER means
// Supabase when credentials are present and no source otherwise, so the
// proxy degrades to an empty list instead of serving canned rows.
func ProvideExternalSource(cfg config.Config, log *zap.Logger) (application.ExternalPriceSource, error) {
	name := cfg.Provider
	if name == "" && cfg.SupabaseURL != "" && cfg.SupabaseAPIKey != "" {
		name = "supabase"
	}
	switch name {
	case "supabase":
		src, err := provider.NewSupabaseSource(provider.SupabaseConfig{
			BaseURL:    cfg.SupabaseURL,
			APIKey:     cfg.SupabaseAPIKey,
			Table:      cfg.SupabaseTable,
			RatePerSec: cfg.UpstreamRatePerS,
			Burst:      cfg.UpstreamBurst,
			HTTP:       &http.Client{Timeout: cfg.UpstreamTimeout},
		})
		if err != nil {
			return nil, err
		}
		return src, nil
	case "fake":
		log.Warn("upstream.fake_source")
		return provider.NewFake(""), nil
	case "":
		log.Warn("upstream.not_configured")
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported PROVIDER=%q", cfg.Provider)
	}
}

func ProvideStockService(st Storage, src application.ExternalPriceSource, cfg config.Config, log *zap.Logger) *application.StockService {
	return application.NewStockService(st.Store, st.History, src,
		application.WithUpstreamTimeout(cfg.UpstreamTimeout),
		application.WithLogger(log),
	)
}

func ProvideServer(svc *application.StockService, st Storage) *httpserver.Server {
	srv := httpserver.NewServer(svc)
	srv.SetReadyCheck(st.Ping)
	return srv
}

func ProvideIngestor(st Storage, gate application.HistoryGate, log *zap.Logger) *application.Ingestor {
	return application.NewIngestor(st.Store, st.History, gate, st.UoW, application.WithIngestLogger(log))
}

func ProvideConsumerPool(cfg config.Config, ing *application.Ingestor, log *zap.Logger) *worker.ConsumerPool {
	newReader := func() worker.FeedReader {
		return worker.NewKafkaReader(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID)
	}
	p := worker.NewConsumerPool(cfg.ConsumerCount, newReader, ing,
		worker.ParseStoragePolicy(cfg.StorageFailurePolicy),
		worker.WithRetryMax(cfg.StorageRetryMax),
	)
	p.Log = log.With(zap.String("topic", cfg.KafkaTopic), zap.String("group", cfg.KafkaGroupID))
	return p
}

// ProvideEmbeddedConsumer returns nil unless EMBED_CONSUMER is set.
func ProvideEmbeddedConsumer(cfg config.Config, ing *application.Ingestor, log *zap.Logger) application.Worker {
	if !cfg.EmbedConsumer {
		return nil
	}
	return ProvideConsumerPool(cfg, ing, log)
}

func ProvideAPIApp(srv *httpserver.Server, consumer application.Worker) APIApp {
	return APIApp{Server: srv, Consumer: consumer}
}
