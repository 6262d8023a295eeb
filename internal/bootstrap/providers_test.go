package bootstrap

import (
	"context"
	"testing"
	"time"

	"stockprices-service/internal/application"
	"stockprices-service/internal/config"
	"stockprices-service/internal/infrastructure/memstore"
	"stockprices-service/internal/infrastructure/provider"
	redisstore "stockprices-service/internal/infrastructure/redis"
	"stockprices-service/internal/infrastructure/worker"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig() config.Config {
	return config.Config{
		Storage:              "memory",
		KafkaBrokers:         []string{"localhost:9092"},
		KafkaTopic:           "stocks",
		KafkaGroupID:         "stock-group",
		ConsumerCount:        3,
		StorageFailurePolicy: "drop",
		Provider:             "fake",
		UpstreamTimeout:      time.Second,
		HistoryBackend:       "memory",
		HistoryMinPriceDelta: "0.1",
		HistoryMinInterval:   time.Minute,
	}
}

func TestProvideStorage_Memory(t *testing.T) {
	st, cleanup, err := ProvideStorage(context.Background(), zap.NewNop(), testConfig())
	require.NoError(t, err)
	defer cleanup()
	require.IsType(t, &memstore.PriceStore{}, st.Store)
	require.NoError(t, st.Ping(context.Background()))
}

func TestProvideStorage_PGNeedsURL(t *testing.T) {
	cfg := testConfig()
	cfg.Storage = "pg"
	_, _, err := ProvideStorage(context.Background(), zap.NewNop(), cfg)
	require.ErrorIs(t, err, ErrMissingDBURL)
}

func TestProvideStorage_Unknown(t *testing.T) {
	cfg := testConfig()
	cfg.Storage = "mongo"
	_, _, err := ProvideStorage(context.Background(), zap.NewNop(), cfg)
	require.Error(t, err)
}

func TestProvideThrottlePolicy(t *testing.T) {
	cfg := testConfig()
	p, err := ProvideThrottlePolicy(cfg)
	require.NoError(t, err)
	require.Equal(t, "0.1", p.MinPriceDelta.String())

	cfg.HistoryMinPriceDelta = "ten cents"
	_, err = ProvideThrottlePolicy(cfg)
	require.Error(t, err)

	cfg = testConfig()
	cfg.HistoryMinInterval = 0
	_, err = ProvideThrottlePolicy(cfg)
	require.Error(t, err)
}

func TestProvideHistoryGate_Backends(t *testing.T) {
	cfg := testConfig()
	policy, err := ProvideThrottlePolicy(cfg)
	require.NoError(t, err)

	require.IsType(t, &memstore.HistoryGate{}, ProvideHistoryGate(cfg, nil, policy))

	cfg.HistoryBackend = "redis"
	client, cleanup, err := ProvideRedisClient(cfg)
	require.NoError(t, err)
	defer cleanup()
	require.NotNil(t, client)
	require.IsType(t, &redisstore.HistoryGate{}, ProvideHistoryGate(cfg, client, policy))

	cfg.HistoryBackend = "none"
	client, _, err = ProvideRedisClient(cfg)
	require.NoError(t, err)
	require.Nil(t, client)
	require.Equal(t, application.NoopHistoryGate{}, ProvideHistoryGate(cfg, nil, policy))
}

func TestProvideExternalSource(t *testing.T) {
	cfg := testConfig()
	src, err := ProvideExternalSource(cfg, zap.NewNop())
	require.NoError(t, err)
	require.IsType(t, &provider.Fake{}, src)

	cfg.Provider = "supabase"
	_, err = ProvideExternalSource(cfg, zap.NewNop())
	require.Error(t, err)

	cfg.SupabaseURL, cfg.SupabaseAPIKey = "https://xyz.supabase.co", "anon"
	src, err = ProvideExternalSource(cfg, zap.NewNop())
	require.NoError(t, err)
	require.IsType(t, &provider.SupabaseSource{}, src)

	cfg.Provider = "yahoo"
	_, err = ProvideExternalSource(cfg, zap.NewNop())
	require.Error(t, err)
}

func TestProvideExternalSource_UnsetProvider(t *testing.T) {
	cfg := testConfig()
	cfg.Provider = ""
	src, err := ProvideExternalSource(cfg, zap.NewNop())
	require.NoError(t, err)
	require.Nil(t, src)

	svc := application.NewStockService(memstore.NewPriceStore(1), nil, src)
	got := svc.FetchExternalPrices(context.Background())
	require.True(t, got.Degraded)
	require.JSONEq(t, `[]`, string(got.Body))

	cfg.SupabaseURL, cfg.SupabaseAPIKey = "https://xyz.supabase.co", "anon"
	src, err = ProvideExternalSource(cfg, zap.NewNop())
	require.NoError(t, err)
	require.IsType(t, &provider.SupabaseSource{}, src)
}

func TestProvideConsumerPool(t *testing.T) {
	cfg := testConfig()
	st, _, err := ProvideStorage(context.Background(), zap.NewNop(), cfg)
	require.NoError(t, err)
	ing := ProvideIngestor(st, application.NoopHistoryGate{}, zap.NewNop())

	p := ProvideConsumerPool(cfg, ing, zap.NewNop())
	require.Len(t, p.Members, 3)
	for _, m := range p.Members {
		require.Equal(t, worker.PolicyDrop, m.Policy)
		require.NoError(t, m.Reader.Close())
	}

	require.Nil(t, ProvideEmbeddedConsumer(cfg, ing, zap.NewNop()))
}
