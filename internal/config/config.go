package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Common
	Env      string
	LogLevel string
	LogFile  string
	// API
	Port          string
	Storage       string
	DatabaseURL   string
	EmbedConsumer bool
	// Feed
	KafkaBrokers         []string
	KafkaTopic           string
	KafkaGroupID         string
	ConsumerCount        int
	StorageFailurePolicy string
	StorageRetryMax      time.Duration
	// Upstream
	Provider         string
	SupabaseURL      string
	SupabaseAPIKey   string
	SupabaseTable    string
	UpstreamTimeout  time.Duration
	UpstreamRatePerS float64
	UpstreamBurst    int
	// History
	HistoryBackend       string
	HistoryMinPriceDelta string
	HistoryMinInterval   time.Duration
	// Redis (history gate)
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoiDef(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func atofDef(s string, def float64) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return f
}

func boolDef(s string, def bool) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return def
	}
	return b
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func ms(key string, def int) time.Duration {
	return time.Duration(atoiDef(getEnv(key, strconv.Itoa(def)), def)) * time.Millisecond
}

// Load reads environment variables and applies defaults.
func Load() Config {
	return Config{
		Env:                  getEnv("ENV", "local"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		LogFile:              getEnv("LOG_FILE", ""),
		Port:                 getEnv("PORT", "8080"),
		Storage:              getEnv("STORAGE", "pg"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		EmbedConsumer:        boolDef(getEnv("EMBED_CONSUMER", "false"), false),
		KafkaBrokers:         splitCSV(getEnv("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:           getEnv("KAFKA_TOPIC", "stocks"),
		KafkaGroupID:         getEnv("KAFKA_GROUP_ID", "stock-group"),
		ConsumerCount:        atoiDef(getEnv("CONSUMER_COUNT", "1"), 1),
		StorageFailurePolicy: getEnv("STORAGE_FAILURE_POLICY", "redeliver"),
		StorageRetryMax:      ms("STORAGE_RETRY_MAX_MS", 30000),
		Provider:             getEnv("PROVIDER", ""),
		SupabaseURL:          getEnv("SUPABASE_URL", ""),
		SupabaseAPIKey:       getEnv("SUPABASE_API_KEY", ""),
		SupabaseTable:        getEnv("SUPABASE_TABLE", "stock_market"),
		UpstreamTimeout:      ms("UPSTREAM_TIMEOUT_MS", 4000),
		UpstreamRatePerS:     atofDef(getEnv("UPSTREAM_RATE_PER_SEC", "5"), 5),
		UpstreamBurst:        atoiDef(getEnv("UPSTREAM_BURST", "10"), 10),
		HistoryBackend:       getEnv("HISTORY_BACKEND", "redis"),
		HistoryMinPriceDelta: getEnv("HISTORY_MIN_PRICE_DELTA", "0.1"),
		HistoryMinInterval:   ms("HISTORY_MIN_INTERVAL_MS", 60000),
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:        getEnv("REDIS_PASSWORD", ""),
		RedisDB:              atoiDef(getEnv("REDIS_DB", "0"), 0),
	}
}
