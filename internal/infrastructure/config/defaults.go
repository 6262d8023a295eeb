package config

import "time"

const (
	DefaultShutdownTimeout = 10 * time.Second
	DefaultPGMaxConns      = 5
	DefaultPGMinConns      = 1
	DefaultHistoryLimit    = 100
	MaxHistoryLimit        = 1000
	DefaultUpstreamTimeout = 4 * time.Second
	MaxUpstreamBodyBytes   = 8 << 20
	DefaultKafkaMinBytes   = 1
	DefaultKafkaMaxBytes   = 10e6
	DefaultKafkaMaxWait    = 500 * time.Millisecond
	DefaultStoreShards     = 32
	DefaultStorageRetryMax = 30 * time.Second
	DefaultRejoinPause     = 5 * time.Second
)
