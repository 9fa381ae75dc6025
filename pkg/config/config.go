package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port          string
	Env           string
	PostgresURL   string
	MongoURI      string
	MongoDatabase string
	RedisAddr     string

	// Worker tunables. The batch/page bounds keep any single invocation's
	// memory and transaction footprint constant; accounts with extreme
	// follower counts may warrant different values per deployment.
	FanOutBatchSize   int
	FollowerPageSize  int
	BackfillLimit     int
	ReconcilePageSize int
	ReconcileInterval time.Duration
	QueueWorkers      int
	QueueBuffer       int
	FeedCacheTTL      time.Duration
}

func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PostgresURL:   getEnv("POSTGRES_CONN_STR", ""),
		MongoURI:      getEnv("MONGO_URI", ""),
		MongoDatabase: getEnv("MONGO_DATABASE", "feedline"),
		RedisAddr:     getEnv("REDIS_ADDR", ""),

		FanOutBatchSize:   getEnvInt("FANOUT_BATCH_SIZE", 1000),
		FollowerPageSize:  getEnvInt("FOLLOWER_PAGE_SIZE", 1000),
		BackfillLimit:     getEnvInt("BACKFILL_LIMIT", 50),
		ReconcilePageSize: getEnvInt("RECONCILE_PAGE_SIZE", 500),
		ReconcileInterval: getEnvDuration("RECONCILE_INTERVAL", time.Hour),
		QueueWorkers:      getEnvInt("QUEUE_WORKERS", 4),
		QueueBuffer:       getEnvInt("QUEUE_BUFFER", 1024),
		FeedCacheTTL:      getEnvDuration("FEED_CACHE_TTL", 5*time.Minute),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
