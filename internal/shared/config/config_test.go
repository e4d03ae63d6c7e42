package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	originalVars := map[string]string{
		"SERVICE_NAME":              os.Getenv("SERVICE_NAME"),
		"ENV":                       os.Getenv("ENV"),
		"POSTGRES_DSN":              os.Getenv("POSTGRES_DSN"),
		"KAFKA_BROKERS":             os.Getenv("KAFKA_BROKERS"),
		"HTTP_PORT_POOL":            os.Getenv("HTTP_PORT_POOL"),
		"CATALOG_CACHE_TTL_SECONDS": os.Getenv("CATALOG_CACHE_TTL_SECONDS"),
		"DEFAULT_PAGE_SIZE":         os.Getenv("DEFAULT_PAGE_SIZE"),
	}
	defer func() {
		for key, value := range originalVars {
			if value == "" {
				os.Unsetenv(key)
			} else {
				os.Setenv(key, value)
			}
		}
	}()

	t.Run("per-service default ports", func(t *testing.T) {
		os.Unsetenv("HTTP_PORT_POOL")
		os.Setenv("SERVICE_NAME", "pool-service")
		cfg := Load()
		assert.Equal(t, "8083", cfg.HTTPPort)
		assert.Equal(t, "9099", cfg.MetricsPort)

		os.Setenv("SERVICE_NAME", "wallet-service")
		cfg = Load()
		assert.Equal(t, "8082", cfg.HTTPPort)
		assert.Equal(t, "9098", cfg.MetricsPort)

		// worker não expõe porta pública
		os.Setenv("SERVICE_NAME", "pool-settlement-worker")
		cfg = Load()
		assert.Empty(t, cfg.HTTPPort)
		assert.Equal(t, "9097", cfg.MetricsPort)
	})

	t.Run("env vars override defaults", func(t *testing.T) {
		os.Setenv("SERVICE_NAME", "pool-service")
		os.Setenv("POSTGRES_DSN", "postgres://x:y@db:5432/pools")
		os.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
		os.Setenv("HTTP_PORT_POOL", "18083")
		cfg := Load()
		assert.Equal(t, "postgres://x:y@db:5432/pools", cfg.PostgresDSN)
		assert.Equal(t, "k1:9092,k2:9092", cfg.KafkaBrokers)
		assert.Equal(t, "18083", cfg.HTTPPort)
	})

	t.Run("topic defaults come from contracts", func(t *testing.T) {
		cfg := Load()
		assert.Equal(t, "match_results", cfg.TopicMatchResults)
		assert.Equal(t, "pool_joined", cfg.TopicPoolJoined)
		assert.Equal(t, "match_results_dlq", cfg.TopicMatchResultsDLQ)
	})

	t.Run("invalid ints keep defaults", func(t *testing.T) {
		os.Setenv("CATALOG_CACHE_TTL_SECONDS", "not-a-number")
		os.Setenv("DEFAULT_PAGE_SIZE", "-3")
		cfg := Load()
		assert.Equal(t, 30, cfg.CatalogCacheTTLSeconds)
		assert.Equal(t, 12, cfg.DefaultPageSize)
	})
}
