package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "")
	t.Setenv("PREDICTION_CACHE_TTL", "")

	cfg := Load()
	assert.Equal(t, "5000", cfg.ServerPort)
	assert.Equal(t, "./artifacts", cfg.ArtifactDir)
	assert.Equal(t, time.Duration(0), cfg.PredictionCacheTTL)
	assert.False(t, cfg.PredictionLogEnabled)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,")
	t.Setenv("PREDICTION_LOG_ENABLED", "true")
	t.Setenv("PREDICTION_CACHE_TTL", "90s")
	t.Setenv("REDIS_DB", "not-a-number")

	cfg := Load()
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.PredictionLogEnabled)
	assert.Equal(t, 90*time.Second, cfg.PredictionCacheTTL)
	assert.Equal(t, 0, cfg.RedisDB)
}
