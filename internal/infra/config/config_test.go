package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"APP_ENV", "HTTP_ADDR", "STORAGE_DRIVER", "MONGO_URI", "KAFKA_BROKERS", "RETRY_BACKOFF",
		"OUTBOX_POLL_INTERVAL", "IDEMP_TTL", "PROFILE_CACHE_TTL", "JWT_SECRET", "COMPLETION_SCHEDULE"} {
		t.Setenv(k, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "dev")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, StorageMemory, cfg.StorageDriver)
	assert.Equal(t, "@every 5m", cfg.CompletionSchedule)
	assert.Equal(t, []time.Duration{time.Second, 5 * time.Second, 30 * time.Second}, cfg.RetryBackoff)
	assert.Equal(t, 5*time.Minute, cfg.ProfileCacheTTL)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "prod")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORAGE_DRIVER", "MONGO")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("RETRY_BACKOFF", "2s")
	t.Setenv("OUTBOX_POLL_INTERVAL", "1s")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, StorageMongo, cfg.StorageDriver)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, []time.Duration{2 * time.Second}, cfg.RetryBackoff)
	assert.Equal(t, time.Second, cfg.OutboxPollInterval)
	assert.False(t, cfg.IsDev())
}

func TestFromEnv_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "mongo without uri", env: map[string]string{"APP_ENV": "dev", "STORAGE_DRIVER": "mongo"}},
		{name: "unknown driver", env: map[string]string{"APP_ENV": "dev", "STORAGE_DRIVER": "sqlite"}},
		{name: "bad duration", env: map[string]string{"APP_ENV": "dev", "IDEMP_TTL": "soon"}},
		{name: "bad backoff", env: map[string]string{"APP_ENV": "dev", "RETRY_BACKOFF": "1s,x"}},
		{name: "no secret in prod", env: map[string]string{"APP_ENV": "prod"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}
