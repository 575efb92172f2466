package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"AGORA_ADDR":               ":9090",
		"DATABASE_URL":             "postgres://localhost/agora",
		"KAFKA_BROKERS":            "a:9092, b:9092,",
		"AGORA_REDIS_LOCK_TTL":     "10s",
		"AGORA_CONFLICT_RETRIES":   "5",
		"AGORA_SEED_DEMO_DATA":     "true",
		"AGORA_TX_TIMEOUT":         "not-a-duration",
		"AGORA_RATE_LIMIT_VOTES":   "10",
		"AGORA_TRACE_SAMPLE_RATIO": "0.25",
	}
	cfg := Default()
	cfg.ApplyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "postgres://localhost/agora", cfg.Postgres.DSN)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 10*time.Second, cfg.Redis.LockTTL)
	assert.Equal(t, 5, cfg.Content.ConflictRetries)
	assert.True(t, cfg.Server.SeedDemoData)
	assert.Equal(t, 5*time.Second, cfg.Content.TxTimeout, "malformed values keep the default")
	assert.Equal(t, 10, cfg.RateLimit.Votes)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.InDelta(t, 0.25, cfg.Server.TraceSampleRatio, 1e-9)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agora.yaml")
	data := []byte(`
server:
  addr: ":7000"
redis:
  url: redis://localhost:6379/0
  lock_ttl: 3s
kafka:
  brokers: [localhost:9092]
rate_limit:
  enabled: false
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg := Default()
	require.NoError(t, LoadFile(path, &cfg))
	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
	assert.Equal(t, 3*time.Second, cfg.Redis.LockTTL)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 60, cfg.RateLimit.Writes)
	assert.Equal(t, "info", cfg.Server.LogLevel, "unset keys keep defaults")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Server.JWTSigningKey = "short"
	cfg.Content.TxTimeout = 0
	cfg.RateLimit.Window = 0
	cfg.Server.TraceSampleRatio = 1.5
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt_signing_key")
	assert.Contains(t, err.Error(), "tx_timeout")
	assert.Contains(t, err.Error(), "rate_limit.window")
	assert.Contains(t, err.Error(), "trace_sample_ratio")
}

func TestKafkaTopic(t *testing.T) {
	assert.Equal(t, "agora.audit.governance", Default().Kafka.Topic("governance"))
}
