package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWith_Defaults(t *testing.T) {
	cfg, err := LoadWith(viper.New())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 3, cfg.Ledger.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.Ledger.StoreTimeout)
	assert.Equal(t, BackendMemory, cfg.Ledger.Backend)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.NotEmpty(t, cfg.Auth.JWTSigningKey, "development gets a fallback signing key")
	assert.False(t, cfg.Kafka.Enabled())
	assert.Empty(t, cfg.Server.TrustedProxies, "proxy headers are ignored unless proxies are configured")
}

func TestLoadWith_Overrides(t *testing.T) {
	v := viper.New()
	v.Set("LEDGER_BACKEND", "REDIS")
	v.Set("REDIS_URL", "redis://localhost:6379/0")
	v.Set("LEDGER_MAX_ATTEMPTS", 5)
	v.Set("STORE_TIMEOUT", "750ms")
	v.Set("KAFKA_BROKERS", "a:9092, b:9092,")
	v.Set("LOG_FORMAT", "JSON")
	v.Set("SERVER_TRUSTED_PROXIES", "10.0.0.0/8, 192.0.2.10")

	cfg, err := LoadWith(v)
	require.NoError(t, err)

	assert.Equal(t, BackendRedis, cfg.Ledger.Backend)
	assert.Equal(t, 5, cfg.Ledger.MaxAttempts)
	assert.Equal(t, 750*time.Millisecond, cfg.Ledger.StoreTimeout)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Kafka.Enabled())
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, []string{"10.0.0.0/8", "192.0.2.10"}, cfg.Server.TrustedProxies)
}

func TestLoadWith_Validation(t *testing.T) {
	tests := []struct {
		name string
		set  map[string]any
		msg  string
	}{
		{"max attempts", map[string]any{"LEDGER_MAX_ATTEMPTS": 0}, "LEDGER_MAX_ATTEMPTS"},
		{"postgres without url", map[string]any{"LEDGER_BACKEND": "postgres"}, "DATABASE_URL"},
		{"redis without url", map[string]any{"LEDGER_BACKEND": "redis"}, "REDIS_URL"},
		{"unknown backend", map[string]any{"LEDGER_BACKEND": "etcd"}, "unknown LEDGER_BACKEND"},
		{"production without key", map[string]any{"APP_ENV": "production", "DATABASE_URL": "postgres://db/portal"}, "JWT_SIGNING_KEY"},
		{"production with memory ledger", map[string]any{"APP_ENV": "production", "LEDGER_BACKEND": "memory", "DATABASE_URL": "postgres://db/portal", "JWT_SIGNING_KEY": "k"}, "not allowed in production"},
		{"production without durable store", map[string]any{"APP_ENV": "production", "JWT_SIGNING_KEY": "k"}, "not allowed in production"},
		{"bad trusted proxy", map[string]any{"SERVER_TRUSTED_PROXIES": "10.0.0.0/8, lb.internal"}, "SERVER_TRUSTED_PROXIES"},
		{"bad log format", map[string]any{"LOG_FORMAT": "xml"}, "LOG_FORMAT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			for k, val := range tt.set {
				v.Set(k, val)
			}
			_, err := LoadWith(v)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestLoadWith_LedgerBackendFollowsConfiguredStores(t *testing.T) {
	tests := []struct {
		name string
		set  map[string]any
		want string
	}{
		{"nothing configured", nil, BackendMemory},
		{"database only", map[string]any{"DATABASE_URL": "postgres://db/portal"}, BackendPostgres},
		{"redis only", map[string]any{"REDIS_URL": "redis://cache:6379/0"}, BackendRedis},
		{"both prefers postgres", map[string]any{"DATABASE_URL": "postgres://db/portal", "REDIS_URL": "redis://cache:6379/0"}, BackendPostgres},
		{"explicit choice wins", map[string]any{"DATABASE_URL": "postgres://db/portal", "REDIS_URL": "redis://cache:6379/0", "LEDGER_BACKEND": "redis"}, BackendRedis},
		{
			"production with database",
			map[string]any{"APP_ENV": "production", "DATABASE_URL": "postgres://db/portal", "JWT_SIGNING_KEY": "k"},
			BackendPostgres,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			for k, val := range tt.set {
				v.Set(k, val)
			}
			cfg, err := LoadWith(v)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Ledger.Backend)
		})
	}
}
