// Package config loads service configuration from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config is the root configuration for the portal service and CLI.
type Config struct {
	Env       string
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Ledger    LedgerConfig
	Auth      AuthConfig
	Kafka     KafkaConfig
	Log       LogConfig
	Telemetry TelemetryConfig
}

type ServerConfig struct {
	Addr              string
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
	// VerifyRatePerSecond throttles POST /v1/verifications per client IP. Zero disables it.
	VerifyRatePerSecond float64
	VerifyBurst         int
	// TrustedProxies lists the CIDRs or IPs whose X-Forwarded-For and X-Real-IP
	// headers are believed. Empty means the socket peer is always the client.
	TrustedProxies []string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
	// SeedFile is a YAML employee file loaded at startup when set.
	SeedFile string
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	RecordTTL    time.Duration
}

// LedgerConfig selects and tunes the attempt ledger.
type LedgerConfig struct {
	// Backend is one of memory, postgres, redis. Unset picks postgres when
	// DATABASE_URL is set, then redis when REDIS_URL is set, else memory.
	Backend      string
	MaxAttempts  int
	StoreTimeout time.Duration
}

type AuthConfig struct {
	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string
	AccessTTL     time.Duration
}

type KafkaConfig struct {
	Brokers     []string
	AuditTopic  string
	Partitions  int32
	Replication int16
}

// Enabled reports whether audit events are shipped to Kafka.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

type LogConfig struct {
	Format string
	Level  string
}

type TelemetryConfig struct {
	ServiceName string
	// OTLPEndpoint is host:port or a URL of an OTLP gRPC collector. Empty keeps spans in-process.
	OTLPEndpoint string
	OTLPInsecure bool
}

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", EnvDevelopment)
	v.SetDefault("SERVER_ADDR", ":8080")
	v.SetDefault("SERVER_READ_HEADER_TIMEOUT", "5s")
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("VERIFY_RATE_PER_SECOND", 5.0)
	v.SetDefault("VERIFY_BURST", 10)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DATABASE_MAX_OPEN_CONNS", 20)
	v.SetDefault("DATABASE_MAX_IDLE_CONNS", 5)
	v.SetDefault("DATABASE_CONN_MAX_LIFETIME", "30m")
	v.SetDefault("DATABASE_AUTO_MIGRATE", false)
	v.SetDefault("EMPLOYEE_SEED_FILE", "")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_POOL_SIZE", 10)
	v.SetDefault("REDIS_MIN_IDLE_CONNS", 2)
	v.SetDefault("REDIS_DIAL_TIMEOUT", "2s")
	v.SetDefault("REDIS_READ_TIMEOUT", "1s")
	v.SetDefault("REDIS_WRITE_TIMEOUT", "1s")
	v.SetDefault("REDIS_RECORD_TTL", "5m")
	v.SetDefault("LEDGER_BACKEND", "")
	v.SetDefault("LEDGER_MAX_ATTEMPTS", 3)
	v.SetDefault("STORE_TIMEOUT", "2s")
	v.SetDefault("JWT_SIGNING_KEY", "")
	v.SetDefault("JWT_ISSUER", "empverify")
	v.SetDefault("JWT_AUDIENCE", "empverify-api")
	v.SetDefault("JWT_ACCESS_TTL", "15m")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_AUDIT_TOPIC", "empverify.audit")
	v.SetDefault("KAFKA_AUDIT_PARTITIONS", 3)
	v.SetDefault("KAFKA_AUDIT_REPLICATION", 1)
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("OTEL_SERVICE_NAME", "empverify")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
}

// Load reads .env (if present), then builds and validates Config from the environment.
// Env vars override .env.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig()
	return load(v)
}

// LoadWith builds Config from an already populated viper instance. Tests use it to
// inject values without touching the process environment.
func LoadWith(v *viper.Viper) (*Config, error) {
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Env: v.GetString("APP_ENV"),
		Server: ServerConfig{
			Addr:                v.GetString("SERVER_ADDR"),
			ReadHeaderTimeout:   v.GetDuration("SERVER_READ_HEADER_TIMEOUT"),
			ShutdownTimeout:     v.GetDuration("SERVER_SHUTDOWN_TIMEOUT"),
			VerifyRatePerSecond: v.GetFloat64("VERIFY_RATE_PER_SECOND"),
			VerifyBurst:         v.GetInt("VERIFY_BURST"),
			TrustedProxies:      splitList(v.GetString("SERVER_TRUSTED_PROXIES")),
		},
		Database: DatabaseConfig{
			URL:             v.GetString("DATABASE_URL"),
			MaxOpenConns:    v.GetInt("DATABASE_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DATABASE_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DATABASE_CONN_MAX_LIFETIME"),
			AutoMigrate:     v.GetBool("DATABASE_AUTO_MIGRATE"),
			SeedFile:        v.GetString("EMPLOYEE_SEED_FILE"),
		},
		Redis: RedisConfig{
			URL:          v.GetString("REDIS_URL"),
			PoolSize:     v.GetInt("REDIS_POOL_SIZE"),
			MinIdleConns: v.GetInt("REDIS_MIN_IDLE_CONNS"),
			DialTimeout:  v.GetDuration("REDIS_DIAL_TIMEOUT"),
			ReadTimeout:  v.GetDuration("REDIS_READ_TIMEOUT"),
			WriteTimeout: v.GetDuration("REDIS_WRITE_TIMEOUT"),
			RecordTTL:    v.GetDuration("REDIS_RECORD_TTL"),
		},
		Ledger: LedgerConfig{
			Backend:      strings.ToLower(strings.TrimSpace(v.GetString("LEDGER_BACKEND"))),
			MaxAttempts:  v.GetInt("LEDGER_MAX_ATTEMPTS"),
			StoreTimeout: v.GetDuration("STORE_TIMEOUT"),
		},
		Auth: AuthConfig{
			JWTSigningKey: v.GetString("JWT_SIGNING_KEY"),
			JWTIssuer:     v.GetString("JWT_ISSUER"),
			JWTAudience:   v.GetString("JWT_AUDIENCE"),
			AccessTTL:     v.GetDuration("JWT_ACCESS_TTL"),
		},
		Kafka: KafkaConfig{
			Brokers:     splitList(v.GetString("KAFKA_BROKERS")),
			AuditTopic:  v.GetString("KAFKA_AUDIT_TOPIC"),
			Partitions:  v.GetInt32("KAFKA_AUDIT_PARTITIONS"),
			Replication: int16(v.GetInt("KAFKA_AUDIT_REPLICATION")),
		},
		Log: LogConfig{
			Format: strings.ToLower(v.GetString("LOG_FORMAT")),
			Level:  strings.ToLower(v.GetString("LOG_LEVEL")),
		},
		Telemetry: TelemetryConfig{
			ServiceName:  v.GetString("OTEL_SERVICE_NAME"),
			OTLPEndpoint: v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
			OTLPInsecure: v.GetBool("OTEL_EXPORTER_OTLP_INSECURE"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints. Development mode gets a throwaway
// signing key; production refuses to start without one.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("config: SERVER_ADDR must be set")
	}
	if c.Ledger.MaxAttempts < 1 {
		return errors.New("config: LEDGER_MAX_ATTEMPTS must be at least 1")
	}
	if c.Ledger.StoreTimeout <= 0 {
		return errors.New("config: STORE_TIMEOUT must be positive")
	}
	for _, proxy := range c.Server.TrustedProxies {
		if !validProxyEntry(proxy) {
			return fmt.Errorf("config: SERVER_TRUSTED_PROXIES entry %q is not an IP or CIDR", proxy)
		}
	}
	if c.Ledger.Backend == "" {
		c.Ledger.Backend = defaultLedgerBackend(c)
	}
	switch c.Ledger.Backend {
	case BackendMemory:
		if c.Env == EnvProduction {
			return errors.New("config: LEDGER_BACKEND=memory is not allowed in production; use postgres or redis")
		}
	case BackendPostgres:
		if c.Database.URL == "" {
			return errors.New("config: DATABASE_URL is required for the postgres ledger")
		}
	case BackendRedis:
		if c.Redis.URL == "" {
			return errors.New("config: REDIS_URL is required for the redis ledger")
		}
	default:
		return fmt.Errorf("config: unknown LEDGER_BACKEND %q", c.Ledger.Backend)
	}
	if c.Auth.JWTSigningKey == "" {
		if c.Env == EnvProduction {
			return errors.New("config: JWT_SIGNING_KEY must be set in production")
		}
		c.Auth.JWTSigningKey = "dev-secret-key-change-in-production"
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("config: LOG_FORMAT must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// defaultLedgerBackend picks the durable store that is configured, preferring
// Postgres. Memory is only chosen when neither is available.
func defaultLedgerBackend(c *Config) string {
	switch {
	case c.Database.URL != "":
		return BackendPostgres
	case c.Redis.URL != "":
		return BackendRedis
	}
	return BackendMemory
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

func validProxyEntry(raw string) bool {
	if strings.Contains(raw, "/") {
		_, err := netip.ParsePrefix(raw)
		return err == nil
	}
	_, err := netip.ParseAddr(raw)
	return err == nil
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
