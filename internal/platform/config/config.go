package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete server configuration. Precedence, lowest first:
// Default, YAML file, environment, command-line flags (applied in cmd/server).
type Config struct {
	Server    Server          `yaml:"server"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Content   ContentConfig   `yaml:"content"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string `yaml:"addr"`
	JWTSigningKey string `yaml:"jwt_signing_key"`
	JWTIssuer     string `yaml:"jwt_issuer"`
	LogLevel      string `yaml:"log_level"`
	// SeedDemoData creates a demo admin, member and community on an empty
	// in-memory backend.
	SeedDemoData bool `yaml:"seed_demo_data"`
	// TraceSampleRatio installs a tracer provider sampling this share of
	// root spans. Zero leaves tracing off.
	TraceSampleRatio float64 `yaml:"trace_sample_ratio"`
}

// PostgresConfig selects the Postgres backend when DSN is set; otherwise the
// in-memory stores are used.
type PostgresConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	AutoMigrate     bool          `yaml:"auto_migrate"`
}

// RedisConfig enables the distributed per-target lock when URL is set.
type RedisConfig struct {
	URL          string        `yaml:"url"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	LockTTL      time.Duration `yaml:"lock_ttl"`
	LockWait     time.Duration `yaml:"lock_wait"`
}

// KafkaConfig enables the audit outbox relay when Brokers is non-empty.
type KafkaConfig struct {
	Brokers       []string      `yaml:"brokers"`
	ClientID      string        `yaml:"client_id"`
	TopicPrefix   string        `yaml:"topic_prefix"`
	Linger        time.Duration `yaml:"linger"`
	RelayInterval time.Duration `yaml:"relay_interval"`
	RelayBatch    int           `yaml:"relay_batch"`
}

// ContentConfig tunes the mutation services.
type ContentConfig struct {
	// ConflictRetries is how many times a mutation is re-run after an
	// optimistic-lock or unique-constraint conflict.
	ConflictRetries int           `yaml:"conflict_retries"`
	TxTimeout       time.Duration `yaml:"tx_timeout"`
}

// RateLimitConfig caps mutations per member in a sliding Window. Windows
// live in Redis when it is configured and in process memory otherwise.
type RateLimitConfig struct {
	Enabled bool          `yaml:"enabled"`
	Writes  int           `yaml:"writes"`
	Votes   int           `yaml:"votes"`
	Window  time.Duration `yaml:"window"`
}

// Default returns a configuration suitable for local development.
func Default() Config {
	return Config{
		Server: Server{
			Addr:          ":8080",
			JWTSigningKey: "dev-secret-key-change-in-production",
			JWTIssuer:     "agora",
			LogLevel:      "info",
		},
		Postgres: PostgresConfig{
			MaxOpenConns:    20,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			LockTTL:      5 * time.Second,
			LockWait:     2 * time.Second,
		},
		Kafka: KafkaConfig{
			ClientID:      "agora",
			TopicPrefix:   "agora.audit",
			Linger:        5 * time.Millisecond,
			RelayInterval: time.Second,
			RelayBatch:    100,
		},
		Content: ContentConfig{
			ConflictRetries: 3,
			TxTimeout:       5 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Enabled: true,
			Writes:  60,
			Votes:   300,
			Window:  time.Minute,
		},
	}
}

// FromEnv builds a Config from defaults and environment variables so main stays lean.
func FromEnv() Config {
	cfg := Default()
	cfg.ApplyEnv(os.LookupEnv)
	return cfg
}

// LoadFile overlays a YAML file onto cfg. Keys missing from the file keep
// their current values.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays AGORA_* variables. lookup is os.LookupEnv outside tests.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok {
			if d, err := time.ParseDuration(v); err == nil {
				*dst = d
			}
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(key); ok {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}

	str("AGORA_ADDR", &c.Server.Addr)
	str("JWT_SIGNING_KEY", &c.Server.JWTSigningKey)
	str("AGORA_JWT_ISSUER", &c.Server.JWTIssuer)
	str("AGORA_LOG_LEVEL", &c.Server.LogLevel)
	boolean("AGORA_SEED_DEMO_DATA", &c.Server.SeedDemoData)
	if v, ok := lookup("AGORA_TRACE_SAMPLE_RATIO"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Server.TraceSampleRatio = f
		}
	}

	str("DATABASE_URL", &c.Postgres.DSN)
	num("AGORA_DB_MAX_OPEN_CONNS", &c.Postgres.MaxOpenConns)
	num("AGORA_DB_MAX_IDLE_CONNS", &c.Postgres.MaxIdleConns)
	boolean("AGORA_DB_AUTO_MIGRATE", &c.Postgres.AutoMigrate)

	str("REDIS_URL", &c.Redis.URL)
	num("AGORA_REDIS_POOL_SIZE", &c.Redis.PoolSize)
	dur("AGORA_REDIS_LOCK_TTL", &c.Redis.LockTTL)
	dur("AGORA_REDIS_LOCK_WAIT", &c.Redis.LockWait)

	if v, ok := lookup("KAFKA_BROKERS"); ok && v != "" {
		c.Kafka.Brokers = splitList(v)
	}
	str("AGORA_KAFKA_TOPIC_PREFIX", &c.Kafka.TopicPrefix)
	dur("AGORA_KAFKA_RELAY_INTERVAL", &c.Kafka.RelayInterval)

	num("AGORA_CONFLICT_RETRIES", &c.Content.ConflictRetries)
	dur("AGORA_TX_TIMEOUT", &c.Content.TxTimeout)

	boolean("AGORA_RATE_LIMIT_ENABLED", &c.RateLimit.Enabled)
	num("AGORA_RATE_LIMIT_WRITES", &c.RateLimit.Writes)
	num("AGORA_RATE_LIMIT_VOTES", &c.RateLimit.Votes)
	dur("AGORA_RATE_LIMIT_WINDOW", &c.RateLimit.Window)
}

// Validate rejects configurations the server cannot start with.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if len(c.Server.JWTSigningKey) < 16 {
		errs = append(errs, errors.New("server.jwt_signing_key must be at least 16 bytes"))
	}
	if c.Server.TraceSampleRatio < 0 || c.Server.TraceSampleRatio > 1 {
		errs = append(errs, errors.New("server.trace_sample_ratio must be between 0 and 1"))
	}
	if c.Content.ConflictRetries < 0 {
		errs = append(errs, errors.New("content.conflict_retries cannot be negative"))
	}
	if c.Content.TxTimeout <= 0 {
		errs = append(errs, errors.New("content.tx_timeout must be positive"))
	}
	if c.RateLimit.Enabled && c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("rate_limit.window must be positive"))
	}
	if c.Redis.URL != "" && c.Redis.LockTTL <= 0 {
		errs = append(errs, errors.New("redis.lock_ttl must be positive"))
	}
	return errors.Join(errs...)
}

// Topic returns the audit topic for a category name.
func (k KafkaConfig) Topic(category string) string {
	return k.TopicPrefix + "." + category
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
