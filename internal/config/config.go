// Package config defines the configuration of the compliance engine binaries.
// Only data types and validation live here; loading is in loader.go.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/turtacn/ComplianceSentinel/internal/domain/obligation"
	"github.com/turtacn/ComplianceSentinel/internal/infrastructure/monitoring/logging"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host             string        `mapstructure:"host"`
	Port             int           `mapstructure:"port"`
	User             string        `mapstructure:"user"`
	Password         string        `mapstructure:"password"`
	DBName           string        `mapstructure:"db_name"`
	SSLMode          string        `mapstructure:"ssl_mode"`
	MaxConns         int           `mapstructure:"max_conns"`
	MinConns         int           `mapstructure:"min_conns"`
	MaxIdleConns     int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime  time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime  time.Duration `mapstructure:"conn_max_idle_time"`
	StatementTimeout time.Duration `mapstructure:"statement_timeout"`
	MigrationPath    string        `mapstructure:"migration_path"`
}

// RedisConfig holds Redis connection parameters. When disabled the sweep
// guard falls back to an in-process lock and scores are not cached.
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
	ScoreTTL     time.Duration `mapstructure:"score_ttl"`
}

// KafkaConfig holds producer/consumer parameters for domain events and the
// delivery queue.
type KafkaConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Brokers      []string      `mapstructure:"brokers"`
	GroupID      string        `mapstructure:"group_id"`
	BatchSize    int           `mapstructure:"batch_size"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	MaxRetries   int           `mapstructure:"max_retries"`
}

// MQTTConfig configures the push channel.
type MQTTConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	BrokerURL      string        `mapstructure:"broker_url"`
	ClientID       string        `mapstructure:"client_id"`
	Username       string        `mapstructure:"username"`
	Password       string        `mapstructure:"password"`
	QoS            int           `mapstructure:"qos"`
	TopicPrefix    string        `mapstructure:"topic_prefix"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	PublishTimeout time.Duration `mapstructure:"publish_timeout"`
}

// GatewayEndpoint configures one HTTP delivery gateway.
type GatewayEndpoint struct {
	Enabled bool          `mapstructure:"enabled"`
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Sender  string        `mapstructure:"sender"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// GatewayConfig configures the email, SMS and WhatsApp gateways.
type GatewayConfig struct {
	Email    GatewayEndpoint `mapstructure:"email"`
	SMS      GatewayEndpoint `mapstructure:"sms"`
	WhatsApp GatewayEndpoint `mapstructure:"whatsapp"`
}

// MinIOConfig holds object-storage parameters for register exports.
type MinIOConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// ScheduleConfig is one sweep cadence. Weekday is empty for daily runs.
type ScheduleConfig struct {
	Name    string `mapstructure:"name"`
	At      string `mapstructure:"at"`      // "HH:MM"
	Weekday string `mapstructure:"weekday"` // "monday" ... ; empty = every day
	Force   bool   `mapstructure:"force"`
}

// SweepConfig bounds sweep execution.
type SweepConfig struct {
	Concurrency int              `mapstructure:"concurrency"`
	Timeout     time.Duration    `mapstructure:"timeout"`
	LockTTL     time.Duration    `mapstructure:"lock_ttl"`
	Timezone    string           `mapstructure:"timezone"`
	Schedules   []ScheduleConfig `mapstructure:"schedules"`
}

// DispatchConfig controls fan-out and retry.
type DispatchConfig struct {
	// Mode is "inline" (deliver within the sweep) or "kafka" (publish jobs
	// to the delivery topic for the worker).
	Mode            string        `mapstructure:"mode"`
	MaxAttempts     int           `mapstructure:"max_attempts"`
	BaseBackoff     time.Duration `mapstructure:"base_backoff"`
	MaxBackoff      time.Duration `mapstructure:"max_backoff"`
	// ClaimLease hides a job from other deliverers while one attempt runs.
	// It must outlast the slowest channel send.
	ClaimLease      time.Duration `mapstructure:"claim_lease"`
	NotifyOnResolve bool          `mapstructure:"notify_on_resolve"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	PollBatch       int           `mapstructure:"poll_batch"`
}

// PenaltyConfig mirrors obligation.Penalties.
type PenaltyConfig struct {
	Expired     int `mapstructure:"expired"`
	Urgent      int `mapstructure:"urgent"`
	Warning     int `mapstructure:"warning"`
	Attention   int `mapstructure:"attention"`
	Info        int `mapstructure:"info"`
	Unscheduled int `mapstructure:"unscheduled"`
}

// PolicyConfig is the consolidated severity/penalty table.
type PolicyConfig struct {
	UrgentDays      int                `mapstructure:"urgent_days"`
	WarningDays     int                `mapstructure:"warning_days"`
	AttentionDays   int                `mapstructure:"attention_days"`
	InfoWindowDays  int                `mapstructure:"info_window_days"`
	Penalties       PenaltyConfig      `mapstructure:"penalties"`
	CategoryWeights map[string]float64 `mapstructure:"category_weights"`
}

// ToPolicy converts the configuration into the domain policy.
func (p PolicyConfig) ToPolicy() obligation.Policy {
	out := obligation.Policy{
		UrgentDays:     p.UrgentDays,
		WarningDays:    p.WarningDays,
		AttentionDays:  p.AttentionDays,
		InfoWindowDays: p.InfoWindowDays,
		Penalties: obligation.Penalties{
			Expired:     p.Penalties.Expired,
			Urgent:      p.Penalties.Urgent,
			Warning:     p.Penalties.Warning,
			Attention:   p.Penalties.Attention,
			Info:        p.Penalties.Info,
			Unscheduled: p.Penalties.Unscheduled,
		},
	}
	if len(p.CategoryWeights) > 0 {
		out.CategoryWeights = make(map[obligation.Category]float64, len(p.CategoryWeights))
		for k, v := range p.CategoryWeights {
			out.CategoryWeights[obligation.Category(strings.ToLower(k))] = v
		}
	}
	return out
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level       string   `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format      string   `mapstructure:"format"` // "json" | "console"
	OutputPaths []string `mapstructure:"output_paths"`
}

// ToLogging converts to the logger construction parameters.
func (l LogConfig) ToLogging() logging.LogConfig {
	return logging.LogConfig{Level: l.Level, Format: l.Format, OutputPaths: l.OutputPaths}
}

// MetricsConfig controls the Prometheus registry.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	Path      string `mapstructure:"path"`
}

// WorkerConfig holds background-worker parameters.
type WorkerConfig struct {
	HealthPort int `mapstructure:"health_port"`
	// Consumers is the number of delivery-queue consumers in kafka mode.
	Consumers int `mapstructure:"consumers"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration shared by apiserver, worker and CLI.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	MQTT     MQTTConfig     `mapstructure:"mqtt"`
	Gateway  GatewayConfig  `mapstructure:"gateway"`
	MinIO    MinIOConfig    `mapstructure:"minio"`
	Sweep    SweepConfig    `mapstructure:"sweep"`
	Dispatch DispatchConfig `mapstructure:"dispatch"`
	Policy   PolicyConfig   `mapstructure:"policy"`
	Log      LogConfig      `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Worker   WorkerConfig   `mapstructure:"worker"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday, "wednesday": time.Wednesday,
	"thursday": time.Thursday, "friday": time.Friday, "saturday": time.Saturday,
}

// ParseWeekday resolves a lowercase English weekday name.
func ParseWeekday(s string) (time.Weekday, bool) {
	d, ok := weekdays[strings.ToLower(s)]
	return d, ok
}

// Validate returns the first semantic error in c.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("config: database.host is required")
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("config: database.port %d is out of range [1, 65535]", c.Database.Port)
	}
	if c.Database.User == "" {
		return fmt.Errorf("config: database.user is required")
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("config: database.db_name is required")
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("config: redis.addr is required when redis is enabled")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("config: kafka.brokers must contain at least one broker address")
	}
	if c.MQTT.Enabled && c.MQTT.BrokerURL == "" {
		return fmt.Errorf("config: mqtt.broker_url is required when mqtt is enabled")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		return fmt.Errorf("config: mqtt.qos must be 0, 1 or 2, got %d", c.MQTT.QoS)
	}
	for name, gw := range map[string]GatewayEndpoint{"email": c.Gateway.Email, "sms": c.Gateway.SMS, "whatsapp": c.Gateway.WhatsApp} {
		if gw.Enabled && gw.BaseURL == "" {
			return fmt.Errorf("config: gateway.%s.base_url is required when enabled", name)
		}
	}
	if c.MinIO.Enabled && (c.MinIO.Endpoint == "" || c.MinIO.Bucket == "") {
		return fmt.Errorf("config: minio.endpoint and minio.bucket are required when minio is enabled")
	}

	if c.Sweep.Concurrency < 1 {
		return fmt.Errorf("config: sweep.concurrency must be >= 1, got %d", c.Sweep.Concurrency)
	}
	if c.Sweep.Timeout <= 0 {
		return fmt.Errorf("config: sweep.timeout must be positive")
	}
	if _, err := time.LoadLocation(c.Sweep.Timezone); err != nil {
		return fmt.Errorf("config: sweep.timezone %q: %w", c.Sweep.Timezone, err)
	}
	for i, s := range c.Sweep.Schedules {
		var h, m int
		if n, err := fmt.Sscanf(s.At, "%d:%d", &h, &m); err != nil || n != 2 || h > 23 || m > 59 || h < 0 || m < 0 {
			return fmt.Errorf("config: sweep.schedules[%d].at %q is not HH:MM", i, s.At)
		}
		if s.Weekday != "" {
			if _, ok := ParseWeekday(s.Weekday); !ok {
				return fmt.Errorf("config: sweep.schedules[%d].weekday %q is invalid", i, s.Weekday)
			}
		}
	}

	switch c.Dispatch.Mode {
	case "inline":
	case "kafka":
		if !c.Kafka.Enabled {
			return fmt.Errorf("config: dispatch.mode kafka requires kafka.enabled")
		}
	default:
		return fmt.Errorf("config: dispatch.mode %q is invalid; expected inline|kafka", c.Dispatch.Mode)
	}
	if c.Dispatch.MaxAttempts < 1 {
		return fmt.Errorf("config: dispatch.max_attempts must be >= 1, got %d", c.Dispatch.MaxAttempts)
	}
	if c.Dispatch.BaseBackoff <= 0 || c.Dispatch.MaxBackoff < c.Dispatch.BaseBackoff {
		return fmt.Errorf("config: dispatch backoff must satisfy 0 < base_backoff <= max_backoff")
	}
	if c.Dispatch.ClaimLease <= 0 {
		return fmt.Errorf("config: dispatch.claim_lease must be positive, got %s", c.Dispatch.ClaimLease)
	}

	if err := c.Policy.ToPolicy().Validate(); err != nil {
		return fmt.Errorf("config: policy: %w", err)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}

//Personal.AI order the ending
