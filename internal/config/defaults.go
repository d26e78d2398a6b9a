package config

import (
	"time"

	"github.com/spf13/viper"
)

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServerPort = 8080
	DefaultServerMode = "release"

	DefaultDBHost     = "localhost"
	DefaultDBPort     = 5432
	DefaultDBName     = "sentinel"
	DefaultDBMaxConns = 25
	DefaultDBSSLMode  = "disable"
	DefaultMigrations = "migrations"

	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisKeyPrefix = "sentinel:"
	DefaultScoreTTL       = 15 * time.Minute

	DefaultKafkaBroker  = "localhost:9092"
	DefaultKafkaGroupID = "sentinel-delivery"

	DefaultMQTTTopicPrefix = "sentinel/alerts"

	DefaultGatewayTimeout = 10 * time.Second

	DefaultSweepConcurrency = 8
	DefaultSweepTimeout     = 5 * time.Minute
	DefaultSweepLockTTL     = 10 * time.Minute
	DefaultSweepTimezone    = "Europe/Bucharest"

	DefaultDispatchMode  = "inline"
	DefaultMaxAttempts   = 5
	DefaultBaseBackoff   = 30 * time.Second
	DefaultMaxBackoff    = 30 * time.Minute
	DefaultClaimLease    = 5 * time.Minute
	DefaultPollInterval  = time.Minute
	DefaultPollBatch     = 200
	DefaultMetricsPath   = "/metrics"
	DefaultMetricsNS     = "sentinel"
	DefaultWorkerHealth  = 8081
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "json"
	DefaultMinIOEndpoint = "localhost:9000"
	DefaultMinIOBucket   = "compliance-exports"
)

// DefaultSchedules are the daily and weekly sweep cadences.
func DefaultSchedules() []ScheduleConfig {
	return []ScheduleConfig{
		{Name: "daily", At: "06:00"},
		{Name: "weekly", At: "07:00", Weekday: "monday"},
	}
}

// DefaultPolicyConfig is the standard severity and penalty table.
func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{
		UrgentDays:     7,
		WarningDays:    30,
		AttentionDays:  60,
		InfoWindowDays: 14,
		Penalties: PenaltyConfig{
			Expired:     15,
			Urgent:      10,
			Warning:     5,
			Attention:   2,
			Info:        0,
			Unscheduled: 5,
		},
	}
}

// registerDefaults declares every key on v so that SENTINEL_* environment
// variables are honoured even when the key is absent from the file.
func registerDefaults(v *viper.Viper) {
	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("server.mode", DefaultServerMode)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("database.host", DefaultDBHost)
	v.SetDefault("database.port", DefaultDBPort)
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.db_name", DefaultDBName)
	v.SetDefault("database.ssl_mode", DefaultDBSSLMode)
	v.SetDefault("database.max_conns", DefaultDBMaxConns)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("database.conn_max_idle_time", 5*time.Minute)
	v.SetDefault("database.statement_timeout", 30*time.Second)
	v.SetDefault("database.migration_path", DefaultMigrations)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", DefaultRedisAddr)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 20)
	v.SetDefault("redis.key_prefix", DefaultRedisKeyPrefix)
	v.SetDefault("redis.score_ttl", DefaultScoreTTL)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{DefaultKafkaBroker})
	v.SetDefault("kafka.group_id", DefaultKafkaGroupID)
	v.SetDefault("kafka.batch_size", 100)
	v.SetDefault("kafka.batch_timeout", 10*time.Millisecond)
	v.SetDefault("kafka.write_timeout", 10*time.Second)
	v.SetDefault("kafka.max_retries", 3)

	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker_url", "")
	v.SetDefault("mqtt.client_id", "sentinel")
	v.SetDefault("mqtt.qos", 1)
	v.SetDefault("mqtt.topic_prefix", DefaultMQTTTopicPrefix)
	v.SetDefault("mqtt.connect_timeout", 10*time.Second)
	v.SetDefault("mqtt.publish_timeout", 5*time.Second)

	for _, gw := range []string{"email", "sms", "whatsapp"} {
		v.SetDefault("gateway."+gw+".enabled", false)
		v.SetDefault("gateway."+gw+".base_url", "")
		v.SetDefault("gateway."+gw+".api_key", "")
		v.SetDefault("gateway."+gw+".sender", "")
		v.SetDefault("gateway."+gw+".timeout", DefaultGatewayTimeout)
	}

	v.SetDefault("minio.enabled", false)
	v.SetDefault("minio.endpoint", DefaultMinIOEndpoint)
	v.SetDefault("minio.bucket", DefaultMinIOBucket)
	v.SetDefault("minio.access_key", "")
	v.SetDefault("minio.secret_key", "")

	v.SetDefault("sweep.concurrency", DefaultSweepConcurrency)
	v.SetDefault("sweep.timeout", DefaultSweepTimeout)
	v.SetDefault("sweep.lock_ttl", DefaultSweepLockTTL)
	v.SetDefault("sweep.timezone", DefaultSweepTimezone)

	v.SetDefault("dispatch.mode", DefaultDispatchMode)
	v.SetDefault("dispatch.max_attempts", DefaultMaxAttempts)
	v.SetDefault("dispatch.base_backoff", DefaultBaseBackoff)
	v.SetDefault("dispatch.max_backoff", DefaultMaxBackoff)
	v.SetDefault("dispatch.claim_lease", DefaultClaimLease)
	v.SetDefault("dispatch.notify_on_resolve", false)
	v.SetDefault("dispatch.poll_interval", DefaultPollInterval)
	v.SetDefault("dispatch.poll_batch", DefaultPollBatch)

	p := DefaultPolicyConfig()
	v.SetDefault("policy.urgent_days", p.UrgentDays)
	v.SetDefault("policy.warning_days", p.WarningDays)
	v.SetDefault("policy.attention_days", p.AttentionDays)
	v.SetDefault("policy.info_window_days", p.InfoWindowDays)
	v.SetDefault("policy.penalties.expired", p.Penalties.Expired)
	v.SetDefault("policy.penalties.urgent", p.Penalties.Urgent)
	v.SetDefault("policy.penalties.warning", p.Penalties.Warning)
	v.SetDefault("policy.penalties.attention", p.Penalties.Attention)
	v.SetDefault("policy.penalties.info", p.Penalties.Info)
	v.SetDefault("policy.penalties.unscheduled", p.Penalties.Unscheduled)

	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", DefaultMetricsNS)
	v.SetDefault("metrics.path", DefaultMetricsPath)

	v.SetDefault("worker.health_port", DefaultWorkerHealth)
	v.SetDefault("worker.consumers", 2)
}

// ApplyDefaults fills zero-value fields in cfg. Explicit values always win.
// Boolean switches are left alone since false is a meaningful setting.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30 * time.Second
	}

	// ── Database ──────────────────────────────────────────────────────────────
	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = DefaultDBName
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = DefaultDBMaxConns
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = DefaultDBSSLMode
	}
	if cfg.Database.MigrationPath == "" {
		cfg.Database.MigrationPath = DefaultMigrations
	}

	// ── Redis / Kafka / MQTT ──────────────────────────────────────────────────
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}
	if cfg.Redis.ScoreTTL == 0 {
		cfg.Redis.ScoreTTL = DefaultScoreTTL
	}
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}
	if cfg.MQTT.TopicPrefix == "" {
		cfg.MQTT.TopicPrefix = DefaultMQTTTopicPrefix
	}
	for _, gw := range []*GatewayEndpoint{&cfg.Gateway.Email, &cfg.Gateway.SMS, &cfg.Gateway.WhatsApp} {
		if gw.Timeout == 0 {
			gw.Timeout = DefaultGatewayTimeout
		}
	}
	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = DefaultMinIOEndpoint
	}
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = DefaultMinIOBucket
	}

	// ── Sweep ─────────────────────────────────────────────────────────────────
	if cfg.Sweep.Concurrency == 0 {
		cfg.Sweep.Concurrency = DefaultSweepConcurrency
	}
	if cfg.Sweep.Timeout == 0 {
		cfg.Sweep.Timeout = DefaultSweepTimeout
	}
	if cfg.Sweep.LockTTL == 0 {
		cfg.Sweep.LockTTL = DefaultSweepLockTTL
	}
	if cfg.Sweep.Timezone == "" {
		cfg.Sweep.Timezone = DefaultSweepTimezone
	}
	if len(cfg.Sweep.Schedules) == 0 {
		cfg.Sweep.Schedules = DefaultSchedules()
	}

	// ── Dispatch ──────────────────────────────────────────────────────────────
	if cfg.Dispatch.Mode == "" {
		cfg.Dispatch.Mode = DefaultDispatchMode
	}
	if cfg.Dispatch.MaxAttempts == 0 {
		cfg.Dispatch.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Dispatch.BaseBackoff == 0 {
		cfg.Dispatch.BaseBackoff = DefaultBaseBackoff
	}
	if cfg.Dispatch.MaxBackoff == 0 {
		cfg.Dispatch.MaxBackoff = DefaultMaxBackoff
	}
	if cfg.Dispatch.ClaimLease == 0 {
		cfg.Dispatch.ClaimLease = DefaultClaimLease
	}
	if cfg.Dispatch.PollInterval == 0 {
		cfg.Dispatch.PollInterval = DefaultPollInterval
	}
	if cfg.Dispatch.PollBatch == 0 {
		cfg.Dispatch.PollBatch = DefaultPollBatch
	}

	// ── Policy ────────────────────────────────────────────────────────────────
	// A policy with no thresholds at all is taken as unset.
	if cfg.Policy.UrgentDays == 0 && cfg.Policy.WarningDays == 0 && cfg.Policy.AttentionDays == 0 {
		weights := cfg.Policy.CategoryWeights
		cfg.Policy = DefaultPolicyConfig()
		cfg.Policy.CategoryWeights = weights
	}

	// ── Observability ─────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNS
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Worker.HealthPort == 0 {
		cfg.Worker.HealthPort = DefaultWorkerHealth
	}
	if cfg.Worker.Consumers == 0 {
		cfg.Worker.Consumers = 2
	}
}

// NewDefaultConfig returns a Config with every default applied. The database
// user still has to be supplied before it validates.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

//Personal.AI order the ending
