// Package app assembles the compliance engine from configuration. The
// apiserver, the worker and the CLI all build their object graph here.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/ComplianceSentinel/internal/application/compliance"
	"github.com/turtacn/ComplianceSentinel/internal/config"
	"github.com/turtacn/ComplianceSentinel/internal/domain/notification"
	"github.com/turtacn/ComplianceSentinel/internal/infrastructure/database/postgres"
	"github.com/turtacn/ComplianceSentinel/internal/infrastructure/database/postgres/repositories"
	redisinfra "github.com/turtacn/ComplianceSentinel/internal/infrastructure/database/redis"
	"github.com/turtacn/ComplianceSentinel/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/ComplianceSentinel/internal/infrastructure/messaging/mqtt"
	"github.com/turtacn/ComplianceSentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ComplianceSentinel/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ComplianceSentinel/internal/infrastructure/notify"
	"github.com/turtacn/ComplianceSentinel/internal/infrastructure/storage/minio"
	"github.com/turtacn/ComplianceSentinel/internal/interfaces/http/handlers"
)

// Container holds the infrastructure clients and the services built on
// them. Optional clients are nil when disabled.
type Container struct {
	Config    *config.Config
	Logger    logging.Logger
	Collector prometheus.MetricsCollector
	Metrics   *prometheus.ComplianceMetrics
	Policy    *compliance.PolicySource
	Location  *time.Location

	DB       *postgres.Connection
	Pool     *pgxpool.Pool
	Redis    *redisinfra.Client
	Producer *kafka.Producer
	Push     *mqtt.PushSender
	Store    *minio.Store
	Senders  *notify.Registry

	Sweep     *compliance.SweepService
	Query     *compliance.QueryService
	Alerts    *compliance.AlertService
	Deliverer *compliance.Deliverer
	Exporter  *compliance.RegisterExporter

	closers []func()
}

// Build connects every enabled dependency. On error everything opened so
// far is closed.
func Build(ctx context.Context, cfg *config.Config, logger logging.Logger) (*Container, error) {
	c := &Container{Config: cfg, Logger: logger, Policy: compliance.NewPolicySource(cfg.Policy.ToPolicy())}
	fail := func(err error) (*Container, error) {
		c.Close()
		return nil, err
	}

	loc, err := time.LoadLocation(cfg.Sweep.Timezone)
	if err != nil {
		return nil, fmt.Errorf("sweep timezone: %w", err)
	}
	c.Location = loc
	if err := c.initMetrics(); err != nil {
		return fail(err)
	}
	if err := c.initStorage(ctx); err != nil {
		return fail(err)
	}
	if err := c.initMessaging(ctx); err != nil {
		return fail(err)
	}
	if err := c.initSenders(); err != nil {
		return fail(err)
	}
	if cfg.MinIO.Enabled {
		store, err := minio.NewStore(ctx, cfg.MinIO, logger)
		if err != nil {
			return fail(fmt.Errorf("minio: %w", err))
		}
		c.Store = store
	}
	c.initServices()
	logger.Info("compliance engine initialized",
		logging.Bool("redis", c.Redis != nil),
		logging.Bool("kafka", c.Producer != nil),
		logging.Bool("mqtt", c.Push != nil),
		logging.Bool("minio", c.Store != nil),
		logging.String("dispatch_mode", cfg.Dispatch.Mode),
	)
	return c, nil
}

func (c *Container) onClose(fn func()) { c.closers = append(c.closers, fn) }

// Close releases clients in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

func (c *Container) initMetrics() error {
	if !c.Config.Metrics.Enabled {
		c.Metrics = prometheus.NewNopMetrics()
		return nil
	}
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            c.Config.Metrics.Namespace,
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	}, c.Logger)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	c.Collector = collector
	c.Metrics = prometheus.NewComplianceMetrics(collector)
	return nil
}

func (c *Container) initStorage(ctx context.Context) error {
	db, err := postgres.NewConnection(c.Config.Database, c.Logger)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	c.DB = db
	c.onClose(func() { _ = db.Close() })

	pool, err := postgres.NewPool(ctx, c.Config.Database, c.Logger)
	if err != nil {
		return fmt.Errorf("postgres pool: %w", err)
	}
	c.Pool = pool
	c.onClose(pool.Close)

	if c.Config.Redis.Enabled {
		rc, err := redisinfra.NewClient(c.Config.Redis, c.Logger)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		c.Redis = rc
		c.onClose(func() { _ = rc.Close() })
	}
	return nil
}

func (c *Container) initMessaging(ctx context.Context) error {
	if !c.Config.Kafka.Enabled {
		return nil
	}
	c.ensureTopics(ctx)
	p, err := kafka.NewProducer(kafka.ProducerConfigFrom(c.Config.Kafka), c.Logger)
	if err != nil {
		return fmt.Errorf("kafka producer: %w", err)
	}
	c.Producer = p
	c.onClose(func() { _ = p.Close() })
	return nil
}

// ensureTopics creates missing topics. Failures are logged and ignored.
func (c *Container) ensureTopics(ctx context.Context) {
	tm, err := kafka.NewTopicManager(c.Config.Kafka.Brokers, c.Logger)
	if err != nil {
		c.Logger.Warn("kafka topic manager unavailable", logging.Err(err))
		return
	}
	defer tm.Close()
	if err := tm.EnsureTopics(ctx, kafka.DefaultTopics()); err != nil {
		c.Logger.Warn("failed to ensure kafka topics", logging.Err(err))
	}
}

func (c *Container) initSenders() error {
	c.Senders = notify.NewRegistry()
	gw := c.Config.Gateway
	for ch, ep := range map[notification.Channel]config.GatewayEndpoint{
		notification.ChannelEmail:    gw.Email,
		notification.ChannelSMS:      gw.SMS,
		notification.ChannelWhatsApp: gw.WhatsApp,
	} {
		if ep.Enabled {
			c.Senders.Register(notify.NewGatewaySender(ch, ep, c.Logger))
		}
	}
	if c.Config.MQTT.Enabled {
		push, err := mqtt.NewPushSender(c.Config.MQTT, c.Logger)
		if err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
		c.Push = push
		c.Senders.Register(push)
		c.onClose(push.Close)
	}
	if len(c.Senders.Channels()) == 0 {
		c.Logger.Warn("no delivery channel configured; notifications will fail permanently")
	}
	return nil
}

func (c *Container) initServices() {
	cfg, log := c.Config, c.Logger

	orgs := repositories.NewPostgresOrganizationRepo(c.DB, log)
	alerts := repositories.NewPostgresAlertRepo(c.DB, log)
	jobs := repositories.NewPostgresJobRepo(c.DB, log)
	members := repositories.NewPostgresMemberRepo(c.DB, log)
	entities := repositories.NewPgxObligationRepo(c.Pool, log)

	var events compliance.EventPublisher = compliance.NewNopPublisher()
	var queue compliance.JobQueue
	if c.Producer != nil {
		events = kafka.NewEventPublisher(c.Producer, log)
		if cfg.Dispatch.Mode == "kafka" {
			queue = kafka.NewDeliveryQueue(c.Producer, log)
		}
	}

	var guard compliance.Guard = compliance.NewLocalGuard()
	var cache compliance.ScoreCache
	if c.Redis != nil {
		guard = redisinfra.NewGuard(c.Redis, cfg.Sweep.LockTTL)
		cache = redisinfra.NewCache(c.Redis, cfg.Redis.ScoreTTL, log)
	}
	var store compliance.ObjectStore
	if c.Store != nil {
		store = c.Store
	}

	aggregator := compliance.NewAggregator(entities, c.Policy, c.Metrics, log)
	dispatcher := compliance.NewDispatcher(members, jobs, log)
	c.Deliverer = compliance.NewDeliverer(jobs, alerts, c.Senders, events, c.Metrics, compliance.RetryPolicy{
		MaxAttempts: cfg.Dispatch.MaxAttempts,
		BaseBackoff: cfg.Dispatch.BaseBackoff,
		MaxBackoff:  cfg.Dispatch.MaxBackoff,
		ClaimLease:  cfg.Dispatch.ClaimLease,
	}, log)

	c.Sweep = compliance.NewSweepService(compliance.SweepDeps{
		Organizations: orgs,
		Alerts:        alerts,
		Aggregator:    aggregator,
		Dispatcher:    dispatcher,
		Deliverer:     c.Deliverer,
		Queue:         queue,
		Guard:         guard,
		Cache:         cache,
		Events:        events,
		Metrics:       c.Metrics,
		Logger:        log,
	}, compliance.SweepOptions{
		Concurrency:     cfg.Sweep.Concurrency,
		Timeout:         cfg.Sweep.Timeout,
		Location:        c.Location,
		NotifyOnResolve: cfg.Dispatch.NotifyOnResolve,
		ScoreTTL:        cfg.Redis.ScoreTTL,
	})
	c.Query = compliance.NewQueryService(orgs, alerts, jobs, aggregator, cache, cfg.Redis.ScoreTTL, c.Location, log)
	c.Alerts = compliance.NewAlertService(alerts, events, c.Metrics, log)
	c.Exporter = compliance.NewRegisterExporter(c.Query, store, log)
}

// HealthCheckers lists a checker per connected dependency.
func (c *Container) HealthCheckers() []handlers.HealthChecker {
	checks := []handlers.HealthChecker{handlers.NewCheck("postgres", c.DB.HealthCheck)}
	if c.Pool != nil {
		checks = append(checks, handlers.NewCheck("postgres_pool", c.Pool.Ping))
	}
	if c.Redis != nil {
		checks = append(checks, handlers.NewCheck("redis", c.Redis.Ping))
	}
	return checks
}

// Schedules converts the configured cadences.
func (c *Container) Schedules() ([]compliance.Schedule, error) {
	out := make([]compliance.Schedule, 0, len(c.Config.Sweep.Schedules))
	for _, s := range c.Config.Sweep.Schedules {
		sc, err := compliance.ParseSchedule(s.Name, s.At, s.Weekday, s.Force)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, nil
}

// ApplyPolicy swaps the live severity policy. Invalid policies are
// rejected and the previous one stays active.
func (c *Container) ApplyPolicy(cfg *config.Config) error {
	if err := c.Policy.Set(cfg.Policy.ToPolicy()); err != nil {
		return err
	}
	c.Logger.Info("severity policy reloaded")
	return nil
}

//Personal.AI order the ending
