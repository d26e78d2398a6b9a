// Worker entry point: scheduled sweeps, deferred notification delivery and,
// in kafka dispatch mode, the delivery-queue consumers.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/ComplianceSentinel/internal/app"
	"github.com/turtacn/ComplianceSentinel/internal/application/compliance"
	"github.com/turtacn/ComplianceSentinel/internal/config"
	"github.com/turtacn/ComplianceSentinel/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/ComplianceSentinel/internal/infrastructure/monitoring/logging"
	httpserver "github.com/turtacn/ComplianceSentinel/internal/interfaces/http"
	"github.com/turtacn/ComplianceSentinel/internal/interfaces/http/handlers"
	"github.com/turtacn/ComplianceSentinel/internal/interfaces/http/middleware"
)

const defaultConfigPath = "configs/config.yaml"

var version = "dev"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	noSchedule := flag.Bool("no-schedule", false, "disable scheduled sweeps (delivery only)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.NewLogger(cfg.Log.ToLogging())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger = logger.Named("worker")

	if err := run(cfg, *configPath, !*noSchedule, logger); err != nil {
		logger.Error("worker exited with error", logging.Err(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, configPath string, schedule bool, logger logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	if _, statErr := os.Stat(configPath); statErr == nil {
		watchErr := config.Watch(configPath, func(next *config.Config) {
			if err := c.ApplyPolicy(next); err != nil {
				logger.Warn("rejected reloaded policy", logging.Err(err))
			}
		}, func(err error) {
			logger.Warn("config reload failed", logging.Err(err))
		})
		if watchErr != nil {
			logger.Warn("config watch disabled", logging.Err(watchErr))
		}
	}

	g, ctx := errgroup.WithContext(ctx)

	if schedule {
		schedules, err := c.Schedules()
		if err != nil {
			return err
		}
		scheduler := compliance.NewScheduler(c.Sweep, schedules, c.Location, logger)
		g.Go(func() error { return scheduler.Run(ctx) })
	}

	poller := compliance.NewDuePoller(c.Deliverer, cfg.Dispatch.PollInterval, cfg.Dispatch.PollBatch, logger)
	g.Go(func() error { return poller.Run(ctx) })

	if cfg.Dispatch.Mode == "kafka" && c.Producer != nil {
		handler := kafka.DeliveryHandler(c.Deliverer.DeliverByID, logger)
		for i := 0; i < cfg.Worker.Consumers; i++ {
			consumer, err := kafka.NewConsumer(kafka.ConsumerConfigFrom(cfg.Kafka, kafka.TopicDeliveryJobs), c.Producer, logger)
			if err != nil {
				return fmt.Errorf("delivery consumer: %w", err)
			}
			consumer.Subscribe(kafka.TopicDeliveryJobs, handler)
			if err := consumer.Start(ctx); err != nil {
				consumer.Close()
				return err
			}
			g.Go(func() error {
				<-ctx.Done()
				return consumer.Close()
			})
		}
		logger.Info("delivery consumers started", logging.Int("consumers", cfg.Worker.Consumers))
	}

	health := httpserver.NewRouter(httpserver.RouterConfig{
		Mode:             cfg.Server.Mode,
		HealthHandler:    handlers.NewHealthHandler(version, c.HealthCheckers()...),
		Logging:          middleware.DefaultLoggingConfig(),
		Logger:           logger,
		Metrics:          c.Metrics,
		MetricsCollector: c.Collector,
	})
	srv := httpserver.NewServer(config.ServerConfig{Port: cfg.Worker.HealthPort}, health, logger)
	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		return srv.Stop(context.Background())
	})

	logger.Info("worker started",
		logging.String("version", version),
		logging.String("dispatch_mode", cfg.Dispatch.Mode),
		logging.Bool("scheduled_sweeps", schedule),
	)
	err = g.Wait()
	logger.Info("worker stopped")
	return err
}

func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config.LoadFromEnv()
	}
	return config.Load(path)
}

//Personal.AI order the ending
