// API server entry point for ComplianceSentinel.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/turtacn/ComplianceSentinel/internal/app"
	"github.com/turtacn/ComplianceSentinel/internal/config"
	"github.com/turtacn/ComplianceSentinel/internal/infrastructure/monitoring/logging"
	httpserver "github.com/turtacn/ComplianceSentinel/internal/interfaces/http"
	"github.com/turtacn/ComplianceSentinel/internal/interfaces/http/handlers"
	"github.com/turtacn/ComplianceSentinel/internal/interfaces/http/middleware"
)

const defaultConfigPath = "configs/config.yaml"

// Injected via ldflags.
var version = "dev"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	port := flag.Int("port", 0, "HTTP port (overrides config)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}

	logger, err := logging.NewLogger(cfg.Log.ToLogging())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, *configPath, logger); err != nil {
		logger.Error("apiserver exited with error", logging.Err(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, configPath string, logger logging.Logger) error {
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

	router := httpserver.NewRouter(httpserver.RouterConfig{
		Mode:              cfg.Server.Mode,
		ComplianceHandler: handlers.NewComplianceHandler(c.Query, c.Alerts, c.Sweep, logger),
		ExportHandler:     handlers.NewExportHandler(c.Exporter),
		HealthHandler:     handlers.NewHealthHandler(version, c.HealthCheckers()...),
		Logging:           middleware.DefaultLoggingConfig(),
		Logger:            logger,
		Metrics:           c.Metrics,
		MetricsCollector:  c.Collector,
	})
	srv := httpserver.NewServer(cfg.Server, router, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting ComplianceSentinel API server",
			logging.String("version", version),
			logging.String("addr", srv.Addr()),
		)
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down API server")
	return srv.Stop(context.Background())
}

func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config.LoadFromEnv()
	}
	return config.Load(path)
}

//Personal.AI order the ending
