package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/turtacn/ComplianceSentinel/internal/app"
	"github.com/turtacn/ComplianceSentinel/internal/application/compliance"
	"github.com/turtacn/ComplianceSentinel/internal/config"
	"github.com/turtacn/ComplianceSentinel/internal/domain/alert"
	"github.com/turtacn/ComplianceSentinel/internal/domain/score"
	"github.com/turtacn/ComplianceSentinel/internal/infrastructure/database/postgres"
	"github.com/turtacn/ComplianceSentinel/internal/infrastructure/monitoring/logging"
)

// Sweeper runs sweeps.
type Sweeper interface {
	SweepOrganization(ctx context.Context, organizationID string, force bool) (*compliance.Summary, error)
	SweepAll(ctx context.Context, force bool) ([]*compliance.Summary, error)
}

// Reader serves scores and alerts.
type Reader interface {
	Score(ctx context.Context, organizationID string) (*score.ComplianceScore, error)
	ListAlerts(ctx context.Context, organizationID string, f alert.ListFilter) ([]*alert.Alert, int64, error)
}

// AlertMutator applies operator transitions.
type AlertMutator interface {
	Acknowledge(ctx context.Context, organizationID, id, actor string) (*alert.Alert, error)
	Dismiss(ctx context.Context, organizationID, id, actor string) (*alert.Alert, error)
	Resolve(ctx context.Context, organizationID, id, actor string) (*alert.Alert, error)
}

// DueDeliverer delivers deferred jobs.
type DueDeliverer interface {
	DeliverDue(ctx context.Context, limit int) (compliance.DeliveryStats, error)
}

// Exporter renders and archives the compliance register.
type Exporter interface {
	Export(ctx context.Context, organizationID string) (*compliance.Export, error)
	Upload(ctx context.Context, organizationID string) (string, error)
}

// Services is what the engine commands need. Close releases connections.
type Services struct {
	Sweeper   Sweeper
	Reader    Reader
	Alerts    AlertMutator
	Deliverer DueDeliverer
	Exporter  Exporter
	Close     func()
}

// ServiceFactory connects to the engine.
type ServiceFactory func(ctx context.Context, cfg *config.Config, logger logging.Logger) (*Services, error)

// DefaultServices builds the full engine from configuration.
func DefaultServices(ctx context.Context, cfg *config.Config, logger logging.Logger) (*Services, error) {
	c, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return &Services{
		Sweeper:   c.Sweep,
		Reader:    c.Query,
		Alerts:    c.Alerts,
		Deliverer: c.Deliverer,
		Exporter:  c.Exporter,
		Close:     c.Close,
	}, nil
}

// Migrator applies schema migrations.
type Migrator interface {
	RunMigrations(dir string) error
	RollbackMigrations(dir string, steps int) error
	MigrationStatus(dir string) (postgres.MigrationState, error)
	Close() error
}

// MigratorFactory opens a Migrator.
type MigratorFactory func(cfg *config.Config, logger logging.Logger) (Migrator, error)

// DefaultMigrator opens a database/sql connection; migrations need nothing
// else from the engine.
func DefaultMigrator(cfg *config.Config, logger logging.Logger) (Migrator, error) {
	return postgres.NewConnection(cfg.Database, logger)
}

// withServices opens the engine for the duration of fn.
func withServices(factory ServiceFactory, fn func(ctx context.Context, cmd *cobra.Command, args []string, svc *Services) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cc, err := GetCLIContext(cmd)
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd, cc)
		defer cancel()
		svc, err := factory(ctx, cc.Config, cc.Logger)
		if err != nil {
			return err
		}
		if svc.Close != nil {
			defer svc.Close()
		}
		return fn(ctx, cmd, args, svc)
	}
}

//Personal.AI order the ending
