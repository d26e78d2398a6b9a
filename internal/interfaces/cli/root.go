// Package cli implements the sentinel operator CLI.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/ComplianceSentinel/internal/config"
	"github.com/turtacn/ComplianceSentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ComplianceSentinel/pkg/errors"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

type cliContextKey struct{}

// RootOptions holds the global flags.
type RootOptions struct {
	ConfigPath   string
	LogLevel     string
	OutputFormat string
	Verbose      bool
	Timeout      time.Duration
}

// CLIContext carries the loaded configuration through the command tree.
type CLIContext struct {
	Config       *config.Config
	Logger       logging.Logger
	OutputFormat string
	Timeout      time.Duration
}

// Dependencies lets tests replace how commands reach the engine.
type Dependencies struct {
	Services ServiceFactory
	Migrator MigratorFactory
	// LoadConfig overrides config discovery.
	LoadConfig func(opts *RootOptions) (*config.Config, error)
	// Logger overrides the stderr logger.
	Logger logging.Logger
}

// NewRootCommand builds the sentinel command tree. Zero-valued
// dependencies fall back to the real engine.
func NewRootCommand(deps Dependencies) *cobra.Command {
	if deps.Services == nil {
		deps.Services = DefaultServices
	}
	if deps.Migrator == nil {
		deps.Migrator = DefaultMigrator
	}
	if deps.LoadConfig == nil {
		deps.LoadConfig = initConfig
	}
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "sentinel",
		Short: "Compliance deadline and alerting engine",
		Long: "sentinel operates the compliance engine: it runs sweeps, inspects and\n" +
			"transitions alerts, delivers deferred notifications, exports the compliance\n" +
			"register and manages database migrations.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return persistentPreRun(cmd, opts, deps)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: search ./sentinel.yaml, configs/config.yaml, ~/.sentinel/config.yaml)")
	pf.StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.StringVarP(&opts.OutputFormat, "output", "o", "table", "output format (table, json, text)")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "enable verbose logging")
	pf.DurationVar(&opts.Timeout, "timeout", 10*time.Minute, "overall command timeout")

	cmd.AddCommand(
		newSweepCmd(deps.Services),
		newAlertsCmd(deps.Services),
		newScoreCmd(deps.Services),
		newDeliverDueCmd(deps.Services),
		newExportCmd(deps.Services),
		newMigrateCmd(deps.Migrator),
		newVersionCmd(),
	)
	return cmd
}

func persistentPreRun(cmd *cobra.Command, opts *RootOptions, deps Dependencies) error {
	cfg, err := deps.LoadConfig(opts)
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}
	logger := deps.Logger
	if logger == nil {
		if logger, err = initLogger(opts); err != nil {
			return fmt.Errorf("logger initialization failed: %w", err)
		}
	}
	cliCtx := &CLIContext{
		Config:       cfg,
		Logger:       logger,
		OutputFormat: opts.OutputFormat,
		Timeout:      opts.Timeout,
	}
	cmd.SetContext(context.WithValue(cmd.Context(), cliContextKey{}, cliCtx))
	return nil
}

// initConfig loads the explicit --config file, else the first file found on
// the search path, else SENTINEL_* variables and defaults.
func initConfig(opts *RootOptions) (*config.Config, error) {
	if opts.ConfigPath != "" {
		return config.Load(opts.ConfigPath)
	}
	searchPaths := []string{"./sentinel.yaml", "configs/config.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths, filepath.Join(home, ".sentinel", "config.yaml"))
	}
	searchPaths = append(searchPaths, "/etc/sentinel/config.yaml")
	for _, p := range searchPaths {
		if _, err := os.Stat(p); err == nil {
			return config.Load(p)
		}
	}
	return config.LoadFromEnv()
}

// initLogger logs to stderr so stdout stays parseable.
func initLogger(opts *RootOptions) (logging.Logger, error) {
	level := strings.ToLower(opts.LogLevel)
	if opts.Verbose {
		level = logging.LevelDebug
	}
	return logging.NewLogger(logging.LogConfig{
		Level:            level,
		Format:           "console",
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	})
}

// GetCLIContext extracts the CLIContext stored by the root pre-run.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, errors.New(errors.ErrCodeInternal, "command context is nil")
	}
	cliCtx, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok || cliCtx == nil {
		return nil, errors.New(errors.ErrCodeInternal, "CLI context not initialized")
	}
	return cliCtx, nil
}

// commandContext bounds a command by --timeout.
func commandContext(cmd *cobra.Command, cc *CLIContext) (context.Context, context.CancelFunc) {
	if cc.Timeout <= 0 {
		return context.WithCancel(cmd.Context())
	}
	return context.WithTimeout(cmd.Context(), cc.Timeout)
}

// Execute runs the CLI with the real engine.
func Execute() error {
	rootCmd := NewRootCommand(Dependencies{})
	if err := rootCmd.Execute(); err != nil {
		PrintError(rootCmd, err)
		return err
	}
	return nil
}

// tableProvider is implemented by results that render as a table.
type tableProvider interface {
	TableHeaders() []string
	TableRows() [][]string
}

// PrintResult writes data in the selected output format.
func PrintResult(cmd *cobra.Command, data interface{}) error {
	format := "json"
	if cc, err := GetCLIContext(cmd); err == nil {
		format = strings.ToLower(cc.OutputFormat)
	}
	switch format {
	case "json":
		return printJSON(cmd, data)
	case "table":
		if tp, ok := data.(tableProvider); ok {
			fmt.Fprint(cmd.OutOrStdout(), FormatTable(tp.TableHeaders(), tp.TableRows()))
			return nil
		}
		return printText(cmd, data)
	default:
		return printText(cmd, data)
	}
}

func printJSON(cmd *cobra.Command, data interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func printText(cmd *cobra.Command, data interface{}) error {
	switch v := data.(type) {
	case string:
		fmt.Fprintln(cmd.OutOrStdout(), v)
	case fmt.Stringer:
		fmt.Fprintln(cmd.OutOrStdout(), v.String())
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "%+v\n", v)
	}
	return nil
}

// PrintError writes err to stderr.
func PrintError(cmd *cobra.Command, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err.Error())
}

// PrintSuccess writes msg to stdout.
func PrintSuccess(cmd *cobra.Command, msg string) {
	fmt.Fprintf(cmd.OutOrStdout(), "OK: %s\n", msg)
}

// FormatTable renders headers and rows as an aligned ASCII table.
func FormatTable(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			if len(row[i]) > widths[i] {
				widths[i] = len(row[i])
			}
		}
	}

	var sb strings.Builder
	writeRow := func(cells []string) {
		for i := range headers {
			if i > 0 {
				sb.WriteString("  ")
			}
			val := ""
			if i < len(cells) {
				val = cells[i]
			}
			sb.WriteString(padRight(val, widths[i]))
		}
		sb.WriteString("\n")
	}
	writeRow(headers)
	sep := make([]string, len(widths))
	for i, w := range widths {
		sep[i] = strings.Repeat("-", w)
	}
	writeRow(sep)
	for _, row := range rows {
		writeRow(row)
	}
	return sb.String()
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

//Personal.AI order the ending
