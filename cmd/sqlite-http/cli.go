//go:build sqlite_vtable

package main

import (
	"database/sql"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/asg017/sqlite-http/extension"
	"github.com/asg017/sqlite-http/internal/config"
	httpclient "github.com/asg017/sqlite-http/internal/http"
	"github.com/asg017/sqlite-http/internal/settings"
)

// CLI represents the command-line interface
type CLI struct {
	rootCmd *cobra.Command
	out     io.Writer
	errOut  io.Writer

	config *config.Config
	logger *zap.Logger
	db     *sql.DB
}

// NewCLI creates a new CLI writing results to out and diagnostics to errOut
func NewCLI(out, errOut io.Writer) *CLI {
	cli := &CLI{out: out, errOut: errOut}

	cli.rootCmd = &cobra.Command{
		Use:   "sqlite-http",
		Short: "sqlite-http - HTTP requests from SQL",
		Long: `sqlite-http runs SQL against a SQLite database with the http_* functions
and table-valued functions loaded, so requests can be issued, rate limited and
inspected from queries.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cli.initialize()
		},
	}
	cli.rootCmd.SetOut(out)
	cli.rootCmd.SetErr(errOut)

	// Register built-in commands
	cli.registerBuiltinCommands()

	// Set up command line flags
	cli.setupFlags()

	return cli
}

// setupFlags sets up command line flags
func (cli *CLI) setupFlags() {
	flags := cli.rootCmd.PersistentFlags()
	flags.String("config", "sqlite-http.yaml", "Path to configuration file")
	flags.String("db", "", "Database file path (default :memory:)")
	flags.Bool("no-network", false, "Load only the functions that never touch the network")
	flags.Bool("trace", false, "Print one line per HTTP exchange to stderr")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
}

// initialize loads configuration and builds the logger
func (cli *CLI) initialize() error {
	cfg, err := cli.loadConfig()
	if err != nil {
		return err
	}
	cli.config = cfg

	logger, err := newLogger(cfg.Log.Level, cli.errOut)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	cli.logger = logger
	return nil
}

// loadConfig loads configuration from the config file, then applies flags
func (cli *CLI) loadConfig() (*config.Config, error) {
	flags := cli.rootCmd.PersistentFlags()

	path, _ := flags.GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Override with flags
	if dbPath, err := flags.GetString("db"); err == nil && dbPath != "" {
		cfg.Database.Path = dbPath
	}
	if flags.Changed("no-network") {
		cfg.Extension.NoNetwork, _ = flags.GetBool("no-network")
	}
	if logLevel, err := flags.GetString("log-level"); err == nil && logLevel != "" {
		cfg.Log.Level = logLevel
	}

	return cfg, nil
}

// variant returns the registration variant selected by config
func (cli *CLI) variant() extension.Variant {
	if cli.config.Extension.NoNetwork {
		return extension.NoNetwork
	}
	return extension.Full
}

// openDB opens the configured database with sqlite-http loaded
func (cli *CLI) openDB() (*sql.DB, error) {
	if cli.db != nil {
		return cli.db, nil
	}

	scope, err := settings.ParseScope(cli.config.Extension.SettingsScope)
	if err != nil {
		return nil, fmt.Errorf("invalid settings scope: %w", err)
	}

	opts := []extension.Option{
		extension.WithLogger(cli.logger),
		extension.WithScope(scope),
		extension.WithTimeout(time.Duration(cli.config.HTTP.TimeoutMS) * time.Millisecond),
		extension.WithRateLimit(cli.config.HTTP.RateLimit),
		extension.WithUserAgent(cli.config.HTTP.UserAgent),
	}
	if trace, _ := cli.rootCmd.PersistentFlags().GetBool("trace"); trace {
		opts = append(opts, extension.WithHooks(extension.Hooks{
			AfterResponse: cli.traceResponse,
			OnError:       cli.traceError,
		}))
	}

	ext := extension.New(opts...)
	db := ext.OpenDB(cli.config.Database.Path, cli.variant())
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	cli.logger.Debug("database opened",
		zap.String("path", cli.config.Database.Path),
		zap.Stringer("variant", cli.variant()),
		zap.Stringer("scope", scope),
	)
	cli.db = db
	return db, nil
}

func (cli *CLI) traceResponse(resp *httpclient.Response) error {
	fmt.Fprintf(cli.errOut, "%s -> %s (%s)\n",
		resp.Request, resp.Status, resp.Timings.BodyEnd.Sub(resp.Timings.Start).Round(time.Millisecond))
	return nil
}

func (cli *CLI) traceError(req *httpclient.Request, err error) error {
	fmt.Fprintf(cli.errOut, "%s -> %v\n", req, err)
	return nil
}

// Execute executes the CLI
func (cli *CLI) Execute() error {
	return cli.rootCmd.Execute()
}

// SetArgs overrides the command line arguments
func (cli *CLI) SetArgs(args []string) {
	cli.rootCmd.SetArgs(args)
}

// Shutdown closes the database and flushes the logger
func (cli *CLI) Shutdown() error {
	var err error
	if cli.db != nil {
		err = cli.db.Close()
		cli.db = nil
	}
	if cli.logger != nil {
		_ = cli.logger.Sync()
	}
	return err
}

// newLogger builds a console logger at the given level
func newLogger(level string, w io.Writer) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nil, err
	}
	encoderCfg := zap.NewDevelopmentEncoderConfig()
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.AddSync(w),
		lvl,
	)
	return zap.New(core), nil
}
