// Package cli implements the stocksync command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/rpggio/stocksync/internal/config"
	"github.com/rpggio/stocksync/internal/engine"
	"github.com/rpggio/stocksync/internal/logging"
	"github.com/rpggio/stocksync/internal/mcp"
)

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string
}

// App carries what the commands share: IO streams, configuration and the
// lazily built engine.
type App struct {
	Opts RootOptions

	In  io.Reader
	Out io.Writer
	Err io.Writer

	// LoadConfig defaults to config.Load.
	LoadConfig func() (config.Config, error)

	cfg      config.Config
	logger   *slog.Logger
	closeLog func() error
	eng      *engine.Engine
}

// NewApp creates an App bound to the process streams.
func NewApp() *App {
	return &App{In: os.Stdin, Out: os.Stdout, Err: os.Stderr, LoadConfig: config.Load}
}

// NewRootCommand creates the root command.
func NewRootCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stocksync",
		Short: "Inventory client with optimistic sync",
		Long: `stocksync talks to an inventory API on behalf of one signed-in user.

Configuration comes from STOCKSYNC_CONFIG_PATH, a .env file and
STOCKSYNC_* environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, app.Opts.Format) {
				return WrapExitError(ExitCommandError, "invalid flags", fmt.Errorf("invalid format %q: must be one of %v", app.Opts.Format, ValidFormats))
			}
			return app.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return app.teardown()
		},
	}

	cmd.PersistentFlags().BoolVarP(&app.Opts.Verbose, "verbose", "v", false, "log debug output to stderr")
	cmd.PersistentFlags().StringVar(&app.Opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(
		newItemsCommand(app),
		newTrashCommand(app),
		newAddCommand(app),
		newUpdateCommand(app),
		newMoveCommand(app),
		newDeleteCommand(app),
		newRestoreCommand(app),
		newPurgeCommand(app),
		newHistoryCommand(app),
		newRecentCommand(app),
		newReportCommand(app),
		newUsageCommand(app),
		newWatchCommand(app),
		newMCPCommand(app),
	)
	return cmd
}

// Execute runs the root command and reports failures in the chosen format.
// It returns the process exit code.
func Execute(ctx context.Context, app *App, args []string) int {
	cmd := NewRootCommand(app)
	cmd.SetArgs(args)
	cmd.SetIn(app.In)
	cmd.SetOut(app.Out)
	cmd.SetErr(app.Err)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}
	_ = app.teardown()
	code, message := describe(err)
	out := app.formatter()
	if app.Opts.Format != "json" {
		out.Writer = app.Err
	}
	_ = out.Error(code, message)
	return GetExitCode(err)
}

func (a *App) setup() error {
	cfg, err := a.LoadConfig()
	if err != nil {
		return WrapExitError(ExitCommandError, "loading config", err)
	}
	if a.Opts.Verbose {
		cfg.Log.Level = "debug"
	}
	logger, closeLog, err := logging.New(cfg.Log, a.Err)
	if err != nil {
		return WrapExitError(ExitCommandError, "opening log file", err)
	}
	a.cfg = cfg
	a.logger = logger
	a.closeLog = closeLog
	return nil
}

func (a *App) teardown() error {
	if a.eng != nil {
		a.eng.Close()
		a.eng = nil
	}
	if a.closeLog != nil {
		err := a.closeLog()
		a.closeLog = nil
		return err
	}
	return nil
}

// engine builds the engine on first use.
func (a *App) engine() *engine.Engine {
	if a.eng == nil {
		a.eng = engine.New(a.cfg, engine.WithLogger(a.logger))
	}
	return a.eng
}

func (a *App) formatter() *OutputFormatter {
	return &OutputFormatter{Format: a.Opts.Format, Writer: a.Out}
}

// synced returns the engine after loading both collections, so lifecycle
// checks see server state.
func (a *App) synced(ctx context.Context) (*engine.Engine, error) {
	eng := a.engine()
	if err := eng.Sync(ctx); err != nil {
		return nil, err
	}
	return eng, nil
}

// describe maps an error to a stable code and a user-facing message.
func describe(err error) (string, string) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Code == ExitCommandError {
		return "USAGE", exitErr.Error()
	}
	var apiErr *mcp.APIError
	if errors.As(mcp.MapError(err), &apiErr) {
		return apiErr.Code, apiErr.Message
	}
	return "FAILED", err.Error()
}

func (a *App) newMCPServerConfig() mcp.Config {
	return mcp.Config{Engine: a.engine(), Version: Version, Logger: a.logger, ReportDir: a.cfg.Transport.ReportDir}
}

// Version is set at build time.
var Version = "dev"
