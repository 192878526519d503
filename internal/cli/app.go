// Package cli wires the program's cobra command tree to its Config,
// Logger, and Catalog: a shared Application value threaded through
// cobra's PersistentPreRunE chain, never a package-level global.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/akgrant43/storagemgr/internal/catalog"
	"github.com/akgrant43/storagemgr/internal/config"
	"github.com/akgrant43/storagemgr/internal/logger"
)

// Application holds the values every subcommand needs: configuration,
// logging, and the open catalog. Built once in main and passed down.
type Application struct {
	cfg     config.Config
	dbPath  string
	level   string
	noColor bool
	debug   bool
	dryRun  bool

	log *logger.Logger
	cat *catalog.Catalog
}

// NewApplication builds an empty Application; AddAppFlags and StartApp
// populate it from CLI flags and the environment.
func NewApplication() *Application {
	return &Application{}
}

func (a *Application) Config() *config.Config    { return &a.cfg }
func (a *Application) Log() *logger.Logger       { return a.log }
func (a *Application) Catalog() *catalog.Catalog { return a.cat }
func (a *Application) DryRun() bool              { return a.dryRun }

// RunEFunction is a setup step run during cobra's PersistentPreRunE
// chain, given the Application it should populate.
type RunEFunction func(ctx context.Context, cmd *cobra.Command, app *Application) error

// ChainRunEFunctions composes a cobra PersistentPreRunE with an
// additional RunEFunction, so each layer of the command tree can add its
// own setup without overwriting a parent's, mirroring immich-go's
// AddClientFlags/StartClient composition.
func ChainRunEFunctions(previous func(cmd *cobra.Command, args []string) error, fn RunEFunction, ctx context.Context, cmd *cobra.Command, app *Application) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if previous != nil {
			if err := previous(cmd, args); err != nil {
				return err
			}
		}
		return fn(ctx, cmd, app)
	}
}

// AddAppFlags registers the persistent flags every subcommand shares and
// chains StartApp onto the root command's PersistentPreRunE.
func AddAppFlags(ctx context.Context, cmd *cobra.Command, app *Application) {
	cmd.PersistentFlags().StringVar(&app.dbPath, "db", "", "catalog database path (defaults to STORAGEMGR_DB_PATH or ~/.storagemgr/storagemgr.db)")
	cmd.PersistentFlags().StringVar(&app.level, "log-level", "info", "log level: error, warning, ok, info, debug")
	cmd.PersistentFlags().BoolVar(&app.noColor, "no-colors", false, "disable colored console output")
	cmd.PersistentFlags().BoolVar(&app.debug, "debug", false, "enable debug logging")
	cmd.PersistentFlags().BoolVar(&app.dryRun, "dry-run", false, "report what would happen without changing files on disk or file records in the catalog")

	cmd.PersistentPreRunE = ChainRunEFunctions(cmd.PersistentPreRunE, StartApp, ctx, cmd, app)

	previous := cmd.PersistentPostRunE
	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if previous != nil {
			if err := previous(cmd, args); err != nil {
				return err
			}
		}
		return app.Close()
	}
}

// Close releases the Application's open resources. Safe to call even if
// StartApp never ran.
func (a *Application) Close() error {
	if a.cat == nil {
		return nil
	}
	return a.cat.Close()
}

// StartApp loads the Config, constructs the Logger, and opens the
// Catalog. Safe to call more than once across a PersistentPreRunE chain;
// later calls are no-ops once the catalog is open.
func StartApp(ctx context.Context, cmd *cobra.Command, app *Application) error {
	if app.cat != nil {
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if app.dbPath != "" {
		cfg.DBPath = app.dbPath
	}
	app.cfg = cfg

	level, err := logger.StringToLevel(app.level)
	if err != nil {
		return err
	}
	app.log = logger.NewLogger(level, app.noColor, app.debug)

	cat, err := catalog.Open(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	app.cat = cat
	return nil
}
