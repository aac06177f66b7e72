package cli

import (
	"context"
	"fmt"
	"os"

	"invoicer/internal/config"
	"invoicer/internal/database"
	"invoicer/internal/export"
	"invoicer/internal/logger"
	"invoicer/internal/repository"
	"invoicer/internal/service"
	"invoicer/internal/storage"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
)

var version = "1.0.0"

// App is the part of the server the command line works on.
type App struct {
	Repos    *repository.Repositories
	Services *service.Services
	Exporter export.Exporter
}

// NewApp builds the repositories and services over store.
func NewApp(store storage.Store, opts repository.Options) *App {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	repos := repository.New(store, opts)
	return &App{
		Repos:    repos,
		Services: service.New(repos, opts.Clock),
		Exporter: export.NewPDFExporter(),
	}
}

// Opener supplies the App once flags are parsed.
type Opener func(ctx context.Context) (*App, error)

// OpenFromConfig opens the store the server is configured with.
func OpenFromConfig(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
		return nil, err
	}
	store, err := database.NewStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.StoreDriver, err)
	}
	return NewApp(store, repository.Options{ProtectLastRecord: cfg.ProtectLastRecord}), nil
}

type env struct {
	open      Opener
	app       *App
	workspace string
}

// workspaceID resolves the --workspace flag, falling back to the current workspace.
func (e *env) workspaceID(ctx context.Context) (string, error) {
	return e.app.Services.Workspaces.Resolve(ctx, e.workspace)
}

// NewRootCommand assembles invoicectl.
func NewRootCommand(open Opener) *cobra.Command {
	e := &env{open: open}

	root := &cobra.Command{
		Use:   "invoicectl",
		Short: "Inspect and maintain the invoice store",
		Long: `invoicectl works directly on the store the API server uses. It reads the same
environment (STORE_DRIVER, SQLITE_PATH, DB_*) and can list workspaces and invoices,
export invoices as PDF, inspect or clear the saved draft and print statistics.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			app, err := e.open(cmd.Context())
			if err != nil {
				return err
			}
			e.app = app
			_, err = app.Services.Workspaces.EnsureDefault(cmd.Context())
			return err
		},
	}
	root.PersistentFlags().StringVarP(&e.workspace, "workspace", "w", "", "Workspace ID (default: the current workspace)")

	root.AddCommand(
		newWorkspacesCommand(e),
		newInvoicesCommand(e),
		newDraftCommand(e),
		newStatsCommand(e),
	)
	return root
}

// Execute runs invoicectl against the configured store.
func Execute() {
	log := logger.WithComponent("cmd")

	root := NewRootCommand(OpenFromConfig)
	if err := root.ExecuteContext(context.Background()); err != nil {
		log.Debug().Err(err).Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
