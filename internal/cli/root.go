package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/rpggio/bluecarbon/internal/domain/activity"
	"github.com/rpggio/bluecarbon/internal/domain/project"
	"github.com/spf13/cobra"
)

// ProjectStore is the subset of the project service used by the CLI.
type ProjectStore interface {
	EnsureMigrated(ctx context.Context) (project.MigrationResult, error)
	AddProject(ctx context.Context, req project.CreateRequest) (*project.Project, error)
	GetProjectsByStatus(ctx context.Context, status project.Status) []project.Project
	GetProjectsByUser(ctx context.Context, submittedBy string) []project.Project
	GetProjectByID(ctx context.Context, id string) (*project.Project, error)
	UpdateProjectStatus(ctx context.Context, id string, status project.Status, actor string) (*project.Project, error)
	GetProjectStats(ctx context.Context) project.Stats
	ExportProjects(ctx context.Context) ([]byte, error)
	ImportProjects(ctx context.Context, document []byte) (int, error)
	ClearProjects(ctx context.Context) error
}

// ActivityReader lists the activity trail.
type ActivityReader interface {
	GetRecentActivity(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

// App holds references to the services used by CLI commands.
type App struct {
	Projects ProjectStore
	Activity ActivityReader

	// DBPath is the default database location; --db overrides it.
	DBPath string
	// Open wires Projects and Activity against dbPath. It is only called when
	// Projects is unset, and the returned func releases the store.
	Open func(dbPath string) (func() error, error)
	// Logger receives migration warnings. Nil discards them.
	Logger *slog.Logger

	closeStore func() error
}

// Close releases a store opened through Open. Commands that fail skip cobra's
// post-run hooks, so callers close explicitly after Execute.
func (a *App) Close() error {
	if a.closeStore == nil {
		return nil
	}
	closer := a.closeStore
	a.closeStore = nil
	return closer()
}

// migrate brings the store to the current schema before a command reads it.
// Failures are logged; reads on an unmigrated store fail safe.
func (a *App) migrate(ctx context.Context) {
	logger := a.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	result, err := a.Projects.EnsureMigrated(ctx)
	switch {
	case err != nil:
		logger.Warn("schema migration failed", "error", err)
	case result.Performed():
		logger.Info("migrated project storage", "from", result.From, "to", result.To, "projects", result.Migrated)
	}
}

// NewRootCmd creates the top-level "carbonctl" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	var dbPath string

	root := &cobra.Command{
		Use:           "carbonctl",
		Short:         "Operate the blue-carbon project store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if app.Projects == nil && app.Open != nil {
				closer, err := app.Open(dbPath)
				if err != nil {
					return fmt.Errorf("opening store: %w", err)
				}
				app.closeStore = closer
			}
			// migrate reports its own result.
			if app.Projects != nil && cmd.Name() != "migrate" {
				app.migrate(cmd.Context())
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&dbPath, "db", app.DBPath, "Path to the SQLite database")

	root.AddCommand(
		newStatsCmd(app),
		newListCmd(app),
		newShowCmd(app),
		newAddCmd(app),
		newSetStatusCmd(app),
		newExportCmd(app),
		newImportCmd(app),
		newMigrateCmd(app),
		newClearCmd(app),
		newActivityCmd(app),
	)

	return root
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
