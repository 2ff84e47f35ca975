package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/pressly/goose/v3"

	"github.com/angelmondragon/foodcart-backend/pkg/logger"
)

const (
	DefaultDir  = "pkg/migrate/migrations"
	embeddedDir = "migrations"
)

// Migrations ships the schema inside the binary so the API and cron worker can
// migrate without the source tree.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// EmbeddedFS returns the migrations rooted at the SQL files.
func EmbeddedFS() fs.FS {
	sub, err := fs.Sub(Migrations, embeddedDir)
	if err != nil {
		// embeddedDir is fixed at compile time.
		panic(err)
	}
	return sub
}

// Runner applies goose migrations from one filesystem to one database.
type Runner struct {
	provider *goose.Provider
	logg     *logger.Logger
}

// NewRunner validates the migration files and prepares a goose provider. A
// nil fsys means the embedded migrations.
func NewRunner(db *sql.DB, fsys fs.FS, logg *logger.Logger) (*Runner, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	if fsys == nil {
		fsys = EmbeddedFS()
	}
	if logg == nil {
		logg = logger.Nop()
	}
	if err := ValidateFS(fsys, "."); err != nil {
		return nil, err
	}
	provider, err := goose.NewProvider(goose.DialectPostgres, db, fsys)
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}
	return &Runner{provider: provider, logg: logg}, nil
}

// DirRunner runs migrations from a directory on disk.
func DirRunner(db *sql.DB, dir string, logg *logger.Logger) (*Runner, error) {
	if dir == "" {
		return nil, fmt.Errorf("dir is required")
	}
	return NewRunner(db, os.DirFS(dir), logg)
}

func (r *Runner) Up(ctx context.Context) error {
	results, err := r.provider.Up(ctx)
	r.logResults(ctx, results)
	if err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// Down rolls back the most recent migration only.
func (r *Runner) Down(ctx context.Context) error {
	result, err := r.provider.Down(ctx)
	if result != nil {
		r.logResults(ctx, []*goose.MigrationResult{result})
	}
	if err != nil {
		return fmt.Errorf("goose down: %w", err)
	}
	return nil
}

// To migrates up or down until the database sits at version.
func (r *Runner) To(ctx context.Context, version string) error {
	target, err := strconv.ParseInt(version, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", version, err)
	}
	current, err := r.provider.GetDBVersion(ctx)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}

	var results []*goose.MigrationResult
	switch {
	case current == target:
		return nil
	case current < target:
		results, err = r.provider.UpTo(ctx, target)
	default:
		results, err = r.provider.DownTo(ctx, target)
	}
	r.logResults(ctx, results)
	if err != nil {
		return fmt.Errorf("goose migrate to %d: %w", target, err)
	}
	return nil
}

// StatusRow is one migration and whether it has been applied.
type StatusRow struct {
	Version int64
	File    string
	Applied bool
}

func (r *Runner) Status(ctx context.Context) ([]StatusRow, error) {
	statuses, err := r.provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("goose status: %w", err)
	}
	rows := make([]StatusRow, 0, len(statuses))
	for _, st := range statuses {
		rows = append(rows, StatusRow{
			Version: st.Source.Version,
			File:    st.Source.Path,
			Applied: st.State == goose.StateApplied,
		})
	}
	return rows, nil
}

func (r *Runner) logResults(ctx context.Context, results []*goose.MigrationResult) {
	for _, res := range results {
		if res == nil || res.Source == nil {
			continue
		}
		entry := r.logg.WithFields(ctx, map[string]any{
			"version":     res.Source.Version,
			"direction":   res.Direction,
			"duration_ms": res.Duration.Milliseconds(),
		})
		if res.Error != nil {
			r.logg.Error(entry, "migrate.step_failed", res.Error)
			continue
		}
		r.logg.Info(entry, "migrate.step_applied")
	}
}
