package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/frahmantamala/employee-directory/internal/database"
	"github.com/frahmantamala/employee-directory/pkg/logger"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
)

const migrationTable = "schema_migrations"

var (
	migrateCmd = &cobra.Command{
		RunE:  runMigration,
		Use:   "migrate",
		Short: "Run the SQL migrations under db/migrations/<driver>",
	}
	migrateRollback bool
	migrateDir      string
)

func init() {
	migrateCmd.Flags().BoolVarP(&migrateRollback, "rollback", "r", false, "roll back the latest migration instead of applying pending ones")
	migrateCmd.PersistentFlags().StringVarP(&migrateDir, "dir", "d", "db/migrations", "root directory of the per-driver migration folders")
}

func runMigration(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	logger.Init(cfg.Logging.Format, cfg.Logging.Level)

	db, err := database.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	return migrate(ctx, db, filepath.Join(migrateDir, db.Driver()), migrateRollback)
}

// migrate applies every pending migration in dir, or rolls back the latest one.
func migrate(ctx context.Context, db *database.DB, dir string, rollback bool) error {
	goose.SetTableName(migrationTable)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(db.GooseDialect()); err != nil {
		return fmt.Errorf("goose: %w", err)
	}

	lg := logger.LoggerWrapper()
	if rollback {
		if err := goose.DownContext(ctx, db.SQL.DB, dir); err != nil {
			return fmt.Errorf("goose down: %w", err)
		}
		lg.Info("rolled back latest migration", "dir", dir)
		return nil
	}

	if err := goose.UpContext(ctx, db.SQL.DB, dir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}

	version, err := goose.GetDBVersionContext(ctx, db.SQL.DB)
	if err != nil {
		return fmt.Errorf("goose version: %w", err)
	}
	lg.Info("migrations applied", "dir", dir, "version", version)
	return nil
}
