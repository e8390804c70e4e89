package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/frahmantamala/employee-directory/internal"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DB bundles the gorm handle used for writes and the sqlx handle used for
// hand-written joins. Both share one *sql.DB pool.
type DB struct {
	Gorm   *gorm.DB
	SQL    *sqlx.DB
	driver string
}

// Open connects using cfg and verifies the connection.
func Open(cfg internal.DatabaseConfig) (*DB, error) {
	var (
		dialector gorm.Dialector
		sqlxName  string
	)

	switch cfg.Driver {
	case DriverPostgres:
		dialector = postgres.Open(cfg.Source)
		sqlxName = "pgx"
	case DriverSQLite:
		dialector = sqlite.Open(cfg.Source)
		sqlxName = "sqlite3"
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// verify connection; close underlying *sql.DB on failure
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{
		Gorm:   gdb,
		SQL:    sqlx.NewDb(sqlDB, sqlxName),
		driver: cfg.Driver,
	}, nil
}

func (d *DB) Driver() string {
	return d.driver
}

// GooseDialect maps the configured driver to the goose dialect name.
func (d *DB) GooseDialect() string {
	if d.driver == DriverSQLite {
		return "sqlite3"
	}
	return "postgres"
}

func (d *DB) Close() error {
	return d.SQL.Close()
}

// IsUniqueViolation reports whether err came from a unique constraint, for
// both gorm (translated) and raw driver errors.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}

	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
