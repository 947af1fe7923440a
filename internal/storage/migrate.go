package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"debts/internal/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	debtsTable  = "debts"
	backupTable = "debts_backup"
)

// RunMigrations brings the database at dsn to the current schema.
//
// Databases written by the first release keep a single amount column. Those
// are renamed out of the way before the versioned migrations run, and their
// rows are copied into the new table afterwards with both amounts set to the
// old amount.
func RunMigrations(dsn string) error {
	// Create a separate connection for migrations to avoid interfering with the main connection
	migrateDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	defer migrateDB.Close()

	ctx := context.Background()

	legacy, err := isLegacySchema(ctx, migrateDB)
	if err != nil {
		return fmt.Errorf("inspect debts schema: %w", err)
	}
	if legacy {
		slog.Warn("Legacy debts table found, converting to total/remaining schema",
			log.FieldComponent, log.ComponentStorage, log.FieldOperation, log.OpMigrate)
		if _, err := migrateDB.ExecContext(ctx, `ALTER TABLE `+debtsTable+` RENAME TO `+backupTable); err != nil {
			return fmt.Errorf("rename legacy table: %w", err)
		}
	}

	driver, err := sqlite.WithInstance(migrateDB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite driver: %w", err)
	}

	d, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", d, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}

	// A backup left by an interrupted earlier run is picked up here as well.
	hasBackup, err := tableExists(ctx, migrateDB, backupTable)
	if err != nil {
		return fmt.Errorf("check backup table: %w", err)
	}
	if hasBackup {
		n, err := copyLegacyRows(ctx, migrateDB)
		if err != nil {
			return fmt.Errorf("copy legacy rows: %w", err)
		}
		slog.Info("Legacy debts migrated",
			log.FieldComponent, log.ComponentStorage, log.FieldOperation, log.OpMigrate, "rows", n)
	}

	return nil
}

// isLegacySchema reports whether a debts table exists without the
// total_amount/remaining_amount columns.
func isLegacySchema(ctx context.Context, db *sql.DB) (bool, error) {
	cols, err := tableColumns(ctx, db, debtsTable)
	if err != nil {
		return false, err
	}
	if len(cols) == 0 {
		return false, nil
	}
	return !cols["total_amount"] || !cols["remaining_amount"], nil
}

func tableColumns(ctx context.Context, db *sql.DB, table string) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, `SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	cols := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		cols[name] = true
	}
	return cols, rows.Err()
}

func tableExists(ctx context.Context, db *sql.DB, table string) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&n)
	return n > 0, err
}

func copyLegacyRows(ctx context.Context, db *sql.DB) (int64, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `INSERT INTO `+debtsTable+` (id, name, total_amount, remaining_amount, last_updated)
SELECT id, name, amount, amount, last_updated FROM `+backupTable)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx, `DROP TABLE `+backupTable); err != nil {
		return 0, err
	}
	return n, tx.Commit()
}
