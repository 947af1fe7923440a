package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"debts/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository stores debts in a single SQLite file.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

// DSN returns the connection string used for dbPath.
func DSN(dbPath string) string {
	return dbPath + "?_pragma=busy_timeout(5000)"
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", DSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(DSN(dbPath)); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	slog.Info("SQLite repository ready", "path", dbPath)

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) ListDebts(ctx context.Context, search string) ([]core.Debt, error) {
	rows, err := r.queries.ListDebts(ctx, search)
	if err != nil {
		return nil, fmt.Errorf("list debts: %w", err)
	}
	out := make([]core.Debt, 0, len(rows))
	for _, row := range rows {
		out = append(out, toCore(row))
	}
	return out, nil
}

func (r *SQLiteRepository) GetDebt(ctx context.Context, id int64) (core.Debt, error) {
	row, err := r.queries.GetDebt(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Debt{}, core.ErrNotFound
	}
	if err != nil {
		return core.Debt{}, fmt.Errorf("get debt %d: %w", id, err)
	}
	return toCore(row), nil
}

// AddOrMerge charges amount to the debt named name, creating it when no
// debt has that exact name. Lookup and write share one transaction.
func (r *SQLiteRepository) AddOrMerge(ctx context.Context, name string, amount float64, day core.Date) (core.Debt, bool, error) {
	var (
		debt    core.Debt
		created bool
	)
	err := r.withTx(ctx, func(q *Queries) error {
		row, err := q.GetDebtByName(ctx, name)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			row, err = q.CreateDebt(ctx, CreateDebtParams{
				Name:            name,
				TotalAmount:     amount,
				RemainingAmount: amount,
				LastUpdated:     day.String(),
			})
			if err != nil {
				return fmt.Errorf("create debt: %w", err)
			}
			debt, created = toCore(row), true
			return nil
		case err != nil:
			return fmt.Errorf("get debt by name: %w", err)
		}

		debt = toCore(row)
		debt.Charge(amount, day)
		return q.UpdateDebtAmounts(ctx, updateParams(debt))
	})
	if err != nil {
		return core.Debt{}, false, err
	}

	slog.InfoContext(ctx, "Debt saved to SQLite",
		"id", debt.ID,
		"name", debt.Name,
		"created", created,
		"total_amount", debt.TotalAmount,
		"remaining_amount", debt.RemainingAmount)

	return debt, created, nil
}

// ApplyChange updates the debt with the given id. found is false when no
// such debt exists, in which case nothing is written.
func (r *SQLiteRepository) ApplyChange(ctx context.Context, id int64, action core.Action, amount float64, day core.Date) (core.Debt, bool, error) {
	var (
		debt  core.Debt
		found bool
	)
	err := r.withTx(ctx, func(q *Queries) error {
		row, err := q.GetDebt(ctx, id)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get debt %d: %w", id, err)
		}
		found = true
		debt = toCore(row)
		debt.Apply(action, amount, day)
		return q.UpdateDebtAmounts(ctx, updateParams(debt))
	})
	if err != nil {
		return core.Debt{}, false, err
	}
	if found {
		slog.InfoContext(ctx, "Debt updated in SQLite",
			"id", debt.ID,
			"action", string(action),
			"amount", amount,
			"remaining_amount", debt.RemainingAmount)
	}
	return debt, found, nil
}

func (r *SQLiteRepository) DeleteDebt(ctx context.Context, id int64) (core.Debt, bool, error) {
	var (
		debt  core.Debt
		found bool
	)
	err := r.withTx(ctx, func(q *Queries) error {
		row, err := q.GetDebt(ctx, id)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get debt %d: %w", id, err)
		}
		n, err := q.DeleteDebt(ctx, id)
		if err != nil {
			return fmt.Errorf("delete debt %d: %w", id, err)
		}
		found = n > 0
		debt = toCore(row)
		return nil
	})
	if err != nil {
		return core.Debt{}, false, err
	}
	if found {
		slog.InfoContext(ctx, "Debt deleted from SQLite", "id", id, "name", debt.Name)
	}
	return debt, found, nil
}

func (r *SQLiteRepository) Stats(ctx context.Context) (core.Stats, error) {
	row, err := r.queries.GetStats(ctx)
	if err != nil {
		return core.Stats{}, fmt.Errorf("get stats: %w", err)
	}
	return core.NewStats(row.TotalDebts, row.TotalAmountOwed, row.TotalRemainingAmount), nil
}

func (r *SQLiteRepository) withTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(r.queries.WithTx(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func updateParams(d core.Debt) UpdateDebtAmountsParams {
	return UpdateDebtAmountsParams{
		ID:              d.ID,
		TotalAmount:     d.TotalAmount,
		RemainingAmount: d.RemainingAmount,
		LastUpdated:     d.LastUpdated.String(),
	}
}

func toCore(row Debt) core.Debt {
	d := core.Debt{
		ID:              row.ID,
		Name:            row.Name,
		TotalAmount:     row.TotalAmount,
		RemainingAmount: row.RemainingAmount,
	}
	// An unreadable date is shown blank rather than failing the whole list.
	if day, err := core.ParseDate(row.LastUpdated); err == nil {
		d.LastUpdated = day
	}
	return d
}
