package repository

import (
	"context"

	"debts/internal/core"
)

// Ports implemented by the debt stores.
type (
	DebtReader interface {
		// ListDebts returns debts whose name contains search (case-insensitive),
		// outstanding first and newest first within each group.
		ListDebts(ctx context.Context, search string) ([]core.Debt, error)
		GetDebt(ctx context.Context, id int64) (core.Debt, error)
	}

	DebtWriter interface {
		// AddOrMerge charges amount to the debt named name, creating it when
		// absent. created reports whether a new record was inserted.
		AddOrMerge(ctx context.Context, name string, amount float64, day core.Date) (debt core.Debt, created bool, err error)
		// ApplyChange loads the debt, applies the action and stores it. found is
		// false when no debt has that id.
		ApplyChange(ctx context.Context, id int64, action core.Action, amount float64, day core.Date) (debt core.Debt, found bool, err error)
		// DeleteDebt removes the debt and returns it as it was. found is false
		// when no debt has that id.
		DeleteDebt(ctx context.Context, id int64) (debt core.Debt, found bool, err error)
	}

	// StatsReader aggregates over every stored debt.
	StatsReader interface {
		Stats(ctx context.Context) (core.Stats, error)
	}

	Repository interface {
		DebtReader
		DebtWriter
		StatsReader
		Ping(ctx context.Context) error
		Close() error
	}
)
