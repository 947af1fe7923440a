package storage

import (
	"context"
	"database/sql"
	"strings"
)

// DBTX is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Debt is the row shape of the debts table. LastUpdated is read as text so
// legacy values written by other tools come back unchanged.
type Debt struct {
	ID              int64
	Name            string
	TotalAmount     float64
	RemainingAmount float64
	LastUpdated     string
}

const debtColumns = `id, name, total_amount, remaining_amount, CAST(last_updated AS TEXT)`

const listDebts = `SELECT ` + debtColumns + ` FROM debts
WHERE ?1 = '' OR name LIKE '%' || ?1 || '%' ESCAPE '\'
ORDER BY CASE WHEN remaining_amount > 0 THEN 0 ELSE 1 END, id DESC`

func (q *Queries) ListDebts(ctx context.Context, search string) ([]Debt, error) {
	rows, err := q.db.QueryContext(ctx, listDebts, escapeLike(search))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Debt
	for rows.Next() {
		var i Debt
		if err := rows.Scan(&i.ID, &i.Name, &i.TotalAmount, &i.RemainingAmount, &i.LastUpdated); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getDebt = `SELECT ` + debtColumns + ` FROM debts WHERE id = ?`

func (q *Queries) GetDebt(ctx context.Context, id int64) (Debt, error) {
	var i Debt
	err := q.db.QueryRowContext(ctx, getDebt, id).Scan(&i.ID, &i.Name, &i.TotalAmount, &i.RemainingAmount, &i.LastUpdated)
	return i, err
}

const getDebtByName = `SELECT ` + debtColumns + ` FROM debts WHERE name = ?`

func (q *Queries) GetDebtByName(ctx context.Context, name string) (Debt, error) {
	var i Debt
	err := q.db.QueryRowContext(ctx, getDebtByName, name).Scan(&i.ID, &i.Name, &i.TotalAmount, &i.RemainingAmount, &i.LastUpdated)
	return i, err
}

type CreateDebtParams struct {
	Name            string
	TotalAmount     float64
	RemainingAmount float64
	LastUpdated     string
}

const createDebt = `INSERT INTO debts (name, total_amount, remaining_amount, last_updated)
VALUES (?, ?, ?, ?)
RETURNING ` + debtColumns

func (q *Queries) CreateDebt(ctx context.Context, arg CreateDebtParams) (Debt, error) {
	var i Debt
	err := q.db.QueryRowContext(ctx, createDebt, arg.Name, arg.TotalAmount, arg.RemainingAmount, arg.LastUpdated).
		Scan(&i.ID, &i.Name, &i.TotalAmount, &i.RemainingAmount, &i.LastUpdated)
	return i, err
}

type UpdateDebtAmountsParams struct {
	ID              int64
	TotalAmount     float64
	RemainingAmount float64
	LastUpdated     string
}

const updateDebtAmounts = `UPDATE debts SET total_amount = ?, remaining_amount = ?, last_updated = ? WHERE id = ?`

func (q *Queries) UpdateDebtAmounts(ctx context.Context, arg UpdateDebtAmountsParams) error {
	_, err := q.db.ExecContext(ctx, updateDebtAmounts, arg.TotalAmount, arg.RemainingAmount, arg.LastUpdated, arg.ID)
	return err
}

const deleteDebt = `DELETE FROM debts WHERE id = ?`

func (q *Queries) DeleteDebt(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteDebt, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type GetStatsRow struct {
	TotalDebts           int64
	TotalAmountOwed      float64
	TotalRemainingAmount float64
}

const getStats = `SELECT COUNT(*), COALESCE(SUM(total_amount), 0.0), COALESCE(SUM(remaining_amount), 0.0) FROM debts`

func (q *Queries) GetStats(ctx context.Context) (GetStatsRow, error) {
	var i GetStatsRow
	err := q.db.QueryRowContext(ctx, getStats).Scan(&i.TotalDebts, &i.TotalAmountOwed, &i.TotalRemainingAmount)
	return i, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes LIKE treat the user's search text literally.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
