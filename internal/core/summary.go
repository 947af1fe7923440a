package core

// Stats aggregates every debt in the store.
type Stats struct {
	TotalDebts           int64
	TotalAmountOwed      float64 // sum of total_amount
	TotalRemainingAmount float64 // sum of remaining_amount
	TotalAmountRepaid    float64
}

// NewStats derives the repaid amount from the two sums.
func NewStats(count int64, owed, remaining float64) Stats {
	return Stats{
		TotalDebts:           count,
		TotalAmountOwed:      owed,
		TotalRemainingAmount: remaining,
		TotalAmountRepaid:    owed - remaining,
	}
}

// Summarize computes Stats over an in-memory slice.
func Summarize(debts []Debt) Stats {
	var owed, remaining float64
	for _, d := range debts {
		owed += d.TotalAmount
		remaining += d.RemainingAmount
	}
	return NewStats(int64(len(debts)), owed, remaining)
}
