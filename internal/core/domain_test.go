package core

import (
	"testing"
)

func TestDebtApply(t *testing.T) {
	day := NewDate(2025, 3, 14)
	cases := []struct {
		name          string
		action        Action
		amount        float64
		wantTotal     float64
		wantRemaining float64
	}{
		{"add", ActionAdd, 20, 100, 100},
		{"subtract", ActionSubtract, 20, 80, 60},
		{"unknown action", Action("double"), 20, 80, 80},
		{"empty action", Action(""), 20, 80, 80},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := Debt{ID: 1, Name: "Bob", TotalAmount: 80, RemainingAmount: 80, LastUpdated: NewDate(2024, 1, 1)}
			d.Apply(tc.action, tc.amount, day)
			if d.TotalAmount != tc.wantTotal || d.RemainingAmount != tc.wantRemaining {
				t.Fatalf("got total=%v remaining=%v, want %v/%v", d.TotalAmount, d.RemainingAmount, tc.wantTotal, tc.wantRemaining)
			}
			if !d.LastUpdated.Equal(day.Time) {
				t.Fatalf("last_updated not stamped: %v", d.LastUpdated)
			}
		})
	}
}

func TestDebtChargeMergesAmounts(t *testing.T) {
	d := Debt{Name: "Bob", TotalAmount: 50, RemainingAmount: 50}
	d.Charge(30, NewDate(2025, 1, 2))
	if d.TotalAmount != 80 || d.RemainingAmount != 80 {
		t.Fatalf("expected 80/80, got %v/%v", d.TotalAmount, d.RemainingAmount)
	}
}

func TestRepaymentCanGoNegative(t *testing.T) {
	d := Debt{TotalAmount: 10, RemainingAmount: 10}
	d.Apply(ActionSubtract, 25, NewDate(2025, 1, 1))
	if d.RemainingAmount != -15 || d.TotalAmount != 10 {
		t.Fatalf("unexpected amounts: %v/%v", d.TotalAmount, d.RemainingAmount)
	}
	if d.Outstanding() {
		t.Fatalf("negative balance should not be outstanding")
	}
}

func TestSortForList(t *testing.T) {
	debts := []Debt{
		{ID: 1, RemainingAmount: 10},
		{ID: 2, RemainingAmount: 0},
		{ID: 3, RemainingAmount: 5},
		{ID: 4, RemainingAmount: -1},
		{ID: 5, RemainingAmount: 0.01},
	}
	SortForList(debts)
	want := []int64{5, 3, 1, 4, 2}
	for i, id := range want {
		if debts[i].ID != id {
			t.Fatalf("position %d: got id %d, want %d (order %v)", i, debts[i].ID, id, debts)
		}
	}
}

func TestMatchesSearch(t *testing.T) {
	cases := []struct {
		name, query string
		want        bool
	}{
		{"Alice", "", true},
		{"Alice", "lic", true},
		{"Alice", "ALI", true},
		{"Alice", "bob", false},
		{"דני", "דנ", true},
		{"Élodie", "ÉLODIE", true},
		{"Élodie", "élodie", false},
		{"Дмитрий", "дмитрий", false},
	}
	for _, tc := range cases {
		if got := MatchesSearch(tc.name, tc.query); got != tc.want {
			t.Fatalf("MatchesSearch(%q, %q) = %v, want %v", tc.name, tc.query, got, tc.want)
		}
	}
}

func TestNormalizeName(t *testing.T) {
	if got, err := NormalizeName("  Bob "); err != nil || got != "Bob" {
		t.Fatalf("expected Bob, got %q (err=%v)", got, err)
	}
	if _, err := NormalizeName("   "); err != ErrEmptyName {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
}

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2023-01-01", "2023-01-01", true},
		{"2023-01-01 10:11:12", "2023-01-01", true},
		{" 2024-02-29 ", "2024-02-29", true},
		{"01/02/2023", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		d, err := ParseDate(tc.in)
		if tc.ok {
			if err != nil || d.String() != tc.want {
				t.Fatalf("%q: expected %s, got %s (err=%v)", tc.in, tc.want, d, err)
			}
		} else if err == nil {
			t.Fatalf("%q: expected error", tc.in)
		}
	}
}

func TestSummarize(t *testing.T) {
	empty := Summarize(nil)
	if empty != (Stats{}) {
		t.Fatalf("expected zero stats for empty input, got %+v", empty)
	}

	s := Summarize([]Debt{
		{TotalAmount: 100, RemainingAmount: 40},
		{TotalAmount: 50, RemainingAmount: 50},
	})
	if s.TotalDebts != 2 || s.TotalAmountOwed != 150 || s.TotalRemainingAmount != 90 || s.TotalAmountRepaid != 60 {
		t.Fatalf("unexpected stats: %+v", s)
	}
}
