package core

import (
	"errors"
	"sort"
	"strings"
	"time"
)

const (
	ActionAdd      Action = "add"
	ActionSubtract Action = "subtract"
)

type (
	// Action is the change requested on an existing debt. Values other than
	// ActionAdd and ActionSubtract are accepted and leave the amounts untouched.
	Action string

	Date struct {
		time.Time
	}

	Debt struct {
		ID              int64
		Name            string
		TotalAmount     float64 // cumulative sum of every charge
		RemainingAmount float64 // still owed, may go negative
		LastUpdated     Date
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrEmptyName     = errors.New("empty name")
	ErrNotFound      = errors.New("debt not found")
)

const dateLayout = "2006-01-02"

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate reads a YYYY-MM-DD value. Anything after the day (a time
// component written by another tool) is ignored.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (a Action) IsKnown() bool {
	return a == ActionAdd || a == ActionSubtract
}

// Outstanding reports whether anything is still owed.
func (d Debt) Outstanding() bool {
	return d.RemainingAmount > 0
}

// Charge adds amount to both totals. Used when a name that already exists is
// submitted again.
func (d *Debt) Charge(amount float64, day Date) {
	d.TotalAmount += amount
	d.RemainingAmount += amount
	d.LastUpdated = day
}

// Apply performs a charge or repayment. The date is stamped for any action.
func (d *Debt) Apply(action Action, amount float64, day Date) {
	switch action {
	case ActionAdd:
		d.TotalAmount += amount
		d.RemainingAmount += amount
	case ActionSubtract:
		d.RemainingAmount -= amount
	}
	d.LastUpdated = day
}

// SortForList orders outstanding debts before settled ones, newest first
// within each group.
func SortForList(debts []Debt) {
	sort.SliceStable(debts, func(i, j int) bool {
		oi, oj := debts[i].Outstanding(), debts[j].Outstanding()
		if oi != oj {
			return oi
		}
		return debts[i].ID > debts[j].ID
	})
}

// MatchesSearch reports whether name contains query. Case is ignored for
// ASCII letters only, the way SQLite LIKE compares text.
func MatchesSearch(name, query string) bool {
	if query == "" {
		return true
	}
	return strings.Contains(asciiLower(name), asciiLower(query))
}

func asciiLower(s string) string {
	return strings.Map(func(r rune) rune {
		if 'A' <= r && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return r
	}, s)
}

// NormalizeName trims the submitted name and rejects blank values.
func NormalizeName(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmptyName
	}
	return s, nil
}
