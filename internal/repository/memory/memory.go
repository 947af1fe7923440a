package memory

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"debts/internal/core"
)

// Store keeps debts in process memory. Ids are assigned from a counter that
// never goes back, so a deleted id is not reused.
type Store struct {
	mu     sync.Mutex
	nextID int64
	items  []core.Debt
}

func New() *Store {
	return &Store{nextID: 1}
}

// NewFromFiles seeds the store from base/seed_debts.txt, one "name,amount"
// pair per line. Missing or malformed files yield an empty store.
func NewFromFiles(base string) *Store {
	s := New()
	today := core.DateOf(time.Now())
	for _, line := range readLines(filepath.Join(base, "seed_debts.txt")) {
		name, amountStr, ok := strings.Cut(line, ",")
		if !ok {
			continue
		}
		name, err := core.NormalizeName(name)
		if err != nil {
			continue
		}
		amount, err := core.ParseAmount(amountStr)
		if err != nil {
			continue
		}
		_, _, _ = s.AddOrMerge(context.Background(), name, amount, today)
	}
	return s
}

func (s *Store) ListDebts(_ context.Context, search string) ([]core.Debt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Debt, 0, len(s.items))
	for _, d := range s.items {
		if core.MatchesSearch(d.Name, search) {
			out = append(out, d)
		}
	}
	core.SortForList(out)
	return out, nil
}

func (s *Store) GetDebt(_ context.Context, id int64) (core.Debt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return s.items[i], nil
	}
	return core.Debt{}, core.ErrNotFound
}

func (s *Store) AddOrMerge(_ context.Context, name string, amount float64, day core.Date) (core.Debt, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].Name == name {
			s.items[i].Charge(amount, day)
			return s.items[i], false, nil
		}
	}
	d := core.Debt{
		ID:              s.nextID,
		Name:            name,
		TotalAmount:     amount,
		RemainingAmount: amount,
		LastUpdated:     day,
	}
	s.nextID++
	s.items = append(s.items, d)
	return d, true, nil
}

func (s *Store) ApplyChange(_ context.Context, id int64, action core.Action, amount float64, day core.Date) (core.Debt, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return core.Debt{}, false, nil
	}
	s.items[i].Apply(action, amount, day)
	return s.items[i], true, nil
}

func (s *Store) DeleteDebt(_ context.Context, id int64) (core.Debt, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return core.Debt{}, false, nil
	}
	d := s.items[i]
	s.items = append(s.items[:i], s.items[i+1:]...)
	return d, true, nil
}

func (s *Store) Stats(_ context.Context) (core.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.Summarize(s.items), nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

// String is used in startup logs.
func (s *Store) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("memory(%d debts)", len(s.items))
}

func (s *Store) indexOf(id int64) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}
