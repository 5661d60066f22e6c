package memory

import (
	"context"
	"fmt"
	"sync"

	"finboard/internal/sheets"
)

// Store keeps exported rows in memory, keyed like the Google sheet names.
type Store struct {
	mu     sync.Mutex
	sheets map[string][][]any
	writes int
}

var _ sheets.ReportWriter = (*Store)(nil)

func New() *Store {
	return &Store{sheets: map[string][][]any{}}
}

// WriteReport replaces the month's budget rows and appends its transactions.
func (s *Store) WriteReport(_ context.Context, r sheets.Report) ([]string, error) {
	if r.Month < 1 || r.Month > 12 {
		return nil, fmt.Errorf("invalid month: %d", r.Month)
	}
	budgetSheet := fmt.Sprintf("%d Budgets/%02d", r.Year, r.Month)
	txSheet := fmt.Sprintf("%d Transactions", r.Year)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sheets[budgetSheet] = sheets.BudgetRows(r)
	if len(s.sheets[txSheet]) == 0 {
		s.sheets[txSheet] = [][]any{sheets.TransactionHeader}
	}
	s.sheets[txSheet] = append(s.sheets[txSheet], sheets.TransactionRows(r)[1:]...)
	s.writes++
	return []string{fmt.Sprintf("mem:%s", budgetSheet), fmt.Sprintf("mem:%s", txSheet)}, nil
}

// Rows returns a copy of the rows stored under name.
func (s *Store) Rows(name string) [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]any(nil), s.sheets[name]...)
}

// Writes counts successful WriteReport calls.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
