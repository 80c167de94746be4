// Package memory is an in-process export destination for development and
// tests.
package memory

import (
	"context"
	"sync"

	"kakeibo/internal/export"
)

type Store struct {
	mu   sync.Mutex
	rows []export.Row
}

var (
	_ export.Writer  = (*Store)(nil)
	_ export.Remover = (*Store)(nil)
)

func New() *Store {
	return &Store{}
}

func (s *Store) Append(_ context.Context, row export.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, row)
	return nil
}

func (s *Store) Remove(_ context.Context, transactionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.rows[:0]
	for _, r := range s.rows {
		if r.Transaction.ID != transactionID {
			kept = append(kept, r)
		}
	}
	s.rows = kept
	return nil
}

// Rows returns a copy of everything exported so far.
func (s *Store) Rows() []export.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]export.Row, len(s.rows))
	copy(out, s.rows)
	return out
}
