// Package memory provides a process-local ports.QuoteStore.
// It backs the "memory" storage driver used by tests and local demos;
// everything is lost on restart.
package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/jsamuelsen/quotekeeper/internal/domain"
)

type key struct {
	tenantID string
	id       string
}

// Store keeps quotes in a map guarded by a RWMutex.
type Store struct {
	mu     sync.RWMutex
	quotes map[key]domain.Quote
	names  map[key]string // (tenant, name) -> id
}

// New creates an empty store.
func New() *Store {
	return &Store{
		quotes: make(map[key]domain.Quote),
		names:  make(map[key]string),
	}
}

// Seed inserts quotes, ignoring conflicts. Intended for tests.
func (s *Store) Seed(quotes ...domain.Quote) {
	for i := range quotes {
		_ = s.Insert(context.Background(), &quotes[i])
	}
}

// Name implements ports.HealthChecker.
func (s *Store) Name() string { return "quote-store" }

// Check implements ports.HealthChecker.
func (s *Store) Check(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }

// Insert implements ports.QuoteStore.
func (s *Store) Insert(ctx context.Context, q *domain.Quote) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k := key{q.TenantID, q.ID}
	if _, ok := s.quotes[k]; ok {
		return fmt.Errorf("insert quote %s/%s: %w", q.TenantID, q.ID, domain.ErrConflict)
	}

	if q.HasName() {
		nk := key{q.TenantID, q.Name}
		if _, ok := s.names[nk]; ok {
			return domain.NewDuplicateNameError(q.TenantID, q.Name)
		}

		s.names[nk] = q.ID
	}

	s.quotes[k] = *q

	return nil
}

// Delete implements ports.QuoteStore.
func (s *Store) Delete(ctx context.Context, tenantID, id string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k := key{tenantID, id}

	q, ok := s.quotes[k]
	if !ok {
		return 0, nil
	}

	delete(s.quotes, k)

	if q.HasName() {
		delete(s.names, key{tenantID, q.Name})
	}

	return 1, nil
}

// FindByID implements ports.QuoteStore.
func (s *Store) FindByID(ctx context.Context, tenantID, id string) (*domain.Quote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	q, ok := s.quotes[key{tenantID, id}]
	if !ok {
		return nil, nil //nolint:nilnil // absence is not an error for lookups
	}

	return &q, nil
}

// FindByName implements ports.QuoteStore.
func (s *Store) FindByName(ctx context.Context, tenantID, name string) (*domain.Quote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.names[key{tenantID, name}]
	if !ok || name == "" {
		return nil, nil //nolint:nilnil // absence is not an error for lookups
	}

	q := s.quotes[key{tenantID, id}]

	return &q, nil
}

// FindAllByTenant implements ports.QuoteStore.
func (s *Store) FindAllByTenant(ctx context.Context, tenantID string) ([]domain.Quote, error) {
	return s.filter(ctx, func(q *domain.Quote) bool { return q.TenantID == tenantID })
}

// FindByAuthor implements ports.QuoteStore.
func (s *Store) FindByAuthor(ctx context.Context, tenantID, author string) ([]domain.Quote, error) {
	return s.filter(ctx, func(q *domain.Quote) bool {
		return q.TenantID == tenantID && q.Author == author
	})
}

// FindByType implements ports.QuoteStore.
func (s *Store) FindByType(ctx context.Context, tenantID string, quoteType domain.QuoteType) ([]domain.Quote, error) {
	return s.filter(ctx, func(q *domain.Quote) bool {
		return q.TenantID == tenantID && q.Type == quoteType
	})
}

// ExistsByID implements ports.QuoteStore.
func (s *Store) ExistsByID(ctx context.Context, tenantID, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.quotes[key{tenantID, id}]

	return ok, nil
}

// AllQuotes implements ports.QuoteStore.
func (s *Store) AllQuotes(ctx context.Context) ([]domain.Quote, error) {
	return s.filter(ctx, func(*domain.Quote) bool { return true })
}

// filter returns matching quotes ordered by tenant, then ID.
func (s *Store) filter(ctx context.Context, keep func(*domain.Quote) bool) ([]domain.Quote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Quote, 0)

	for _, q := range s.quotes {
		if keep(&q) {
			out = append(out, q)
		}
	}

	slices.SortFunc(out, func(a, b domain.Quote) int {
		if c := strings.Compare(a.TenantID, b.TenantID); c != 0 {
			return c
		}

		return strings.Compare(a.ID, b.ID)
	})

	return out, nil
}
