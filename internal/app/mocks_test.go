package app

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/jsamuelsen/quotekeeper/internal/adapters/storage/memory"
	"github.com/jsamuelsen/quotekeeper/internal/domain"
	"github.com/jsamuelsen/quotekeeper/internal/ports"
)

var (
	_ ports.QuoteStore = (*mockStore)(nil)
	_ ports.ImageHost  = (*mockImageHost)(nil)
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Insert(ctx context.Context, q *domain.Quote) error {
	return m.Called(ctx, q).Error(0)
}

func (m *mockStore) Delete(ctx context.Context, tenantID, id string) (int64, error) {
	args := m.Called(ctx, tenantID, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) FindByID(ctx context.Context, tenantID, id string) (*domain.Quote, error) {
	args := m.Called(ctx, tenantID, id)
	q, _ := args.Get(0).(*domain.Quote)
	return q, args.Error(1)
}

func (m *mockStore) FindByName(ctx context.Context, tenantID, name string) (*domain.Quote, error) {
	args := m.Called(ctx, tenantID, name)
	q, _ := args.Get(0).(*domain.Quote)
	return q, args.Error(1)
}

func (m *mockStore) FindAllByTenant(ctx context.Context, tenantID string) ([]domain.Quote, error) {
	args := m.Called(ctx, tenantID)
	qs, _ := args.Get(0).([]domain.Quote)
	return qs, args.Error(1)
}

func (m *mockStore) FindByAuthor(ctx context.Context, tenantID, author string) ([]domain.Quote, error) {
	args := m.Called(ctx, tenantID, author)
	qs, _ := args.Get(0).([]domain.Quote)
	return qs, args.Error(1)
}

func (m *mockStore) FindByType(ctx context.Context, tenantID string, t domain.QuoteType) ([]domain.Quote, error) {
	args := m.Called(ctx, tenantID, t)
	qs, _ := args.Get(0).([]domain.Quote)
	return qs, args.Error(1)
}

func (m *mockStore) ExistsByID(ctx context.Context, tenantID, id string) (bool, error) {
	args := m.Called(ctx, tenantID, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) AllQuotes(ctx context.Context) ([]domain.Quote, error) {
	args := m.Called(ctx)
	qs, _ := args.Get(0).([]domain.Quote)
	return qs, args.Error(1)
}

type mockImageHost struct {
	mock.Mock
}

func (m *mockImageHost) Rehost(ctx context.Context, sourceURL string) (string, error) {
	args := m.Called(ctx, sourceURL)
	return args.String(0), args.Error(1)
}

// hookStore is a memory store that runs a one-shot callback after Delete or
// FindByAuthor, to interleave work with a service call.
type hookStore struct {
	*memory.Store

	afterDelete       func()
	afterFindByAuthor func()
}

func (s *hookStore) Delete(ctx context.Context, tenantID, id string) (int64, error) {
	n, err := s.Store.Delete(ctx, tenantID, id)
	fire(&s.afterDelete)

	return n, err
}

func (s *hookStore) FindByAuthor(ctx context.Context, tenantID, author string) ([]domain.Quote, error) {
	quotes, err := s.Store.FindByAuthor(ctx, tenantID, author)
	fire(&s.afterFindByAuthor)

	return quotes, err
}

func fire(hook *func()) {
	if h := *hook; h != nil {
		*hook = nil
		h()
	}
}
