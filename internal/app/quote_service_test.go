package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"math"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quotekeeper/internal/adapters/storage/memory"
	"github.com/jsamuelsen/quotekeeper/internal/app/authors"
	"github.com/jsamuelsen/quotekeeper/internal/domain"
)

const tenant = "guild-1"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// sequence replays values in order and then repeats the last one.
func sequence(values ...int) IDSource {
	i := 0

	return func(n int) int {
		v := values[min(i, len(values)-1)]
		i++

		return v % n
	}
}

type fixture struct {
	svc   *QuoteService
	store *memory.Store
	cache *authors.Cache
}

func newFixture(t *testing.T, cfg QuoteServiceConfig) *fixture {
	t.Helper()

	store := memory.New()
	cache := authors.New(authors.WithLogger(discardLogger()))
	cache.Initialize(nil)

	if cfg.Store == nil {
		cfg.Store = store
	}

	cfg.Cache = cache
	cfg.Logger = discardLogger()

	return &fixture{svc: NewQuoteService(cfg), store: store, cache: cache}
}

func (f *fixture) add(t *testing.T, body, author, name string) *domain.Quote {
	t.Helper()

	q, err := f.svc.AddQuote(context.Background(), AddQuoteInput{
		TenantID: tenant,
		Type:     domain.QuoteTypeText,
		Body:     body,
		Author:   author,
		Name:     name,
	})
	require.NoError(t, err)

	return q
}

func TestNewQuoteService_RequiresDependencies(t *testing.T) {
	assert.Panics(t, func() { NewQuoteService(QuoteServiceConfig{Cache: authors.New()}) })
	assert.Panics(t, func() { NewQuoteService(QuoteServiceConfig{Store: memory.New()}) })

	svc := NewQuoteService(QuoteServiceConfig{Store: memory.New(), Cache: authors.New()})
	assert.Equal(t, authors.DefaultPrefixLimit, svc.prefixLimit)
}

func TestGenerateUniqueID(t *testing.T) {
	t.Run("format", func(t *testing.T) {
		f := newFixture(t, QuoteServiceConfig{})

		id, err := f.svc.GenerateUniqueID(context.Background(), tenant)
		require.NoError(t, err)
		assert.Regexp(t, `^[a-z]{4}$`, id)
	})

	t.Run("skips taken ids", func(t *testing.T) {
		f := newFixture(t, QuoteServiceConfig{IDs: sequence(0, 0, 0, 0, 1, 1, 1, 1, 2)})
		f.store.Seed(domain.Quote{TenantID: tenant, ID: "aaaa", Body: "x"})

		id, err := f.svc.GenerateUniqueID(context.Background(), tenant)
		require.NoError(t, err)
		assert.Equal(t, "bbbb", id)
	})

	t.Run("ids are per tenant", func(t *testing.T) {
		f := newFixture(t, QuoteServiceConfig{IDs: sequence(0)})
		f.store.Seed(domain.Quote{TenantID: "other", ID: "aaaa", Body: "x"})

		id, err := f.svc.GenerateUniqueID(context.Background(), tenant)
		require.NoError(t, err)
		assert.Equal(t, "aaaa", id)
	})

	t.Run("store error", func(t *testing.T) {
		store := &mockStore{}
		boom := errors.New("disk on fire")
		store.On("ExistsByID", mock.Anything, tenant, mock.Anything).Return(false, boom)

		f := newFixture(t, QuoteServiceConfig{Store: store})

		_, err := f.svc.GenerateUniqueID(context.Background(), tenant)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("canceled", func(t *testing.T) {
		f := newFixture(t, QuoteServiceConfig{})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := f.svc.GenerateUniqueID(ctx, tenant)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestAddQuote_Text(t *testing.T) {
	f := newFixture(t, QuoteServiceConfig{})

	q := f.add(t, `"Simplicity is prerequisite for reliability."`, "Dijkstra", "")

	assert.Regexp(t, `^[a-z]{4}$`, q.ID)
	assert.Equal(t, "Simplicity is prerequisite for reliability.", q.Body)
	assert.Equal(t, domain.QuoteTypeText, q.Type)

	stored, err := f.store.FindByID(context.Background(), tenant, q.ID)
	require.NoError(t, err)
	assert.Equal(t, q, stored)

	assert.True(t, f.cache.Contains(tenant, "Dijkstra"))
}

func TestAddQuote_WithoutAuthorLeavesCache(t *testing.T) {
	f := newFixture(t, QuoteServiceConfig{})

	f.add(t, "anonymous wisdom", "", "")

	assert.Empty(t, f.cache.Authors(tenant))
}

func TestAddQuote_Validation(t *testing.T) {
	tests := []struct {
		name  string
		input AddQuoteInput
	}{
		{"missing tenant", AddQuoteInput{Type: domain.QuoteTypeText, Body: "x"}},
		{"unknown type", AddQuoteInput{TenantID: tenant, Type: domain.QuoteType(7), Body: "x"}},
		{"empty body", AddQuoteInput{TenantID: tenant, Type: domain.QuoteTypeText, Body: ""}},
		{"only quote marks", AddQuoteInput{TenantID: tenant, Type: domain.QuoteTypeText, Body: `""`}},
		{"blank image", AddQuoteInput{TenantID: tenant, Type: domain.QuoteTypeImage, Body: "  "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, QuoteServiceConfig{})

			_, err := f.svc.AddQuote(context.Background(), tt.input)

			require.Error(t, err)
			assert.True(t, domain.IsValidation(err))

			step, ok := StepOf(err)
			require.True(t, ok)
			assert.Equal(t, StepValidate, step)

			all, err := f.store.AllQuotes(context.Background())
			require.NoError(t, err)
			assert.Empty(t, all)
		})
	}
}

func TestAddQuote_DuplicateName(t *testing.T) {
	f := newFixture(t, QuoteServiceConfig{})

	first := f.add(t, "first", "Ada", "motto")

	_, err := f.svc.AddQuote(context.Background(), AddQuoteInput{
		TenantID: tenant,
		Type:     domain.QuoteTypeText,
		Body:     "second",
		Author:   "Grace",
		Name:     "motto",
	})

	require.Error(t, err)
	assert.True(t, domain.IsDuplicateName(err))
	assert.True(t, domain.IsConflict(err))

	all, err := f.store.FindAllByTenant(context.Background(), tenant)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, first.ID, all[0].ID)

	assert.False(t, f.cache.Contains(tenant, "Grace"))
}

func TestAddQuote_NameIsPerTenant(t *testing.T) {
	f := newFixture(t, QuoteServiceConfig{})

	f.add(t, "first", "", "motto")

	_, err := f.svc.AddQuote(context.Background(), AddQuoteInput{
		TenantID: "guild-2",
		Type:     domain.QuoteTypeText,
		Body:     "second",
		Name:     "motto",
	})
	assert.NoError(t, err)
}

func TestAddQuote_NameRaceMapsToDuplicate(t *testing.T) {
	store := &mockStore{}
	store.On("FindByName", mock.Anything, tenant, "motto").Return(nil, nil)
	store.On("ExistsByID", mock.Anything, tenant, mock.Anything).Return(false, nil)
	store.On("Insert", mock.Anything, mock.Anything).Return(domain.NewDuplicateNameError(tenant, "motto"))

	f := newFixture(t, QuoteServiceConfig{Store: store})

	_, err := f.svc.AddQuote(context.Background(), AddQuoteInput{
		TenantID: tenant,
		Type:     domain.QuoteTypeText,
		Body:     "late",
		Author:   "Ada",
		Name:     "motto",
	})

	assert.True(t, domain.IsDuplicateName(err))

	step, _ := StepOf(err)
	assert.Equal(t, StepArchive, step)
	assert.False(t, f.cache.Contains(tenant, "Ada"))
	store.AssertNumberOfCalls(t, "Insert", 1)
}

func TestAddQuote_IDRaceRetries(t *testing.T) {
	store := &mockStore{}
	store.On("ExistsByID", mock.Anything, tenant, mock.Anything).Return(false, nil)
	store.On("Insert", mock.Anything, mock.Anything).
		Return(fmt.Errorf("insert: %w", domain.ErrConflict)).Once()
	store.On("Insert", mock.Anything, mock.Anything).Return(nil).Once()

	f := newFixture(t, QuoteServiceConfig{Store: store, IDs: sequence(0, 0, 0, 0, 3)})

	q, err := f.svc.AddQuote(context.Background(), AddQuoteInput{
		TenantID: tenant,
		Type:     domain.QuoteTypeText,
		Body:     "persistent",
	})

	require.NoError(t, err)
	assert.Equal(t, "dddd", q.ID)
	store.AssertNumberOfCalls(t, "Insert", 2)
}

func TestAddQuote_StoreFailure(t *testing.T) {
	store := &mockStore{}
	boom := errors.New("connection reset")
	store.On("ExistsByID", mock.Anything, tenant, mock.Anything).Return(false, nil)
	store.On("Insert", mock.Anything, mock.Anything).Return(boom)

	f := newFixture(t, QuoteServiceConfig{Store: store})

	_, err := f.svc.AddQuote(context.Background(), AddQuoteInput{
		TenantID: tenant,
		Type:     domain.QuoteTypeText,
		Body:     "lost",
		Author:   "Ada",
	})

	assert.ErrorIs(t, err, boom)
	assert.False(t, f.cache.Contains(tenant, "Ada"))
}

func TestAddQuote_Image(t *testing.T) {
	t.Run("rehosted", func(t *testing.T) {
		host := &mockImageHost{}
		host.On("Rehost", mock.Anything, "https://cdn.example/cat.png").
			Return("https://img.example/abc.png", nil)

		f := newFixture(t, QuoteServiceConfig{ImageHost: host})

		q, err := f.svc.AddQuote(context.Background(), AddQuoteInput{
			TenantID: tenant,
			Type:     domain.QuoteTypeImage,
			Body:     "https://cdn.example/cat.png",
		})

		require.NoError(t, err)
		assert.Equal(t, "https://img.example/abc.png", q.Body)
		host.AssertExpectations(t)
	})

	t.Run("no host passes through", func(t *testing.T) {
		f := newFixture(t, QuoteServiceConfig{})

		q, err := f.svc.AddQuote(context.Background(), AddQuoteInput{
			TenantID: tenant,
			Type:     domain.QuoteTypeImage,
			Body:     `"https://cdn.example/cat.png"`,
		})

		require.NoError(t, err)
		assert.Equal(t, `"https://cdn.example/cat.png"`, q.Body, "only text bodies are trimmed")
	})

	t.Run("host unavailable", func(t *testing.T) {
		host := &mockImageHost{}
		host.On("Rehost", mock.Anything, mock.Anything).
			Return("", domain.NewUnavailableError("image-host", "circuit open"))

		f := newFixture(t, QuoteServiceConfig{ImageHost: host})

		_, err := f.svc.AddQuote(context.Background(), AddQuoteInput{
			TenantID: tenant,
			Type:     domain.QuoteTypeImage,
			Body:     "https://cdn.example/cat.png",
			Author:   "Ada",
		})

		assert.True(t, domain.IsUnavailable(err))

		step, _ := StepOf(err)
		assert.Equal(t, StepPerform, step)

		all, _ := f.store.AllQuotes(context.Background())
		assert.Empty(t, all)
		assert.False(t, f.cache.Contains(tenant, "Ada"))
	})

	t.Run("host returns empty url", func(t *testing.T) {
		host := &mockImageHost{}
		host.On("Rehost", mock.Anything, mock.Anything).Return("", nil)

		f := newFixture(t, QuoteServiceConfig{ImageHost: host})

		_, err := f.svc.AddQuote(context.Background(), AddQuoteInput{
			TenantID: tenant,
			Type:     domain.QuoteTypeImage,
			Body:     "https://cdn.example/cat.png",
		})

		step, _ := StepOf(err)
		assert.Equal(t, StepVerify, step)
	})
}

func TestDeleteQuote(t *testing.T) {
	t.Run("absent", func(t *testing.T) {
		f := newFixture(t, QuoteServiceConfig{})

		ok, err := f.svc.DeleteQuote(context.Background(), tenant, "zzzz")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("last quote removes author", func(t *testing.T) {
		f := newFixture(t, QuoteServiceConfig{})
		q := f.add(t, "hello", "zoe", "")

		ok, err := f.svc.DeleteQuote(context.Background(), tenant, q.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		assert.False(t, f.cache.Contains(tenant, "zoe"))
		assert.Empty(t, f.cache.PrefixMatches(tenant, "z", 8))
	})

	t.Run("author kept while quotes remain", func(t *testing.T) {
		f := newFixture(t, QuoteServiceConfig{})
		q := f.add(t, "one", "zoe", "")
		f.add(t, "two", "zoe", "")

		ok, err := f.svc.DeleteQuote(context.Background(), tenant, q.ID)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.True(t, f.cache.Contains(tenant, "zoe"))
	})

	t.Run("frees the name", func(t *testing.T) {
		f := newFixture(t, QuoteServiceConfig{})
		q := f.add(t, "one", "", "motto")

		_, err := f.svc.DeleteQuote(context.Background(), tenant, q.ID)
		require.NoError(t, err)

		f.add(t, "two", "", "motto")
	})

	t.Run("cleanup failure still reports deleted", func(t *testing.T) {
		store := &mockStore{}
		store.On("FindByID", mock.Anything, tenant, "abcd").
			Return(&domain.Quote{TenantID: tenant, ID: "abcd", Body: "x", Author: "zoe"}, nil)
		store.On("Delete", mock.Anything, tenant, "abcd").Return(int64(1), nil)
		store.On("FindByAuthor", mock.Anything, tenant, "zoe").Return(nil, errors.New("timeout"))

		f := newFixture(t, QuoteServiceConfig{Store: store})
		f.cache.AddAuthor(tenant, "zoe")

		ok, err := f.svc.DeleteQuote(context.Background(), tenant, "abcd")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.True(t, f.cache.Contains(tenant, "zoe"))
	})

	t.Run("cleanup outlives a canceled request", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		store := &hookStore{Store: memory.New()}
		store.afterDelete = cancel

		f := newFixture(t, QuoteServiceConfig{Store: store})
		q := f.add(t, "last words", "zoe", "")

		ok, err := f.svc.DeleteQuote(ctx, tenant, q.ID)
		require.NoError(t, err)
		assert.True(t, ok)
		require.Error(t, ctx.Err())

		assert.False(t, f.cache.Contains(tenant, "zoe"))
	})

	t.Run("author restored when a quote lands during cleanup", func(t *testing.T) {
		store := &hookStore{Store: memory.New()}
		f := newFixture(t, QuoteServiceConfig{Store: store})
		q := f.add(t, "one", "zoe", "")

		store.afterFindByAuthor = func() { f.add(t, "two", "zoe", "") }

		ok, err := f.svc.DeleteQuote(context.Background(), tenant, q.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		left, err := store.FindByAuthor(context.Background(), tenant, "zoe")
		require.NoError(t, err)
		require.Len(t, left, 1)
		assert.True(t, f.cache.Contains(tenant, "zoe"))
	})

	t.Run("delete failure", func(t *testing.T) {
		store := &mockStore{}
		boom := errors.New("read-only")
		store.On("FindByID", mock.Anything, tenant, "abcd").
			Return(&domain.Quote{TenantID: tenant, ID: "abcd", Body: "x"}, nil)
		store.On("Delete", mock.Anything, tenant, "abcd").Return(int64(0), boom)

		f := newFixture(t, QuoteServiceConfig{Store: store})

		_, err := f.svc.DeleteQuote(context.Background(), tenant, "abcd")
		assert.ErrorIs(t, err, boom)
	})

	t.Run("validation", func(t *testing.T) {
		f := newFixture(t, QuoteServiceConfig{})

		_, err := f.svc.DeleteQuote(context.Background(), "", "abcd")
		assert.True(t, domain.IsValidation(err))

		_, err = f.svc.DeleteQuote(context.Background(), tenant, "")
		assert.True(t, domain.IsValidation(err))
	})
}

func TestGetRandomQuote(t *testing.T) {
	f := newFixture(t, QuoteServiceConfig{})

	_, err := f.svc.GetRandomQuote(context.Background(), tenant)
	assert.ErrorIs(t, err, domain.ErrNoQuotesFound)

	only := f.add(t, "the only one", "", "")

	for range 20 {
		q, err := f.svc.GetRandomQuote(context.Background(), tenant)
		require.NoError(t, err)
		assert.Equal(t, only.ID, q.ID)
	}
}

func TestGetRandomQuote_UsesSource(t *testing.T) {
	f := newFixture(t, QuoteServiceConfig{})
	f.store.Seed(
		domain.Quote{TenantID: tenant, ID: "aaaa", Body: "a"},
		domain.Quote{TenantID: tenant, ID: "bbbb", Body: "b"},
		domain.Quote{TenantID: tenant, ID: "cccc", Body: "c"},
	)
	f.svc.ids = sequence(2)

	q, err := f.svc.GetRandomQuote(context.Background(), tenant)
	require.NoError(t, err)
	assert.Equal(t, "cccc", q.ID)
}

func TestGetRandomQuoteByAuthor(t *testing.T) {
	f := newFixture(t, QuoteServiceConfig{})
	f.add(t, "one", "Ada", "")
	f.add(t, "two", "Grace", "")

	q, err := f.svc.GetRandomQuoteByAuthor(context.Background(), tenant, "Ada")
	require.NoError(t, err)
	assert.Equal(t, "one", q.Body)

	_, err = f.svc.GetRandomQuoteByAuthor(context.Background(), tenant, "ada")
	assert.ErrorIs(t, err, domain.ErrNoQuotesFound)
}

func TestPointReads(t *testing.T) {
	f := newFixture(t, QuoteServiceConfig{})
	q := f.add(t, "named", "Ada", "motto")

	got, err := f.svc.GetQuoteByID(context.Background(), tenant, q.ID)
	require.NoError(t, err)
	assert.Equal(t, q, got)

	got, err = f.svc.GetQuoteByName(context.Background(), tenant, "motto")
	require.NoError(t, err)
	assert.Equal(t, q.ID, got.ID)

	_, err = f.svc.GetQuoteByID(context.Background(), "guild-2", q.ID)
	assert.True(t, domain.IsNotFound(err))

	_, err = f.svc.GetQuoteByName(context.Background(), tenant, "Motto")
	assert.True(t, domain.IsNotFound(err))

	byAuthor, err := f.svc.GetQuotesByAuthor(context.Background(), tenant, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, byAuthor)
	assert.Empty(t, byAuthor)
}

func TestListQuotesByType(t *testing.T) {
	f := newFixture(t, QuoteServiceConfig{})
	f.store.Seed(
		domain.Quote{TenantID: tenant, ID: "mmmm", Type: domain.QuoteTypeText, Body: "m"},
		domain.Quote{TenantID: tenant, ID: "aaaa", Type: domain.QuoteTypeText, Body: "a"},
		domain.Quote{TenantID: tenant, ID: "bbbb", Type: domain.QuoteTypeImage, Body: "https://img.example/b.png"},
	)

	texts, err := f.svc.ListQuotesByType(context.Background(), tenant, domain.QuoteTypeText)
	require.NoError(t, err)
	require.Len(t, texts, 2)
	assert.Equal(t, "aaaa", texts[0].ID)
	assert.Equal(t, "mmmm", texts[1].ID)

	_, err = f.svc.ListQuotesByType(context.Background(), tenant, domain.QuoteType(9))
	assert.True(t, domain.IsValidation(err))
}

func TestStats(t *testing.T) {
	f := newFixture(t, QuoteServiceConfig{})
	f.add(t, "one", "Ada", "")
	f.add(t, "two", "Ada", "")
	f.add(t, "three", "Grace", "")

	_, err := f.svc.AddQuote(context.Background(), AddQuoteInput{
		TenantID: tenant,
		Type:     domain.QuoteTypeImage,
		Body:     "https://img.example/a.png",
	})
	require.NoError(t, err)

	stats, err := f.svc.Stats(context.Background(), tenant)
	require.NoError(t, err)
	assert.Equal(t, &Stats{TextQuotes: 3, ImageQuotes: 1, Authors: 2}, stats)
}

func TestStats_StoreError(t *testing.T) {
	store := &mockStore{}
	boom := errors.New("gone")
	store.On("FindByType", mock.Anything, tenant, domain.QuoteTypeText).Return([]domain.Quote{}, nil)
	store.On("FindByType", mock.Anything, tenant, domain.QuoteTypeImage).Return(nil, boom)

	f := newFixture(t, QuoteServiceConfig{Store: store})

	_, err := f.svc.Stats(context.Background(), tenant)
	assert.ErrorIs(t, err, boom)
}

func TestSuggestAuthors(t *testing.T) {
	f := newFixture(t, QuoteServiceConfig{PrefixLimit: 2})
	for _, a := range []string{"adam", "alice", "alfred", "bob"} {
		f.cache.AddAuthor(tenant, a)
	}

	tests := []struct {
		name   string
		prefix string
		limit  int
		strict bool
		want   []string
	}{
		{"strict uses default limit", "a", 0, true, []string{"adam", "alfred"}},
		{"strict explicit limit", "al", 5, true, []string{"alfred", "alice"}},
		{"strict no match", "z", 5, true, []string{}},
		{"loose offers new author", "al", 5, false, []string{"al", "alfred", "alice"}},
		{"loose exact match not repeated", "bob", 5, false, []string{"bob"}},
		{"loose unknown", "zed", 5, false, []string{"zed"}},
		{"loose empty prefix", "", 5, false, []string{"adam", "alfred", "alice", "bob"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := f.svc.SuggestAuthors(context.Background(), tenant, tt.prefix, tt.limit, tt.strict)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSuggestAuthors_ExactAuthorBeyondLimit(t *testing.T) {
	f := newFixture(t, QuoteServiceConfig{})
	for i := 1; i <= 8; i++ {
		f.cache.AddAuthor(tenant, fmt.Sprintf("AA%d", i))
	}
	f.cache.AddAuthor(tenant, "aa")

	strict := f.svc.SuggestAuthors(context.Background(), tenant, "aa", 0, true)
	require.Len(t, strict, authors.DefaultPrefixLimit)
	assert.NotContains(t, strict, "aa")

	loose := f.svc.SuggestAuthors(context.Background(), tenant, "aa", 0, false)
	require.Len(t, loose, authors.DefaultPrefixLimit+1)
	assert.Equal(t, "aa", loose[0])
	assert.Equal(t, strict, loose[1:])
}

func TestWarmAuthorCache(t *testing.T) {
	store := memory.New()
	store.Seed(
		domain.Quote{TenantID: "t1", ID: "aaaa", Body: "x", Author: "Ada"},
		domain.Quote{TenantID: "t1", ID: "bbbb", Body: "y", Author: "Ada"},
		domain.Quote{TenantID: "t2", ID: "aaaa", Body: "z", Author: "Grace"},
		domain.Quote{TenantID: "t3", ID: "aaaa", Body: "w"},
	)

	cache := authors.New(authors.WithLogger(discardLogger()))
	svc := NewQuoteService(QuoteServiceConfig{Store: store, Cache: cache, Logger: discardLogger()})

	require.NoError(t, svc.WarmAuthorCache(context.Background()))

	assert.True(t, cache.Initialized())
	assert.Equal(t, []string{"Ada"}, svc.Authors("t1"))
	assert.Equal(t, []string{"Grace"}, svc.Authors("t2"))
	assert.Empty(t, svc.Authors("t3"))
}

func TestWarmAuthorCache_StoreError(t *testing.T) {
	store := &mockStore{}
	store.On("AllQuotes", mock.Anything).Return(nil, errors.New("no table"))

	cache := authors.New()
	svc := NewQuoteService(QuoteServiceConfig{Store: store, Cache: cache, Logger: discardLogger()})

	require.Error(t, svc.WarmAuthorCache(context.Background()))
	assert.False(t, cache.Initialized())
}

// After any mix of adds and deletes the cache holds exactly the distinct
// non-empty authors still stored for the tenant.
func TestAuthorCacheMatchesStore(t *testing.T) {
	f := newFixture(t, QuoteServiceConfig{})
	rng := rand.New(rand.NewPCG(7, 11)) //nolint:gosec // deterministic test data
	pool := []string{"", "Ada", "ada", "Grace", "Émile", "zoe", "Zoe", "bob"}

	var ids []string

	for range 500 {
		if len(ids) > 0 && rng.IntN(3) == 0 {
			i := rng.IntN(len(ids))

			ok, err := f.svc.DeleteQuote(context.Background(), tenant, ids[i])
			require.NoError(t, err)
			require.True(t, ok)

			ids = slices.Delete(ids, i, i+1)

			continue
		}

		q := f.add(t, "body", pool[rng.IntN(len(pool))], "")
		ids = append(ids, q.ID)
	}

	stored, err := f.store.FindAllByTenant(context.Background(), tenant)
	require.NoError(t, err)

	want := make(map[string]struct{})
	for _, q := range stored {
		if q.Author != "" {
			want[q.Author] = struct{}{}
		}
	}

	assert.Equal(t, slices.Sorted(maps.Keys(want)), f.cache.Authors(tenant))
	assert.Equal(t, f.cache.Authors(tenant), f.cache.PrefixMatches(tenant, "", math.MaxInt))
}

func TestAddQuote_UniqueIDs(t *testing.T) {
	if testing.Short() {
		t.Skip("allocates 10,000 quotes")
	}

	f := newFixture(t, QuoteServiceConfig{})
	seen := make(map[string]struct{}, 10_000)

	for range 10_000 {
		q := f.add(t, "x", "", "")

		_, dup := seen[q.ID]
		require.False(t, dup, "duplicate id %q", q.ID)

		seen[q.ID] = struct{}{}
	}
}
