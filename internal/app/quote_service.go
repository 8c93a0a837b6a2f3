// Package app contains the quote use cases. QuoteService owns the
// interplay between the persistent store and the author cache: every
// mutation goes through it so the cache stays equal to the set of distinct
// authors the store holds for each tenant.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/jsamuelsen/quotekeeper/internal/app/authors"
	"github.com/jsamuelsen/quotekeeper/internal/domain"
	"github.com/jsamuelsen/quotekeeper/internal/platform/logging"
	"github.com/jsamuelsen/quotekeeper/internal/ports"
)

// QuoteService orchestrates quote use cases over a store and an author index.
type QuoteService struct {
	store       ports.QuoteStore
	cache       ports.AuthorIndex
	imageHost   ports.ImageHost
	ids         IDSource
	exec        *Executor
	prefixLimit int
	logger      *slog.Logger
}

// QuoteServiceConfig holds the service dependencies. Store and Cache are
// required; ImageHost is optional and image bodies pass through without it.
type QuoteServiceConfig struct {
	Store       ports.QuoteStore
	Cache       ports.AuthorIndex
	ImageHost   ports.ImageHost
	IDs         IDSource
	PrefixLimit int
	Logger      *slog.Logger
}

// NewQuoteService creates the service. It panics when a required dependency
// is missing, since that is a wiring error.
func NewQuoteService(cfg QuoteServiceConfig) *QuoteService {
	if cfg.Store == nil {
		panic("app: QuoteServiceConfig.Store is required")
	}

	if cfg.Cache == nil {
		panic("app: QuoteServiceConfig.Cache is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ids := cfg.IDs
	if ids == nil {
		ids = DefaultIDSource
	}

	limit := cfg.PrefixLimit
	if limit <= 0 {
		limit = authors.DefaultPrefixLimit
	}

	return &QuoteService{
		store:       cfg.Store,
		cache:       cfg.Cache,
		imageHost:   cfg.ImageHost,
		ids:         ids,
		exec:        NewExecutor(logger),
		prefixLimit: limit,
		logger:      logger,
	}
}

// AddQuoteInput describes a quote to add.
type AddQuoteInput struct {
	TenantID string
	Type     domain.QuoteType
	Body     string
	Author   string
	Name     string
}

// AddQuote validates, stores and returns a new quote, then records its
// author in the cache. A duplicate name fails with *domain.DuplicateNameError
// and leaves the store and cache untouched.
func (s *QuoteService) AddQuote(ctx context.Context, input AddQuoteInput) (*domain.Quote, error) {
	op := Operation[AddQuoteInput, string, *domain.Quote, *domain.Quote]{
		Name:     "AddQuote",
		Validate: s.validateAdd,
		Perform:  s.prepareBody,
		Verify: func(_ context.Context, in AddQuoteInput, body string) (*domain.Quote, error) {
			if body == "" {
				return nil, domain.NewValidationError("body", "is empty after processing")
			}

			return &domain.Quote{
				TenantID: in.TenantID,
				Type:     in.Type,
				Body:     body,
				Author:   in.Author,
				Name:     in.Name,
			}, nil
		},
		Archive: func(ctx context.Context, _ AddQuoteInput, q *domain.Quote) error {
			return s.insert(ctx, q)
		},
		Respond: func(ctx context.Context, _ AddQuoteInput, q *domain.Quote) (*domain.Quote, error) {
			if q.HasAuthor() {
				s.cache.AddAuthor(q.TenantID, q.Author)
			}

			logging.FromContextOr(ctx, s.logger).InfoContext(ctx, "quote added",
				slog.String("quote_id", q.ID),
				slog.String("type", q.Type.String()),
			)

			return q, nil
		},
	}

	return Execute(ctx, s.exec, op, input)
}

func (s *QuoteService) validateAdd(ctx context.Context, in AddQuoteInput) error {
	if in.TenantID == "" {
		return domain.NewValidationError("tenant", "is required")
	}

	if !in.Type.Valid() {
		return domain.NewValidationErrorWithValue("type", "must be one of: text image", int(in.Type))
	}

	body := in.Body
	if in.Type == domain.QuoteTypeText {
		body = domain.TrimSurroundingQuotes(body)
	}

	if strings.TrimSpace(body) == "" {
		return domain.NewValidationError("body", "is required")
	}

	if !in.HasName() {
		return nil
	}

	existing, err := s.store.FindByName(ctx, in.TenantID, in.Name)
	if err != nil {
		return fmt.Errorf("looking up quote name: %w", err)
	}

	if existing != nil {
		return domain.NewDuplicateNameError(in.TenantID, in.Name)
	}

	return nil
}

// HasName reports whether the input carries a lookup name.
func (in AddQuoteInput) HasName() bool {
	return in.Name != ""
}

func (s *QuoteService) prepareBody(ctx context.Context, in AddQuoteInput) (string, error) {
	switch in.Type {
	case domain.QuoteTypeText:
		return domain.TrimSurroundingQuotes(in.Body), nil
	case domain.QuoteTypeImage:
		if s.imageHost == nil {
			return in.Body, nil
		}

		url, err := s.imageHost.Rehost(ctx, in.Body)
		if err != nil {
			return "", fmt.Errorf("rehosting image: %w", err)
		}

		return url, nil
	default:
		return "", domain.NewValidationErrorWithValue("type", "must be one of: text image", int(in.Type))
	}
}

// insert allocates an ID and stores q. An ID taken between the existence
// check and the insert is retried with a fresh ID; a name taken in the same
// window surfaces as *domain.DuplicateNameError.
func (s *QuoteService) insert(ctx context.Context, q *domain.Quote) error {
	for {
		id, err := s.GenerateUniqueID(ctx, q.TenantID)
		if err != nil {
			return err
		}

		q.ID = id

		err = s.store.Insert(ctx, q)
		switch {
		case err == nil:
			return nil
		case domain.IsDuplicateName(err):
			return err
		case domain.IsConflict(err):
			logging.FromContextOr(ctx, s.logger).DebugContext(ctx, "quote id taken concurrently, retrying",
				slog.String("quote_id", id),
			)
		default:
			return fmt.Errorf("inserting quote: %w", err)
		}
	}
}

// DeleteQuote removes a quote and reports whether it existed. When the
// quote was its author's last in the tenant, the author leaves the cache.
// A failure of that cleanup lookup is logged and does not fail the delete.
func (s *QuoteService) DeleteQuote(ctx context.Context, tenantID, id string) (bool, error) {
	var deleted int64

	op := Operation[string, *domain.Quote, *domain.Quote, bool]{
		Name: "DeleteQuote",
		Validate: func(_ context.Context, id string) error {
			if tenantID == "" {
				return domain.NewValidationError("tenant", "is required")
			}

			if id == "" {
				return domain.NewValidationError("id", "is required")
			}

			return nil
		},
		Perform: func(ctx context.Context, id string) (*domain.Quote, error) {
			return s.store.FindByID(ctx, tenantID, id)
		},
		Verify: func(_ context.Context, _ string, found *domain.Quote) (*domain.Quote, error) {
			return found, nil
		},
		Archive: func(ctx context.Context, id string, found *domain.Quote) error {
			if found == nil {
				return nil
			}

			n, err := s.store.Delete(ctx, tenantID, id)
			if err != nil {
				return fmt.Errorf("deleting quote: %w", err)
			}

			deleted = n

			return nil
		},
		Respond: func(ctx context.Context, id string, found *domain.Quote) (bool, error) {
			if deleted == 0 {
				return false, nil
			}

			if found.HasAuthor() {
				// The row is gone, so the cache must follow even if the
				// caller has stopped waiting.
				s.cleanupAuthor(context.WithoutCancel(ctx), tenantID, found.Author)
			}

			logging.FromContextOr(ctx, s.logger).InfoContext(ctx, "quote deleted", slog.String("quote_id", id))

			return true, nil
		},
	}

	return Execute(ctx, s.exec, op, id)
}

// cleanupAuthor drops author from the cache once the store holds none of
// its quotes. The store is consulted again after the removal: an AddQuote
// that inserted in between restores the author here, and one that inserts
// later adds it back itself.
func (s *QuoteService) cleanupAuthor(ctx context.Context, tenantID, author string) {
	logger := logging.FromContextOr(ctx, s.logger)

	remaining, err := s.store.FindByAuthor(ctx, tenantID, author)
	if err != nil {
		logger.WarnContext(ctx, "author cleanup lookup failed",
			slog.String("author", author),
			slog.Any("error", err),
		)

		return
	}

	if len(remaining) > 0 {
		return
	}

	s.cache.RemoveAuthor(tenantID, author)

	remaining, err = s.store.FindByAuthor(ctx, tenantID, author)
	if err != nil {
		// The author's next AddQuote restores it.
		logger.WarnContext(ctx, "author cleanup recheck failed",
			slog.String("author", author),
			slog.Any("error", err),
		)

		return
	}

	if len(remaining) > 0 {
		s.cache.AddAuthor(tenantID, author)
	}
}

// GetRandomQuote returns a uniformly chosen quote of the tenant, or
// domain.ErrNoQuotesFound when it has none.
func (s *QuoteService) GetRandomQuote(ctx context.Context, tenantID string) (*domain.Quote, error) {
	quotes, err := s.store.FindAllByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("listing quotes: %w", err)
	}

	return s.pick(quotes)
}

// GetRandomQuoteByAuthor returns a uniformly chosen quote by author, or
// domain.ErrNoQuotesFound when the author has none.
func (s *QuoteService) GetRandomQuoteByAuthor(ctx context.Context, tenantID, author string) (*domain.Quote, error) {
	quotes, err := s.store.FindByAuthor(ctx, tenantID, author)
	if err != nil {
		return nil, fmt.Errorf("listing quotes by author: %w", err)
	}

	return s.pick(quotes)
}

func (s *QuoteService) pick(quotes []domain.Quote) (*domain.Quote, error) {
	if len(quotes) == 0 {
		return nil, domain.ErrNoQuotesFound
	}

	q := quotes[s.ids(len(quotes))]

	return &q, nil
}

// GetQuoteByID returns the quote or a *domain.NotFoundError.
func (s *QuoteService) GetQuoteByID(ctx context.Context, tenantID, id string) (*domain.Quote, error) {
	q, err := s.store.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("finding quote: %w", err)
	}

	if q == nil {
		return nil, domain.NewNotFoundError("quote", id)
	}

	return q, nil
}

// GetQuoteByName returns the quote with the exact name or a *domain.NotFoundError.
func (s *QuoteService) GetQuoteByName(ctx context.Context, tenantID, name string) (*domain.Quote, error) {
	q, err := s.store.FindByName(ctx, tenantID, name)
	if err != nil {
		return nil, fmt.Errorf("finding quote by name: %w", err)
	}

	if q == nil {
		return nil, domain.NewNotFoundError("quote", name)
	}

	return q, nil
}

// GetQuotesByAuthor returns the author's quotes, empty when there are none.
func (s *QuoteService) GetQuotesByAuthor(ctx context.Context, tenantID, author string) ([]domain.Quote, error) {
	quotes, err := s.store.FindByAuthor(ctx, tenantID, author)
	if err != nil {
		return nil, fmt.Errorf("listing quotes by author: %w", err)
	}

	return quotes, nil
}

// ListQuotesByType returns the tenant's quotes of one type ordered by ID.
func (s *QuoteService) ListQuotesByType(ctx context.Context, tenantID string, quoteType domain.QuoteType) ([]domain.Quote, error) {
	if !quoteType.Valid() {
		return nil, domain.NewValidationErrorWithValue("type", "must be one of: text image", int(quoteType))
	}

	quotes, err := s.store.FindByType(ctx, tenantID, quoteType)
	if err != nil {
		return nil, fmt.Errorf("listing quotes by type: %w", err)
	}

	return quotes, nil
}

// Stats summarizes a tenant's quotes.
type Stats struct {
	TextQuotes  int
	ImageQuotes int
	Authors     int
}

// Stats counts the tenant's text and image quotes and its distinct authors.
func (s *QuoteService) Stats(ctx context.Context, tenantID string) (*Stats, error) {
	texts, images, err := Parallel2(ctx,
		func(ctx context.Context) ([]domain.Quote, error) {
			return s.store.FindByType(ctx, tenantID, domain.QuoteTypeText)
		},
		func(ctx context.Context) ([]domain.Quote, error) {
			return s.store.FindByType(ctx, tenantID, domain.QuoteTypeImage)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("counting quotes: %w", err)
	}

	return &Stats{
		TextQuotes:  len(texts),
		ImageQuotes: len(images),
		Authors:     len(s.cache.Authors(tenantID)),
	}, nil
}

// SuggestAuthors completes a partial author name from the cache. In strict
// mode only known authors are returned. Otherwise a non-empty prefix that is
// not among the returned matches is offered first, so callers can name a new
// author or pick an exact one the limit cut off.
// limit <= 0 uses the configured default.
func (s *QuoteService) SuggestAuthors(_ context.Context, tenantID, prefix string, limit int, strict bool) []string {
	if limit <= 0 {
		limit = s.prefixLimit
	}

	matches := s.cache.PrefixMatches(tenantID, prefix, limit)
	if strict || prefix == "" || slices.Contains(matches, prefix) {
		return matches
	}

	return append([]string{prefix}, matches...)
}

// Authors lists the tenant's known authors in order.
func (s *QuoteService) Authors(tenantID string) []string {
	return s.cache.Authors(tenantID)
}

// WarmAuthorCache loads every stored quote into the author cache. It runs
// once at startup before requests are served.
func (s *QuoteService) WarmAuthorCache(ctx context.Context) error {
	quotes, err := s.store.AllQuotes(ctx)
	if err != nil {
		return fmt.Errorf("loading quotes for author cache: %w", err)
	}

	s.cache.Initialize(quotes)

	return nil
}
