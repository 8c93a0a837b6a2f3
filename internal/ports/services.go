// Package ports defines the interfaces the application layer depends on.
// Adapters implement them; the app package never imports an adapter.
//
// Conventions:
//   - Context is always the first parameter
//   - Methods return domain types, never driver rows or wire DTOs
//   - Failures are domain errors (ErrUnavailable, ErrDuplicateName, ...)
//     or store faults propagated unchanged
package ports

import (
	"context"

	"github.com/jsamuelsen/quotekeeper/internal/domain"
)

// QuoteStore is the persistent, per-tenant quote store.
//
// Implementations must enforce uniqueness of (tenant, id) and of
// (tenant, name) for non-empty names, and should index (tenant, author)
// and (tenant, type).
type QuoteStore interface {
	// Insert persists a new quote.
	// Returns *domain.DuplicateNameError if the tenant already has a quote
	// with the same non-empty name.
	Insert(ctx context.Context, quote *domain.Quote) error

	// Delete removes the quote and reports how many rows were deleted.
	// Zero means the quote did not exist; that is not an error.
	Delete(ctx context.Context, tenantID, id string) (int64, error)

	// FindByID returns the quote, or nil if absent.
	FindByID(ctx context.Context, tenantID, id string) (*domain.Quote, error)

	// FindByName returns the quote with the exact name, or nil if absent.
	FindByName(ctx context.Context, tenantID, name string) (*domain.Quote, error)

	// FindAllByTenant returns every quote of the tenant.
	FindAllByTenant(ctx context.Context, tenantID string) ([]domain.Quote, error)

	// FindByAuthor returns the tenant's quotes with the exact author.
	FindByAuthor(ctx context.Context, tenantID, author string) ([]domain.Quote, error)

	// FindByType returns the tenant's quotes of one type, ordered by ID.
	FindByType(ctx context.Context, tenantID string, quoteType domain.QuoteType) ([]domain.Quote, error)

	// ExistsByID reports whether the tenant already has a quote with id.
	ExistsByID(ctx context.Context, tenantID, id string) (bool, error)

	// AllQuotes returns every quote across all tenants.
	// Used once at startup to build the author cache.
	AllQuotes(ctx context.Context) ([]domain.Quote, error)
}

// ImageHost re-hosts images on storage the service controls, so image
// quotes keep working after the source link expires.
type ImageHost interface {
	// Rehost copies the image at sourceURL and returns its new URL.
	// Returns domain.ErrUnavailable if the host cannot be reached.
	Rehost(ctx context.Context, sourceURL string) (string, error)
}

// AuthorIndex is the in-memory author set the service keeps in sync with
// the store. It is satisfied by *authors.Cache.
type AuthorIndex interface {
	AddAuthor(tenantID, author string)
	RemoveAuthor(tenantID, author string)
	Contains(tenantID, author string) bool
	PrefixMatches(tenantID, prefix string, limit int) []string
	Authors(tenantID string) []string
	Initialize(snapshot []domain.Quote)
}
