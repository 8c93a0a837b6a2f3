package app

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/jsamuelsen/quotekeeper/internal/domain"
)

// IDSource returns a uniform integer in [0, n). It must be safe for
// concurrent use.
type IDSource func(n int) int

// DefaultIDSource draws from the runtime's goroutine-safe generator.
func DefaultIDSource(n int) int {
	return rand.IntN(n) //nolint:gosec // IDs and random picks are not security sensitive
}

func (src IDSource) id() string {
	var b strings.Builder
	b.Grow(domain.QuoteIDLength)

	for range domain.QuoteIDLength {
		b.WriteByte(domain.QuoteIDAlphabet[src(len(domain.QuoteIDAlphabet))])
	}

	return b.String()
}

// GenerateUniqueID draws candidate IDs until one is unused by the tenant.
// There is no attempt cap; the loop ends on success, a store error or
// context cancellation.
func (s *QuoteService) GenerateUniqueID(ctx context.Context, tenantID string) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		id := s.ids.id()

		exists, err := s.store.ExistsByID(ctx, tenantID, id)
		if err != nil {
			return "", fmt.Errorf("checking quote id %q: %w", id, err)
		}

		if !exists {
			return id, nil
		}
	}
}
