package app

import (
	"context"
	"slices"

	"github.com/jsamuelsen/quotekeeper/internal/domain"
)

// Page sizes for cursor-paginated listings.
const (
	DefaultPageSize = 25
	MaxPageSize     = 100
)

// Page is one slice of an ID-ordered listing. NextCursor is empty on the
// last page.
type Page struct {
	Quotes     []domain.Quote
	NextCursor string
}

// ListQuotesByTypePage returns the quotes of one type whose ID sorts after
// cursor, at most limit of them.
func (s *QuoteService) ListQuotesByTypePage(
	ctx context.Context,
	tenantID string,
	quoteType domain.QuoteType,
	cursor string,
	limit int,
) (*Page, error) {
	quotes, err := s.ListQuotesByType(ctx, tenantID, quoteType)
	if err != nil {
		return nil, err
	}

	return paginate(quotes, cursor, limit), nil
}

// paginate expects quotes ordered by ID.
func paginate(quotes []domain.Quote, cursor string, limit int) *Page {
	switch {
	case limit <= 0:
		limit = DefaultPageSize
	case limit > MaxPageSize:
		limit = MaxPageSize
	}

	start := 0
	if cursor != "" {
		start, _ = slices.BinarySearchFunc(quotes, cursor, func(q domain.Quote, c string) int {
			if q.ID <= c {
				return -1
			}

			return 1
		})
	}

	end := min(start+limit, len(quotes))
	page := &Page{Quotes: slices.Clone(quotes[start:end])}

	if page.Quotes == nil {
		page.Quotes = []domain.Quote{}
	}

	if end < len(quotes) {
		page.NextCursor = quotes[end-1].ID
	}

	return page
}
