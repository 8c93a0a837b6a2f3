package dto

import (
	"github.com/jsamuelsen/quotekeeper/internal/app"
	"github.com/jsamuelsen/quotekeeper/internal/domain"
)

// AddQuoteRequest is the body of POST /quotes.
type AddQuoteRequest struct {
	Type   string `json:"type"             validate:"required,oneof=text image"`
	Body   string `json:"body"             validate:"required,notempty,max=4000"`
	Author string `json:"author,omitempty" validate:"max=256"`
	Name   string `json:"name,omitempty"   validate:"max=256"`
}

// ListQuotesRequest is the query of GET /quotes. Exactly one of Type,
// Author or Name selects the listing.
type ListQuotesRequest struct {
	PaginationRequest

	Type   string `form:"type"   validate:"omitempty,oneof=text image"`
	Author string `form:"author"`
	Name   string `form:"name"`
}

// SuggestAuthorsRequest is the query of GET /authors/suggest.
type SuggestAuthorsRequest struct {
	Prefix string `form:"prefix"`
	Limit  int    `form:"limit"  validate:"omitempty,gte=1,lte=100"`
	Strict bool   `form:"strict"`
}

// QuoteResponse is a quote on the wire.
type QuoteResponse struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Body   string `json:"body"`
	Author string `json:"author,omitempty"`
	Name   string `json:"name,omitempty"`
}

// QuoteListResponse is an unpaginated list of quotes.
type QuoteListResponse struct {
	Items []QuoteResponse `json:"items"`
}

// AuthorsResponse lists author names.
type AuthorsResponse struct {
	Authors []string `json:"authors"`
}

// StatsResponse is the tenant's quote counts.
type StatsResponse struct {
	TextQuotes  int `json:"textQuotes"`
	ImageQuotes int `json:"imageQuotes"`
	Authors     int `json:"authors"`
}

// ToQuoteResponse converts a domain quote.
func ToQuoteResponse(q *domain.Quote) QuoteResponse {
	return QuoteResponse{
		ID:     q.ID,
		Type:   q.Type.String(),
		Body:   q.Body,
		Author: q.Author,
		Name:   q.Name,
	}
}

// ToQuoteResponses converts a slice, never returning nil.
func ToQuoteResponses(quotes []domain.Quote) []QuoteResponse {
	out := make([]QuoteResponse, 0, len(quotes))
	for i := range quotes {
		out = append(out, ToQuoteResponse(&quotes[i]))
	}

	return out
}

// ToStatsResponse converts service stats.
func ToStatsResponse(s *app.Stats) StatsResponse {
	return StatsResponse{
		TextQuotes:  s.TextQuotes,
		ImageQuotes: s.ImageQuotes,
		Authors:     s.Authors,
	}
}

// NonNil returns s, or an empty slice when s is nil, so lists encode as [].
func NonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}

	return s
}
