package domain

import (
	"fmt"
	"strings"
)

// QuoteIDLength is the number of characters in a generated quote ID.
const QuoteIDLength = 4

// QuoteIDAlphabet is the symbol set quote IDs are drawn from.
const QuoteIDAlphabet = "abcdefghijklmnopqrstuvwxyz"

// QuoteType distinguishes text quotes from image quotes.
type QuoteType int

const (
	// QuoteTypeText is a quote whose body is the quoted text.
	QuoteTypeText QuoteType = iota

	// QuoteTypeImage is a quote whose body is an image URL.
	QuoteTypeImage
)

// String returns the wire name of the type.
func (t QuoteType) String() string {
	switch t {
	case QuoteTypeText:
		return "text"
	case QuoteTypeImage:
		return "image"
	default:
		return fmt.Sprintf("QuoteType(%d)", int(t))
	}
}

// Valid reports whether t is one of the known quote types.
func (t QuoteType) Valid() bool {
	return t == QuoteTypeText || t == QuoteTypeImage
}

// ParseQuoteType parses "text" or "image", case-insensitively.
func ParseQuoteType(s string) (QuoteType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text":
		return QuoteTypeText, nil
	case "image":
		return QuoteTypeImage, nil
	default:
		return 0, NewValidationErrorWithValue("type", "must be one of: text image", s)
	}
}

// Quote is a stored text or image record belonging to one tenant.
// Author and Name are optional; the empty string means absent.
type Quote struct {
	TenantID string
	ID       string
	Type     QuoteType
	Body     string
	Author   string
	Name     string
}

// HasAuthor reports whether the quote carries an author.
func (q *Quote) HasAuthor() bool {
	return q.Author != ""
}

// HasName reports whether the quote carries a lookup name.
func (q *Quote) HasName() bool {
	return q.Name != ""
}

// TrimSurroundingQuotes strips one pair of double quotes wrapping the whole
// body, as people often paste quotes already enclosed in them.
func TrimSurroundingQuotes(body string) string {
	if len(body) >= 2 && strings.HasPrefix(body, `"`) && strings.HasSuffix(body, `"`) {
		return body[1 : len(body)-1]
	}

	return body
}
