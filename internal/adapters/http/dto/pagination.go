package dto

import (
	"encoding/base64"
	"errors"
)

// ErrInvalidCursor is returned for a cursor this API did not issue.
var ErrInvalidCursor = errors.New("invalid cursor")

// PaginationRequest is the cursor and page size of a list request.
type PaginationRequest struct {
	// Cursor is the opaque NextCursor of the previous page.
	Cursor string `form:"cursor"`

	// Limit is the page size; 0 means the default.
	Limit int `form:"limit" validate:"omitempty,gte=1,lte=100"`
}

// PaginatedResponse is one page of items.
type PaginatedResponse[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"nextCursor,omitempty"`
	HasMore    bool   `json:"hasMore"`
}

// NewPaginatedResponse wraps items and the last returned key. An empty
// lastKey marks the final page.
func NewPaginatedResponse[T any](items []T, lastKey string) *PaginatedResponse[T] {
	if items == nil {
		items = []T{}
	}

	return &PaginatedResponse[T]{
		Items:      items,
		NextCursor: EncodeCursor(lastKey),
		HasMore:    lastKey != "",
	}
}

// EncodeCursor hides the sort key behind URL-safe base64.
func EncodeCursor(key string) string {
	if key == "" {
		return ""
	}

	return base64.RawURLEncoding.EncodeToString([]byte(key))
}

// DecodeCursor reverses EncodeCursor. The empty cursor is the first page.
func DecodeCursor(cursor string) (string, error) {
	if cursor == "" {
		return "", nil
	}

	key, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil || len(key) == 0 {
		return "", ErrInvalidCursor
	}

	return string(key), nil
}
