// Package clients provides the instrumented HTTP client used for downstream
// services. Its errors describe transport failures; adapters in package acl
// translate them into domain errors.
package clients

import "errors"

var (
	// ErrCircuitOpen is returned without a network call while the breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrMaxRetriesExceeded wraps the last failure once every attempt is used.
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
)
