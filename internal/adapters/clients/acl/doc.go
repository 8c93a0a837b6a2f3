// Package acl adapts downstream services to the ports the application
// depends on. External payloads and status codes stop here: callers only
// see domain types and domain errors.
//
// Failures map as follows:
//   - transport errors, open breaker, exhausted retries, 429 and 5xx: [domain.ErrUnavailable]
//   - other 4xx: [domain.ErrValidation]
package acl
