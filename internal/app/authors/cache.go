// Package authors provides the in-memory author prefix-cache: one sorted set
// of distinct author names per tenant, used for existence checks and
// autocomplete without touching the quote store.
//
// Concurrency: a single RWMutex guards every tenant. Mutations take the
// write lock, reads take the read lock, and every public method acquires
// the lock exactly once and releases it with defer. Nothing outside this
// package runs while the lock is held, so no path can re-enter it.
package authors

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"unicode"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jsamuelsen/quotekeeper/internal/domain"
)

// DefaultPrefixLimit is the number of matches PrefixMatches returns when
// the caller passes a non-positive limit.
const DefaultPrefixLimit = 8

// Cache is the per-tenant author index. The zero value is not usable; call New.
type Cache struct {
	mu      sync.RWMutex
	tenants map[string][]string // sorted ordinally, no duplicates, no empty strings
	total   int

	initialized atomic.Bool
	logger      *slog.Logger
	metrics     *metrics
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger used for lifecycle messages.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRegisterer registers the cache's Prometheus collectors on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *Cache) {
		if reg == nil {
			return
		}

		if err := c.metrics.register(reg); err != nil {
			c.logger.Warn("author cache metrics not registered", slog.Any("error", err))
		}
	}
}

// New creates an empty, uninitialized cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		tenants: make(map[string][]string),
		logger:  slog.Default(),
		metrics: newMetrics(),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.logger = c.logger.With(slog.String("component", "authors.Cache"))

	return c
}

// Initialize bulk-loads the cache from a snapshot of every stored quote.
// It is meant to run once during startup, before any request is served,
// and is not safe against concurrent callers. Later calls are no-ops.
func (c *Cache) Initialize(snapshot []domain.Quote) {
	if c.initialized.Load() {
		return
	}

	grouped := make(map[string]map[string]struct{})
	for i := range snapshot {
		q := &snapshot[i]

		set, ok := grouped[q.TenantID]
		if !ok {
			set = make(map[string]struct{})
			grouped[q.TenantID] = set
		}

		if q.HasAuthor() {
			set[q.Author] = struct{}{}
		}
	}

	tenants := make(map[string][]string, len(grouped))
	total := 0

	for tenant, set := range grouped {
		names := slices.Sorted(maps.Keys(set))
		tenants[tenant] = names
		total += len(names)
	}

	c.mu.Lock()
	c.tenants = tenants
	c.total = total
	c.metrics.authors.Set(float64(total))
	c.metrics.tenants.Set(float64(len(tenants)))
	c.mu.Unlock()

	c.initialized.Store(true)

	c.logger.Info("author cache initialized",
		slog.Int("quotes", len(snapshot)),
		slog.Int("tenants", len(tenants)),
		slog.Int("authors", total),
	)
}

// Initialized reports whether Initialize has completed.
func (c *Cache) Initialized() bool {
	return c.initialized.Load()
}

// AddAuthor inserts author into the tenant's set, creating the set if
// needed. Empty or already present authors are ignored.
func (c *Cache) AddAuthor(tenantID, author string) {
	if author == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.metrics.operations.WithLabelValues("add").Inc()

	names, known := c.tenants[tenantID]

	i, found := slices.BinarySearch(names, author)
	if found {
		return
	}

	c.tenants[tenantID] = slices.Insert(names, i, author)
	c.total++
	c.metrics.authors.Set(float64(c.total))

	if !known {
		c.metrics.tenants.Set(float64(len(c.tenants)))
	}
}

// RemoveAuthor removes author from the tenant's set. Unknown tenants and
// absent authors are ignored. The tenant's set stays present, possibly empty.
func (c *Cache) RemoveAuthor(tenantID, author string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.metrics.operations.WithLabelValues("remove").Inc()

	names, ok := c.tenants[tenantID]
	if !ok {
		return
	}

	i, found := slices.BinarySearch(names, author)
	if !found {
		return
	}

	c.tenants[tenantID] = slices.Delete(names, i, i+1)
	c.total--
	c.metrics.authors.Set(float64(c.total))
}

// Contains reports whether the tenant's set holds author exactly.
func (c *Cache) Contains(tenantID, author string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	c.metrics.operations.WithLabelValues("contains").Inc()

	_, found := slices.BinarySearch(c.tenants[tenantID], author)

	return found
}

// PrefixMatches returns up to limit authors of the tenant whose name starts
// with prefix, ignoring case, in the cache's ordinal order.
//
// The scan stops at the first non-matching name after a match. Because the
// set is ordered case-sensitively, a case-insensitive run is not guaranteed
// to be contiguous: for ["Alice", "Bob", "adam"] the prefix "a" yields only
// ["Alice"].
func (c *Cache) PrefixMatches(tenantID, prefix string, limit int) []string {
	if limit <= 0 {
		limit = DefaultPrefixLimit
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	c.metrics.operations.WithLabelValues("prefix").Inc()

	names := c.tenants[tenantID]
	matches := make([]string, 0, min(limit, len(names)))
	matched := false

	for _, name := range names {
		if len(matches) == limit {
			break
		}

		if hasPrefixFold(name, prefix) {
			matched = true
			matches = append(matches, name)

			continue
		}

		if matched {
			break
		}
	}

	c.metrics.prefixResults.Observe(float64(len(matches)))

	return matches
}

// Authors returns a copy of the tenant's whole ordered set.
func (c *Cache) Authors(tenantID string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := c.tenants[tenantID]
	if names == nil {
		return []string{}
	}

	return slices.Clone(names)
}

// Name implements ports.HealthChecker.
func (c *Cache) Name() string {
	return "author-cache"
}

// Check implements ports.HealthChecker. The cache is not ready until the
// startup snapshot has been loaded.
func (c *Cache) Check(_ context.Context) error {
	if !c.Initialized() {
		return domain.NewUnavailableError(c.Name(), "not initialized")
	}

	return nil
}

// hasPrefixFold is strings.HasPrefix under Unicode simple case folding.
func hasPrefixFold(s, prefix string) bool {
	for _, pr := range prefix {
		if s == "" {
			return false
		}

		sr, size := utf8.DecodeRuneInString(s)
		s = s[size:]

		if !equalFoldRune(sr, pr) {
			return false
		}
	}

	return true
}

func equalFoldRune(a, b rune) bool {
	if a == b {
		return true
	}

	for r := unicode.SimpleFold(a); r != a; r = unicode.SimpleFold(r) {
		if r == b {
			return true
		}
	}

	return false
}
