package auth

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"github.com/spec-kit/portal-gateway/internal/domain"
)

// Clock returns the current time. Tests substitute a fixed clock.
type Clock func() time.Time

// ValidationEntry is a cached outcome of a backend token validation.
type ValidationEntry struct {
	Valid     bool                `json:"valid"`
	User      *domain.UserSummary `json:"user,omitempty"`
	CheckedAt time.Time           `json:"checked_at"`
}

// ValidationCache stores validation outcomes keyed by token.
// Implementations return only entries that are still fresh.
type ValidationCache interface {
	Get(ctx context.Context, token string) (ValidationEntry, bool)
	Set(ctx context.Context, token string, entry ValidationEntry)
}

// MemoryCache is a bounded in-process LRU whose entries go stale after ttl.
type MemoryCache struct {
	entries *lru.Cache
	ttl     time.Duration
	now     Clock
}

// NewMemoryCache builds an LRU-backed cache holding at most size tokens.
func NewMemoryCache(size int, ttl time.Duration, now Clock) (*MemoryCache, error) {
	if size <= 0 {
		size = 10000
	}
	if now == nil {
		now = time.Now
	}
	entries, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("validation cache: %w", err)
	}
	return &MemoryCache{entries: entries, ttl: ttl, now: now}, nil
}

// Get returns the entry for token if it was stored less than ttl ago.
func (m *MemoryCache) Get(_ context.Context, token string) (ValidationEntry, bool) {
	raw, ok := m.entries.Get(token)
	if !ok {
		return ValidationEntry{}, false
	}
	entry, ok := raw.(ValidationEntry)
	if !ok {
		m.entries.Remove(token)
		return ValidationEntry{}, false
	}
	if m.now().Sub(entry.CheckedAt) >= m.ttl {
		m.entries.Remove(token)
		return ValidationEntry{}, false
	}
	return entry, true
}

// Set stores entry, evicting the least recently used token when full.
func (m *MemoryCache) Set(_ context.Context, token string, entry ValidationEntry) {
	m.entries.Add(token, entry)
}

// Len reports the number of tokens currently held, stale or not.
func (m *MemoryCache) Len() int {
	return m.entries.Len()
}
