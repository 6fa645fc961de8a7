package cache

import (
	"context"
	"sync"
	"time"

	appbilling "github.com/dairybooks/backend/internal/application/billing"
	"github.com/dairybooks/backend/internal/domain/billing"
	"github.com/google/uuid"
)

// InMemoryOutstandingCache implements OutstandingCache with process-local
// storage. Suitable for single-instance deployments and tests; entries expire
// lazily on read.
type InMemoryOutstandingCache struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]outstandingEntry
	ttl     time.Duration
}

type outstandingEntry struct {
	value     billing.CustomerOutstanding
	expiresAt time.Time
}

// NewInMemoryOutstandingCache creates an in-memory outstanding cache with the
// given TTL. A zero TTL means entries never expire.
func NewInMemoryOutstandingCache(ttl time.Duration) *InMemoryOutstandingCache {
	return &InMemoryOutstandingCache{
		entries: make(map[uuid.UUID]outstandingEntry),
		ttl:     ttl,
	}
}

// Get returns the cached outstanding view for a customer
func (c *InMemoryOutstandingCache) Get(_ context.Context, customerID uuid.UUID) (*billing.CustomerOutstanding, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[customerID]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}

	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, customerID)
		c.mu.Unlock()
		return nil, false, nil
	}

	value := entry.value
	return &value, true, nil
}

// Set stores the outstanding view
func (c *InMemoryOutstandingCache) Set(_ context.Context, outstanding *billing.CustomerOutstanding) error {
	var expiresAt time.Time
	if c.ttl > 0 {
		expiresAt = time.Now().Add(c.ttl)
	}

	c.mu.Lock()
	c.entries[outstanding.CustomerID] = outstandingEntry{
		value:     *outstanding,
		expiresAt: expiresAt,
	}
	c.mu.Unlock()
	return nil
}

// Invalidate drops the customer's cached view
func (c *InMemoryOutstandingCache) Invalidate(_ context.Context, customerID uuid.UUID) error {
	c.mu.Lock()
	delete(c.entries, customerID)
	c.mu.Unlock()
	return nil
}

// Flush drops every cached view
func (c *InMemoryOutstandingCache) Flush() {
	c.mu.Lock()
	c.entries = make(map[uuid.UUID]outstandingEntry)
	c.mu.Unlock()
}

// Ensure both implementations satisfy OutstandingCache
var (
	_ appbilling.OutstandingCache = (*InMemoryOutstandingCache)(nil)
	_ appbilling.OutstandingCache = (*RedisOutstandingCache)(nil)
)
