package inmemory

import (
	"context"
	"maps"
	"sync"
	"time"

	fridgedomain "fridge-app-go/internal/domain/fridge"
)

// InMemoryMembershipCache is the single-instance fridge.Cache.
type InMemoryMembershipCache struct {
	mu    sync.RWMutex
	items map[string]membershipItem
	now   func() time.Time
}

type membershipItem struct {
	value     fridgedomain.MembershipMeta
	expiresAt time.Time
}

func NewInMemoryMembershipCache() *InMemoryMembershipCache {
	return &InMemoryMembershipCache{
		items: make(map[string]membershipItem),
		now:   time.Now,
	}
}

func (c *InMemoryMembershipCache) GetMemberships(_ context.Context, userID string) (fridgedomain.MembershipMeta, bool) {
	now := c.now()

	c.mu.RLock()
	item, ok := c.items[userID]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if !item.expiresAt.After(now) {
		c.mu.Lock()
		item, ok = c.items[userID]
		if ok && !item.expiresAt.After(now) {
			delete(c.items, userID)
		}
		c.mu.Unlock()
		return nil, false
	}

	return maps.Clone(item.value), true
}

func (c *InMemoryMembershipCache) SetMemberships(ctx context.Context, userID string, meta fridgedomain.MembershipMeta, ttl time.Duration) {
	if meta == nil || ttl <= 0 {
		c.DeleteMemberships(ctx, userID)
		return
	}

	c.mu.Lock()
	c.items[userID] = membershipItem{
		value:     maps.Clone(meta),
		expiresAt: c.now().Add(ttl),
	}
	c.mu.Unlock()
}

func (c *InMemoryMembershipCache) DeleteMemberships(_ context.Context, userIDs ...string) {
	c.mu.Lock()
	for _, userID := range userIDs {
		delete(c.items, userID)
	}
	c.mu.Unlock()
}

func (c *InMemoryMembershipCache) Clear() {
	c.mu.Lock()
	c.items = make(map[string]membershipItem)
	c.mu.Unlock()
}
