package fridge

import (
	"context"
	"time"
)

// Cache holds per-user membership metadata. Writers invalidate, readers refill.
type Cache interface {
	GetMemberships(ctx context.Context, userID string) (MembershipMeta, bool)
	SetMemberships(ctx context.Context, userID string, meta MembershipMeta, ttl time.Duration)
	DeleteMemberships(ctx context.Context, userIDs ...string)
}

type noopCache struct{}

func (noopCache) GetMemberships(context.Context, string) (MembershipMeta, bool) {
	return nil, false
}

func (noopCache) SetMemberships(context.Context, string, MembershipMeta, time.Duration) {}

func (noopCache) DeleteMemberships(context.Context, ...string) {}
