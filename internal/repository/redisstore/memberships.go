package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	fridgedomain "fridge-app-go/internal/domain/fridge"
	"fridge-app-go/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const membershipKeyPrefix = "fridge:memberships:"

// MembershipCache shares membership metadata between API instances. Redis
// failures degrade to cache misses.
type MembershipCache struct {
	client *redis.Client
	log    logger.Logger
}

func NewMembershipCache(client *redis.Client, log logger.Logger) *MembershipCache {
	return &MembershipCache{client: client, log: log}
}

func (c *MembershipCache) GetMemberships(ctx context.Context, userID string) (fridgedomain.MembershipMeta, bool) {
	raw, err := c.client.Get(ctx, membershipKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.log.InternalError("membership cache read failed", err, "user_id", userID)
		return nil, false
	}

	var meta fridgedomain.MembershipMeta
	if err := json.Unmarshal(raw, &meta); err != nil {
		c.log.Warn("membership cache entry unreadable", "user_id", userID, "err", err)
		return nil, false
	}
	if meta == nil {
		meta = fridgedomain.MembershipMeta{}
	}
	return meta, true
}

func (c *MembershipCache) SetMemberships(ctx context.Context, userID string, meta fridgedomain.MembershipMeta, ttl time.Duration) {
	if meta == nil || ttl <= 0 {
		c.DeleteMemberships(ctx, userID)
		return
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, membershipKey(userID), raw, ttl).Err(); err != nil {
		c.log.InternalError("membership cache write failed", err, "user_id", userID)
	}
}

func (c *MembershipCache) DeleteMemberships(ctx context.Context, userIDs ...string) {
	if len(userIDs) == 0 {
		return
	}
	keys := make([]string, 0, len(userIDs))
	for _, userID := range userIDs {
		keys = append(keys, membershipKey(userID))
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.log.InternalError("membership cache invalidation failed", err, "users", len(userIDs))
	}
}

func membershipKey(userID string) string {
	return membershipKeyPrefix + userID
}
