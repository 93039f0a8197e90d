package redisstore

import (
	"context"
	"errors"
	"time"

	"fridge-app-go/internal/domain/errs"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

const (
	lockKeyPrefix  = "lock:"
	lockRetryDelay = 50 * time.Millisecond
	lockRetries    = 40
)

// Locker implements inventory.Locker with Redis leases.
type Locker struct {
	client *redislock.Client
}

func NewLocker(client *redis.Client) *Locker {
	return &Locker{client: redislock.New(client)}
}

func (l *Locker) Lock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	lock, err := l.client.Obtain(ctx, lockKeyPrefix+key, ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(lockRetryDelay), lockRetries),
	})
	if err != nil {
		return nil, errs.Transient(err)
	}

	return func(ctx context.Context) error {
		if err := lock.Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			return err
		}
		return nil
	}, nil
}
