package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// ErrNotObtained is returned when a Redis lock could not be taken before the
// context deadline (or the lock TTL when ctx has none).
var ErrNotObtained = errors.New("lock not obtained")

// DefaultTTL bounds how long a crashed holder can block a key.
const DefaultTTL = 30 * time.Second

// Redis is a Locker shared between processes through Redis.
type Redis struct {
	client *redislock.Client
	ttl    time.Duration
	retry  redislock.RetryStrategy
	prefix string
}

// NewRedis creates a Redis locker. Keys are stored as "contactsync:lock:<key>".
func NewRedis(rdb redislock.RedisClient, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{
		client: redislock.New(rdb),
		ttl:    ttl,
		retry:  redislock.LinearBackoff(50 * time.Millisecond),
		prefix: "contactsync:lock:",
	}
}

// Dial connects to addr, pings it and returns a Redis locker.
func Dial(ctx context.Context, addr string, ttl time.Duration) (*Redis, *redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, nil, fmt.Errorf("connect redis %s: %w", addr, err)
	}
	return NewRedis(rdb, ttl), rdb, nil
}

// Acquire obtains the Redis lock for key, retrying until ctx is done.
func (r *Redis) Acquire(ctx context.Context, key string) (Release, error) {
	l, err := r.client.Obtain(ctx, r.prefix+key, r.ttl, &redislock.Options{RetryStrategy: r.retry})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("acquire %s: %w", key, ErrNotObtained)
	}
	if err != nil {
		return nil, fmt.Errorf("acquire %s: %w", key, err)
	}

	return func() error {
		if err := l.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			return fmt.Errorf("release %s: %w", key, err)
		}
		return nil
	}, nil
}
