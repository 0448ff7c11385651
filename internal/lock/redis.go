package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`)

// RedisLocker keeps locks in Redis using SET NX PX
type RedisLocker struct {
	client redis.UniversalClient
	prefix string
}

var _ Locker = (*RedisLocker)(nil)

// NewRedisLocker creates a Redis-backed Locker. Keys are namespaced with prefix.
func NewRedisLocker(client redis.UniversalClient, prefix string) *RedisLocker {
	return &RedisLocker{client: client, prefix: prefix}
}

func (r *RedisLocker) key(key string) string {
	if r.prefix == "" {
		return key
	}
	return r.prefix + ":" + key
}

// Acquire implements Locker
func (r *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	ok, err := r.client.SetNX(ctx, r.key(key), token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Release implements Locker
func (r *RedisLocker) Release(ctx context.Context, key, token string) (bool, error) {
	deleted, err := releaseScript.Run(ctx, r.client, []string{r.key(key)}, token).Int64()
	if err != nil {
		return false, fmt.Errorf("failed to release lock %s: %w", key, err)
	}
	return deleted == 1, nil
}

// ForceRelease implements Locker
func (r *RedisLocker) ForceRelease(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to force release lock %s: %w", key, err)
	}
	return nil
}
