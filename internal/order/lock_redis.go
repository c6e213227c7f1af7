package order

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"namereg/pkg/domain"
	"namereg/pkg/sentinel"
)

// RedisLockStore shares pending markers across replicas through a SET NX key
// per name with the lock TTL. Release is a compare-and-delete so one holder
// can never clear another holder's lock.
type RedisLockStore struct {
	client *redis.Client
}

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

func NewRedisLockStore(client *redis.Client) *RedisLockStore {
	return &RedisLockStore{client: client}
}

func lockKey(name domain.Name) string {
	return "namereg:order:" + name.String()
}

func (s *RedisLockStore) Acquire(ctx context.Context, name domain.Name, holder domain.Principal, ttl time.Duration) error {
	ok, err := s.client.SetNX(ctx, lockKey(name), holder.String(), ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire order lock: %w", err)
	}
	if !ok {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *RedisLockStore) Release(ctx context.Context, name domain.Name, holder domain.Principal) error {
	deleted, err := releaseScript.Run(ctx, s.client, []string{lockKey(name)}, holder.String()).Int()
	if err != nil {
		return fmt.Errorf("release order lock: %w", err)
	}
	if deleted == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
