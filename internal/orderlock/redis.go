package orderlock

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

const lockReleaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

const defaultRetryInterval = 50 * time.Millisecond

// redisLocker is the multi-instance locker: SET NX with a per-holder
// token, released by a compare-and-delete script so an expired holder
// cannot release a successor's lock.
type redisLocker struct {
	client *redis.Client
	script *redis.Script
	ttl    time.Duration
	retry  time.Duration
}

func NewRedisLocker(client *redis.Client, ttl time.Duration) Locker {
	return &redisLocker{
		client: client,
		script: redis.NewScript(lockReleaseScript),
		ttl:    ttl,
		retry:  defaultRetryInterval,
	}
}

func (l *redisLocker) Acquire(ctx context.Context, orderID snowflake.ID) (func(), error) {
	key := fmt.Sprintf("payflow:orderlock:%d", orderID)
	token := uuid.NewString()
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return func() {
				// release must not inherit a canceled request context
				_ = l.script.Run(context.Background(), l.client, []string{key}, token).Err()
			}, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retry):
		}
	}
}
