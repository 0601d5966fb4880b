package sweeplock

import (
	"context"
	"time"

	"parking-booking/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const DefaultKey = "parking:sweeper:lease"

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type UnlockFunc func(ctx context.Context) error

// RedisLocker is a lease shared by every instance pointing at the same Redis.
// The TTL bounds how long a crashed holder can block the others.
type RedisLocker struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func NewRedisLocker(client *redis.Client, key string, ttl time.Duration) *RedisLocker {
	return &RedisLocker{client: client, key: key, ttl: ttl}
}

func (l *RedisLocker) TryLock(ctx context.Context) (UnlockFunc, bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, false, errs.Wrap(err, "acquire sweep lease")
	}
	if !ok {
		return nil, false, nil
	}
	return func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{l.key}, token).Err(); err != nil {
			return errs.Wrap(err, "release sweep lease")
		}
		return nil
	}, true, nil
}

// Local always grants the lease; used when no Redis is configured.
type Local struct{}

func (Local) TryLock(context.Context) (UnlockFunc, bool, error) {
	return func(context.Context) error { return nil }, true, nil
}
