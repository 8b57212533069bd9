package resultsync

import (
	"context"
	"time"

	appErr "f1-penca/pkg/errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const lockKey = "penca:resultsync:lock"

// Locker guards a sync run across processes.
type Locker interface {
	Acquire(ctx context.Context) (release func(), err error)
}

type noopLocker struct{}

func (noopLocker) Acquire(context.Context) (func(), error) { return func() {}, nil }

// releaseScript deletes the key only while it still holds our token, so an
// expired lock taken over by another process is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisLocker struct {
	rdb *redis.Client
	key string
	ttl time.Duration
}

// NewRedisLocker returns a process-local no-op locker when rdb is nil.
func NewRedisLocker(rdb *redis.Client, ttl time.Duration) Locker {
	if rdb == nil {
		return noopLocker{}
	}
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &redisLocker{rdb: rdb, key: lockKey, ttl: ttl}
}

func (l *redisLocker) Acquire(ctx context.Context) (func(), error) {
	token := uuid.NewString()
	gotLock, err := l.rdb.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !gotLock {
		return nil, appErr.ErrSyncInProgress
	}
	return func() {
		// the caller's context may already be cancelled
		releaseScript.Run(context.Background(), l.rdb, []string{l.key}, token)
	}, nil
}
