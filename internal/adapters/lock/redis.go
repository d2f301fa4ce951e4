package lock

import (
	"context"
	"log/slog"
	"time"

	"github.com/SscSPs/rosca_app/internal/apperrors"
	portsrepo "github.com/SscSPs/rosca_app/internal/core/ports/repositories"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	groupLockKeyPrefix = "rosca:group:lock:"
	defaultRetryEvery  = 25 * time.Millisecond
)

// releaseScript deletes the lock only if it still holds our token, so a holder
// whose TTL expired never frees a lock now owned by someone else.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a distributed per-group lock for multi-instance deployments.
type RedisLocker struct {
	client     redis.UniversalClient
	ttl        time.Duration
	wait       time.Duration
	retryEvery time.Duration
	logger     *slog.Logger
}

// NewRedisLocker builds a locker. ttl bounds how long a crashed holder can
// block the group; wait bounds how long Lock polls before reporting GROUP_BUSY.
// A nil logger uses slog.Default.
func NewRedisLocker(client redis.UniversalClient, ttl, wait time.Duration, logger *slog.Logger) *RedisLocker {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisLocker{
		client:     client,
		ttl:        ttl,
		wait:       wait,
		retryEvery: defaultRetryEvery,
		logger:     logger.With(slog.String("component", "group_lock")),
	}
}

var _ portsrepo.GroupLocker = (*RedisLocker)(nil)

// BuildGroupLockKey returns the redis key guarding groupID.
func BuildGroupLockKey(groupID string) string {
	return groupLockKeyPrefix + groupID
}

// Lock acquires the group lock with SET NX PX, polling until wait elapses.
func (l *RedisLocker) Lock(ctx context.Context, groupID string) (func(), error) {
	logger := l.logger.With(slog.String("group_id", groupID))
	key := BuildGroupLockKey(groupID)
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		locked, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			logger.Error("Failed to acquire group lock", slog.String("error", err.Error()))
			return nil, apperrors.Wrap(apperrors.KindGroupBusy, "failed to acquire group lock", err)
		}
		if locked {
			break
		}
		if time.Now().After(deadline) {
			logger.Warn("Group is locked by another operation")
			return nil, apperrors.ErrGroupBusy
		}
		select {
		case <-ctx.Done():
			return nil, apperrors.Wrap(apperrors.KindGroupBusy, "timed out waiting for group lock", ctx.Err())
		case <-time.After(l.retryEvery):
		}
	}

	return func() {
		// Release on a fresh context so a cancelled request still frees the lock.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil {
			logger.Warn("Failed to release group lock", slog.String("error", err.Error()))
		}
	}, nil
}
