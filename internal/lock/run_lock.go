package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/spacesedan/tokharvest/internal/clients"
	"github.com/valkey-io/valkey-go"
)

const (
	KEY_PREFIX  = "tokharvest:lock:"
	DEFAULT_TTL = 20 * time.Minute
)

var ErrLockHeld = errors.New("[RunLock] another run holds the lock")

var releaseScript = valkey.NewLuaScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// RunLock keeps two runs from writing the same table location at once.
type RunLock struct {
	client valkey.Client
	key    string
	ttl    time.Duration
	token  string
}

func NewRunLock(client valkey.Client, location string, ttl time.Duration) *RunLock {
	if ttl <= 0 {
		ttl = DEFAULT_TTL
	}
	return &RunLock{client: client, key: KEY_PREFIX + location, ttl: ttl}
}

func (l *RunLock) Key() string {
	return l.key
}

func (l *RunLock) Acquire(ctx context.Context) error {
	token := uuid.NewString()
	res := clients.DoWithRetry(ctx, l.client, func() valkey.Completed {
		return l.client.B().Set().Key(l.key).Value(token).Nx().PxMilliseconds(l.ttl.Milliseconds()).Build()
	}, 3)

	if err := res.Error(); err != nil {
		if valkey.IsValkeyNil(err) {
			return ErrLockHeld
		}
		return fmt.Errorf("[RunLock] failed to acquire %s: %w", l.key, err)
	}

	l.token = token
	slog.Info("[RunLock] Lock acquired", slog.String("key", l.key), slog.Duration("ttl", l.ttl))
	return nil
}

// Release deletes the lock only if this holder still owns it.
func (l *RunLock) Release(ctx context.Context) error {
	if l.token == "" {
		return nil
	}
	n, err := releaseScript.Exec(ctx, l.client, []string{l.key}, []string{l.token}).AsInt64()
	if err != nil {
		return fmt.Errorf("[RunLock] failed to release %s: %w", l.key, err)
	}
	if n == 0 {
		slog.Warn("[RunLock] Lock expired before release", slog.String("key", l.key))
	} else {
		slog.Info("[RunLock] Lock released", slog.String("key", l.key))
	}
	l.token = ""
	return nil
}
