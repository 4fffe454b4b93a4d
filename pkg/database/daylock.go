package database

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/buildyoursite/buildyoursite-engine/pkg/retry"
)

// ErrLockHeld is returned by DayLocker.Acquire when another rollup still holds the
// lock for the same day after every retry.
var ErrLockHeld = errors.New("day lock held by another rollup")

// DayLocker serializes daily rollups for one UTC day.
type DayLocker interface {
	// Acquire blocks until the lock for day is held, ctx is done, or retries run out.
	// The returned release function must be called exactly once.
	Acquire(ctx context.Context, day time.Time) (release func(), err error)
}

// RedisLockClient is the part of the go-redis API the Redis lock needs.
type RedisLockClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// releaseScript deletes the lock only if it still carries our token, so a rollup
// that outlived its TTL cannot release a lock another rollup took over.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

type redisDayLocker struct {
	client RedisLockClient
	ttl    time.Duration
	retry  *retry.Config
	logger *zap.Logger
}

var _ DayLocker = (*redisDayLocker)(nil)

// NewRedisDayLocker returns a DayLocker backed by Redis SET NX with a TTL.
// It is safe across replicas that share the Redis instance.
func NewRedisDayLocker(client RedisLockClient, ttl time.Duration, retryCfg *retry.Config, logger *zap.Logger) DayLocker {
	if retryCfg == nil {
		retryCfg = lockRetryConfig(ttl)
	}
	return &redisDayLocker{
		client: client,
		ttl:    ttl,
		retry:  retryCfg,
		logger: logger.Named("day-lock"),
	}
}

// DayLockKey is the Redis key guarding the rollup for day.
func DayLockKey(day time.Time) string {
	return "buildyoursite:rollup:" + day.UTC().Format(time.DateOnly)
}

func (l *redisDayLocker) Acquire(ctx context.Context, day time.Time) (func(), error) {
	key := DayLockKey(day)
	token := uuid.NewString()

	err := retry.Do(ctx, l.retry, func() error {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return fmt.Errorf("failed to set lock %s: %w", key, err)
		}
		if !ok {
			return ErrLockHeld
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return func() {
		// Release on a fresh context so a cancelled request still frees the lock.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := l.client.Eval(releaseCtx, releaseScript, []string{key}, token).Err(); err != nil {
			l.logger.Warn("Failed to release day lock; it will expire",
				zap.String("key", key),
				zap.Duration("ttl", l.ttl),
				zap.Error(err))
		}
	}, nil
}

// localDayLocker serializes rollups within one process.
type localDayLocker struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

var _ DayLocker = (*localDayLocker)(nil)

// NewLocalDayLocker returns a process-local DayLocker. Rollups running in other
// replicas are not serialized against it.
func NewLocalDayLocker() DayLocker {
	return &localDayLocker{locks: make(map[string]chan struct{})}
}

func (l *localDayLocker) Acquire(ctx context.Context, day time.Time) (func(), error) {
	key := day.UTC().Format(time.DateOnly)

	l.mu.Lock()
	ch, ok := l.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.locks[key] = ch
	}
	l.mu.Unlock()

	select {
	case ch <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() { <-ch })
	}, nil
}

// lockRetryConfig polls for roughly one TTL before giving up.
func lockRetryConfig(ttl time.Duration) *retry.Config {
	cfg := &retry.Config{
		InitialDelay: 50 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
	var waited time.Duration
	delay := cfg.InitialDelay
	for waited < ttl && cfg.MaxRetries < 100 {
		waited += delay
		cfg.MaxRetries++
		delay = min(time.Duration(float64(delay)*cfg.Multiplier), cfg.MaxDelay)
	}
	return cfg
}
