package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockTimeout is returned when a session lock can't be acquired in time
var ErrLockTimeout = errors.New("timed out waiting for session lock")

// Locker serializes work on a single session id
type Locker interface {
	// Lock blocks until the session is free or ctx is done. The returned
	// function releases the lock and is safe to call more than once.
	Lock(ctx context.Context, sessionID string) (func(), error)
}

const lockRetryInterval = 25 * time.Millisecond

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

var extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

type redisLocker struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisLocker creates a lock backed by SET NX with an expiry, so a
// crashed holder can't wedge a session for longer than ttl. A live holder
// keeps extending the expiry every ttl/3 until it releases.
func NewRedisLocker(client *redis.Client, ttl time.Duration, logger *slog.Logger) Locker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &redisLocker{client: client, ttl: ttl, logger: logger}
}

func (l *redisLocker) lockKey(sessionID string) string {
	return fmt.Sprintf("survey:session:%s:lock", sessionID)
}

func (l *redisLocker) Lock(ctx context.Context, sessionID string) (func(), error) {
	key := l.lockKey(sessionID)
	token := uuid.New().String()

	ticker := time.NewTicker(lockRetryInterval)
	defer ticker.Stop()
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil && ctx.Err() == nil {
			return nil, fmt.Errorf("failed to acquire session lock: %w", err)
		}
		if ok {
			return l.hold(sessionID, key, token), nil
		}
		select {
		case <-ctx.Done():
			return nil, ErrLockTimeout
		case <-ticker.C:
		}
	}
}

// hold starts renewing an acquired lock and returns its release func
func (l *redisLocker) hold(sessionID, key, token string) func() {
	stop := make(chan struct{})
	done := make(chan struct{})
	go l.renew(sessionID, key, token, stop, done)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done

			releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			n, err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Int()
			switch {
			case err != nil:
				l.logger.Warn("failed to release session lock", "session_id", sessionID, "err", err)
			case n == 0:
				l.logger.Warn("session lock expired before release", "session_id", sessionID)
			}
		})
	}
}

func (l *redisLocker) renew(sessionID, key, token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	interval := l.ttl / 3
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), interval)
		n, err := extendScript.Run(ctx, l.client, []string{key}, token, l.ttl.Milliseconds()).Int()
		cancel()
		switch {
		case err != nil:
			// transient; the next tick retries while the key is still alive
			l.logger.Warn("failed to extend session lock", "session_id", sessionID, "err", err)
		case n == 0:
			l.logger.Warn("session lock lost while held", "session_id", sessionID)
			return
		}
	}
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

type memoryLocker struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

// NewMemoryLocker creates an in-process per-session lock
func NewMemoryLocker() Locker {
	return &memoryLocker{locks: make(map[string]*keyLock)}
}

func (l *memoryLocker) Lock(ctx context.Context, sessionID string) (func(), error) {
	l.mu.Lock()
	kl, ok := l.locks[sessionID]
	if !ok {
		kl = &keyLock{ch: make(chan struct{}, 1)}
		l.locks[sessionID] = kl
	}
	kl.refs++
	l.mu.Unlock()

	select {
	case kl.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(sessionID, kl)
		return nil, ErrLockTimeout
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-kl.ch
			l.release(sessionID, kl)
		})
	}, nil
}

func (l *memoryLocker) release(sessionID string, kl *keyLock) {
	l.mu.Lock()
	kl.refs--
	if kl.refs == 0 {
		delete(l.locks, sessionID)
	}
	l.mu.Unlock()
}
