package backend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"github.com/relabs-tech/rentdesk/core/logger"
)

// Locker serializes the read-then-write sequences of the backend, id
// generation and the replacement of relation rows, per collection.
//
// A lock is not a transaction. A crash between two writes still leaves
// partial state behind.
type Locker interface {
	// Lock blocks until the lock for name is obtained or ctx is done.
	Lock(ctx context.Context, name string) (unlock func(), err error)
}

// LockerType selects a Locker implementation
type LockerType string

// all locker types
const (
	// LockerNone takes no locks. Concurrent creates in one collection can
	// compute the same id and overwrite each other.
	LockerNone LockerType = "none"
	// LockerLocal serializes within one process
	LockerLocal LockerType = "local"
	// LockerRedis serializes across processes sharing a redis
	LockerRedis LockerType = "redis"
)

// ParseLockerType parses a locker type, "" is LockerNone
func ParseLockerType(s string) (LockerType, error) {
	switch t := LockerType(s); t {
	case "", LockerNone:
		return LockerNone, nil
	case LockerLocal, LockerRedis:
		return t, nil
	}
	return "", fmt.Errorf("unknown locker type '%s'", s)
}

// NoLocker does not lock at all
type NoLocker struct{}

// Lock implements Locker
func (NoLocker) Lock(ctx context.Context, name string) (func(), error) {
	return func() {}, nil
}

// LocalLocker keeps one mutex per name
type LocalLocker struct {
	mutex sync.Mutex
	locks map[string]chan struct{}
}

// NewLocalLocker returns a new in-process locker
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: map[string]chan struct{}{}}
}

// Lock implements Locker
func (l *LocalLocker) Lock(ctx context.Context, name string) (func(), error) {
	l.mutex.Lock()
	lock, ok := l.locks[name]
	if !ok {
		lock = make(chan struct{}, 1)
		l.locks[name] = lock
	}
	l.mutex.Unlock()

	select {
	case lock <- struct{}{}:
		return func() { <-lock }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// RedisLocker obtains locks from redis with bsm/redislock
type RedisLocker struct {
	client    *redislock.Client
	namespace string
	ttl       time.Duration
	retry     time.Duration
}

// NewRedisLocker returns a locker on top of rdb. Lock keys are
// "{namespace}:lock:{name}", they expire after ttl in case the holder dies.
func NewRedisLocker(rdb redis.UniversalClient, namespace string, ttl time.Duration) *RedisLocker {
	if namespace == "" {
		namespace = "rentdesk"
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisLocker{
		client:    redislock.New(rdb),
		namespace: namespace,
		ttl:       ttl,
		retry:     50 * time.Millisecond,
	}
}

// Lock implements Locker
func (l *RedisLocker) Lock(ctx context.Context, name string) (func(), error) {
	key := fmt.Sprintf("%s:lock:%s", l.namespace, name)
	lock, err := l.client.Obtain(ctx, key, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(l.retry),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("could not obtain lock %s: %w", key, err)
	}
	if err != nil {
		return nil, err
	}
	return func() {
		// release with a fresh context, the request context may be gone already
		if err := lock.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			logger.FromContext(ctx).WithError(err).Warnln("Error 4730: cannot release lock", key)
		}
	}, nil
}
