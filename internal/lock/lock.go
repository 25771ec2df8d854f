// Package lock serializes narrative generation per assessment. A Redis
// implementation is used when REDIS_URL is configured so that several API
// processes share one lock space; otherwise an in-process map is used.
package lock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrLocked is returned by Acquire when the key is already held.
var ErrLocked = errors.New("lock: already held")

// Locker hands out exclusive, expiring locks.
type Locker interface {
	// Acquire takes key for at most ttl. The returned release func is safe to
	// call more than once and never releases a lock taken over by someone
	// else after expiry.
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// ─── REDIS ────────────────────────────────────────────────────────────────────

// releaseScript deletes the key only if it still carries our token.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

type redisScripter interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

type redisLocker struct {
	client redisScripter
	prefix string
}

// NewRedisLocker returns a Locker backed by SET NX PX.
func NewRedisLocker(client *redis.Client) Locker {
	return &redisLocker{client: client, prefix: "lock:narrative:"}
}

func (l *redisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	token, err := randomToken()
	if err != nil {
		return nil, err
	}
	redisKey := l.prefix + key

	ok, err := l.client.SetNX(ctx, redisKey, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("lock: setnx %s: %w", redisKey, err)
	}
	if !ok {
		return nil, ErrLocked
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// Release must run even when the caller's ctx is already done.
			rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = l.client.Eval(rctx, releaseScript, []string{redisKey}, token).Err()
		})
	}, nil
}

func randomToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("lock: read random: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// ─── IN-MEMORY ────────────────────────────────────────────────────────────────

type memoryLocker struct {
	mu   sync.Mutex
	held map[string]memoryEntry
	now  func() time.Time
	seq  uint64
}

type memoryEntry struct {
	id      uint64
	expires time.Time
}

// NewMemoryLocker returns a process-local Locker.
func NewMemoryLocker() Locker {
	return &memoryLocker{held: make(map[string]memoryEntry), now: time.Now}
}

func (l *memoryLocker) Acquire(_ context.Context, key string, ttl time.Duration) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if e, ok := l.held[key]; ok && now.Before(e.expires) {
		return nil, ErrLocked
	}
	l.seq++
	id := l.seq
	l.held[key] = memoryEntry{id: id, expires: now.Add(ttl)}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			if e, ok := l.held[key]; ok && e.id == id {
				delete(l.held, key)
			}
		})
	}, nil
}
