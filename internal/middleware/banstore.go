package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// BanStore tracks banned rate-limit keys and how long their next ban
// should last. Implementations must be safe for concurrent use.
type BanStore interface {
	// Banned reports whether the key is currently banned and, if so,
	// how long the ban has left.
	Banned(ctx context.Context, key string) (time.Duration, bool)
	// Escalate bans the key and returns the applied ban duration. The
	// first violation gets initial; each further violation multiplies
	// the previous ban by factor, capped at max.
	Escalate(ctx context.Context, key string, initial time.Duration, factor int, max time.Duration) time.Duration
}

type banEntry struct {
	until   time.Time
	nextBan time.Duration
}

// MemoryBanStore keeps bans in process memory. A janitor goroutine
// evicts entries whose escalation state has gone stale, so one-off
// offenders do not accumulate forever.
type MemoryBanStore struct {
	mu      sync.Mutex
	entries map[string]*banEntry
}

// NewMemoryBanStore returns a ban store with a background janitor that
// drops entries untouched for an hour past their ban expiry.
func NewMemoryBanStore() *MemoryBanStore {
	s := &MemoryBanStore{entries: map[string]*banEntry{}}
	go s.janitor()
	return s
}

func (s *MemoryBanStore) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-time.Hour)
		s.mu.Lock()
		for k, e := range s.entries {
			if e.until.Before(cutoff) {
				delete(s.entries, k)
			}
		}
		s.mu.Unlock()
	}
}

func (s *MemoryBanStore) Banned(_ context.Context, key string) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return 0, false
	}
	left := time.Until(e.until)
	if left <= 0 {
		return 0, false
	}
	return left, true
}

func (s *MemoryBanStore) Escalate(_ context.Context, key string, initial time.Duration, factor int, max time.Duration) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		e = &banEntry{nextBan: initial}
		s.entries[key] = e
	}
	ban := e.nextBan
	if ban > max {
		ban = max
	}
	e.until = time.Now().Add(ban)
	e.nextBan = ban * time.Duration(factor)
	if e.nextBan > max {
		e.nextBan = max
	}
	return ban
}

// RedisBanStore keeps bans in redis so multiple instances share them.
// The ban itself lives under <prefix>:ban:<key> with a TTL; the next
// ban duration lives under <prefix>:next:<key>.
type RedisBanStore struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisBanStore(rdb *redis.Client, prefix string) *RedisBanStore {
	return &RedisBanStore{rdb: rdb, prefix: prefix}
}

func (s *RedisBanStore) Banned(ctx context.Context, key string) (time.Duration, bool) {
	ttl, err := s.rdb.PTTL(ctx, s.prefix+":ban:"+key).Result()
	if err != nil || ttl <= 0 {
		return 0, false
	}
	return ttl, true
}

func (s *RedisBanStore) Escalate(ctx context.Context, key string, initial time.Duration, factor int, max time.Duration) time.Duration {
	nextKey := s.prefix + ":next:" + key
	ban := initial
	if ms, err := s.rdb.Get(ctx, nextKey).Int64(); err == nil && ms > 0 {
		ban = time.Duration(ms) * time.Millisecond
	}
	if ban > max {
		ban = max
	}
	next := ban * time.Duration(factor)
	if next > max {
		next = max
	}
	// Escalation state outlives the ban by an hour, matching the
	// memory store's janitor cutoff.
	s.rdb.Set(ctx, s.prefix+":ban:"+key, 1, ban)
	s.rdb.Set(ctx, nextKey, next.Milliseconds(), ban+time.Hour)
	return ban
}
