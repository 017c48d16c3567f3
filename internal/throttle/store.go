package throttle

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"golang.org/x/time/rate"
)

// Store counts hits per key. Hit records one request and reports whether it fits within
// rate, and when it does not, how long the caller should wait.
type Store interface {
	Hit(ctx context.Context, key string, r Rate, now time.Time) (bool, time.Duration, error)
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryStore keeps a token bucket per key in process memory. Counts are not shared
// between replicas.
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[string]*bucket
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{buckets: make(map[string]*bucket)}
}

func (s *MemoryStore) Hit(_ context.Context, key string, r Rate, now time.Time) (bool, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Every(r.Period/time.Duration(r.Requests)), r.Requests)}
		s.buckets[key] = b
	}
	b.lastSeen = now

	res := b.limiter.ReserveN(now, 1)
	if !res.OK() {
		return false, r.Period, nil
	}
	if wait := res.DelayFrom(now); wait > 0 {
		res.CancelAt(now)
		return false, wait, nil
	}
	return true, 0, nil
}

// Sweep drops buckets that have not been hit since idle before now.
func (s *MemoryStore) Sweep(now time.Time, idle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, b := range s.buckets {
		if now.Sub(b.lastSeen) > idle {
			delete(s.buckets, key)
			removed++
		}
	}
	return removed
}

// StartSweeper sweeps idle buckets every interval until ctx is done.
func (s *MemoryStore) StartSweeper(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				s.Sweep(now, idle)
			}
		}
	}()
}

// RedisStore counts hits in fixed windows shared by every replica. The window for a key
// starts with its first hit and lasts one period.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Hit(ctx context.Context, key string, r Rate, _ time.Time) (bool, time.Duration, error) {
	key = s.prefix + key

	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		ttl = pipe.PTTL(ctx, key)
		return nil
	})
	if err != nil {
		return false, 0, err
	}

	remaining := ttl.Val()
	if incr.Val() == 1 || remaining < 0 {
		if err := s.client.PExpire(ctx, key, r.Period).Err(); err != nil {
			return false, 0, err
		}
		remaining = r.Period
	}

	if incr.Val() > int64(r.Requests) {
		return false, remaining, nil
	}
	return true, 0, nil
}
