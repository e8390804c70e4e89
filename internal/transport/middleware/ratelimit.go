package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/frahmantamala/employee-directory/internal"
	"github.com/frahmantamala/employee-directory/internal/transport"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultRateLimit       = 100
	DefaultRateLimitWindow = 15 * time.Minute
)

// RateLimitStore counts requests per key inside a fixed window.
type RateLimitStore interface {
	// Increment bumps the counter for key, starting a new window when none is open.
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)
	// TTL reports how long the current window for key has left.
	TTL(ctx context.Context, key string) (time.Duration, error)
}

type RateLimitConfig struct {
	Store     RateLimitStore
	Limit     int
	Window    time.Duration
	SkipPaths []string
	Logger    *slog.Logger
}

// RateLimit limits each client IP to Limit requests per Window. Requests
// over the limit get 429. Store failures let the request through.
func RateLimit(base *transport.BaseHandler, config RateLimitConfig) func(http.Handler) http.Handler {
	if config.Limit <= 0 {
		config.Limit = DefaultRateLimit
	}
	if config.Window <= 0 {
		config.Window = DefaultRateLimitWindow
	}
	if config.Logger == nil {
		config.Logger = base.Logger
	}

	skip := make(map[string]struct{}, len(config.SkipPaths))
	for _, p := range config.SkipPaths {
		skip[p] = struct{}{}
	}
	limit := int64(config.Limit)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := skip[r.URL.Path]; ok || config.Store == nil {
				next.ServeHTTP(w, r)
				return
			}

			key := "ip:" + remoteIP(r)
			count, err := config.Store.Increment(r.Context(), key, config.Window)
			if err != nil {
				config.Logger.Error("failed to increment rate limit counter", "key", key, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			remaining := max(limit-count, 0)
			w.Header().Set("X-Ratelimit-Limit", strconv.FormatInt(limit, 10))
			w.Header().Set("X-Ratelimit-Remaining", strconv.FormatInt(remaining, 10))

			ttl, err := config.Store.TTL(r.Context(), key)
			if err == nil && ttl > 0 {
				w.Header().Set("X-Ratelimit-Reset", strconv.FormatInt(time.Now().Add(ttl).Unix(), 10))
			}

			if count > limit {
				config.Logger.Warn("rate limit exceeded",
					"key", key,
					"count", count,
					"limit", limit,
					"path", r.URL.Path)
				if ttl > 0 {
					w.Header().Set("Retry-After", strconv.FormatInt(int64(ttl.Seconds()), 10))
				}
				base.HandleServiceError(w, internal.ErrRateLimited)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// MemoryRateLimitStore keeps counters in process memory.
type MemoryRateLimitStore struct {
	mu     sync.Mutex
	counts map[string]*rateLimitEntry
	now    func() time.Time
}

type rateLimitEntry struct {
	count     int64
	expiresAt time.Time
}

func NewMemoryRateLimitStore() *MemoryRateLimitStore {
	return &MemoryRateLimitStore{
		counts: make(map[string]*rateLimitEntry),
		now:    time.Now,
	}
}

func (s *MemoryRateLimitStore) Increment(_ context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	entry, ok := s.counts[key]
	if ok && now.Before(entry.expiresAt) {
		entry.count++
		return entry.count, nil
	}

	// drop expired windows while holding the lock
	for k, e := range s.counts {
		if !now.Before(e.expiresAt) {
			delete(s.counts, k)
		}
	}

	s.counts[key] = &rateLimitEntry{count: 1, expiresAt: now.Add(window)}
	return 1, nil
}

func (s *MemoryRateLimitStore) TTL(_ context.Context, key string) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.counts[key]
	if !ok {
		return 0, nil
	}
	return max(entry.expiresAt.Sub(s.now()), 0), nil
}

// RedisRateLimitStore shares counters between server instances.
type RedisRateLimitStore struct {
	client    redis.Cmdable
	keyPrefix string
}

func NewRedisRateLimitStore(client redis.Cmdable, keyPrefix string) *RedisRateLimitStore {
	if keyPrefix == "" {
		keyPrefix = "employee-directory:ratelimit:"
	}
	return &RedisRateLimitStore{client: client, keyPrefix: keyPrefix}
}

func (s *RedisRateLimitStore) Increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	fullKey := s.keyPrefix + key

	count, err := s.client.Incr(ctx, fullKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment counter: %w", err)
	}

	if count == 1 {
		if err := s.client.Expire(ctx, fullKey, window).Err(); err != nil {
			return count, fmt.Errorf("failed to set expiration: %w", err)
		}
	}

	return count, nil
}

func (s *RedisRateLimitStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := s.client.TTL(ctx, s.keyPrefix+key).Result()
	if err != nil {
		return 0, err
	}
	// -1 and -2 mark a key without expiry or a missing key
	return max(ttl, 0), nil
}
