// AngelaMos | 2026
// ratelimit.go

package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/carterperez-dev/brasil-no-mundo/internal/core"
	"github.com/carterperez-dev/brasil-no-mundo/internal/domain"
)

type RateLimitConfig struct {
	Limit      redis_rate.Limit
	KeyFunc    func(*http.Request) string
	FailOpen   bool
	BypassFunc func(*http.Request) bool
}

// RateLimiter uses Redis when a client is supplied so limits are shared
// across instances, and a process-local token bucket otherwise or whenever
// Redis errors.
type RateLimiter struct {
	limiter  *redis_rate.Limiter
	fallback *localLimiter
	config   RateLimitConfig
}

func NewRateLimiter(rdb *redis.Client, cfg RateLimitConfig) *RateLimiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = KeyByIP
	}

	rl := &RateLimiter{
		fallback: newLocalLimiter(),
		config:   cfg,
	}
	if rdb != nil {
		rl.limiter = redis_rate.NewLimiter(rdb)
	}
	return rl
}

func (rl *RateLimiter) Close() {
	rl.fallback.stop()
}

func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.config.BypassFunc != nil && rl.config.BypassFunc(r) {
			next.ServeHTTP(w, r)
			return
		}

		key := rl.config.KeyFunc(r)
		res, err := rl.allow(r.Context(), key, rl.config.Limit)
		if err != nil {
			if rl.config.FailOpen {
				slog.Warn("rate limiter error, failing open",
					"error", err,
					"key", key,
				)
				next.ServeHTTP(w, r)
				return
			}
			http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
			return
		}

		setRateLimitHeaders(w, res, rl.config.Limit)

		if res.Allowed == 0 {
			writeRateLimitExceeded(w, res)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) allow(
	ctx context.Context,
	key string,
	limit redis_rate.Limit,
) (*redis_rate.Result, error) {
	if rl.limiter == nil {
		return rl.fallback.allow(key, limit)
	}

	res, err := rl.limiter.Allow(ctx, key, limit)
	if err != nil {
		return rl.fallback.allow(key, limit)
	}
	return res, nil
}

func KeyByIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		ip := strings.TrimSpace(ips[len(ips)-1])
		return "ratelimit:ip:" + ip
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return "ratelimit:ip:" + xri
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}

	return "ratelimit:ip:" + ip
}

func KeyByUser(r *http.Request) string {
	if userID := GetUserID(r.Context()); userID != "" {
		return "ratelimit:user:" + userID
	}
	return KeyByIP(r)
}

func setRateLimitHeaders(
	w http.ResponseWriter,
	res *redis_rate.Result,
	limit redis_rate.Limit,
) {
	h := w.Header()

	h.Set("X-RateLimit-Limit", strconv.Itoa(limit.Rate))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(
		time.Now().Add(res.ResetAfter).Unix(), 10))

	windowSecs := int(limit.Period.Seconds())
	h.Set("RateLimit-Policy", fmt.Sprintf(`%d;w=%d`, limit.Rate, windowSecs))
}

func writeRateLimitExceeded(w http.ResponseWriter, res *redis_rate.Result) {
	retryAfter := int(res.RetryAfter.Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}

	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	core.JSON(w, http.StatusTooManyRequests, core.Response{
		Success: false,
		Error: core.NewAppError(
			nil,
			fmt.Sprintf("Rate limit exceeded. Retry after %d seconds.", retryAfter),
			http.StatusTooManyRequests,
			"RATE_LIMITED",
		),
	})
}

type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess int64
}

type localLimiter struct {
	limiters sync.Map
	done     chan struct{}
	once     sync.Once
}

const (
	cleanupInterval = 5 * time.Minute
	entryTTL        = 10 * time.Minute
)

func newLocalLimiter() *localLimiter {
	l := &localLimiter{done: make(chan struct{})}
	go l.cleanup()
	return l
}

func (l *localLimiter) stop() {
	l.once.Do(func() { close(l.done) })
}

func (l *localLimiter) cleanup() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-entryTTL).Unix()
			l.limiters.Range(func(key, value any) bool {
				entry, ok := value.(*limiterEntry)
				if ok && entry.lastAccess < cutoff {
					l.limiters.Delete(key)
				}
				return true
			})
		}
	}
}

func (l *localLimiter) allow(
	key string,
	limit redis_rate.Limit,
) (*redis_rate.Result, error) {
	ratePerSec := float64(limit.Rate) / limit.Period.Seconds()
	now := time.Now().Unix()
	entryKey := fmt.Sprintf("%s|%d/%s", key, limit.Rate, limit.Period)

	entryI, loaded := l.limiters.Load(entryKey)
	if !loaded {
		newEntry := &limiterEntry{
			limiter:    rate.NewLimiter(rate.Limit(ratePerSec), limit.Burst),
			lastAccess: now,
		}
		entryI, _ = l.limiters.LoadOrStore(entryKey, newEntry)
	}

	entry, ok := entryI.(*limiterEntry)
	if !ok {
		return nil, fmt.Errorf("invalid limiter entry type")
	}
	entry.lastAccess = now

	allowed := entry.limiter.Allow()

	remaining := int(entry.limiter.Tokens())
	if remaining < 0 {
		remaining = 0
	}

	retryAfter := time.Duration(-1)
	allowedInt := 1
	if !allowed {
		retryAfter = time.Duration(float64(time.Second) / ratePerSec)
		allowedInt = 0
	}

	return &redis_rate.Result{
		Limit:      limit,
		Allowed:    allowedInt,
		Remaining:  remaining,
		RetryAfter: retryAfter,
		ResetAfter: time.Duration(float64(time.Second) / ratePerSec),
	}, nil
}

type TierConfig struct {
	RequestsPerMinute int
	BurstSize         int
}

// DefaultTiers throttles content submissions; paying members get more room.
var DefaultTiers = map[string]TierConfig{
	domain.TierFree: {RequestsPerMinute: 10, BurstSize: 5},
	domain.TierPro:  {RequestsPerMinute: 60, BurstSize: 20},
}

// Tiered limits authenticated writes per user according to the tier the
// authenticator resolved from the current user record. Unknown tiers fall
// back to the free limits.
func (rl *RateLimiter) Tiered(
	tiers map[string]TierConfig,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tier := GetUserTier(r.Context())

			cfg, ok := tiers[tier]
			if !ok {
				tier = domain.TierFree
				cfg = tiers[domain.TierFree]
			}

			limit := PerMinute(cfg.RequestsPerMinute, cfg.BurstSize)
			key := "ratelimit:tier:" + KeyByUser(r)

			res, err := rl.allow(r.Context(), key, limit)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Tier", tier)
			setRateLimitHeaders(w, res, limit)

			if res.Allowed == 0 {
				writeRateLimitExceeded(w, res)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func PerMinute(rate, burst int) redis_rate.Limit {
	return redis_rate.Limit{
		Rate:   rate,
		Burst:  burst,
		Period: time.Minute,
	}
}
