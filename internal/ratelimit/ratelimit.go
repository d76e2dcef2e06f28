// Package ratelimit throttles API callers with fixed-window counters shared
// through Redis, falling back to process memory when no Redis is configured.
package ratelimit

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	memstore "github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/noah-isme/toko-register/internal/common"
)

// KeyPrefix namespaces limiter counters in Redis.
const KeyPrefix = "register:ratelimit"

// New builds a limiter for rate, formatted as "<limit>-<period>" such as
// "120-M". Counters live in Redis when client is non-nil.
func New(client *redis.Client, rate string) (*limiter.Limiter, error) {
	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("rate %q: %w", rate, err)
	}
	opts := limiter.StoreOptions{Prefix: KeyPrefix, CleanUpInterval: time.Minute}
	if client == nil {
		return limiter.New(memstore.NewStoreWithOptions(opts), parsed), nil
	}
	store, err := redisstore.NewStoreWithOptions(client, opts)
	if err != nil {
		return nil, fmt.Errorf("redis limiter store: %w", err)
	}
	return limiter.New(store, parsed), nil
}

// ClientKey limits each caller by client IP.
func ClientKey(r *http.Request) string {
	return common.ClientIP(r)
}

// Handler enforces a limiter before delegating to the next handler.
type Handler struct {
	Limiter *limiter.Limiter
	// Key derives the counter key; ClientKey when nil.
	Key     func(*http.Request) string
	OnError func(error)
}

// Middleware implements chi middleware. Store failures let the request
// through so pricing stays available while Redis is down.
func (h Handler) Middleware(next http.Handler) http.Handler {
	if h.Limiter == nil {
		return next
	}
	keyFn := h.Key
	if keyFn == nil {
		keyFn = ClientKey
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := keyFn(r)
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}
		lctx, err := h.Limiter.Get(r.Context(), key)
		if err != nil {
			if h.OnError != nil {
				h.OnError(err)
			}
			next.ServeHTTP(w, r)
			return
		}

		headers := w.Header()
		headers.Set("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
		headers.Set("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
		headers.Set("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))

		if lctx.Reached {
			retryAfter := time.Until(time.Unix(lctx.Reset, 0))
			if retryAfter < 0 {
				retryAfter = 0
			}
			headers.Set("Retry-After", strconv.Itoa(int(retryAfter.Round(time.Second).Seconds())))
			common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "rate limit exceeded", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
