package fakeapi

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/httprate"

	"github.com/rpggio/stocksync/internal/domain/stock"
	"github.com/rpggio/stocksync/internal/domain/usage"
	"github.com/rpggio/stocksync/internal/transport"
)

const (
	rateWindow        = time.Minute
	retryAfterSeconds = 60
)

// RateLimiter applies each plan's per-minute request limit, counted per
// tenant. Every distinct limit gets its own httprate counter.
type RateLimiter struct {
	mu    sync.Mutex
	tiers map[int]*httprate.RateLimiter
}

// NewRateLimiter creates a limiter with no counters yet.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{tiers: make(map[int]*httprate.RateLimiter)}
}

func (l *RateLimiter) tier(limit int) *httprate.RateLimiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if rl, ok := l.tiers[limit]; ok {
		return rl
	}
	rl := httprate.NewRateLimiter(limit, rateWindow,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			return tenantID(r), nil
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
			transport.WriteJSON(w, http.StatusTooManyRequests, rateLimitBody{
				Error:   "RATE_LIMIT_EXCEEDED",
				Message: "Too many requests. Please try again in a minute.",
				Limit:   limit,
			})
		}),
	)
	l.tiers[limit] = rl
	return rl
}

type rateLimitBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Limit   int    `json:"limit"`
}

// Middleware rejects requests past the plan's per-minute limit with 429.
// It runs after authentication, which puts the tenant and plan in context.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit := stock.LimitsFor(transport.PlanFromContext(r.Context())).RequestsPerMinute
		l.tier(limit).Handler(next).ServeHTTP(w, r)
	})
}

// UsageHeaders reports the tenant's quotas on every response.
func UsageHeaders(svc *stock.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			plan := transport.PlanFromContext(r.Context())
			quota, err := svc.Usage(r.Context(), tenantID(r), plan)
			if err == nil {
				w.Header().Set("X-Usage-SKU", quota.String())
			}
			ai := usage.Quota{Current: 0, Limit: stock.LimitsFor(plan).MonthlyTokens}
			w.Header().Set("X-Usage-AI", ai.String())
			w.Header().Set("Access-Control-Expose-Headers", "X-Usage-SKU, X-Usage-AI")
			next.ServeHTTP(w, r)
		})
	}
}
