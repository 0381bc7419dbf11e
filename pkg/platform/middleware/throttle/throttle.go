// Package throttle applies a token bucket per client IP.
package throttle

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"empverify/pkg/platform/httputil"
	"empverify/pkg/requestcontext"
)

const defaultIdleTTL = 5 * time.Minute

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// Throttle holds one limiter per client IP. Buckets idle for longer than the
// TTL are evicted on a later request.
type Throttle struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	limit     rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	logger    *slog.Logger
	now       func() time.Time
}

type Option func(*Throttle)

func WithIdleTTL(d time.Duration) Option {
	return func(t *Throttle) {
		if d > 0 {
			t.idleTTL = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(t *Throttle) {
		t.logger = logger
	}
}

// WithClock overrides time.Now. Tests only.
func WithClock(now func() time.Time) Option {
	return func(t *Throttle) {
		t.now = now
	}
}

// New returns a throttle admitting perSecond requests per IP with the given burst.
// A non-positive perSecond disables throttling.
func New(perSecond float64, burst int, opts ...Option) *Throttle {
	if burst < 1 {
		burst = 1
	}
	t := &Throttle{
		buckets: make(map[string]*bucket),
		limit:   rate.Limit(perSecond),
		burst:   burst,
		idleTTL: defaultIdleTTL,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Allow reports whether a request from ip may proceed now.
func (t *Throttle) Allow(ip string) bool {
	if t.limit <= 0 {
		return true
	}
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	if now.Sub(t.lastSweep) > t.idleTTL {
		for k, b := range t.buckets {
			if now.Sub(b.lastSeen) > t.idleTTL {
				delete(t.buckets, k)
			}
		}
		t.lastSweep = now
	}

	b, ok := t.buckets[ip]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(t.limit, t.burst)}
		t.buckets[ip] = b
	}
	b.lastSeen = now
	return b.lim.AllowN(now, 1)
}

// Len returns the number of tracked IPs.
func (t *Throttle) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.buckets)
}

// Middleware rejects requests over the per-IP budget with 429. It reads the IP
// set by the client metadata middleware.
func (t *Throttle) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ip := requestcontext.ClientIP(ctx)
		if ip == "" {
			ip = "unknown"
		}
		if !t.Allow(ip) {
			t.logger.WarnContext(ctx, "request throttled",
				"client_ip", ip,
				"request_id", requestcontext.RequestID(ctx),
			)
			retry := 1
			if t.limit > 0 {
				retry = int(math.Ceil(1 / float64(t.limit)))
			}
			w.Header().Set("Retry-After", strconv.Itoa(max(retry, 1)))
			httputil.WriteJSON(w, http.StatusTooManyRequests, map[string]string{
				"error":             "rate_limited",
				"error_description": "too many verification requests, slow down",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
