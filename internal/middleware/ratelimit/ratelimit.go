// Package ratelimit throttles write requests per client with a fixed
// one-minute window.
package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

const window = time.Minute

// Config holds rate limiter configuration
type Config struct {
	RequestsPerMinute int
	CleanupInterval   time.Duration
	// Methods limits only these HTTP methods; empty means every method.
	Methods []string
}

func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 60,
		CleanupInterval:   5 * time.Minute,
		Methods:           []string{http.MethodPost, http.MethodDelete},
	}
}

// Metrics for monitoring rate limit performance
type Metrics struct {
	Allowed     int64
	Rejected    int64
	ClientCount int64
}

type client struct {
	windowStart time.Time
	requests    int
}

// Limiter counts requests per client key inside the current window.
type Limiter struct {
	mu      sync.Mutex
	clients map[string]*client
	limit   int
	methods map[string]bool
	now     func() time.Time

	allowed  atomic.Int64
	rejected atomic.Int64

	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

func NewLimiter(config Config) *Limiter {
	def := DefaultConfig()
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = def.RequestsPerMinute
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = def.CleanupInterval
	}
	rl := &Limiter{
		clients:     make(map[string]*client),
		limit:       config.RequestsPerMinute,
		methods:     make(map[string]bool, len(config.Methods)),
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}
	for _, m := range config.Methods {
		rl.methods[m] = true
	}
	go rl.cleanupLoop(config.CleanupInterval)
	return rl
}

// Allow records one request for key and reports whether it fits the limit.
func (rl *Limiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	c, ok := rl.clients[key]
	if !ok || now.Sub(c.windowStart) >= window {
		rl.clients[key] = &client{windowStart: now, requests: 1}
		rl.allowed.Add(1)
		return true
	}
	if c.requests >= rl.limit {
		rl.rejected.Add(1)
		return false
	}
	c.requests++
	rl.allowed.Add(1)
	return true
}

// retryAfter is the number of seconds until key's window resets.
func (rl *Limiter) retryAfter(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	c, ok := rl.clients[key]
	if !ok {
		return 0
	}
	left := window - rl.now().Sub(c.windowStart)
	return max(int(left.Seconds()+0.999), 1)
}

func (rl *Limiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.removeStale()
		case <-rl.stopCleanup:
			return
		}
	}
}

// removeStale forgets clients whose window ended.
func (rl *Limiter) removeStale() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	for key, c := range rl.clients {
		if now.Sub(c.windowStart) >= window {
			delete(rl.clients, key)
		}
	}
}

// ActiveClients returns the number of currently tracked clients
func (rl *Limiter) ActiveClients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// Stop ends the cleanup goroutine.
func (rl *Limiter) Stop() {
	rl.shutdownOnce.Do(func() { close(rl.stopCleanup) })
}

func (rl *Limiter) GetMetrics() Metrics {
	return Metrics{
		Allowed:     rl.allowed.Load(),
		Rejected:    rl.rejected.Load(),
		ClientCount: int64(rl.ActiveClients()),
	}
}

// Middleware limits requests keyed by extractKey (usually the client IP).
// Methods outside the configured set pass through uncounted.
func (rl *Limiter) Middleware(extractKey func(*http.Request) string, onLimit func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(rl.methods) > 0 && !rl.methods[r.Method] {
				next.ServeHTTP(w, r)
				return
			}
			key := extractKey(r)
			if !rl.Allow(key) {
				w.Header().Set("Retry-After", strconv.Itoa(rl.retryAfter(key)))
				if onLimit != nil {
					onLimit(w, r)
				} else {
					http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				}
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
