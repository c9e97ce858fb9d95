package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// LimiterStore decides whether a request keyed by client identity may pass.
// The store is injected so single-instance deployments can use the in-process
// implementation below while multi-instance deployments plug in a shared one.
type LimiterStore interface {
	Allow(key string) bool
}

// MemoryStore keeps one token bucket per key. Buckets idle for longer than
// the prune age are dropped on the next sweep.
type MemoryStore struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	rps      rate.Limit
	burst    int
	pruneAge time.Duration
	lastSeen func() time.Time
}

type limiterEntry struct {
	limiter *rate.Limiter
	seen    time.Time
}

func NewMemoryStore(rps float64, burst int) *MemoryStore {
	return &MemoryStore{
		limiters: make(map[string]*limiterEntry),
		rps:      rate.Limit(rps),
		burst:    burst,
		pruneAge: 10 * time.Minute,
		lastSeen: time.Now,
	}
}

func (s *MemoryStore) Allow(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.lastSeen()

	entry, ok := s.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(s.rps, s.burst)}
		s.limiters[key] = entry
	}

	entry.seen = now

	if len(s.limiters) > 1000 {
		s.prune(now)
	}

	return entry.limiter.Allow()
}

func (s *MemoryStore) prune(now time.Time) {
	for key, entry := range s.limiters {
		if now.Sub(entry.seen) > s.pruneAge {
			delete(s.limiters, key)
		}
	}
}

// RateLimit rejects requests whose client IP exceeds the store's budget.
func RateLimit(store LimiterStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !store.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
