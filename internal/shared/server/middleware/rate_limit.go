package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	defaultRateLimitGroup = "DEFAULT"

	// Rate limit groups used by the library API.
	GroupUpload = "UPLOAD"
	GroupAsk    = "ASK"
	GroupRead   = "READ"
)

type RateLimitRule struct {
	Rate  float64
	Burst int
}

type RateLimitConfig struct {
	Rules        map[string]RateLimitRule
	DefaultGroup string
	GroupFor     func(*gin.Context) string
	Limiter      *RateLimiter
}

// RateLimiter keeps one token bucket per principal and group.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	now      func() time.Time
}

func NewRateLimiter(now func() time.Time) *RateLimiter {
	if now == nil {
		now = time.Now
	}
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		now:      now,
	}
}

func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.Limiter == nil {
		cfg.Limiter = NewRateLimiter(nil)
	}
	if cfg.DefaultGroup == "" {
		cfg.DefaultGroup = defaultRateLimitGroup
	}
	return func(c *gin.Context) {
		group := cfg.DefaultGroup
		if cfg.GroupFor != nil {
			if g := strings.TrimSpace(cfg.GroupFor(c)); g != "" {
				group = g
			}
		}
		rule, ok := cfg.Rules[group]
		if !ok {
			c.Next()
			return
		}
		principal := strings.TrimSpace(UserIDFromContext(c))
		if principal == "" {
			principal = strings.TrimSpace(c.ClientIP())
		}
		key := principal + "|" + group
		allowed, retryAfter := cfg.Limiter.Allow(key, rule)
		if allowed {
			c.Next()
			return
		}
		retryAfterMs := int(retryAfter / time.Millisecond)
		if retryAfterMs <= 0 {
			retryAfterMs = 1000
		}
		retryAfterSeconds := int(math.Ceil(float64(retryAfterMs) / 1000.0))
		if retryAfterSeconds <= 0 {
			retryAfterSeconds = 1
		}
		c.Header("Retry-After", strconv.Itoa(retryAfterSeconds))
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":        "rate_limited",
			"retryAfterMs": retryAfterMs,
		})
		c.Abort()
	}
}

// Allow takes a token for key. When none is left it reports how long until
// the next one is available.
func (l *RateLimiter) Allow(key string, rule RateLimitRule) (bool, time.Duration) {
	if l == nil {
		return true, 0
	}
	if rule.Rate <= 0 || rule.Burst <= 0 {
		return true, 0
	}
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(rule.Rate), rule.Burst)
		l.limiters[key] = lim
	} else if lim.Limit() != rate.Limit(rule.Rate) || lim.Burst() != rule.Burst {
		lim.SetLimitAt(now, rate.Limit(rule.Rate))
		lim.SetBurstAt(now, rule.Burst)
	}
	r := lim.ReserveN(now, 1)
	if !r.OK() {
		return false, time.Second
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// LibraryGroup classifies library API routes: uploads and questions hit the
// indexing service and get tighter limits than reads.
func LibraryGroup(c *gin.Context) string {
	switch {
	case c.Request.Method == http.MethodPost && c.FullPath() == "/api/v1/documents":
		return GroupUpload
	case c.Request.Method == http.MethodPost && strings.HasSuffix(c.FullPath(), "/questions"):
		return GroupAsk
	case c.Request.Method == http.MethodGet:
		return GroupRead
	}
	return defaultRateLimitGroup
}

// DefaultLibraryRules returns per-principal limits for LibraryGroup.
func DefaultLibraryRules() map[string]RateLimitRule {
	return map[string]RateLimitRule{
		defaultRateLimitGroup: {Rate: 2, Burst: 10},
		GroupUpload:           {Rate: 0.2, Burst: 3},
		GroupAsk:              {Rate: 1, Burst: 5},
		GroupRead:             {Rate: 5, Burst: 20},
	}
}
