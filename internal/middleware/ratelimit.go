package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"inkpost/internal/pkg/response"
)

// RateLimitRule caps a route at Max requests per fixed Window. A zero
// window or max disables the limiter for that route.
type RateLimitRule struct {
	Window time.Duration
	Max    int
}

func (r RateLimitRule) enabled() bool {
	return r.Window > 0 && r.Max > 0
}

type rateBucket struct {
	start time.Time
	count int
}

type rateLimiter struct {
	mu            sync.Mutex
	rule          RateLimitRule
	buckets       map[string]rateBucket
	lastSweep     time.Time
	sweepInterval time.Duration
	now           func() time.Time
}

// RateLimit counts requests per ip/user/path tuple in fixed windows.
func RateLimit(rule RateLimitRule) gin.HandlerFunc {
	limiter := &rateLimiter{
		rule:          rule,
		buckets:       make(map[string]rateBucket),
		sweepInterval: rule.Window,
		now:           time.Now,
	}
	return limiter.handle
}

func (l *rateLimiter) handle(c *gin.Context) {
	if !l.rule.enabled() {
		c.Next()
		return
	}
	ip := c.ClientIP()
	uid := "0"
	if v, ok := c.Get(ContextUserIDKey); ok {
		if id, ok := v.(string); ok && id != "" {
			uid = id
		}
	}
	path := c.FullPath()
	if path == "" {
		path = c.Request.URL.Path
	}
	key := strings.Join([]string{ip, uid, path}, "|")

	now := l.now()
	l.mu.Lock()
	if now.Sub(l.lastSweep) >= l.sweepInterval {
		l.cleanupExpiredLocked(now)
	}
	bucket, exists := l.buckets[key]
	if !exists || now.Sub(bucket.start) >= l.rule.Window {
		bucket = rateBucket{start: now}
	}
	if bucket.count >= l.rule.Max {
		l.mu.Unlock()
		logutil.GetLogger(c.Request.Context()).Warn("rate limit hit",
			zap.String("ip", ip),
			zap.String("user_id", uid),
			zap.String("path", path),
		)
		response.Error(c, http.StatusTooManyRequests, "too_many", http.StatusText(http.StatusTooManyRequests))
		c.Abort()
		return
	}
	bucket.count++
	l.buckets[key] = bucket
	l.mu.Unlock()
	c.Next()
}

func (l *rateLimiter) cleanupExpiredLocked(now time.Time) {
	for key, bucket := range l.buckets {
		if now.Sub(bucket.start) >= l.rule.Window {
			delete(l.buckets, key)
		}
	}
	l.lastSweep = now
}
