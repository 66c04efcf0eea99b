package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/xzero11x/ferreteria-api-sub000/internal/apierror"
)

// slidingWindow counts requests per client IP within a fixed-size window.
// One instance per route group. Stale entries are purged inline from allow,
// at most once per purgeInterval, so the limiter owns no goroutine and
// needs no shutdown hook.
type slidingWindow struct {
	limit  int
	window time.Duration

	mu        sync.Mutex
	entries   map[string]*windowEntry
	lastPurge time.Time
}

type windowEntry struct {
	count     int
	windowEnd time.Time
}

func newSlidingWindow(limit int, window time.Duration) *slidingWindow {
	return &slidingWindow{
		limit:     limit,
		window:    window,
		entries:   make(map[string]*windowEntry),
		lastPurge: time.Now(),
	}
}

// allow registers one hit for ip and reports whether it is within the limit.
func (sw *slidingWindow) allow(ip string, now time.Time) (bool, time.Time) {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	if now.Sub(sw.lastPurge) >= purgeInterval {
		sw.purge(now)
	}

	entry, ok := sw.entries[ip]
	if !ok || now.After(entry.windowEnd) {
		entry = &windowEntry{windowEnd: now.Add(sw.window)}
		sw.entries[ip] = entry
	}
	entry.count++
	return entry.count <= sw.limit, entry.windowEnd
}

const purgeInterval = 5 * time.Minute

// purge drops entries whose window already closed. Callers hold mu.
func (sw *slidingWindow) purge(now time.Time) {
	purged := 0
	for ip, entry := range sw.entries {
		if now.After(entry.windowEnd) {
			delete(sw.entries, ip)
			purged++
		}
	}
	sw.lastPurge = now

	if purged > 0 {
		log.Debug().
			Int("purged", purged).
			Int("remaining", len(sw.entries)).
			Msg("rate limiter entries purged")
	}
}

// LoginRateLimiter limits login attempts to 20 per minute per IP.
func LoginRateLimiter() gin.HandlerFunc {
	sw := newSlidingWindow(20, time.Minute)
	return func(c *gin.Context) {
		if ok, _ := sw.allow(c.ClientIP(), time.Now()); !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New("Demasiados intentos de login. Intente en 1 minuto."))
			return
		}
		c.Next()
	}
}

// RateLimiter is the general API limiter applied to every protected route.
func RateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	sw := newSlidingWindow(limit, window)
	return func(c *gin.Context) {
		ok, windowEnd := sw.allow(c.ClientIP(), time.Now())
		if !ok {
			c.Header("Retry-After", windowEnd.Format(time.RFC1123))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New("Demasiadas solicitudes. Intente nuevamente en un momento."))
			return
		}
		c.Next()
	}
}
