// Package server implements the C11 HTTP API Surface (spec §4.11).
package server

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/openhive/retrieval-engine/internal/errors"
	"github.com/openhive/retrieval-engine/internal/logger"
	"github.com/openhive/retrieval-engine/internal/store"
)

// authMiddleware validates the X-API-Key header against the ApiKey table,
// per spec §4.11 ("all require X-API-Key validated against the ApiKey
// table").
func authMiddleware(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		key := c.GetHeader("X-API-Key")
		valid, err := store.IsValid(ctx, st.ApiKeys, key)
		if err != nil {
			writeError(c, errors.Wrap(errors.KindTransient, "server: validate api key", err))
			c.Abort()
			return
		}
		if !valid {
			writeError(c, errors.New(errors.KindAuth, "invalid or missing API key"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// perIPLimiter tracks a rate.Limiter per remote address, lazily created on
// first use, for the per-IP limits of spec §4.11.
type perIPLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rpm      int
}

func newPerIPLimiter(rpm int) *perIPLimiter {
	return &perIPLimiter{limiters: make(map[string]*rate.Limiter), rpm: rpm}
}

func (l *perIPLimiter) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[ip]
	if !ok {
		perSecond := rate.Limit(float64(l.rpm) / 60.0)
		lim = rate.NewLimiter(perSecond, l.rpm)
		l.limiters[ip] = lim
	}
	return lim
}

// rateLimitMiddleware rejects requests exceeding rpm per remote address
// with 429 and a descriptive detail (spec §4.11).
func rateLimitMiddleware(rpm int) gin.HandlerFunc {
	limiter := newPerIPLimiter(rpm)
	return func(c *gin.Context) {
		if !limiter.get(c.ClientIP()).Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":  "rate limited",
				"detail": "too many requests from this address; try again shortly",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// writeError maps an AppError to its HTTP status per spec §7's propagation
// policy: validation -> 4xx, security -> safe 200 with refusal text,
// everything else -> a generic response at its mapped status.
func writeError(c *gin.Context, err error) {
	ctx := c.Request.Context()
	appErr, ok := errors.As(err)
	if !ok {
		logger.Errorf(ctx, "server: unclassified error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	logger.Warnf(ctx, "server: %s: %v", appErr.Kind, appErr)
	if appErr.Kind == errors.KindSecurity {
		c.JSON(http.StatusOK, gin.H{"error": "request refused"})
		return
	}
	c.JSON(appErr.HTTPStatus(), gin.H{"error": appErr.Message})
}
