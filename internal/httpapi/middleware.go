package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"ticktock/internal/logger"
	"ticktock/internal/service"
)

const (
	sessionCookie  = "tt_session"
	identityKey    = "identity"
	authRateWindow = 10 * time.Minute
)

func recoveryWithLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error(c.Request.Context(), fmt.Errorf("%v", rec), "panic recovered", "stack", string(debug.Stack()))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			}
		}()
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		elapsed := time.Since(start)
		route := routeLabel(c)
		status := c.Writer.Status()
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).Observe(elapsed.Seconds())

		logger.Info(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", elapsed,
		)
	}
}

// identify resolves the session token, when one is sent, into an identity on
// the request context. An unknown or expired token is ignored and
// requireSession rejects the request later; a failing session store answers
// with an error right away.
func (h *handler) identify() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		for _, token := range sessionTokens(c) {
			ident, err := h.auth.Authenticate(ctx, token)
			if errors.Is(err, service.ErrUnauthorized) {
				continue
			}
			if err != nil {
				writeError(c, err)
				c.Abort()
				return
			}

			c.Set(identityKey, ident)
			ctx = service.ContextWithIdentity(ctx, ident)
			ctx = logger.WithFields(ctx, "user_id", ident.UserID)
			c.Request = c.Request.WithContext(ctx)
			break
		}
		c.Next()
	}
}

func requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := currentIdentity(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

func currentIdentity(c *gin.Context) (service.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return service.Identity{}, false
	}
	ident, ok := v.(service.Identity)
	return ident, ok && ident.Valid()
}

// sessionTokens returns the tokens a request carries: the session cookie
// first, then a bearer token.
func sessionTokens(c *gin.Context) []string {
	var tokens []string
	if v, err := c.Cookie(sessionCookie); err == nil && v != "" {
		tokens = append(tokens, v)
	}
	header := c.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		if v := strings.TrimSpace(header[7:]); v != "" && (len(tokens) == 0 || tokens[0] != v) {
			tokens = append(tokens, v)
		}
	}
	return tokens
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// authRateLimiter allows limit attempts per client IP in authRateWindow.
func authRateLimiter(limit int) gin.HandlerFunc {
	if limit <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	every := rate.Every(authRateWindow / time.Duration(limit))
	var (
		visitors = make(map[string]*visitor)
		mu       sync.Mutex
	)

	getVisitor := func(ip string, now time.Time) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		if len(visitors) > 1024 {
			for key, v := range visitors {
				if now.Sub(v.lastSeen) > authRateWindow {
					delete(visitors, key)
				}
			}
		}
		v, exists := visitors[ip]
		if !exists {
			v = &visitor{limiter: rate.NewLimiter(every, limit)}
			visitors[ip] = v
		}
		v.lastSeen = now
		return v.limiter
	}

	return func(c *gin.Context) {
		if !getVisitor(c.ClientIP(), time.Now()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			return
		}
		c.Next()
	}
}
