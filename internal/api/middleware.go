package api

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/mayor-schedule-api/internal/auth"
	"github.com/mayor-schedule-api/internal/models"
	"github.com/mayor-schedule-api/internal/service"
)

const (
	ctxClaimsKey = "auth_claims"
	ctxUserKey   = "auth_user"
)

// authMiddleware verifies the bearer token and loads the caller's user
// record. The record may not exist yet (registration and bootstrap run
// before one does); those routes only need the verified identity.
func authMiddleware(secret string, directory service.DirectoryService, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if raw == "" || raw == c.GetHeader("Authorization") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
			return
		}

		claims, err := auth.ParseToken(raw, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
			return
		}
		c.Set(ctxClaimsKey, claims)

		user, err := directory.GetUser(c.Request.Context(), claims.UserID)
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			log.Error().Err(err).Str("user_id", claims.UserID).Msg("Failed to load caller record")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal"})
			return
		}
		if user != nil {
			c.Set(ctxUserKey, user)
		}

		c.Next()
	}
}

// requireRole gates a route on the single authorization predicate: the
// caller must have an active account with one of the given roles.
func requireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !auth.CanAccess(currentUser(c), roles...) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

// currentClaims returns the verified token claims for the request.
func currentClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(ctxClaimsKey); ok {
		return v.(*auth.Claims)
	}
	return nil
}

// currentUser returns the caller's user record, or nil when none exists.
func currentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(ctxUserKey); ok {
		return v.(*models.User)
	}
	return nil
}

type rateLimitClient struct {
	lim  *rate.Limiter
	seen time.Time
}

// RateLimiter tracks per-client-IP token buckets.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*rateLimitClient
	r       rate.Limit
	burst   int
}

// NewRateLimiter creates a limiter allowing rps requests per second with
// the given burst per client.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*rateLimitClient),
		r:       rate.Limit(rps),
		burst:   burst,
	}
	// cleanup stale entries every minute
	go func() {
		for {
			time.Sleep(time.Minute)
			rl.mu.Lock()
			for ip, cl := range rl.clients {
				if time.Since(cl.seen) > 3*time.Minute {
					delete(rl.clients, ip)
				}
			}
			rl.mu.Unlock()
		}
	}()
	return rl
}

func (rl *RateLimiter) get(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if cl, ok := rl.clients[ip]; ok {
		cl.seen = time.Now()
		return cl.lim
	}
	l := rate.NewLimiter(rl.r, rl.burst)
	rl.clients[ip] = &rateLimitClient{lim: l, seen: time.Now()}
	return l
}

// rateLimitMiddleware rejects clients that exceed their bucket.
func rateLimitMiddleware(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.get(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
