package httpserver

import (
	"context"
	"net/http"
	"strings"

	"zaoconnect/internal/cache"
	"zaoconnect/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ctxKey int

const (
	userCtxKey ctxKey = iota
	tokenCtxKey
)

// requestID tags every request with an id for log correlation, honoring
// one supplied by the caller.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}

// requireAuth resolves the bearer token into a user and rejects the
// request when the token is missing or dead.
func requireAuth(users userService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		u, err := users.LookupByToken(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		setCurrentUser(c, u, token)
		c.Next()
	}
}

// optionalAuth resolves the token when one is present and stays silent
// otherwise. Product visibility depends on who is asking.
func optionalAuth(users userService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c); token != "" {
			if u, err := users.LookupByToken(c.Request.Context(), token); err == nil {
				setCurrentUser(c, u, token)
			}
		}
		c.Next()
	}
}

// rateLimit throttles per authenticated user. It sits behind requireAuth,
// so an absent user means another middleware already rejected the request.
func rateLimit(limiter *cache.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := currentUser(c)
		if u != nil && !limiter.Allow(c.Request.Context(), "checkout:"+u.ID) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many payment attempts, try again shortly"})
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func setCurrentUser(c *gin.Context, u *domain.User, token string) {
	ctx := context.WithValue(c.Request.Context(), userCtxKey, u)
	ctx = context.WithValue(ctx, tokenCtxKey, token)
	c.Request = c.Request.WithContext(ctx)
}

func currentUser(c *gin.Context) *domain.User {
	u, _ := c.Request.Context().Value(userCtxKey).(*domain.User)
	return u
}

func currentToken(c *gin.Context) string {
	t, _ := c.Request.Context().Value(tokenCtxKey).(string)
	return t
}

// requireRole gates a handler on account capability. Staff accounts pass
// every role check. It writes the response itself and reports whether the
// handler may proceed.
func requireRole(c *gin.Context, u *domain.User, role domain.Role) bool {
	if u == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return false
	}
	if u.IsStaff || u.Role == role {
		return true
	}
	c.JSON(http.StatusForbidden, gin.H{"error": string(role) + " account required"})
	return false
}

func requireStaff(c *gin.Context, u *domain.User) bool {
	if u == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return false
	}
	if !u.IsStaff {
		c.JSON(http.StatusForbidden, gin.H{"error": "staff access required"})
		return false
	}
	return true
}
