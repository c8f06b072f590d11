package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"smarttravel/internal/domain"
)

// SessionCookie carries the login token for browser clients.
const SessionCookie = "smarttravel_session"

const userKey = "request_user"

// TokenParser turns a bearer token into the caller's identity.
type TokenParser interface {
	ParseToken(raw string) (domain.RequestContext, error)
}

// RequireAuth rejects requests without a valid session cookie or bearer token.
func RequireAuth(p TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := tokenFromRequest(c)
		if raw == "" {
			abortUnauthorized(c, domain.UnauthorizedError{}.Error())
			return
		}
		rc, err := p.ParseToken(raw)
		if err != nil {
			abortUnauthorized(c, err.Error())
			return
		}
		c.Set(userKey, rc)
		c.Next()
	}
}

func tokenFromRequest(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		if v, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(v)
		}
	}
	if v, err := c.Cookie(SessionCookie); err == nil {
		return strings.TrimSpace(v)
	}
	return ""
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"status":     "error",
		"message":    msg,
		"request_id": GetRequestID(c),
	})
}

// CurrentUser returns the identity set by RequireAuth.
func CurrentUser(c *gin.Context) (domain.RequestContext, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return domain.RequestContext{}, false
	}
	rc, ok := v.(domain.RequestContext)
	return rc, ok
}
