package signal

import (
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// SessionTokenKey is where POST /api/session keeps the bearer token in the cookie session.
const SessionTokenKey = "token"

// BearerToken finds the handshake credential: Authorization header, then ?token=, then the session cookie.
func BearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		if scheme, token, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if token := c.Query("token"); token != "" {
		return token
	}
	if _, ok := c.Get(sessions.DefaultKey); ok {
		if token, ok := sessions.Default(c).Get(SessionTokenKey).(string); ok {
			return token
		}
	}
	return ""
}
