package http

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/dkeye/Relay/internal/adapters/signal"
	"github.com/dkeye/Relay/internal/adapters/store"
	"github.com/dkeye/Relay/internal/app/orch"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	ctxIdentity = "identity"
	ctxGroups   = "groups"
)

// RequireIdentity authenticates a plain HTTP request the same way the WS handshake is authenticated.
func RequireIdentity(o *orch.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, groups, err := o.Authenticate(c.Request.Context(), signal.BearerToken(c))
		if err != nil {
			status := http.StatusUnauthorized
			if errors.Is(err, store.ErrUserNotFound) {
				status = http.StatusForbidden
			}
			c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
			return
		}
		c.Set(ctxIdentity, who)
		c.Set(ctxGroups, groups)
		c.Next()
	}
}

func identityOf(c *gin.Context) domain.Identity {
	who, _ := c.Get(ctxIdentity)
	id, _ := who.(domain.Identity)
	return id
}

// InternalKey guards the hooks the persistence side calls. An empty key disables them.
func InternalKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader("X-Internal-Key")
		if key == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			log.Warn().Str("module", "adapters.http").Str("remote", c.ClientIP()).Str("path", c.FullPath()).Msg("internal hook refused")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid internal key"})
			return
		}
		c.Next()
	}
}
