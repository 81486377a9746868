package http

import (
	"context"

	"github.com/dkeye/Relay/internal/adapters/signal"
	"github.com/dkeye/Relay/internal/app/orch"
	"github.com/dkeye/Relay/internal/config"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/pion/webrtc/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const sessionName = "RelaySessions"

type Handlers struct {
	Orch       *orch.Orchestrator
	ICEServers []webrtc.ICEServer
}

func SetupRouter(ctx context.Context, cfg *config.Config, o *orch.Orchestrator, ctl *signal.SignalWSController, ice []webrtc.ICEServer) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{Path: "/", MaxAge: 3600 * 24 * 7, HttpOnly: true})
	r.Use(sessions.Sessions(sessionName, store))

	h := &Handlers{Orch: o, ICEServers: ice}

	r.GET("/healthz", h.health)
	if o.Metrics != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(o.Metrics.Registry, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")

	api.GET("/ws", func(c *gin.Context) {
		ctl.HandleSignal(ctx, c)
	})
	api.POST("/session", h.login)
	api.DELETE("/session", h.logout)

	authed := api.Group("", RequireIdentity(o))
	authed.GET("/ice", h.ice)
	authed.GET("/presence", h.presence)
	authed.GET("/groups/:id/members", h.groupMembers)

	internal := api.Group("/internal", InternalKey(cfg.InternalAPIKey))
	internal.PUT("/users/:id", h.putUser)
	internal.DELETE("/users/:id", h.deleteUser)
	internal.POST("/messages/private", h.publish(false))
	internal.POST("/messages/group", h.publish(true))

	log.Info().Str("module", "adapters.http").Bool("internal_hooks", cfg.InternalAPIKey != "").Msg("router setup")
	return r
}
