package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/Relay/internal/adapters/auth"
	"github.com/dkeye/Relay/internal/adapters/store"
	"github.com/dkeye/Relay/internal/app/orch"
	"github.com/dkeye/Relay/internal/core"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

type Options struct {
	ReadLimit  int64
	PingPeriod time.Duration
	PongWait   time.Duration
	WriteWait  time.Duration
	SendBuffer int
}

type SignalWSController struct {
	Orch    *orch.Orchestrator
	Limiter *RateLimiter
	Opts    Options

	upgrader websocket.Upgrader
}

func NewSignalWSController(o *orch.Orchestrator, limiter *RateLimiter, opts Options) *SignalWSController {
	return &SignalWSController{
		Orch:    o,
		Limiter: limiter,
		Opts:    opts,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func newWsSignalConn(ws *websocket.Conn, buffer int) *WsSignalConn {
	return &WsSignalConn{conn: ws, send: make(chan core.Frame, buffer)}
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return core.ErrClosed
	}
	select {
	case c.send <- f:
	default:
		return core.ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

// HandleSignal authenticates the handshake, upgrades, and registers the connection.
// Authentication failures are answered before the upgrade, so the client never sees an event.
func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	who, groups, err := ctl.Orch.Authenticate(c.Request.Context(), BearerToken(c))
	if err != nil {
		status := http.StatusUnauthorized
		if errors.Is(err, store.ErrUserNotFound) {
			status = http.StatusForbidden
		}
		log.Warn().Str("module", "signal").Str("remote", c.ClientIP()).Int("status", status).Err(err).Msg("handshake refused")
		c.AbortWithStatusJSON(status, gin.H{"error": handshakeError(err)})
		return
	}

	ws, err := ctl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("user", string(who.ID)).Msg("ws upgrade")
		return
	}

	conn := newWsSignalConn(ws, ctl.Opts.SendBuffer)
	sess := core.NewSession(core.NewConnID(), who, conn)
	log.Info().Str("module", "signal").Str("user", string(who.ID)).Str("conn", string(sess.ID())).Msg("new WS connection")

	ctl.Orch.Connect(sess, groups)

	connCtx, cancel := context.WithCancel(ctx)
	go ctl.writePump(connCtx, conn)
	go ctl.readPump(connCtx, cancel, sess, conn)
}

func handshakeError(err error) string {
	switch {
	case errors.Is(err, auth.ErrMissingCredential):
		return "missing credential"
	case errors.Is(err, store.ErrUserNotFound):
		return "user not found"
	}
	return "invalid credential"
}
