package signal

import (
	"context"
	"time"

	"github.com/dkeye/Relay/internal/core"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.Opts.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()
	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Msg("writePump ctx done")
			return
		case <-ticker.C:
			if err := ctl.ping(c); err != nil {
				log.Debug().Err(err).Str("module", "signal").Msg("writePump ping")
				return
			}
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.Opts.WriteWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

// readPump owns teardown: whatever ends the connection, Disconnect runs exactly here.
func (ctl *SignalWSController) readPump(ctx context.Context, cancel context.CancelFunc, sess core.Session, c *WsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("user", string(sess.Identity().ID)).Str("conn", string(sess.ID())).Msg("readPump closing")
		ctl.Orch.Disconnect(sess)
		cancel()
		c.Close()
	}()

	ctl.armHeartbeat(c)
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("conn", string(sess.ID())).Msg("readPump ctx done")
			return
		default:
			mt, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Warn().Err(err).Str("module", "signal").Str("conn", string(sess.ID())).Msg("readPump read error")
				}
				return
			}
			if mt != websocket.TextMessage {
				continue
			}
			ctl.extendRead(c)
			ctl.handleSignal(sess, data)
		}
	}
}

func (ctl *SignalWSController) handleSignal(sess core.Session, data []byte) {
	who := sess.Identity()
	ev, err := core.Decode(data)
	if err != nil {
		ctl.Orch.Metrics.MalformedFrame()
		log.Warn().Err(err).Str("module", "signal").Str("user", string(who.ID)).Str("conn", string(sess.ID())).Msg("dropped inbound frame")
		return
	}
	if ev.Type() != core.EventPing && !ctl.Limiter.Allow(who.ID) {
		ctl.Orch.Metrics.RateLimitedEvent()
		log.Debug().Str("module", "signal").Str("user", string(who.ID)).Str("type", string(ev.Type())).Msg("rate limited")
		return
	}
	ctl.Orch.Handle(sess, ev)
}
