package signal

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// armHeartbeat bounds inbound frame size and makes every pong extend the read deadline.
func (ctl *SignalWSController) armHeartbeat(c *WsSignalConn) {
	c.conn.SetReadLimit(ctl.Opts.ReadLimit)
	ctl.extendRead(c)
	c.conn.SetPongHandler(func(string) error {
		ctl.extendRead(c)
		return nil
	})
}

func (ctl *SignalWSController) extendRead(c *WsSignalConn) {
	if err := c.conn.SetReadDeadline(time.Now().Add(ctl.Opts.PongWait)); err != nil {
		log.Debug().Err(err).Str("module", "signal").Msg("set read deadline")
	}
}

func (ctl *SignalWSController) ping(c *WsSignalConn) error {
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(ctl.Opts.WriteWait))
}
