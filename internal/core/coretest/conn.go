// Package coretest provides in-memory transports for tests.
package coretest

import (
	"encoding/json"
	"sync"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
)

// Conn is a SignalConnection that records every frame it accepts.
// A positive Capacity makes it report backpressure once that many frames are queued.
type Conn struct {
	Capacity int

	mu     sync.Mutex
	frames []core.Frame
	closed bool
}

func (c *Conn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return core.ErrClosed
	}
	if c.Capacity > 0 && len(c.frames) >= c.Capacity {
		return core.ErrBackpressure
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *Conn) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *Conn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Events returns every recorded envelope in arrival order.
func (c *Conn) Events() []core.Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]core.Envelope, 0, len(c.frames))
	for _, f := range c.frames {
		var env core.Envelope
		if err := json.Unmarshal(f, &env); err != nil {
			panic(err)
		}
		out = append(out, env)
	}
	return out
}

// Of returns the recorded envelopes of type t.
func (c *Conn) Of(t core.EventType) []core.Envelope {
	var out []core.Envelope
	for _, env := range c.Events() {
		if env.Type == t {
			out = append(out, env)
		}
	}
	return out
}

func (c *Conn) Reset() {
	c.mu.Lock()
	c.frames = nil
	c.mu.Unlock()
}

// NewSession returns a session on a fresh recording Conn.
func NewSession(id core.ConnID, user domain.UserID) (core.Session, *Conn) {
	conn := &Conn{}
	return core.NewSession(id, domain.Identity{ID: user, Name: "name-" + string(user)}, conn), conn
}

// Decode unmarshals an envelope's data into v.
func Decode[T any](env core.Envelope) T {
	var v T
	if err := json.Unmarshal(env.Data, &v); err != nil {
		panic(err)
	}
	return v
}
