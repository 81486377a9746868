package core

import "github.com/dkeye/Relay/internal/domain"

// session implements Session by pairing identity + transport.
type session struct {
	id       ConnID
	identity domain.Identity
	conn     SignalConnection
}

func NewSession(id ConnID, identity domain.Identity, conn SignalConnection) Session {
	return &session{id: id, identity: identity, conn: conn}
}

func (s *session) ID() ConnID                { return s.id }
func (s *session) Identity() domain.Identity { return s.identity }
func (s *session) Signal() SignalConnection  { return s.conn }
