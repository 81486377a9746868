package core

import (
	"github.com/dkeye/Relay/internal/domain"
	"github.com/google/uuid"
)

// ConnID is unique per live transport connection.
type ConnID string

func NewConnID() ConnID { return ConnID(uuid.NewString()) }

// Session binds an Identity to one live transport endpoint.
// This is what the registry stores and fans out to.
type Session interface {
	ID() ConnID
	Identity() domain.Identity
	Signal() SignalConnection
}
