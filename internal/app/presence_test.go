package app

import (
	"testing"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/core/coretest"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestPresence_AnnounceSkipsNewConnection(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	p := &Presence{Registry: reg, Fanout: &Fanout{}}
	c2, conn2 := coretest.NewSession("c2", "u2")
	c1a, conn1a := coretest.NewSession("c1a", "u1")
	c1b, conn1b := coretest.NewSession("c1b", "u1")
	reg.Register(c2)
	reg.Register(c1a)

	p.Announce(c1a)
	reg.Register(c1b)
	p.Snapshot(c1b)

	online := conn2.Of(core.EventUserOnline)
	req.Len(online, 1)
	req.Equal(domain.UserID("u1"), coretest.Decode[core.PresenceChange](online[0]).UserID)
	req.Empty(conn1a.Events())

	snaps := conn1b.Of(core.EventUsersOnline)
	req.Len(snaps, 1)
	snap := coretest.Decode[core.UsersOnline](snaps[0])
	req.Equal(2, snap.Count)
	req.Equal([]domain.UserID{"u1", "u2"}, snap.Users)
}

func TestPresence_RetractReachesEveryone(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	p := &Presence{Registry: reg, Fanout: &Fanout{}}
	c2, conn2 := coretest.NewSession("c2", "u2")
	c3, conn3 := coretest.NewSession("c3", "u3")
	reg.Register(c2)
	reg.Register(c3)

	p.Retract("u1")

	for _, conn := range []*coretest.Conn{conn2, conn3} {
		off := conn.Of(core.EventUserOffline)
		req.Len(off, 1)
		req.Equal(domain.UserID("u1"), coretest.Decode[core.PresenceChange](off[0]).UserID)
	}
}
