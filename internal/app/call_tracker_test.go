package app

import (
	"testing"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/core/coretest"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestCallTracker_Join_NotifiesExistingParticipantsOnly(t *testing.T) {
	req := require.New(t)
	calls := NewCallTracker()
	c1, _ := coretest.NewSession("c1", "u1")
	c2, _ := coretest.NewSession("c2", "u2")
	c3, _ := coretest.NewSession("c3", "u3")

	ch := calls.Join("g2", c1)
	req.True(ch.Changed)
	req.Empty(ch.Notify)

	ch = calls.Join("g2", c2)
	req.True(ch.Changed)
	req.Equal([]core.ConnID{"c1"}, ch.Notify)

	ch = calls.Join("g2", c3)
	req.True(ch.Changed)
	req.ElementsMatch([]core.ConnID{"c1", "c2"}, ch.Notify)

	req.Equal([]domain.Identity{ident("u1"), ident("u2"), ident("u3")}, calls.Participants("g2"))
}

func TestCallTracker_SecondConnection_NoChange(t *testing.T) {
	req := require.New(t)
	calls := NewCallTracker()
	c1a, _ := coretest.NewSession("c1a", "u1")
	c1b, _ := coretest.NewSession("c1b", "u1")
	c2, _ := coretest.NewSession("c2", "u2")
	calls.Join("g1", c2)

	req.True(calls.Join("g1", c1a).Changed)
	req.False(calls.Join("g1", c1b).Changed)
	req.False(calls.Join("g1", c1b).Changed)

	// Leaving from one of two participating connections keeps u1 in the call
	req.False(calls.Leave("g1", c1a).Changed)
	req.True(calls.IsParticipant("g1", "u1"))
	req.ElementsMatch([]core.ConnID{"c1b", "c2"}, calls.ParticipantConns("g1", ""))

	ch := calls.Leave("g1", c1b)
	req.True(ch.Changed)
	req.Equal([]core.ConnID{"c2"}, ch.Notify)
	req.False(calls.IsParticipant("g1", "u1"))
}

func TestCallTracker_Leave_NotJoined_IsNoop(t *testing.T) {
	req := require.New(t)
	calls := NewCallTracker()
	c1, _ := coretest.NewSession("c1", "u1")

	req.False(calls.Leave("g1", c1).Changed)
	req.Empty(calls.DropConnection(c1))
}

func TestCallTracker_DropConnection_LeavesEveryRoom(t *testing.T) {
	req := require.New(t)
	calls := NewCallTracker()
	c1, _ := coretest.NewSession("c1", "u1")
	c2, _ := coretest.NewSession("c2", "u2")
	calls.Join("g1", c1)
	calls.Join("g2", c1)
	calls.Join("g2", c2)

	changes := calls.DropConnection(c1)

	req.Len(changes, 2)
	req.Equal(domain.GroupID("g1"), changes[0].Room)
	req.True(changes[0].Changed)
	req.Empty(changes[0].Notify)
	req.Equal(domain.GroupID("g2"), changes[1].Room)
	req.Equal([]core.ConnID{"c2"}, changes[1].Notify)

	req.Empty(calls.Participants("g1"))
	req.Empty(calls.byConn["c1"])
	req.NotContains(calls.names, domain.UserID("u1"))
}
