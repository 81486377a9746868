package app

import (
	"testing"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/core/coretest"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/stretchr/testify/require"
)

type groupFixture struct {
	reg   *Registry
	rooms *RoomTracker
	relay *GroupCallRelay
}

func newGroupFixture() *groupFixture {
	f := &groupFixture{reg: NewRegistry(), rooms: NewRoomTracker()}
	f.relay = &GroupCallRelay{Registry: f.reg, Rooms: f.rooms, Calls: NewCallTracker(), Fanout: &Fanout{}}
	return f
}

func (f *groupFixture) connect(id core.ConnID, u domain.UserID, groups ...domain.GroupID) (core.Session, *coretest.Conn) {
	s, conn := coretest.NewSession(id, u)
	f.reg.Register(s)
	f.rooms.Sync(s.Identity(), groups)
	return s, conn
}

func joinedIDs(conn *coretest.Conn, t core.EventType) []domain.UserID {
	var out []domain.UserID
	for _, env := range conn.Of(t) {
		out = append(out, coretest.Decode[core.ParticipantChange](env).UserID)
	}
	return out
}

func TestGroupCall_Join_OnlyExistingParticipantsHearNewcomer(t *testing.T) {
	req := require.New(t)
	f := newGroupFixture()
	s1, c1 := f.connect("c1", "U1", "G2")
	s2, c2 := f.connect("c2", "U2", "G2")
	s3, c3 := f.connect("c3", "U3", "G2")

	// When U1, U2, U3 join in order
	req.NoError(f.relay.Join(s1, "G2"))
	req.NoError(f.relay.Join(s2, "G2"))
	req.NoError(f.relay.Join(s3, "G2"))

	// Then
	req.Equal([]domain.UserID{"U2", "U3"}, joinedIDs(c1, core.EventGroupCallUserJoined))
	req.Equal([]domain.UserID{"U3"}, joinedIDs(c2, core.EventGroupCallUserJoined))
	req.Empty(joinedIDs(c3, core.EventGroupCallUserJoined))

	got := coretest.Decode[core.ParticipantChange](c1.Of(core.EventGroupCallUserJoined)[0])
	req.Equal(domain.GroupID("G2"), got.GroupID)
	req.Equal("name-U2", got.UserName)
}

func TestGroupCall_Join_RequiresMembership(t *testing.T) {
	req := require.New(t)
	f := newGroupFixture()
	s1, c1 := f.connect("c1", "U1", "G2")
	outsider, _ := f.connect("cx", "UX", "G9")
	req.NoError(f.relay.Join(s1, "G2"))

	req.ErrorIs(f.relay.Join(outsider, "G2"), ErrNotMember)
	req.Empty(c1.Events())
	req.False(f.relay.Calls.IsParticipant("G2", "UX"))
}

func TestGroupCall_SecondConnection_NotReannounced(t *testing.T) {
	req := require.New(t)
	f := newGroupFixture()
	s1a, _ := f.connect("c1a", "U1", "G2")
	s1b, _ := f.connect("c1b", "U1", "G2")
	s2, c2 := f.connect("c2", "U2", "G2")
	req.NoError(f.relay.Join(s2, "G2"))

	req.NoError(f.relay.Join(s1a, "G2"))
	req.NoError(f.relay.Join(s1b, "G2"))
	req.Equal([]domain.UserID{"U1"}, joinedIDs(c2, core.EventGroupCallUserJoined))

	f.relay.Leave(s1a, "G2")
	req.Empty(c2.Of(core.EventGroupCallEnd))

	f.relay.Leave(s1b, "G2")
	req.Equal([]domain.UserID{"U1"}, joinedIDs(c2, core.EventGroupCallEnd))
}

func TestGroupCall_Drop_SynthesizesEnd(t *testing.T) {
	req := require.New(t)
	f := newGroupFixture()
	s1, _ := f.connect("c1", "U1", "G2")
	s2, c2 := f.connect("c2", "U2", "G2")
	s3, c3 := f.connect("c3", "U3", "G2")
	for _, s := range []core.Session{s1, s2, s3} {
		req.NoError(f.relay.Join(s, "G2"))
	}
	c2.Reset()
	c3.Reset()

	// When U1's only connection closes without a leave
	f.relay.Drop(s1)

	// Then both remaining participants hear a synthesized end
	req.Equal([]domain.UserID{"U1"}, joinedIDs(c2, core.EventGroupCallEnd))
	req.Equal([]domain.UserID{"U1"}, joinedIDs(c3, core.EventGroupCallEnd))
	req.Equal([]domain.Identity{ident("U2"), ident("U3")}, f.relay.Calls.Participants("G2"))
}

func TestGroupCall_Offer_BroadcastAndUnicast(t *testing.T) {
	req := require.New(t)
	f := newGroupFixture()
	s1, c1 := f.connect("c1", "U1", "G2")
	s2, c2 := f.connect("c2", "U2", "G2")
	s3, c3 := f.connect("c3", "U3", "G2")
	_, c4 := f.connect("c4", "U4", "G2")
	for _, s := range []core.Session{s1, s2, s3} {
		req.NoError(f.relay.Join(s, "G2"))
	}
	for _, c := range []*coretest.Conn{c1, c2, c3} {
		c.Reset()
	}

	// Without a target the offer reaches every other participant
	res := f.relay.Offer(s1.Identity(), core.GroupCallOffer{GroupID: "G2", Offer: testOffer, CallType: domain.CallVideo})
	req.Equal(2, res.SendTo)
	req.Empty(c1.Events())
	req.Empty(c4.Events())
	sig := coretest.Decode[core.CallSignal](c2.Of(core.EventGroupCallOffer)[0])
	req.Equal(domain.GroupID("G2"), sig.GroupID)
	req.Equal(domain.UserID("U1"), sig.FromUserID)
	req.Equal("name-U1", sig.FromUserName)

	// With a target it is unicast
	c2.Reset()
	c3.Reset()
	f.relay.Offer(s3.Identity(), core.GroupCallOffer{GroupID: "G2", ToUserID: "U2", Offer: testOffer, CallType: domain.CallAudio})
	req.Len(c2.Of(core.EventGroupCallOffer), 1)
	req.Empty(c1.Events())
}

func TestGroupCall_Offer_BroadcastFromNonMemberDropped(t *testing.T) {
	req := require.New(t)
	f := newGroupFixture()
	s1, c1 := f.connect("c1", "U1", "G2")
	outsider, _ := f.connect("c9", "U9", "G9")
	req.NoError(f.relay.Join(s1, "G2"))
	req.ErrorIs(f.relay.Join(outsider, "G2"), ErrNotMember)
	c1.Reset()

	// When the refused outsider broadcasts an offer into G2
	res := f.relay.Offer(outsider.Identity(), core.GroupCallOffer{GroupID: "G2", Offer: testOffer, CallType: domain.CallVideo})

	// Then no participant hears it
	req.Zero(res.SendTo)
	req.Empty(c1.Of(core.EventGroupCallOffer))
}

func TestGroupCall_AnswerAndICE_Unicast(t *testing.T) {
	req := require.New(t)
	f := newGroupFixture()
	_, c1 := f.connect("c1", "U1", "G2")
	_, c2 := f.connect("c2", "U2", "G2")

	f.relay.Answer(ident("U2"), core.GroupCallAnswer{GroupID: "G2", ToUserID: "U1", Answer: testAnswer})
	f.relay.ICE(ident("U2"), core.GroupCallICE{GroupID: "G2", ToUserID: "U1", Candidate: testCandidate})
	res := f.relay.ICE(ident("U2"), core.GroupCallICE{GroupID: "G2", ToUserID: "U9", Candidate: testCandidate})

	req.Zero(res.SendTo)
	events := c1.Events()
	req.Len(events, 2)
	req.Equal(core.EventGroupCallAnswer, events[0].Type)
	req.Equal(core.EventGroupCallICE, events[1].Type)
	req.Equal(domain.GroupID("G2"), coretest.Decode[core.CallSignal](events[1]).GroupID)
	req.Empty(c2.Events())
}
