package app

import (
	"testing"
	"time"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/core/coretest"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

type relayFixture struct {
	reg     *Registry
	rooms   *RoomTracker
	metrics *Metrics
	relay   *MessageRelay
}

func newRelayFixture() *relayFixture {
	f := &relayFixture{reg: NewRegistry(), rooms: NewRoomTracker(), metrics: NewMetrics()}
	f.relay = &MessageRelay{
		Registry: f.reg,
		Rooms:    f.rooms,
		Fanout:   &Fanout{Policy: KickPolicy{}, Metrics: f.metrics},
		Dedup:    NewDeduper(64, time.Minute),
		Metrics:  f.metrics,
		Now:      func() time.Time { return time.UnixMilli(1700000000000) },
	}
	return f
}

func (f *relayFixture) connect(id core.ConnID, u domain.UserID, groups ...domain.GroupID) *coretest.Conn {
	s, conn := coretest.NewSession(id, u)
	f.reg.Register(s)
	f.rooms.Sync(s.Identity(), append(f.rooms.RoomsOf(u), groups...))
	return conn
}

func TestMessageRelay_Private_AllReceiverConnectionsOnly(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture()
	c1a := f.connect("c1a", "u1")
	c1b := f.connect("c1b", "u1")
	c1c := f.connect("c1c", "u1")
	c2 := f.connect("c2", "u2")
	c3 := f.connect("c3", "u3")

	// When u2 sends u1 a private message
	out := f.relay.Private(core.EventPrivateMessage, domain.ChatMessage{
		SenderID: "u2", SenderName: "name-u2", ReceiverID: "u1", Content: "hi",
	})

	// Then every u1 connection gets it and nobody else does
	req.Equal(3, out.SendTo)
	for _, conn := range []*coretest.Conn{c1a, c1b, c1c} {
		got := conn.Of(core.EventPrivateMessage)
		req.Len(got, 1)
		d := coretest.Decode[core.ChatDelivery](got[0])
		req.Equal(domain.UserID("u1"), d.ToUserID)
		req.Equal("hi", d.Msg.Content)
		req.Equal(out.Msg.ID, d.Msg.ID)
		req.Equal(int64(1700000000000), d.Msg.Timestamp)
	}
	req.Empty(c2.Events())
	req.Empty(c3.Events())
	req.NotEmpty(out.Msg.ID)
}

func TestMessageRelay_Private_OfflineReceiver_SilentDrop(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture()
	c2 := f.connect("c2", "u2")

	out := f.relay.Private(core.EventPrivateFile, domain.ChatMessage{
		ID: "m1", SenderID: "u2", ReceiverID: "u1", FileURL: "https://files/x.png",
	})

	req.Zero(out.SendTo)
	req.False(out.Duplicate)
	req.Empty(c2.Events())
}

func TestMessageRelay_Group_EchoesToSender(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture()
	c1a := f.connect("c1a", "u1", "G1")
	c1b := f.connect("c1b", "u1", "G1")
	c2a := f.connect("c2a", "u2", "G1")
	c3 := f.connect("c3", "u3", "G9")

	// When U1 sends {groupId:"G1", content:"hi"}
	out := f.relay.Group(core.EventGroupMessage, domain.ChatMessage{
		SenderID: "u1", SenderName: "name-u1", GroupID: "G1", Content: "hi",
	})

	// Then C1a, C1b and C2a each receive it
	req.Equal(3, out.SendTo)
	for _, conn := range []*coretest.Conn{c1a, c1b, c2a} {
		got := conn.Of(core.EventGroupMessage)
		req.Len(got, 1)
		d := coretest.Decode[core.ChatDelivery](got[0])
		req.Equal(domain.GroupID("G1"), d.GroupID)
		req.Equal(domain.UserID("u1"), d.Msg.SenderID)
		req.Equal("hi", d.Msg.Content)
	}
	req.Empty(c3.Events())
}

func TestMessageRelay_DuplicateIDSuppressed(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture()
	c1 := f.connect("c1", "u1")
	msg := domain.ChatMessage{ID: "m1", SenderID: "u2", ReceiverID: "u1", Content: "hi"}

	first := f.relay.Private(core.EventPrivateMessage, msg)
	second := f.relay.Private(core.EventPrivateMessage, msg)

	req.False(first.Duplicate)
	req.True(second.Duplicate)
	req.Len(c1.Events(), 1)
	req.Equal(1.0, testutil.ToFloat64(f.metrics.Deduplicated))

	// The same id under another kind is a different event
	req.False(f.relay.Private(core.EventPrivateFile, domain.ChatMessage{ID: "m1", ReceiverID: "u1", FileURL: "u"}).Duplicate)
}

func TestMessageRelay_SameIDFromDifferentSendersBothDelivered(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture()
	c2 := f.connect("c2", "U2")
	c4a := f.connect("c4a", "U4")
	c4b := f.connect("c4b", "U4")

	// Given two unrelated senders that stamped the same clock-based id
	first := f.relay.Private(core.EventPrivateMessage, domain.ChatMessage{ID: "1760000000000", SenderID: "U1", ReceiverID: "U2", Content: "a"})
	second := f.relay.Private(core.EventPrivateMessage, domain.ChatMessage{ID: "1760000000000", SenderID: "U3", ReceiverID: "U4", Content: "b"})

	// Then neither is treated as a repeat
	req.False(first.Duplicate)
	req.False(second.Duplicate)
	req.Len(c2.Of(core.EventPrivateMessage), 1)
	req.Len(c4a.Of(core.EventPrivateMessage), 1)
	req.Len(c4b.Of(core.EventPrivateMessage), 1)
	req.Equal(0.0, testutil.ToFloat64(f.metrics.Deduplicated))

	// And a retry from the same sender is still suppressed
	req.True(f.relay.Private(core.EventPrivateMessage, domain.ChatMessage{ID: "1760000000000", SenderID: "U3", ReceiverID: "U4", Content: "b"}).Duplicate)
	req.Len(c4a.Of(core.EventPrivateMessage), 1)
}

func TestMessageRelay_AssignedIDsAreUnique(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture()
	c1 := f.connect("c1", "u1")
	msg := domain.ChatMessage{SenderID: "u2", ReceiverID: "u1", Content: "same text"}

	f.relay.Private(core.EventPrivateMessage, msg)
	f.relay.Private(core.EventPrivateMessage, msg)

	got := c1.Of(core.EventPrivateMessage)
	req.Len(got, 2)
	req.NotEqual(
		coretest.Decode[core.ChatDelivery](got[0]).Msg.ID,
		coretest.Decode[core.ChatDelivery](got[1]).Msg.ID,
	)
}
