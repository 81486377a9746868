package app

import (
	"encoding/json"
	"testing"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/core/coretest"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/stretchr/testify/require"
)

var (
	testOffer     = json.RawMessage(`{"type":"offer","sdp":"v=0"}`)
	testAnswer    = json.RawMessage(`{"type":"answer","sdp":"v=0"}`)
	testCandidate = json.RawMessage(`{"candidate":"candidate:1 1 udp 1 10.0.0.1 5000 typ host","sdpMid":"0"}`)
)

func TestCallRelay_OfferReachesEveryTargetDevice(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	calls := &CallRelay{Registry: reg, Fanout: &Fanout{}}
	c1, conn1 := coretest.NewSession("c1", "u1")
	c2a, conn2a := coretest.NewSession("c2a", "u2")
	c2b, conn2b := coretest.NewSession("c2b", "u2")
	reg.Register(c1)
	reg.Register(c2a)
	reg.Register(c2b)

	res := calls.Offer(c1.Identity(), core.CallOffer{ToUserID: "u2", Offer: testOffer, CallType: domain.CallAudio})

	req.Equal(2, res.SendTo)
	for _, conn := range []*coretest.Conn{conn2a, conn2b} {
		got := conn.Of(core.EventCallOffer)
		req.Len(got, 1)
		sig := coretest.Decode[core.CallSignal](got[0])
		req.Equal(domain.UserID("u1"), sig.FromUserID)
		req.Equal("name-u1", sig.FromUserName)
		req.Equal(domain.CallAudio, sig.CallType)
		req.JSONEq(string(testOffer), string(sig.Offer))
	}
	req.Empty(conn1.Events())
}

func TestCallRelay_OfflineTarget_NothingDelivered(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	calls := &CallRelay{Registry: reg, Fanout: &Fanout{}}
	c1, conn1 := coretest.NewSession("c1", "u1")
	reg.Register(c1)

	res := calls.Offer(c1.Identity(), core.CallOffer{ToUserID: "u2", Offer: testOffer, CallType: domain.CallVideo})

	req.Zero(res.SendTo)
	req.Empty(res.Dropped)
	req.Empty(conn1.Events())
}

func TestCallRelay_AnswerICEEnd(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	calls := &CallRelay{Registry: reg, Fanout: &Fanout{}}
	c1, conn1 := coretest.NewSession("c1", "u1")
	reg.Register(c1)
	from := ident("u2")

	calls.Answer(from, core.CallAnswer{ToUserID: "u1", Answer: testAnswer})
	calls.ICE(from, core.CallICE{ToUserID: "u1", Candidate: testCandidate})
	calls.ICE(from, core.CallICE{ToUserID: "u1", Candidate: testCandidate})
	calls.End(from, core.CallEnd{ToUserID: "u1"})
	calls.End(from, core.CallEnd{})

	events := conn1.Events()
	req.Len(events, 4)
	req.Equal(core.EventCallAnswer, events[0].Type)
	req.Equal(core.EventCallICE, events[1].Type)
	req.Equal(core.EventCallICE, events[2].Type)
	req.Equal(core.EventCallEnd, events[3].Type)
	req.JSONEq(`{"fromUserId":"u2"}`, string(events[3].Data))
	req.JSONEq(string(testCandidate), string(coretest.Decode[core.CallSignal](events[1]).Candidate))
}
