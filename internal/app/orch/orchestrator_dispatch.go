package orch

import (
	"fmt"

	"github.com/dkeye/Relay/internal/app"
	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/rs/zerolog/log"
)

// Handle dispatches one decoded inbound event from sess.
func (o *Orchestrator) Handle(sess core.Session, ev core.Event) {
	who := sess.Identity()
	switch ev := ev.(type) {
	case core.ChatSend:
		o.chat(sess, ev)
	case core.CallOffer:
		o.Calls.Offer(who, ev)
	case core.CallAnswer:
		o.Calls.Answer(who, ev)
	case core.CallICE:
		o.Calls.ICE(who, ev)
	case core.CallEnd:
		o.Calls.End(who, ev)
	case core.GroupCallJoin:
		if err := o.GroupCalls.Join(sess, ev.GroupID); err != nil {
			log.Warn().Str("module", "orch").Str("user", string(who.ID)).Str("room", string(ev.GroupID)).Err(err).Msg("group call join refused")
		}
	case core.GroupCallLeave:
		o.GroupCalls.Leave(sess, ev.GroupID)
	case core.GroupCallOffer:
		o.GroupCalls.Offer(who, ev)
	case core.GroupCallAnswer:
		o.GroupCalls.Answer(who, ev)
	case core.GroupCallICE:
		o.GroupCalls.ICE(who, ev)
	case core.Ping:
		o.Fanout.Emit([]core.Session{sess}, core.EventPong, nil)
	default:
		log.Warn().Str("module", "orch").Str("user", string(who.ID)).Str("type", string(ev.Type())).Msg("unhandled event")
	}
}

func (o *Orchestrator) chat(sess core.Session, ev core.ChatSend) {
	who := sess.Identity()
	msg := ev.Msg.From(who)
	if ev.Kind.IsGroupChat() && !o.Rooms.IsMember(ev.GroupID, who.ID) {
		log.Warn().Str("module", "orch").Str("user", string(who.ID)).Str("room", string(ev.GroupID)).Str("type", string(ev.Kind)).Msg("sender not in room, dropped")
		return
	}
	o.relay(ev.Kind, msg)
}

// Publish relays a chat event pushed by the persistence side after it was stored.
func (o *Orchestrator) Publish(kind core.EventType, msg domain.ChatMessage) (app.Relayed, error) {
	switch {
	case kind.IsPrivateChat() && msg.ReceiverID == "":
		return app.Relayed{}, fmt.Errorf("%w: %s: receiverId is required", core.ErrMalformedPayload, kind)
	case kind.IsGroupChat() && msg.GroupID == "":
		return app.Relayed{}, fmt.Errorf("%w: %s: groupId is required", core.ErrMalformedPayload, kind)
	case !kind.IsPrivateChat() && !kind.IsGroupChat():
		return app.Relayed{}, fmt.Errorf("%w: %q", core.ErrUnknownEvent, kind)
	}
	return o.relay(kind, msg), nil
}

func (o *Orchestrator) relay(kind core.EventType, msg domain.ChatMessage) app.Relayed {
	if kind.IsGroupChat() {
		return o.Messages.Group(kind, msg)
	}
	return o.Messages.Private(kind, msg)
}
