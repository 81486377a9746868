package app

import (
	"errors"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/rs/zerolog/log"
)

var ErrNotMember = errors.New("not a member of the room")

// GroupCallRelay bootstraps mesh calls: join and leave are announced per room,
// offer, answer and ice travel pairwise. Mesh completion is left to the peers.
type GroupCallRelay struct {
	Registry *Registry
	Rooms    *RoomTracker
	Calls    *CallTracker
	Fanout   *Fanout
}

// Join adds sess to room's call and tells the existing participants about the newcomer.
func (r *GroupCallRelay) Join(sess core.Session, room domain.GroupID) error {
	who := sess.Identity()
	if !r.Rooms.IsMember(room, who.ID) {
		return ErrNotMember
	}
	ch := r.Calls.Join(room, sess)
	if !ch.Changed {
		log.Debug().Str("module", "app.groupcall").Str("room", string(room)).Str("user", string(who.ID)).Str("conn", string(sess.ID())).Msg("additional connection joined call")
		return nil
	}
	res := r.announce(core.EventGroupCallUserJoined, ch)
	log.Info().Str("module", "app.groupcall").Str("room", string(room)).Str("user", string(who.ID)).Int("notified", res.SendTo).Msg("joined call")
	return nil
}

func (r *GroupCallRelay) Leave(sess core.Session, room domain.GroupID) {
	ch := r.Calls.Leave(room, sess)
	if !ch.Changed {
		return
	}
	res := r.announce(core.EventGroupCallEnd, ch)
	log.Info().Str("module", "app.groupcall").Str("room", string(room)).Str("user", string(ch.User.ID)).Int("notified", res.SendTo).Msg("left call")
}

// Drop runs when sess closes: every call it was in hears a synthesized end.
func (r *GroupCallRelay) Drop(sess core.Session) {
	for _, ch := range r.Calls.DropConnection(sess) {
		if !ch.Changed {
			continue
		}
		res := r.announce(core.EventGroupCallEnd, ch)
		log.Info().Str("module", "app.groupcall").Str("room", string(ch.Room)).Str("user", string(ch.User.ID)).Int("notified", res.SendTo).Msg("dropped from call")
	}
}

// Offer is unicast when a target is named, otherwise it reaches every other participant.
// Only room members may broadcast into a call.
func (r *GroupCallRelay) Offer(from domain.Identity, ev core.GroupCallOffer) core.PublishResult {
	payload := core.CallSignal{
		GroupID:      ev.GroupID,
		FromUserID:   from.ID,
		FromUserName: from.Name,
		Offer:        ev.Offer,
		CallType:     ev.CallType,
	}
	if ev.ToUserID != "" {
		return r.unicast(ev.Type(), ev.ToUserID, payload)
	}
	if !r.Rooms.IsMember(ev.GroupID, from.ID) {
		log.Warn().Str("module", "app.groupcall").Str("room", string(ev.GroupID)).Str("user", string(from.ID)).Msg("offer from non-member dropped")
		return core.PublishResult{}
	}
	targets := r.Registry.Sessions(r.Calls.ParticipantConns(ev.GroupID, from.ID))
	return r.Fanout.Emit(targets, ev.Type(), payload)
}

func (r *GroupCallRelay) Answer(from domain.Identity, ev core.GroupCallAnswer) core.PublishResult {
	return r.unicast(ev.Type(), ev.ToUserID, core.CallSignal{GroupID: ev.GroupID, FromUserID: from.ID, Answer: ev.Answer})
}

func (r *GroupCallRelay) ICE(from domain.Identity, ev core.GroupCallICE) core.PublishResult {
	return r.unicast(ev.Type(), ev.ToUserID, core.CallSignal{GroupID: ev.GroupID, FromUserID: from.ID, Candidate: ev.Candidate})
}

func (r *GroupCallRelay) announce(t core.EventType, ch CallChange) core.PublishResult {
	return r.Fanout.Emit(r.Registry.Sessions(ch.Notify), t, core.ParticipantChange{
		GroupID:  ch.Room,
		UserID:   ch.User.ID,
		UserName: ch.User.Name,
	})
}

func (r *GroupCallRelay) unicast(t core.EventType, to domain.UserID, payload core.CallSignal) core.PublishResult {
	targets := r.Registry.ConnectionsOf(to)
	if len(targets) == 0 {
		log.Debug().Str("module", "app.groupcall").Str("type", string(t)).Str("room", string(payload.GroupID)).Str("user", string(to)).Msg("target offline, dropped")
	}
	return r.Fanout.Emit(targets, t, payload)
}
