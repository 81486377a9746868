package app

import (
	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/rs/zerolog/log"
)

// CallRelay forwards 1:1 call signaling to every live connection of the target.
// It keeps no call state; an offline target simply receives nothing.
type CallRelay struct {
	Registry *Registry
	Fanout   *Fanout
}

func (r *CallRelay) Offer(from domain.Identity, ev core.CallOffer) core.PublishResult {
	return r.unicast(ev.Type(), ev.ToUserID, core.CallSignal{
		FromUserID:   from.ID,
		FromUserName: from.Name,
		Offer:        ev.Offer,
		CallType:     ev.CallType,
	})
}

func (r *CallRelay) Answer(from domain.Identity, ev core.CallAnswer) core.PublishResult {
	return r.unicast(ev.Type(), ev.ToUserID, core.CallSignal{FromUserID: from.ID, Answer: ev.Answer})
}

func (r *CallRelay) ICE(from domain.Identity, ev core.CallICE) core.PublishResult {
	return r.unicast(ev.Type(), ev.ToUserID, core.CallSignal{FromUserID: from.ID, Candidate: ev.Candidate})
}

// End relays nowhere when no target was named.
func (r *CallRelay) End(from domain.Identity, ev core.CallEnd) core.PublishResult {
	if ev.ToUserID == "" {
		return core.PublishResult{}
	}
	return r.unicast(ev.Type(), ev.ToUserID, core.CallSignal{FromUserID: from.ID})
}

func (r *CallRelay) unicast(t core.EventType, to domain.UserID, payload core.CallSignal) core.PublishResult {
	targets := r.Registry.ConnectionsOf(to)
	if len(targets) == 0 {
		log.Debug().Str("module", "app.signaling").Str("type", string(t)).Str("from", string(payload.FromUserID)).Str("user", string(to)).Msg("target offline, dropped")
		return core.PublishResult{}
	}
	return r.Fanout.Emit(targets, t, payload)
}
