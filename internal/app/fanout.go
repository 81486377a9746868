package app

import (
	"errors"

	"github.com/dkeye/Relay/internal/core"
	"github.com/rs/zerolog/log"
)

// Fanout queues one frame on many connections without blocking.
type Fanout struct {
	Policy  Policy
	Metrics *Metrics
}

func (f *Fanout) Send(targets []core.Session, t core.EventType, frame core.Frame) core.PublishResult {
	res := core.PublishResult{}
	for _, s := range targets {
		err := s.Signal().TrySend(frame)
		if err == nil {
			res.SendTo++
			continue
		}
		res.Dropped = append(res.Dropped, s)
		if !errors.Is(err, core.ErrBackpressure) {
			log.Debug().Str("module", "app.fanout").Str("conn", string(s.ID())).Str("type", string(t)).Err(err).Msg("send to closed connection")
			continue
		}
		f.Metrics.droppedBackpressure(string(t), 1)
		f.onBackpressure(s, t)
	}
	f.Metrics.delivered(string(t), res.SendTo)
	log.Debug().Str("module", "app.fanout").Str("type", string(t)).Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("fanout result")
	return res
}

// Emit encodes v as a t event and sends it to targets.
func (f *Fanout) Emit(targets []core.Session, t core.EventType, v any) core.PublishResult {
	if len(targets) == 0 {
		return core.PublishResult{}
	}
	frame, err := core.Encode(t, v)
	if err != nil {
		log.Error().Str("module", "app.fanout").Str("type", string(t)).Err(err).Msg("encode failed")
		return core.PublishResult{}
	}
	return f.Send(targets, t, frame)
}

func (f *Fanout) onBackpressure(s core.Session, t core.EventType) {
	if f.Policy == nil {
		return
	}
	switch f.Policy.OnBackPressure(s) {
	case KickMember:
		log.Warn().Str("module", "app.fanout").Str("user", string(s.Identity().ID)).Str("conn", string(s.ID())).Str("type", string(t)).Msg("slow connection kicked")
		s.Signal().Close()
	case DropFrame, NoAction:
	}
}
