package app

import (
	"time"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// Relayed reports what happened to one chat event.
type Relayed struct {
	core.PublishResult
	Msg       domain.ChatMessage
	Duplicate bool
}

// MessageRelay delivers already persisted chat events to live connections.
// Every delivered message carries an id, and a (kind, sender, id) triple is relayed at most once per dedup window.
type MessageRelay struct {
	Registry *Registry
	Rooms    *RoomTracker
	Fanout   *Fanout
	Dedup    *Deduper
	Metrics  *Metrics
	Now      func() time.Time
}

// Private delivers msg to every connection of msg.ReceiverID and nowhere else.
func (r *MessageRelay) Private(kind core.EventType, msg domain.ChatMessage) Relayed {
	msg = r.stamp(msg)
	out := Relayed{Msg: msg}
	if r.duplicate(kind, msg) {
		out.Duplicate = true
		return out
	}
	targets := r.Registry.ConnectionsOf(msg.ReceiverID)
	out.PublishResult = r.Fanout.Emit(targets, kind, core.ChatDelivery{ToUserID: msg.ReceiverID, Msg: msg})
	if len(targets) == 0 {
		log.Debug().Str("module", "app.relay").Str("type", string(kind)).Str("user", string(msg.ReceiverID)).Msg("receiver offline, dropped")
	}
	return out
}

// Group delivers msg to every connection of every member of msg.GroupID, the sender's included.
func (r *MessageRelay) Group(kind core.EventType, msg domain.ChatMessage) Relayed {
	msg = r.stamp(msg)
	out := Relayed{Msg: msg}
	if r.duplicate(kind, msg) {
		out.Duplicate = true
		return out
	}
	targets := lo.FlatMap(r.Rooms.MembersOf(msg.GroupID), func(who domain.Identity, _ int) []core.Session {
		return r.Registry.ConnectionsOf(who.ID)
	})
	out.PublishResult = r.Fanout.Emit(targets, kind, core.ChatDelivery{GroupID: msg.GroupID, Msg: msg})
	log.Debug().Str("module", "app.relay").Str("type", string(kind)).Str("room", string(msg.GroupID)).Int("sent_to", out.SendTo).Msg("group relayed")
	return out
}

func (r *MessageRelay) stamp(msg domain.ChatMessage) domain.ChatMessage {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp == 0 {
		now := time.Now
		if r.Now != nil {
			now = r.Now
		}
		msg.Timestamp = now().UnixMilli()
	}
	return msg
}

func (r *MessageRelay) duplicate(kind core.EventType, msg domain.ChatMessage) bool {
	if !r.Dedup.Seen(dedupKey(kind, msg)) {
		return false
	}
	r.Metrics.deduplicated()
	log.Debug().Str("module", "app.relay").Str("type", string(kind)).Str("from", string(msg.SenderID)).Str("id", msg.ID).Msg("duplicate suppressed")
	return true
}

// Ids are only unique per sender.
func dedupKey(kind core.EventType, msg domain.ChatMessage) string {
	return string(kind) + "/" + string(msg.SenderID) + "/" + msg.ID
}
