package app

import (
	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// Presence publishes online and offline transitions derived from the Registry.
type Presence struct {
	Registry *Registry
	Fanout   *Fanout
}

// Announce tells every other live connection that sess's identity came online.
func (p *Presence) Announce(sess core.Session) {
	targets := lo.Filter(p.Registry.All(), func(s core.Session, _ int) bool {
		return s.ID() != sess.ID()
	})
	res := p.Fanout.Emit(targets, core.EventUserOnline, core.PresenceChange{UserID: sess.Identity().ID})
	log.Info().Str("module", "app.presence").Str("user", string(sess.Identity().ID)).Int("sent_to", res.SendTo).Msg("user online")
}

// Retract tells every live connection that u went offline.
func (p *Presence) Retract(u domain.UserID) {
	res := p.Fanout.Emit(p.Registry.All(), core.EventUserOffline, core.PresenceChange{UserID: u})
	log.Info().Str("module", "app.presence").Str("user", string(u)).Int("sent_to", res.SendTo).Msg("user offline")
}

// Snapshot sends sess the full set of online identities.
func (p *Presence) Snapshot(sess core.Session) {
	p.Fanout.Emit([]core.Session{sess}, core.EventUsersOnline, p.Current())
}

func (p *Presence) Current() core.UsersOnline {
	users := p.Registry.OnlineIdentities()
	return core.UsersOnline{Count: len(users), Users: users}
}
