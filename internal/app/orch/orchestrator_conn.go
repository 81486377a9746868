package orch

import (
	"context"
	"fmt"

	"github.com/dkeye/Relay/internal/app"
	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/rs/zerolog/log"
)

// Authenticate runs every suspending lookup a connection needs before it may register.
func (o *Orchestrator) Authenticate(ctx context.Context, token string) (domain.Identity, []domain.GroupID, error) {
	who, err := o.Verifier.Verify(token)
	if err != nil {
		o.Metrics.AuthFailed()
		return domain.Identity{}, nil, err
	}
	rec, err := o.Directory.Lookup(ctx, who.ID)
	if err != nil {
		o.Metrics.AuthFailed()
		return domain.Identity{}, nil, fmt.Errorf("lookup %s: %w", who.ID, err)
	}
	if rec.Name != "" {
		who.Name = rec.Name
	}
	return who, rec.Groups, nil
}

// Connect registers sess and its rooms as one step under the identity lock.
func (o *Orchestrator) Connect(sess core.Session, groups []domain.GroupID) {
	who := sess.Identity()
	unlock := o.Locks.Lock(who.ID)
	defer unlock()

	o.Rooms.Sync(who, groups)
	if o.Registry.Register(sess) == app.CameOnline {
		o.Presence.Announce(sess)
	}
	o.Presence.Snapshot(sess)

	o.Metrics.ConnOpened()
	o.Metrics.SetOnline(len(o.Registry.OnlineIdentities()))
	log.Info().Str("module", "orch").Str("user", string(who.ID)).Str("conn", string(sess.ID())).Int("rooms", len(groups)).Msg("connected")
}

// Disconnect tears sess down; it is safe to call more than once.
func (o *Orchestrator) Disconnect(sess core.Session) {
	who := sess.Identity()
	unlock := o.Locks.Lock(who.ID)
	defer unlock()

	if _, ok := o.Registry.Session(sess.ID()); !ok {
		return
	}
	o.GroupCalls.Drop(sess)
	if o.Registry.Unregister(who.ID, sess.ID()) == app.WentOffline {
		o.Presence.Retract(who.ID)
	}

	o.Metrics.ConnClosed()
	o.Metrics.SetOnline(len(o.Registry.OnlineIdentities()))
	log.Info().Str("module", "orch").Str("user", string(who.ID)).Str("conn", string(sess.ID())).Msg("disconnected")
}
