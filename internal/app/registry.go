package app

import (
	"sort"
	"sync"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// Transition is the presence change caused by one registry mutation.
type Transition int

const (
	NoTransition Transition = iota
	CameOnline
	WentOffline
)

func (t Transition) String() string {
	switch t {
	case CameOnline:
		return "online"
	case WentOffline:
		return "offline"
	}
	return "none"
}

// Registry maps identities to their live connections.
// An identity is online iff it holds at least one connection; empty sets are pruned.
type Registry struct {
	mu     sync.RWMutex
	byUser map[domain.UserID]map[core.ConnID]core.Session
	byConn map[core.ConnID]core.Session
}

func NewRegistry() *Registry {
	return &Registry{
		byUser: make(map[domain.UserID]map[core.ConnID]core.Session),
		byConn: make(map[core.ConnID]core.Session),
	}
}

// Register adds sess to its identity's connection set.
// Registering a connection id twice is a no-op.
func (r *Registry) Register(sess core.Session) Transition {
	u := sess.Identity().ID
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byConn[sess.ID()]; ok {
		return NoTransition
	}
	set, ok := r.byUser[u]
	if !ok {
		set = make(map[core.ConnID]core.Session)
		r.byUser[u] = set
	}
	set[sess.ID()] = sess
	r.byConn[sess.ID()] = sess
	log.Info().Str("module", "app.registry").Str("user", string(u)).Str("conn", string(sess.ID())).Int("connections", len(set)).Msg("registered connection")
	if len(set) == 1 {
		return CameOnline
	}
	return NoTransition
}

// Unregister removes connID from u's set. Absent ids are ignored.
func (r *Registry) Unregister(u domain.UserID, connID core.ConnID) Transition {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.byUser[u]
	if !ok {
		return NoTransition
	}
	if _, ok := set[connID]; !ok {
		return NoTransition
	}
	delete(set, connID)
	delete(r.byConn, connID)
	log.Info().Str("module", "app.registry").Str("user", string(u)).Str("conn", string(connID)).Int("connections", len(set)).Msg("unregistered connection")
	if len(set) == 0 {
		delete(r.byUser, u)
		return WentOffline
	}
	return NoTransition
}

// ConnectionsOf returns the live sessions of u, possibly none.
func (r *Registry) ConnectionsOf(u domain.UserID) []core.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Values(r.byUser[u])
}

func (r *Registry) ConnIDsOf(u domain.UserID) []core.ConnID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Keys(r.byUser[u])
}

func (r *Registry) IsOnline(u domain.UserID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byUser[u]
	return ok
}

// OnlineIdentities returns every online identity id in sorted order.
func (r *Registry) OnlineIdentities() []domain.UserID {
	r.mu.RLock()
	ids := lo.Keys(r.byUser)
	r.mu.RUnlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (r *Registry) Session(id core.ConnID) (core.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byConn[id]
	return s, ok
}

func (r *Registry) Sessions(ids []core.ConnID) []core.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.Session, 0, len(ids))
	for _, id := range ids {
		if s, ok := r.byConn[id]; ok {
			out = append(out, s)
		}
	}
	return out
}

// All returns every live session.
func (r *Registry) All() []core.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Values(r.byConn)
}

func (r *Registry) ConnectionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byConn)
}
