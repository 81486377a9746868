package app

import (
	"sort"
	"sync"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/samber/lo"
)

// CallChange describes the effect of one join or leave on a room's call.
// Changed is false when the identity's participation did not flip.
// Notify holds the participating connections of every other participant.
type CallChange struct {
	Room    domain.GroupID
	User    domain.Identity
	Changed bool
	Notify  []core.ConnID
}

type callKey struct {
	room domain.GroupID
	conn core.ConnID
}

// CallTracker holds per-room group-call participants at connection granularity.
// An identity participates while at least one of its connections has joined.
type CallTracker struct {
	mu     sync.Mutex
	rooms  map[domain.GroupID]map[domain.UserID]map[core.ConnID]struct{}
	names  map[domain.UserID]domain.Identity
	byConn map[core.ConnID]map[domain.GroupID]struct{}
}

func NewCallTracker() *CallTracker {
	return &CallTracker{
		rooms:  make(map[domain.GroupID]map[domain.UserID]map[core.ConnID]struct{}),
		names:  make(map[domain.UserID]domain.Identity),
		byConn: make(map[core.ConnID]map[domain.GroupID]struct{}),
	}
}

func (t *CallTracker) Join(room domain.GroupID, sess core.Session) CallChange {
	who := sess.Identity()
	t.mu.Lock()
	defer t.mu.Unlock()

	users, ok := t.rooms[room]
	if !ok {
		users = make(map[domain.UserID]map[core.ConnID]struct{})
		t.rooms[room] = users
	}
	conns, ok := users[who.ID]
	if !ok {
		conns = make(map[core.ConnID]struct{})
		users[who.ID] = conns
	}
	first := len(conns) == 0
	conns[sess.ID()] = struct{}{}
	t.names[who.ID] = who

	joined, ok := t.byConn[sess.ID()]
	if !ok {
		joined = make(map[domain.GroupID]struct{})
		t.byConn[sess.ID()] = joined
	}
	joined[room] = struct{}{}

	ch := CallChange{Room: room, User: who, Changed: first}
	if ch.Changed {
		ch.Notify = t.othersLocked(room, who.ID)
	}
	return ch
}

func (t *CallTracker) Leave(room domain.GroupID, sess core.Session) CallChange {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.leaveLocked(room, sess.ID(), sess.Identity())
}

// DropConnection removes conn from every call it joined.
func (t *CallTracker) DropConnection(sess core.Session) []CallChange {
	t.mu.Lock()
	defer t.mu.Unlock()
	rooms := lo.Keys(t.byConn[sess.ID()])
	sort.Slice(rooms, func(i, j int) bool { return rooms[i] < rooms[j] })
	out := make([]CallChange, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, t.leaveLocked(room, sess.ID(), sess.Identity()))
	}
	return out
}

func (t *CallTracker) leaveLocked(room domain.GroupID, conn core.ConnID, who domain.Identity) CallChange {
	ch := CallChange{Room: room, User: who}
	if joined, ok := t.byConn[conn]; ok {
		delete(joined, room)
		if len(joined) == 0 {
			delete(t.byConn, conn)
		}
	}
	users, ok := t.rooms[room]
	if !ok {
		return ch
	}
	conns, ok := users[who.ID]
	if !ok {
		return ch
	}
	if _, ok := conns[conn]; !ok {
		return ch
	}
	delete(conns, conn)
	if len(conns) > 0 {
		return ch
	}
	delete(users, who.ID)
	if len(users) == 0 {
		delete(t.rooms, room)
	}
	if !t.participatingLocked(who.ID) {
		delete(t.names, who.ID)
	}
	ch.Changed = true
	ch.Notify = t.othersLocked(room, who.ID)
	return ch
}

func (t *CallTracker) participatingLocked(u domain.UserID) bool {
	for _, users := range t.rooms {
		if _, ok := users[u]; ok {
			return true
		}
	}
	return false
}

func (t *CallTracker) othersLocked(room domain.GroupID, except domain.UserID) []core.ConnID {
	var out []core.ConnID
	for u, conns := range t.rooms[room] {
		if u == except {
			continue
		}
		for c := range conns {
			out = append(out, c)
		}
	}
	return out
}

// Participants returns the identities currently in room's call, in id order.
func (t *CallTracker) Participants(room domain.GroupID) []domain.Identity {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]domain.Identity, 0, len(t.rooms[room]))
	for u := range t.rooms[room] {
		out = append(out, t.names[u])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (t *CallTracker) IsParticipant(room domain.GroupID, u domain.UserID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.rooms[room][u]
	return ok
}

// ParticipantConns returns the participating connections in room except those of except.
func (t *CallTracker) ParticipantConns(room domain.GroupID, except domain.UserID) []core.ConnID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.othersLocked(room, except)
}
