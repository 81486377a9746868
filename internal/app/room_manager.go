package app

import (
	"sort"
	"sync"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// RoomTracker maps rooms to member identities.
// Membership is a persisted group property; it survives the member going offline.
type RoomTracker struct {
	mu      sync.RWMutex
	members map[domain.GroupID]map[domain.UserID]domain.Identity
	byUser  map[domain.UserID]map[domain.GroupID]struct{}
}

func NewRoomTracker() *RoomTracker {
	return &RoomTracker{
		members: make(map[domain.GroupID]map[domain.UserID]domain.Identity),
		byUser:  make(map[domain.UserID]map[domain.GroupID]struct{}),
	}
}

func (t *RoomTracker) Join(room domain.GroupID, who domain.Identity) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.join(room, who)
}

func (t *RoomTracker) join(room domain.GroupID, who domain.Identity) {
	m, ok := t.members[room]
	if !ok {
		m = make(map[domain.UserID]domain.Identity)
		t.members[room] = m
	}
	m[who.ID] = who
	rooms, ok := t.byUser[who.ID]
	if !ok {
		rooms = make(map[domain.GroupID]struct{})
		t.byUser[who.ID] = rooms
	}
	rooms[room] = struct{}{}
}

func (t *RoomTracker) Leave(room domain.GroupID, u domain.UserID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.leave(room, u)
}

func (t *RoomTracker) leave(room domain.GroupID, u domain.UserID) {
	if m, ok := t.members[room]; ok {
		delete(m, u)
		if len(m) == 0 {
			delete(t.members, room)
		}
	}
	if rooms, ok := t.byUser[u]; ok {
		delete(rooms, room)
		if len(rooms) == 0 {
			delete(t.byUser, u)
		}
	}
}

// Sync makes who a member of exactly groups, as fetched at connect time.
func (t *RoomTracker) Sync(who domain.Identity, groups []domain.GroupID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	current := lo.Keys(t.byUser[who.ID])
	stale, _ := lo.Difference(current, groups)
	for _, room := range stale {
		t.leave(room, who.ID)
	}
	for _, room := range lo.Uniq(groups) {
		if room == "" {
			continue
		}
		t.join(room, who)
	}
	log.Debug().Str("module", "app.rooms").Str("user", string(who.ID)).Int("rooms", len(groups)).Int("left", len(stale)).Msg("synced memberships")
}

// MembersOf returns the member identities of room in id order.
func (t *RoomTracker) MembersOf(room domain.GroupID) []domain.Identity {
	t.mu.RLock()
	out := lo.Values(t.members[room])
	t.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (t *RoomTracker) IsMember(room domain.GroupID, u domain.UserID) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.members[room][u]
	return ok
}

func (t *RoomTracker) RoomsOf(u domain.UserID) []domain.GroupID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return lo.Keys(t.byUser[u])
}

func (t *RoomTracker) List() []core.RoomInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]core.RoomInfo, 0, len(t.members))
	for id, m := range t.members {
		out = append(out, core.RoomInfo{ID: id, MemberCount: len(m)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// MembersSnapshot is a read-only view of room with live presence filled from reg.
func (t *RoomTracker) MembersSnapshot(room domain.GroupID, reg *Registry) []domain.Member {
	return lo.Map(t.MembersOf(room), func(who domain.Identity, _ int) domain.Member {
		return domain.NewMember(who, reg.IsOnline(who.ID))
	})
}
