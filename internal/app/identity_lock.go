package app

import (
	"sync"

	"github.com/dkeye/Relay/internal/domain"
)

type identityLock struct {
	mu   sync.Mutex
	refs int
}

// IdentityLocks serializes connect and disconnect handling per identity.
// Different identities never contend.
type IdentityLocks struct {
	mu    sync.Mutex
	locks map[domain.UserID]*identityLock
}

func NewIdentityLocks() *IdentityLocks {
	return &IdentityLocks{locks: make(map[domain.UserID]*identityLock)}
}

// Lock blocks until id is free and returns the matching unlock.
func (l *IdentityLocks) Lock(id domain.UserID) (unlock func()) {
	l.mu.Lock()
	il, ok := l.locks[id]
	if !ok {
		il = &identityLock{}
		l.locks[id] = il
	}
	il.refs++
	l.mu.Unlock()

	il.mu.Lock()
	return func() {
		il.mu.Unlock()
		l.mu.Lock()
		il.refs--
		if il.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}

func (l *IdentityLocks) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
