//go:generate go run go.uber.org/mock/mockgen -source=collaborators.go -destination=../mocks/mock_collaborators.go -package=mocks
package core

import (
	"context"

	"github.com/dkeye/Relay/internal/domain"
)

// CredentialVerifier turns a bearer credential into a verified Identity.
type CredentialVerifier interface {
	Verify(token string) (domain.Identity, error)
}

// Directory is the persistence side's view of users and their groups.
type Directory interface {
	Lookup(ctx context.Context, id domain.UserID) (domain.UserRecord, error)
	Put(ctx context.Context, rec domain.UserRecord) error
	Delete(ctx context.Context, id domain.UserID) error
}
