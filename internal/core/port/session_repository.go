package port

import (
	"context"
	"time"

	"github.com/arklim/content-platform-accounts/internal/core/domain"
)

// SessionRepository exposes persistence behavior for login sessions.
type SessionRepository interface {
	Create(ctx context.Context, session domain.Session) error

	// FindByToken returns the active session matching both token and owner.
	FindByToken(ctx context.Context, token, userID string) (*domain.Session, error)

	// Touch refreshes the session's liveness timestamp so it is not garbage
	// collected while in active use.
	Touch(ctx context.Context, sessionID string, at time.Time) error

	DeleteByToken(ctx context.Context, token, userID string) error

	// DeleteAllForUser removes every session owned by the user, optionally
	// sparing one token (the session performing a password change). Returns
	// the number of sessions removed.
	DeleteAllForUser(ctx context.Context, userID string, exceptToken string) (int, error)
}
