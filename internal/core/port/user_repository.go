package port

import (
	"context"
	"time"

	"github.com/arklim/content-platform-accounts/internal/core/domain"
)

// UserRepository exposes persistence behavior for users.
//
// The locked, suspended, and pending flags are deliberately absent from
// UpdateProfile: they may only change through the dedicated operations below,
// never as a side effect of a profile save.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByIdentifier(ctx context.Context, identifier string) (*domain.User, error)

	// UpdateProfile persists identity fields (username, email, unverified
	// email, admin flag, password-reset-required flag, permissions) only.
	UpdateProfile(ctx context.Context, user domain.User) error

	// RecordInvalidLogin increments the invalid-login counter inside the
	// configured window and flips the account to locked when the attempt
	// count reaches maxAttempts. The whole read-modify-write is serialized
	// per user row so concurrent failed-login bursts cannot lose updates.
	RecordInvalidLogin(ctx context.Context, id string, at time.Time, window time.Duration, maxAttempts int) (*domain.InvalidLoginOutcome, error)

	// ResetInvalidLogins clears the counter and window after a successful login.
	ResetInvalidLogins(ctx context.Context, id string) error
	RecordLogin(ctx context.Context, id string, at time.Time) error

	// Unlock clears the locked flag, lockout timestamp, and counters.
	// It is a no-op for a user that is not locked.
	Unlock(ctx context.Context, id string) error
	Suspend(ctx context.Context, id string) error
	Unsuspend(ctx context.Context, id string) error

	// UpdatePassword stores a new hash and, in the same statement, resets the
	// invalid-login counters, clears any verification code, clears the
	// password-reset-required flag, and stamps the change time.
	UpdatePassword(ctx context.Context, id string, passwordHash string, changedAt time.Time) error

	SetVerificationCode(ctx context.Context, id string, codeHash string, issuedAt time.Time) error

	// Activate completes email verification: clears the pending flag, applies
	// a pending unverified-email change, and discards the verification code.
	Activate(ctx context.Context, id string) error
}
