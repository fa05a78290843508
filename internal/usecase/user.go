package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arklim/content-platform-accounts/internal/core/domain"
	"github.com/arklim/content-platform-accounts/internal/core/port"
	"github.com/arklim/content-platform-accounts/internal/infra/config"
	"github.com/arklim/content-platform-accounts/internal/infra/logger"
	"github.com/arklim/content-platform-accounts/internal/infra/security"
	"github.com/arklim/content-platform-accounts/internal/repository"
)

const verificationCodeBytes = 32

var (
	// ErrUserNotFound indicates the referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrStateFieldMutation indicates a profile save attempted to change the
	// locked, suspended, or pending flags, which only their dedicated
	// operations may touch.
	ErrStateFieldMutation = errors.New("profile saves cannot change account state flags")
	// ErrInvalidVerificationCode indicates the presented code does not match
	// the stored one.
	ErrInvalidVerificationCode = errors.New("invalid verification code")
	// ErrVerificationCodeExpired indicates the code matched but is too old to
	// redeem.
	ErrVerificationCodeExpired = errors.New("verification code expired")
)

// UserService owns account lifecycle operations outside the login flow:
// registration, profile saves, password changes, suspension, and email
// verification.
type UserService struct {
	cfg       *config.AppConfig
	users     port.UserRepository
	sessions  port.SessionRepository
	events    port.EventPublisher
	validator *security.PasswordValidator
	clock     port.Clock
	log       *zap.Logger
}

// NewUserService constructs a UserService instance.
func NewUserService(
	cfg *config.AppConfig,
	users port.UserRepository,
	sessions port.SessionRepository,
	events port.EventPublisher,
	validator *security.PasswordValidator,
	clock port.Clock,
	log *zap.Logger,
) *UserService {
	if validator == nil {
		validator = security.DefaultPasswordValidator()
	}
	if clock == nil {
		clock = port.SystemClock()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &UserService{
		cfg:       cfg,
		users:     users,
		sessions:  sessions,
		events:    events,
		validator: validator,
		clock:     clock,
		log:       log,
	}
}

// Register creates a pending account and returns it together with the
// verification code the caller must deliver to the new address. Only the
// code's hash is stored.
func (s *UserService) Register(ctx context.Context, username, email, password string) (*domain.User, string, error) {
	if username == "" {
		return nil, "", fmt.Errorf("username is required")
	}
	if email == "" {
		return nil, "", fmt.Errorf("email is required")
	}
	if err := s.validator.Validate(password); err != nil {
		return nil, "", err
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	code, err := security.GenerateSecureToken(verificationCodeBytes)
	if err != nil {
		return nil, "", fmt.Errorf("generate verification code: %w", err)
	}

	now := s.clock.Now()
	codeHash := security.HashToken(code)
	user := domain.User{
		ID:                       uuid.NewString(),
		Username:                 username,
		Email:                    email,
		PasswordHash:             hash,
		VerificationCodeHash:     &codeHash,
		VerificationCodeIssuedAt: &now,
		Pending:                  true,
		CreatedAt:                now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	s.log.Info("user registered",
		zap.String("user_id", user.ID),
		zap.String("email", logger.MaskEmail(email)),
	)

	sanitized := user.Sanitized()
	return &sanitized, code, nil
}

// SaveProfile persists identity fields. Saves that carry a different locked,
// suspended, or pending flag than the stored row are rejected outright; those
// transitions belong to Suspend, Unsuspend, Unlock, and VerifyEmail.
func (s *UserService) SaveProfile(ctx context.Context, user domain.User) error {
	stored, err := s.users.GetByID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	if user.Locked != stored.Locked || user.Suspended != stored.Suspended || user.Pending != stored.Pending {
		return ErrStateFieldMutation
	}

	if err := s.users.UpdateProfile(ctx, user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("update profile: %w", err)
	}

	return nil
}

// SetPassword validates and stores a new password, then revokes every other
// session the user holds. The session performing the change, identified by
// currentToken, survives. The repository resets lockout counters and clears
// any pending verification code in the same statement as the hash update.
func (s *UserService) SetPassword(ctx context.Context, userID, currentToken, newPassword string) error {
	if err := s.validator.Validate(newPassword); err != nil {
		return err
	}

	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	now := s.clock.Now()
	if err := s.users.UpdatePassword(ctx, userID, hash, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("update password: %w", err)
	}

	revoked, err := s.sessions.DeleteAllForUser(ctx, userID, currentToken)
	if err != nil {
		return fmt.Errorf("revoke other sessions: %w", err)
	}

	if err := s.events.PublishPasswordChanged(ctx, domain.PasswordChangedEvent{
		UserID:          userID,
		ChangedAt:       now,
		SessionsRevoked: revoked,
	}); err != nil {
		s.log.Warn("failed to publish password change event", zap.String("user_id", userID), zap.Error(err))
	}

	s.log.Info("password changed",
		zap.String("user_id", userID),
		zap.Int("sessions_revoked", revoked),
	)

	return nil
}

// Suspend marks the account suspended. Suspension blocks login and session
// validation immediately but leaves content untouched.
func (s *UserService) Suspend(ctx context.Context, userID, actor string) error {
	if err := s.users.Suspend(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("suspend user: %w", err)
	}

	now := s.clock.Now()
	if err := s.events.PublishUserSuspended(ctx, domain.UserSuspendedEvent{
		UserID:      userID,
		SuspendedAt: now,
		Actor:       actor,
	}); err != nil {
		s.log.Warn("failed to publish suspend event", zap.String("user_id", userID), zap.Error(err))
	}

	return nil
}

// Unsuspend clears the suspended flag.
func (s *UserService) Unsuspend(ctx context.Context, userID, actor string) error {
	if err := s.users.Unsuspend(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("unsuspend user: %w", err)
	}

	now := s.clock.Now()
	if err := s.events.PublishUserUnsuspended(ctx, domain.UserUnsuspendedEvent{
		UserID:        userID,
		UnsuspendedAt: now,
		Actor:         actor,
	}); err != nil {
		s.log.Warn("failed to publish unsuspend event", zap.String("user_id", userID), zap.Error(err))
	}

	return nil
}

// Unlock lifts a lockout ahead of its cooldown on an administrator's behalf.
func (s *UserService) Unlock(ctx context.Context, userID string) error {
	if err := s.users.Unlock(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("unlock user: %w", err)
	}

	if err := s.events.PublishUserUnlocked(ctx, domain.UserUnlockedEvent{
		UserID:     userID,
		UnlockedAt: s.clock.Now(),
		Reason:     UnlockReasonAdmin,
	}); err != nil {
		s.log.Warn("failed to publish unlock event", zap.String("user_id", userID), zap.Error(err))
	}

	return nil
}

// IssueVerificationCode mints a fresh verification code for the user,
// replacing any previous one, and returns the plaintext code for delivery.
func (s *UserService) IssueVerificationCode(ctx context.Context, userID string) (string, error) {
	code, err := security.GenerateSecureToken(verificationCodeBytes)
	if err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}

	if err := s.users.SetVerificationCode(ctx, userID, security.HashToken(code), s.clock.Now()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("store verification code: %w", err)
	}

	return code, nil
}

// VerifyEmail redeems a verification code: the account activates and any
// staged email change takes effect. Expired codes are reported distinctly so
// the caller can offer a resend.
func (s *UserService) VerifyEmail(ctx context.Context, userID, code string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	if user.VerificationCodeHash == nil || code == "" {
		return ErrInvalidVerificationCode
	}

	if security.HashToken(code) != *user.VerificationCodeHash {
		return ErrInvalidVerificationCode
	}

	if s.expired(user.VerificationCodeIssuedAt) {
		return ErrVerificationCodeExpired
	}

	if err := s.users.Activate(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("activate user: %w", err)
	}

	s.log.Info("email verified", zap.String("user_id", userID))

	return nil
}

func (s *UserService) expired(issuedAt *time.Time) bool {
	duration := s.cfg.Security.VerificationCodeDuration
	if duration <= 0 || issuedAt == nil {
		return false
	}
	return s.clock.Now().After(issuedAt.Add(duration))
}
