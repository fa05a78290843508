package usecase

import (
	"context"
	"errors"
	"fmt"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arklim/content-platform-accounts/internal/core/domain"
	"github.com/arklim/content-platform-accounts/internal/core/port"
	"github.com/arklim/content-platform-accounts/internal/infra/config"
	"github.com/arklim/content-platform-accounts/internal/infra/logger"
	"github.com/arklim/content-platform-accounts/internal/infra/security"
	"github.com/arklim/content-platform-accounts/internal/repository"
)

const sessionTokenBytes = 32

var (
	// ErrInvalidAuthKey indicates the presented session credential is
	// malformed, unknown, or bound to a different user agent.
	ErrInvalidAuthKey = errors.New("invalid auth key")
)

// SessionService issues and validates the opaque session credentials handed
// to clients after login.
type SessionService struct {
	cfg      *config.AppConfig
	users    port.UserRepository
	sessions port.SessionRepository
	clock    port.Clock
	log      *zap.Logger
}

// NewSessionService constructs a SessionService instance.
func NewSessionService(
	cfg *config.AppConfig,
	users port.UserRepository,
	sessions port.SessionRepository,
	clock port.Clock,
	log *zap.Logger,
) *SessionService {
	if clock == nil {
		clock = port.SystemClock()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &SessionService{
		cfg:      cfg,
		users:    users,
		sessions: sessions,
		clock:    clock,
		log:      log,
	}
}

// IssueAuthKey creates a session for the user and returns the encoded
// credential binding the session token to the requesting user agent.
func (s *SessionService) IssueAuthKey(ctx context.Context, userID, userAgent string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("user id is required")
	}

	token, err := security.GenerateSecureToken(sessionTokenBytes)
	if err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}

	now := s.clock.Now()
	session := domain.Session{
		ID:          uuid.NewString(),
		Token:       token,
		UserID:      userID,
		CreatedAt:   now,
		DateUpdated: now,
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}

	key := domain.AuthKey{
		Token:         token,
		UserAgentHash: security.UserAgentFingerprint(userAgent),
	}

	encoded, err := key.Encode()
	if err != nil {
		return "", fmt.Errorf("encode auth key: %w", err)
	}

	return encoded, nil
}

// ValidateAuthKey checks a presented credential against the session store and
// the requesting user agent. The session's liveness timestamp is refreshed
// only when every check passes; a rejected credential leaves no trace on the
// session row.
func (s *SessionService) ValidateAuthKey(ctx context.Context, userID, credential, userAgent string) (*domain.User, error) {
	key, ok := domain.DecodeAuthKey(credential)
	if !ok {
		return nil, ErrInvalidAuthKey
	}

	// The user agent binding is checked before any store access, so a
	// tampered credential never reaches the session table.
	if s.cfg.Security.RequireMatchingUserAgent {
		expected := security.UserAgentFingerprint(userAgent)
		if !security.FingerprintEquals(key.UserAgentHash, expected) {
			s.log.Warn("session user agent mismatch",
				zap.String("user_id", userID),
				zap.String("user_agent", logger.MaskString(userAgent)),
			)
			return nil, ErrInvalidAuthKey
		}
	}

	session, err := s.sessions.FindByToken(ctx, key.Token, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidAuthKey
		}
		return nil, fmt.Errorf("find session: %w", err)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidAuthKey
		}
		return nil, fmt.Errorf("lookup session user: %w", err)
	}

	if user.Archived || user.Suspended {
		return nil, ErrInvalidAuthKey
	}

	if err := s.sessions.Touch(ctx, session.ID, s.clock.Now()); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("touch session: %w", err)
	}

	sanitized := user.Sanitized()
	return &sanitized, nil
}

// Logout removes the session identified by the presented credential.
func (s *SessionService) Logout(ctx context.Context, userID, credential string) error {
	key, ok := domain.DecodeAuthKey(credential)
	if !ok {
		return ErrInvalidAuthKey
	}

	if err := s.sessions.DeleteByToken(ctx, key.Token, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidAuthKey
		}
		return fmt.Errorf("delete session: %w", err)
	}

	return nil
}

// RevokeAllForUser removes every session for the user and reports how many
// were dropped.
func (s *SessionService) RevokeAllForUser(ctx context.Context, userID string) (int, error) {
	count, err := s.sessions.DeleteAllForUser(ctx, userID, "")
	if err != nil {
		return 0, fmt.Errorf("revoke sessions: %w", err)
	}
	return count, nil
}
