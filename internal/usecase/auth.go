package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/arklim/content-platform-accounts/internal/core/domain"
	"github.com/arklim/content-platform-accounts/internal/core/port"
	"github.com/arklim/content-platform-accounts/internal/infra/config"
	"github.com/arklim/content-platform-accounts/internal/infra/logger"
	"github.com/arklim/content-platform-accounts/internal/infra/security"
	"github.com/arklim/content-platform-accounts/internal/repository"
)

const (
	// UnlockReasonCooldownExpired marks a lazy unlock triggered by an elapsed
	// cooldown window during login.
	UnlockReasonCooldownExpired = "cooldown_expired"
	// UnlockReasonAdmin marks an explicit unlock by an administrator.
	UnlockReasonAdmin = "admin"
)

// PreAuthDecision is a hook's verdict on an authentication attempt. When
// Handled is true the verdict is final: Err is returned to the caller as-is,
// and an empty Err accepts the attempt outright. Either way the built-in
// password verification, state classification, and lockout bookkeeping are
// all skipped.
type PreAuthDecision struct {
	Handled bool
	Err     domain.AuthError
}

// PreAuthHook inspects an attempt before password verification. Returning an
// error aborts the attempt with a fault rather than an auth failure.
type PreAuthHook func(ctx context.Context, user *domain.User, password string) (PreAuthDecision, error)

// AuthService coordinates the login flow: credential verification, auth error
// classification, lockout bookkeeping, and lazy cooldown unlocks.
type AuthService struct {
	cfg          *config.AppConfig
	users        port.UserRepository
	events       port.EventPublisher
	clock        port.Clock
	log          *zap.Logger
	preAuthHooks []PreAuthHook
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(
	cfg *config.AppConfig,
	users port.UserRepository,
	events port.EventPublisher,
	clock port.Clock,
	log *zap.Logger,
) *AuthService {
	if clock == nil {
		clock = port.SystemClock()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{
		cfg:    cfg,
		users:  users,
		events: events,
		clock:  clock,
		log:    log,
	}
}

// RegisterPreAuthHook appends a hook to the pre-authentication chain. Hooks
// run in registration order; the first one that reports Handled wins.
func (s *AuthService) RegisterPreAuthHook(hook PreAuthHook) {
	if hook != nil {
		s.preAuthHooks = append(s.preAuthHooks, hook)
	}
}

// Authenticate checks the identifier and password against the stored account
// and classifies the outcome. A failed attempt never returns a Go error; the
// result carries exactly one code from the closed AuthError set. Go errors are
// reserved for infrastructure faults.
func (s *AuthService) Authenticate(ctx context.Context, identifier, password string, reqCtx domain.RequestContext) (domain.AuthResult, error) {
	failure := domain.AuthResult{Err: domain.AuthErrInvalidCredentials}

	if identifier == "" || password == "" {
		return failure, nil
	}

	user, err := s.users.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Unknown accounts report the same generic failure as a wrong
			// password so the response does not leak which usernames exist.
			return failure, nil
		}
		return domain.AuthResult{}, fmt.Errorf("lookup user: %w", err)
	}

	now := s.clock.Now()

	if err := s.maybeLazyUnlock(ctx, user, now); err != nil {
		return domain.AuthResult{}, err
	}

	decision, err := s.runPreAuthHooks(ctx, user, password)
	if err != nil {
		return domain.AuthResult{}, err
	}
	if decision.Handled {
		if decision.Err != "" {
			return domain.AuthResult{Err: decision.Err}, nil
		}
		return s.finishLogin(ctx, user, now)
	}

	passwordValid, verr := security.VerifyPassword(password, user.PasswordHash)
	if verr != nil {
		// A hash that cannot be parsed counts as a failed verification,
		// not a fault. The account owner resolves it via password reset.
		s.log.Warn("stored password hash is malformed",
			zap.String("user_id", user.ID),
			zap.Error(verr),
		)
		passwordValid = false
	}

	authErr := s.authErrorFor(user, passwordValid, reqCtx)

	if authErr == domain.AuthErrInvalidCredentials && !passwordValid {
		if err := s.handleInvalidLogin(ctx, user, now); err != nil {
			return domain.AuthResult{}, err
		}
		// The attempt that crossed the threshold reports the lock it caused,
		// unless enumeration prevention hides lock state.
		if user.Locked && !s.cfg.Security.PreventUserEnumeration {
			authErr = s.lockedAuthError()
		}
	}

	if authErr != "" {
		return domain.AuthResult{Err: s.collapseForEnumeration(authErr)}, nil
	}

	return s.finishLogin(ctx, user, now)
}

// finishLogin resets the failure counters, stamps the login, and returns the
// sanitized account.
func (s *AuthService) finishLogin(ctx context.Context, user *domain.User, now time.Time) (domain.AuthResult, error) {
	if err := s.users.ResetInvalidLogins(ctx, user.ID); err != nil {
		return domain.AuthResult{}, fmt.Errorf("reset invalid logins: %w", err)
	}
	if err := s.users.RecordLogin(ctx, user.ID, now); err != nil {
		return domain.AuthResult{}, fmt.Errorf("record login: %w", err)
	}

	sanitized := user.Sanitized()
	sanitized.InvalidLoginCount = 0
	sanitized.InvalidLoginWindowStart = nil
	sanitized.LastLoginAt = &now

	s.log.Info("user authenticated",
		zap.String("user_id", user.ID),
		zap.String("email", logger.MaskEmail(user.Email)),
	)

	return domain.AuthResult{User: &sanitized}, nil
}

// maybeLazyUnlock lifts an expired lockout the moment the account is touched
// again. A locked user with no lockout timestamp cannot be timed, so the lock
// is lifted rather than held forever.
func (s *AuthService) maybeLazyUnlock(ctx context.Context, user *domain.User, now time.Time) error {
	if !user.Locked || s.cfg.Security.CooldownDuration <= 0 {
		return nil
	}
	if user.LockoutAt != nil && !user.IsCooldownExpired(now, s.cfg.Security.CooldownDuration) {
		return nil
	}

	if err := s.users.Unlock(ctx, user.ID); err != nil {
		return fmt.Errorf("lazy unlock: %w", err)
	}

	user.Locked = false
	user.LockoutAt = nil
	user.InvalidLoginCount = 0
	user.InvalidLoginWindowStart = nil

	if err := s.events.PublishUserUnlocked(ctx, domain.UserUnlockedEvent{
		UserID:     user.ID,
		UnlockedAt: now,
		Reason:     UnlockReasonCooldownExpired,
	}); err != nil {
		s.log.Warn("failed to publish unlock event", zap.String("user_id", user.ID), zap.Error(err))
	}

	return nil
}

func (s *AuthService) runPreAuthHooks(ctx context.Context, user *domain.User, password string) (PreAuthDecision, error) {
	for _, hook := range s.preAuthHooks {
		decision, err := hook(ctx, user, password)
		if err != nil {
			return PreAuthDecision{}, fmt.Errorf("pre-auth hook: %w", err)
		}
		if decision.Handled {
			return decision, nil
		}
	}
	return PreAuthDecision{}, nil
}

// authErrorFor classifies a login attempt against the account's state. The
// checks run in a fixed order: credential validity, lifecycle status, lockout,
// forced password reset, then surface access.
func (s *AuthService) authErrorFor(user *domain.User, passwordValid bool, reqCtx domain.RequestContext) domain.AuthError {
	if !passwordValid {
		return domain.AuthErrInvalidCredentials
	}

	switch user.Status() {
	case domain.UserStatusArchived:
		// Archived accounts are indistinguishable from nonexistent ones.
		return domain.AuthErrInvalidCredentials
	case domain.UserStatusPending:
		return domain.AuthErrPendingVerification
	case domain.UserStatusSuspended:
		return domain.AuthErrAccountSuspended
	}

	if user.Locked {
		return s.lockedAuthError()
	}

	if user.PasswordResetRequired {
		return domain.AuthErrPasswordResetRequired
	}

	switch reqCtx.Kind {
	case domain.RequestConsole:
		// Console requests skip surface access checks.
	case domain.RequestControlPanel:
		if !user.Can(domain.PermAccessCp) {
			return domain.AuthErrNoCpAccess
		}
		if !reqCtx.SystemLive && !user.Can(domain.PermAccessCpWhenSystemIsOff) {
			return domain.AuthErrNoCpOfflineAccess
		}
	case domain.RequestSite:
		if !reqCtx.SystemLive && !user.Can(domain.PermAccessSiteWhenSystemIsOff) {
			return domain.AuthErrNoSiteOfflineAccess
		}
	}

	return ""
}

// lockedAuthError picks the code a locked account reports: cooldown when one
// is configured, an indefinite lock otherwise.
func (s *AuthService) lockedAuthError() domain.AuthError {
	if s.cfg.Security.CooldownDuration > 0 {
		return domain.AuthErrAccountCooldown
	}
	return domain.AuthErrAccountLocked
}

// handleInvalidLogin records the failed attempt and publishes the resulting
// events, including the lock transition when the attempt hits the threshold.
func (s *AuthService) handleInvalidLogin(ctx context.Context, user *domain.User, now time.Time) error {
	if s.cfg.Security.MaxInvalidLogins <= 0 {
		return nil
	}

	outcome, err := s.users.RecordInvalidLogin(ctx, user.ID, now, s.cfg.Security.InvalidLoginWindow, s.cfg.Security.MaxInvalidLogins)
	if err != nil {
		return fmt.Errorf("record invalid login: %w", err)
	}

	if err := s.events.PublishInvalidLogin(ctx, domain.InvalidLoginEvent{
		UserID:       user.ID,
		AttemptCount: outcome.Count,
		AttemptedAt:  now,
		Locked:       outcome.Locked,
	}); err != nil {
		s.log.Warn("failed to publish invalid login event", zap.String("user_id", user.ID), zap.Error(err))
	}

	if outcome.Locked && !user.Locked {
		lockedAt := now
		if outcome.LockoutAt != nil {
			lockedAt = *outcome.LockoutAt
		}
		if err := s.events.PublishUserLocked(ctx, domain.UserLockedEvent{
			UserID:   user.ID,
			LockedAt: lockedAt,
		}); err != nil {
			s.log.Warn("failed to publish lock event", zap.String("user_id", user.ID), zap.Error(err))
		}

		s.log.Info("account locked after repeated invalid logins",
			zap.String("user_id", user.ID),
		)
	}

	user.Locked = outcome.Locked
	user.LockoutAt = outcome.LockoutAt
	user.InvalidLoginCount = outcome.Count

	return nil
}

// collapseForEnumeration folds account-state codes into the generic failure
// when enumeration prevention is on, so a probe cannot distinguish a locked or
// suspended account from a wrong password. Access-surface codes survive: they
// only occur after a correct password.
func (s *AuthService) collapseForEnumeration(authErr domain.AuthError) domain.AuthError {
	if !s.cfg.Security.PreventUserEnumeration {
		return authErr
	}

	switch authErr {
	case domain.AuthErrPendingVerification,
		domain.AuthErrAccountSuspended,
		domain.AuthErrAccountLocked,
		domain.AuthErrAccountCooldown:
		return domain.AuthErrInvalidCredentials
	}

	return authErr
}
