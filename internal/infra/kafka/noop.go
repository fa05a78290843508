package kafka

import (
	"context"

	"go.uber.org/zap"

	"github.com/arklim/content-platform-accounts/internal/core/domain"
	"github.com/arklim/content-platform-accounts/internal/core/port"
)

// NoopEventPublisher satisfies port.EventPublisher when no brokers are
// configured. Events are logged at debug level and dropped.
type NoopEventPublisher struct {
	logger *zap.Logger
}

func NewNoopEventPublisher(logger *zap.Logger) *NoopEventPublisher {
	return &NoopEventPublisher{logger: logger}
}

func (p *NoopEventPublisher) drop(eventType, userID string) error {
	p.logger.Debug("event publishing disabled, dropping event",
		zap.String("event_type", eventType),
		zap.String("user_id", userID),
	)
	return nil
}

func (p *NoopEventPublisher) PublishInvalidLogin(_ context.Context, event domain.InvalidLoginEvent) error {
	return p.drop("auth.invalid_login", event.UserID)
}

func (p *NoopEventPublisher) PublishUserLocked(_ context.Context, event domain.UserLockedEvent) error {
	return p.drop("user.locked", event.UserID)
}

func (p *NoopEventPublisher) PublishUserUnlocked(_ context.Context, event domain.UserUnlockedEvent) error {
	return p.drop("user.unlocked", event.UserID)
}

func (p *NoopEventPublisher) PublishUserSuspended(_ context.Context, event domain.UserSuspendedEvent) error {
	return p.drop("user.suspended", event.UserID)
}

func (p *NoopEventPublisher) PublishUserUnsuspended(_ context.Context, event domain.UserUnsuspendedEvent) error {
	return p.drop("user.unsuspended", event.UserID)
}

func (p *NoopEventPublisher) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	return p.drop("user.password.changed", event.UserID)
}

func (p *NoopEventPublisher) PublishUserDeleted(_ context.Context, event domain.UserDeletedEvent) error {
	return p.drop("user.deleted", event.UserID)
}

var _ port.EventPublisher = (*NoopEventPublisher)(nil)
