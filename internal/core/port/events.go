package port

import (
	"context"

	"github.com/arklim/content-platform-accounts/internal/core/domain"
)

// EventPublisher publishes domain events to the message bus.
type EventPublisher interface {
	PublishInvalidLogin(ctx context.Context, event domain.InvalidLoginEvent) error
	PublishUserLocked(ctx context.Context, event domain.UserLockedEvent) error
	PublishUserUnlocked(ctx context.Context, event domain.UserUnlockedEvent) error
	PublishUserSuspended(ctx context.Context, event domain.UserSuspendedEvent) error
	PublishUserUnsuspended(ctx context.Context, event domain.UserUnsuspendedEvent) error
	PublishPasswordChanged(ctx context.Context, event domain.PasswordChangedEvent) error
	PublishUserDeleted(ctx context.Context, event domain.UserDeletedEvent) error
}
