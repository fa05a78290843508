package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/arklim/content-platform-accounts/internal/core/domain"
	"github.com/arklim/content-platform-accounts/internal/core/port"
	"github.com/arklim/content-platform-accounts/internal/repository"
)

var (
	// ErrInheritorNotFound indicates the designated content inheritor does
	// not exist.
	ErrInheritorNotFound = errors.New("content inheritor not found")
	// ErrSelfInheritor indicates a user was named as their own content
	// inheritor.
	ErrSelfInheritor = errors.New("user cannot inherit their own content")
)

// DeletionService coordinates user deletion: cache invalidation, the
// transactional content handoff or cascade, session cleanup, and the deletion
// event.
type DeletionService struct {
	users      port.UserRepository
	sessions   port.SessionRepository
	content    port.ContentRepository
	cache      port.ContentCache
	events     port.EventPublisher
	clock      port.Clock
	log        *zap.Logger
	entryHooks []port.EntryDeleteHook
}

// NewDeletionService constructs a DeletionService instance.
func NewDeletionService(
	users port.UserRepository,
	sessions port.SessionRepository,
	content port.ContentRepository,
	cache port.ContentCache,
	events port.EventPublisher,
	clock port.Clock,
	log *zap.Logger,
) *DeletionService {
	if clock == nil {
		clock = port.SystemClock()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &DeletionService{
		users:    users,
		sessions: sessions,
		content:  content,
		cache:    cache,
		events:   events,
		clock:    clock,
		log:      log,
	}
}

// RegisterEntryDeleteHook appends a hook invoked for every entry removed
// during a cascading delete. Hooks run inside the deletion transaction; an
// error from any hook rolls the whole deletion back.
func (s *DeletionService) RegisterEntryDeleteHook(hook port.EntryDeleteHook) {
	if hook != nil {
		s.entryHooks = append(s.entryHooks, hook)
	}
}

// DeleteUser removes a user. With an inheritor, entry authorship and draft and
// revision creator references transfer to the inheritor; without one, the
// user's entries are deleted through the content lifecycle. Either way the
// user row is archived in the same transaction as the content changes, and
// content caches are invalidated before anything is touched.
func (s *DeletionService) DeleteUser(ctx context.Context, userID string, inheritorID *string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("lookup user: %w", err)
	}
	if user.Archived {
		return ErrUserNotFound
	}

	if inheritorID != nil {
		if *inheritorID == userID {
			return ErrSelfInheritor
		}
		inheritor, err := s.users.GetByID(ctx, *inheritorID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrInheritorNotFound
			}
			return fmt.Errorf("lookup inheritor: %w", err)
		}
		// An archived inheritor is as good as deleted; reassigning content to
		// one would orphan it all over again.
		if inheritor.Archived {
			return ErrInheritorNotFound
		}
	}

	// Caches go first. A stale cache after a successful delete would serve
	// content attributed to an archived user.
	if err := s.cache.InvalidateEntryCaches(ctx); err != nil {
		return fmt.Errorf("invalidate content caches: %w", err)
	}

	if inheritorID != nil {
		err = s.content.DeleteUserWithInheritor(ctx, userID, *inheritorID)
	} else {
		err = s.content.DeleteUserCascading(ctx, userID, s.runEntryHooks)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("delete user content: %w", err)
	}

	if _, err := s.sessions.DeleteAllForUser(ctx, userID, ""); err != nil {
		s.log.Warn("failed to drop sessions for deleted user",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}

	now := s.clock.Now()
	if err := s.events.PublishUserDeleted(ctx, domain.UserDeletedEvent{
		UserID:      userID,
		InheritorID: inheritorID,
		DeletedAt:   now,
	}); err != nil {
		s.log.Warn("failed to publish deletion event", zap.String("user_id", userID), zap.Error(err))
	}

	s.log.Info("user deleted",
		zap.String("user_id", userID),
		zap.Bool("content_inherited", inheritorID != nil),
	)

	return nil
}

func (s *DeletionService) runEntryHooks(ctx context.Context, entry domain.Entry) error {
	for _, hook := range s.entryHooks {
		if err := hook(ctx, entry); err != nil {
			return err
		}
	}
	return nil
}
