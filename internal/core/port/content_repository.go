package port

import (
	"context"

	"github.com/arklim/content-platform-accounts/internal/core/domain"
)

// EntryDeleteHook runs once per entry while content is cascaded during a user
// deletion. A non-nil error aborts the surrounding transaction.
type EntryDeleteHook func(ctx context.Context, entry domain.Entry) error

// ContentRepository owns the transactional delete-with-reassignment logic.
// Both operations archive the user row and mutate dependent content inside a
// single database transaction; any failure rolls the whole thing back.
type ContentRepository interface {
	// DeleteUserWithInheritor reassigns entry authorship plus draft and
	// revision creator references from the deleted user to the inheritor,
	// then archives the user.
	DeleteUserWithInheritor(ctx context.Context, userID, inheritorID string) error

	// DeleteUserCascading removes every entry owned by the user through the
	// content lifecycle: onEntry fires once per entry before its rows (and
	// dependent drafts/revisions) are deleted. The user is archived last.
	DeleteUserCascading(ctx context.Context, userID string, onEntry EntryDeleteHook) error

	ListEntriesByAuthor(ctx context.Context, authorID string) ([]domain.Entry, error)
}

// ContentCache invalidates cached content keyed by content type.
type ContentCache interface {
	InvalidateEntryCaches(ctx context.Context) error
}
