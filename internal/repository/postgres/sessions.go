package postgres

import (
	"context"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/arklim/content-platform-accounts/internal/core/domain"
	"github.com/arklim/content-platform-accounts/internal/core/port"
	"github.com/arklim/content-platform-accounts/internal/repository"
)

// SessionRepository implements port.SessionRepository backed by PostgreSQL.
type SessionRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewSessionRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewSessionRepository(exec pgExecutor) *SessionRepository {
	return &SessionRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a session record.
func (r *SessionRepository) Create(ctx context.Context, session domain.Session) error {
	stmt, args, err := r.builder.Insert("accounts.sessions").
		Columns("id", "token", "user_id", "created_at", "date_updated").
		Values(session.ID, session.Token, session.UserID, session.CreatedAt, session.DateUpdated).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert session sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	return nil
}

// FindByToken returns the session matching both token and owner. The token is
// only ever looked up together with the user id so a leaked token alone does
// not address a row.
func (r *SessionRepository) FindByToken(ctx context.Context, token, userID string) (*domain.Session, error) {
	stmt, args, err := r.builder.
		Select("id", "token", "user_id", "created_at", "date_updated").
		From("accounts.sessions").
		Where(squirrel.Eq{"token": token, "user_id": userID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select session sql: %w", err)
	}

	var session domain.Session
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(
		&session.ID,
		&session.Token,
		&session.UserID,
		&session.CreatedAt,
		&session.DateUpdated,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}

	return &session, nil
}

// Touch refreshes the session liveness timestamp.
func (r *SessionRepository) Touch(ctx context.Context, sessionID string, at time.Time) error {
	stmt, args, err := r.builder.Update("accounts.sessions").
		Set("date_updated", at).
		Where(squirrel.Eq{"id": sessionID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build touch session sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// DeleteByToken removes the session identified by token and owner.
func (r *SessionRepository) DeleteByToken(ctx context.Context, token, userID string) error {
	stmt, args, err := r.builder.Delete("accounts.sessions").
		Where(squirrel.Eq{"token": token, "user_id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete session sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// DeleteAllForUser removes every session owned by the user, sparing the
// excepted token when one is given. Returns the number of sessions removed.
func (r *SessionRepository) DeleteAllForUser(ctx context.Context, userID string, exceptToken string) (int, error) {
	del := r.builder.Delete("accounts.sessions").
		Where(squirrel.Eq{"user_id": userID})
	if exceptToken != "" {
		del = del.Where(squirrel.NotEq{"token": exceptToken})
	}

	stmt, args, err := del.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete sessions sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("delete sessions for user: %w", err)
	}

	return int(tag.RowsAffected()), nil
}

var _ port.SessionRepository = (*SessionRepository)(nil)
