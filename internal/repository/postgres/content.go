package postgres

import (
	"context"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"

	"github.com/arklim/content-platform-accounts/internal/core/domain"
	"github.com/arklim/content-platform-accounts/internal/core/port"
	"github.com/arklim/content-platform-accounts/internal/repository"
)

// ContentRepository implements the transactional user deletion flows against
// PostgreSQL. Everything a deletion touches happens inside one transaction;
// a failure anywhere leaves both the user and their content untouched.
type ContentRepository struct {
	exec    pgTxExecutor
	builder squirrel.StatementBuilderType
}

// NewContentRepository constructs a repository backed by any executor that satisfies pgTxExecutor.
func NewContentRepository(exec pgTxExecutor) *ContentRepository {
	return &ContentRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// DeleteUserWithInheritor reassigns entry authorship plus draft and revision
// creator references to the inheritor, then archives the user.
func (r *ContentRepository) DeleteUserWithInheritor(ctx context.Context, userID, inheritorID string) error {
	tx, err := r.exec.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete user tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	reassignments := []struct {
		table  string
		column string
	}{
		{"accounts.entries", "author_id"},
		{"accounts.drafts", "creator_id"},
		{"accounts.revisions", "creator_id"},
	}

	for _, re := range reassignments {
		stmt, args, err := r.builder.Update(re.table).
			Set(re.column, inheritorID).
			Where(squirrel.Eq{re.column: userID}).
			ToSql()
		if err != nil {
			return fmt.Errorf("build reassign %s sql: %w", re.table, err)
		}
		if _, err := tx.Exec(ctx, stmt, args...); err != nil {
			return fmt.Errorf("reassign %s: %w", re.table, err)
		}
	}

	if err := r.archiveUser(ctx, tx, userID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit delete user tx: %w", err)
	}

	return nil
}

// DeleteUserCascading removes every entry owned by the user. The onEntry hook
// fires once per entry before its dependent rows go; a hook error aborts the
// whole transaction.
func (r *ContentRepository) DeleteUserCascading(ctx context.Context, userID string, onEntry port.EntryDeleteHook) error {
	tx, err := r.exec.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete user tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	selectStmt, selectArgs, err := r.builder.
		Select("id", "author_id", "title", "created_at").
		From("accounts.entries").
		Where(squirrel.Eq{"author_id": userID}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return fmt.Errorf("build select entries sql: %w", err)
	}

	rows, err := tx.Query(ctx, selectStmt, selectArgs...)
	if err != nil {
		return fmt.Errorf("query entries: %w", err)
	}

	var entries []domain.Entry
	for rows.Next() {
		var entry domain.Entry
		if err := rows.Scan(&entry.ID, &entry.AuthorID, &entry.Title, &entry.CreatedAt); err != nil {
			rows.Close()
			return fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, entry)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate entries: %w", err)
	}

	for _, entry := range entries {
		if onEntry != nil {
			if err := onEntry(ctx, entry); err != nil {
				return fmt.Errorf("entry delete hook for %s: %w", entry.ID, err)
			}
		}

		if err := r.deleteEntryRows(ctx, tx, entry.ID); err != nil {
			return err
		}
	}

	if err := r.archiveUser(ctx, tx, userID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit delete user tx: %w", err)
	}

	return nil
}

func (r *ContentRepository) deleteEntryRows(ctx context.Context, exec pgExecutor, entryID string) error {
	dependents := []string{"accounts.drafts", "accounts.revisions"}
	for _, table := range dependents {
		stmt, args, err := r.builder.Delete(table).
			Where(squirrel.Eq{"entry_id": entryID}).
			ToSql()
		if err != nil {
			return fmt.Errorf("build delete %s sql: %w", table, err)
		}
		if _, err := exec.Exec(ctx, stmt, args...); err != nil {
			return fmt.Errorf("delete %s: %w", table, err)
		}
	}

	stmt, args, err := r.builder.Delete("accounts.entries").
		Where(squirrel.Eq{"id": entryID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete entry sql: %w", err)
	}
	if _, err := exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}

	return nil
}

func (r *ContentRepository) archiveUser(ctx context.Context, exec pgExecutor, userID string) error {
	stmt, args, err := r.builder.Update("accounts.users").
		Set("archived", true).
		Where(squirrel.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build archive user sql: %w", err)
	}

	tag, err := exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("archive user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// ListEntriesByAuthor returns the entries currently owned by the author.
func (r *ContentRepository) ListEntriesByAuthor(ctx context.Context, authorID string) ([]domain.Entry, error) {
	stmt, args, err := r.builder.
		Select("id", "author_id", "title", "created_at").
		From("accounts.entries").
		Where(squirrel.Eq{"author_id": authorID}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select entries sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.Entry
	for rows.Next() {
		var entry domain.Entry
		if err := rows.Scan(&entry.ID, &entry.AuthorID, &entry.Title, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}

	return entries, nil
}

var _ port.ContentRepository = (*ContentRepository)(nil)
