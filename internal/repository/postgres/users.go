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

var userColumns = []string{
	"id",
	"username",
	"email",
	"unverified_email",
	"password_hash",
	"verification_code_hash",
	"verification_code_issued_at",
	"invalid_login_count",
	"invalid_login_window_start",
	"last_invalid_login_at",
	"lockout_at",
	"locked",
	"suspended",
	"pending",
	"archived",
	"admin",
	"password_reset_required",
	"permissions",
	"last_login_at",
	"last_password_change_at",
	"created_at",
}

// UserRepository implements port.UserRepository using PostgreSQL.
type UserRepository struct {
	exec    pgTxExecutor
	builder squirrel.StatementBuilderType
}

// NewUserRepository constructs a repository backed by any executor that satisfies pgTxExecutor.
func NewUserRepository(exec pgTxExecutor) *UserRepository {
	return &UserRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new user row.
func (r *UserRepository) Create(ctx context.Context, user domain.User) error {
	stmt, args, err := r.builder.Insert("accounts.users").
		Columns(userColumns...).
		Values(
			user.ID,
			user.Username,
			user.Email,
			user.UnverifiedEmail,
			user.PasswordHash,
			user.VerificationCodeHash,
			user.VerificationCodeIssuedAt,
			user.InvalidLoginCount,
			user.InvalidLoginWindowStart,
			user.LastInvalidLoginAt,
			user.LockoutAt,
			user.Locked,
			user.Suspended,
			user.Pending,
			user.Archived,
			user.Admin,
			user.PasswordResetRequired,
			user.Permissions,
			user.LastLoginAt,
			user.LastPasswordChangeAt,
			user.CreatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert user sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by identifier.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	stmt, args, err := r.builder.
		Select(userColumns...).
		From("accounts.users").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select user sql: %w", err)
	}

	return r.scanUserRow(r.exec.QueryRow(ctx, stmt, args...))
}

// GetByIdentifier retrieves a non-archived user by username or email.
func (r *UserRepository) GetByIdentifier(ctx context.Context, identifier string) (*domain.User, error) {
	stmt, args, err := r.builder.
		Select(userColumns...).
		From("accounts.users").
		Where(squirrel.Or{
			squirrel.Eq{"username": identifier},
			squirrel.Eq{"email": identifier},
		}).
		Where(squirrel.Eq{"archived": false}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select user by identifier sql: %w", err)
	}

	return r.scanUserRow(r.exec.QueryRow(ctx, stmt, args...))
}

func (r *UserRepository) scanUserRow(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.UnverifiedEmail,
		&user.PasswordHash,
		&user.VerificationCodeHash,
		&user.VerificationCodeIssuedAt,
		&user.InvalidLoginCount,
		&user.InvalidLoginWindowStart,
		&user.LastInvalidLoginAt,
		&user.LockoutAt,
		&user.Locked,
		&user.Suspended,
		&user.Pending,
		&user.Archived,
		&user.Admin,
		&user.PasswordResetRequired,
		&user.Permissions,
		&user.LastLoginAt,
		&user.LastPasswordChangeAt,
		&user.CreatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	return &user, nil
}

// UpdateProfile persists identity fields only. Lockout, suspension, and
// pending flags are owned by their dedicated operations.
func (r *UserRepository) UpdateProfile(ctx context.Context, user domain.User) error {
	stmt, args, err := r.builder.Update("accounts.users").
		Set("username", user.Username).
		Set("email", user.Email).
		Set("unverified_email", user.UnverifiedEmail).
		Set("admin", user.Admin).
		Set("password_reset_required", user.PasswordResetRequired).
		Set("permissions", user.Permissions).
		Where(squirrel.Eq{"id": user.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update profile sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// RecordInvalidLogin applies the invalid-login bookkeeping inside a
// transaction. The row is locked for the duration so concurrent failed
// attempts against the same account serialize instead of losing counts.
func (r *UserRepository) RecordInvalidLogin(ctx context.Context, id string, at time.Time, window time.Duration, maxAttempts int) (*domain.InvalidLoginOutcome, error) {
	tx, err := r.exec.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin invalid login tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	selectStmt, selectArgs, err := r.builder.
		Select("invalid_login_count", "invalid_login_window_start", "locked", "lockout_at").
		From("accounts.users").
		Where(squirrel.Eq{"id": id}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select for update sql: %w", err)
	}

	var (
		count       int
		windowStart *time.Time
		locked      bool
		lockoutAt   *time.Time
	)
	if err := tx.QueryRow(ctx, selectStmt, selectArgs...).Scan(&count, &windowStart, &locked, &lockoutAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("select user for invalid login: %w", err)
	}

	// A stale or absent window restarts the count at one; an open window
	// increments it.
	if windowStart == nil || at.Sub(*windowStart) >= window {
		count = 1
		start := at
		windowStart = &start
	} else {
		count++
	}

	if maxAttempts > 0 && count >= maxAttempts && !locked {
		locked = true
		lockedAt := at
		lockoutAt = &lockedAt
		count = 0
		windowStart = nil
	}

	update := r.builder.Update("accounts.users").
		Set("invalid_login_count", count).
		Set("invalid_login_window_start", windowStart).
		Set("last_invalid_login_at", at).
		Set("locked", locked).
		Set("lockout_at", lockoutAt).
		Where(squirrel.Eq{"id": id})

	updateStmt, updateArgs, err := update.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update invalid login sql: %w", err)
	}

	if _, err := tx.Exec(ctx, updateStmt, updateArgs...); err != nil {
		return nil, fmt.Errorf("update invalid login counters: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit invalid login tx: %w", err)
	}

	outcome := &domain.InvalidLoginOutcome{
		Count:     count,
		Locked:    locked,
		LockoutAt: lockoutAt,
	}
	if windowStart != nil {
		outcome.WindowStart = *windowStart
	}

	return outcome, nil
}

// ResetInvalidLogins clears the counter and window after a successful login.
func (r *UserRepository) ResetInvalidLogins(ctx context.Context, id string) error {
	return r.execUpdate(ctx, "reset invalid logins", r.builder.Update("accounts.users").
		Set("invalid_login_count", 0).
		Set("invalid_login_window_start", nil).
		Set("last_invalid_login_at", nil).
		Where(squirrel.Eq{"id": id}))
}

// RecordLogin stamps the most recent successful login.
func (r *UserRepository) RecordLogin(ctx context.Context, id string, at time.Time) error {
	return r.execUpdate(ctx, "record login", r.builder.Update("accounts.users").
		Set("last_login_at", at).
		Where(squirrel.Eq{"id": id}))
}

// Unlock clears the locked flag, lockout timestamp, and counters. Updating an
// already unlocked user is harmless; the statement is idempotent.
func (r *UserRepository) Unlock(ctx context.Context, id string) error {
	return r.execUpdate(ctx, "unlock user", r.builder.Update("accounts.users").
		Set("locked", false).
		Set("lockout_at", nil).
		Set("invalid_login_count", 0).
		Set("invalid_login_window_start", nil).
		Set("last_invalid_login_at", nil).
		Where(squirrel.Eq{"id": id}))
}

// Suspend marks the account suspended.
func (r *UserRepository) Suspend(ctx context.Context, id string) error {
	return r.execUpdate(ctx, "suspend user", r.builder.Update("accounts.users").
		Set("suspended", true).
		Where(squirrel.Eq{"id": id}))
}

// Unsuspend clears the suspended flag.
func (r *UserRepository) Unsuspend(ctx context.Context, id string) error {
	return r.execUpdate(ctx, "unsuspend user", r.builder.Update("accounts.users").
		Set("suspended", false).
		Where(squirrel.Eq{"id": id}))
}

// UpdatePassword stores the new hash and resets all credential-adjacent state
// in one statement so a password change can never leave stale lockout
// counters or a live verification code behind.
func (r *UserRepository) UpdatePassword(ctx context.Context, id string, passwordHash string, changedAt time.Time) error {
	return r.execUpdate(ctx, "update password", r.builder.Update("accounts.users").
		Set("password_hash", passwordHash).
		Set("last_password_change_at", changedAt).
		Set("invalid_login_count", 0).
		Set("invalid_login_window_start", nil).
		Set("last_invalid_login_at", nil).
		Set("verification_code_hash", nil).
		Set("verification_code_issued_at", nil).
		Set("password_reset_required", false).
		Where(squirrel.Eq{"id": id}))
}

// SetVerificationCode stores a new hashed verification code, replacing any
// previous one.
func (r *UserRepository) SetVerificationCode(ctx context.Context, id string, codeHash string, issuedAt time.Time) error {
	return r.execUpdate(ctx, "set verification code", r.builder.Update("accounts.users").
		Set("verification_code_hash", codeHash).
		Set("verification_code_issued_at", issuedAt).
		Where(squirrel.Eq{"id": id}))
}

// Activate completes email verification: the pending flag clears, any staged
// unverified email becomes the primary address, and the code is discarded.
func (r *UserRepository) Activate(ctx context.Context, id string) error {
	return r.execUpdate(ctx, "activate user", r.builder.Update("accounts.users").
		Set("pending", false).
		Set("email", squirrel.Expr("COALESCE(unverified_email, email)")).
		Set("unverified_email", nil).
		Set("verification_code_hash", nil).
		Set("verification_code_issued_at", nil).
		Where(squirrel.Eq{"id": id}))
}

func (r *UserRepository) execUpdate(ctx context.Context, op string, update squirrel.UpdateBuilder) error {
	stmt, args, err := update.ToSql()
	if err != nil {
		return fmt.Errorf("build %s sql: %w", op, err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

var _ port.UserRepository = (*UserRepository)(nil)
