package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/arklim/content-platform-accounts/internal/repository"
)

func userRowColumns() []string {
	return []string{
		"id", "username", "email", "unverified_email", "password_hash",
		"verification_code_hash", "verification_code_issued_at",
		"invalid_login_count", "invalid_login_window_start", "last_invalid_login_at",
		"lockout_at", "locked", "suspended", "pending", "archived", "admin",
		"password_reset_required", "permissions", "last_login_at",
		"last_password_change_at", "created_at",
	}
}

func TestUserRepository_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewUserRepository(mock)

	createdAt := time.Now().UTC()
	rows := pgxmock.NewRows(userRowColumns()).AddRow(
		"user-1", "walter", "walter@example.com", nil, "argon2id$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA",
		nil, nil,
		0, nil, nil,
		nil, false, false, false, false, false,
		false, []string{"accessCp"}, nil,
		nil, createdAt,
	)

	mock.ExpectQuery(`SELECT .*FROM accounts\.users`).WithArgs("user-1").WillReturnRows(rows)

	user, err := repo.GetByID(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if user.ID != "user-1" || user.Username != "walter" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if len(user.Permissions) != 1 || user.Permissions[0] != "accessCp" {
		t.Fatalf("expected permissions to round trip, got %v", user.Permissions)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_GetByIDNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewUserRepository(mock)

	mock.ExpectQuery(`SELECT .*FROM accounts\.users`).
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows(userRowColumns()))

	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserRepository_RecordInvalidLoginIncrementsInsideWindow(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewUserRepository(mock)

	now := time.Now().UTC()
	windowStart := now.Add(-10 * time.Minute)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .*FROM accounts\.users.*FOR UPDATE`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{
			"invalid_login_count", "invalid_login_window_start", "locked", "lockout_at",
		}).AddRow(2, &windowStart, false, nil))
	mock.ExpectExec(`UPDATE accounts\.users`).
		WithArgs(3, pgxmock.AnyArg(), now, false, (*time.Time)(nil), "user-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	outcome, err := repo.RecordInvalidLogin(context.Background(), "user-1", now, time.Hour, 5)
	if err != nil {
		t.Fatalf("RecordInvalidLogin returned error: %v", err)
	}
	if outcome.Count != 3 {
		t.Fatalf("expected count 3, got %d", outcome.Count)
	}
	if outcome.Locked {
		t.Fatal("three attempts out of five must not lock the account")
	}
	if !outcome.WindowStart.Equal(windowStart) {
		t.Fatalf("expected window start preserved, got %v", outcome.WindowStart)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_RecordInvalidLoginRestartsStaleWindow(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewUserRepository(mock)

	now := time.Now().UTC()
	staleStart := now.Add(-2 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .*FROM accounts\.users.*FOR UPDATE`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{
			"invalid_login_count", "invalid_login_window_start", "locked", "lockout_at",
		}).AddRow(4, &staleStart, false, nil))
	mock.ExpectExec(`UPDATE accounts\.users`).
		WithArgs(1, pgxmock.AnyArg(), now, false, (*time.Time)(nil), "user-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	outcome, err := repo.RecordInvalidLogin(context.Background(), "user-1", now, time.Hour, 5)
	if err != nil {
		t.Fatalf("RecordInvalidLogin returned error: %v", err)
	}
	if outcome.Count != 1 {
		t.Fatalf("a stale window must restart the count at 1, got %d", outcome.Count)
	}
	if !outcome.WindowStart.Equal(now) {
		t.Fatalf("expected window to restart at the attempt time, got %v", outcome.WindowStart)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_RecordInvalidLoginLocksAtThreshold(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewUserRepository(mock)

	now := time.Now().UTC()
	windowStart := now.Add(-5 * time.Minute)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .*FROM accounts\.users.*FOR UPDATE`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{
			"invalid_login_count", "invalid_login_window_start", "locked", "lockout_at",
		}).AddRow(4, &windowStart, false, nil))
	mock.ExpectExec(`UPDATE accounts\.users`).
		WithArgs(0, (*time.Time)(nil), now, true, pgxmock.AnyArg(), "user-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	outcome, err := repo.RecordInvalidLogin(context.Background(), "user-1", now, time.Hour, 5)
	if err != nil {
		t.Fatalf("RecordInvalidLogin returned error: %v", err)
	}
	if !outcome.Locked {
		t.Fatal("fifth attempt inside the window must lock the account")
	}
	if outcome.LockoutAt == nil || !outcome.LockoutAt.Equal(now) {
		t.Fatalf("expected lockout stamped at the attempt time, got %v", outcome.LockoutAt)
	}
	if outcome.Count != 0 {
		t.Fatalf("expected counters cleared on lock, got %d", outcome.Count)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_UpdatePasswordResetsCredentialState(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewUserRepository(mock)

	changedAt := time.Now().UTC()
	hash := "argon2id$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA"

	mock.ExpectExec(`UPDATE accounts\.users`).
		WithArgs(hash, changedAt, 0, nil, nil, nil, nil, false, "user-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := repo.UpdatePassword(context.Background(), "user-1", hash, changedAt); err != nil {
		t.Fatalf("UpdatePassword returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_UnlockClearsLockoutState(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewUserRepository(mock)

	mock.ExpectExec(`UPDATE accounts\.users`).
		WithArgs(false, nil, 0, nil, nil, "user-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := repo.Unlock(context.Background(), "user-1"); err != nil {
		t.Fatalf("Unlock returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_UnlockMissingUser(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewUserRepository(mock)

	mock.ExpectExec(`UPDATE accounts\.users`).
		WithArgs(false, nil, 0, nil, nil, "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	if err := repo.Unlock(context.Background(), "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
