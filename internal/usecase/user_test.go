package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/arklim/content-platform-accounts/internal/core/domain"
	"github.com/arklim/content-platform-accounts/internal/infra/security"
)

func newUserService(users *stubUserRepo, sessions *stubSessionRepo, events *stubEventPublisher) *UserService {
	return NewUserService(testConfig(), users, sessions, events, nil, nil, nil)
}

func TestRegisterCreatesPendingUser(t *testing.T) {
	users := newStubUserRepo()
	svc := newUserService(users, newStubSessionRepo(), &stubEventPublisher{})

	user, code, err := svc.Register(context.Background(), "walter", "walter@example.com", "Tr1cky-Lantern-Orbit")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if !user.Pending {
		t.Fatal("new accounts must start pending")
	}
	if user.PasswordHash != "" || user.VerificationCodeHash != nil {
		t.Fatal("returned user must be sanitized")
	}
	if code == "" {
		t.Fatal("expected a plaintext verification code for delivery")
	}

	if len(users.created) != 1 {
		t.Fatalf("expected one created user, got %d", len(users.created))
	}
	stored := users.created[0]
	if stored.VerificationCodeHash == nil || *stored.VerificationCodeHash != security.HashToken(code) {
		t.Fatal("only the code hash may be stored")
	}
	if stored.PasswordHash == "" || stored.PasswordHash == "Tr1cky-Lantern-Orbit" {
		t.Fatal("the password must be stored hashed")
	}
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	svc := newUserService(newStubUserRepo(), newStubSessionRepo(), &stubEventPublisher{})

	if _, _, err := svc.Register(context.Background(), "walter", "walter@example.com", "password1"); err == nil {
		t.Fatal("expected weak password rejection")
	}
}

func TestSaveProfileRejectsStateFlagChanges(t *testing.T) {
	stored := &domain.User{ID: "user-1", Username: "walter", Email: "walter@example.com", Locked: true}
	users := newStubUserRepo(stored)
	svc := newUserService(users, newStubSessionRepo(), &stubEventPublisher{})

	update := *stored
	update.Locked = false

	if err := svc.SaveProfile(context.Background(), update); !errors.Is(err, ErrStateFieldMutation) {
		t.Fatalf("expected ErrStateFieldMutation, got %v", err)
	}
	if len(users.updatedProfiles) != 0 {
		t.Fatal("a rejected save must not reach the repository")
	}

	legit := *stored
	legit.Username = "walter2"
	if err := svc.SaveProfile(context.Background(), legit); err != nil {
		t.Fatalf("SaveProfile returned error: %v", err)
	}
	if len(users.updatedProfiles) != 1 {
		t.Fatal("expected profile update to be persisted")
	}
}

func TestSetPasswordRevokesOtherSessions(t *testing.T) {
	now := time.Now().UTC()
	user := &domain.User{ID: "user-1"}
	users := newStubUserRepo(user)
	sessions := newStubSessionRepo()
	sessions.deleteAllCount = 2
	events := &stubEventPublisher{}

	svc := NewUserService(testConfig(), users, sessions, events, nil, fixedClock(now), nil)

	if err := svc.SetPassword(context.Background(), "user-1", "current-token", "Tr1cky-Lantern-Orbit"); err != nil {
		t.Fatalf("SetPassword returned error: %v", err)
	}

	if len(users.passwordCalls) != 1 {
		t.Fatalf("expected one password update, got %d", len(users.passwordCalls))
	}
	if !users.passwordCalls[0].at.Equal(now) {
		t.Fatalf("expected change stamped at clock time, got %v", users.passwordCalls[0].at)
	}

	if len(sessions.deleteAllCalls) != 1 {
		t.Fatalf("expected one revocation sweep, got %d", len(sessions.deleteAllCalls))
	}
	if sessions.deleteAllCalls[0].exceptToken != "current-token" {
		t.Fatalf("the changing session must survive, got except=%q", sessions.deleteAllCalls[0].exceptToken)
	}

	if len(events.passwordChanges) != 1 {
		t.Fatalf("expected password change event, got %d", len(events.passwordChanges))
	}
	if events.passwordChanges[0].SessionsRevoked != 2 {
		t.Fatalf("expected 2 revoked sessions in event, got %d", events.passwordChanges[0].SessionsRevoked)
	}
}

func TestSetPasswordRejectsWeakPassword(t *testing.T) {
	users := newStubUserRepo(&domain.User{ID: "user-1"})
	sessions := newStubSessionRepo()
	svc := newUserService(users, sessions, &stubEventPublisher{})

	if err := svc.SetPassword(context.Background(), "user-1", "", "abc1"); err == nil {
		t.Fatal("expected weak password rejection")
	}
	if len(users.passwordCalls) != 0 {
		t.Fatal("a rejected password must never reach the repository")
	}
	if len(sessions.deleteAllCalls) != 0 {
		t.Fatal("a rejected password must not revoke sessions")
	}
}

func TestSuspendAndUnsuspendPublishEvents(t *testing.T) {
	user := &domain.User{ID: "user-1"}
	users := newStubUserRepo(user)
	events := &stubEventPublisher{}
	svc := newUserService(users, newStubSessionRepo(), events)

	if err := svc.Suspend(context.Background(), "user-1", "admin-9"); err != nil {
		t.Fatalf("Suspend returned error: %v", err)
	}
	if !users.users["user-1"].Suspended {
		t.Fatal("expected user suspended")
	}
	if len(events.suspensions) != 1 || events.suspensions[0].Actor != "admin-9" {
		t.Fatalf("expected suspend event with actor, got %+v", events.suspensions)
	}

	if err := svc.Unsuspend(context.Background(), "user-1", "admin-9"); err != nil {
		t.Fatalf("Unsuspend returned error: %v", err)
	}
	if users.users["user-1"].Suspended {
		t.Fatal("expected user unsuspended")
	}
	if len(events.unsuspensions) != 1 {
		t.Fatalf("expected unsuspend event, got %d", len(events.unsuspensions))
	}
}

func TestUnlockPublishesAdminReason(t *testing.T) {
	now := time.Now().UTC()
	user := &domain.User{ID: "user-1", Locked: true, LockoutAt: &now}
	users := newStubUserRepo(user)
	events := &stubEventPublisher{}
	svc := newUserService(users, newStubSessionRepo(), events)

	if err := svc.Unlock(context.Background(), "user-1"); err != nil {
		t.Fatalf("Unlock returned error: %v", err)
	}
	if len(events.unlocks) != 1 || events.unlocks[0].Reason != UnlockReasonAdmin {
		t.Fatalf("expected admin unlock event, got %+v", events.unlocks)
	}
	if users.users["user-1"].Locked {
		t.Fatal("expected lock lifted")
	}
}

func TestVerifyEmail(t *testing.T) {
	now := time.Now().UTC()
	issued := now.Add(-time.Hour)
	code := "the-plaintext-code"
	codeHash := security.HashToken(code)
	staged := "new@example.com"

	user := &domain.User{
		ID:                       "user-1",
		Email:                    "old@example.com",
		UnverifiedEmail:          &staged,
		Pending:                  true,
		VerificationCodeHash:     &codeHash,
		VerificationCodeIssuedAt: &issued,
	}
	users := newStubUserRepo(user)
	svc := NewUserService(testConfig(), users, newStubSessionRepo(), &stubEventPublisher{}, nil, fixedClock(now), nil)

	if err := svc.VerifyEmail(context.Background(), "user-1", "wrong-code"); !errors.Is(err, ErrInvalidVerificationCode) {
		t.Fatalf("expected ErrInvalidVerificationCode, got %v", err)
	}
	if len(users.activateCalls) != 0 {
		t.Fatal("a wrong code must not activate the account")
	}

	if err := svc.VerifyEmail(context.Background(), "user-1", code); err != nil {
		t.Fatalf("VerifyEmail returned error: %v", err)
	}
	if len(users.activateCalls) != 1 {
		t.Fatal("expected activation after correct code")
	}
}

func TestVerifyEmailExpiredCode(t *testing.T) {
	now := time.Now().UTC()
	issued := now.Add(-48 * time.Hour)
	code := "the-plaintext-code"
	codeHash := security.HashToken(code)

	user := &domain.User{
		ID:                       "user-1",
		Pending:                  true,
		VerificationCodeHash:     &codeHash,
		VerificationCodeIssuedAt: &issued,
	}
	users := newStubUserRepo(user)
	svc := NewUserService(testConfig(), users, newStubSessionRepo(), &stubEventPublisher{}, nil, fixedClock(now), nil)

	if err := svc.VerifyEmail(context.Background(), "user-1", code); !errors.Is(err, ErrVerificationCodeExpired) {
		t.Fatalf("expected ErrVerificationCodeExpired, got %v", err)
	}
	if len(users.activateCalls) != 0 {
		t.Fatal("an expired code must not activate the account")
	}
}

func TestIssueVerificationCodeStoresHashOnly(t *testing.T) {
	users := newStubUserRepo(&domain.User{ID: "user-1"})
	svc := newUserService(users, newStubSessionRepo(), &stubEventPublisher{})

	code, err := svc.IssueVerificationCode(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("IssueVerificationCode returned error: %v", err)
	}
	if len(users.codeCalls) != 1 {
		t.Fatalf("expected one stored code, got %d", len(users.codeCalls))
	}
	if users.codeCalls[0].codeHash != security.HashToken(code) {
		t.Fatal("stored value must be the hash of the returned code")
	}
	if users.codeCalls[0].codeHash == code {
		t.Fatal("the plaintext code must never be stored")
	}
}
