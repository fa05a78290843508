package domain

import (
	"testing"
	"time"
)

func TestUserStatusPrecedence(t *testing.T) {
	cases := []struct {
		name string
		user User
		want UserStatus
	}{
		{"default is active", User{}, UserStatusActive},
		{"pending", User{Pending: true}, UserStatusPending},
		{"archived beats pending", User{Archived: true, Pending: true}, UserStatusArchived},
		{"suspended beats archived", User{Suspended: true, Archived: true}, UserStatusSuspended},
		{"suspended beats everything", User{Suspended: true, Archived: true, Pending: true}, UserStatusSuspended},
		{"locked does not affect status", User{Locked: true}, UserStatusActive},
		{"locked and pending reports pending", User{Locked: true, Pending: true}, UserStatusPending},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.user.Status(); got != tc.want {
				t.Fatalf("Status() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestUserCan(t *testing.T) {
	user := User{Permissions: []string{PermAccessCp}}

	if !user.Can(PermAccessCp) {
		t.Fatal("expected granted permission to pass")
	}
	if user.Can(PermAccessCpWhenSystemIsOff) {
		t.Fatal("expected missing permission to fail")
	}

	admin := User{Admin: true}
	if !admin.Can(PermAccessSiteWhenSystemIsOff) {
		t.Fatal("admins hold every permission implicitly")
	}
}

func TestCooldownEndTime(t *testing.T) {
	lockedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cooldown := 5 * time.Minute

	user := User{Locked: true, LockoutAt: &lockedAt}
	end := user.CooldownEndTime(cooldown)
	if end == nil || !end.Equal(lockedAt.Add(cooldown)) {
		t.Fatalf("CooldownEndTime = %v, want %v", end, lockedAt.Add(cooldown))
	}

	if (User{Locked: false, LockoutAt: &lockedAt}).CooldownEndTime(cooldown) != nil {
		t.Fatal("an unlocked user has no cooldown end")
	}
	if (User{Locked: true}).CooldownEndTime(cooldown) != nil {
		t.Fatal("a locked user without a lockout timestamp has no computable end")
	}
}

func TestRemainingCooldown(t *testing.T) {
	lockedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cooldown := 5 * time.Minute
	user := User{Locked: true, LockoutAt: &lockedAt}

	remaining := user.RemainingCooldown(lockedAt.Add(2*time.Minute), cooldown)
	if remaining == nil || *remaining != 3*time.Minute {
		t.Fatalf("RemainingCooldown = %v, want 3m", remaining)
	}

	if user.RemainingCooldown(lockedAt.Add(5*time.Minute), cooldown) != nil {
		t.Fatal("no remaining cooldown at the boundary")
	}
	if user.RemainingCooldown(lockedAt.Add(time.Hour), cooldown) != nil {
		t.Fatal("no remaining cooldown after expiry")
	}
}

func TestIsCooldownExpired(t *testing.T) {
	lockedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cooldown := 5 * time.Minute

	user := User{Locked: true, LockoutAt: &lockedAt}
	if user.IsCooldownExpired(lockedAt.Add(time.Minute), cooldown) {
		t.Fatal("cooldown must not be expired one minute in")
	}
	if !user.IsCooldownExpired(lockedAt.Add(10*time.Minute), cooldown) {
		t.Fatal("cooldown must be expired after the window")
	}

	// A lock without a timestamp cannot be timed; it counts as already past.
	orphanLock := User{Locked: true}
	if !orphanLock.IsCooldownExpired(lockedAt, cooldown) {
		t.Fatal("a lock without a timestamp counts as expired")
	}

	unlocked := User{}
	if unlocked.IsCooldownExpired(lockedAt, cooldown) {
		t.Fatal("an unlocked user has no cooldown to expire")
	}
}

func TestSanitizedStripsSecrets(t *testing.T) {
	codeHash := "code-hash"
	user := User{ID: "user-1", PasswordHash: "hash", VerificationCodeHash: &codeHash}

	clean := user.Sanitized()
	if clean.PasswordHash != "" || clean.VerificationCodeHash != nil {
		t.Fatalf("Sanitized left secrets behind: %+v", clean)
	}
	if user.PasswordHash != "hash" {
		t.Fatal("Sanitized must not mutate the receiver")
	}
}

func TestAuthResultOK(t *testing.T) {
	if !(AuthResult{User: &User{}}).OK() {
		t.Fatal("empty Err means success")
	}
	if (AuthResult{Err: AuthErrInvalidCredentials}).OK() {
		t.Fatal("a populated Err means failure")
	}
}
