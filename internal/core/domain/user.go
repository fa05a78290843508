package domain

import "time"

// UserStatus enumerates possible account states.
type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusLocked    UserStatus = "locked"
	UserStatusSuspended UserStatus = "suspended"
	UserStatusPending   UserStatus = "pending"
	UserStatusArchived  UserStatus = "archived"
)

// AuthError identifies why an authentication attempt was rejected.
// An empty value means the attempt succeeded.
type AuthError string

const (
	AuthErrInvalidCredentials    AuthError = "invalid_credentials"
	AuthErrPendingVerification   AuthError = "pending_verification"
	AuthErrAccountLocked         AuthError = "account_locked"
	AuthErrAccountCooldown       AuthError = "account_cooldown"
	AuthErrPasswordResetRequired AuthError = "password_reset_required"
	AuthErrAccountSuspended      AuthError = "account_suspended"
	AuthErrNoCpAccess            AuthError = "no_cp_access"
	AuthErrNoCpOfflineAccess     AuthError = "no_cp_offline_access"
	AuthErrNoSiteOfflineAccess   AuthError = "no_site_offline_access"
)

// Permission names backing the request-context access checks.
const (
	PermAccessCp                  = "accessCp"
	PermAccessCpWhenSystemIsOff   = "accessCpWhenSystemIsOff"
	PermAccessSiteWhenSystemIsOff = "accessSiteWhenSystemIsOff"
)

// User mirrors the persisted representation in the users table.
type User struct {
	ID              string
	Username        string
	Email           string
	UnverifiedEmail *string

	PasswordHash             string
	VerificationCodeHash     *string
	VerificationCodeIssuedAt *time.Time

	InvalidLoginCount       int
	InvalidLoginWindowStart *time.Time
	LastInvalidLoginAt      *time.Time
	LockoutAt               *time.Time
	Locked                  bool

	Suspended             bool
	Pending               bool
	Archived              bool
	Admin                 bool
	PasswordResetRequired bool

	Permissions []string

	LastLoginAt          *time.Time
	LastPasswordChangeAt *time.Time
	CreatedAt            time.Time
}

// Status derives the account lifecycle status from the stored flags.
// Precedence: suspended > archived > pending > active. The locked flag is
// orthogonal and never reported here; it gates login, not general status.
func (u User) Status() UserStatus {
	if u.Suspended {
		return UserStatusSuspended
	}
	if u.Archived {
		return UserStatusArchived
	}
	if u.Pending {
		return UserStatusPending
	}
	return UserStatusActive
}

// Can reports whether the user holds the named permission.
// Admins implicitly hold every permission.
func (u User) Can(permission string) bool {
	if u.Admin {
		return true
	}
	for _, p := range u.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// CooldownEndTime returns the time when the user will be past their cooldown
// period. A locked user with no lockout timestamp is a known historical
// inconsistency; it is treated as already past the cooldown rather than an
// error.
func (u User) CooldownEndTime(cooldown time.Duration) *time.Time {
	if !u.Locked || u.LockoutAt == nil {
		return nil
	}
	end := u.LockoutAt.Add(cooldown)
	return &end
}

// RemainingCooldown returns how long the user must still wait before the
// account self-unlocks, or nil if the user is not inside a cooldown window.
func (u User) RemainingCooldown(now time.Time, cooldown time.Duration) *time.Duration {
	end := u.CooldownEndTime(cooldown)
	if end == nil || !now.Before(*end) {
		return nil
	}
	remaining := end.Sub(now)
	return &remaining
}

// IsCooldownExpired reports whether a locked user's cooldown window has
// elapsed. It is false for users that are not locked.
func (u User) IsCooldownExpired(now time.Time, cooldown time.Duration) bool {
	if !u.Locked {
		return false
	}
	return u.RemainingCooldown(now, cooldown) == nil
}

// Sanitized returns a copy of the user with secret material removed.
func (u User) Sanitized() User {
	u.PasswordHash = ""
	u.VerificationCodeHash = nil
	return u
}

// RequestKind distinguishes the surfaces a login request can target.
type RequestKind int

const (
	// RequestConsole is a background or CLI invocation; access checks are skipped.
	RequestConsole RequestKind = iota
	// RequestControlPanel targets the control panel UI.
	RequestControlPanel
	// RequestSite targets public site rendering.
	RequestSite
)

// RequestContext carries the request-scoped facts the auth-error classifier
// needs: which surface is being logged into and whether the system is live.
type RequestContext struct {
	Kind       RequestKind
	SystemLive bool
}

// AuthResult is the outcome of an authentication attempt: exactly one of
// success (empty Err) or a single error code from the closed AuthError set.
type AuthResult struct {
	User *User
	Err  AuthError
}

// OK reports whether authentication succeeded.
func (r AuthResult) OK() bool {
	return r.Err == ""
}

// InvalidLoginOutcome describes the state of the lockout counters after an
// invalid login attempt was recorded.
type InvalidLoginOutcome struct {
	Count       int
	WindowStart time.Time
	Locked      bool
	LockoutAt   *time.Time
}
