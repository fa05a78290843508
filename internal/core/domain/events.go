package domain

import "time"

// InvalidLoginEvent represents the payload for accounts.auth.invalid_login messages.
type InvalidLoginEvent struct {
	EventID      string
	UserID       string
	AttemptCount int
	AttemptedAt  time.Time
	Locked       bool
	Metadata     map[string]any
}

// UserLockedEvent represents the payload for accounts.user.locked messages.
type UserLockedEvent struct {
	EventID  string
	UserID   string
	LockedAt time.Time
	Metadata map[string]any
}

// UserUnlockedEvent represents the payload for accounts.user.unlocked messages.
type UserUnlockedEvent struct {
	EventID    string
	UserID     string
	UnlockedAt time.Time
	// Reason distinguishes lazy cooldown expiry from an explicit admin unlock.
	Reason   string
	Metadata map[string]any
}

// UserSuspendedEvent represents the payload for accounts.user.suspended messages.
type UserSuspendedEvent struct {
	EventID     string
	UserID      string
	SuspendedAt time.Time
	Actor       string
	Metadata    map[string]any
}

// UserUnsuspendedEvent represents the payload for accounts.user.unsuspended messages.
type UserUnsuspendedEvent struct {
	EventID       string
	UserID        string
	UnsuspendedAt time.Time
	Actor         string
	Metadata      map[string]any
}

// PasswordChangedEvent represents the payload for accounts.user.password.changed messages.
type PasswordChangedEvent struct {
	EventID         string
	UserID          string
	ChangedAt       time.Time
	SessionsRevoked int
	Metadata        map[string]any
}

// UserDeletedEvent represents the payload for accounts.user.deleted messages.
type UserDeletedEvent struct {
	EventID     string
	UserID      string
	InheritorID *string
	DeletedAt   time.Time
	Metadata    map[string]any
}
