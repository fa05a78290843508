package domain

import "time"

// Entry is an authored piece of content owned by a user. Only the fields the
// ownership and deletion flows need are modeled here.
type Entry struct {
	ID        string
	AuthorID  string
	Title     string
	CreatedAt time.Time
}

// Draft is an unpublished working copy of an entry.
type Draft struct {
	ID        string
	EntryID   string
	CreatorID string
}

// Revision is a historical snapshot of an entry.
type Revision struct {
	ID        string
	EntryID   string
	CreatorID string
}
