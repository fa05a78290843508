package usecase

import (
	"context"
	"time"

	"github.com/arklim/content-platform-accounts/internal/core/domain"
	"github.com/arklim/content-platform-accounts/internal/core/port"
	"github.com/arklim/content-platform-accounts/internal/infra/config"
	"github.com/arklim/content-platform-accounts/internal/repository"
)

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		App: config.AppSettings{
			Name: "accounts-service-test",
			Env:  "test",
			Live: true,
		},
		Security: config.SecuritySettings{
			CooldownDuration:         5 * time.Minute,
			MaxInvalidLogins:         5,
			InvalidLoginWindow:       time.Hour,
			PreventUserEnumeration:   false,
			RequireMatchingUserAgent: true,
			VerificationCodeDuration: 24 * time.Hour,
		},
	}
}

func fixedClock(at time.Time) port.Clock {
	return port.ClockFunc(func() time.Time { return at })
}

type passwordChange struct {
	id   string
	hash string
	at   time.Time
}

type verificationCode struct {
	id       string
	codeHash string
	issuedAt time.Time
}

type stubUserRepo struct {
	users map[string]*domain.User

	invalidOutcome *domain.InvalidLoginOutcome
	invalidErr     error
	invalidCalls   int

	created         []domain.User
	updatedProfiles []domain.User
	resetCalls      []string
	loginCalls      []string
	unlockCalls     []string
	suspendCalls    []string
	unsuspendCalls  []string
	passwordCalls   []passwordChange
	codeCalls       []verificationCode
	activateCalls   []string
}

func newStubUserRepo(users ...*domain.User) *stubUserRepo {
	repo := &stubUserRepo{users: make(map[string]*domain.User)}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (r *stubUserRepo) Create(_ context.Context, user domain.User) error {
	r.created = append(r.created, user)
	r.users[user.ID] = &user
	return nil
}

func (r *stubUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *stubUserRepo) GetByIdentifier(_ context.Context, identifier string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Archived {
			continue
		}
		if user.Username == identifier || user.Email == identifier {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubUserRepo) UpdateProfile(_ context.Context, user domain.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	r.updatedProfiles = append(r.updatedProfiles, user)
	return nil
}

func (r *stubUserRepo) RecordInvalidLogin(_ context.Context, id string, at time.Time, _ time.Duration, _ int) (*domain.InvalidLoginOutcome, error) {
	r.invalidCalls++
	if r.invalidErr != nil {
		return nil, r.invalidErr
	}
	if r.invalidOutcome != nil {
		return r.invalidOutcome, nil
	}
	return &domain.InvalidLoginOutcome{Count: 1, WindowStart: at}, nil
}

func (r *stubUserRepo) ResetInvalidLogins(_ context.Context, id string) error {
	r.resetCalls = append(r.resetCalls, id)
	return nil
}

func (r *stubUserRepo) RecordLogin(_ context.Context, id string, _ time.Time) error {
	r.loginCalls = append(r.loginCalls, id)
	return nil
}

func (r *stubUserRepo) Unlock(_ context.Context, id string) error {
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	r.unlockCalls = append(r.unlockCalls, id)
	user := r.users[id]
	user.Locked = false
	user.LockoutAt = nil
	user.InvalidLoginCount = 0
	user.InvalidLoginWindowStart = nil
	return nil
}

func (r *stubUserRepo) Suspend(_ context.Context, id string) error {
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	r.suspendCalls = append(r.suspendCalls, id)
	r.users[id].Suspended = true
	return nil
}

func (r *stubUserRepo) Unsuspend(_ context.Context, id string) error {
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	r.unsuspendCalls = append(r.unsuspendCalls, id)
	r.users[id].Suspended = false
	return nil
}

func (r *stubUserRepo) UpdatePassword(_ context.Context, id string, passwordHash string, changedAt time.Time) error {
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	r.passwordCalls = append(r.passwordCalls, passwordChange{id: id, hash: passwordHash, at: changedAt})
	return nil
}

func (r *stubUserRepo) SetVerificationCode(_ context.Context, id string, codeHash string, issuedAt time.Time) error {
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	r.codeCalls = append(r.codeCalls, verificationCode{id: id, codeHash: codeHash, issuedAt: issuedAt})
	return nil
}

func (r *stubUserRepo) Activate(_ context.Context, id string) error {
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	r.activateCalls = append(r.activateCalls, id)
	user := r.users[id]
	user.Pending = false
	user.VerificationCodeHash = nil
	user.VerificationCodeIssuedAt = nil
	return nil
}

var _ port.UserRepository = (*stubUserRepo)(nil)

type sessionDeleteAll struct {
	userID      string
	exceptToken string
}

type stubSessionRepo struct {
	created        []domain.Session
	sessions       map[string]*domain.Session // keyed by token
	findCalls      int
	touched        []string
	deletedTokens  []string
	deleteAllCalls []sessionDeleteAll
	deleteAllCount int
}

func newStubSessionRepo() *stubSessionRepo {
	return &stubSessionRepo{sessions: make(map[string]*domain.Session)}
}

func (r *stubSessionRepo) Create(_ context.Context, session domain.Session) error {
	r.created = append(r.created, session)
	r.sessions[session.Token] = &session
	return nil
}

func (r *stubSessionRepo) FindByToken(_ context.Context, token, userID string) (*domain.Session, error) {
	r.findCalls++
	session, ok := r.sessions[token]
	if !ok || session.UserID != userID {
		return nil, repository.ErrNotFound
	}
	copied := *session
	return &copied, nil
}

func (r *stubSessionRepo) Touch(_ context.Context, sessionID string, _ time.Time) error {
	r.touched = append(r.touched, sessionID)
	return nil
}

func (r *stubSessionRepo) DeleteByToken(_ context.Context, token, userID string) error {
	session, ok := r.sessions[token]
	if !ok || session.UserID != userID {
		return repository.ErrNotFound
	}
	delete(r.sessions, token)
	r.deletedTokens = append(r.deletedTokens, token)
	return nil
}

func (r *stubSessionRepo) DeleteAllForUser(_ context.Context, userID string, exceptToken string) (int, error) {
	r.deleteAllCalls = append(r.deleteAllCalls, sessionDeleteAll{userID: userID, exceptToken: exceptToken})
	if r.deleteAllCount > 0 {
		return r.deleteAllCount, nil
	}
	count := 0
	for token, session := range r.sessions {
		if session.UserID == userID && token != exceptToken {
			delete(r.sessions, token)
			count++
		}
	}
	return count, nil
}

var _ port.SessionRepository = (*stubSessionRepo)(nil)

type stubEventPublisher struct {
	invalidLogins   []domain.InvalidLoginEvent
	locks           []domain.UserLockedEvent
	unlocks         []domain.UserUnlockedEvent
	suspensions     []domain.UserSuspendedEvent
	unsuspensions   []domain.UserUnsuspendedEvent
	passwordChanges []domain.PasswordChangedEvent
	deletions       []domain.UserDeletedEvent
}

func (p *stubEventPublisher) PublishInvalidLogin(_ context.Context, event domain.InvalidLoginEvent) error {
	p.invalidLogins = append(p.invalidLogins, event)
	return nil
}

func (p *stubEventPublisher) PublishUserLocked(_ context.Context, event domain.UserLockedEvent) error {
	p.locks = append(p.locks, event)
	return nil
}

func (p *stubEventPublisher) PublishUserUnlocked(_ context.Context, event domain.UserUnlockedEvent) error {
	p.unlocks = append(p.unlocks, event)
	return nil
}

func (p *stubEventPublisher) PublishUserSuspended(_ context.Context, event domain.UserSuspendedEvent) error {
	p.suspensions = append(p.suspensions, event)
	return nil
}

func (p *stubEventPublisher) PublishUserUnsuspended(_ context.Context, event domain.UserUnsuspendedEvent) error {
	p.unsuspensions = append(p.unsuspensions, event)
	return nil
}

func (p *stubEventPublisher) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	p.passwordChanges = append(p.passwordChanges, event)
	return nil
}

func (p *stubEventPublisher) PublishUserDeleted(_ context.Context, event domain.UserDeletedEvent) error {
	p.deletions = append(p.deletions, event)
	return nil
}

var _ port.EventPublisher = (*stubEventPublisher)(nil)

type inheritorCall struct {
	userID      string
	inheritorID string
}

type stubContentRepo struct {
	entries        []domain.Entry
	inheritorCalls []inheritorCall
	cascadeCalls   []string
	err            error
}

func (r *stubContentRepo) DeleteUserWithInheritor(_ context.Context, userID, inheritorID string) error {
	if r.err != nil {
		return r.err
	}
	r.inheritorCalls = append(r.inheritorCalls, inheritorCall{userID: userID, inheritorID: inheritorID})
	return nil
}

func (r *stubContentRepo) DeleteUserCascading(ctx context.Context, userID string, onEntry port.EntryDeleteHook) error {
	if r.err != nil {
		return r.err
	}
	r.cascadeCalls = append(r.cascadeCalls, userID)
	for _, entry := range r.entries {
		if entry.AuthorID != userID {
			continue
		}
		if onEntry != nil {
			if err := onEntry(ctx, entry); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *stubContentRepo) ListEntriesByAuthor(_ context.Context, authorID string) ([]domain.Entry, error) {
	var owned []domain.Entry
	for _, entry := range r.entries {
		if entry.AuthorID == authorID {
			owned = append(owned, entry)
		}
	}
	return owned, nil
}

var _ port.ContentRepository = (*stubContentRepo)(nil)

type stubContentCache struct {
	invalidations int
	err           error
}

func (c *stubContentCache) InvalidateEntryCaches(_ context.Context) error {
	if c.err != nil {
		return c.err
	}
	c.invalidations++
	return nil
}

var _ port.ContentCache = (*stubContentCache)(nil)
