package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/prperemyshlev/mbti-quiz/internal/domain"
	"github.com/prperemyshlev/mbti-quiz/internal/repository"
)

// memoryStore implements the user, credential and social account repositories.
type memoryStore struct {
	mu          sync.Mutex
	users       map[string]*domain.User
	credentials map[string]string
	social      map[string]*domain.SocialAccount

	getByIDCalls  atomic.Int32
	getByIDGate   chan struct{}
	writes        atomic.Int32
	createUserErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		users:       map[string]*domain.User{},
		credentials: map[string]string{},
		social:      map[string]*domain.SocialAccount{},
	}
}

func socialKey(provider, providerID string) string {
	return provider + "/" + providerID
}

func copyUser(u *domain.User) *domain.User {
	c := *u
	return &c
}

func (m *memoryStore) insertUser(user *domain.User) error {
	if m.createUserErr != nil {
		return m.createUserErr
	}
	if user.Email != nil {
		for _, u := range m.users {
			if u.Email != nil && *u.Email == *user.Email {
				return fmt.Errorf("create user: %w", repository.ErrDuplicateEmail)
			}
		}
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now
	m.users[user.ID] = copyUser(user)
	return nil
}

func (m *memoryStore) CreateWithCredential(_ context.Context, user *domain.User, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes.Add(1)

	if err := m.insertUser(user); err != nil {
		return err
	}
	m.credentials[user.ID] = passwordHash
	return nil
}

func (m *memoryStore) CreateWithSocialAccount(_ context.Context, user *domain.User, account *domain.SocialAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes.Add(1)

	if _, ok := m.social[socialKey(account.Provider, account.ProviderID)]; ok {
		return fmt.Errorf("create social: %w", repository.ErrDuplicateSocialAccount)
	}
	if err := m.insertUser(user); err != nil {
		return err
	}
	account.ID = uuid.New().String()
	account.UserID = user.ID
	c := *account
	m.social[socialKey(account.Provider, account.ProviderID)] = &c
	return nil
}

func (m *memoryStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email != nil && *u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", email, repository.ErrNotFound)
}

func (m *memoryStore) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.getByIDCalls.Add(1)
	if m.getByIDGate != nil {
		<-m.getByIDGate
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, repository.ErrNotFound)
	}
	return copyUser(u), nil
}

func (m *memoryStore) UpdateProfileImage(_ context.Context, userID string, profileImage *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes.Add(1)

	u, ok := m.users[userID]
	if !ok {
		return fmt.Errorf("user %s: %w", userID, repository.ErrNotFound)
	}
	u.ProfileImage = profileImage
	return nil
}

func (m *memoryStore) GetByUserID(_ context.Context, userID string) (*domain.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	hash, ok := m.credentials[userID]
	if !ok {
		return nil, fmt.Errorf("credential %s: %w", userID, repository.ErrNotFound)
	}
	return &domain.Credential{UserID: userID, PasswordHash: hash}, nil
}

func (m *memoryStore) GetByProvider(_ context.Context, provider, providerID string) (*domain.SocialAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.social[socialKey(provider, providerID)]
	if !ok {
		return nil, fmt.Errorf("social %s/%s: %w", provider, providerID, repository.ErrNotFound)
	}
	c := *a
	return &c, nil
}

func (m *memoryStore) deleteUser(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
	delete(m.credentials, id)
}

func (m *memoryStore) userCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

// fakeProvider is an oauth.Provider returning a canned profile.
type fakeProvider struct {
	profile *domain.SocialProfile
	err     error
	calls   atomic.Int32
}

func (p *fakeProvider) Name() string { return "kakao" }

func (p *fakeProvider) AuthCodeURL(state string) string {
	return "https://kauth.example/oauth/authorize?state=" + state
}

func (p *fakeProvider) Authenticate(_ context.Context, _ string) (*domain.SocialProfile, error) {
	p.calls.Add(1)
	if p.err != nil {
		return nil, p.err
	}
	c := *p.profile
	return &c, nil
}
