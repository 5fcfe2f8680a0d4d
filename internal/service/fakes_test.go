package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"vidtube/internal/domain"
	"vidtube/internal/repository"
	"vidtube/internal/storage"
)

// memoryUsers is an in-memory UserRepository. The *Fn hooks override single calls.
type memoryUsers struct {
	mu    sync.Mutex
	users map[string]*domain.User

	createFn  func(ctx context.Context, user *domain.User) error
	getByIDFn func(ctx context.Context, id string) (*domain.User, error)

	channelProfileFn func(ctx context.Context, username, viewerID string) (*domain.ChannelProfile, error)
	watchHistoryFn   func(ctx context.Context, userID string) ([]domain.WatchedVideo, error)

	updates []updateCall
}

type updateCall struct {
	id         string
	update     repository.UserUpdate
	revalidate bool
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{users: map[string]*domain.User{}}
}

func (m *memoryUsers) Init(context.Context) error { return nil }

func (m *memoryUsers) Create(ctx context.Context, user *domain.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := user.Validate(); err != nil {
		return fmt.Errorf("%w: %v", repository.ErrValidation, err)
	}
	for _, u := range m.users {
		if u.Username == user.Username || u.Email == user.Email {
			return repository.ErrAlreadyExists
		}
	}
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	clone := *user
	m.users[user.ID] = &clone
	return nil
}

func (m *memoryUsers) FindByIdentity(_ context.Context, username, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if (username != "" && u.Username == username) || (email != "" && u.Email == email) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memoryUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return m.get(id)
}

func (m *memoryUsers) get(id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (m *memoryUsers) UpdateFields(_ context.Context, id string, update repository.UserUpdate, revalidate bool) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates = append(m.updates, updateCall{id: id, update: update, revalidate: revalidate})

	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	next := *u
	if update.Fullname != nil {
		next.Fullname = *update.Fullname
	}
	if update.Email != nil {
		for otherID, other := range m.users {
			if otherID != id && other.Email == *update.Email {
				return nil, repository.ErrAlreadyExists
			}
		}
		next.Email = *update.Email
	}
	if update.AvatarURL != nil {
		next.AvatarURL = *update.AvatarURL
	}
	if update.CoverImageURL != nil {
		next.CoverImageURL = *update.CoverImageURL
	}
	if update.PasswordHash != nil {
		next.PasswordHash = *update.PasswordHash
	}
	if update.RefreshToken != nil {
		next.RefreshToken = *update.RefreshToken
	}
	if revalidate {
		if err := next.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", repository.ErrValidation, err)
		}
	}
	next.UpdatedAt = time.Now().UTC()
	m.users[id] = &next
	clone := next
	return &clone, nil
}

func (m *memoryUsers) ChannelProfile(ctx context.Context, username, viewerID string) (*domain.ChannelProfile, error) {
	if m.channelProfileFn != nil {
		return m.channelProfileFn(ctx, username, viewerID)
	}
	return nil, repository.ErrNotFound
}

func (m *memoryUsers) WatchHistory(ctx context.Context, userID string) ([]domain.WatchedVideo, error) {
	if m.watchHistoryFn != nil {
		return m.watchHistoryFn(ctx, userID)
	}
	if _, err := m.get(userID); err != nil {
		return nil, err
	}
	return []domain.WatchedVideo{}, nil
}

func (m *memoryUsers) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

// fakeMedia records uploads and deletes; failOn makes Upload fail for the given path.
type fakeMedia struct {
	mu        sync.Mutex
	failOn    map[string]error
	noURL     bool
	deleteErr error
	uploaded  []string
	deleted   []string
}

func (f *fakeMedia) Upload(_ context.Context, localPath string) (*storage.UploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failOn[localPath]; ok {
		return nil, fmt.Errorf("%w: %v", storage.ErrUpload, err)
	}
	f.uploaded = append(f.uploaded, localPath)
	handle := fmt.Sprintf("media/%d", len(f.uploaded))
	if f.noURL {
		return &storage.UploadResult{Handle: handle}, nil
	}
	return &storage.UploadResult{URL: "https://cdn.example.com/" + handle, Handle: handle}, nil
}

func (f *fakeMedia) Delete(_ context.Context, handle string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, handle)
	return f.deleteErr
}

var errBoom = errors.New("boom")

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
