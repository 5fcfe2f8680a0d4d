package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidtube/internal/domain"
	"vidtube/internal/repository"
)

type testStore struct {
	db     *sql.DB
	users  repository.UserRepository
	subs   repository.SubscriptionRepository
	videos repository.VideoRepository
}

func newTestStore(t *testing.T) *testStore {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "vidtube.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s := &testStore{
		db:     db,
		users:  NewUserRepository(db),
		subs:   NewSubscriptionRepository(db),
		videos: NewVideoRepository(db),
	}
	require.NoError(t, InitAll(context.Background(), s.users, s.subs, s.videos))
	return s
}

func (s *testStore) createUser(t *testing.T, username string) *domain.User {
	t.Helper()
	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        username + "@example.com",
		Fullname:     "Full " + username,
		AvatarURL:    "https://cdn.example.com/" + username + ".png",
		PasswordHash: "hash",
	}
	require.NoError(t, s.users.Create(context.Background(), user))
	return user
}

func TestUserRepository_CreateAndFind(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice := s.createUser(t, "alice")

	byName, err := s.users.FindByIdentity(ctx, "alice", "")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byName.ID)
	assert.Empty(t, byName.RefreshToken)
	assert.Equal(t, []string{}, byName.WatchHistory)

	byEmail, err := s.users.FindByIdentity(ctx, "", "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byEmail.ID)

	either, err := s.users.FindByIdentity(ctx, "nobody", "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, either.ID)

	_, err = s.users.FindByIdentity(ctx, "nobody", "nobody@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = s.users.FindByIdentity(ctx, "", "")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = s.users.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserRepository_CreateRejectsDuplicates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	s.createUser(t, "alice")

	dupName := &domain.User{ID: uuid.NewString(), Username: "alice", Email: "other@example.com", Fullname: "A", AvatarURL: "u", PasswordHash: "h"}
	assert.ErrorIs(t, s.users.Create(ctx, dupName), repository.ErrAlreadyExists)

	dupEmail := &domain.User{ID: uuid.NewString(), Username: "other", Email: "alice@example.com", Fullname: "A", AvatarURL: "u", PasswordHash: "h"}
	assert.ErrorIs(t, s.users.Create(ctx, dupEmail), repository.ErrAlreadyExists)

	noAvatar := &domain.User{ID: uuid.NewString(), Username: "bob", Email: "bob@example.com", Fullname: "B", PasswordHash: "h"}
	assert.ErrorIs(t, s.users.Create(ctx, noAvatar), repository.ErrValidation)
}

func TestUserRepository_UpdateFields(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice := s.createUser(t, "alice")

	updated, err := s.users.UpdateFields(ctx, alice.ID, repository.UserUpdate{RefreshToken: repository.StringPtr("rt-1")}, false)
	require.NoError(t, err)
	assert.Equal(t, "rt-1", updated.RefreshToken)

	cleared, err := s.users.UpdateFields(ctx, alice.ID, repository.UserUpdate{RefreshToken: repository.StringPtr("")}, false)
	require.NoError(t, err)
	assert.Empty(t, cleared.RefreshToken)

	renamed, err := s.users.UpdateFields(ctx, alice.ID, repository.UserUpdate{
		Fullname: repository.StringPtr("Alice Liddell"),
		Email:    repository.StringPtr("liddell@example.com"),
	}, true)
	require.NoError(t, err)
	assert.Equal(t, "Alice Liddell", renamed.Fullname)
	assert.Equal(t, "liddell@example.com", renamed.Email)
	assert.Equal(t, "alice", renamed.Username)

	_, err = s.users.UpdateFields(ctx, alice.ID, repository.UserUpdate{AvatarURL: repository.StringPtr("")}, true)
	assert.ErrorIs(t, err, repository.ErrValidation)

	_, err = s.users.UpdateFields(ctx, "missing", repository.UserUpdate{RefreshToken: repository.StringPtr("x")}, false)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = s.users.UpdateFields(ctx, "missing", repository.UserUpdate{Fullname: repository.StringPtr("x")}, true)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	bob := s.createUser(t, "bob")
	_, err = s.users.UpdateFields(ctx, bob.ID, repository.UserUpdate{Email: repository.StringPtr("liddell@example.com")}, true)
	assert.ErrorIs(t, err, repository.ErrAlreadyExists)
}

func TestUserRepository_ChannelProfile(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	channel := s.createUser(t, "channel")
	viewer := s.createUser(t, "viewer")
	other1 := s.createUser(t, "other1")
	other2 := s.createUser(t, "other2")
	stranger := s.createUser(t, "stranger")

	for _, sub := range []*domain.User{viewer, other1, other2} {
		require.NoError(t, s.subs.Subscribe(ctx, sub.ID, channel.ID))
	}
	require.NoError(t, s.subs.Subscribe(ctx, viewer.ID, channel.ID))
	require.NoError(t, s.subs.Subscribe(ctx, channel.ID, other1.ID))

	profile, err := s.users.ChannelProfile(ctx, "channel", viewer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), profile.SubscribersCount)
	assert.Equal(t, int64(1), profile.ChannelsSubscribedToCount)
	assert.True(t, profile.IsSubscribed)
	assert.Equal(t, "channel@example.com", profile.Email)
	assert.Equal(t, channel.AvatarURL, profile.AvatarURL)

	profile, err = s.users.ChannelProfile(ctx, "channel", stranger.ID)
	require.NoError(t, err)
	assert.False(t, profile.IsSubscribed)

	profile, err = s.users.ChannelProfile(ctx, "channel", "")
	require.NoError(t, err)
	assert.False(t, profile.IsSubscribed)

	require.NoError(t, s.subs.Unsubscribe(ctx, viewer.ID, channel.ID))
	profile, err = s.users.ChannelProfile(ctx, "channel", viewer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), profile.SubscribersCount)
	assert.False(t, profile.IsSubscribed)

	lonely, err := s.users.ChannelProfile(ctx, "stranger", viewer.ID)
	require.NoError(t, err)
	assert.Zero(t, lonely.SubscribersCount)
	assert.Zero(t, lonely.ChannelsSubscribedToCount)

	_, err = s.users.ChannelProfile(ctx, "ghost", viewer.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserRepository_WatchHistoryOrderAndOwner(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	viewer := s.createUser(t, "viewer")
	creatorA := s.createUser(t, "creatora")
	creatorB := s.createUser(t, "creatorb")

	first := &domain.Video{VideoFile: "v1.mp4", Thumbnail: "t1.png", Title: "first", OwnerID: creatorB.ID, IsPublished: true}
	second := &domain.Video{VideoFile: "v2.mp4", Thumbnail: "t2.png", Title: "second", OwnerID: creatorA.ID, Duration: 12.5}
	require.NoError(t, s.videos.Create(ctx, first))
	require.NoError(t, s.videos.Create(ctx, second))

	require.NoError(t, s.videos.AppendWatchHistory(ctx, viewer.ID, second.ID))
	require.NoError(t, s.videos.AppendWatchHistory(ctx, viewer.ID, first.ID))

	history, err := s.users.WatchHistory(ctx, viewer.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, second.ID, history[0].ID)
	assert.Equal(t, first.ID, history[1].ID)
	require.NotNil(t, history[0].Owner)
	assert.Equal(t, "creatora", history[0].Owner.Username)
	assert.Equal(t, creatorA.AvatarURL, history[0].Owner.AvatarURL)
	assert.Equal(t, "creatorb", history[1].Owner.Username)
	assert.True(t, history[1].IsPublished)
	assert.False(t, history[0].IsPublished)
	assert.InDelta(t, 12.5, history[0].Duration, 0.001)

	user, err := s.users.GetByID(ctx, viewer.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{second.ID, first.ID}, user.WatchHistory)

	empty, err := s.users.WatchHistory(ctx, creatorA.ID)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = s.users.WatchHistory(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserRepository_EmailUniqueIgnoresCase(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	s.createUser(t, "alice")

	shouting := &domain.User{ID: uuid.NewString(), Username: "other", Email: "ALICE@Example.com", Fullname: "A", AvatarURL: "u", PasswordHash: "h"}
	assert.ErrorIs(t, s.users.Create(ctx, shouting), repository.ErrAlreadyExists)
}
