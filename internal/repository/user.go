package repository

import (
	"context"
	"errors"

	"vidtube/internal/domain"
)

var (
	// ErrNotFound is returned when no row matches the lookup.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a unique username or email is taken.
	ErrAlreadyExists = errors.New("already exists")
	// ErrValidation is returned when a revalidated write would leave the user incomplete.
	ErrValidation = errors.New("validation failed")
)

// UserUpdate lists the fields to overwrite. Nil fields are left untouched;
// an empty RefreshToken clears the stored token.
type UserUpdate struct {
	Fullname      *string
	Email         *string
	AvatarURL     *string
	CoverImageURL *string
	PasswordHash  *string
	RefreshToken  *string
}

// UserRepository defines persistence and aggregation operations for User entities.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) error
	// FindByIdentity matches a user by username or email; blank values are ignored.
	FindByIdentity(ctx context.Context, username, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// UpdateFields applies update to the user. With revalidate set the resulting
	// record is validated as a whole before it is written.
	UpdateFields(ctx context.Context, id string, update UserUpdate, revalidate bool) (*domain.User, error)
	ChannelProfile(ctx context.Context, username, viewerID string) (*domain.ChannelProfile, error)
	WatchHistory(ctx context.Context, userID string) ([]domain.WatchedVideo, error)
}

// SubscriptionRepository maintains subscriber -> channel edges.
type SubscriptionRepository interface {
	Init(ctx context.Context) error
	Subscribe(ctx context.Context, subscriberID, channelID string) error
	Unsubscribe(ctx context.Context, subscriberID, channelID string) error
}

// VideoRepository maintains videos and the per-user watch history they appear in.
type VideoRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, video *domain.Video) error
	AppendWatchHistory(ctx context.Context, userID, videoID string) error
}

// StringPtr is a helper for building UserUpdate values.
func StringPtr(v string) *string {
	return &v
}
