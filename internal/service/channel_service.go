package service

import (
	"context"
	"errors"

	"vidtube/internal/apperr"
	"vidtube/internal/domain"
	"vidtube/internal/repository"
)

// ChannelService builds the read views that join users to subscriptions and videos.
type ChannelService interface {
	GetChannelProfile(ctx context.Context, viewer domain.Identity, username string) (*domain.ChannelProfile, error)
	GetWatchHistory(ctx context.Context, id domain.Identity) ([]domain.WatchedVideo, error)
}

type channelService struct {
	users repository.UserRepository
}

func NewChannelService(users repository.UserRepository) ChannelService {
	return &channelService{users: users}
}

func (s *channelService) GetChannelProfile(ctx context.Context, viewer domain.Identity, username string) (*domain.ChannelProfile, error) {
	username = domain.NormalizeUsername(username)
	if username == "" {
		return nil, apperr.BadRequest("username is required")
	}

	profile, err := s.users.ChannelProfile(ctx, username, viewer.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("channel not found")
		}
		return nil, apperr.Internal("failed to load channel profile", err)
	}
	return profile, nil
}

func (s *channelService) GetWatchHistory(ctx context.Context, id domain.Identity) ([]domain.WatchedVideo, error) {
	if id.IsZero() {
		return nil, apperr.Unauthorized("unauthorized request")
	}
	history, err := s.users.WatchHistory(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Internal("failed to load watch history", err)
	}
	return history, nil
}
