package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"vidtube/internal/apperr"
	"vidtube/internal/auth"
	"vidtube/internal/domain"
	"vidtube/internal/repository"
	"vidtube/internal/storage"
)

// RegisterInput carries the registration form. Paths point at uploaded files on local disk.
type RegisterInput struct {
	Fullname       string
	Email          string
	Username       string
	Password       string
	AvatarPath     string
	CoverImagePath string
}

// ProfileService describes account creation and profile mutation.
type ProfileService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	UpdateAccountDetails(ctx context.Context, id domain.Identity, fullname, email string) (*domain.User, error)
	UpdateAvatar(ctx context.Context, id domain.Identity, localPath string) (*domain.User, error)
	UpdateCoverImage(ctx context.Context, id domain.Identity, localPath string) (*domain.User, error)
}

type profileService struct {
	users repository.UserRepository
	media storage.Service
	log   logrus.FieldLogger
}

func NewProfileService(users repository.UserRepository, media storage.Service, log logrus.FieldLogger) ProfileService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &profileService{
		users: users,
		media: media,
		log:   log.WithField("component", "profile"),
	}
}

func (s *profileService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	fullname := strings.TrimSpace(in.Fullname)
	email := domain.NormalizeEmail(in.Email)
	username := domain.NormalizeUsername(in.Username)
	if fullname == "" || email == "" || username == "" || strings.TrimSpace(in.Password) == "" {
		return nil, apperr.BadRequest("all fields are required")
	}

	if _, err := s.users.FindByIdentity(ctx, username, email); err == nil {
		return nil, apperr.Conflict("user with given username or email already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Internal("failed to check existing users", err)
	}

	if strings.TrimSpace(in.AvatarPath) == "" {
		return nil, apperr.BadRequest("avatar file is missing")
	}

	var undo compensations
	defer func() { undo.run(ctx, s.log) }()

	avatar, err := s.media.Upload(ctx, in.AvatarPath)
	if err != nil {
		s.log.WithError(err).Error("avatar upload failed")
		return nil, apperr.Internal("failed to upload avatar", err)
	}
	undo.add("avatar", avatar.Handle, s.media)

	var coverURL string
	if strings.TrimSpace(in.CoverImagePath) != "" {
		cover, err := s.media.Upload(ctx, in.CoverImagePath)
		if err != nil {
			s.log.WithError(err).Error("cover image upload failed")
			return nil, apperr.Internal("failed to upload cover image", err)
		}
		undo.add("cover image", cover.Handle, s.media)
		coverURL = cover.URL
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internal("something went wrong while registering user", err)
	}

	user := &domain.User{
		ID:            uuid.NewString(),
		Username:      username,
		Email:         email,
		Fullname:      fullname,
		AvatarURL:     avatar.URL,
		CoverImageURL: coverURL,
		PasswordHash:  hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		s.log.WithError(err).Error("user creation failed")
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, apperr.Conflict("user with given username or email already exists")
		}
		return nil, apperr.Internal("something went wrong while registering user and images were deleted", err)
	}

	created, err := s.users.GetByID(ctx, user.ID)
	if err != nil {
		s.log.WithError(err).Error("reading back created user failed")
		return nil, apperr.Internal("something went wrong while registering user and images were deleted", err)
	}

	undo.commit()
	s.log.WithField("user_id", created.ID).Info("user registered")
	return created.Sanitized(), nil
}

func (s *profileService) UpdateAccountDetails(ctx context.Context, id domain.Identity, fullname, email string) (*domain.User, error) {
	fullname = strings.TrimSpace(fullname)
	email = domain.NormalizeEmail(email)
	if fullname == "" || email == "" {
		return nil, apperr.BadRequest("fullname and email are required")
	}
	return s.update(ctx, id, repository.UserUpdate{Fullname: &fullname, Email: &email})
}

func (s *profileService) UpdateAvatar(ctx context.Context, id domain.Identity, localPath string) (*domain.User, error) {
	url, err := s.uploadImage(ctx, localPath)
	if err != nil {
		return nil, err
	}
	// TODO: delete the previous avatar once handles are stored alongside URLs.
	return s.update(ctx, id, repository.UserUpdate{AvatarURL: &url})
}

func (s *profileService) UpdateCoverImage(ctx context.Context, id domain.Identity, localPath string) (*domain.User, error) {
	url, err := s.uploadImage(ctx, localPath)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, id, repository.UserUpdate{CoverImageURL: &url})
}

func (s *profileService) uploadImage(ctx context.Context, localPath string) (string, error) {
	if strings.TrimSpace(localPath) == "" {
		return "", apperr.BadRequest("file is required")
	}
	res, err := s.media.Upload(ctx, localPath)
	if err != nil {
		s.log.WithError(err).Error("image upload failed")
		return "", apperr.Internal("failed to upload file", err)
	}
	if res == nil || res.URL == "" {
		return "", apperr.BadRequest("no url is found")
	}
	return res.URL, nil
}

func (s *profileService) update(ctx context.Context, id domain.Identity, update repository.UserUpdate) (*domain.User, error) {
	if id.IsZero() {
		return nil, apperr.Unauthorized("unauthorized request")
	}
	user, err := s.users.UpdateFields(ctx, id.UserID, update, false)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperr.NotFound("user not found")
		case errors.Is(err, repository.ErrAlreadyExists):
			return nil, apperr.Conflict("email is already in use")
		default:
			return nil, apperr.Internal("failed to update user", err)
		}
	}
	return user.Sanitized(), nil
}
