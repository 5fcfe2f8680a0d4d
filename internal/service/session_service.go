package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"vidtube/internal/apperr"
	"vidtube/internal/auth"
	"vidtube/internal/domain"
	"vidtube/internal/repository"
)

// LoginInput identifies the account by username or email.
type LoginInput struct {
	Username string
	Email    string
	Password string
}

// LoginResult is returned on successful login. User is sanitized.
type LoginResult struct {
	User         *domain.User `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

// SessionService issues, rotates and revokes session tokens.
type SessionService interface {
	Login(ctx context.Context, in LoginInput) (*LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error)
	Logout(ctx context.Context, id domain.Identity) error
	ChangePassword(ctx context.Context, id domain.Identity, oldPassword, newPassword string) error
	CurrentUser(ctx context.Context, id domain.Identity) (*domain.User, error)
	// Authenticate resolves an access token to the identity of an existing user.
	Authenticate(ctx context.Context, accessToken string) (domain.Identity, error)
}

type sessionService struct {
	users  repository.UserRepository
	tokens auth.TokenIssuer
	log    logrus.FieldLogger
}

func NewSessionService(users repository.UserRepository, tokens auth.TokenIssuer, log logrus.FieldLogger) SessionService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &sessionService{
		users:  users,
		tokens: tokens,
		log:    log.WithField("component", "session"),
	}
}

func (s *sessionService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	username := domain.NormalizeUsername(in.Username)
	email := domain.NormalizeEmail(in.Email)
	if username == "" && email == "" {
		return nil, apperr.BadRequest("username or email is required")
	}
	if in.Password == "" {
		return nil, apperr.BadRequest("password is required")
	}

	user, err := s.users.FindByIdentity(ctx, username, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Internal("failed to look up user", err)
	}

	ok, err := auth.CheckPassword(user.PasswordHash, in.Password)
	if err != nil {
		return nil, apperr.Internal("failed to verify credentials", err)
	}
	if !ok {
		return nil, apperr.Unauthorized("invalid credentials")
	}

	pair, updated, err := s.issuePair(ctx, user)
	if err != nil {
		return nil, err
	}

	s.log.WithField("user_id", user.ID).Info("user logged in")
	return &LoginResult{
		User:         updated.Sanitized(),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

func (s *sessionService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, apperr.Unauthorized("refresh token is required")
	}

	userID, err := s.tokens.Verify(refreshToken, auth.RefreshToken)
	if err != nil {
		return nil, apperr.Unauthorized("invalid refresh token")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Unauthorized("invalid refresh token")
		}
		return nil, apperr.Internal("failed to look up user", err)
	}

	// A signed token that is not the stored one was rotated away or revoked.
	if user.RefreshToken == "" || subtle.ConstantTimeCompare([]byte(user.RefreshToken), []byte(refreshToken)) != 1 {
		s.log.WithField("user_id", user.ID).Warn("refresh token reuse rejected")
		return nil, apperr.Unauthorized("refresh token is expired or used")
	}

	pair, _, err := s.issuePair(ctx, user)
	if err != nil {
		return nil, err
	}
	return pair, nil
}

func (s *sessionService) Logout(ctx context.Context, id domain.Identity) error {
	if id.IsZero() {
		return apperr.Unauthorized("unauthorized request")
	}
	_, err := s.users.UpdateFields(ctx, id.UserID, repository.UserUpdate{RefreshToken: repository.StringPtr("")}, false)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("user not found")
		}
		return apperr.Internal("failed to log out", err)
	}
	s.log.WithField("user_id", id.UserID).Info("user logged out")
	return nil
}

func (s *sessionService) ChangePassword(ctx context.Context, id domain.Identity, oldPassword, newPassword string) error {
	if oldPassword == "" || strings.TrimSpace(newPassword) == "" {
		return apperr.BadRequest("old and new password are required")
	}

	user, err := s.loadUser(ctx, id)
	if err != nil {
		return err
	}

	ok, err := auth.CheckPassword(user.PasswordHash, oldPassword)
	if err != nil {
		return apperr.Internal("failed to verify credentials", err)
	}
	if !ok {
		return apperr.Unauthorized("invalid old password")
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return apperr.Internal("failed to update password", err)
	}
	if _, err := s.users.UpdateFields(ctx, user.ID, repository.UserUpdate{PasswordHash: &hash}, true); err != nil {
		return apperr.Internal("failed to update password", err)
	}
	return nil
}

func (s *sessionService) CurrentUser(ctx context.Context, id domain.Identity) (*domain.User, error) {
	user, err := s.loadUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.Sanitized(), nil
}

func (s *sessionService) Authenticate(ctx context.Context, accessToken string) (domain.Identity, error) {
	userID, err := s.tokens.Verify(accessToken, auth.AccessToken)
	if err != nil {
		return domain.Identity{}, apperr.Unauthorized("invalid access token")
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Identity{}, apperr.Unauthorized("invalid access token")
		}
		return domain.Identity{}, apperr.Internal("failed to look up user", err)
	}
	return domain.Identity{UserID: user.ID, Username: user.Username}, nil
}

// issuePair mints a new token pair and stores the refresh half on the user,
// skipping full-record validation.
func (s *sessionService) issuePair(ctx context.Context, user *domain.User) (*domain.TokenPair, *domain.User, error) {
	access, err := s.tokens.IssueAccess(user)
	if err != nil {
		return nil, nil, apperr.Internal("something went wrong while generating access and refresh tokens", err)
	}
	refresh, err := s.tokens.IssueRefresh(user.ID)
	if err != nil {
		return nil, nil, apperr.Internal("something went wrong while generating access and refresh tokens", err)
	}

	updated, err := s.users.UpdateFields(ctx, user.ID, repository.UserUpdate{RefreshToken: &refresh}, false)
	if err != nil {
		return nil, nil, apperr.Internal("something went wrong while generating access and refresh tokens", err)
	}
	return &domain.TokenPair{AccessToken: access, RefreshToken: refresh}, updated, nil
}

func (s *sessionService) loadUser(ctx context.Context, id domain.Identity) (*domain.User, error) {
	if id.IsZero() {
		return nil, apperr.Unauthorized("unauthorized request")
	}
	user, err := s.users.GetByID(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Internal("failed to look up user", err)
	}
	return user, nil
}
