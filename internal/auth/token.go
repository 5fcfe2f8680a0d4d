package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"vidtube/internal/domain"
)

// TokenKind selects the key and lifetime a token is issued or verified with.
type TokenKind int

const (
	AccessToken TokenKind = iota
	RefreshToken
)

func (k TokenKind) String() string {
	if k == RefreshToken {
		return "refresh"
	}
	return "access"
}

// ErrInvalidToken is returned for any token that fails signature, expiry or kind checks.
var ErrInvalidToken = errors.New("invalid token")

// AccessClaims are embedded in access tokens.
type AccessClaims struct {
	jwt.RegisteredClaims
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Fullname string `json:"fullname,omitempty"`
	Kind     string `json:"kind"`
}

// TokenIssuer mints and verifies signed, expiring tokens.
type TokenIssuer interface {
	IssueAccess(user *domain.User) (string, error)
	IssueRefresh(userID string) (string, error)
	Verify(token string, kind TokenKind) (string, error)
}

// TokenConfig carries the signing secrets and lifetimes.
type TokenConfig struct {
	AccessSecret  string
	AccessTTL     time.Duration
	RefreshSecret string
	RefreshTTL    time.Duration
	Issuer        string
}

type jwtIssuer struct {
	cfg TokenConfig
	now func() time.Time
}

func NewTokenIssuer(cfg TokenConfig) (TokenIssuer, error) {
	if strings.TrimSpace(cfg.AccessSecret) == "" || strings.TrimSpace(cfg.RefreshSecret) == "" {
		return nil, errors.New("access and refresh token secrets are required")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("token lifetimes must be positive")
	}
	return &jwtIssuer{cfg: cfg, now: time.Now}, nil
}

func (j *jwtIssuer) IssueAccess(user *domain.User) (string, error) {
	if user == nil || user.ID == "" {
		return "", errors.New("user id is required")
	}
	claims := AccessClaims{
		RegisteredClaims: j.registered(user.ID, j.cfg.AccessTTL),
		Username:         user.Username,
		Email:            user.Email,
		Fullname:         user.Fullname,
		Kind:             AccessToken.String(),
	}
	return j.sign(claims, j.cfg.AccessSecret)
}

func (j *jwtIssuer) IssueRefresh(userID string) (string, error) {
	if userID == "" {
		return "", errors.New("user id is required")
	}
	claims := AccessClaims{
		RegisteredClaims: j.registered(userID, j.cfg.RefreshTTL),
		Kind:             RefreshToken.String(),
	}
	return j.sign(claims, j.cfg.RefreshSecret)
}

// Verify validates raw against the key for kind and returns the subject user id.
func (j *jwtIssuer) Verify(raw string, kind TokenKind) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", ErrInvalidToken
	}
	secret := j.cfg.AccessSecret
	if kind == RefreshToken {
		secret = j.cfg.RefreshSecret
	}

	claims := &AccessClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	}, jwt.WithTimeFunc(j.now))
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.Kind != kind.String() || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

func (j *jwtIssuer) registered(subject string, ttl time.Duration) jwt.RegisteredClaims {
	now := j.now()
	return jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    j.cfg.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.NewString(),
	}
}

func (j *jwtIssuer) sign(claims AccessClaims, secret string) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", claims.Kind, err)
	}
	return signed, nil
}
