package domain

import (
	"errors"
	"strings"
	"time"
)

// User represents a registered account. PasswordHash and RefreshToken never leave the service layer.
type User struct {
	ID            string    `json:"_id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	Fullname      string    `json:"fullname"`
	AvatarURL     string    `json:"avatar"`
	CoverImageURL string    `json:"coverImage"`
	WatchHistory  []string  `json:"watchHistory"`
	PasswordHash  string    `json:"-"`
	RefreshToken  string    `json:"-"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Validate checks the fields every persisted user must carry.
func (u *User) Validate() error {
	var missing []string
	if strings.TrimSpace(u.Username) == "" {
		missing = append(missing, "username")
	}
	if strings.TrimSpace(u.Email) == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(u.Fullname) == "" {
		missing = append(missing, "fullname")
	}
	if strings.TrimSpace(u.AvatarURL) == "" {
		missing = append(missing, "avatar")
	}
	if u.PasswordHash == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return errors.New("missing required fields: " + strings.Join(missing, ", "))
	}
	return nil
}

// Sanitized returns a copy of the user without secret fields.
func (u *User) Sanitized() *User {
	if u == nil {
		return nil
	}
	clone := *u
	clone.PasswordHash = ""
	clone.RefreshToken = ""
	if u.WatchHistory != nil {
		clone.WatchHistory = append([]string(nil), u.WatchHistory...)
	} else {
		clone.WatchHistory = []string{}
	}
	return &clone
}

// NormalizeUsername applies the case folding used for storage and lookups.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// NormalizeEmail folds case so addresses differing only in case collide.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Identity is the verified caller produced by the authentication middleware.
type Identity struct {
	UserID   string
	Username string
}

// IsZero reports whether no caller was authenticated.
func (i Identity) IsZero() bool {
	return i.UserID == ""
}

// TokenPair is the access/refresh credential pair issued on login and refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
