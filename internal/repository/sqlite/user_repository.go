package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"vidtube/internal/domain"
	"vidtube/internal/repository"
)

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	email TEXT NOT NULL UNIQUE COLLATE NOCASE,
	fullname TEXT NOT NULL,
	avatar_url TEXT NOT NULL,
	cover_image_url TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL,
	refresh_token TEXT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
`

const userColumns = `id, username, email, fullname, avatar_url, cover_image_url, password_hash, refresh_token, created_at, updated_at`

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createUsersTable); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	return nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("%w: %v", repository.ErrValidation, err)
	}

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
INSERT INTO users (id, username, email, fullname, avatar_url, cover_image_url, password_hash, refresh_token, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.Email,
		user.Fullname,
		user.AvatarURL,
		user.CoverImageURL,
		user.PasswordHash,
		nullable(user.RefreshToken),
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert user: %w", repository.ErrAlreadyExists)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) FindByIdentity(ctx context.Context, username, email string) (*domain.User, error) {
	var (
		conds []string
		args  []any
	)
	if username != "" {
		conds = append(conds, "username = ?")
		args = append(args, username)
	}
	if email != "" {
		conds = append(conds, "email = ?")
		args = append(args, email)
	}
	if len(conds) == 0 {
		return nil, repository.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+strings.Join(conds, " OR ")+` ORDER BY created_at ASC LIMIT 1`,
		args...,
	)
	user, err := scanUser(row)
	if err != nil {
		return nil, err
	}
	return r.withWatchHistory(ctx, user)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	user, err := scanUser(row)
	if err != nil {
		return nil, err
	}
	return r.withWatchHistory(ctx, user)
}

func (r *UserRepository) UpdateFields(ctx context.Context, id string, update repository.UserUpdate, revalidate bool) (*domain.User, error) {
	if revalidate {
		current, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		applyUpdate(current, update)
		if err := current.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", repository.ErrValidation, err)
		}
	}

	var (
		sets []string
		args []any
	)
	add := func(column string, value *string) {
		if value == nil {
			return
		}
		sets = append(sets, column+" = ?")
		args = append(args, *value)
	}
	add("fullname", update.Fullname)
	add("email", update.Email)
	add("avatar_url", update.AvatarURL)
	add("cover_image_url", update.CoverImageURL)
	add("password_hash", update.PasswordHash)
	if update.RefreshToken != nil {
		sets = append(sets, "refresh_token = ?")
		args = append(args, nullable(*update.RefreshToken))
	}
	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC(), id)

	res, err := r.db.ExecContext(ctx, `UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("update user: %w", repository.ErrAlreadyExists)
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update user rows affected: %w", err)
	}
	if affected == 0 {
		return nil, repository.ErrNotFound
	}

	return r.GetByID(ctx, id)
}

// ChannelProfile counts subscription edges on both sides of the channel and
// checks whether viewerID subscribes to it, in one statement.
func (r *UserRepository) ChannelProfile(ctx context.Context, username, viewerID string) (*domain.ChannelProfile, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT
	u.fullname,
	u.username,
	u.avatar_url,
	u.cover_image_url,
	u.email,
	COUNT(DISTINCT subscribers.subscriber_id) AS subscribers_count,
	COUNT(DISTINCT subscribed.channel_id) AS channels_subscribed_to_count,
	EXISTS (
		SELECT 1 FROM subscriptions s
		WHERE s.channel_id = u.id AND s.subscriber_id = ?
	) AS is_subscribed
FROM users u
LEFT JOIN subscriptions subscribers ON subscribers.channel_id = u.id
LEFT JOIN subscriptions subscribed ON subscribed.subscriber_id = u.id
WHERE u.username = ?
GROUP BY u.id`,
		viewerID,
		username,
	)

	var (
		profile      domain.ChannelProfile
		isSubscribed int64
	)
	if err := row.Scan(
		&profile.Fullname,
		&profile.Username,
		&profile.AvatarURL,
		&profile.CoverImageURL,
		&profile.Email,
		&profile.SubscribersCount,
		&profile.ChannelsSubscribedToCount,
		&isSubscribed,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan channel profile: %w", err)
	}
	profile.IsSubscribed = isSubscribed != 0
	return &profile, nil
}

// WatchHistory resolves the user's history to videos in stored order, each
// joined to a single owner projection.
func (r *UserRepository) WatchHistory(ctx context.Context, userID string) ([]domain.WatchedVideo, error) {
	var exists int
	if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = ?`, userID).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT
	v.id, v.video_file, v.thumbnail, v.title, v.description, v.duration, v.views, v.is_published, v.owner_id, v.created_at,
	o.fullname, o.username, o.avatar_url
FROM watch_history wh
JOIN videos v ON v.id = wh.video_id
LEFT JOIN users o ON o.id = v.owner_id
WHERE wh.user_id = ?
ORDER BY wh.id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query watch history: %w", err)
	}
	defer rows.Close()

	history := []domain.WatchedVideo{}
	for rows.Next() {
		var (
			item                              domain.WatchedVideo
			published                         int64
			ownerName, ownerUser, ownerAvatar sql.NullString
		)
		if err := rows.Scan(
			&item.ID,
			&item.VideoFile,
			&item.Thumbnail,
			&item.Title,
			&item.Description,
			&item.Duration,
			&item.Views,
			&published,
			&item.OwnerID,
			&item.CreatedAt,
			&ownerName,
			&ownerUser,
			&ownerAvatar,
		); err != nil {
			return nil, fmt.Errorf("scan watch history: %w", err)
		}
		item.IsPublished = published != 0
		if ownerUser.Valid {
			item.Owner = &domain.VideoOwner{
				Fullname:  ownerName.String,
				Username:  ownerUser.String,
				AvatarURL: ownerAvatar.String,
			}
		}
		history = append(history, item)
	}

	return history, rows.Err()
}

func (r *UserRepository) withWatchHistory(ctx context.Context, user *domain.User) (*domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT video_id FROM watch_history WHERE user_id = ? ORDER BY id ASC`, user.ID)
	if err != nil {
		return nil, fmt.Errorf("query watch history ids: %w", err)
	}
	defer rows.Close()

	user.WatchHistory = []string{}
	for rows.Next() {
		var videoID string
		if err := rows.Scan(&videoID); err != nil {
			return nil, fmt.Errorf("scan watch history id: %w", err)
		}
		user.WatchHistory = append(user.WatchHistory, videoID)
	}
	return user, rows.Err()
}

func applyUpdate(user *domain.User, update repository.UserUpdate) {
	if update.Fullname != nil {
		user.Fullname = *update.Fullname
	}
	if update.Email != nil {
		user.Email = *update.Email
	}
	if update.AvatarURL != nil {
		user.AvatarURL = *update.AvatarURL
	}
	if update.CoverImageURL != nil {
		user.CoverImageURL = *update.CoverImageURL
	}
	if update.PasswordHash != nil {
		user.PasswordHash = *update.PasswordHash
	}
	if update.RefreshToken != nil {
		user.RefreshToken = *update.RefreshToken
	}
}

func nullable(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func scanUser(row interface {
	Scan(dest ...any) error
}) (*domain.User, error) {
	var (
		user         domain.User
		refreshToken sql.NullString
	)
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.Fullname,
		&user.AvatarURL,
		&user.CoverImageURL,
		&user.PasswordHash,
		&refreshToken,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	user.RefreshToken = refreshToken.String
	return &user, nil
}
