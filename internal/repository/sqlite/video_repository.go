package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"vidtube/internal/domain"
	"vidtube/internal/repository"
)

const createVideosTable = `
CREATE TABLE IF NOT EXISTS videos (
	id TEXT PRIMARY KEY,
	video_file TEXT NOT NULL,
	thumbnail TEXT NOT NULL,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	duration REAL NOT NULL DEFAULT 0,
	views INTEGER NOT NULL DEFAULT 0,
	is_published INTEGER NOT NULL DEFAULT 1,
	owner_id TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	FOREIGN KEY(owner_id) REFERENCES users(id)
);
CREATE INDEX IF NOT EXISTS idx_videos_owner_id ON videos(owner_id);
`

const createWatchHistoryTable = `
CREATE TABLE IF NOT EXISTS watch_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id TEXT NOT NULL,
	video_id TEXT NOT NULL,
	watched_at DATETIME NOT NULL,
	FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE,
	FOREIGN KEY(video_id) REFERENCES videos(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_watch_history_user_id ON watch_history(user_id);
`

type VideoRepository struct {
	db *sql.DB
}

func NewVideoRepository(db *sql.DB) repository.VideoRepository {
	return &VideoRepository{db: db}
}

func (r *VideoRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createVideosTable); err != nil {
		return fmt.Errorf("create videos table: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, createWatchHistoryTable); err != nil {
		return fmt.Errorf("create watch_history table: %w", err)
	}
	return nil
}

func (r *VideoRepository) Create(ctx context.Context, video *domain.Video) error {
	if video.ID == "" {
		video.ID = uuid.NewString()
	}
	video.CreatedAt = time.Now().UTC()

	published := 0
	if video.IsPublished {
		published = 1
	}
	if _, err := r.db.ExecContext(ctx, `
INSERT INTO videos (id, video_file, thumbnail, title, description, duration, views, is_published, owner_id, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		video.ID,
		video.VideoFile,
		video.Thumbnail,
		video.Title,
		video.Description,
		video.Duration,
		video.Views,
		published,
		video.OwnerID,
		video.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert video: %w", err)
	}
	return nil
}

// AppendWatchHistory adds videoID to the end of the user's history.
func (r *VideoRepository) AppendWatchHistory(ctx context.Context, userID, videoID string) error {
	if _, err := r.db.ExecContext(ctx, `
INSERT INTO watch_history (user_id, video_id, watched_at)
VALUES (?, ?, ?)`,
		userID,
		videoID,
		time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("append watch history: %w", err)
	}
	return nil
}
