package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"vidtube/internal/repository"
)

// Open opens (or creates) a sqlite database at the given path and ensures directories exist.
func Open(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	// single writer keeps per-row updates atomic without busy retries
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return db, nil
}

// InitAll creates the schema for every repository in dependency order.
func InitAll(ctx context.Context, users repository.UserRepository, subs repository.SubscriptionRepository, videos repository.VideoRepository) error {
	if err := users.Init(ctx); err != nil {
		return fmt.Errorf("init user repository: %w", err)
	}
	if err := subs.Init(ctx); err != nil {
		return fmt.Errorf("init subscription repository: %w", err)
	}
	if err := videos.Init(ctx); err != nil {
		return fmt.Errorf("init video repository: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique")
}
