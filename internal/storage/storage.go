package storage

import (
	"context"
	"errors"
)

// ErrUpload marks a failed transfer to the media host.
var ErrUpload = errors.New("media upload failed")

// UploadResult identifies an uploaded object. Handle is what Delete expects.
type UploadResult struct {
	URL    string
	Handle string
}

// UploadOptions conveys upload destination metadata.
type UploadOptions struct {
	Bucket        string
	KeyPrefix     string
	PublicBaseURL string
	Region        string
	Endpoint      string
}

// Service stores user media on remote object storage.
type Service interface {
	Upload(ctx context.Context, localPath string) (*UploadResult, error)
	Delete(ctx context.Context, handle string) error
}
