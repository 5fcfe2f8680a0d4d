package storage

import (
	"context"
	"fmt"
	"mime"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

type objectAPI interface {
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type uploadAPI interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Service uploads user media to Amazon S3 (or compatible APIs).
type S3Service struct {
	client   objectAPI
	uploader uploadAPI
	opts     UploadOptions
}

func NewS3Service(client *s3.Client, opts UploadOptions) (*S3Service, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}
	return &S3Service{
		client:   client,
		uploader: manager.NewUploader(client),
		opts:     opts,
	}, nil
}

// Upload streams the local file to the bucket under a random key and returns
// its public URL and the key as handle.
func (s *S3Service) Upload(ctx context.Context, localPath string) (*UploadResult, error) {
	if strings.TrimSpace(localPath) == "" {
		return nil, fmt.Errorf("%w: local path is required", ErrUpload)
	}

	f, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrUpload, localPath, err)
	}
	defer f.Close()

	key := s.objectKey(localPath)
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(key),
		Body:   f,
	}
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(localPath))); ct != "" {
		input.ContentType = aws.String(ct)
	}

	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return nil, fmt.Errorf("%w: upload %s: %v", ErrUpload, localPath, err)
	}

	return &UploadResult{
		URL:    s.objectURL(key),
		Handle: key,
	}, nil
}

func (s *S3Service) Delete(ctx context.Context, handle string) error {
	if strings.TrimSpace(handle) == "" {
		return fmt.Errorf("handle is required")
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(handle),
	}); err != nil {
		return fmt.Errorf("delete object %s: %w", handle, err)
	}
	return nil
}

func (s *S3Service) objectKey(localPath string) string {
	name := uuid.NewString() + strings.ToLower(filepath.Ext(localPath))
	prefix := strings.Trim(s.opts.KeyPrefix, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

func (s *S3Service) objectURL(key string) string {
	escaped := (&url.URL{Path: key}).EscapedPath()
	if base := strings.TrimRight(s.opts.PublicBaseURL, "/"); base != "" {
		return base + "/" + escaped
	}
	if endpoint := strings.TrimRight(s.opts.Endpoint, "/"); endpoint != "" {
		return endpoint + "/" + path.Join(s.opts.Bucket, escaped)
	}
	region := s.opts.Region
	if region == "" {
		region = "us-east-1"
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.opts.Bucket, region, escaped)
}

var _ Service = (*S3Service)(nil)
