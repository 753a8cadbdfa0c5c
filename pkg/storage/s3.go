package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	pkglogger "github.com/gtracker/forum-backend/pkg/logger"
)

// ErrForeignURL the URL does not point into this store
var ErrForeignURL = errors.New("url does not belong to this storage")

// MediaStore object storage used for profile media
type MediaStore interface {
	Upload(ctx context.Context, folder, owner, filename, contentType string, body io.Reader, size int64) (string, error)
	DeleteByURL(ctx context.Context, objectURL string) error
}

// S3Client wraps the AWS S3 client for S3/R2/MinIO compatible storage
type S3Client struct {
	client   *s3.Client
	bucket   string
	baseURL  string // public prefix objects are served from
	basePath string // prefix for all objects (e.g. "forum/")
}

// S3Config holds S3-compatible storage configuration
type S3Config struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	CDNURL          string
	BasePath        string
	ForcePathStyle  bool // true for MinIO/R2
}

// NewS3Client creates a new S3-compatible storage client
func NewS3Client(cfg S3Config) (*S3Client, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}

	opts := func(o *s3.Options) {
		o.Region = cfg.Region
		o.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	}

	client := s3.New(s3.Options{}, opts)

	pkglogger.GetLogger().Info().
		Str("bucket", cfg.Bucket).
		Str("endpoint", cfg.Endpoint).
		Msg("S3 storage client initialized")

	return &S3Client{
		client:   client,
		bucket:   cfg.Bucket,
		baseURL:  PublicBaseURL(cfg),
		basePath: cfg.BasePath,
	}, nil
}

// PublicBaseURL CDN when configured, otherwise the bucket URL
func PublicBaseURL(cfg S3Config) string {
	if cfg.CDNURL != "" {
		return strings.TrimRight(cfg.CDNURL, "/")
	}
	if cfg.Endpoint != "" && cfg.ForcePathStyle {
		return strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com", cfg.Bucket)
}

// Upload stores body under folder/owner/<uuid><ext> and returns its public URL
func (c *S3Client) Upload(ctx context.Context, folder, owner, filename, contentType string, body io.Reader, size int64) (string, error) {
	key := c.basePath + GenerateKey(folder, owner, filename)

	input := &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	}

	if _, err := c.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("s3 upload failed: %w", err)
	}

	return c.baseURL + "/" + key, nil
}

// DeleteByURL removes the object a public URL points to
func (c *S3Client) DeleteByURL(ctx context.Context, objectURL string) error {
	key, err := KeyFromURL(c.baseURL, objectURL)
	if err != nil {
		return err
	}

	input := &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}

	if _, err := c.client.DeleteObject(ctx, input); err != nil {
		return fmt.Errorf("s3 delete failed: %w", err)
	}
	return nil
}

// KeyFromURL recovers the object key from a URL produced by Upload
func KeyFromURL(baseURL, objectURL string) (string, error) {
	prefix := strings.TrimRight(baseURL, "/") + "/"
	if !strings.HasPrefix(objectURL, prefix) {
		return "", ErrForeignURL
	}
	key := strings.TrimPrefix(objectURL, prefix)
	if i := strings.IndexAny(key, "?#"); i >= 0 {
		key = key[:i]
	}
	if key == "" {
		return "", ErrForeignURL
	}
	return key, nil
}

// GenerateKey folder/owner/<uuid><ext>, lowercased extension
func GenerateKey(folder, owner, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	name := uuid.NewString() + ext
	if owner == "" {
		return path.Join(folder, name)
	}
	return path.Join(folder, owner, name)
}
