package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	pkglogger "github.com/journalkeep/journal-backend/pkg/logger"
)

// S3Client wraps the AWS S3 client for S3/R2/MinIO compatible storage
type S3Client struct {
	client        *s3.Client
	bucket        string
	publicURL     string // optional public base URL (CDN or bucket website)
	presignExpiry time.Duration
}

// S3Config holds S3-compatible storage configuration
type S3Config struct {
	Endpoint        string // e.g. http://localhost:9000 for MinIO
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	PublicURL       string
	PresignExpiry   time.Duration
	ForcePathStyle  bool // true for MinIO/R2
}

// NewS3Client creates a new S3-compatible storage client
func NewS3Client(cfg S3Config) (*S3Client, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
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

	expiry := cfg.PresignExpiry
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}

	pkglogger.GetLogger().Info().
		Str("bucket", cfg.Bucket).
		Str("endpoint", cfg.Endpoint).
		Msg("S3 storage client initialized")

	return &S3Client{
		client:        client,
		bucket:        cfg.Bucket,
		publicURL:     strings.TrimRight(cfg.PublicURL, "/"),
		presignExpiry: expiry,
	}, nil
}

// Put uploads an object under key
func (c *S3Client) Put(ctx context.Context, key string, body io.Reader, contentType string, size int64) error {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	}

	if _, err := c.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("s3 upload failed: %w", err)
	}
	return nil
}

// Delete removes an object from storage
func (c *S3Client) Delete(ctx context.Context, key string) error {
	input := &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}

	if _, err := c.client.DeleteObject(ctx, input); err != nil {
		return fmt.Errorf("s3 delete failed: %w", err)
	}
	return nil
}

// URL returns the public URL when configured, otherwise a pre-signed download URL
func (c *S3Client) URL(ctx context.Context, key string) (string, error) {
	if c.publicURL != "" {
		return c.publicURL + "/" + key, nil
	}

	presignClient := s3.NewPresignClient(c.client)
	input := &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}

	result, err := presignClient.PresignGetObject(ctx, input, s3.WithPresignExpires(c.presignExpiry))
	if err != nil {
		return "", fmt.Errorf("presign failed: %w", err)
	}
	return result.URL, nil
}

// EntryObjectKey builds entries/<entryID>/<uuid><ext>
func EntryObjectKey(entryID uint64, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return "entries/" + strconv.FormatUint(entryID, 10) + "/" + uuid.NewString() + ext
}
