package storage

import (
	"context"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"propertyhub_backend/pkg/config"
)

// S3 stores files in an S3-compatible bucket (AWS S3 or Cloudflare R2).
type S3 struct {
	client   *s3.Client
	bucket   string
	baseURL  string
	optimize bool
}

func NewS3(ctx context.Context, cfg config.StorageConfig) (*S3, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET is not set")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.S3Region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	baseURL := cfg.CDNBaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3Bucket, cfg.S3Region)
	}

	return &S3{
		client:   s3.NewFromConfig(awsCfg),
		bucket:   cfg.S3Bucket,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		optimize: cfg.OptimizeImages,
	}, nil
}

// NewR2 talks to Cloudflare R2 through its S3 endpoint.
func NewR2(ctx context.Context, cfg config.StorageConfig) (*S3, error) {
	if cfg.S3Bucket == "" || cfg.R2AccountID == "" {
		return nil, fmt.Errorf("S3_BUCKET and R2_ACCOUNT_ID must be set for r2 storage")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.R2AccessKey,
			cfg.R2SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.R2AccountID))
		o.UsePathStyle = true
		o.Region = "auto"
	})

	if cfg.CDNBaseURL == "" {
		return nil, fmt.Errorf("CDN_BASE_URL must be set for r2 storage")
	}

	return &S3{
		client:   client,
		bucket:   cfg.S3Bucket,
		baseURL:  strings.TrimSuffix(cfg.CDNBaseURL, "/"),
		optimize: cfg.OptimizeImages,
	}, nil
}

func (s *S3) Save(ctx context.Context, file *multipart.FileHeader, folder string) (*StoredFile, error) {
	body, size, mimeType, err := payload(file, s.optimize)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	name, key := objectName(folder, file.Filename)

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(mimeType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return nil, fmt.Errorf("could not upload to bucket: %w", err)
	}

	return &StoredFile{
		FileName:     name,
		OriginalName: filepath.Base(file.Filename),
		Path:         key,
		URL:          s.baseURL + "/" + key,
		Size:         size,
		MimeType:     mimeType,
	}, nil
}

// Delete removes an object; S3 reports success for missing keys.
func (s *S3) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(strings.TrimPrefix(key, "/")),
	})
	if err != nil {
		return fmt.Errorf("could not delete object %s: %w", key, err)
	}
	return nil
}
