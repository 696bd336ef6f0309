package recording

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/agentrank/engine/pkg/config"
)

// R2Store uploads replays to a Cloudflare R2 bucket through the
// S3-compatible API. With incomplete credentials the store stays
// unconfigured and every upload is skipped.
type R2Store struct {
	cfg    config.StorageConfig
	client *s3.Client
}

// NewR2Store builds the store from configuration. Missing credentials
// are not an error; the resulting store reports Configured() == false.
func NewR2Store(ctx context.Context, cfg config.StorageConfig) (*R2Store, error) {
	store := &R2Store{cfg: cfg}
	if cfg.AccountID == "" || cfg.AccessKey == "" || cfg.SecretKey == "" || cfg.Bucket == "" {
		return store, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load storage config: %w", err)
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
	store.client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})
	return store, nil
}

// Configured reports whether uploads will be attempted.
func (s *R2Store) Configured() bool {
	return s != nil && s.client != nil
}

// Upload puts one file into the bucket and returns its public URL.
func (s *R2Store) Upload(ctx context.Context, localPath, key, contentType string) (string, error) {
	if !s.Configured() {
		return "", &StoreError{Op: "upload", Err: fmt.Errorf("store not configured")}
	}

	f, err := os.Open(localPath)
	if err != nil {
		return "", &StoreError{Op: "open", Err: err}
	}
	defer f.Close()

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", &StoreError{Op: "put_object", Err: err}
	}

	return s.objectURL(key), nil
}

// objectURL prefers the configured public base URL and falls back to
// the raw bucket endpoint, which requires a public bucket.
func (s *R2Store) objectURL(key string) string {
	if s.cfg.PublicURL != "" {
		return strings.TrimRight(s.cfg.PublicURL, "/") + "/" + key
	}
	return fmt.Sprintf("https://%s.%s.r2.cloudflarestorage.com/%s", s.cfg.Bucket, s.cfg.AccountID, key)
}
