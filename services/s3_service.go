package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	appConfig "github.com/heartcare-app/heartcare-api/config"
)

// ArtifactStore fetches model artifacts from remote storage
type ArtifactStore interface {
	// Download writes the object stored under key to destPath
	Download(ctx context.Context, key, destPath string) error
}

// S3ArtifactStore reads model artifacts from an S3 bucket
type S3ArtifactStore struct {
	client *s3.Client
	bucket string
}

// NewS3ArtifactStore creates an S3 client for the configured model bucket
func NewS3ArtifactStore(ctx context.Context, cfg *appConfig.Config) (*S3ArtifactStore, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.AWSRegion),
	}
	// Fall back to the default credential chain (instance role, shared config) without keys
	if cfg.AWSAccessKeyID != "" && cfg.AWSSecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AWSAccessKeyID,
			cfg.AWSSecretAccessKey,
			"",
		)))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &S3ArtifactStore{
		client: s3.NewFromConfig(awsConfig),
		bucket: cfg.ModelS3Bucket,
	}, nil
}

// Download streams the object to a temporary file next to destPath and renames it into place
func (s *S3ArtifactStore) Download(ctx context.Context, key, destPath string) error {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to download s3://%s/%s: %w", s.bucket, key, err)
	}
	defer out.Body.Close()

	return writeFileAtomic(destPath, out.Body)
}

// FetchModelArtifact downloads the model artifact when remote storage is configured
func FetchModelArtifact(ctx context.Context, store ArtifactStore, cfg *appConfig.Config) error {
	if !cfg.HasRemoteModel() {
		return nil
	}

	if err := store.Download(ctx, cfg.ModelS3Key, cfg.ModelPath); err != nil {
		return err
	}

	appConfig.Logger().Infow("Model artifact downloaded",
		"bucket", cfg.ModelS3Bucket, "key", cfg.ModelS3Key, "path", cfg.ModelPath)
	return nil
}

// writeFileAtomic never leaves a partially written artifact at path
func writeFileAtomic(path string, r io.Reader) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".model-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer func() {
		if err != nil {
			os.Remove(tmp.Name())
		}
	}()

	if _, err = io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write model artifact: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close model artifact: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move model artifact into place: %w", err)
	}
	return nil
}
