package storage

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Sink is where downloaded documents (invoices, project archives) are saved.
type Sink interface {
	// Save stores data under name and returns where it ended up.
	Save(ctx context.Context, name, contentType string, data []byte) (string, error)
}

// cleanName keeps only the base name so a server-supplied id cannot escape the target directory.
func cleanName(name string) (string, error) {
	base := filepath.Base(filepath.Clean("/" + name))
	if base == "/" || base == "." || base == "" {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	return base, nil
}

// FileSink writes documents into a local directory.
type FileSink struct {
	dir    string
	logger zerolog.Logger
}

func NewFileSink(dir string) *FileSink {
	return &FileSink{
		dir:    dir,
		logger: log.With().Str("component", "fileSink").Logger(),
	}
}

func (s *FileSink) Save(_ context.Context, name, _ string, data []byte) (string, error) {
	base, err := cleanName(name)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create download directory: %w", err)
	}

	target := filepath.Join(s.dir, base)
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", base, err)
	}

	s.logger.Info().Str("path", target).Int("bytes", len(data)).Msg("Saved download")
	return target, nil
}

// PutObjectAPI is the part of the S3 client the sink needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink uploads documents to a bucket under an optional key prefix.
type S3Sink struct {
	client PutObjectAPI
	bucket string
	prefix string
	logger zerolog.Logger
}

func NewS3Sink(client PutObjectAPI, bucket, prefix string) *S3Sink {
	return &S3Sink{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		logger: log.With().Str("component", "s3Sink").Logger(),
	}
}

// NewS3SinkFromEnv builds an S3 client from the default AWS credential chain.
func NewS3SinkFromEnv(ctx context.Context, bucket, prefix string) (*S3Sink, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewS3Sink(s3.NewFromConfig(cfg), bucket, prefix), nil
}

func (s *S3Sink) Save(ctx context.Context, name, contentType string, data []byte) (string, error) {
	base, err := cleanName(name)
	if err != nil {
		return "", err
	}

	key := base
	if s.prefix != "" {
		key = path.Join(s.prefix, base)
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("failed to upload %s to s3: %w", key, err)
	}

	location := fmt.Sprintf("s3://%s/%s", s.bucket, key)
	s.logger.Info().Str("location", location).Int("bytes", len(data)).Msg("Saved download")
	return location, nil
}
