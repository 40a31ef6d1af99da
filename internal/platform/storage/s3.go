// Package storage は録音ファイルをS3互換オブジェクトストレージに保存します。
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrBucketNotConfigured はバケット名が未設定の場合に返されます。
var ErrBucketNotConfigured = errors.New("s3 bucket name not configured")

// Config はオブジェクトストレージの接続設定です。
type Config struct {
	Region          string `env:"AWS_REGION" envDefault:"us-east-1"`
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	Bucket          string `env:"AWS_S3_BUCKET_NAME"`

	// Endpoint はMinIOなどS3互換サーバーのURLです。設定時はパススタイルでアクセスします。
	Endpoint string `env:"AWS_S3_ENDPOINT"`
}

// S3Storage はS3クライアントをラップし、アップロード・削除を提供します。
type S3Storage struct {
	client *s3.Client
	cfg    Config
}

// NewS3Storage はS3クライアントを生成します。
// アクセスキーが設定されていない場合はSDKの既定の認証情報チェーンを使います。
func NewS3Storage(ctx context.Context, cfg Config) (*S3Storage, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Storage{client: client, cfg: cfg}, nil
}

// Configured はバケット名が設定されているかを返します。
func (s *S3Storage) Configured() bool {
	return s.cfg.Bucket != ""
}

// Upload はbodyをkeyに保存し、オブジェクトのURLを返します。
func (s *S3Storage) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	if !s.Configured() {
		return "", ErrBucketNotConfigured
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.Bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}

	url := s.ObjectURL(key)
	slog.Info("uploaded object", "bucket", s.cfg.Bucket, "key", key)
	return url, nil
}

// Delete はkeyのオブジェクトを削除します。
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	if !s.Configured() {
		return ErrBucketNotConfigured
	}

	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}

	slog.Info("deleted object", "bucket", s.cfg.Bucket, "key", key)
	return nil
}

// ObjectURL はkeyの公開URLを返します。
func (s *S3Storage) ObjectURL(key string) string {
	if s.cfg.Endpoint != "" {
		return strings.TrimRight(s.cfg.Endpoint, "/") + "/" + s.cfg.Bucket + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.Bucket, s.cfg.Region, key)
}
