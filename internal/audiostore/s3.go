package audiostore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"murmur/internal/config"
	"murmur/internal/services"
)

// S3 stores audio as objects in an S3-compatible bucket. A custom endpoint
// supports MinIO and other self-hosted object stores.
type S3 struct {
	client *s3.Client
	bucket string
}

// NewS3 creates an S3 backend from the audio store configuration.
func NewS3(ctx context.Context, cfg *config.Config) (*S3, error) {
	store := cfg.AudioStore
	if store.S3Bucket == "" {
		return nil, errors.New("s3 bucket is required for the s3 backend")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(store.S3Region),
	}
	if store.S3AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(store.S3AccessKey, store.S3SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if store.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(store.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3{client: client, bucket: store.S3Bucket}, nil
}

func (s *S3) Save(ctx context.Context, ref string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ref),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("put audio %s: %w", ref, err)
	}
	return nil
}

func (s *S3) Read(ctx context.Context, ref string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ref),
	})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, services.Wrap(services.ErrNotFound, "audiostore", "get object", ref, err)
		}
		return nil, fmt.Errorf("get audio %s: %w", ref, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read audio %s: %w", ref, err)
	}
	return data, nil
}

func (s *S3) Size(ctx context.Context, ref string) (int64, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ref),
	})
	if err != nil {
		if isNoSuchKey(err) {
			return 0, services.Wrap(services.ErrNotFound, "audiostore", "head object", ref, err)
		}
		return 0, fmt.Errorf("head audio %s: %w", ref, err)
	}
	if out.ContentLength == nil {
		return 0, nil
	}
	return *out.ContentLength, nil
}

func isNoSuchKey(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var notFound *types.NotFound
	return errors.As(err, &notFound)
}
