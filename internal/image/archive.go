package image

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/imagify/imagify-api/internal/config"
)

// Archive keeps generated images and returns a URL the client can fetch
type Archive interface {
	Store(ctx context.Context, userID uuid.UUID, png []byte) (string, error)
}

// S3Archive stores images in an S3-compatible bucket and hands out presigned GET URLs
type S3Archive struct {
	client     *s3.Client
	presign    *s3.PresignClient
	bucket     string
	presignTTL time.Duration
	now        func() time.Time
}

func NewS3Archive(ctx context.Context, cfg config.StorageConfig) (*S3Archive, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load s3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	ttl := cfg.PresignTTL
	if ttl <= 0 {
		ttl = time.Hour
	}

	return &S3Archive{
		client:     client,
		presign:    s3.NewPresignClient(client),
		bucket:     cfg.Bucket,
		presignTTL: ttl,
		now:        time.Now,
	}, nil
}

// objectKey lays images out by day: images/YYYY/MM/DD/<uuid>.png
func objectKey(t time.Time) string {
	return fmt.Sprintf("images/%s/%s.png", t.UTC().Format("2006/01/02"), uuid.NewString())
}

func (a *S3Archive) Store(ctx context.Context, userID uuid.UUID, png []byte) (string, error) {
	key := objectKey(a.now())

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(png),
		ContentLength: aws.Int64(int64(len(png))),
		ContentType:   aws.String("image/png"),
		Metadata:      map[string]string{"user-id": userID.String()},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	req, err := a.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(a.presignTTL))
	if err != nil {
		return "", fmt.Errorf("failed to presign image url: %w", err)
	}

	return req.URL, nil
}
