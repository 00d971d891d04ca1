package photostore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectPutter is the slice of the S3 API the store needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

type S3Store struct {
	client   ObjectPutter
	bucket   string
	maxBytes int64
	now      func() time.Time
}

func NewS3Store(client ObjectPutter, bucket string, maxBytes int64) *S3Store {
	return &S3Store{client: client, bucket: bucket, maxBytes: maxBytes, now: time.Now}
}

// NewS3Client builds a client for AWS or any S3-compatible endpoint (MinIO).
func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
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
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

func (s *S3Store) Save(ctx context.Context, content io.Reader, contentType string) (string, error) {
	data, name, err := prepare(content, contentType, s.maxBytes)
	if err != nil {
		return "", err
	}

	d := s.now().UTC()
	key := fmt.Sprintf("photos/%04d/%02d/%02d/%s", d.Year(), d.Month(), d.Day(), name)

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("put photo object: %w", err)
	}

	return "s3://" + s.bucket + "/" + key, nil
}

func (s *S3Store) Remove(ctx context.Context, path string) error {
	prefix := "s3://" + s.bucket + "/"
	if !strings.HasPrefix(path, prefix) {
		return fmt.Errorf("path %q not in bucket %s", path, s.bucket)
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(strings.TrimPrefix(path, prefix)),
	})
	return err
}
