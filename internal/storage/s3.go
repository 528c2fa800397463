package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config holds S3-compatible object storage configuration.
type S3Config struct {
	// Bucket is the default bucket for URIs that carry only a key.
	Bucket string `yaml:"bucket"`

	// Region is the AWS region.
	Region string `yaml:"region"`

	// Endpoint is a custom S3 endpoint URL, for MinIO or other
	// S3-compatible services.
	Endpoint string `yaml:"endpoint"`

	// AccessKey and SecretKey are static credentials. When empty the
	// default AWS credential chain is used.
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`

	// PathStyle enables path-style URLs (required for MinIO).
	PathStyle bool `yaml:"pathStyle"`
}

// GetObjectAPI is the subset of the S3 client used by S3Store. It exists
// so tests can substitute a mock client.
type GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Store serves s3://bucket/key attachment URIs from object storage.
type S3Store struct {
	client GetObjectAPI
	cfg    S3Config
}

// NewS3Store creates an S3Store from the given configuration.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})

	return &S3Store{client: client, cfg: cfg}, nil
}

// NewS3StoreWithClient creates an S3Store with a custom client, used for
// testing.
func NewS3StoreWithClient(client GetObjectAPI, cfg S3Config) *S3Store {
	return &S3Store{client: client, cfg: cfg}
}

// Open implements BlobStore.
func (s *S3Store) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	bucket, key, err := s.splitURI(uri)
	if err != nil {
		return nil, err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("fetching s3 object %q from bucket %q: %w", key, bucket, err)
	}
	return out.Body, nil
}

// splitURI extracts bucket and key from an s3:// URI. A URI without a host
// component uses the configured default bucket.
func (s *S3Store) splitURI(uri string) (bucket, key string, err error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", fmt.Errorf("parsing s3 uri %q: %w", uri, err)
	}

	bucket = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if bucket == "" {
		bucket = s.cfg.Bucket
	}
	if bucket == "" {
		return "", "", fmt.Errorf("s3 uri %q has no bucket and no default bucket is configured", uri)
	}
	if key == "" {
		return "", "", fmt.Errorf("s3 uri %q has no object key", uri)
	}
	return bucket, key, nil
}
