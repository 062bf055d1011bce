package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Options configures the S3 presigner
type S3Options struct {
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	// Endpoint points at an S3-compatible service; path-style addressing is used with it
	Endpoint string
	// PublicURL is the base of object URLs handed back to clients
	PublicURL string
}

// S3Presigner issues presigned PUT URLs for one bucket
type S3Presigner struct {
	presign   *s3.PresignClient
	bucket    string
	publicURL string
}

// NewS3Presigner creates a presigner. Static credentials are used when both
// keys are set, otherwise the default AWS credential chain.
func NewS3Presigner(ctx context.Context, opts S3Options) (*S3Presigner, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(opts.Region)}
	if opts.AccessKey != "" && opts.SecretKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	publicURL := opts.PublicURL
	if publicURL == "" {
		if opts.Endpoint != "" {
			publicURL = strings.TrimRight(opts.Endpoint, "/") + "/" + opts.Bucket
		} else {
			publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", opts.Bucket, opts.Region)
		}
	}

	return &S3Presigner{
		presign:   s3.NewPresignClient(client),
		bucket:    opts.Bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

// PresignPut returns a URL the client can PUT the object to until it expires
func (p *S3Presigner) PresignPut(ctx context.Context, key, contentType string, expires time.Duration) (string, error) {
	request, err := p.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = expires
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate pre-signed URL: %w", err)
	}
	return request.URL, nil
}

// ObjectURL returns the public URL of an object
func (p *S3Presigner) ObjectURL(key string) string {
	return p.publicURL + "/" + key
}
