// Package images locates hosted product photos. Photos live in an
// S3-compatible bucket keyed by article prefix; the marketplace feed needs
// their public URLs.
package images

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	infraconfig "github.com/marketsync/backend/internal/infrastructure/config"
)

// s3Lister is the subset of the S3 client the locator needs.
type s3Lister interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Locator lists bucket objects under an article prefix and maps them to
// public URLs.
type S3Locator struct {
	client        s3Lister
	bucket        string
	publicBaseURL string
	logger        *zap.Logger
}

// NewS3Locator creates a locator from configuration. It is compatible with
// any S3-compatible storage backend.
func NewS3Locator(cfg *infraconfig.ImagesConfig, logger *zap.Logger) (*S3Locator, error) {
	if cfg == nil {
		return nil, errors.New("images configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("images bucket is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Locator{
		client:        client,
		bucket:        cfg.Bucket,
		publicBaseURL: strings.TrimSuffix(cfg.PublicBaseURL, "/"),
		logger:        logger,
	}, nil
}

// newS3LocatorWithClient is used by tests to inject a fake client.
func newS3LocatorWithClient(client s3Lister, bucket, publicBaseURL string, logger *zap.Logger) *S3Locator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &S3Locator{
		client:        client,
		bucket:        bucket,
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
		logger:        logger,
	}
}

// URLs returns the public URLs of every photo stored under the article's
// prefix, sorted by key. An article with no photos returns an empty slice,
// not an error.
func (l *S3Locator) URLs(ctx context.Context, article string) ([]string, error) {
	prefix := article + "/"
	var urls []string

	var continuation *string
	for {
		out, err := l.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(l.bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: continuation,
		})
		if err != nil {
			return nil, fmt.Errorf("images: listing %s failed: %w", prefix, err)
		}

		for _, obj := range out.Contents {
			key := aws.ToString(obj.Key)
			if key == "" || strings.HasSuffix(key, "/") {
				continue
			}
			urls = append(urls, l.publicBaseURL+"/"+key)
		}

		if out.IsTruncated == nil || !*out.IsTruncated {
			break
		}
		continuation = out.NextContinuationToken
	}

	sort.Strings(urls)
	return urls, nil
}
