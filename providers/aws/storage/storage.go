// Package storage implements the services.Storage contract against S3.
package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/bucketforge/bucketforge/services"
)

// S3ClientInterface defines the methods we need from the S3 client, narrowed
// for testing with hand mocks.
type S3ClientInterface interface {
	CreateBucket(ctx context.Context, input *s3.CreateBucketInput, opts ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
	DeleteBucket(ctx context.Context, input *s3.DeleteBucketInput, opts ...func(*s3.Options)) (*s3.DeleteBucketOutput, error)
	ListBuckets(ctx context.Context, input *s3.ListBucketsInput, opts ...func(*s3.Options)) (*s3.ListBucketsOutput, error)
	PutPublicAccessBlock(ctx context.Context, input *s3.PutPublicAccessBlockInput, opts ...func(*s3.Options)) (*s3.PutPublicAccessBlockOutput, error)
	PutBucketOwnershipControls(ctx context.Context, input *s3.PutBucketOwnershipControlsInput, opts ...func(*s3.Options)) (*s3.PutBucketOwnershipControlsOutput, error)
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// AWSStorage implements the Storage interface for AWS
type AWSStorage struct {
	client S3ClientInterface
}

// New creates a new AWSStorage instance with a real S3 client
func New(cfg aws.Config) services.Storage {
	client := s3.NewFromConfig(cfg)
	return &AWSStorage{client: client}
}

// NewWithClient creates a new AWSStorage instance with a custom client (for testing)
func NewWithClient(client S3ClientInterface) services.Storage {
	return &AWSStorage{client: client}
}

// legacyDefaultRegion takes no explicit location constraint; S3 rejects
// CreateBucket requests that name it explicitly.
const legacyDefaultRegion = "us-east-1"

// CreateBucket creates a new S3 bucket.
func (s *AWSStorage) CreateBucket(ctx context.Context, config *services.BucketConfig) error {
	input := &s3.CreateBucketInput{
		Bucket: aws.String(config.Name),
	}

	if config.Region != "" && config.Region != legacyDefaultRegion {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(config.Region),
		}
	}

	_, err := s.client.CreateBucket(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// DeleteBucket removes an empty bucket by name.
func (s *AWSStorage) DeleteBucket(ctx context.Context, name string) error {
	_, err := s.client.DeleteBucket(ctx, &s3.DeleteBucketInput{
		Bucket: aws.String(name),
	})
	if err != nil {
		return fmt.Errorf("failed to delete bucket: %w", err)
	}
	return nil
}

// ListBuckets lists all S3 buckets owned by the account.
func (s *AWSStorage) ListBuckets(ctx context.Context) ([]string, error) {
	resp, err := s.client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, fmt.Errorf("failed to list buckets: %w", err)
	}

	buckets := make([]string, len(resp.Buckets))
	for i, b := range resp.Buckets {
		buckets[i] = aws.ToString(b.Name)
	}
	return buckets, nil
}

// SetPublicAccess applies the bucket's public access block configuration.
func (s *AWSStorage) SetPublicAccess(ctx context.Context, bucket string, config *services.PublicAccessConfig) error {
	_, err := s.client.PutPublicAccessBlock(ctx, &s3.PutPublicAccessBlockInput{
		Bucket: aws.String(bucket),
		PublicAccessBlockConfiguration: &types.PublicAccessBlockConfiguration{
			BlockPublicAcls:       aws.Bool(config.BlockPublicACLs),
			IgnorePublicAcls:      aws.Bool(config.IgnorePublicACLs),
			BlockPublicPolicy:     aws.Bool(config.BlockPublicPolicy),
			RestrictPublicBuckets: aws.Bool(config.RestrictPublicBuckets),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to set public access block: %w", err)
	}
	return nil
}

// SetOwnership applies the bucket's object ownership rule.
func (s *AWSStorage) SetOwnership(ctx context.Context, bucket string, ownership services.ObjectOwnership) error {
	_, err := s.client.PutBucketOwnershipControls(ctx, &s3.PutBucketOwnershipControlsInput{
		Bucket: aws.String(bucket),
		OwnershipControls: &types.OwnershipControls{
			Rules: []types.OwnershipControlsRule{
				{ObjectOwnership: types.ObjectOwnership(ownership)},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to set ownership controls: %w", err)
	}
	return nil
}

// PutObject uploads one object with its ACL, content type, and cache policy.
func (s *AWSStorage) PutObject(ctx context.Context, input *services.PutObjectInput) error {
	req := &s3.PutObjectInput{
		Bucket: aws.String(input.Bucket),
		Key:    aws.String(input.Key),
		Body:   bytes.NewReader(input.Body),
	}
	if input.ContentType != "" {
		req.ContentType = aws.String(input.ContentType)
	}
	if input.CacheControl != "" {
		req.CacheControl = aws.String(input.CacheControl)
	}
	if input.ACL != "" {
		req.ACL = types.ObjectCannedACL(input.ACL)
	}

	_, err := s.client.PutObject(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to put object: %w", err)
	}
	return nil
}
