// Package aws implements the bucketforge provider on top of the AWS SDK v2.
package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"

	"github.com/bucketforge/bucketforge/providers/aws/storage"
	"github.com/bucketforge/bucketforge/services"
)

// Provider implements bucketforge.Provider for AWS. Each instance is scoped
// to one access key pair and one region; use a separate Provider per account.
type Provider struct {
	cfg    aws.Config
	region string
}

// New builds a Provider from an already-sanitized access key pair. The static
// credentials never touch the ambient credential chain (env vars, shared
// config files), so concurrent providers for different accounts do not
// interfere.
func New(ctx context.Context, accessKeyID, secretAccessKey, region string) (*Provider, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config for region %s: %w", region, err)
	}
	return &Provider{cfg: cfg, region: region}, nil
}

// Storage returns the S3-backed storage service.
func (p *Provider) Storage() services.Storage {
	return storage.New(p.cfg)
}

// Name returns "aws".
func (p *Provider) Name() string {
	return "aws"
}

// Region returns the region this provider was built for.
func (p *Provider) Region() string {
	return p.region
}
