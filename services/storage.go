// Package services defines the storage service contract the provisioning
// engine is written against. Providers (AWS, mock) implement these interfaces;
// the engine never imports a provider SDK directly.
package services

import "context"

// BucketConfig describes a bucket to create.
//
// Bucket names must be globally unique and follow the usual storage-provider
// restrictions: 3-63 characters, lowercase letters, digits, and hyphens only,
// starting and ending with a letter or digit. The engine's name generator
// produces conforming names; callers supplying their own names are responsible
// for conformance.
type BucketConfig struct {
	// Name is the globally unique bucket name.
	Name string `json:"name"`

	// Region is where the bucket is created. Providers with a legacy default
	// region may omit the explicit location constraint when Region equals it.
	Region string `json:"region,omitempty"`
}

// PublicAccessConfig mirrors the provider's public access block settings.
// The zero value blocks nothing.
type PublicAccessConfig struct {
	// BlockPublicACLs rejects requests that set public ACLs.
	BlockPublicACLs bool `json:"block_public_acls"`

	// IgnorePublicACLs makes the provider disregard public ACLs already set.
	IgnorePublicACLs bool `json:"ignore_public_acls"`

	// BlockPublicPolicy rejects bucket policies that grant public access.
	BlockPublicPolicy bool `json:"block_public_policy"`

	// RestrictPublicBuckets limits access to buckets with public policies.
	RestrictPublicBuckets bool `json:"restrict_public_buckets"`
}

// ObjectOwnership selects how object ACLs interact with bucket ownership.
type ObjectOwnership string

const (
	// OwnershipBucketOwnerPreferred keeps object ACLs honored while new
	// objects written with the bucket-owner-full-control ACL transfer to the
	// bucket owner. Required for per-object public-read ACLs to keep working
	// under modern provider defaults.
	OwnershipBucketOwnerPreferred ObjectOwnership = "BucketOwnerPreferred"

	// OwnershipBucketOwnerEnforced disables object ACLs entirely.
	OwnershipBucketOwnerEnforced ObjectOwnership = "BucketOwnerEnforced"
)

// ObjectACL is a canned access control list applied to an uploaded object.
type ObjectACL string

const (
	ACLPrivate    ObjectACL = "private"
	ACLPublicRead ObjectACL = "public-read"
)

// PutObjectInput describes one object upload.
type PutObjectInput struct {
	// Bucket is the target bucket name.
	Bucket string `json:"bucket"`

	// Key is the object key within the bucket.
	Key string `json:"key"`

	// Body is the full object payload. Uploads here are small and one-shot,
	// so the contract takes bytes rather than a reader; the same slice can be
	// reused across many uploads without re-reading a single-consumption
	// source.
	Body []byte `json:"-"`

	// ContentType is the MIME type served with the object. Empty means the
	// provider default.
	ContentType string `json:"content_type,omitempty"`

	// CacheControl is the Cache-Control header served with the object.
	CacheControl string `json:"cache_control,omitempty"`

	// ACL is the canned ACL applied to the object. Empty means private.
	ACL ObjectACL `json:"acl,omitempty"`
}

// Storage is the object storage contract. All operations are scoped to the
// account and region the implementing client was built with, take a context
// for cancellation, and return provider failures as wrapped errors carrying
// the provider's error code where one exists.
type Storage interface {
	// CreateBucket creates a new bucket. Fails with a name-collision error
	// code if the name is already taken anywhere in the provider's namespace.
	CreateBucket(ctx context.Context, config *BucketConfig) error

	// DeleteBucket removes an empty bucket by name.
	DeleteBucket(ctx context.Context, name string) error

	// ListBuckets returns the names of all buckets owned by the account.
	ListBuckets(ctx context.Context) ([]string, error)

	// SetPublicAccess applies the bucket's public access block settings.
	SetPublicAccess(ctx context.Context, bucket string, config *PublicAccessConfig) error

	// SetOwnership applies the bucket's object ownership rule.
	SetOwnership(ctx context.Context, bucket string, ownership ObjectOwnership) error

	// PutObject uploads one object.
	PutObject(ctx context.Context, input *PutObjectInput) error
}
