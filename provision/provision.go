// Package provision implements the bucket provisioning engine: quota-guarded
// bulk bucket creation with access hardening, payload upload, per-credential
// partial-failure aggregation, and credential validation.
package provision

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bucketforge/bucketforge"
	"github.com/bucketforge/bucketforge/services"
)

// ClientFactory builds a region-scoped provider from one sanitized credential.
// Factory failures are captured into the credential's result, never raised.
type ClientFactory func(ctx context.Context, cred bucketforge.Credential, region string) (bucketforge.Provider, error)

const (
	// DefaultBucketLimit is the provider's default per-account bucket
	// ceiling. Accounts with raised ceilings still get the conservative
	// default unless WithBucketLimit overrides it.
	DefaultBucketLimit = 100

	// DefaultCallTimeout bounds each individual provider call. Expiry is an
	// ordinary captured failure, not a run abort.
	DefaultCallTimeout = 30 * time.Second
)

// cacheControl served with every uploaded object. Payloads are unique per
// bucket; a cached copy under a reused key would be stale or wrong.
const cacheControl = "no-cache, no-store, must-revalidate"

// Engine drives provisioning and validation. Construct with New; the zero
// value is not usable.
type Engine struct {
	factory     ClientFactory
	bucketLimit int
	callTimeout time.Duration
	namePrefix  string
}

// Option configures an Engine.
type Option func(*Engine)

// WithBucketLimit overrides the per-account bucket ceiling used for quota
// headroom arithmetic.
func WithBucketLimit(limit int) Option {
	return func(e *Engine) { e.bucketLimit = limit }
}

// WithCallTimeout overrides the per-provider-call timeout.
func WithCallTimeout(d time.Duration) Option {
	return func(e *Engine) { e.callTimeout = d }
}

// WithNamePrefix sets a fixed prefix for generated bucket names instead of a
// random one.
func WithNamePrefix(prefix string) Option {
	return func(e *Engine) { e.namePrefix = prefix }
}

// New creates an Engine that builds provider clients through factory.
func New(factory ClientFactory, opts ...Option) *Engine {
	e := &Engine{
		factory:     factory,
		bucketLimit: DefaultBucketLimit,
		callTimeout: DefaultCallTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Request is the immutable input to one provisioning run.
type Request struct {
	// Region is the target region, one of bucketforge.Regions().
	Region string

	// Count is the number of buckets to create per credential.
	Count int

	// Payload, when non-empty, is uploaded to every created bucket.
	Payload *Payload
}

// KeyResult is one credential's outcome within a single run.
type KeyResult struct {
	KeyName        string   `json:"key_name"`
	BucketsCreated int      `json:"buckets_created"`
	URLs           []string `json:"urls"`
	Errors         []string `json:"errors"`
}

// Report is the terminal output of one provisioning run. Immutable once
// returned.
type Report struct {
	Region              string      `json:"region"`
	BucketsRequested    int         `json:"num_buckets_requested"`
	KeyResults          []KeyResult `json:"keys_results"`
	TotalBucketsCreated int         `json:"total_buckets_created"`
	TotalURLsGenerated  int         `json:"total_urls_generated"`
	CreatedAt           time.Time   `json:"creation_date"`
}

// PublicURL returns the browser-accessible URL for an object in a bucket.
func PublicURL(bucket, region, key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, region, key)
}

// CreateBuckets provisions req.Count buckets under every credential and
// aggregates the results. The only error return is request validation; every
// provider-side failure is captured inside the report. Credentials are
// processed concurrently, each writing only its own KeyResult slot.
func (e *Engine) CreateBuckets(ctx context.Context, creds []bucketforge.Credential, req Request) (*Report, error) {
	if !bucketforge.IsValidRegion(req.Region) {
		return nil, fmt.Errorf("unsupported region %q", req.Region)
	}
	if req.Count < 0 {
		return nil, fmt.Errorf("bucket count must be non-negative, got %d", req.Count)
	}

	report := &Report{
		Region:           req.Region,
		BucketsRequested: req.Count,
		KeyResults:       make([]KeyResult, len(creds)),
		CreatedAt:        time.Now(),
	}

	g := new(errgroup.Group)
	for i, cred := range creds {
		g.Go(func() error {
			report.KeyResults[i] = e.provisionKey(ctx, cred, req)
			return nil
		})
	}
	// Tasks never return errors; Wait is only a completion barrier so the
	// totals below see fully written results.
	_ = g.Wait()

	for _, kr := range report.KeyResults {
		report.TotalBucketsCreated += kr.BucketsCreated
		report.TotalURLsGenerated += len(kr.URLs)
	}
	return report, nil
}

// provisionKey runs the full pipeline for one credential: client build, quota
// guard, then the per-bucket loop. One bad bucket never blocks the rest of
// the batch; an insufficient quota blocks the whole batch for this credential.
func (e *Engine) provisionKey(ctx context.Context, cred bucketforge.Credential, req Request) KeyResult {
	result := KeyResult{
		KeyName: cred.Name,
		URLs:    []string{},
		Errors:  []string{},
	}

	provider, err := e.factory(ctx, cred.Sanitize(), req.Region)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("failed to initialize client: %v", err))
		return result
	}
	storage := provider.Storage()

	quota := e.checkQuota(ctx, storage, cred.Name)
	if !quota.Success {
		result.Errors = append(result.Errors, fmt.Sprintf("failed to check bucket limits: %s", quota.Error))
		return result
	}
	if quota.Remaining < req.Count {
		result.Errors = append(result.Errors,
			fmt.Sprintf("cannot create %d buckets, only %d remaining", req.Count, quota.Remaining))
		return result
	}

	for i := 1; i <= req.Count; i++ {
		name := NewBucketName(e.namePrefix)

		if err := e.createAndHarden(ctx, storage, name, req.Region); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("failed to create bucket %d: %v", i, err))
			continue
		}
		result.BucketsCreated++

		if req.Payload.Empty() {
			continue
		}
		url, err := e.upload(ctx, storage, name, req.Region, req.Payload)
		if err != nil {
			// The bucket itself stands; only the object is missing.
			result.Errors = append(result.Errors, fmt.Sprintf("failed to upload to bucket %s: %v", name, err))
			continue
		}
		result.URLs = append(result.URLs, url)
	}

	return result
}

// createAndHarden creates one bucket and applies its access policy. The
// first failing step aborts the rest; a partially hardened bucket counts as
// a failure and its name is abandoned, not retried and not deleted.
func (e *Engine) createAndHarden(ctx context.Context, storage services.Storage, name, region string) error {
	callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()
	if err := storage.CreateBucket(callCtx, &services.BucketConfig{Name: name, Region: region}); err != nil {
		return err
	}

	// Object ACLs stay live while bucket-wide public policies are denied:
	// uploads are made public per object, never via bucket policy.
	callCtx, cancel = context.WithTimeout(ctx, e.callTimeout)
	defer cancel()
	if err := storage.SetPublicAccess(callCtx, name, &services.PublicAccessConfig{
		BlockPublicACLs:       false,
		IgnorePublicACLs:      false,
		BlockPublicPolicy:     true,
		RestrictPublicBuckets: true,
	}); err != nil {
		return fmt.Errorf("configure public access: %w", err)
	}

	callCtx, cancel = context.WithTimeout(ctx, e.callTimeout)
	defer cancel()
	if err := storage.SetOwnership(callCtx, name, services.OwnershipBucketOwnerPreferred); err != nil {
		return fmt.Errorf("configure ownership: %w", err)
	}
	return nil
}

// upload pushes the prepared payload into a bucket under a fresh random key
// and returns the object's public URL.
func (e *Engine) upload(ctx context.Context, storage services.Storage, bucket, region string, payload *Payload) (string, error) {
	key := NewObjectName(defaultObjectKeyLen) + payload.Ext()

	callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()
	err := storage.PutObject(callCtx, &services.PutObjectInput{
		Bucket:       bucket,
		Key:          key,
		Body:         payload.data,
		ContentType:  payload.ContentType(),
		CacheControl: cacheControl,
		ACL:          services.ACLPublicRead,
	})
	if err != nil {
		return "", err
	}
	return PublicURL(bucket, region, key), nil
}
