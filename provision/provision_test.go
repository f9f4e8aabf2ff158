package provision

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bucketforge/bucketforge"
	"github.com/bucketforge/bucketforge/providers/mock"
	"github.com/bucketforge/bucketforge/services"
)

// factoryFor routes each credential to its own mock provider by name,
// mirroring one provider instance per account.
func factoryFor(providers map[string]*mock.MockProvider) ClientFactory {
	return func(ctx context.Context, cred bucketforge.Credential, region string) (bucketforge.Provider, error) {
		p, ok := providers[cred.Name]
		if !ok {
			return nil, fmt.Errorf("no provider for %q", cred.Name)
		}
		return p, nil
	}
}

func pngPayload(t *testing.T) *Payload {
	t.Helper()
	p, err := PreparePayload("pic.png", "", bytes.NewReader([]byte("png-bytes")))
	require.NoError(t, err)
	return p
}

func TestCreateBuckets_NoPayload(t *testing.T) {
	provider := mock.New("us-east-1")
	engine := New(factoryFor(map[string]*mock.MockProvider{"key-a": provider}))

	report, err := engine.CreateBuckets(context.Background(),
		[]bucketforge.Credential{{Name: "key-a", AccessKeyID: "AKIA1", SecretAccessKey: "s1"}},
		Request{Region: "us-east-1", Count: 3})
	require.NoError(t, err)

	assert.Equal(t, 3, report.TotalBucketsCreated)
	assert.Equal(t, 0, report.TotalURLsGenerated)
	require.Len(t, report.KeyResults, 1)
	assert.Equal(t, 3, report.KeyResults[0].BucketsCreated)
	assert.Empty(t, report.KeyResults[0].URLs)
	assert.Empty(t, report.KeyResults[0].Errors)
	assert.Len(t, provider.BucketNames(), 3)
	assert.Equal(t, 0, provider.CallCount("PutObject"))
}

func TestCreateBuckets_WithPayload(t *testing.T) {
	provider := mock.New("eu-west-1")
	engine := New(factoryFor(map[string]*mock.MockProvider{"key-a": provider}))

	report, err := engine.CreateBuckets(context.Background(),
		[]bucketforge.Credential{{Name: "key-a", AccessKeyID: "AKIA1", SecretAccessKey: "s1"}},
		Request{Region: "eu-west-1", Count: 2, Payload: pngPayload(t)})
	require.NoError(t, err)

	assert.Equal(t, 2, report.TotalBucketsCreated)
	assert.Equal(t, 2, report.TotalURLsGenerated)

	urlPattern := regexp.MustCompile(`^https://[a-z0-9-]+\.s3\.eu-west-1\.amazonaws\.com/[a-z0-9]{30}\.png$`)
	for _, url := range report.KeyResults[0].URLs {
		assert.Regexp(t, urlPattern, url)
	}

	// every bucket is hardened and carries the uploaded object
	for _, name := range provider.BucketNames() {
		bucket, ok := provider.Bucket(name)
		require.True(t, ok)
		require.NotNil(t, bucket.PublicAccess)
		assert.False(t, bucket.PublicAccess.BlockPublicACLs)
		assert.False(t, bucket.PublicAccess.IgnorePublicACLs)
		assert.True(t, bucket.PublicAccess.BlockPublicPolicy)
		assert.True(t, bucket.PublicAccess.RestrictPublicBuckets)
		assert.Equal(t, "BucketOwnerPreferred", string(bucket.Ownership))

		require.Len(t, bucket.Objects, 1)
		for _, obj := range bucket.Objects {
			assert.Equal(t, []byte("png-bytes"), obj.Data)
			assert.Equal(t, "image/png", obj.ContentType)
			assert.Equal(t, "no-cache, no-store, must-revalidate", obj.CacheControl)
			assert.Equal(t, "public-read", string(obj.ACL))
		}
	}
}

func TestCreateBuckets_InsufficientQuota(t *testing.T) {
	existing := make([]string, 99)
	for i := range existing {
		existing[i] = fmt.Sprintf("existing-%02d", i)
	}
	provider := mock.New("us-east-1").WithBuckets(existing...)
	engine := New(factoryFor(map[string]*mock.MockProvider{"key-a": provider}))

	report, err := engine.CreateBuckets(context.Background(),
		[]bucketforge.Credential{{Name: "key-a", AccessKeyID: "AKIA1", SecretAccessKey: "s1"}},
		Request{Region: "us-east-1", Count: 2})
	require.NoError(t, err)

	assert.Equal(t, 0, report.TotalBucketsCreated)
	require.Len(t, report.KeyResults[0].Errors, 1)
	assert.Contains(t, report.KeyResults[0].Errors[0], "only 1 remaining")

	// all-or-nothing: no creation may have been attempted
	assert.Equal(t, 0, provider.CallCount("CreateBucket"))
}

func TestCreateBuckets_QuotaCheckFailure(t *testing.T) {
	provider := mock.New("us-east-1").WithError("ListBuckets", errors.New("throttled"))
	engine := New(factoryFor(map[string]*mock.MockProvider{"key-a": provider}))

	report, err := engine.CreateBuckets(context.Background(),
		[]bucketforge.Credential{{Name: "key-a", AccessKeyID: "AKIA1", SecretAccessKey: "s1"}},
		Request{Region: "us-east-1", Count: 1})
	require.NoError(t, err)

	assert.Equal(t, 0, report.TotalBucketsCreated)
	require.Len(t, report.KeyResults[0].Errors, 1)
	assert.Contains(t, report.KeyResults[0].Errors[0], "failed to check bucket limits")
	assert.Equal(t, 0, provider.CallCount("CreateBucket"))
}

func TestCreateBuckets_PartialFailure(t *testing.T) {
	providerA := mock.New("us-east-1")
	providerB := mock.New("us-east-1").
		WithErrorOn("CreateBucket", 2, &smithy.GenericAPIError{Code: "InternalError"})
	engine := New(factoryFor(map[string]*mock.MockProvider{
		"key-a": providerA,
		"key-b": providerB,
	}))

	report, err := engine.CreateBuckets(context.Background(),
		[]bucketforge.Credential{
			{Name: "key-a", AccessKeyID: "AKIA1", SecretAccessKey: "s1"},
			{Name: "key-b", AccessKeyID: "AKIA2", SecretAccessKey: "s2"},
		},
		Request{Region: "us-east-1", Count: 2})
	require.NoError(t, err)

	assert.Equal(t, 3, report.TotalBucketsCreated)

	// results keep the credential order regardless of scheduling
	require.Len(t, report.KeyResults, 2)
	assert.Equal(t, "key-a", report.KeyResults[0].KeyName)
	assert.Equal(t, "key-b", report.KeyResults[1].KeyName)

	assert.Equal(t, 2, report.KeyResults[0].BucketsCreated)
	assert.Empty(t, report.KeyResults[0].Errors)

	assert.Equal(t, 1, report.KeyResults[1].BucketsCreated)
	require.Len(t, report.KeyResults[1].Errors, 1)
	assert.Contains(t, report.KeyResults[1].Errors[0], "bucket 2")
}

func TestCreateBuckets_HardeningFailureAbandonsBucket(t *testing.T) {
	provider := mock.New("us-east-1").
		WithError("SetPublicAccess", &smithy.GenericAPIError{Code: "AccessDenied"})
	engine := New(factoryFor(map[string]*mock.MockProvider{"key-a": provider}))

	report, err := engine.CreateBuckets(context.Background(),
		[]bucketforge.Credential{{Name: "key-a", AccessKeyID: "AKIA1", SecretAccessKey: "s1"}},
		Request{Region: "us-east-1", Count: 2, Payload: pngPayload(t)})
	require.NoError(t, err)

	// created-but-unhardened buckets count as failures
	assert.Equal(t, 0, report.TotalBucketsCreated)
	assert.Equal(t, 0, report.TotalURLsGenerated)
	assert.Len(t, report.KeyResults[0].Errors, 2)

	// abandoned, not deleted, and never uploaded to
	assert.Len(t, provider.BucketNames(), 2)
	assert.Equal(t, 0, provider.CallCount("PutObject"))
	assert.Equal(t, 0, provider.CallCount("DeleteBucket"))
}

func TestCreateBuckets_UploadFailureKeepsBucket(t *testing.T) {
	provider := mock.New("us-east-1").
		WithError("PutObject", errors.New("upload broke"))
	engine := New(factoryFor(map[string]*mock.MockProvider{"key-a": provider}))

	report, err := engine.CreateBuckets(context.Background(),
		[]bucketforge.Credential{{Name: "key-a", AccessKeyID: "AKIA1", SecretAccessKey: "s1"}},
		Request{Region: "us-east-1", Count: 1, Payload: pngPayload(t)})
	require.NoError(t, err)

	assert.Equal(t, 1, report.TotalBucketsCreated)
	assert.Equal(t, 0, report.TotalURLsGenerated)
	require.Len(t, report.KeyResults[0].Errors, 1)
	assert.Contains(t, report.KeyResults[0].Errors[0], "failed to upload")
}

func TestCreateBuckets_FactoryFailure(t *testing.T) {
	engine := New(factoryFor(map[string]*mock.MockProvider{}))

	report, err := engine.CreateBuckets(context.Background(),
		[]bucketforge.Credential{{Name: "missing", AccessKeyID: "AKIA1", SecretAccessKey: "s1"}},
		Request{Region: "us-east-1", Count: 2})
	require.NoError(t, err)

	assert.Equal(t, 0, report.TotalBucketsCreated)
	require.Len(t, report.KeyResults[0].Errors, 1)
	assert.Contains(t, report.KeyResults[0].Errors[0], "failed to initialize client")
}

func TestCreateBuckets_OneCredentialFailureDoesNotBlockOthers(t *testing.T) {
	providerA := mock.New("us-east-1").WithError("ListBuckets", errors.New("down"))
	providerB := mock.New("us-east-1")
	engine := New(factoryFor(map[string]*mock.MockProvider{
		"key-a": providerA,
		"key-b": providerB,
	}))

	report, err := engine.CreateBuckets(context.Background(),
		[]bucketforge.Credential{
			{Name: "key-a", AccessKeyID: "AKIA1", SecretAccessKey: "s1"},
			{Name: "key-b", AccessKeyID: "AKIA2", SecretAccessKey: "s2"},
		},
		Request{Region: "us-east-1", Count: 2})
	require.NoError(t, err)

	assert.Equal(t, 2, report.TotalBucketsCreated)
	assert.Equal(t, 0, report.KeyResults[0].BucketsCreated)
	assert.Equal(t, 2, report.KeyResults[1].BucketsCreated)
}

func TestCreateBuckets_TotalsMatchPerKeySums(t *testing.T) {
	providers := map[string]*mock.MockProvider{
		"key-a": mock.New("us-east-1"),
		"key-b": mock.New("us-east-1"),
		"key-c": mock.New("us-east-1").WithErrorOn("CreateBucket", 1, errors.New("nope")),
	}
	engine := New(factoryFor(providers))

	report, err := engine.CreateBuckets(context.Background(),
		[]bucketforge.Credential{
			{Name: "key-a", AccessKeyID: "A", SecretAccessKey: "s"},
			{Name: "key-b", AccessKeyID: "B", SecretAccessKey: "s"},
			{Name: "key-c", AccessKeyID: "C", SecretAccessKey: "s"},
		},
		Request{Region: "us-east-1", Count: 3, Payload: pngPayload(t)})
	require.NoError(t, err)

	var buckets, urls int
	for _, kr := range report.KeyResults {
		buckets += kr.BucketsCreated
		urls += len(kr.URLs)
	}
	assert.Equal(t, report.TotalBucketsCreated, buckets)
	assert.Equal(t, report.TotalURLsGenerated, urls)
	assert.Equal(t, 8, buckets)
	assert.Equal(t, 8, urls)
}

func TestCreateBuckets_InvalidRegion(t *testing.T) {
	engine := New(factoryFor(map[string]*mock.MockProvider{}))

	_, err := engine.CreateBuckets(context.Background(), nil, Request{Region: "mars-north-1", Count: 1})
	assert.Error(t, err)
}

func TestCreateBuckets_NegativeCount(t *testing.T) {
	engine := New(factoryFor(map[string]*mock.MockProvider{}))

	_, err := engine.CreateBuckets(context.Background(), nil, Request{Region: "us-east-1", Count: -1})
	assert.Error(t, err)
}

func TestCreateBuckets_SanitizesCredentialBeforeFactory(t *testing.T) {
	var seen bucketforge.Credential
	provider := mock.New("us-east-1")
	factory := func(ctx context.Context, cred bucketforge.Credential, region string) (bucketforge.Provider, error) {
		seen = cred
		return provider, nil
	}
	engine := New(factory)

	_, err := engine.CreateBuckets(context.Background(),
		[]bucketforge.Credential{{Name: "key-a", AccessKeyID: "  akiaexample  ", SecretAccessKey: " secret \n"}},
		Request{Region: "us-east-1", Count: 0})
	require.NoError(t, err)

	assert.Equal(t, "AKIAEXAMPLE", seen.AccessKeyID)
	assert.Equal(t, "secret", seen.SecretAccessKey)
}

func TestCheckQuota(t *testing.T) {
	provider := mock.New("us-east-1").WithBuckets("one", "two", "three")
	engine := New(factoryFor(map[string]*mock.MockProvider{"key-a": provider}), WithBucketLimit(10))

	status := engine.CheckQuota(context.Background(),
		bucketforge.Credential{Name: "key-a", AccessKeyID: "A", SecretAccessKey: "s"}, "us-east-1")

	assert.True(t, status.Success)
	assert.Equal(t, "key-a", status.KeyName)
	assert.Equal(t, 3, status.Existing)
	assert.Equal(t, 7, status.Remaining)
	assert.Equal(t, 10, status.Limit)
	assert.Empty(t, status.Error)
}

func TestCheckQuota_ListFailure(t *testing.T) {
	provider := mock.New("us-east-1").WithError("ListBuckets", errors.New("no route to host"))
	engine := New(factoryFor(map[string]*mock.MockProvider{"key-a": provider}))

	status := engine.CheckQuota(context.Background(),
		bucketforge.Credential{Name: "key-a", AccessKeyID: "A", SecretAccessKey: "s"}, "us-east-1")

	assert.False(t, status.Success)
	assert.Equal(t, 100, status.Limit)
	assert.Contains(t, status.Error, "no route to host")
}

// stalledProvider wraps a mock provider so that one storage operation hangs
// until its context expires, mimicking an unresponsive provider endpoint.
type stalledProvider struct {
	inner *mock.MockProvider
	op    string
}

func (p *stalledProvider) Storage() services.Storage {
	return &stalledStorage{inner: p.inner.Storage(), op: p.op}
}

func (p *stalledProvider) Name() string   { return p.inner.Name() }
func (p *stalledProvider) Region() string { return p.inner.Region() }

type stalledStorage struct {
	inner services.Storage
	op    string
}

func (s *stalledStorage) stall(ctx context.Context, op string) error {
	if op != s.op {
		return nil
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *stalledStorage) CreateBucket(ctx context.Context, config *services.BucketConfig) error {
	if err := s.stall(ctx, "CreateBucket"); err != nil {
		return err
	}
	return s.inner.CreateBucket(ctx, config)
}

func (s *stalledStorage) DeleteBucket(ctx context.Context, name string) error {
	if err := s.stall(ctx, "DeleteBucket"); err != nil {
		return err
	}
	return s.inner.DeleteBucket(ctx, name)
}

func (s *stalledStorage) ListBuckets(ctx context.Context) ([]string, error) {
	if err := s.stall(ctx, "ListBuckets"); err != nil {
		return nil, err
	}
	return s.inner.ListBuckets(ctx)
}

func (s *stalledStorage) SetPublicAccess(ctx context.Context, bucket string, config *services.PublicAccessConfig) error {
	if err := s.stall(ctx, "SetPublicAccess"); err != nil {
		return err
	}
	return s.inner.SetPublicAccess(ctx, bucket, config)
}

func (s *stalledStorage) SetOwnership(ctx context.Context, bucket string, ownership services.ObjectOwnership) error {
	if err := s.stall(ctx, "SetOwnership"); err != nil {
		return err
	}
	return s.inner.SetOwnership(ctx, bucket, ownership)
}

func (s *stalledStorage) PutObject(ctx context.Context, input *services.PutObjectInput) error {
	if err := s.stall(ctx, "PutObject"); err != nil {
		return err
	}
	return s.inner.PutObject(ctx, input)
}

func TestCreateBuckets_CallTimeoutOnQuotaCheck(t *testing.T) {
	stuck := &stalledProvider{inner: mock.New("us-east-1"), op: "ListBuckets"}
	healthy := mock.New("us-east-1")
	factory := func(ctx context.Context, cred bucketforge.Credential, region string) (bucketforge.Provider, error) {
		if cred.Name == "key-a" {
			return stuck, nil
		}
		return healthy, nil
	}
	engine := New(factory, WithCallTimeout(20*time.Millisecond))

	report, err := engine.CreateBuckets(context.Background(),
		[]bucketforge.Credential{
			{Name: "key-a", AccessKeyID: "A", SecretAccessKey: "s"},
			{Name: "key-b", AccessKeyID: "B", SecretAccessKey: "s"},
		},
		Request{Region: "us-east-1", Count: 2})
	require.NoError(t, err)

	// the hung call expires as an ordinary captured failure
	require.Len(t, report.KeyResults[0].Errors, 1)
	assert.Contains(t, report.KeyResults[0].Errors[0], "failed to check bucket limits")
	assert.Contains(t, report.KeyResults[0].Errors[0], "context deadline exceeded")
	assert.Equal(t, 0, report.KeyResults[0].BucketsCreated)

	// and never holds up the other credential's run
	assert.Equal(t, 2, report.KeyResults[1].BucketsCreated)
	assert.Equal(t, 2, report.TotalBucketsCreated)
}

func TestCreateBuckets_CallTimeoutOnCreateIsPerBucketFailure(t *testing.T) {
	stuck := &stalledProvider{inner: mock.New("us-east-1"), op: "CreateBucket"}
	factory := func(ctx context.Context, cred bucketforge.Credential, region string) (bucketforge.Provider, error) {
		return stuck, nil
	}
	engine := New(factory, WithCallTimeout(20*time.Millisecond))

	report, err := engine.CreateBuckets(context.Background(),
		[]bucketforge.Credential{{Name: "key-a", AccessKeyID: "A", SecretAccessKey: "s"}},
		Request{Region: "us-east-1", Count: 2})
	require.NoError(t, err)

	// each iteration times out independently and the loop keeps going
	assert.Equal(t, 0, report.TotalBucketsCreated)
	require.Len(t, report.KeyResults[0].Errors, 2)
	assert.Contains(t, report.KeyResults[0].Errors[0], "bucket 1")
	assert.Contains(t, report.KeyResults[0].Errors[1], "bucket 2")
	for _, e := range report.KeyResults[0].Errors {
		assert.Contains(t, e, "context deadline exceeded")
	}
}

func TestCreateBuckets_CallTimeoutOnUploadKeepsBucket(t *testing.T) {
	stuck := &stalledProvider{inner: mock.New("us-east-1"), op: "PutObject"}
	factory := func(ctx context.Context, cred bucketforge.Credential, region string) (bucketforge.Provider, error) {
		return stuck, nil
	}
	engine := New(factory, WithCallTimeout(20*time.Millisecond))

	report, err := engine.CreateBuckets(context.Background(),
		[]bucketforge.Credential{{Name: "key-a", AccessKeyID: "A", SecretAccessKey: "s"}},
		Request{Region: "us-east-1", Count: 1, Payload: pngPayload(t)})
	require.NoError(t, err)

	assert.Equal(t, 1, report.TotalBucketsCreated)
	assert.Equal(t, 0, report.TotalURLsGenerated)
	require.Len(t, report.KeyResults[0].Errors, 1)
	assert.Contains(t, report.KeyResults[0].Errors[0], "failed to upload")
	assert.Contains(t, report.KeyResults[0].Errors[0], "context deadline exceeded")
}
