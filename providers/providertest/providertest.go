// Package providertest runs the storage contract against any provider
// implementation. Real providers can be exercised with it in integration
// tests; the in-memory mock runs it on every unit test pass.
package providertest

import (
	"context"
	"testing"

	"github.com/bucketforge/bucketforge"
	"github.com/bucketforge/bucketforge/services"
)

// Run drives a full bucket lifecycle through the provider's storage service
// and fails the test on any contract violation. The provider must be safe to
// create and delete buckets in; do not point it at an account you care about.
func Run(t *testing.T, provider bucketforge.Provider) {
	t.Helper()
	ctx := context.Background()

	if provider.Name() == "" {
		t.Error("provider Name() returned empty string")
	}
	if provider.Region() == "" {
		t.Error("provider Region() returned empty string")
	}

	storage := provider.Storage()
	if storage == nil {
		t.Fatal("provider Storage() returned nil")
	}

	const bucket = "providertest-contract-bucket"

	if err := storage.CreateBucket(ctx, &services.BucketConfig{Name: bucket, Region: provider.Region()}); err != nil {
		t.Fatalf("CreateBucket failed: %v", err)
	}

	names, err := storage.ListBuckets(ctx)
	if err != nil {
		t.Fatalf("ListBuckets failed: %v", err)
	}
	if !contains(names, bucket) {
		t.Errorf("ListBuckets = %v, missing %q", names, bucket)
	}

	// Creating the same name twice must surface a collision code.
	err = storage.CreateBucket(ctx, &services.BucketConfig{Name: bucket, Region: provider.Region()})
	if err == nil {
		t.Error("CreateBucket with duplicate name succeeded, want collision error")
	} else if !bucketforge.IsBucketCollision(err) {
		t.Errorf("duplicate CreateBucket error = %v, want a collision code", err)
	}

	if err := storage.SetPublicAccess(ctx, bucket, &services.PublicAccessConfig{
		BlockPublicPolicy:     true,
		RestrictPublicBuckets: true,
	}); err != nil {
		t.Errorf("SetPublicAccess failed: %v", err)
	}

	if err := storage.SetOwnership(ctx, bucket, services.OwnershipBucketOwnerPreferred); err != nil {
		t.Errorf("SetOwnership failed: %v", err)
	}

	if err := storage.PutObject(ctx, &services.PutObjectInput{
		Bucket:      bucket,
		Key:         "contract-object",
		Body:        []byte("contract"),
		ContentType: "application/octet-stream",
		ACL:         services.ACLPublicRead,
	}); err != nil {
		t.Errorf("PutObject failed: %v", err)
	}

	if err := storage.DeleteBucket(ctx, bucket); err != nil {
		t.Errorf("DeleteBucket failed: %v", err)
	}
}

func contains(names []string, want string) bool {
	for _, n := range names {
		if n == want {
			return true
		}
	}
	return false
}
