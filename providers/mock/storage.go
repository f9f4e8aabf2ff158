package mock

import (
	"context"
	"fmt"

	"github.com/aws/smithy-go"

	"github.com/bucketforge/bucketforge/services"
)

// MockStorage implements services.Storage against the provider's in-memory
// state. All operations honor injected errors before touching state.
type MockStorage struct {
	provider *MockProvider
}

// CreateBucket creates a bucket in memory. A name collision returns the same
// error code the real provider would, so classification paths stay testable.
func (s *MockStorage) CreateBucket(ctx context.Context, config *services.BucketConfig) error {
	if err := s.provider.checkError("CreateBucket"); err != nil {
		return err
	}

	s.provider.mu.Lock()
	defer s.provider.mu.Unlock()
	if _, exists := s.provider.buckets[config.Name]; exists {
		return &smithy.GenericAPIError{
			Code:    "BucketAlreadyExists",
			Message: fmt.Sprintf("bucket %q already exists", config.Name),
		}
	}
	s.provider.buckets[config.Name] = &BucketState{
		Name:    config.Name,
		Region:  config.Region,
		Objects: make(map[string]*ObjectState),
	}
	return nil
}

// DeleteBucket removes a bucket from memory.
func (s *MockStorage) DeleteBucket(ctx context.Context, name string) error {
	if err := s.provider.checkError("DeleteBucket"); err != nil {
		return err
	}

	s.provider.mu.Lock()
	defer s.provider.mu.Unlock()
	if _, exists := s.provider.buckets[name]; !exists {
		return &smithy.GenericAPIError{
			Code:    "NoSuchBucket",
			Message: fmt.Sprintf("bucket %q does not exist", name),
		}
	}
	delete(s.provider.buckets, name)
	return nil
}

// ListBuckets returns the names of all buckets currently held.
func (s *MockStorage) ListBuckets(ctx context.Context) ([]string, error) {
	if err := s.provider.checkError("ListBuckets"); err != nil {
		return nil, err
	}
	return s.provider.BucketNames(), nil
}

// SetPublicAccess records the public access configuration on the bucket.
func (s *MockStorage) SetPublicAccess(ctx context.Context, bucket string, config *services.PublicAccessConfig) error {
	if err := s.provider.checkError("SetPublicAccess"); err != nil {
		return err
	}

	s.provider.mu.Lock()
	defer s.provider.mu.Unlock()
	b, exists := s.provider.buckets[bucket]
	if !exists {
		return &smithy.GenericAPIError{Code: "NoSuchBucket"}
	}
	cfg := *config
	b.PublicAccess = &cfg
	return nil
}

// SetOwnership records the ownership rule on the bucket.
func (s *MockStorage) SetOwnership(ctx context.Context, bucket string, ownership services.ObjectOwnership) error {
	if err := s.provider.checkError("SetOwnership"); err != nil {
		return err
	}

	s.provider.mu.Lock()
	defer s.provider.mu.Unlock()
	b, exists := s.provider.buckets[bucket]
	if !exists {
		return &smithy.GenericAPIError{Code: "NoSuchBucket"}
	}
	b.Ownership = ownership
	return nil
}

// PutObject stores an object and its upload metadata on the bucket.
func (s *MockStorage) PutObject(ctx context.Context, input *services.PutObjectInput) error {
	if err := s.provider.checkError("PutObject"); err != nil {
		return err
	}

	s.provider.mu.Lock()
	defer s.provider.mu.Unlock()
	b, exists := s.provider.buckets[input.Bucket]
	if !exists {
		return &smithy.GenericAPIError{Code: "NoSuchBucket"}
	}
	data := make([]byte, len(input.Body))
	copy(data, input.Body)
	b.Objects[input.Key] = &ObjectState{
		Data:         data,
		ContentType:  input.ContentType,
		CacheControl: input.CacheControl,
		ACL:          input.ACL,
	}
	return nil
}
