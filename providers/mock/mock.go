// Package mock provides an in-memory provider implementation for testing.
//
// The mock provider keeps bucket and object state in memory, records every
// operation for verification, and supports error injection either on every
// call to an operation or on one specific call, which makes partial-failure
// scenarios easy to script:
//
//	provider := mock.New("us-east-1").
//	    WithBuckets("pre-existing-1", "pre-existing-2").
//	    WithError("PutObject", errors.New("upload failed")).
//	    WithErrorOn("CreateBucket", 2, &smithy.GenericAPIError{Code: "AccessDenied"})
package mock

import (
	"sync"

	"github.com/bucketforge/bucketforge/services"
)

// ObjectState is one stored object plus the metadata it was uploaded with.
type ObjectState struct {
	Data         []byte
	ContentType  string
	CacheControl string
	ACL          services.ObjectACL
}

// BucketState is one in-memory bucket.
type BucketState struct {
	Name         string
	Region       string
	PublicAccess *services.PublicAccessConfig
	Ownership    services.ObjectOwnership
	Objects      map[string]*ObjectState
}

// MockProvider implements bucketforge.Provider against in-memory state.
// Safe for concurrent use.
type MockProvider struct {
	region string

	mu         sync.RWMutex
	buckets    map[string]*BucketState
	errors     map[string]error
	errorsOn   map[string]map[int]error
	callCounts map[string]int
}

// New creates a mock provider scoped to region.
func New(region string) *MockProvider {
	return &MockProvider{
		region:     region,
		buckets:    make(map[string]*BucketState),
		errors:     make(map[string]error),
		errorsOn:   make(map[string]map[int]error),
		callCounts: make(map[string]int),
	}
}

// WithError makes every call to operation fail with err.
func (m *MockProvider) WithError(operation string, err error) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[operation] = err
	return m
}

// WithErrorOn makes only the call-th invocation (1-based) of operation fail
// with err. Other invocations behave normally.
func (m *MockProvider) WithErrorOn(operation string, call int, err error) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.errorsOn[operation] == nil {
		m.errorsOn[operation] = make(map[int]error)
	}
	m.errorsOn[operation][call] = err
	return m
}

// WithBuckets pre-populates the provider with existing buckets, useful for
// quota scenarios.
func (m *MockProvider) WithBuckets(names ...string) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, name := range names {
		m.buckets[name] = &BucketState{
			Name:    name,
			Region:  m.region,
			Objects: make(map[string]*ObjectState),
		}
	}
	return m
}

// Storage returns the in-memory storage service.
func (m *MockProvider) Storage() services.Storage {
	return &MockStorage{provider: m}
}

// Name returns "mock".
func (m *MockProvider) Name() string {
	return "mock"
}

// Region returns the configured region.
func (m *MockProvider) Region() string {
	return m.region
}

// CallCount returns how many times operation was invoked.
func (m *MockProvider) CallCount(operation string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.callCounts[operation]
}

// WasCalled reports whether operation was invoked at least once.
func (m *MockProvider) WasCalled(operation string) bool {
	return m.CallCount(operation) > 0
}

// Bucket returns the state of a bucket by name.
func (m *MockProvider) Bucket(name string) (*BucketState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.buckets[name]
	return b, ok
}

// BucketNames returns the names of all buckets currently held.
func (m *MockProvider) BucketNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.buckets))
	for name := range m.buckets {
		names = append(names, name)
	}
	return names
}

// checkError counts the invocation and returns the injected error, if any.
// Must be called exactly once per storage operation.
func (m *MockProvider) checkError(operation string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCounts[operation]++
	if err, ok := m.errorsOn[operation][m.callCounts[operation]]; ok {
		return err
	}
	return m.errors[operation]
}
