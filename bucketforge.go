// Package bucketforge defines the shared types for the bucket provisioning
// engine: credentials, provider abstraction, validation outcomes, and the
// classification of provider error codes that the engine folds into results.
package bucketforge

import (
	"errors"
	"strings"

	"github.com/aws/smithy-go"

	"github.com/bucketforge/bucketforge/services"
)

// Credential is one account's access key pair plus a display name.
// The engine uses credentials transiently per call and never persists them.
// Secret material must never appear in logs or result messages.
type Credential struct {
	// Name is the operator-facing label for this key (e.g. "prod-account-2").
	Name string

	// AccessKeyID identifies the key. Normalized to uppercase before use.
	AccessKeyID string

	// SecretAccessKey is the signing secret. Treated as opaque.
	SecretAccessKey string
}

// Sanitize returns a copy with surrounding whitespace stripped from both key
// parts and the access key ID uppercased (provider convention). Pure; the
// receiver is not modified.
func (c Credential) Sanitize() Credential {
	c.AccessKeyID = strings.ToUpper(strings.TrimSpace(c.AccessKeyID))
	c.SecretAccessKey = strings.TrimSpace(c.SecretAccessKey)
	return c
}

// ValidationStatus is the closed outcome set of a credential health check.
type ValidationStatus string

const (
	// StatusActive means the credential authenticated and can create buckets.
	StatusActive ValidationStatus = "active"

	// StatusInvalid means the credential failed authentication outright.
	StatusInvalid ValidationStatus = "invalid"

	// StatusExpired means the credential authenticated once but needs a refresh.
	StatusExpired ValidationStatus = "expired"

	// StatusNoPermissions means the credential authenticates but is not
	// authorized for the operations the engine needs.
	StatusNoPermissions ValidationStatus = "no_permissions"
)

// ValidationOutcome pairs a status with a human-readable explanation.
// The caller is responsible for persisting it against its credential record.
type ValidationOutcome struct {
	Status  ValidationStatus `json:"status"`
	Message string           `json:"message"`
}

// Provider is a region-scoped handle to one account at the storage provider.
// Each Provider is built from exactly one credential; different credentials
// get independent Provider instances and can be used concurrently.
type Provider interface {
	// Storage returns the object storage service for this account.
	Storage() services.Storage

	// Name returns the provider name (e.g. "aws", "mock").
	Name() string

	// Region returns the region this provider was scoped to.
	Region() string
}

// Well-known provider error codes the engine classifies on. Anything outside
// this set falls through to the catch-all branches with the raw code surfaced.
const (
	ErrCodeInvalidAccessKeyID      = "InvalidAccessKeyId"
	ErrCodeSignatureDoesNotMatch   = "SignatureDoesNotMatch"
	ErrCodeTokenRefreshRequired    = "TokenRefreshRequired"
	ErrCodeAccessDenied            = "AccessDenied"
	ErrCodeBucketAlreadyExists     = "BucketAlreadyExists"
	ErrCodeBucketAlreadyOwnedByYou = "BucketAlreadyOwnedByYou"
)

// APIErrorCode extracts the provider's error code from err, unwrapping as
// needed. ok is false for transport-level failures (connection refused, DNS,
// timeouts) that never produced an API response.
func APIErrorCode(err error) (code string, ok bool) {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode(), true
	}
	return "", false
}

// IsBucketCollision reports whether err is a bucket name collision. A
// collision proves the request reached authorization logic, so the validator
// treats it as evidence of write capability rather than failure.
func IsBucketCollision(err error) bool {
	code, ok := APIErrorCode(err)
	return ok && (code == ErrCodeBucketAlreadyExists || code == ErrCodeBucketAlreadyOwnedByYou)
}
