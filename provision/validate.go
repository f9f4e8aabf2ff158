package provision

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/bucketforge/bucketforge"
	"github.com/bucketforge/bucketforge/services"
)

// ValidateCredential probes an access key pair's health with two live checks:
// list buckets (authentication) and create+delete a throwaway bucket (write
// authorization). Strictly linear, no retries; a transient blip during either
// probe reports as that probe's failure outcome and retry policy belongs to
// the caller.
func (e *Engine) ValidateCredential(ctx context.Context, accessKeyID, secretAccessKey string) bucketforge.ValidationOutcome {
	cred := bucketforge.Credential{
		AccessKeyID:     accessKeyID,
		SecretAccessKey: secretAccessKey,
	}.Sanitize()

	provider, err := e.factory(ctx, cred, bucketforge.DefaultRegion)
	if err != nil {
		return bucketforge.ValidationOutcome{
			Status:  bucketforge.StatusInvalid,
			Message: fmt.Sprintf("failed to initialize client: %v", err),
		}
	}
	storage := provider.Storage()

	if outcome, ok := e.probeList(ctx, storage); !ok {
		return outcome
	}
	return e.probeCreate(ctx, storage)
}

// probeList tests basic authentication. ok is true only when the next probe
// should run.
func (e *Engine) probeList(ctx context.Context, storage services.Storage) (bucketforge.ValidationOutcome, bool) {
	callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()

	_, err := storage.ListBuckets(callCtx)
	if err == nil {
		return bucketforge.ValidationOutcome{}, true
	}

	code, isAPI := bucketforge.APIErrorCode(err)
	if !isAPI {
		// Never reached the provider: no credentials at all, DNS, timeouts.
		return bucketforge.ValidationOutcome{
			Status:  bucketforge.StatusInvalid,
			Message: fmt.Sprintf("cannot reach provider: %v", err),
		}, false
	}

	switch code {
	case bucketforge.ErrCodeInvalidAccessKeyID:
		return bucketforge.ValidationOutcome{
			Status:  bucketforge.StatusInvalid,
			Message: "invalid access key ID",
		}, false
	case bucketforge.ErrCodeSignatureDoesNotMatch:
		return bucketforge.ValidationOutcome{
			Status:  bucketforge.StatusInvalid,
			Message: "invalid secret access key",
		}, false
	case bucketforge.ErrCodeTokenRefreshRequired:
		return bucketforge.ValidationOutcome{
			Status:  bucketforge.StatusExpired,
			Message: "credentials have expired",
		}, false
	case bucketforge.ErrCodeAccessDenied:
		return bucketforge.ValidationOutcome{
			Status:  bucketforge.StatusNoPermissions,
			Message: "access denied - insufficient permissions",
		}, false
	default:
		return bucketforge.ValidationOutcome{
			Status:  bucketforge.StatusInvalid,
			Message: fmt.Sprintf("provider error: %s", code),
		}, false
	}
}

// probeCreate tests write authorization by creating and deleting a uniquely
// named bucket. A name collision still proves write capability: the request
// reached authorization logic. A delete failure after a successful create is
// ignored; immediate post-create deletes can hit eventual-consistency windows
// and must not read as a validation failure.
func (e *Engine) probeCreate(ctx context.Context, storage services.Storage) bucketforge.ValidationOutcome {
	name := "credcheck-" + uuid.NewString()

	callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()
	err := storage.CreateBucket(callCtx, &services.BucketConfig{
		Name:   name,
		Region: bucketforge.DefaultRegion,
	})
	if err == nil {
		delCtx, delCancel := context.WithTimeout(ctx, e.callTimeout)
		defer delCancel()
		_ = storage.DeleteBucket(delCtx, name)
		return bucketforge.ValidationOutcome{
			Status:  bucketforge.StatusActive,
			Message: "credentials are valid and can create buckets",
		}
	}

	if bucketforge.IsBucketCollision(err) {
		return bucketforge.ValidationOutcome{
			Status:  bucketforge.StatusActive,
			Message: "credentials are valid (test bucket name collision)",
		}
	}

	code, isAPI := bucketforge.APIErrorCode(err)
	if !isAPI {
		return bucketforge.ValidationOutcome{
			Status:  bucketforge.StatusInvalid,
			Message: fmt.Sprintf("validation error: %v", err),
		}
	}
	if code == bucketforge.ErrCodeAccessDenied {
		return bucketforge.ValidationOutcome{
			Status:  bucketforge.StatusNoPermissions,
			Message: "credentials are valid but lack bucket creation permissions",
		}
	}
	return bucketforge.ValidationOutcome{
		Status:  bucketforge.StatusNoPermissions,
		Message: fmt.Sprintf("limited permissions: %s", code),
	}
}
