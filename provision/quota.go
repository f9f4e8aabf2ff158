package provision

import (
	"context"
	"fmt"

	"github.com/bucketforge/bucketforge"
	"github.com/bucketforge/bucketforge/services"
)

// QuotaStatus is one credential's bucket headroom at the moment of the check.
// Derived fresh every time; a prior check can be stale by the time creation
// executes.
type QuotaStatus struct {
	KeyName   string `json:"key_name"`
	Existing  int    `json:"existing"`
	Remaining int    `json:"remaining"`
	Limit     int    `json:"limit"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
}

// CheckQuota queries the current bucket count for one credential and computes
// the remaining headroom against the configured limit. Provider failures are
// captured in the status, never returned.
func (e *Engine) CheckQuota(ctx context.Context, cred bucketforge.Credential, region string) QuotaStatus {
	provider, err := e.factory(ctx, cred.Sanitize(), region)
	if err != nil {
		return QuotaStatus{
			KeyName: cred.Name,
			Limit:   e.bucketLimit,
			Error:   fmt.Sprintf("failed to initialize client: %v", err),
		}
	}
	return e.checkQuota(ctx, provider.Storage(), cred.Name)
}

func (e *Engine) checkQuota(ctx context.Context, storage services.Storage, keyName string) QuotaStatus {
	callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()

	buckets, err := storage.ListBuckets(callCtx)
	if err != nil {
		return QuotaStatus{
			KeyName: keyName,
			Limit:   e.bucketLimit,
			Error:   err.Error(),
		}
	}
	return QuotaStatus{
		KeyName:   keyName,
		Existing:  len(buckets),
		Remaining: e.bucketLimit - len(buckets),
		Limit:     e.bucketLimit,
		Success:   true,
	}
}
