package provision

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *Report {
	return &Report{
		Region:           "eu-west-1",
		BucketsRequested: 2,
		KeyResults: []KeyResult{
			{
				KeyName:        "prod-key",
				BucketsCreated: 2,
				URLs: []string{
					"https://b1.s3.eu-west-1.amazonaws.com/k1.png",
					"https://b2.s3.eu-west-1.amazonaws.com/k2.png",
				},
				Errors: []string{},
			},
			{
				KeyName:        "stale-key",
				BucketsCreated: 0,
				URLs:           []string{},
				Errors:         []string{"failed to check bucket limits: throttled"},
			},
		},
		TotalBucketsCreated: 2,
		TotalURLsGenerated:  2,
		CreatedAt:           time.Date(2026, 8, 30, 12, 30, 0, 0, time.UTC),
	}
}

func TestWriteReport(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, WriteReport(&sb, sampleReport()))
	out := sb.String()

	assert.Contains(t, out, "Bucket Creation Results")
	assert.Contains(t, out, "Date: 2026-08-30 12:30:00")
	assert.Contains(t, out, "Region: eu-west-1")
	assert.Contains(t, out, "Buckets Requested per Key: 2")
	assert.Contains(t, out, "Total Buckets Created: 2")
	assert.Contains(t, out, "Total URLs Generated: 2")

	assert.Contains(t, out, "prod-key")
	assert.Contains(t, out, "  https://b1.s3.eu-west-1.amazonaws.com/k1.png")

	assert.Contains(t, out, "stale-key")
	assert.Contains(t, out, "  - failed to check bucket limits: throttled")

	// sections appear grouped per credential, in order, each closed by a
	// blank separator line
	assert.Less(t, strings.Index(out, "prod-key"), strings.Index(out, "stale-key"))
	assert.Contains(t, out, "https://b2.s3.eu-west-1.amazonaws.com/k2.png\n\n")
	assert.True(t, strings.HasSuffix(out, "throttled\n\n"))
}

func TestSaveReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.txt")
	require.NoError(t, SaveReport(path, sampleReport()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Bucket Creation Results")
}
