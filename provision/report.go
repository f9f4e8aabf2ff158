package provision

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// WriteReport renders a human-readable summary of one run, grouped by
// credential name. Convenience export only; the format carries no
// round-trip guarantee.
func WriteReport(w io.Writer, r *Report) error {
	var b strings.Builder

	b.WriteString("Bucket Creation Results\n")
	b.WriteString("=======================\n")
	fmt.Fprintf(&b, "Date: %s\n", r.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Region: %s\n", r.Region)
	fmt.Fprintf(&b, "Buckets Requested per Key: %d\n", r.BucketsRequested)
	fmt.Fprintf(&b, "Total Buckets Created: %d\n", r.TotalBucketsCreated)
	fmt.Fprintf(&b, "Total URLs Generated: %d\n", r.TotalURLsGenerated)

	for _, kr := range r.KeyResults {
		fmt.Fprintf(&b, "\n%s\n", kr.KeyName)
		fmt.Fprintf(&b, "Buckets Created: %d\n", kr.BucketsCreated)

		if len(kr.Errors) > 0 {
			b.WriteString("Errors:\n")
			for _, e := range kr.Errors {
				fmt.Fprintf(&b, "  - %s\n", e)
			}
		}
		if len(kr.URLs) > 0 {
			b.WriteString("Generated URLs:\n")
			for _, u := range kr.URLs {
				fmt.Fprintf(&b, "  %s\n", u)
			}
		}
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// SaveReport writes the summary to a file, truncating any previous run.
func SaveReport(path string, r *Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create results file: %w", err)
	}
	defer f.Close()

	if err := WriteReport(f, r); err != nil {
		return fmt.Errorf("write results file: %w", err)
	}
	return f.Close()
}
