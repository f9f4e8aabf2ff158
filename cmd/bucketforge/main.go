// Command bucketforge provisions S3 buckets in bulk across multiple accounts
// and validates access key pairs.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/bucketforge/bucketforge"
	"github.com/bucketforge/bucketforge/internal/config"
	awsprovider "github.com/bucketforge/bucketforge/providers/aws"
	"github.com/bucketforge/bucketforge/provision"
)

// credentialRecord is one entry in the credentials JSON file.
type credentialRecord struct {
	Name            string `json:"name"`
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := config.Load()

	root := &cobra.Command{
		Use:           "bucketforge",
		Short:         "Bulk S3 bucket provisioning and credential validation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newProvisionCmd(cfg), newValidateCmd(cfg), newRegionsCmd())
	return root
}

func newEngine(cfg *config.Config) *provision.Engine {
	factory := func(ctx context.Context, cred bucketforge.Credential, region string) (bucketforge.Provider, error) {
		return awsprovider.New(ctx, cred.AccessKeyID, cred.SecretAccessKey, region)
	}
	return provision.New(factory,
		provision.WithBucketLimit(cfg.BucketLimit),
		provision.WithCallTimeout(cfg.CallTimeout),
		provision.WithNamePrefix(cfg.NamePrefix),
	)
}

func newProvisionCmd(cfg *config.Config) *cobra.Command {
	var (
		credsFile   string
		region      string
		count       int
		payloadFile string
		reportFile  string
	)

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Create buckets under every credential and upload the payload",
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, err := loadCredentials(credsFile)
			if err != nil {
				return err
			}
			if len(creds) == 0 {
				return fmt.Errorf("no credentials in %s", credsFile)
			}

			payload, err := loadPayload(payloadFile)
			if err != nil {
				return err
			}
			if payload.Empty() {
				log.Println("no payload configured, buckets will be created empty")
			}

			engine := newEngine(cfg)
			printQuotaPreflight(cmd.Context(), cmd.OutOrStdout(), engine, creds, region)

			report, err := engine.CreateBuckets(cmd.Context(), creds, provision.Request{
				Region:  region,
				Count:   count,
				Payload: payload,
			})
			if err != nil {
				return err
			}

			if err := provision.WriteReport(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if reportFile != "" {
				if err := provision.SaveReport(reportFile, report); err != nil {
					return err
				}
				log.Printf("results saved to %s", reportFile)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&credsFile, "credentials", cfg.CredentialsFile, "JSON file with credential records")
	cmd.Flags().StringVar(&region, "region", cfg.Region, "target region")
	cmd.Flags().IntVar(&count, "count", cfg.BucketCount, "buckets to create per credential")
	cmd.Flags().StringVar(&payloadFile, "payload", cfg.PayloadFile, "optional file to upload to every bucket")
	cmd.Flags().StringVar(&reportFile, "out", cfg.ReportFile, "results file path (empty to skip)")
	return cmd
}

func newValidateCmd(cfg *config.Config) *cobra.Command {
	var accessKeyID, secretAccessKey string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check whether an access key pair can authenticate and create buckets",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine := newEngine(cfg)
			outcome := engine.ValidateCredential(cmd.Context(), accessKeyID, secretAccessKey)
			fmt.Fprintf(cmd.OutOrStdout(), "Status: %s\n%s\n", outcome.Status, outcome.Message)
			return nil
		},
	}

	cmd.Flags().StringVar(&accessKeyID, "access-key-id", "", "access key ID to validate")
	cmd.Flags().StringVar(&secretAccessKey, "secret-access-key", "", "secret access key to validate")
	_ = cmd.MarkFlagRequired("access-key-id")
	_ = cmd.MarkFlagRequired("secret-access-key")
	return cmd
}

func newRegionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "regions",
		Short: "List the supported regions",
		Run: func(cmd *cobra.Command, args []string) {
			for _, r := range bucketforge.Regions() {
				fmt.Fprintln(cmd.OutOrStdout(), r)
			}
		},
	}
}

// printQuotaPreflight reports each credential's current bucket headroom
// before any creation is attempted. A failed check is informational here;
// the orchestrator re-checks and enforces the quota itself.
func printQuotaPreflight(ctx context.Context, w io.Writer, engine *provision.Engine, creds []bucketforge.Credential, region string) {
	fmt.Fprintln(w, "Quota preflight:")
	for _, cred := range creds {
		status := engine.CheckQuota(ctx, cred, region)
		if !status.Success {
			fmt.Fprintf(w, "  %s: check failed: %s\n", status.KeyName, status.Error)
			continue
		}
		fmt.Fprintf(w, "  %s: %d existing, %d remaining of %d\n",
			status.KeyName, status.Existing, status.Remaining, status.Limit)
	}
	fmt.Fprintln(w)
}

func loadCredentials(path string) ([]bucketforge.Credential, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}

	var records []credentialRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse credentials file %s: %w", path, err)
	}

	creds := make([]bucketforge.Credential, len(records))
	for i, r := range records {
		creds[i] = bucketforge.Credential{
			Name:            r.Name,
			AccessKeyID:     r.AccessKeyID,
			SecretAccessKey: r.SecretAccessKey,
		}
	}
	return creds, nil
}

func loadPayload(path string) (*provision.Payload, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open payload file: %w", err)
	}
	defer f.Close()

	return provision.PreparePayload(f.Name(), "", f)
}
