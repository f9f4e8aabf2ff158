// Package config loads CLI configuration from environment variables.
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/bucketforge/bucketforge"
	"github.com/bucketforge/bucketforge/provision"
)

// Config holds the runtime defaults for the CLI. Command-line flags override
// any of these.
type Config struct {
	// CredentialsFile is a JSON file with the access key records to use.
	CredentialsFile string

	// Region is the default target region for provisioning.
	Region string

	// BucketCount is the default number of buckets per credential.
	BucketCount int

	// PayloadFile is an optional file uploaded to every created bucket.
	PayloadFile string

	// ReportFile is where the plain-text results summary is written.
	ReportFile string

	// NamePrefix is an optional fixed prefix for generated bucket names.
	NamePrefix string

	// BucketLimit is the per-account bucket ceiling used for quota math.
	BucketLimit int

	// CallTimeout bounds each individual provider call.
	CallTimeout time.Duration
}

// Load reads configuration from a .env file (if present) and environment
// variables, falling back to engine defaults.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, reading from environment")
	}

	return &Config{
		CredentialsFile: getEnv("BUCKETFORGE_CREDENTIALS", "credentials.json"),
		Region:          getEnv("BUCKETFORGE_REGION", bucketforge.DefaultRegion),
		BucketCount:     getEnvInt("BUCKETFORGE_COUNT", 1),
		PayloadFile:     getEnv("BUCKETFORGE_PAYLOAD", ""),
		ReportFile:      getEnv("BUCKETFORGE_REPORT", "bucket_creation_results.txt"),
		NamePrefix:      getEnv("BUCKETFORGE_NAME_PREFIX", ""),
		BucketLimit:     getEnvInt("BUCKETFORGE_BUCKET_LIMIT", provision.DefaultBucketLimit),
		CallTimeout:     getEnvDuration("BUCKETFORGE_CALL_TIMEOUT", provision.DefaultCallTimeout),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}
