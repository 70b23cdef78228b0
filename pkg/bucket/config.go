// Package bucket implements listing and key lifecycle primitives for AWS S3
// and S3-compatible object stores.
package bucket

import "time"

// Config configures a bucket client.
//
// Authentication priority (AWS SDK v2 default chain):
//  1. Explicit AccessKeyID/SecretAccessKey (if provided)
//  2. Environment variables (AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY)
//  3. Shared credentials file (~/.aws/credentials)
//  4. Shared config file (~/.aws/config) with profile
//  5. EC2 instance metadata / ECS task role / EKS IRSA
type Config struct {
	// Region is the AWS region.
	// For AWS S3: defaults to us-east-1 if not specified via config or environment.
	// For S3-compatible (when Endpoint is set): no default applied.
	Region string

	// Endpoint is a custom endpoint URL for S3-compatible stores.
	// Leave empty for AWS S3.
	Endpoint string

	// Profile is the AWS profile name to use from shared config.
	// Leave empty to use the default profile or environment credentials.
	Profile string

	// AccessKeyID is an explicit access key. If set, SecretAccessKey must also be set.
	// This takes precedence over the default credential chain.
	AccessKeyID string

	// SecretAccessKey is an explicit secret key. Required if AccessKeyID is set.
	SecretAccessKey string

	// ForcePathStyle forces path-style URLs (bucket in path, not subdomain).
	// Required for most S3-compatible stores and useful for local development.
	ForcePathStyle bool

	// MaxKeys is the default page size for List operations.
	// Zero uses the provider default (1000). Values over 1000 are clamped.
	MaxKeys int

	// PageTimeout bounds each listing page and each copy/delete call.
	// Zero uses DefaultPageTimeout.
	PageTimeout time.Duration

	// PageRetries is the number of times a transient listing-page failure
	// is retried with the same continuation token before the fetch fails.
	// Zero uses DefaultPageRetries.
	PageRetries int
}

// DefaultMaxKeys is the default page size for List operations.
const DefaultMaxKeys = 1000

// MaxAllowedKeys is the maximum page size allowed by S3.
const MaxAllowedKeys = 1000

// DefaultAWSRegion is the fallback region for AWS S3 when not specified.
const DefaultAWSRegion = "us-east-1"

// DefaultPageTimeout bounds a single network call when the config does not.
const DefaultPageTimeout = 30 * time.Second

// DefaultPageRetries is the default same-token retry budget per page.
const DefaultPageRetries = 3

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "bucket config: " + e.Field + ": " + e.Message
}

// Validate checks that the configuration is coherent.
func (c *Config) Validate() error {
	// If one explicit credential is set, both must be set
	if (c.AccessKeyID != "") != (c.SecretAccessKey != "") {
		return &ConfigError{
			Field:   "AccessKeyID/SecretAccessKey",
			Message: "both access key ID and secret access key must be provided together",
		}
	}
	return nil
}

func (c *Config) pageTimeout() time.Duration {
	if c.PageTimeout > 0 {
		return c.PageTimeout
	}
	return DefaultPageTimeout
}

func (c *Config) pageRetries() int {
	if c.PageRetries > 0 {
		return c.PageRetries
	}
	return DefaultPageRetries
}

// clampMaxKeys applies defaults and limits to maxKeys values.
func clampMaxKeys(requested, clientDefault int) int {
	if requested <= 0 {
		requested = clientDefault
	}
	if requested > MaxAllowedKeys {
		return MaxAllowedKeys
	}
	return requested
}

// resolveRegion determines the final region after SDK config loading.
//
// The SDK has already applied explicit config, environment, and profile
// resolution; this only supplies the AWS fallback default. S3-compatible
// stores (endpoint set) get no default.
func resolveRegion(endpoint, sdkRegion string) string {
	if sdkRegion != "" {
		return sdkRegion
	}
	if endpoint == "" {
		return DefaultAWSRegion
	}
	return ""
}
