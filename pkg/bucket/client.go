package bucket

import (
	"context"
	"iter"
	"net/url"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/redshift-tools/s3recon/pkg/objectkey"
)

// s3API is the slice of the S3 client the bucket package uses.
// Narrowing the surface keeps the client testable without a live endpoint.
type s3API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	CopyObject(ctx context.Context, params *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Client lists and mutates keys in S3 buckets.
//
// Client is safe for concurrent use. It holds no per-call state; each
// operation is an independent request against the store.
type Client struct {
	api     s3API
	maxKeys int
	timeout time.Duration
	retries int
}

// New creates a bucket client with the given configuration.
//
// The client uses AWS SDK v2's default credential chain unless explicit
// credentials are provided in the config.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	awsCfg, err := loadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, &StoreError{Op: "New", Err: err}
	}

	s3Opts := []func(*s3.Options){
		func(o *s3.Options) {
			if cfg.ForcePathStyle {
				o.UsePathStyle = true
			}
		},
	}

	// Custom endpoint for S3-compatible stores
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	return newWithAPI(s3.NewFromConfig(awsCfg, s3Opts...), cfg), nil
}

// newWithAPI wires a client over an existing API implementation.
func newWithAPI(api s3API, cfg Config) *Client {
	maxKeys := cfg.MaxKeys
	if maxKeys <= 0 {
		maxKeys = DefaultMaxKeys
	}

	return &Client{
		api:     api,
		maxKeys: maxKeys,
		timeout: cfg.pageTimeout(),
		retries: cfg.pageRetries(),
	}
}

// loadAWSConfig builds the AWS configuration with appropriate credentials.
func loadAWSConfig(ctx context.Context, cfg Config) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error

	// Only apply explicit region if user set one in config.
	// Let SDK resolve from env/profile first.
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}

	if cfg.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		staticCreds := credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"", // session token (empty for long-term credentials)
		)
		opts = append(opts, awsconfig.WithCredentialsProvider(staticCreds))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, err
	}

	awsCfg.Region = resolveRegion(cfg.Endpoint, awsCfg.Region)

	return awsCfg, nil
}

// ListOptions configures a ListPage operation.
type ListOptions struct {
	// Bucket is the bucket to list (required).
	Bucket string

	// Prefix filters results to keys starting with this value.
	// Empty string lists the whole bucket.
	Prefix string

	// ContinuationToken resumes listing from a previous ListResult.
	// Empty string starts from the beginning.
	ContinuationToken string

	// MaxKeys limits the number of keys returned per page.
	// Zero uses the client default.
	MaxKeys int
}

// ListResult contains a page of keys from a ListPage operation.
type ListResult struct {
	// Keys contains the object keys for this page in canonical form.
	Keys []objectkey.Key

	// ContinuationToken is used to retrieve the next page.
	// Empty string indicates no more pages.
	ContinuationToken string

	// IsTruncated indicates whether more results are available.
	IsTruncated bool
}

// ListPage returns a single page of keys under bucket+prefix.
//
// Each page carries its own timeout; a deadline maps to ErrTimeout so
// callers can distinguish a slow store from an unreachable one.
func (c *Client) ListPage(ctx context.Context, opts ListOptions) (*ListResult, error) {
	input := &s3.ListObjectsV2Input{
		Bucket:  aws.String(opts.Bucket),
		MaxKeys: aws.Int32(int32(clampMaxKeys(opts.MaxKeys, c.maxKeys))),
	}
	if opts.Prefix != "" {
		input.Prefix = aws.String(opts.Prefix)
	}
	if opts.ContinuationToken != "" {
		input.ContinuationToken = aws.String(opts.ContinuationToken)
	}

	pageCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	output, err := c.api.ListObjectsV2(pageCtx, input)
	if err != nil {
		return nil, wrapError("List", opts.Bucket, "", err)
	}

	keys := make([]objectkey.Key, 0, len(output.Contents))
	for _, obj := range output.Contents {
		keys = append(keys, objectkey.Key{Bucket: opts.Bucket, Path: aws.ToString(obj.Key)})
	}

	result := &ListResult{
		Keys:        keys,
		IsTruncated: aws.ToBool(output.IsTruncated),
	}
	if output.NextContinuationToken != nil {
		result.ContinuationToken = *output.NextContinuationToken
	}

	return result, nil
}

// Keys returns a lazy sequence over every key under bucket+prefix.
//
// Pagination is internal: the sequence fetches pages on demand, so a caller
// can process very large listings without materializing them. A transient
// page failure (throttle, unavailable, timeout) is retried with the same
// continuation token rather than restarting the listing; a fatal failure
// ends the sequence with a non-nil error.
func (c *Client) Keys(ctx context.Context, bucket, prefix string) iter.Seq2[objectkey.Key, error] {
	return func(yield func(objectkey.Key, error) bool) {
		var token string
		for {
			if err := ctx.Err(); err != nil {
				yield(objectkey.Key{}, err)
				return
			}

			result, err := c.listPageWithRetry(ctx, ListOptions{
				Bucket:            bucket,
				Prefix:            prefix,
				ContinuationToken: token,
			})
			if err != nil {
				yield(objectkey.Key{}, err)
				return
			}

			for _, key := range result.Keys {
				if !yield(key, nil) {
					return
				}
			}

			if !result.IsTruncated || result.ContinuationToken == "" {
				return
			}
			token = result.ContinuationToken
		}
	}
}

// listPageWithRetry retries transient page failures against the same
// continuation token.
func (c *Client) listPageWithRetry(ctx context.Context, opts ListOptions) (*ListResult, error) {
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * 500 * time.Millisecond
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		result, err := c.ListPage(ctx, opts)
		if err == nil {
			return result, nil
		}
		if !IsRetryable(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// AllKeys materializes the full listing under bucket+prefix into a set.
//
// This is the default diff path. Fails with ErrNotFound if the bucket does
// not exist; an empty prefix is a valid, empty result.
func (c *Client) AllKeys(ctx context.Context, bucket, prefix string) (objectkey.Set, error) {
	keys := make(objectkey.Set)
	for key, err := range c.Keys(ctx, bucket, prefix) {
		if err != nil {
			return nil, err
		}
		keys.Add(key)
	}
	return keys, nil
}

// Copy performs a server-side copy of src to dst.
//
// Copying over an existing destination overwrites it (last-writer-wins);
// that is not an error.
func (c *Client) Copy(ctx context.Context, src, dst objectkey.Key) error {
	opCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	_, err := c.api.CopyObject(opCtx, &s3.CopyObjectInput{
		Bucket:     aws.String(dst.Bucket),
		Key:        aws.String(dst.Path),
		CopySource: aws.String(url.PathEscape(src.Bucket + "/" + src.Path)),
	})
	if err != nil {
		return wrapError("Copy", src.Bucket, src.Path, err)
	}
	return nil
}

// Delete removes the given key.
//
// S3 deletes are idempotent: deleting an absent key succeeds.
func (c *Client) Delete(ctx context.Context, key objectkey.Key) error {
	opCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	_, err := c.api.DeleteObject(opCtx, &s3.DeleteObjectInput{
		Bucket: aws.String(key.Bucket),
		Key:    aws.String(key.Path),
	})
	if err != nil {
		return wrapError("Delete", key.Bucket, key.Path, err)
	}
	return nil
}
