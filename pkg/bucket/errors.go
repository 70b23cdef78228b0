package bucket

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// Sentinel errors for object-store operations.
var (
	// ErrNotFound indicates the bucket or object does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAccessDenied indicates insufficient permissions.
	ErrAccessDenied = errors.New("access denied")

	// ErrInvalidCredentials indicates authentication failed.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrThrottled indicates the request was rate limited by the store.
	ErrThrottled = errors.New("request throttled")

	// ErrUnavailable indicates the store service is unavailable.
	ErrUnavailable = errors.New("store unavailable")

	// ErrTimeout indicates the call exceeded its deadline.
	ErrTimeout = errors.New("store call timed out")
)

// StoreError wraps object-store errors with call context.
type StoreError struct {
	// Op is the operation that failed (e.g., "List", "Copy").
	Op string

	// Bucket is the bucket name.
	Bucket string

	// Key is the object key, if applicable.
	Key string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("s3 %s: %s/%s: %v", e.Op, e.Bucket, e.Key, e.Err)
	}
	if e.Bucket != "" {
		return fmt.Sprintf("s3 %s: %s: %v", e.Op, e.Bucket, e.Err)
	}
	return fmt.Sprintf("s3 %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether the error is transient enough to retry the
// same listing page.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrThrottled) ||
		errors.Is(err, ErrUnavailable) ||
		errors.Is(err, ErrTimeout)
}

// wrapError converts SDK errors to store errors with appropriate sentinels.
func wrapError(op, bucket, key string, err error) error {
	wrapped := &StoreError{Op: op, Bucket: bucket, Key: key, Err: err}

	if errors.Is(err, context.DeadlineExceeded) {
		wrapped.Err = fmt.Errorf("%w: %v", ErrTimeout, err)
		return wrapped
	}

	// Check for specific S3 error types first
	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	var noSuchBucket *types.NoSuchBucket

	switch {
	case errors.As(err, &notFound), errors.As(err, &noSuchKey), errors.As(err, &noSuchBucket):
		wrapped.Err = fmt.Errorf("%w: %v", ErrNotFound, err)
		return wrapped
	}

	// Check smithy API errors for error codes
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NoSuchBucket", "NotFound":
			wrapped.Err = fmt.Errorf("%w: %v", ErrNotFound, err)
		case "AccessDenied", "Forbidden":
			wrapped.Err = fmt.Errorf("%w: %v", ErrAccessDenied, err)
		case "InvalidAccessKeyId", "SignatureDoesNotMatch":
			wrapped.Err = fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
		case "SlowDown", "Throttling", "RequestLimitExceeded":
			wrapped.Err = fmt.Errorf("%w: %v", ErrThrottled, err)
		case "ServiceUnavailable", "InternalError":
			wrapped.Err = fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return wrapped
	}

	// Fallback: check error message for common cases
	msg := err.Error()
	switch {
	case strings.Contains(msg, "NoSuchKey"), strings.Contains(msg, "NoSuchBucket"), strings.Contains(msg, "404"):
		wrapped.Err = fmt.Errorf("%w: %v", ErrNotFound, err)
	case strings.Contains(msg, "AccessDenied"), strings.Contains(msg, "Forbidden"), strings.Contains(msg, "403"):
		wrapped.Err = fmt.Errorf("%w: %v", ErrAccessDenied, err)
	case strings.Contains(msg, "InvalidAccessKeyId"), strings.Contains(msg, "SignatureDoesNotMatch"):
		wrapped.Err = fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	case strings.Contains(msg, "SlowDown"), strings.Contains(msg, "Throttling"), strings.Contains(msg, "429"):
		wrapped.Err = fmt.Errorf("%w: %v", ErrThrottled, err)
	case strings.Contains(msg, "ServiceUnavailable"), strings.Contains(msg, "503"):
		wrapped.Err = fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return wrapped
}
