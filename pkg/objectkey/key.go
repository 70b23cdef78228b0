// Package objectkey defines the canonical object key value used throughout
// the reconciler.
//
// Keys are immutable {bucket, path} pairs rendered as "s3://bucket/path".
// Equality is exact, case-sensitive string comparison on the normalized
// form; there is no fuzzy or encoding-tolerant matching.
package objectkey

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Key parsing errors.
var (
	// ErrInvalidKey indicates the raw value could not be parsed into a key.
	ErrInvalidKey = errors.New("invalid object key")

	// ErrMissingBucket indicates the raw value has no bucket component.
	ErrMissingBucket = errors.New("missing bucket name")
)

// Scheme is the URI scheme for canonical key strings.
const Scheme = "s3"

// Key identifies a single object in a bucket.
//
// The zero Key is not valid; construct keys with Parse or Normalize.
type Key struct {
	// Bucket is the bucket name.
	Bucket string

	// Path is the object key within the bucket, without a leading slash.
	Path string
}

// String returns the canonical form "s3://bucket/path".
func (k Key) String() string {
	return fmt.Sprintf("%s://%s/%s", Scheme, k.Bucket, k.Path)
}

// IsZero reports whether the key is the zero value.
func (k Key) IsZero() bool {
	return k.Bucket == "" && k.Path == ""
}

// Parse parses a key from either the canonical "s3://bucket/path" form or
// the bare "bucket/path" form used on the command line.
func Parse(raw string) (Key, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Key{}, ErrInvalidKey
	}

	if rest, ok := strings.CutPrefix(raw, Scheme+"://"); ok {
		raw = rest
	} else if strings.Contains(raw, "://") {
		return Key{}, fmt.Errorf("%w: %q", ErrInvalidKey, raw)
	}

	bucket, path, _ := strings.Cut(raw, "/")
	if bucket == "" {
		return Key{}, ErrMissingBucket
	}

	return Key{Bucket: bucket, Path: path}, nil
}

// Normalize parses a raw ledger filename into a canonical key.
//
// Redshift load-commit rows carry artifacts of the COPY machinery: the
// filename column is blank-padded, and keys loaded via manifests may be
// URI-encoded. Normalization trims padding and decodes percent-escapes so
// that repeated load attempts of the same object collapse to one key.
func Normalize(raw string) (Key, error) {
	raw = strings.TrimSpace(raw)

	if decoded, err := url.PathUnescape(raw); err == nil {
		raw = decoded
	}

	return Parse(raw)
}

// SplitBucketPath splits a bucket path like "my.bucket/folder1" (or
// "s3://my.bucket/folder1") into bucket and prefix. A bare bucket name
// yields an empty prefix.
func SplitBucketPath(bucketPath string) (bucket, prefix string, err error) {
	k, err := Parse(bucketPath)
	if err != nil {
		return "", "", err
	}
	return k.Bucket, k.Path, nil
}
