package objectkey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Key
		wantErr error
	}{
		{
			name: "canonical form",
			raw:  "s3://my.bucket/folder1/part-0001.gz",
			want: Key{Bucket: "my.bucket", Path: "folder1/part-0001.gz"},
		},
		{
			name: "bare bucket path",
			raw:  "my.bucket/folder1/part-0001.gz",
			want: Key{Bucket: "my.bucket", Path: "folder1/part-0001.gz"},
		},
		{
			name: "bucket only",
			raw:  "my.bucket",
			want: Key{Bucket: "my.bucket", Path: ""},
		},
		{
			name: "surrounding whitespace",
			raw:  "  s3://my.bucket/k1  ",
			want: Key{Bucket: "my.bucket", Path: "k1"},
		},
		{
			name:    "empty",
			raw:     "",
			wantErr: ErrInvalidKey,
		},
		{
			name:    "wrong scheme",
			raw:     "gs://my.bucket/k1",
			wantErr: ErrInvalidKey,
		},
		{
			name:    "missing bucket",
			raw:     "s3:///k1",
			wantErr: ErrMissingBucket,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.raw)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKeyString(t *testing.T) {
	k := Key{Bucket: "my.bucket", Path: "folder1/part-0001.gz"}
	assert.Equal(t, "s3://my.bucket/folder1/part-0001.gz", k.String())
}

func TestKeyStringRoundTrip(t *testing.T) {
	k := Key{Bucket: "b", Path: "f/k1"}
	parsed, err := Parse(k.String())
	require.NoError(t, err)
	assert.Equal(t, k, parsed)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Key
	}{
		{
			name: "plain",
			raw:  "s3://b/f/k1",
			want: Key{Bucket: "b", Path: "f/k1"},
		},
		{
			name: "blank padded ledger row",
			raw:  "s3://b/f/k1      ",
			want: Key{Bucket: "b", Path: "f/k1"},
		},
		{
			name: "percent encoded",
			raw:  "s3://b/f/2014-10-20T12%3A00%3A00.gz",
			want: Key{Bucket: "b", Path: "f/2014-10-20T12:00:00.gz"},
		},
		{
			name: "encoded space",
			raw:  "s3://b/f/a%20b.gz",
			want: Key{Bucket: "b", Path: "f/a b.gz"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeDeduplicates(t *testing.T) {
	// Encoded and decoded variants of the same key collapse to one member.
	s := make(Set)
	for _, raw := range []string{"s3://b/f/a%20b", "s3://b/f/a b", "s3://b/f/a b   "} {
		k, err := Normalize(raw)
		require.NoError(t, err)
		s.Add(k)
	}
	assert.Equal(t, 1, s.Len())
}

func TestSplitBucketPath(t *testing.T) {
	bucket, prefix, err := SplitBucketPath("my.bucket/folder1")
	require.NoError(t, err)
	assert.Equal(t, "my.bucket", bucket)
	assert.Equal(t, "folder1", prefix)

	bucket, prefix, err = SplitBucketPath("s3://my.bucket/folder1/sub")
	require.NoError(t, err)
	assert.Equal(t, "my.bucket", bucket)
	assert.Equal(t, "folder1/sub", prefix)

	bucket, prefix, err = SplitBucketPath("my.bucket")
	require.NoError(t, err)
	assert.Equal(t, "my.bucket", bucket)
	assert.Equal(t, "", prefix)

	_, _, err = SplitBucketPath("")
	assert.ErrorIs(t, err, ErrInvalidKey)
}
