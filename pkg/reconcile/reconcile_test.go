package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redshift-tools/s3recon/pkg/objectkey"
)

type stubLedger struct {
	keys objectkey.Set
	err  error

	gotStart time.Time
	gotEnd   time.Time
	calls    int
}

func (s *stubLedger) CommittedKeys(ctx context.Context, start, end time.Time) (objectkey.Set, error) {
	s.gotStart, s.gotEnd = start, end
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.keys, nil
}

type stubLister struct {
	keys objectkey.Set
	err  error

	gotBucket string
	gotPrefix string
	calls     int
}

func (s *stubLister) AllKeys(ctx context.Context, bucket, prefix string) (objectkey.Set, error) {
	s.gotBucket, s.gotPrefix = bucket, prefix
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.keys, nil
}

func k(path string) objectkey.Key {
	return objectkey.Key{Bucket: "my.bucket", Path: path}
}

func testWindow() (time.Time, time.Time) {
	start := time.Date(2014, 10, 20, 0, 0, 0, 0, time.UTC)
	end := time.Date(2014, 10, 21, 23, 59, 59, 999999999, time.UTC)
	return start, end
}

func TestDiffPartitionsBucketKeys(t *testing.T) {
	ledger := &stubLedger{keys: objectkey.NewSet(k("folder1/k1"))}
	lister := &stubLister{keys: objectkey.NewSet(k("folder1/k1"), k("folder1/k2"))}
	start, end := testWindow()

	res, err := New(ledger, lister).Diff(context.Background(), start, end, "my.bucket/folder1")
	require.NoError(t, err)

	assert.Equal(t, "my.bucket", res.Bucket)
	assert.Equal(t, "folder1", res.Prefix)
	assert.True(t, res.BucketKeysToBeCommitted.Equal(objectkey.NewSet(k("folder1/k2"))))
	assert.True(t, res.BucketKeysAlreadyCommitted.Equal(objectkey.NewSet(k("folder1/k1"))))
}

func TestDiffPartitionInvariants(t *testing.T) {
	ledger := &stubLedger{keys: objectkey.NewSet(k("f/k1"), k("f/k2"), k("g/k9"))}
	lister := &stubLister{keys: objectkey.NewSet(k("f/k1"), k("f/k3"), k("f/k4"))}
	start, end := testWindow()

	res, err := New(ledger, lister).Diff(context.Background(), start, end, "my.bucket/f")
	require.NoError(t, err)

	// The two partitions are disjoint and together cover the bucket exactly.
	assert.Equal(t, 0, res.BucketKeysToBeCommitted.Intersection(res.BucketKeysAlreadyCommitted).Len())
	union := res.BucketKeysToBeCommitted.Union(res.BucketKeysAlreadyCommitted)
	assert.True(t, union.Equal(res.KeysInBucket))

	// Committed keys with no bucket counterpart never leak into a partition.
	assert.False(t, res.BucketKeysToBeCommitted.Contains(k("g/k9")))
	assert.False(t, res.BucketKeysAlreadyCommitted.Contains(k("g/k9")))
}

func TestDiffEmptyBucket(t *testing.T) {
	ledger := &stubLedger{keys: objectkey.NewSet(k("f/k1"))}
	lister := &stubLister{keys: objectkey.NewSet()}
	start, end := testWindow()

	res, err := New(ledger, lister).Diff(context.Background(), start, end, "my.bucket/f")
	require.NoError(t, err)

	assert.Equal(t, 0, res.BucketKeysToBeCommitted.Len())
	assert.Equal(t, 0, res.BucketKeysAlreadyCommitted.Len())
}

func TestDiffEmptyLedger(t *testing.T) {
	ledger := &stubLedger{keys: objectkey.NewSet()}
	lister := &stubLister{keys: objectkey.NewSet(k("f/k1"), k("f/k2"))}
	start, end := testWindow()

	res, err := New(ledger, lister).Diff(context.Background(), start, end, "my.bucket/f")
	require.NoError(t, err)

	assert.True(t, res.BucketKeysToBeCommitted.Equal(lister.keys))
	assert.Equal(t, 0, res.BucketKeysAlreadyCommitted.Len())
}

func TestDiffPassesWindowAndPath(t *testing.T) {
	ledger := &stubLedger{keys: objectkey.NewSet()}
	lister := &stubLister{keys: objectkey.NewSet()}
	start, end := testWindow()

	_, err := New(ledger, lister).Diff(context.Background(), start, end, "s3://my.bucket/folder1/sub")
	require.NoError(t, err)

	assert.True(t, ledger.gotStart.Equal(start))
	assert.True(t, ledger.gotEnd.Equal(end))
	assert.Equal(t, "my.bucket", lister.gotBucket)
	assert.Equal(t, "folder1/sub", lister.gotPrefix)
}

func TestDiffInvalidBucketPath(t *testing.T) {
	ledger := &stubLedger{}
	lister := &stubLister{}
	start, end := testWindow()

	_, err := New(ledger, lister).Diff(context.Background(), start, end, "")
	assert.ErrorIs(t, err, objectkey.ErrInvalidKey)

	// Neither source is touched when the path does not parse.
	assert.Equal(t, 0, ledger.calls)
	assert.Equal(t, 0, lister.calls)
}

func TestDiffLedgerErrorAborts(t *testing.T) {
	sentinel := errors.New("warehouse down")
	ledger := &stubLedger{err: sentinel}
	lister := &stubLister{keys: objectkey.NewSet(k("f/k1"))}
	start, end := testWindow()

	_, err := New(ledger, lister).Diff(context.Background(), start, end, "my.bucket/f")
	assert.ErrorIs(t, err, sentinel)
}

func TestDiffListErrorAborts(t *testing.T) {
	sentinel := errors.New("bucket missing")
	ledger := &stubLedger{keys: objectkey.NewSet(k("f/k1"))}
	lister := &stubLister{err: sentinel}
	start, end := testWindow()

	_, err := New(ledger, lister).Diff(context.Background(), start, end, "my.bucket/f")
	assert.ErrorIs(t, err, sentinel)
}

// blockingLedger parks until the diff cancels it, like a slow warehouse
// query would.
type blockingLedger struct{}

func (b *blockingLedger) CommittedKeys(ctx context.Context, start, end time.Time) (objectkey.Set, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// blockingLister parks until the diff cancels it.
type blockingLister struct{}

func (b *blockingLister) AllKeys(ctx context.Context, bucket, prefix string) (objectkey.Set, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestDiffListErrorNotMaskedByInducedCancellation(t *testing.T) {
	sentinel := errors.New("bucket missing")
	lister := &stubLister{err: sentinel}
	start, end := testWindow()

	// The lister fails while the ledger fetch is still in flight; the
	// fetch is cancelled and reports context.Canceled. The diff must
	// surface the lister's error, not the cancellation it caused.
	_, err := New(&blockingLedger{}, lister).Diff(context.Background(), start, end, "my.bucket/f")
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)
	assert.NotErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "list bucket keys")
}

func TestDiffLedgerErrorNotMaskedByInducedCancellation(t *testing.T) {
	sentinel := errors.New("warehouse down")
	ledger := &stubLedger{err: sentinel}
	start, end := testWindow()

	_, err := New(ledger, &blockingLister{}).Diff(context.Background(), start, end, "my.bucket/f")
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)
	assert.NotErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "fetch committed keys")
}

func TestDiffCallerCancellation(t *testing.T) {
	start, end := testWindow()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// With no real failure anywhere, the cancellation itself surfaces.
	_, err := New(&blockingLedger{}, &blockingLister{}).Diff(ctx, start, end, "my.bucket/f")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDiffIsIdempotent(t *testing.T) {
	ledger := &stubLedger{keys: objectkey.NewSet(k("f/k1"))}
	lister := &stubLister{keys: objectkey.NewSet(k("f/k1"), k("f/k2"))}
	start, end := testWindow()
	r := New(ledger, lister)

	first, err := r.Diff(context.Background(), start, end, "my.bucket/f")
	require.NoError(t, err)
	second, err := r.Diff(context.Background(), start, end, "my.bucket/f")
	require.NoError(t, err)

	assert.True(t, first.BucketKeysToBeCommitted.Equal(second.BucketKeysToBeCommitted))
	assert.True(t, first.BucketKeysAlreadyCommitted.Equal(second.BucketKeysAlreadyCommitted))
	assert.Equal(t, 2, ledger.calls)
	assert.Equal(t, 2, lister.calls)
}
