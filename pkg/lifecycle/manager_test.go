package lifecycle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redshift-tools/s3recon/pkg/objectkey"
	"github.com/redshift-tools/s3recon/pkg/reconcile"
)

// memStore is an in-memory ObjectStore with injectable per-key failures.
type memStore struct {
	mu      sync.Mutex
	objects map[objectkey.Key]struct{}

	copyErrs   map[objectkey.Key]error
	deleteErrs map[objectkey.Key]error
	copies     int
	deletes    int
}

func newMemStore(keys ...objectkey.Key) *memStore {
	s := &memStore{
		objects:    make(map[objectkey.Key]struct{}),
		copyErrs:   make(map[objectkey.Key]error),
		deleteErrs: make(map[objectkey.Key]error),
	}
	for _, k := range keys {
		s.objects[k] = struct{}{}
	}
	return s
}

func (s *memStore) Copy(ctx context.Context, src, dst objectkey.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.copies++
	if err := s.copyErrs[src]; err != nil {
		return err
	}
	s.objects[dst] = struct{}{}
	return nil
}

func (s *memStore) Delete(ctx context.Context, key objectkey.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deletes++
	if err := s.deleteErrs[key]; err != nil {
		return err
	}
	delete(s.objects, key) // absent keys delete cleanly
	return nil
}

func (s *memStore) has(key objectkey.Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok
}

func k(path string) objectkey.Key {
	return objectkey.Key{Bucket: "my.bucket", Path: path}
}

func committedResult(prefix string, keys ...objectkey.Key) *reconcile.Result {
	set := objectkey.NewSet(keys...)
	return &reconcile.Result{
		Bucket:                     "my.bucket",
		Prefix:                     prefix,
		KeysInBucket:               set,
		BucketKeysAlreadyCommitted: set,
		BucketKeysToBeCommitted:    objectkey.NewSet(),
	}
}

func TestCopyCommittedPreservesSuffix(t *testing.T) {
	src := k("folder1/2014/10/part-0001.gz")
	store := newMemStore(src)
	mgr := New(store, Config{Concurrency: 2})

	outcomes, err := mgr.CopyCommitted(context.Background(), committedResult("folder1", src), "folder2")
	require.NoError(t, err)
	require.Len(t, outcomes, 1)

	o := outcomes[0]
	assert.True(t, o.Success())
	assert.Equal(t, OpCopy, o.Op)
	assert.Equal(t, k("folder2/2014/10/part-0001.gz"), o.Destination)
	assert.True(t, store.has(o.Destination))
	assert.True(t, store.has(src), "copy must not remove the source")
}

func TestCopyCommittedOneOutcomePerKey(t *testing.T) {
	k1, k2, k3 := k("f/k1"), k("f/k2"), k("f/k3")
	store := newMemStore(k1, k2, k3)
	store.copyErrs[k2] = errors.New("access denied")
	mgr := New(store, Config{Concurrency: 2})

	outcomes, err := mgr.CopyCommitted(context.Background(), committedResult("f", k1, k2, k3), "f2")
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	byKey := make(map[objectkey.Key]Outcome, len(outcomes))
	for _, o := range outcomes {
		byKey[o.Key] = o
	}

	// The failing key does not abort the batch; the other two still land.
	assert.False(t, byKey[k2].Success())
	assert.True(t, byKey[k1].Success())
	assert.True(t, byKey[k3].Success())
	assert.True(t, store.has(k("f2/k1")))
	assert.False(t, store.has(k("f2/k2")))
	assert.True(t, store.has(k("f2/k3")))
}

func TestCopyCommittedEmptySet(t *testing.T) {
	store := newMemStore()
	mgr := New(store, Config{})

	outcomes, err := mgr.CopyCommitted(context.Background(), committedResult("f"), "f2")
	require.NoError(t, err)
	assert.Empty(t, outcomes)
	assert.Equal(t, 0, store.copies)
}

func TestDeleteKeysIdempotent(t *testing.T) {
	k1, k2 := k("f/k1"), k("f/k2")
	store := newMemStore(k1, k2)
	mgr := New(store, Config{Concurrency: 2})
	targets := objectkey.NewSet(k1, k2)

	for run := 0; run < 2; run++ {
		outcomes, err := mgr.DeleteKeys(context.Background(), targets)
		require.NoError(t, err)
		require.Len(t, outcomes, 2)
		for _, o := range outcomes {
			assert.True(t, o.Success(), "run %d key %s", run, o.Key)
			assert.Equal(t, OpDelete, o.Op)
		}
	}

	assert.False(t, store.has(k1))
	assert.False(t, store.has(k2))
	assert.Equal(t, 4, store.deletes)
}

func TestDeleteCommittedContinuesOnFailure(t *testing.T) {
	k1, k2 := k("f/k1"), k("f/k2")
	store := newMemStore(k1, k2)
	store.deleteErrs[k1] = errors.New("throttled")
	mgr := New(store, Config{Concurrency: 1})

	outcomes, err := mgr.DeleteCommitted(context.Background(), committedResult("f", k1, k2))
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	byKey := make(map[objectkey.Key]Outcome, len(outcomes))
	for _, o := range outcomes {
		byKey[o.Key] = o
	}
	assert.False(t, byKey[k1].Success())
	assert.True(t, byKey[k2].Success())
	assert.True(t, store.has(k1))
	assert.False(t, store.has(k2))
}

func TestRunCancelledContextTagsRemainingKeys(t *testing.T) {
	keys := make([]objectkey.Key, 0, 16)
	for i := 0; i < 16; i++ {
		keys = append(keys, k("f/k"+string(rune('a'+i))))
	}
	store := newMemStore(keys...)
	mgr := New(store, Config{Concurrency: 2})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcomes, err := mgr.DeleteKeys(ctx, objectkey.NewSet(keys...))
	assert.ErrorIs(t, err, context.Canceled)

	// Still one outcome per key, each carrying the cancellation.
	require.Len(t, outcomes, len(keys))
	for _, o := range outcomes {
		assert.Equal(t, OpDelete, o.Op)
		assert.ErrorIs(t, o.Err, context.Canceled)
	}
	assert.Equal(t, 0, store.deletes)
}

func TestRateLimitBounds(t *testing.T) {
	k1, k2, k3 := k("f/k1"), k("f/k2"), k("f/k3")
	store := newMemStore(k1, k2, k3)
	mgr := New(store, Config{Concurrency: 3, RateLimit: 50})

	started := time.Now()
	outcomes, err := mgr.DeleteKeys(context.Background(), objectkey.NewSet(k1, k2, k3))
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	// Burst 1 at 50 ops/s means the second and third op each wait ~20ms.
	assert.GreaterOrEqual(t, time.Since(started), 30*time.Millisecond)
}

func TestDestinationKey(t *testing.T) {
	tests := []struct {
		name       string
		src        objectkey.Key
		listPrefix string
		destPrefix string
		want       objectkey.Key
	}{
		{
			name:       "nested suffix preserved",
			src:        k("folder1/2014/part-0001.gz"),
			listPrefix: "folder1",
			destPrefix: "folder2",
			want:       k("folder2/2014/part-0001.gz"),
		},
		{
			name:       "flat key",
			src:        k("folder1/part-0001.gz"),
			listPrefix: "folder1",
			destPrefix: "folder2",
			want:       k("folder2/part-0001.gz"),
		},
		{
			name:       "empty listing prefix",
			src:        k("part-0001.gz"),
			listPrefix: "",
			destPrefix: "folder2",
			want:       k("folder2/part-0001.gz"),
		},
		{
			name:       "key equals prefix",
			src:        k("folder1"),
			listPrefix: "folder1",
			destPrefix: "folder2",
			want:       k("folder2/folder1"),
		},
		{
			name:       "trailing slash on prefix",
			src:        k("folder1/part-0001.gz"),
			listPrefix: "folder1/",
			destPrefix: "folder2",
			want:       k("folder2/part-0001.gz"),
		},
		{
			name:       "sibling prefix sharing a string prefix",
			src:        k("folder10/part-0001.gz"),
			listPrefix: "folder1",
			destPrefix: "folder2",
			want:       k("folder2/folder10/part-0001.gz"),
		},
		{
			name:       "mid-segment prefix keeps full path",
			src:        k("folder1/part-0001.gz"),
			listPrefix: "folder1/part-",
			destPrefix: "folder2",
			want:       k("folder2/folder1/part-0001.gz"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, destinationKey(tt.src, tt.listPrefix, tt.destPrefix))
		})
	}
}

func TestSummarize(t *testing.T) {
	outcomes := []Outcome{
		{Key: k("f/k1"), Op: OpCopy},
		{Key: k("f/k2"), Op: OpCopy, Err: errors.New("denied")},
		{Key: k("f/k3"), Op: OpCopy},
	}

	s := Summarize(outcomes, 250*time.Millisecond)
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 2, s.Succeeded)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 250*time.Millisecond, s.Duration)

	empty := Summarize(nil, 0)
	assert.Equal(t, 0, empty.Total)
}
