// Package reconcile computes the consistency relationship between the
// warehouse's load-commit record and the keys physically present in a
// bucket.
//
// The diff engine is stateless: each call fetches both sources, partitions
// the keys, and returns an immutable Result. Nothing persists across calls
// except the external ledger and bucket state themselves.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redshift-tools/s3recon/pkg/objectkey"
)

// LedgerReader supplies the set of keys committed within a date window.
type LedgerReader interface {
	CommittedKeys(ctx context.Context, start, end time.Time) (objectkey.Set, error)
}

// BucketLister supplies the set of keys under a bucket prefix.
type BucketLister interface {
	AllKeys(ctx context.Context, bucket, prefix string) (objectkey.Set, error)
}

// Reconciler combines a ledger reader and a bucket lister into diffs.
//
// Reconciler is safe for concurrent use; it holds no cross-call state.
type Reconciler struct {
	ledger LedgerReader
	store  BucketLister
}

// New creates a reconciler over the given sources.
func New(ledger LedgerReader, store BucketLister) *Reconciler {
	return &Reconciler{ledger: ledger, store: store}
}

// Diff fetches both sources and partitions the bucket keys by commit state.
//
// The ledger query and the bucket listing run concurrently; both must
// complete successfully before the partition is computed. Any fatal error
// on either fetch aborts the diff entirely — a diff against an incomplete
// set would misreport keys as "to be committed".
//
// Zero keys in either source is a valid, non-error outcome.
func (r *Reconciler) Diff(ctx context.Context, start, end time.Time, bucketPath string) (*Result, error) {
	bucket, prefix, err := objectkey.SplitBucketPath(bucketPath)
	if err != nil {
		return nil, fmt.Errorf("bucket path %q: %w", bucketPath, err)
	}

	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		committed objectkey.Set
		inBucket  objectkey.Set
		ledgerErr error
		listErr   error
		wg        sync.WaitGroup
	)

	wg.Add(2)

	go func() {
		defer wg.Done()
		committed, ledgerErr = r.ledger.CommittedKeys(fetchCtx, start, end)
		if ledgerErr != nil {
			cancel()
		}
	}()

	go func() {
		defer wg.Done()
		inBucket, listErr = r.store.AllKeys(fetchCtx, bucket, prefix)
		if listErr != nil {
			cancel()
		}
	}()

	wg.Wait()

	// The first failure cancels the other fetch, which then reports
	// context.Canceled. Surface the originating error, not the
	// cancellation it induced.
	switch {
	case ledgerErr != nil && !errors.Is(ledgerErr, context.Canceled):
		return nil, fmt.Errorf("fetch committed keys: %w", ledgerErr)
	case listErr != nil && !errors.Is(listErr, context.Canceled):
		return nil, fmt.Errorf("list bucket keys: %w", listErr)
	case ledgerErr != nil:
		return nil, fmt.Errorf("fetch committed keys: %w", ledgerErr)
	case listErr != nil:
		return nil, fmt.Errorf("list bucket keys: %w", listErr)
	}

	return &Result{
		Bucket:                     bucket,
		Prefix:                     prefix,
		CommittedKeys:              committed,
		KeysInBucket:               inBucket,
		BucketKeysToBeCommitted:    inBucket.Difference(committed),
		BucketKeysAlreadyCommitted: inBucket.Intersection(committed),
	}, nil
}
