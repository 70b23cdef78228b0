// Package lifecycle applies copy/delete batches to key sets from a
// reconciliation result.
//
// Batches run on a bounded worker pool to respect storage-service rate
// limits. Per-key failures never abort a batch: every input key produces
// exactly one outcome, and retry policy is left to the caller.
package lifecycle

import (
	"context"
	"path"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"github.com/redshift-tools/s3recon/pkg/objectkey"
	"github.com/redshift-tools/s3recon/pkg/reconcile"
)

// ObjectStore is the mutation surface the manager needs from the store.
type ObjectStore interface {
	Copy(ctx context.Context, src, dst objectkey.Key) error
	Delete(ctx context.Context, key objectkey.Key) error
}

// Config configures batch execution.
type Config struct {
	// Concurrency is the number of parallel store operations.
	// Default: 8
	Concurrency int

	// RateLimit is the maximum operations per second against the store.
	// Zero means unlimited.
	RateLimit float64
}

// DefaultConfig returns the default batch configuration.
func DefaultConfig() Config {
	return Config{Concurrency: 8}
}

// Manager applies lifecycle batches against an object store.
//
// Manager holds no per-batch state; two managers (or two calls on one
// manager) over disjoint key sets may run in parallel safely.
type Manager struct {
	store   ObjectStore
	cfg     Config
	limiter *rate.Limiter
}

// New creates a manager over the given store.
func New(store ObjectStore, cfg Config) *Manager {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConfig().Concurrency
	}

	m := &Manager{store: store, cfg: cfg}
	if cfg.RateLimit > 0 {
		m.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}
	return m
}

// CopyCommitted copies every already-committed bucket key to the same
// bucket under destPrefix, preserving the path suffix beyond the result's
// listing prefix.
//
// Re-copying overwrites the destination (last-writer-wins). The returned
// error is non-nil only on cancellation; per-key failures live in the
// outcomes.
func (m *Manager) CopyCommitted(ctx context.Context, res *reconcile.Result, destPrefix string) ([]Outcome, error) {
	return m.run(ctx, res.BucketKeysAlreadyCommitted, OpCopy, func(ctx context.Context, key objectkey.Key) Outcome {
		dst := destinationKey(key, res.Prefix, destPrefix)
		err := m.store.Copy(ctx, key, dst)
		return Outcome{Key: key, Op: OpCopy, Destination: dst, Err: err}
	})
}

// DeleteCommitted deletes every already-committed bucket key.
func (m *Manager) DeleteCommitted(ctx context.Context, res *reconcile.Result) ([]Outcome, error) {
	return m.DeleteKeys(ctx, res.BucketKeysAlreadyCommitted)
}

// DeleteKeys deletes an explicitly supplied key set.
//
// Deleting an absent key is a success (delete is idempotent), so running
// the same batch twice yields success outcomes both times.
func (m *Manager) DeleteKeys(ctx context.Context, keys objectkey.Set) ([]Outcome, error) {
	return m.run(ctx, keys, OpDelete, func(ctx context.Context, key objectkey.Key) Outcome {
		return Outcome{Key: key, Op: OpDelete, Err: m.store.Delete(ctx, key)}
	})
}

// run executes one operation per key on the worker pool.
//
// The outcome slice is complete — one entry per input key — even when the
// context is cancelled mid-batch: keys not attempted are recorded with the
// context error. Outcome ordering is unspecified.
func (m *Manager) run(ctx context.Context, keys objectkey.Set, kind Op, op func(context.Context, objectkey.Key) Outcome) ([]Outcome, error) {
	workCh := make(chan objectkey.Key)
	resCh := make(chan Outcome, keys.Len())

	var wg sync.WaitGroup
	for i := 0; i < m.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for key := range workCh {
				if err := m.wait(ctx); err != nil {
					resCh <- Outcome{Key: key, Op: kind, Err: err}
					continue
				}
				resCh <- op(ctx, key)
			}
		}()
	}

	for _, key := range keys.Keys() {
		workCh <- key
	}
	close(workCh)
	wg.Wait()
	close(resCh)

	outcomes := make([]Outcome, 0, keys.Len())
	for o := range resCh {
		outcomes = append(outcomes, o)
	}

	return outcomes, ctx.Err()
}

// wait blocks until the rate limiter allows an operation.
func (m *Manager) wait(ctx context.Context) error {
	if m.limiter == nil {
		return ctx.Err()
	}
	return m.limiter.Wait(ctx)
}

// destinationKey maps a source key into the destination prefix, keeping
// the suffix beyond the listing prefix intact.
//
// The listing prefix is trimmed only on a path-segment boundary: prefix
// "folder1" must not eat into a sibling key under "folder10/". Keys the
// prefix matched mid-segment keep their full path under the destination.
func destinationKey(src objectkey.Key, listPrefix, destPrefix string) objectkey.Key {
	suffix := src.Path
	if p := strings.TrimSuffix(listPrefix, "/"); p != "" {
		if src.Path == p {
			suffix = path.Base(src.Path)
		} else if rest, ok := strings.CutPrefix(src.Path, p+"/"); ok {
			suffix = rest
		}
	}
	return objectkey.Key{Bucket: src.Bucket, Path: path.Join(destPrefix, suffix)}
}
