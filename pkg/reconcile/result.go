package reconcile

import "github.com/redshift-tools/s3recon/pkg/objectkey"

// Result is the four-way partition produced by a diff.
//
// Invariants, always:
//
//	KeysInBucket = BucketKeysToBeCommitted ∪ BucketKeysAlreadyCommitted (disjoint)
//	BucketKeysAlreadyCommitted = KeysInBucket ∩ CommittedKeys
//	BucketKeysToBeCommitted    = KeysInBucket − CommittedKeys
//
// A Result is created fresh per diff call and never mutated afterwards.
type Result struct {
	// Bucket and Prefix record the listing scope the diff ran against.
	// Lifecycle operations use Prefix to preserve path suffixes.
	Bucket string
	Prefix string

	// CommittedKeys is every key the warehouse committed in the window.
	CommittedKeys objectkey.Set

	// KeysInBucket is every key currently under the bucket path.
	KeysInBucket objectkey.Set

	// BucketKeysToBeCommitted is in the bucket but not yet committed.
	BucketKeysToBeCommitted objectkey.Set

	// BucketKeysAlreadyCommitted is in the bucket and already committed.
	BucketKeysAlreadyCommitted objectkey.Set
}

// Counts summarizes the partition sizes.
type Counts struct {
	Committed        int `json:"committed"`
	InBucket         int `json:"in_bucket"`
	ToBeCommitted    int `json:"to_be_committed"`
	AlreadyCommitted int `json:"already_committed"`
}

// Counts returns the partition sizes for summary output.
func (r *Result) Counts() Counts {
	return Counts{
		Committed:        r.CommittedKeys.Len(),
		InBucket:         r.KeysInBucket.Len(),
		ToBeCommitted:    r.BucketKeysToBeCommitted.Len(),
		AlreadyCommitted: r.BucketKeysAlreadyCommitted.Len(),
	}
}
