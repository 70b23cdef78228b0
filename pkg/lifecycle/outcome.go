package lifecycle

import (
	"time"

	"github.com/redshift-tools/s3recon/pkg/objectkey"
)

// Op identifies a lifecycle operation kind.
type Op string

const (
	// OpCopy is a server-side object copy.
	OpCopy Op = "copy"

	// OpDelete is an object delete.
	OpDelete Op = "delete"
)

// Outcome is the per-key result of a copy or delete.
//
// Every key in a batch gets exactly one outcome; failures are recorded
// here rather than raised, so callers can see which keys failed without
// losing progress on the rest of the batch.
type Outcome struct {
	// Key is the source key the operation applied to.
	Key objectkey.Key

	// Op is the operation kind.
	Op Op

	// Destination is the destination key for copies.
	Destination objectkey.Key

	// Err is the per-key failure, nil on success.
	Err error
}

// Success reports whether the operation succeeded.
func (o Outcome) Success() bool {
	return o.Err == nil
}

// Summary aggregates a completed batch.
type Summary struct {
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"duration"`
}

// Summarize folds a batch of outcomes into aggregate counts.
func Summarize(outcomes []Outcome, d time.Duration) Summary {
	s := Summary{Total: len(outcomes), Duration: d}
	for _, o := range outcomes {
		if o.Success() {
			s.Succeeded++
		} else {
			s.Failed++
		}
	}
	return s
}
