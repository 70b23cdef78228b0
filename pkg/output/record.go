// Package output provides JSONL output for reconciliation results.
//
// Output is structured as typed record envelopes containing keys, diff
// summaries, per-key operation outcomes, and errors. Each line is a
// self-contained JSON object that can be parsed independently.
package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Record type constants define the envelope types for JSONL output.
// These follow the pattern: s3recon.<type>.v<version>
const (
	// TypeKey identifies single-key records.
	TypeKey = "s3recon.key.v1"

	// TypeDiff identifies reconciliation diff records.
	TypeDiff = "s3recon.diff.v1"

	// TypeOutcome identifies per-key operation outcome records.
	TypeOutcome = "s3recon.outcome.v1"

	// TypeSummary identifies batch summary records.
	TypeSummary = "s3recon.summary.v1"

	// TypeError identifies error records.
	TypeError = "s3recon.error.v1"
)

// Record is the envelope for all JSONL output.
//
// Each line of output contains a Record with a type-specific payload in
// the Data field.
type Record struct {
	// Type identifies the record type (e.g., "s3recon.diff.v1").
	Type string `json:"type"`

	// TS is the timestamp when the record was created (RFC3339Nano).
	TS time.Time `json:"ts"`

	// JobID is the correlation ID for this invocation.
	JobID string `json:"job_id"`

	// Data contains the type-specific payload as raw JSON.
	Data json.RawMessage `json:"data"`
}

// KeyRecord is the data payload for a single object key.
type KeyRecord struct {
	// Key is the canonical key string ("s3://bucket/path").
	Key string `json:"key"`

	// State classifies the key, when known (e.g., "committed",
	// "to_be_committed", "already_committed").
	State string `json:"state,omitempty"`
}

// DiffRecord is the data payload for a reconciliation diff.
//
// The four fields keep the documented partition names; each holds
// canonical key strings, sorted.
type DiffRecord struct {
	BucketPath                 string   `json:"bucket_path"`
	StartDate                  string   `json:"start_date"`
	EndDate                    string   `json:"end_date"`
	CommittedKeys              []string `json:"committed_keys"`
	KeysInBucket               []string `json:"keys_in_bucket"`
	BucketKeysToBeCommitted    []string `json:"bucket_keys_to_be_committed"`
	BucketKeysAlreadyCommitted []string `json:"bucket_keys_already_committed"`
}

// OutcomeRecord is the data payload for one copy/delete outcome.
type OutcomeRecord struct {
	// Op is the operation kind ("copy" or "delete").
	Op string `json:"op"`

	// Key is the source key.
	Key string `json:"key"`

	// Destination is the destination key for copies.
	Destination string `json:"destination,omitempty"`

	// Success reports whether the operation succeeded.
	Success bool `json:"success"`

	// Error is the per-key failure message, if any.
	Error string `json:"error,omitempty"`
}

// SummaryRecord is the data payload for a completed batch.
type SummaryRecord struct {
	Op            string `json:"op"`
	Total         int    `json:"total"`
	Succeeded     int    `json:"succeeded"`
	Failed        int    `json:"failed"`
	Duration      string `json:"duration"`
	DurationMilli int64  `json:"duration_ms"`
}

// ErrorRecord is the data payload for fatal errors.
type ErrorRecord struct {
	// Code is a machine-readable error code.
	Code string `json:"code"`

	// Message is a human-readable error description.
	Message string `json:"message"`

	// Key is the object key related to this error, if applicable.
	Key string `json:"key,omitempty"`
}

// ErrWriterClosed indicates a write was attempted after Close.
var ErrWriterClosed = errors.New("output writer closed")

// WriteFailure wraps failures from the output path.
type WriteFailure struct {
	// Op is the write step that failed (e.g., "marshal_data", "write").
	Op string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *WriteFailure) Error() string {
	return fmt.Sprintf("output %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *WriteFailure) Unwrap() error {
	return e.Err
}
