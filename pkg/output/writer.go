package output

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// Writer outputs JSONL records for reconciliation results.
//
// Implementations must be safe for concurrent use from multiple
// goroutines. Each Write* method emits a complete record as a single line
// of JSON followed by a newline.
type Writer interface {
	// WriteKey emits a single-key record.
	WriteKey(ctx context.Context, key *KeyRecord) error

	// WriteDiff emits a reconciliation diff record.
	WriteDiff(ctx context.Context, diff *DiffRecord) error

	// WriteOutcome emits a per-key operation outcome record.
	WriteOutcome(ctx context.Context, outcome *OutcomeRecord) error

	// WriteSummary emits a batch summary record.
	WriteSummary(ctx context.Context, sum *SummaryRecord) error

	// WriteError emits an error record.
	WriteError(ctx context.Context, rec *ErrorRecord) error

	// Close flushes any buffered output and releases resources.
	Close() error
}

// JSONLWriter writes records as newline-delimited JSON to an io.Writer.
//
// JSONLWriter is safe for concurrent use. Writes are serialized using a
// mutex to ensure atomic line writes (no interleaved output).
type JSONLWriter struct {
	w     io.Writer
	jobID string
	mu    sync.Mutex

	// closed indicates the writer has been closed.
	closed bool
}

// NewJSONLWriter creates a new JSONL writer.
//
// Parameters:
//   - w: The underlying writer (stdout, file, etc.)
//   - jobID: Correlation ID for this invocation
func NewJSONLWriter(w io.Writer, jobID string) *JSONLWriter {
	return &JSONLWriter{w: w, jobID: jobID}
}

// WriteKey emits a single-key record.
func (jw *JSONLWriter) WriteKey(ctx context.Context, key *KeyRecord) error {
	return jw.writeRecord(ctx, TypeKey, key)
}

// WriteDiff emits a reconciliation diff record.
func (jw *JSONLWriter) WriteDiff(ctx context.Context, diff *DiffRecord) error {
	return jw.writeRecord(ctx, TypeDiff, diff)
}

// WriteOutcome emits a per-key operation outcome record.
func (jw *JSONLWriter) WriteOutcome(ctx context.Context, outcome *OutcomeRecord) error {
	return jw.writeRecord(ctx, TypeOutcome, outcome)
}

// WriteSummary emits a batch summary record.
func (jw *JSONLWriter) WriteSummary(ctx context.Context, sum *SummaryRecord) error {
	return jw.writeRecord(ctx, TypeSummary, sum)
}

// WriteError emits an error record.
func (jw *JSONLWriter) WriteError(ctx context.Context, rec *ErrorRecord) error {
	return jw.writeRecord(ctx, TypeError, rec)
}

// Close marks the writer as closed.
//
// If the underlying writer implements io.Closer, it is NOT closed.
// The caller is responsible for closing the underlying writer.
func (jw *JSONLWriter) Close() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	jw.closed = true
	return nil
}

// writeRecord marshals data and writes a complete record line.
//
// This method holds the mutex for the entire operation to ensure atomic
// line writes.
func (jw *JSONLWriter) writeRecord(ctx context.Context, recordType string, data any) error {
	// Check context cancellation before acquiring lock
	if err := ctx.Err(); err != nil {
		return err
	}

	// Marshal the data payload first (outside the lock for better concurrency)
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return &WriteFailure{Op: "marshal_data", Err: err}
	}

	jw.mu.Lock()
	defer jw.mu.Unlock()

	if jw.closed {
		return ErrWriterClosed
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	record := Record{
		Type:  recordType,
		TS:    time.Now().UTC(),
		JobID: jw.jobID,
		Data:  dataBytes,
	}

	recordBytes, err := json.Marshal(record)
	if err != nil {
		return &WriteFailure{Op: "marshal_record", Err: err}
	}

	// Write the record followed by newline.
	// io.Writer is allowed to return n < len(p) with nil error, which would
	// silently truncate JSONL lines and corrupt output.
	recordBytes = append(recordBytes, '\n')
	if err := writeAll(jw.w, recordBytes); err != nil {
		return &WriteFailure{Op: "write", Err: err}
	}

	return nil
}

// writeAll writes all bytes to w, handling short writes.
func writeAll(w io.Writer, p []byte) error {
	for len(p) > 0 {
		n, err := w.Write(p)
		if err != nil {
			return err
		}
		if n == 0 {
			// No progress made - avoid infinite loop
			return io.ErrShortWrite
		}
		p = p[n:]
	}
	return nil
}

// Compile-time check that JSONLWriter implements Writer.
var _ Writer = (*JSONLWriter)(nil)
