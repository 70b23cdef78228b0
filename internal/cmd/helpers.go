package cmd

import (
	"context"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/redshift-tools/s3recon/pkg/bucket"
	"github.com/redshift-tools/s3recon/pkg/ledger"
	"github.com/redshift-tools/s3recon/pkg/output"
	"github.com/redshift-tools/s3recon/pkg/reconcile"

	"github.com/redshift-tools/s3recon/internal/observability"
)

// newLedgerReader opens the warehouse connection from loaded config.
func newLedgerReader(ctx context.Context) (*ledger.Reader, error) {
	reader, err := ledger.New(ctx, cfg.Ledger)
	if err != nil {
		return nil, err
	}
	return reader.WithLogger(observability.CLILogger), nil
}

// newBucketClient builds the object-store client from loaded config.
func newBucketClient(ctx context.Context) (*bucket.Client, error) {
	return bucket.New(ctx, cfg.Store)
}

// newReconciler wires both sources into a diff engine.
// The returned cleanup closes the warehouse pool.
func newReconciler(ctx context.Context) (*reconcile.Reconciler, *bucket.Client, func(), error) {
	reader, err := newLedgerReader(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	client, err := newBucketClient(ctx)
	if err != nil {
		_ = reader.Close()
		return nil, nil, nil, err
	}

	cleanup := func() { _ = reader.Close() }
	return reconcile.New(reader, client), client, cleanup, nil
}

// newWriter opens the JSONL result writer per the --output flag.
// The returned cleanup closes the destination file when one was opened.
func newWriter() (output.Writer, func(), error) {
	var (
		dst     io.Writer = os.Stdout
		cleanup           = func() {}
	)

	if rootOutput != "" && rootOutput != "-" {
		f, err := os.Create(rootOutput)
		if err != nil {
			return nil, nil, err
		}
		dst = f
		cleanup = func() { _ = f.Close() }
	}

	w := output.NewJSONLWriter(dst, uuid.NewString())
	return w, func() {
		_ = w.Close()
		cleanup()
	}, nil
}
