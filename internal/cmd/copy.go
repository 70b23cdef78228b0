package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/redshift-tools/s3recon/internal/observability"
	"github.com/redshift-tools/s3recon/pkg/ledger"
	"github.com/redshift-tools/s3recon/pkg/lifecycle"
	"github.com/redshift-tools/s3recon/pkg/output"
)

var copyCmd = &cobra.Command{
	Use:   "copy",
	Short: "Copy already-committed keys to a destination prefix",
	Long: `Diff the date window against the bucket path, then copy every
already-committed key to the same bucket under the destination prefix,
preserving the path suffix beyond the original prefix.

Re-copying overwrites the destination (last-writer-wins). Individual
failures do not abort the batch; each key gets exactly one outcome.

Example:
  s3recon copy --start 2014-10-20 --end 2014-10-21 --path my.bucket/folder1 --dest folder2`,
	RunE: runCopy,
}

var (
	copyStart  string
	copyEnd    string
	copyPath   string
	copyDest   string
	copyDryRun bool
)

func init() {
	rootCmd.AddCommand(copyCmd)

	copyCmd.Flags().StringVar(&copyStart, "start", "", "Window start date, YYYY-MM-DD (required)")
	copyCmd.Flags().StringVar(&copyEnd, "end", "", "Window end date, YYYY-MM-DD, inclusive (required)")
	copyCmd.Flags().StringVar(&copyPath, "path", "", "Bucket path, e.g. my.bucket/folder1 (required)")
	copyCmd.Flags().StringVar(&copyDest, "dest", "", "Destination prefix within the same bucket (required)")
	copyCmd.Flags().BoolVar(&copyDryRun, "dry-run", false, "List the keys that would be copied without copying")

	_ = copyCmd.MarkFlagRequired("start")
	_ = copyCmd.MarkFlagRequired("end")
	_ = copyCmd.MarkFlagRequired("path")
	_ = copyCmd.MarkFlagRequired("dest")
}

func runCopy(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	start, end, err := ledger.ParseDateRange(copyStart, copyEnd)
	if err != nil {
		return err
	}

	rec, client, cleanup, err := newReconciler(ctx)
	if err != nil {
		observability.CLILogger.Error("Failed to connect", zap.Error(err))
		return err
	}
	defer cleanup()

	res, err := rec.Diff(ctx, start, end, copyPath)
	if err != nil {
		observability.CLILogger.Error("Diff failed", zap.Error(err))
		return err
	}

	w, done, err := newWriter()
	if err != nil {
		return err
	}
	defer done()

	if copyDryRun {
		for _, key := range res.BucketKeysAlreadyCommitted.Strings() {
			if err := w.WriteKey(ctx, &output.KeyRecord{Key: key, State: "already_committed"}); err != nil {
				return err
			}
		}
		observability.CLILogger.Info("Dry run: no keys copied",
			zap.Int("would_copy", res.BucketKeysAlreadyCommitted.Len()))
		return nil
	}

	mgr := lifecycle.New(client, cfg.Lifecycle)

	batchStart := time.Now()
	outcomes, batchErr := mgr.CopyCommitted(ctx, res, copyDest)
	if err := writeBatch(ctx, w, outcomes, lifecycle.OpCopy, time.Since(batchStart)); err != nil {
		return err
	}
	return batchErr
}

// writeBatch emits per-key outcomes followed by the batch summary.
func writeBatch(ctx context.Context, w output.Writer, outcomes []lifecycle.Outcome, op lifecycle.Op, d time.Duration) error {
	for _, o := range outcomes {
		rec := &output.OutcomeRecord{
			Op:      string(o.Op),
			Key:     o.Key.String(),
			Success: o.Success(),
		}
		if !o.Destination.IsZero() {
			rec.Destination = o.Destination.String()
		}
		if o.Err != nil {
			rec.Error = o.Err.Error()
		}
		if err := w.WriteOutcome(ctx, rec); err != nil {
			return err
		}
	}

	sum := lifecycle.Summarize(outcomes, d)
	observability.CLILogger.Info("Batch complete",
		zap.String("op", string(op)),
		zap.Int("total", sum.Total),
		zap.Int("succeeded", sum.Succeeded),
		zap.Int("failed", sum.Failed),
		zap.Duration("duration", sum.Duration))

	return w.WriteSummary(ctx, &output.SummaryRecord{
		Op:            string(op),
		Total:         sum.Total,
		Succeeded:     sum.Succeeded,
		Failed:        sum.Failed,
		Duration:      sum.Duration.Round(time.Millisecond).String(),
		DurationMilli: sum.Duration.Milliseconds(),
	})
}
