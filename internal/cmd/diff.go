package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/redshift-tools/s3recon/internal/observability"
	"github.com/redshift-tools/s3recon/pkg/ledger"
	"github.com/redshift-tools/s3recon/pkg/output"
)

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Diff Redshift load commits against a bucket path",
	Long: `Fetch the keys committed to Redshift within the date window and the
keys currently under the bucket path, and partition the bucket keys into
to-be-committed and already-committed sets.

Example:
  s3recon diff --start 2014-10-20 --end 2014-10-21 --path my.bucket/folder1`,
	RunE: runDiff,
}

var (
	diffStart string
	diffEnd   string
	diffPath  string
)

func init() {
	rootCmd.AddCommand(diffCmd)

	diffCmd.Flags().StringVar(&diffStart, "start", "", "Window start date, YYYY-MM-DD (required)")
	diffCmd.Flags().StringVar(&diffEnd, "end", "", "Window end date, YYYY-MM-DD, inclusive (required)")
	diffCmd.Flags().StringVar(&diffPath, "path", "", "Bucket path, e.g. my.bucket/folder1 (required)")

	_ = diffCmd.MarkFlagRequired("start")
	_ = diffCmd.MarkFlagRequired("end")
	_ = diffCmd.MarkFlagRequired("path")
}

func runDiff(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	start, end, err := ledger.ParseDateRange(diffStart, diffEnd)
	if err != nil {
		return err
	}

	rec, _, cleanup, err := newReconciler(ctx)
	if err != nil {
		observability.CLILogger.Error("Failed to connect", zap.Error(err))
		return err
	}
	defer cleanup()

	res, err := rec.Diff(ctx, start, end, diffPath)
	if err != nil {
		observability.CLILogger.Error("Diff failed", zap.Error(err))
		return err
	}

	observability.CLILogger.Info("Diff complete",
		zap.String("path", diffPath),
		zap.Int("committed", res.CommittedKeys.Len()),
		zap.Int("in_bucket", res.KeysInBucket.Len()),
		zap.Int("to_be_committed", res.BucketKeysToBeCommitted.Len()),
		zap.Int("already_committed", res.BucketKeysAlreadyCommitted.Len()))

	w, done, err := newWriter()
	if err != nil {
		return err
	}
	defer done()

	return w.WriteDiff(ctx, &output.DiffRecord{
		BucketPath:                 diffPath,
		StartDate:                  diffStart,
		EndDate:                    diffEnd,
		CommittedKeys:              res.CommittedKeys.Strings(),
		KeysInBucket:               res.KeysInBucket.Strings(),
		BucketKeysToBeCommitted:    res.BucketKeysToBeCommitted.Strings(),
		BucketKeysAlreadyCommitted: res.BucketKeysAlreadyCommitted.Strings(),
	})
}
