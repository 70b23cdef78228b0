package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/redshift-tools/s3recon/internal/observability"
	"github.com/redshift-tools/s3recon/pkg/bucket"
	"github.com/redshift-tools/s3recon/pkg/ledger"
	"github.com/redshift-tools/s3recon/pkg/lifecycle"
	"github.com/redshift-tools/s3recon/pkg/objectkey"
	"github.com/redshift-tools/s3recon/pkg/output"
)

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete already-committed keys from the bucket",
	Long: `Diff the date window against the bucket path, then delete every
already-committed key. Alternatively delete an explicit key set passed
with --key (repeatable), skipping the diff.

Deletes are idempotent: deleting an absent key is a success. Individual
failures do not abort the batch; each key gets exactly one outcome.

Example:
  s3recon delete --start 2014-10-20 --end 2014-10-21 --path my.bucket/folder1
  s3recon delete --key s3://my.bucket/folder1/part-0001.gz`,
	RunE: runDelete,
}

var (
	deleteStart  string
	deleteEnd    string
	deletePath   string
	deleteKeys   []string
	deleteDryRun bool
)

func init() {
	rootCmd.AddCommand(deleteCmd)

	deleteCmd.Flags().StringVar(&deleteStart, "start", "", "Window start date, YYYY-MM-DD")
	deleteCmd.Flags().StringVar(&deleteEnd, "end", "", "Window end date, YYYY-MM-DD, inclusive")
	deleteCmd.Flags().StringVar(&deletePath, "path", "", "Bucket path, e.g. my.bucket/folder1")
	deleteCmd.Flags().StringArrayVar(&deleteKeys, "key", nil, "Explicit key to delete (repeatable); bypasses the diff")
	deleteCmd.Flags().BoolVar(&deleteDryRun, "dry-run", false, "List the keys that would be deleted without deleting")

	deleteCmd.MarkFlagsRequiredTogether("start", "end", "path")
	deleteCmd.MarkFlagsOneRequired("path", "key")
	deleteCmd.MarkFlagsMutuallyExclusive("path", "key")
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	targets, client, cleanup, err := deleteTargets(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	w, done, err := newWriter()
	if err != nil {
		return err
	}
	defer done()

	if deleteDryRun {
		state := dryRunState(len(deleteKeys) > 0)
		for _, key := range targets.Strings() {
			if err := w.WriteKey(ctx, &output.KeyRecord{Key: key, State: state}); err != nil {
				return err
			}
		}
		observability.CLILogger.Info("Dry run: no keys deleted",
			zap.Int("would_delete", targets.Len()))
		return nil
	}

	mgr := lifecycle.New(client, cfg.Lifecycle)

	batchStart := time.Now()
	outcomes, batchErr := mgr.DeleteKeys(ctx, targets)
	if err := writeBatch(ctx, w, outcomes, lifecycle.OpDelete, time.Since(batchStart)); err != nil {
		return err
	}
	return batchErr
}

// dryRunState classifies dry-run targets. Keys resolved through the diff
// are known already-committed; explicit --key targets carry no such claim.
func dryRunState(explicit bool) string {
	if explicit {
		return ""
	}
	return "already_committed"
}

// deleteTargets resolves the key set to delete: the already-committed
// partition of a fresh diff, or the explicit --key set.
func deleteTargets(cmd *cobra.Command) (objectkey.Set, *bucket.Client, func(), error) {
	ctx := cmd.Context()

	if len(deleteKeys) > 0 {
		targets := make(objectkey.Set, len(deleteKeys))
		for _, raw := range deleteKeys {
			key, err := objectkey.Parse(raw)
			if err != nil {
				return nil, nil, nil, err
			}
			targets.Add(key)
		}

		client, err := newBucketClient(ctx)
		if err != nil {
			return nil, nil, nil, err
		}
		return targets, client, func() {}, nil
	}

	start, end, err := ledger.ParseDateRange(deleteStart, deleteEnd)
	if err != nil {
		return nil, nil, nil, err
	}

	rec, client, cleanup, err := newReconciler(ctx)
	if err != nil {
		observability.CLILogger.Error("Failed to connect", zap.Error(err))
		return nil, nil, nil, err
	}

	res, err := rec.Diff(ctx, start, end, deletePath)
	if err != nil {
		cleanup()
		observability.CLILogger.Error("Diff failed", zap.Error(err))
		return nil, nil, nil, err
	}

	return res.BucketKeysAlreadyCommitted, client, cleanup, nil
}
