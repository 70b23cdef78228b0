package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/redshift-tools/s3recon/internal/observability"
	"github.com/redshift-tools/s3recon/pkg/ledger"
	"github.com/redshift-tools/s3recon/pkg/output"
)

var committedCmd = &cobra.Command{
	Use:   "committed",
	Short: "List keys committed to Redshift in a date window",
	Long: `Query stl_load_commits for every S3 key whose COPY reached a COMMIT
within the inclusive date window.

Example:
  s3recon committed --start 2014-10-20 --end 2014-10-21`,
	RunE: runCommitted,
}

var (
	committedStart string
	committedEnd   string
)

func init() {
	rootCmd.AddCommand(committedCmd)

	committedCmd.Flags().StringVar(&committedStart, "start", "", "Window start date, YYYY-MM-DD (required)")
	committedCmd.Flags().StringVar(&committedEnd, "end", "", "Window end date, YYYY-MM-DD, inclusive (required)")

	_ = committedCmd.MarkFlagRequired("start")
	_ = committedCmd.MarkFlagRequired("end")
}

func runCommitted(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	start, end, err := ledger.ParseDateRange(committedStart, committedEnd)
	if err != nil {
		return err
	}

	reader, err := newLedgerReader(ctx)
	if err != nil {
		observability.CLILogger.Error("Failed to connect to warehouse", zap.Error(err))
		return err
	}
	defer func() { _ = reader.Close() }()

	keys, err := reader.CommittedKeys(ctx, start, end)
	if err != nil {
		observability.CLILogger.Error("Commit query failed", zap.Error(err))
		return err
	}

	observability.CLILogger.Info("Fetched committed keys", zap.Int("keys", keys.Len()))

	w, done, err := newWriter()
	if err != nil {
		return err
	}
	defer done()

	for _, key := range keys.Strings() {
		if err := w.WriteKey(ctx, &output.KeyRecord{Key: key, State: "committed"}); err != nil {
			return err
		}
	}
	return nil
}
