package cmd

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/redshift-tools/s3recon/internal/observability"
	"github.com/redshift-tools/s3recon/pkg/objectkey"
	"github.com/redshift-tools/s3recon/pkg/output"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List all keys under a bucket path",
	Long: `List every key under the given bucket/prefix, streaming pages as
they arrive. An optional glob pattern filters the listed paths.

Example:
  s3recon keys --path my.bucket/folder1
  s3recon keys --path my.bucket/folder1 --pattern '**/*.gz'`,
	RunE: runKeys,
}

var (
	keysPath    string
	keysPattern string
)

func init() {
	rootCmd.AddCommand(keysCmd)

	keysCmd.Flags().StringVar(&keysPath, "path", "", "Bucket path, e.g. my.bucket/folder1 (required)")
	keysCmd.Flags().StringVar(&keysPattern, "pattern", "", "Glob filter applied to object paths")

	_ = keysCmd.MarkFlagRequired("path")
}

func runKeys(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if keysPattern != "" && !doublestar.ValidatePattern(keysPattern) {
		return fmt.Errorf("invalid glob pattern: %q", keysPattern)
	}

	bucketName, prefix, err := objectkey.SplitBucketPath(keysPath)
	if err != nil {
		return err
	}

	client, err := newBucketClient(ctx)
	if err != nil {
		observability.CLILogger.Error("Failed to create bucket client", zap.Error(err))
		return err
	}

	w, done, err := newWriter()
	if err != nil {
		return err
	}
	defer done()

	var listed int
	for key, err := range client.Keys(ctx, bucketName, prefix) {
		if err != nil {
			observability.CLILogger.Error("Listing failed", zap.Error(err))
			return err
		}

		if keysPattern != "" {
			if ok, _ := doublestar.Match(keysPattern, key.Path); !ok {
				continue
			}
		}

		if err := w.WriteKey(ctx, &output.KeyRecord{Key: key.String()}); err != nil {
			return err
		}
		listed++
	}

	observability.CLILogger.Info("Listing complete",
		zap.String("path", keysPath),
		zap.Int("keys", listed))
	return nil
}
