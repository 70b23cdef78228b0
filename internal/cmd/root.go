// Package cmd implements the s3recon command line interface.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/redshift-tools/s3recon/internal/config"
	"github.com/redshift-tools/s3recon/internal/observability"
)

var rootCmd = &cobra.Command{
	Use:   "s3recon",
	Short: "Reconcile S3 keys against Redshift load commits",
	Long: `s3recon reconciles object-storage keys bulk-loaded into Redshift
(via successful COMMITs in stl_load_commits) with the keys physically
present in a bucket/prefix, so operators can clean up or retry failed
loads.

Results are emitted as JSONL records on stdout; logs go to stderr.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(rootEnvPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		if rootLogLevel != "" {
			c.Log.Level = rootLogLevel
		}
		if err := observability.Init(c.Log.Level, c.Log.Format); err != nil {
			return fmt.Errorf("init logging: %w", err)
		}

		cfg = c
		return nil
	},
}

var (
	// cfg is the loaded configuration, set by PersistentPreRunE.
	cfg *config.Config

	rootEnvPath  string
	rootLogLevel string
	rootOutput   string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&rootEnvPath, "env-path", ".", "Directory containing an optional .env file")
	rootCmd.PersistentFlags().StringVar(&rootLogLevel, "log-level", "", "Override log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().StringVarP(&rootOutput, "output", "o", "-", "Output destination (JSONL file, or - for stdout)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		observability.CLILogger.Error("Command failed", zap.Error(err))
		os.Exit(1)
	}
}
