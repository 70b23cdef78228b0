// Package config loads tool configuration from environment variables and
// an optional .env file.
//
// The loaded Config is an explicit immutable value passed to constructors;
// there is no process-wide connection state.
package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/redshift-tools/s3recon/pkg/bucket"
	"github.com/redshift-tools/s3recon/pkg/ledger"
	"github.com/redshift-tools/s3recon/pkg/lifecycle"
)

// LogConfig configures the process loggers.
type LogConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `mapstructure:"level"`

	// Format is the log encoding (console or json).
	Format string `mapstructure:"format"`
}

// Config holds all configuration for the tool.
type Config struct {
	// Ledger holds the warehouse connection settings.
	Ledger ledger.Config

	// Store holds the object-store settings.
	Store bucket.Config

	// Lifecycle holds batch execution settings.
	Lifecycle lifecycle.Config

	// Log holds logger settings.
	Log LogConfig
}

// Load reads configuration from the environment, overlaying a .env file
// from path when one exists.
//
// Warehouse settings default from the conventional PG* variables
// (PGDATABASE, PGUSER, PGPASSWORD, PGHOST, PGPORT); object-store
// credentials default from the AWS SDK chain and may be pinned with
// S3RECON_ACCESS_KEY / S3RECON_SECRET_KEY / S3RECON_REGION.
func Load(path string) (*Config, error) {
	envPath := ".env"
	if path != "" && path != "." {
		envPath = path + "/.env"
	}
	// Ignore error if file doesn't exist (e.g. production)
	_ = godotenv.Overload(envPath)

	v := viper.New()
	v.SetEnvPrefix("S3RECON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	bindWarehouseEnv(v)

	cfg := &Config{
		Ledger: ledger.Config{
			Database:     v.GetString("ledger.database"),
			User:         v.GetString("ledger.user"),
			Password:     v.GetString("ledger.password"),
			Host:         v.GetString("ledger.host"),
			Port:         v.GetInt("ledger.port"),
			SSLMode:      v.GetString("ledger.sslmode"),
			QueryTimeout: v.GetDuration("ledger.query_timeout"),
		},
		Store: bucket.Config{
			Region:          v.GetString("store.region"),
			Endpoint:        v.GetString("store.endpoint"),
			Profile:         v.GetString("store.profile"),
			AccessKeyID:     v.GetString("store.access_key"),
			SecretAccessKey: v.GetString("store.secret_key"),
			ForcePathStyle:  v.GetBool("store.force_path_style"),
			PageTimeout:     v.GetDuration("store.page_timeout"),
			PageRetries:     v.GetInt("store.page_retries"),
		},
		Lifecycle: lifecycle.Config{
			Concurrency: v.GetInt("lifecycle.concurrency"),
			RateLimit:   v.GetFloat64("lifecycle.rate_limit"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}

	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can resolve it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("ledger.database", "")
	v.SetDefault("ledger.user", "")
	v.SetDefault("ledger.password", "")
	v.SetDefault("ledger.host", "")
	v.SetDefault("ledger.port", ledger.DefaultPort)
	v.SetDefault("ledger.sslmode", "")
	v.SetDefault("ledger.query_timeout", ledger.DefaultQueryTimeout)

	v.SetDefault("store.region", "")
	v.SetDefault("store.endpoint", "")
	v.SetDefault("store.profile", "")
	v.SetDefault("store.access_key", "")
	v.SetDefault("store.secret_key", "")
	v.SetDefault("store.force_path_style", false)
	v.SetDefault("store.page_timeout", bucket.DefaultPageTimeout)
	v.SetDefault("store.page_retries", bucket.DefaultPageRetries)

	v.SetDefault("lifecycle.concurrency", lifecycle.DefaultConfig().Concurrency)
	v.SetDefault("lifecycle.rate_limit", 0.0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	_ = v.BindEnv("log.level", "S3RECON_LOG_LEVEL")
	_ = v.BindEnv("log.format", "S3RECON_LOG_FORMAT")
}

// bindWarehouseEnv maps the conventional postgres/Redshift variables onto
// the ledger keys, keeping parity with psql and the AWS console examples.
func bindWarehouseEnv(v *viper.Viper) {
	_ = v.BindEnv("ledger.database", "S3RECON_LEDGER_DATABASE", "PGDATABASE")
	_ = v.BindEnv("ledger.user", "S3RECON_LEDGER_USER", "PGUSER")
	_ = v.BindEnv("ledger.password", "S3RECON_LEDGER_PASSWORD", "PGPASSWORD")
	_ = v.BindEnv("ledger.host", "S3RECON_LEDGER_HOST", "PGHOST")
	_ = v.BindEnv("ledger.port", "S3RECON_LEDGER_PORT", "PGPORT")

	_ = v.BindEnv("store.region", "S3RECON_REGION", "AWS_REGION")
	_ = v.BindEnv("store.access_key", "S3RECON_ACCESS_KEY")
	_ = v.BindEnv("store.secret_key", "S3RECON_SECRET_KEY")
}
