package main

import (
	"context"
	"errors"
	"io"

	"github.com/SaiNageswarS/gcs-transfer/cloud"
	"github.com/SaiNageswarS/gcs-transfer/config"
	"github.com/SaiNageswarS/gcs-transfer/logger"
	"github.com/SaiNageswarS/gcs-transfer/metrics"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var errBucketRequired = errors.New("bucket not set: use --bucket, the bucket config key or BUCKET")

type rootOptions struct {
	configPath  string
	bucket      string
	credentials string
	metricsFile string
}

// factories swapped in tests
var (
	newStorage  = defaultNewStorage
	loadSecrets = defaultLoadSecrets
)

func defaultNewStorage(cfg *config.TransferConfig, rec *metrics.Recorder, out io.Writer) cloud.Storage {
	return cloud.ProvideGCP(cfg, cloud.WithOutput(out), cloud.WithMetrics(rec))
}

func defaultLoadSecrets(ctx context.Context, cfg *config.TransferConfig) error {
	store, err := cloud.NewSecretStore(ctx, cfg.CredentialsFile)
	if err != nil {
		return err
	}
	defer store.Close()
	return cloud.LoadSecretsIntoEnv(ctx, store, cfg.GcpProjectId)
}

func NewRoot() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "gcs-transfer",
		Short:         "List, upload and download objects in a Google Cloud Storage bucket",
		Long:          "List, upload and download objects in a Google Cloud Storage bucket.\nWithout a subcommand the configured bucket is listed.",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, opts)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "config.ini", "INI config file")
	flags.StringVar(&opts.bucket, "bucket", "", "bucket name, overrides config")
	flags.StringVar(&opts.credentials, "credentials", "", "service-account key file, overrides config")
	flags.StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus metrics to this file on exit")

	rootCmd.AddCommand(
		newListCmd(opts),
		newUploadCmd(opts),
		newDownloadCmd(opts),
		newDownloadURLCmd(opts),
		newDownloadPublicCmd(opts),
		newFetchKeysCmd(opts),
	)
	return rootCmd
}

// resolveConfig layers INI, .env, secrets, env vars and finally flags.
func resolveConfig(ctx context.Context, opts *rootOptions) (*config.TransferConfig, error) {
	cfg := &config.TransferConfig{}
	if err := config.LoadConfig(opts.configPath, cfg); err != nil {
		return nil, err
	}
	// ENV may only now be set by .env
	logger.Reload()

	if cfg.LoadSecrets {
		if err := loadSecrets(ctx, cfg); err != nil {
			return nil, err
		}
		if err := config.ApplyEnv(cfg); err != nil {
			return nil, err
		}
	}

	if opts.bucket != "" {
		cfg.Bucket = opts.bucket
	}
	if opts.credentials != "" {
		cfg.CredentialsFile = opts.credentials
	}
	if opts.metricsFile != "" {
		cfg.MetricsFile = opts.metricsFile
	}
	return cfg, nil
}

// withStorage resolves config, runs fn against a fresh facade and flushes
// metrics whether or not fn failed.
func withStorage(cmd *cobra.Command, opts *rootOptions, needBucket bool,
	fn func(ctx context.Context, storage cloud.Storage, cfg *config.TransferConfig) error) error {

	ctx := cmd.Context()
	cfg, err := resolveConfig(ctx, opts)
	if err != nil {
		return err
	}
	if needBucket && cfg.Bucket == "" {
		return errBucketRequired
	}

	rec := metrics.NewRecorder()
	err = fn(ctx, newStorage(cfg, rec, cmd.OutOrStdout()), cfg)

	if cfg.MetricsFile != "" {
		if werr := rec.WriteTextfile(cfg.MetricsFile); werr != nil {
			logger.Error("failed to write metrics file", zap.String("path", cfg.MetricsFile), zap.Error(werr))
		}
	}
	return err
}

func optionalArg(args []string, i int) string {
	if len(args) > i {
		return args[i]
	}
	return ""
}
