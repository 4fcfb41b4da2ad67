package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/SaiNageswarS/gcs-transfer/cloud"
	"github.com/SaiNageswarS/gcs-transfer/config"
	"github.com/SaiNageswarS/gcs-transfer/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	defaultKeysBucket = "provekit"
	defaultKeysDir    = "keys"
)

// proving and verification keys published in the public keys bucket
var defaultKeys = []string{
	"basic2_vk.bin",
	"basic2_pk.bin",
	"age_check_vk.bin",
	"age_check_pk.bin",
}

var (
	errKeyDownloadsFailed = errors.New("key downloads failed")
	errEmptyKey           = errors.New("empty file")
)

func newFetchKeysCmd(opts *rootOptions) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "fetch-keys [key...]",
		Short: "Fetch the proving and verification keys through their public URLs",
		Long: "Fetch the proving and verification keys through their public URLs.\n" +
			"Keys default to the published set and the bucket to " + defaultKeysBucket + " unless one is configured.",
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			keys := args
			if len(keys) == 0 {
				keys = defaultKeys
			}
			return withStorage(cmd, opts, false, func(ctx context.Context, storage cloud.Storage, cfg *config.TransferConfig) error {
				bucket := cfg.Bucket
				if bucket == "" {
					bucket = defaultKeysBucket
				}
				return fetchKeys(ctx, cmd.OutOrStdout(), storage, bucket, dir, keys)
			})
		},
	}

	cmd.Flags().StringVar(&dir, "dir", defaultKeysDir, "directory the keys are written to")
	return cmd
}

// fetchKeys downloads every key into dir, carrying on past failures. Files of
// failed keys are removed so no partial key is left behind.
func fetchKeys(ctx context.Context, out io.Writer, storage cloud.Storage, bucket, dir string, keys []string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}

	var succeeded, failed int
	for _, key := range keys {
		dest := filepath.Join(dir, key)
		fmt.Fprintf(out, "Downloading %s...\n", key)

		if err := fetchKey(ctx, storage, bucket, key, dest); err != nil {
			failed++
			fmt.Fprintf(out, "Failed: %s: %v\n", key, err)
			logger.Error("key download failed", zap.String("key", key), zap.Error(err))
			removePartial(dest)
			continue
		}
		succeeded++
	}

	fmt.Fprintf(out, "Download complete: %d successful, %d failed\n", succeeded, failed)
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", errKeyDownloadsFailed, failed, len(keys))
	}

	location := dir
	if abs, err := filepath.Abs(dir); err == nil {
		location = abs
	}
	fmt.Fprintf(out, "All keys downloaded successfully into %s\n", location)
	return nil
}

func fetchKey(ctx context.Context, storage cloud.Storage, bucket, key, dest string) error {
	if _, err := storage.DownloadPublicObject(ctx, bucket, key, dest); err != nil {
		return err
	}

	info, err := os.Stat(dest)
	if err != nil {
		return err
	}
	if info.Size() == 0 {
		return errEmptyKey
	}
	return nil
}

func removePartial(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("failed to remove partial key", zap.String("path", path), zap.Error(err))
	}
}
