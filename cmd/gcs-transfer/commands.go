package main

import (
	"context"

	"github.com/SaiNageswarS/gcs-transfer/cloud"
	"github.com/SaiNageswarS/gcs-transfer/config"
	"github.com/spf13/cobra"
)

func newListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every object in the bucket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, opts)
		},
	}
}

func runList(cmd *cobra.Command, opts *rootOptions) error {
	return withStorage(cmd, opts, true, func(ctx context.Context, storage cloud.Storage, cfg *config.TransferConfig) error {
		_, err := cloud.CollectObjects(storage.ListObjects(ctx, cfg.Bucket))
		return err
	})
}

func newUploadCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "upload [local path] [destination]",
		Short: "Upload a local file, named after the file unless a destination is given",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStorage(cmd, opts, true, func(ctx context.Context, storage cloud.Storage, cfg *config.TransferConfig) error {
				_, err := storage.UploadFile(ctx, cfg.Bucket, args[0], optionalArg(args, 1))
				return err
			})
		},
	}
}

func newDownloadCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "download [object] [local path]",
		Short: "Download an object through the storage API",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStorage(cmd, opts, true, func(ctx context.Context, storage cloud.Storage, cfg *config.TransferConfig) error {
				_, err := storage.DownloadFile(ctx, cfg.Bucket, args[0], optionalArg(args, 1))
				return err
			})
		},
	}
}

func newDownloadURLCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "download-url [url] [local path]",
		Short: "Download any HTTP(S) URL without storage credentials",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStorage(cmd, opts, false, func(ctx context.Context, storage cloud.Storage, _ *config.TransferConfig) error {
				_, err := storage.DownloadPublicURL(ctx, args[0], optionalArg(args, 1))
				return err
			})
		},
	}
}

func newDownloadPublicCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "download-public [object] [local path]",
		Short: "Download an object through its public URL",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStorage(cmd, opts, true, func(ctx context.Context, storage cloud.Storage, cfg *config.TransferConfig) error {
				_, err := storage.DownloadPublicObject(ctx, cfg.Bucket, args[0], optionalArg(args, 1))
				return err
			})
		},
	}
}
