package cloud

import (
	"context"
	"iter"
)

// Storage is the bucket facade used by the CLI. Every call builds its own
// client from the configured credential and closes it before returning.
type Storage interface {
	ListObjects(ctx context.Context, bucketName string) iter.Seq2[ObjectDescriptor, error]
	UploadFile(ctx context.Context, bucketName, localPath, destination string) (ObjectDescriptor, error)
	DownloadFile(ctx context.Context, bucketName, objectName, localPath string) (string, error)
	DownloadPublicURL(ctx context.Context, rawURL, localPath string) (string, error)
	DownloadPublicObject(ctx context.Context, bucketName, objectName, localPath string) (string, error)
}
