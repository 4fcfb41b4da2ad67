package cloud

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// bucketClient is the slice of the storage SDK the facade needs, bound to one
// bucket.
type bucketClient interface {
	Objects(ctx context.Context) objectIterator
	Attrs(ctx context.Context, objectName string) (*storage.ObjectAttrs, error)
	NewReader(ctx context.Context, objectName string) (io.ReadCloser, error)
	NewWriter(ctx context.Context, objectName string) objectWriter
	Close() error
}

type objectIterator interface {
	Next() (*storage.ObjectAttrs, error)
}

type objectWriter interface {
	io.WriteCloser
	Attrs() *storage.ObjectAttrs
}

type bucketFactory func(ctx context.Context, bucketName, credentialsFile string) (bucketClient, error)

type gcsBucket struct {
	client *storage.Client
	bucket *storage.BucketHandle
}

// newGCSBucket authenticates with the service-account key at credentialsFile,
// or Application Default Credentials when it is empty.
func newGCSBucket(ctx context.Context, bucketName, credentialsFile string) (bucketClient, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	return dialGCSBucket(ctx, bucketName, opts...)
}

func dialGCSBucket(ctx context.Context, bucketName string, opts ...option.ClientOption) (bucketClient, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage.NewClient: %w", err)
	}

	return &gcsBucket{client: client, bucket: client.Bucket(bucketName)}, nil
}

func (b *gcsBucket) Objects(ctx context.Context) objectIterator {
	return b.bucket.Objects(ctx, nil)
}

func (b *gcsBucket) Attrs(ctx context.Context, objectName string) (*storage.ObjectAttrs, error) {
	return b.bucket.Object(objectName).Attrs(ctx)
}

func (b *gcsBucket) NewReader(ctx context.Context, objectName string) (io.ReadCloser, error) {
	rc, err := b.bucket.Object(objectName).NewReader(ctx)
	if err != nil {
		return nil, err
	}
	return rc, nil
}

func (b *gcsBucket) NewWriter(ctx context.Context, objectName string) objectWriter {
	return b.bucket.Object(objectName).NewWriter(ctx)
}

func (b *gcsBucket) Close() error {
	return b.client.Close()
}
