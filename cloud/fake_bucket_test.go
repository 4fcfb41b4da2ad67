package cloud

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sort"
	"testing"
	"time"

	"cloud.google.com/go/storage"
	"github.com/SaiNageswarS/gcs-transfer/config"
	"google.golang.org/api/iterator"
)

// fakeBucket is an in-memory bucketClient.
type fakeBucket struct {
	name    string
	objects map[string]*fakeObject
	listErr error
	readErr error

	clients int // factory calls
	readers int // NewReader calls
	closed  int
}

type fakeObject struct {
	data  []byte
	attrs storage.ObjectAttrs
}

func newFakeBucket(name string) *fakeBucket {
	return &fakeBucket{name: name, objects: map[string]*fakeObject{}}
}

func (b *fakeBucket) put(name string, data []byte) *fakeObject {
	created := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	obj := &fakeObject{
		data: append([]byte(nil), data...),
		attrs: storage.ObjectAttrs{
			Bucket:       b.name,
			Name:         name,
			Size:         int64(len(data)),
			Created:      created,
			Updated:      created.Add(time.Hour),
			StorageClass: "STANDARD",
		},
	}
	b.objects[name] = obj
	return obj
}

func (b *fakeBucket) factory() bucketFactory {
	return func(_ context.Context, _, _ string) (bucketClient, error) {
		b.clients++
		return b, nil
	}
}

func (b *fakeBucket) Objects(_ context.Context) objectIterator {
	names := make([]string, 0, len(b.objects))
	for name := range b.objects {
		names = append(names, name)
	}
	sort.Strings(names)

	it := &fakeIterator{err: b.listErr}
	for _, name := range names {
		attrs := b.objects[name].attrs
		it.items = append(it.items, &attrs)
	}
	return it
}

func (b *fakeBucket) Attrs(_ context.Context, objectName string) (*storage.ObjectAttrs, error) {
	obj, ok := b.objects[objectName]
	if !ok {
		return nil, storage.ErrObjectNotExist
	}
	attrs := obj.attrs
	return &attrs, nil
}

func (b *fakeBucket) NewReader(_ context.Context, objectName string) (io.ReadCloser, error) {
	b.readers++
	if b.readErr != nil {
		return nil, b.readErr
	}
	obj, ok := b.objects[objectName]
	if !ok {
		return nil, storage.ErrObjectNotExist
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

func (b *fakeBucket) NewWriter(_ context.Context, objectName string) objectWriter {
	return &fakeWriter{bucket: b, name: objectName}
}

func (b *fakeBucket) Close() error {
	b.closed++
	return nil
}

type fakeIterator struct {
	items []*storage.ObjectAttrs
	err   error // returned once items are exhausted, instead of iterator.Done
}

func (it *fakeIterator) Next() (*storage.ObjectAttrs, error) {
	if len(it.items) == 0 {
		if it.err != nil {
			return nil, it.err
		}
		return nil, iterator.Done
	}
	next := it.items[0]
	it.items = it.items[1:]
	return next, nil
}

type fakeWriter struct {
	bucket *fakeBucket
	name   string
	buf    bytes.Buffer
	attrs  *storage.ObjectAttrs
}

func (w *fakeWriter) Write(p []byte) (int, error) { return w.buf.Write(p) }

func (w *fakeWriter) Close() error {
	obj := w.bucket.put(w.name, w.buf.Bytes())
	attrs := obj.attrs
	w.attrs = &attrs
	return nil
}

func (w *fakeWriter) Attrs() *storage.ObjectAttrs { return w.attrs }

// roundTripFunc serves HTTP requests without a network.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

func newTestGCP(t *testing.T, bucket *fakeBucket, opts ...Option) (*GCP, *bytes.Buffer) {
	t.Helper()

	out := &bytes.Buffer{}
	opts = append([]Option{WithOutput(out)}, opts...)
	g := ProvideGCP(&config.TransferConfig{CredentialsFile: "testdata/key.json"}, opts...)
	if bucket != nil {
		g.newBucket = bucket.factory()
	}
	return g, out
}
