package cloud

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/SaiNageswarS/gcs-transfer/metrics"
	"github.com/SaiNageswarS/gcs-transfer/testutil"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeLocal(t *testing.T, path string, data []byte) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// ---- listing ----------------------------------------------------------------

func TestListObjects_SummaryMatchesDescriptors(t *testing.T) {
	bucket := newFakeBucket("media")
	bucket.put("a.bin", bytes.Repeat([]byte("a"), 1024*1024))
	bucket.put("reports/q1.csv", bytes.Repeat([]byte("b"), 512*1024))
	bucket.put("z.txt", []byte("hello"))

	g, out := newTestGCP(t, bucket)
	objects, err := CollectObjects(g.ListObjects(context.Background(), "media"))
	require.NoError(t, err)

	var total int64
	for _, obj := range objects {
		total += obj.Size
	}
	assert.Len(t, objects, 3)
	assert.Equal(t, int64(1024*1024+512*1024+5), total)

	report := out.String()
	assert.Contains(t, report, "Objects in bucket media:")
	assert.Contains(t, report, "Total: 3 objects, "+formatMB(total)+" MB")
	assert.Contains(t, report, "Size:          1.00 MB")
	assert.Contains(t, report, "Storage class: STANDARD")
	assert.Contains(t, report, "Public URL:    https://storage.googleapis.com/media/reports/q1.csv")
	assert.Equal(t, 1, bucket.closed)
}

func TestListObjects_DescriptorFields(t *testing.T) {
	bucket := newFakeBucket("media")
	src := bucket.put("a.bin", []byte("12345"))

	g, _ := newTestGCP(t, bucket)
	objects, err := CollectObjects(g.ListObjects(context.Background(), "media"))
	require.NoError(t, err)
	require.Len(t, objects, 1)

	obj := objects[0]
	assert.Equal(t, "media", obj.Bucket)
	assert.Equal(t, "a.bin", obj.Name)
	assert.Equal(t, int64(5), obj.Size)
	assert.True(t, src.attrs.Created.Equal(obj.Created))
	assert.True(t, src.attrs.Updated.Equal(obj.Updated))
	assert.Equal(t, "STANDARD", obj.StorageClass)
	assert.Equal(t, "https://storage.googleapis.com/media/a.bin", obj.PublicURL)
}

func TestListObjects_EmptyBucket(t *testing.T) {
	g, out := newTestGCP(t, newFakeBucket("empty"))

	objects, err := CollectObjects(g.ListObjects(context.Background(), "empty"))
	require.NoError(t, err)
	assert.Empty(t, objects)
	assert.Contains(t, out.String(), "Total: 0 objects, 0.00 MB")
}

func TestListObjects_PropagatesListingError(t *testing.T) {
	listErr := errors.New("googleapi: Error 403: forbidden")
	bucket := newFakeBucket("media")
	bucket.put("a.bin", []byte("a"))
	bucket.listErr = listErr

	g, out := newTestGCP(t, bucket)
	objects, err := CollectObjects(g.ListObjects(context.Background(), "media"))

	assert.ErrorIs(t, err, listErr)
	assert.Len(t, objects, 1)
	assert.NotContains(t, out.String(), "Total:")
}

func TestListObjects_ClientError(t *testing.T) {
	clientErr := errors.New("malformed credentials")
	g, _ := newTestGCP(t, nil)
	g.newBucket = func(context.Context, string, string) (bucketClient, error) { return nil, clientErr }

	_, err := CollectObjects(g.ListObjects(context.Background(), "media"))
	assert.ErrorIs(t, err, clientErr)
}

func TestListObjects_IsLazy(t *testing.T) {
	bucket := newFakeBucket("media")
	bucket.put("a.bin", []byte("a"))
	bucket.put("b.bin", []byte("b"))

	g, out := newTestGCP(t, bucket)
	seq := g.ListObjects(context.Background(), "media")
	assert.Equal(t, 0, bucket.clients, "nothing happens before iteration")
	assert.Empty(t, out.String())

	for obj, err := range seq {
		require.NoError(t, err)
		assert.Equal(t, "a.bin", obj.Name)
		break
	}

	assert.Equal(t, 1, bucket.closed)
	assert.NotContains(t, out.String(), "b.bin")
	assert.NotContains(t, out.String(), "Total:")
}

func TestListObjects_EarlyStopCountsAsSuccess(t *testing.T) {
	bucket := newFakeBucket("media")
	bucket.put("a.bin", []byte("a"))
	bucket.put("b.bin", []byte("b"))
	rec := metrics.NewRecorder()

	g, _ := newTestGCP(t, bucket, WithMetrics(rec))
	for _, err := range g.ListObjects(context.Background(), "media") {
		require.NoError(t, err)
		break
	}

	expected := `
# HELP gcs_transfer_operations_total Storage operations by outcome.
# TYPE gcs_transfer_operations_total counter
gcs_transfer_operations_total{operation="list",result="success"} 1
`
	assert.NoError(t, promtestutil.GatherAndCompare(rec.Gatherer(), strings.NewReader(expected), "gcs_transfer_operations_total"))
}

func TestListObjects_ErrorIsCountedOnce(t *testing.T) {
	bucket := newFakeBucket("media")
	bucket.listErr = errors.New("googleapi: Error 403: forbidden")
	rec := metrics.NewRecorder()

	g, _ := newTestGCP(t, bucket, WithMetrics(rec))
	_, err := CollectObjects(g.ListObjects(context.Background(), "media"))
	require.Error(t, err)

	expected := `
# HELP gcs_transfer_operations_total Storage operations by outcome.
# TYPE gcs_transfer_operations_total counter
gcs_transfer_operations_total{operation="list",result="error"} 1
`
	assert.NoError(t, promtestutil.GatherAndCompare(rec.Gatherer(), strings.NewReader(expected), "gcs_transfer_operations_total"))
}

// ---- upload -----------------------------------------------------------------

func TestUploadFile_AnnouncesBeforeUploading(t *testing.T) {
	local := writeLocal(t, filepath.Join(t.TempDir(), "data.bin"), []byte("payload"))

	g, out := newTestGCP(t, newFakeBucket("media"))
	_, err := g.UploadFile(context.Background(), "media", local, "archive/data.bin")
	require.NoError(t, err)

	report := out.String()
	header := strings.Index(report, "Uploading "+local+" to gs://media/archive/data.bin\nFile size: 0.00 MB\n")
	require.GreaterOrEqual(t, header, 0)
	assert.Less(t, header, strings.Index(report, "Uploaded "+local))
}

func TestUploadFile_DefaultsToBaseName(t *testing.T) {
	local := writeLocal(t, filepath.Join(t.TempDir(), "data.bin"), []byte("payload"))
	bucket := newFakeBucket("media")

	g, out := newTestGCP(t, bucket)
	obj, err := g.UploadFile(context.Background(), "media", local, "")
	require.NoError(t, err)

	assert.Equal(t, "data.bin", obj.Name)
	assert.Equal(t, int64(7), obj.Size)
	assert.Contains(t, bucket.objects, "data.bin")
	assert.Contains(t, out.String(), "to:   media/data.bin")
}

func TestUploadFile_ExplicitDestination(t *testing.T) {
	local := writeLocal(t, filepath.Join(t.TempDir(), "data.bin"), []byte("payload"))
	bucket := newFakeBucket("media")

	g, out := newTestGCP(t, bucket)
	obj, err := g.UploadFile(context.Background(), "media", local, "archive/data-v2.bin")
	require.NoError(t, err)

	assert.Equal(t, "archive/data-v2.bin", obj.Name)
	assert.Equal(t, "https://storage.googleapis.com/media/archive/data-v2.bin", obj.PublicURL)
	assert.Contains(t, bucket.objects, "archive/data-v2.bin")
	assert.NotContains(t, bucket.objects, "data.bin")
	assert.Contains(t, out.String(), "Uploaded "+local)
	assert.Contains(t, out.String(), "to:   media/archive/data-v2.bin")
}

func TestUploadFile_MissingLocalFile(t *testing.T) {
	bucket := newFakeBucket("media")

	g, _ := newTestGCP(t, bucket)
	_, err := g.UploadFile(context.Background(), "media", filepath.Join(t.TempDir(), "nope.bin"), "")

	assert.ErrorIs(t, err, ErrLocalFileNotFound)
	assert.Equal(t, 0, bucket.clients, "no client before the local check passes")
}

// ---- download by name -------------------------------------------------------

func TestDownloadFile_MissingObject(t *testing.T) {
	bucket := newFakeBucket("media")
	dest := filepath.Join(t.TempDir(), "nonexistent_123.bin")

	g, _ := newTestGCP(t, bucket)
	_, err := g.DownloadFile(context.Background(), "media", "nonexistent_123.bin", dest)

	assert.ErrorIs(t, err, ErrRemoteObjectNotFound)
	assert.Equal(t, 0, bucket.readers, "no transfer for a missing object")
	assert.NoFileExists(t, dest)
}

func TestDownloadFile_AnnouncesBeforeTransfer(t *testing.T) {
	readErr := errors.New("connection reset by peer")
	bucket := newFakeBucket("media")
	bucket.put("data.bin", bytes.Repeat([]byte("d"), 2*1024*1024))
	bucket.readErr = readErr
	dest := filepath.Join(t.TempDir(), "data.bin")

	g, out := newTestGCP(t, bucket)
	_, err := g.DownloadFile(context.Background(), "media", "data.bin", dest)

	assert.ErrorIs(t, err, readErr)
	assert.Equal(t, "Downloading gs://media/data.bin to "+dest+"\nFile size: 2.00 MB\n", out.String())
}

func TestDownloadFile_EmptyObjectIsVerified(t *testing.T) {
	bucket := newFakeBucket("media")
	bucket.put("empty.bin", nil)

	g, out := newTestGCP(t, bucket)
	_, err := g.DownloadFile(context.Background(), "media", "empty.bin", filepath.Join(t.TempDir(), "empty.bin"))
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Integrity verified: 0 bytes")
}

func TestDownloadFile_CreatesParentDirs(t *testing.T) {
	bucket := newFakeBucket("media")
	bucket.put("data.bin", []byte("abc"))
	root := t.TempDir()
	dest := filepath.Join(root, "out", "sub", "data.bin")

	g, _ := newTestGCP(t, bucket)
	got, err := g.DownloadFile(context.Background(), "media", "data.bin", dest)
	require.NoError(t, err)

	assert.Equal(t, dest, got)
	assert.DirExists(t, filepath.Join(root, "out"))
	assert.DirExists(t, filepath.Join(root, "out", "sub"))
	assert.FileExists(t, dest)
}

func TestDownloadFile_DefaultsToObjectBaseName(t *testing.T) {
	dir := testutil.InTempDir(t)
	bucket := newFakeBucket("media")
	bucket.put("reports/2026/q1.csv", []byte("a,b\n"))

	g, _ := newTestGCP(t, bucket)
	got, err := g.DownloadFile(context.Background(), "media", "reports/2026/q1.csv", "")
	require.NoError(t, err)

	assert.Equal(t, "q1.csv", got)
	assert.FileExists(t, filepath.Join(dir, "q1.csv"))
}

func TestDownloadFile_SizeMismatchIsWarning(t *testing.T) {
	logs := testutil.ObserveLogs(t, zap.WarnLevel)
	bucket := newFakeBucket("media")
	obj := bucket.put("data.bin", []byte("abc"))
	obj.attrs.Size = 10
	rec := metrics.NewRecorder()

	g, out := newTestGCP(t, bucket, WithMetrics(rec))
	dest := filepath.Join(t.TempDir(), "data.bin")
	got, err := g.DownloadFile(context.Background(), "media", "data.bin", dest)
	require.NoError(t, err)

	assert.Equal(t, dest, got)
	assert.Contains(t, out.String(), "WARNING: size mismatch: local 3 bytes, remote 10 bytes")
	assert.Equal(t, 1, logs.FilterMessage("downloaded size differs from remote size").Len())
}

func TestUploadThenDownload_RoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte{0x00, 0x7f, 0xff, 0x10}, 20_000)
	local := writeLocal(t, filepath.Join(t.TempDir(), "blob.dat"), payload)
	bucket := newFakeBucket("media")
	rec := metrics.NewRecorder()

	g, out := newTestGCP(t, bucket, WithMetrics(rec))
	_, err := g.UploadFile(context.Background(), "media", local, "")
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "back", "blob.dat")
	got, err := g.DownloadFile(context.Background(), "media", "blob.dat", dest)
	require.NoError(t, err)

	content, err := os.ReadFile(got)
	require.NoError(t, err)
	assert.Equal(t, payload, content)
	assert.Contains(t, out.String(), "Integrity verified: 80000 bytes")
	assert.Equal(t, 2, bucket.closed, "every operation builds and closes its own client")
}
