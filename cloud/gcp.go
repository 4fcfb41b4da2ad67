package cloud

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/SaiNageswarS/gcs-transfer/config"
	"github.com/SaiNageswarS/gcs-transfer/logger"
	"github.com/SaiNageswarS/gcs-transfer/metrics"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
)

const (
	chunkSize = 8 * 1024

	publicDownloadTimeout = 300 * time.Second
)

const (
	opList        = "list"
	opUpload      = "upload"
	opDownload    = "download"
	opDownloadURL = "download_url"
)

type GCP struct {
	ccfgg *config.TransferConfig

	out        io.Writer
	httpClient *http.Client
	metrics    *metrics.Recorder
	newBucket  bucketFactory
}

type Option func(*GCP)

// WithOutput redirects the human-readable report, stdout by default.
func WithOutput(w io.Writer) Option {
	return func(g *GCP) { g.out = w }
}

func WithHTTPClient(c *http.Client) Option {
	return func(g *GCP) { g.httpClient = c }
}

func WithMetrics(r *metrics.Recorder) Option {
	return func(g *GCP) { g.metrics = r }
}

func ProvideGCP(c *config.TransferConfig, opts ...Option) *GCP {
	g := &GCP{
		ccfgg:      c,
		out:        os.Stdout,
		httpClient: &http.Client{Timeout: publicDownloadTimeout},
		newBucket:  newGCSBucket,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *GCP) credentialsFile() string {
	if g.ccfgg == nil {
		return ""
	}
	return g.ccfgg.CredentialsFile
}

// ListObjects walks every object in the bucket, printing each one as it is
// produced and a count/size summary once the listing is exhausted. Listing
// errors are yielded once and end the sequence. A consumer that stops early
// counts as a successful listing.
func (g *GCP) ListObjects(ctx context.Context, bucketName string) iter.Seq2[ObjectDescriptor, error] {
	return func(yield func(ObjectDescriptor, error) bool) {
		var listErr error
		defer func() { g.metrics.ObserveOperation(opList, listErr) }()

		client, err := g.newBucket(ctx, bucketName, g.credentialsFile())
		if err != nil {
			logger.Error("failed to create storage client", zap.Error(err))
			listErr = err
			yield(ObjectDescriptor{}, err)
			return
		}
		defer client.Close()

		fmt.Fprintf(g.out, "Objects in bucket %s:\n", bucketName)
		fmt.Fprintln(g.out, strings.Repeat("-", 60))

		var (
			count     int
			totalSize int64
		)

		it := client.Objects(ctx)
		for {
			attrs, err := it.Next()
			if err == iterator.Done {
				break
			}

			var obj ObjectDescriptor
			if err == nil {
				obj, err = newObjectDescriptor(bucketName, attrs)
			}
			if err != nil {
				logger.Error("failed to list objects", zap.String("bucket", bucketName), zap.Error(err))
				listErr = err
				yield(ObjectDescriptor{}, err)
				return
			}

			count++
			totalSize += obj.Size
			g.metrics.ObjectListed()
			printObject(g.out, obj)

			if !yield(obj, nil) {
				return
			}
		}

		fmt.Fprintln(g.out, strings.Repeat("-", 60))
		fmt.Fprintf(g.out, "Total: %d objects, %s MB\n", count, formatMB(totalSize))
	}
}

// CollectObjects drains a listing, stopping at the first error.
func CollectObjects(seq iter.Seq2[ObjectDescriptor, error]) ([]ObjectDescriptor, error) {
	var objects []ObjectDescriptor
	for obj, err := range seq {
		if err != nil {
			return objects, err
		}
		objects = append(objects, obj)
	}
	return objects, nil
}

// UploadFile stores localPath in the bucket as destination, or under the
// file's base name when destination is empty.
func (g *GCP) UploadFile(ctx context.Context, bucketName, localPath, destination string) (obj ObjectDescriptor, err error) {
	defer func() { g.metrics.ObserveOperation(opUpload, err) }()

	info, err := os.Stat(localPath)
	if errors.Is(err, fs.ErrNotExist) {
		return ObjectDescriptor{}, fmt.Errorf("%w: %s", ErrLocalFileNotFound, localPath)
	}
	if err != nil {
		return ObjectDescriptor{}, err
	}
	if info.IsDir() {
		return ObjectDescriptor{}, fmt.Errorf("%s is a directory", localPath)
	}

	if destination == "" {
		destination = filepath.Base(localPath)
	}

	file, err := os.Open(localPath)
	if err != nil {
		return ObjectDescriptor{}, err
	}
	defer file.Close()

	fmt.Fprintf(g.out, "Uploading %s to gs://%s/%s\n", localPath, bucketName, destination)
	fmt.Fprintf(g.out, "File size: %s MB\n", formatMB(info.Size()))

	client, err := g.newBucket(ctx, bucketName, g.credentialsFile())
	if err != nil {
		logger.Error("failed to create storage client", zap.Error(err))
		return ObjectDescriptor{}, err
	}
	defer client.Close()

	// Cancelling the writer's context aborts the upload instead of finalizing
	// a partial object.
	writeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	wc := client.NewWriter(writeCtx, destination)
	written, err := io.Copy(wc, file)
	if err != nil {
		cancel()
		wc.Close()
		logger.Error("failed to upload object", zap.String("object", destination), zap.Error(err))
		return ObjectDescriptor{}, fmt.Errorf("io.Copy: %w", err)
	}

	// Close the Writer, finalizing the upload.
	if err := wc.Close(); err != nil {
		logger.Error("failed to finalize upload", zap.String("object", destination), zap.Error(err))
		return ObjectDescriptor{}, fmt.Errorf("Writer.Close: %w", err)
	}
	g.metrics.AddBytes(metrics.DirectionUpload, written)

	attrs := wc.Attrs()
	if attrs == nil {
		attrs = &storage.ObjectAttrs{Bucket: bucketName, Name: destination, Size: written}
	}
	obj, err = newObjectDescriptor(bucketName, attrs)
	if err != nil {
		return ObjectDescriptor{}, err
	}

	fmt.Fprintf(g.out, "Uploaded %s\n", localPath)
	fmt.Fprintf(g.out, "  to:   %s/%s\n", bucketName, destination)
	fmt.Fprintf(g.out, "  size: %s MB\n", formatMB(written))

	logger.Info("Object uploaded successfully", zap.String("bucket", bucketName), zap.String("object", destination), zap.Int64("bytes", written))
	return obj, nil
}

// DownloadFile copies an object to localPath, or to the object's base name in
// the working directory when localPath is empty.
func (g *GCP) DownloadFile(ctx context.Context, bucketName, objectName, localPath string) (dest string, err error) {
	defer func() { g.metrics.ObserveOperation(opDownload, err) }()

	if localPath == "" {
		localPath = path.Base(objectName)
	}

	client, err := g.newBucket(ctx, bucketName, g.credentialsFile())
	if err != nil {
		logger.Error("failed to create storage client", zap.Error(err))
		return "", err
	}
	defer client.Close()

	// Attrs doubles as the existence probe and the authoritative size.
	attrs, err := client.Attrs(ctx, objectName)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return "", fmt.Errorf("%w: %s/%s", ErrRemoteObjectNotFound, bucketName, objectName)
	}
	if err != nil {
		logger.Error("failed to read object attrs", zap.String("object", objectName), zap.Error(err))
		return "", err
	}

	if err := ensureParentDir(localPath); err != nil {
		return "", err
	}

	fmt.Fprintf(g.out, "Downloading gs://%s/%s to %s\n", bucketName, objectName, localPath)
	fmt.Fprintf(g.out, "File size: %s MB\n", formatMB(attrs.Size))

	rc, err := client.NewReader(ctx, objectName)
	if err != nil {
		logger.Error("failed to open object reader", zap.String("object", objectName), zap.Error(err))
		return "", err
	}
	defer rc.Close()

	written, err := copyToFile(localPath, rc)
	if err != nil {
		logger.Error("failed to download object to file", zap.String("object", objectName), zap.Error(err))
		return "", err
	}
	g.metrics.AddBytes(metrics.DirectionDownload, written)

	fmt.Fprintf(g.out, "Downloaded %s/%s\n", bucketName, objectName)
	fmt.Fprintf(g.out, "  to:   %s\n", localPath)
	fmt.Fprintf(g.out, "  size: %s MB\n", formatMB(attrs.Size))

	if err := g.verifyDownload(opDownload, localPath, attrs.Size, true); err != nil {
		return "", err
	}

	logger.Info("File downloaded successfully", zap.String("filePath", localPath))
	return localPath, nil
}

// DownloadPublicURL fetches rawURL without storage credentials. localPath
// defaults to the last element of the URL path.
func (g *GCP) DownloadPublicURL(ctx context.Context, rawURL, localPath string) (dest string, err error) {
	defer func() { g.metrics.ObserveOperation(opDownloadURL, err) }()

	if localPath == "" {
		localPath, err = fileNameFromURL(rawURL)
		if err != nil {
			return "", err
		}
	}

	if err := ensureParentDir(localPath); err != nil {
		return "", err
	}

	fmt.Fprintf(g.out, "Downloading public file: %s\n", rawURL)
	fmt.Fprintf(g.out, "Local destination: %s\n", localPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDownloadFailed, err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		logger.Error("public download request failed", zap.String("url", rawURL), zap.Error(err))
		return "", fmt.Errorf("%w: %w", ErrDownloadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Error("public download rejected", zap.String("url", rawURL), zap.Int("status", resp.StatusCode))
		return "", fmt.Errorf("%w: GET %s: %s", ErrDownloadFailed, rawURL, resp.Status)
	}

	total := resp.ContentLength
	if total > 0 {
		fmt.Fprintf(g.out, "File size: %s MB\n", formatMB(total))
	}

	written, err := g.streamToFile(localPath, resp.Body, total)
	if err != nil {
		logger.Error("failed to stream download to file", zap.String("url", rawURL), zap.Error(err))
		return "", err
	}
	g.metrics.AddBytes(metrics.DirectionDownload, written)

	fmt.Fprintf(g.out, "Downloaded %s\n", rawURL)
	fmt.Fprintf(g.out, "  to:   %s\n", localPath)
	fmt.Fprintf(g.out, "  size: %s MB\n", formatMB(written))

	if err := g.verifyDownload(opDownloadURL, localPath, total, total > 0); err != nil {
		return "", err
	}

	logger.Info("File downloaded successfully", zap.String("filePath", localPath))
	return localPath, nil
}

// DownloadPublicObject downloads an object through its public URL.
func (g *GCP) DownloadPublicObject(ctx context.Context, bucketName, objectName, localPath string) (string, error) {
	return g.DownloadPublicURL(ctx, PublicURL(bucketName, objectName), localPath)
}

func (g *GCP) streamToFile(localPath string, body io.Reader, total int64) (written int64, err error) {
	file, err := os.Create(localPath)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()

	bar := newProgress(g.out, total)
	buf := make([]byte, chunkSize)
	for {
		n, rerr := body.Read(buf)
		if n > 0 {
			if _, werr := file.Write(buf[:n]); werr != nil {
				return written, werr
			}
			written += int64(n)
			bar.update(written)
		}

		if rerr == io.EOF {
			break
		}
		// A body shorter than its Content-Length is left to the size check.
		if errors.Is(rerr, io.ErrUnexpectedEOF) {
			logger.Warn("response body ended early", zap.Int64("received", written), zap.Int64("declared", total))
			break
		}
		if rerr != nil {
			return written, fmt.Errorf("%w: %w", ErrDownloadFailed, rerr)
		}
	}

	bar.finish(written)
	return written, nil
}

// verifyDownload checks the file landed and compares its size with the remote
// one when that is known. A size mismatch is reported, never returned.
func (g *GCP) verifyDownload(operation, localPath string, expected int64, known bool) error {
	info, err := os.Stat(localPath)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrDownloadIncomplete, localPath)
	}
	if err != nil {
		return err
	}

	switch {
	case !known:
		fmt.Fprintf(g.out, "Remote size unknown, wrote %d bytes\n", info.Size())
	case info.Size() == expected:
		fmt.Fprintf(g.out, "Integrity verified: %d bytes\n", info.Size())
	default:
		fmt.Fprintf(g.out, "WARNING: size mismatch: local %d bytes, remote %d bytes\n", info.Size(), expected)
		logger.Warn("downloaded size differs from remote size",
			zap.String("filePath", localPath), zap.Int64("local", info.Size()), zap.Int64("remote", expected))
		g.metrics.SizeMismatch(operation)
	}
	return nil
}

func copyToFile(localPath string, r io.Reader) (written int64, err error) {
	file, err := os.Create(localPath)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()

	return io.Copy(file, r)
}

func ensureParentDir(localPath string) error {
	dir := filepath.Dir(localPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}
	return nil
}

func fileNameFromURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDownloadFailed, err)
	}

	name := path.Base(u.Path)
	if name == "/" || name == "." {
		return "", fmt.Errorf("cannot derive a file name from %s", rawURL)
	}
	return name, nil
}
