package cloud

import (
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"github.com/jinzhu/copier"
)

// ObjectDescriptor is the read-only view of a remote object.
type ObjectDescriptor struct {
	Bucket       string
	Name         string
	Size         int64
	Created      time.Time
	Updated      time.Time
	StorageClass string
	PublicURL    string
}

// PublicURL returns the unauthenticated download URL of an object.
func PublicURL(bucketName, objectName string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucketName, objectName)
}

func newObjectDescriptor(bucketName string, attrs *storage.ObjectAttrs) (ObjectDescriptor, error) {
	var obj ObjectDescriptor
	if err := copier.Copy(&obj, attrs); err != nil {
		return ObjectDescriptor{}, fmt.Errorf("copy object attrs: %w", err)
	}

	if obj.Bucket == "" {
		obj.Bucket = bucketName
	}
	obj.PublicURL = PublicURL(obj.Bucket, obj.Name)
	return obj, nil
}

func formatMB(size int64) string {
	return fmt.Sprintf("%.2f", float64(size)/(1024*1024))
}

func printObject(w io.Writer, obj ObjectDescriptor) {
	fmt.Fprintf(w, "  %s\n", obj.Name)
	fmt.Fprintf(w, "      Size:          %s MB\n", formatMB(obj.Size))
	fmt.Fprintf(w, "      Created:       %s\n", obj.Created.Format(time.RFC3339))
	fmt.Fprintf(w, "      Updated:       %s\n", obj.Updated.Format(time.RFC3339))
	fmt.Fprintf(w, "      Storage class: %s\n", obj.StorageClass)
	fmt.Fprintf(w, "      Public URL:    %s\n", obj.PublicURL)
}
