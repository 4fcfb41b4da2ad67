// Package metrics counts transfer activity and dumps it in the Prometheus
// text format so a node_exporter textfile collector can pick it up after the
// process exits.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "gcs_transfer"

const (
	DirectionUpload   = "upload"
	DirectionDownload = "download"
)

// Recorder is safe to use as a nil pointer; every method is then a no-op.
type Recorder struct {
	registry   *prometheus.Registry
	bytes      *prometheus.CounterVec
	operations *prometheus.CounterVec
	objects    prometheus.Counter
	mismatches *prometheus.CounterVec
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_total",
			Help:      "Bytes moved between the local filesystem and storage.",
		}, []string{"direction"}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Storage operations by outcome.",
		}, []string{"operation", "result"}),
		objects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listed_objects_total",
			Help:      "Objects produced by bucket listings.",
		}),
		mismatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "size_mismatches_total",
			Help:      "Downloads whose local size differs from the remote size.",
		}, []string{"operation"}),
	}

	r.registry.MustRegister(r.bytes, r.operations, r.objects, r.mismatches)
	return r
}

func (r *Recorder) AddBytes(direction string, n int64) {
	if r == nil || n <= 0 {
		return
	}
	r.bytes.WithLabelValues(direction).Add(float64(n))
}

// ObserveOperation records one finished operation, failed when err is non-nil.
func (r *Recorder) ObserveOperation(operation string, err error) {
	if r == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	r.operations.WithLabelValues(operation, result).Inc()
}

func (r *Recorder) ObjectListed() {
	if r == nil {
		return
	}
	r.objects.Inc()
}

func (r *Recorder) SizeMismatch(operation string) {
	if r == nil {
		return
	}
	r.mismatches.WithLabelValues(operation).Inc()
}

func (r *Recorder) Gatherer() prometheus.Gatherer {
	if r == nil {
		return prometheus.NewRegistry()
	}
	return r.registry
}

// WriteTextfile atomically writes all metrics to path.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.Gatherer())
}
