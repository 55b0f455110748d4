// Package metrics счётчики Prometheus для сессии камеры и сервера загрузок.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "facecam"

// Исходы тика детекции
const (
	TickApplied = "applied"
	TickStale   = "stale"
	TickError   = "error"
	TickSkipped = "skipped"
)

// Исходы снимков и загрузок
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

var (
	DetectionTicks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "detection_ticks_total",
		Help:      "Detection ticks by outcome: applied, stale (superseded by a newer call), error or skipped (too many calls in flight).",
	}, []string{"outcome"})

	DetectionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "detection_duration_seconds",
		Help:      "Latency of a single detection call.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
	})

	FacesDetected = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "faces_detected",
		Help:      "Faces in the last applied result set.",
	})

	Captures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "captures_total",
		Help:      "Capture attempts by outcome.",
	}, []string{"outcome"})

	GallerySize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "gallery_images",
		Help:      "Images held in the in-memory capture gallery.",
	})

	Uploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "uploads_total",
		Help:      "Upload attempts from the capture pipeline by outcome.",
	}, []string{"outcome"})

	StoredFiles = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "server_uploads_total",
		Help:      "Files received by the upload server by outcome.",
	}, []string{"outcome"})
)

// Handler отдаёт метрики в формате Prometheus
func Handler() http.Handler {
	return promhttp.Handler()
}
