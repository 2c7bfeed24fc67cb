package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registryAllocationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "registry_allocations_total",
		Help: "Registry numbers issued.",
	})
	registryRecoveriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "registry_counter_recoveries_total",
		Help: "Allocations that rebuilt the counter from the latest file record.",
	})
	filesUploadedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "registry_files_uploaded_total",
		Help: "Files successfully registered.",
	})
	uploadFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "registry_upload_failures_total",
		Help: "Rejected or failed uploads by reason.",
	}, []string{"reason"})
	orphanedBlobsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "registry_orphaned_blobs_total",
		Help: "Stored blobs whose cleanup failed after a failed upload.",
	})
	eventsPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "registry_events_published_total",
		Help: "Domain events handed to the events backend, by type and outcome.",
	}, []string{"type", "outcome"})
	workerEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "registry_worker_events_total",
		Help: "Events consumed by the worker, by type and outcome.",
	}, []string{"type", "outcome"})
	panicsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "registry_http_panics_total",
		Help: "Handler panics recovered by the HTTP middleware.",
	})
	uploadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "registry_upload_duration_seconds",
		Help:    "End-to-end upload pipeline duration.",
		Buckets: prometheus.DefBuckets,
	})
)

// IncAllocation counts an issued registry number.
func IncAllocation() { registryAllocationsTotal.Inc() }

// IncCounterRecovery counts a counter rebuilt from data.
func IncCounterRecovery() { registryRecoveriesTotal.Inc() }

// IncUploaded counts a registered file.
func IncUploaded() { filesUploadedTotal.Inc() }

// IncUploadFailure counts a failed upload under reason.
func IncUploadFailure(reason string) { uploadFailuresTotal.WithLabelValues(reason).Inc() }

// IncOrphanedBlob counts a blob left behind by a failed upload.
func IncOrphanedBlob() { orphanedBlobsTotal.Inc() }

// IncEventPublished counts a publish attempt; outcome is "ok" or "error".
func IncEventPublished(eventType, outcome string) {
	eventsPublishedTotal.WithLabelValues(eventType, outcome).Inc()
}

// IncWorkerEvent counts an event handled by the worker.
func IncWorkerEvent(eventType, outcome string) {
	workerEventsTotal.WithLabelValues(eventType, outcome).Inc()
}

// IncPanic counts a recovered handler panic.
func IncPanic() { panicsTotal.Inc() }

// ObserveUploadSeconds records an upload pipeline duration.
func ObserveUploadSeconds(v float64) {
	if v < 0 {
		v = 0
	}
	uploadDuration.Observe(v)
}

// Handler exposes the default registry in Prometheus text format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
