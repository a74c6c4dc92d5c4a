// ABOUTME: Prometheus metrics for the fourtrack recorder
// ABOUTME: Exposes engine capture statistics and clip delivery counters
package metrics

import (
	"net/http"

	"github.com/Resonate-Protocol/fourtrack-go/pkg/fourtrack"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Source is the engine surface read at scrape time
type Source interface {
	Stats() fourtrack.Stats
	State() fourtrack.State
	Tracks() []fourtrack.TrackInfo
}

// Metrics contains the recorder's Prometheus collectors
type Metrics struct {
	registry *prometheus.Registry

	// Clip delivery, updated by the clip pipeline
	ClipsSaved      prometheus.Counter
	ClipSaveErrors  prometheus.Counter
	ClipsUploaded   prometheus.Counter
	ClipUploadFails prometheus.Counter
	ClipBytes       prometheus.Histogram
}

// NewMetrics creates a registry holding engine and clip metrics
func NewMetrics(source Source) *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	// Engine counters are read from the engine's atomics at scrape time
	factory.NewCounterFunc(prometheus.CounterOpts{
		Name: "fourtrack_blocks_captured_total",
		Help: "Total number of capture blocks queued while recording",
	}, func() float64 { return float64(source.Stats().BlocksCaptured) })

	factory.NewCounterFunc(prometheus.CounterOpts{
		Name: "fourtrack_blocks_dropped_total",
		Help: "Total number of capture blocks dropped because the queue was full",
	}, func() float64 { return float64(source.Stats().BlocksDropped) })

	factory.NewCounterFunc(prometheus.CounterOpts{
		Name: "fourtrack_frames_captured_total",
		Help: "Total number of stereo frames captured",
	}, func() float64 { return float64(source.Stats().FramesCaptured) })

	factory.NewCounterFunc(prometheus.CounterOpts{
		Name: "fourtrack_clips_encoded_total",
		Help: "Total number of takes encoded as WAV",
	}, func() float64 { return float64(source.Stats().ClipsEncoded) })

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "fourtrack_capture_queue_blocks",
		Help: "Capture blocks waiting to be drained",
	}, func() float64 { return float64(source.Stats().QueuedBlocks) })

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "fourtrack_engine_state",
		Help: "Engine state (0 idle, 1 recording, 2 playing)",
	}, func() float64 { return float64(source.State()) })

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "fourtrack_tracks_loaded",
		Help: "Number of track slots holding a take",
	}, func() float64 {
		loaded := 0
		for _, info := range source.Tracks() {
			if info.Loaded {
				loaded++
			}
		}
		return float64(loaded)
	})

	return &Metrics{
		registry: registry,
		ClipsSaved: factory.NewCounter(prometheus.CounterOpts{
			Name: "fourtrack_clips_saved_total",
			Help: "Total number of clips written to disk",
		}),
		ClipSaveErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "fourtrack_clip_save_errors_total",
			Help: "Total number of clips that could not be written",
		}),
		ClipsUploaded: factory.NewCounter(prometheus.CounterOpts{
			Name: "fourtrack_clips_uploaded_total",
			Help: "Total number of clips uploaded",
		}),
		ClipUploadFails: factory.NewCounter(prometheus.CounterOpts{
			Name: "fourtrack_clip_upload_failures_total",
			Help: "Total number of failed clip uploads",
		}),
		ClipBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "fourtrack_clip_bytes",
			Help:    "Size of encoded clips in bytes",
			Buckets: prometheus.ExponentialBuckets(64*1024, 4, 8),
		}),
	}
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
