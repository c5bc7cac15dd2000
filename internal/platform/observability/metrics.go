package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MessagesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "osint_messages_received_total",
		Help: "The total number of channel messages received from Telegram",
	}, []string{"channel"})

	PipelineProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "osint_pipeline_processed_total",
		Help: "The total number of processing units finished, by outcome",
	}, []string{"status"})

	PipelineInflight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "osint_pipeline_inflight",
		Help: "Number of processing units currently past the admission point",
	})

	ClassifyFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "osint_classify_fallback_total",
		Help: "Total number of classifications that degraded to the deterministic fallback",
	}, []string{"reason"})

	LLMRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "osint_llm_request_duration_seconds",
		Help:    "Duration of inference requests",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
	}, []string{"model"})

	RegistrySnapshotSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "osint_registry_snapshot_size",
		Help: "Number of handles in the latest backend source snapshot",
	})

	WatchedChannels = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "osint_watched_channels",
		Help: "Number of channels currently subscribed on the live connection",
	})
)
