package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics covers the transfer pipeline.
type BusinessMetrics struct {
	TransfersTotal         *prometheus.CounterVec
	PipelineStageDuration  *prometheus.HistogramVec
	BroadcastFailuresTotal *prometheus.CounterVec
	GasFallbackTotal       prometheus.Counter
}

// Global Metrics Instance
var Business *BusinessMetrics

// InitBusinessMetrics registers the pipeline metrics.
func InitBusinessMetrics() {
	Business = &BusinessMetrics{
		TransfersTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "transfer_executions_total",
			Help: "Total number of transfer pipeline executions by outcome status",
		}, []string{"status"}),
		PipelineStageDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "transfer_pipeline_stage_duration_seconds",
			Help:    "Duration of individual transfer pipeline stages",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),
		BroadcastFailuresTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "transfer_broadcast_failures_total",
			Help: "Total number of failed transaction broadcasts",
		}, []string{"reason"}),
		GasFallbackTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "transfer_gas_fallback_total",
			Help: "Times gas estimation failed and the fixed fallback limit was used",
		}),
	}
}
