package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ModelStats gives the collector access to transcription service state.
type ModelStats interface {
	Loaded() bool
	QueuePending() int
}

// Collector implements prometheus.Collector to read live gauges at scrape time.
type Collector struct {
	stats ModelStats

	modelLoaded  *prometheus.Desc
	queuePending *prometheus.Desc
}

// NewCollector creates a collector that reads live state at scrape time.
// stats may be nil (gauges report 0).
func NewCollector(stats ModelStats) *Collector {
	return &Collector{
		stats: stats,
		modelLoaded: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "model_loaded"),
			"1 if the transcription model is loaded.",
			nil, nil,
		),
		queuePending: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "transcribe", "queue_pending"),
			"Transcription jobs waiting for a worker.",
			nil, nil,
		),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.modelLoaded
	ch <- c.queuePending
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	var loaded, pending float64
	if c.stats != nil {
		if c.stats.Loaded() {
			loaded = 1
		}
		pending = float64(c.stats.QueuePending())
	}
	ch <- prometheus.MustNewConstMetric(c.modelLoaded, prometheus.GaugeValue, loaded)
	ch <- prometheus.MustNewConstMetric(c.queuePending, prometheus.GaugeValue, pending)
}
