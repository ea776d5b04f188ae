package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rayen-mansouri/packet-analyzer/pkg/analysis"
)

// metrics are kept on a private registry so several servers can coexist
type metrics struct {
	registry *prometheus.Registry
	analyses prometheus.Counter
	findings *prometheus.CounterVec
	packets  *prometheus.CounterVec
	duration prometheus.Histogram
}

func newMetrics() *metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &metrics{
		registry: reg,
		analyses: factory.NewCounter(prometheus.CounterOpts{
			Name: "packet_analyzer_analyses_total",
			Help: "Total number of completed analyses",
		}),
		findings: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "packet_analyzer_findings_total",
			Help: "Total number of threat findings",
		}, []string{"type", "severity"}),
		packets: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "packet_analyzer_packets_total",
			Help: "Total number of analyzed packet records",
		}, []string{"status"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "packet_analyzer_analysis_duration_seconds",
			Help:    "Time spent analyzing a capture",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *metrics) observe(res *analysis.Result, seconds float64) {
	m.analyses.Inc()
	m.duration.Observe(seconds)
	m.packets.WithLabelValues("valid").Add(float64(res.Statistics.TotalPackets))
	m.packets.WithLabelValues("skipped").Add(float64(res.Statistics.SkippedPackets))
	for _, finding := range res.Threats {
		m.findings.WithLabelValues(string(finding.Kind), finding.Severity.String()).Inc()
	}
}
