package metrics

import (
	"github.com/go-kit/kit/metrics"
	metricsprometheus "github.com/go-kit/kit/metrics/prometheus"
	"github.com/prometheus/client_golang/prometheus"
)

// MetricManager holds the dashboard metrics. Counter counts operation
// phase transitions, Gauge holds the last balance read per chain.
type MetricManager struct {
	Counter metrics.Counter
	Gauge   metrics.Gauge
}

// NewMetricManager registers with the default prometheus registry,
// so it must be called once per process.
func NewMetricManager() *MetricManager {
	var counter metrics.Counter
	var gauge metrics.Gauge
	counter = metricsprometheus.NewCounterFrom(prometheus.CounterOpts{
		Subsystem: "ibt_bridge_dashboard",
		Name:      "operations",
		Help:      "operation phase transitions",
	}, []string{"chain_name", "option"})
	gauge = metricsprometheus.NewGaugeFrom(prometheus.GaugeOpts{
		Subsystem: "ibt_bridge_dashboard",
		Name:      "balance",
		Help:      "last read token balance",
	}, []string{"chain_name", "option"})
	return &MetricManager{
		Counter: counter,
		Gauge:   gauge,
	}
}
