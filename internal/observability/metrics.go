// Package observability holds the Prometheus metrics of the map server.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the counters for styling, data quality and layer toggles.
type Metrics struct {
	FeaturesStyled    *prometheus.CounterVec // labels: layer, outcome={matched,default}
	IndexSource       *prometheus.CounterVec // labels: layer, source={primary,fallback,missing}
	VisibilityToggles *prometheus.CounterVec // labels: layer, visible={true,false}
	SourceLoads       *prometheus.CounterVec // labels: layer, outcome={success,error}
}

func newMetrics() *Metrics {
	return &Metrics{
		FeaturesStyled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "forestmap",
			Name:      "features_styled_total",
			Help:      "Features styled per layer, split by whether a table entry matched.",
		}, []string{"layer", "outcome"}),
		IndexSource: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "forestmap",
			Name:      "index_attribute_source_total",
			Help:      "Which attribute supplied the HBR index of each styled feature.",
		}, []string{"layer", "source"}),
		VisibilityToggles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "forestmap",
			Name:      "visibility_toggles_total",
			Help:      "Layer visibility toggles that changed state.",
		}, []string{"layer", "visible"}),
		SourceLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "forestmap",
			Name:      "source_loads_total",
			Help:      "GeoJSON source loads per layer and outcome.",
		}, []string{"layer", "outcome"}),
	}
}

// NewMetrics creates all metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := newMetrics()
	reg.MustRegister(
		m.FeaturesStyled,
		m.IndexSource,
		m.VisibilityToggles,
		m.SourceLoads,
	)
	return m
}

// NewMetricsForTesting creates unregistered metrics so tests can build as
// many servers as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
