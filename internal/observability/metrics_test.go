package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics_Registers(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.FeaturesStyled.WithLabelValues("trees", "matched").Inc()
	m.IndexSource.WithLabelValues("hbr", "fallback").Add(2)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := []string{}
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "forestmap_features_styled_total")
	assert.Contains(t, names, "forestmap_index_attribute_source_total")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.IndexSource.WithLabelValues("hbr", "fallback")))
}

func TestNewMetrics_DoubleRegisterPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(reg)
	assert.Panics(t, func() { NewMetrics(reg) })
}

func TestNewMetricsForTesting_Independent(t *testing.T) {
	a := NewMetricsForTesting()
	b := NewMetricsForTesting()
	a.VisibilityToggles.WithLabelValues("hbr", "false").Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.VisibilityToggles.WithLabelValues("hbr", "false")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.VisibilityToggles.WithLabelValues("hbr", "false")))
}
