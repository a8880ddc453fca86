package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsForTesting_Independent(t *testing.T) {
	a := NewMetricsForTesting()
	b := NewMetricsForTesting()

	a.RecordsJoined.WithLabelValues("supplier").Add(3)

	assert.Equal(t, 3.0, testutil.ToFloat64(a.RecordsJoined.WithLabelValues("supplier")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.RecordsJoined.WithLabelValues("supplier")))
}

func TestMetrics_RegisterOnFreshRegistry(t *testing.T) {
	m := NewMetricsForTesting()
	reg := prometheus.NewRegistry()

	for _, c := range m.collectors() {
		require.NoError(t, reg.Register(c))
	}

	m.ReferenceRegions.Set(36)
	m.GeocodeCache.WithLabelValues("hit").Inc()

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "supply_map_reference_regions")
	assert.Contains(t, names, "supply_map_geocode_cache_total")
}
