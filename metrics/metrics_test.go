// Copyright (c) 2026 The Conclave developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	dto "github.com/prometheus/client_model/go"
)

func TestNoopMetrics(t *testing.T) {
	noop := defaultNoopMetrics()

	// all meters are inert but safe to use
	noop.GetOrCreateCountMeter("c").Add(1)
	noop.GetOrCreateGaugeMeter("g").Set(2)
	noop.GetOrCreateCountVecMeter("cv", []string{"l"}).AddWithLabel(1, map[string]string{"l": "v"})
	noop.GetOrCreateGaugeVecMeter("gv", []string{"l"}).SetWithLabel(1, map[string]string{"l": "v"})
	noop.GetOrCreateHistogramMeter("h", BucketHTTPReqs).Observe(3)
	require.Nil(t, noop.GetOrCreateHandler())
}

func TestPromMetrics(t *testing.T) {
	InitializePrometheusMetrics()

	// 2 ways of accessing it - useful to avoid lookups
	count1 := Counter("count1")
	Counter("count1").Add(1)
	count1.Add(2)

	gauge1 := Gauge("gauge1")
	gauge1.Set(10)
	gauge1.Add(-3)

	countVec := CounterVec("count_vec1", []string{"result"})
	countVec.AddWithLabel(4, map[string]string{"result": "ok"})

	Histogram("hist1", BucketHTTPReqs).Observe(25)

	gathered, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	byName := make(map[string]*dto.MetricFamily)
	for _, fam := range gathered {
		byName[fam.GetName()] = fam
	}

	require.Equal(t, float64(3), byName[namespace+"_count1"].GetMetric()[0].GetCounter().GetValue())
	require.Equal(t, float64(7), byName[namespace+"_gauge1"].GetMetric()[0].GetGauge().GetValue())
	require.Equal(t, float64(4), byName[namespace+"_count_vec1"].GetMetric()[0].GetCounter().GetValue())
	require.Equal(t, uint64(1), byName[namespace+"_hist1"].GetMetric()[0].GetHistogram().GetSampleCount())
}

func TestGetOrCreateIsIdempotent(t *testing.T) {
	InitializePrometheusMetrics()

	m1 := Counter("idem1")
	m2 := Counter("idem1")
	require.Equal(t, m1, m2)
}
