package prometheus

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/crabzie/coresched/internal/core/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMetricsRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := NewMetricsRecorder(reg, zap.NewNop())
	m := rec.(*metricsRecorder)

	rec.Dispatched(domain.PolicyPSJF)
	rec.Dispatched(domain.PolicyPSJF)
	rec.Dispatched(domain.PolicyFCFS)
	rec.Preempted(domain.PolicyPSJF)
	rec.Rotated(domain.PolicyRR)
	rec.Rotated(domain.PolicyRR)
	rec.Finished(domain.PolicyPSJF, 3)
	rec.Finished(domain.PolicyPSJF, 9)
	rec.QueueDepth(domain.PolicyPSJF, 4)
	rec.QueueDepth(domain.PolicyPSJF, 1)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.dispatches.WithLabelValues("PSJF")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.dispatches.WithLabelValues("FCFS")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.preemptions.WithLabelValues("PSJF")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.rotations))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.finished.WithLabelValues("PSJF")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.queueDepth.WithLabelValues("PSJF")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.turnaround))

	expected := `
# HELP coresched_quantum_rotations_total Number of round robin quantum expiries that rotated the running job out
# TYPE coresched_quantum_rotations_total counter
coresched_quantum_rotations_total 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "coresched_quantum_rotations_total"))
}

func TestHandlerServesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := NewMetricsRecorder(reg, zap.NewNop())
	rec.Dispatched(domain.PolicyRR)

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `coresched_dispatches_total{policy="RR"} 1`)
}
