package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Records(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveInbound("/orders", 201)
	m.ObserveInbound("/orders", 201)
	m.ObserveOutbound("update", true, 20*time.Millisecond)
	m.ObserveOutbound("update", false, time.Second)
	m.IncAuthFailure("peer")
	m.IncAuthFailure("")

	require.Equal(t, 2.0, testutil.ToFloat64(m.inbound.WithLabelValues("/orders", "201")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.outbound.WithLabelValues("update", "delivered")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.outbound.WithLabelValues("update", "failed")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.authFail.WithLabelValues("unknown")))
	require.Equal(t, 1, testutil.CollectAndCount(m.latency))

	n, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	require.Equal(t, 6, n)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveInbound("/orders", 200)
	m.ObserveOutbound("note", true, time.Millisecond)
	m.IncAuthFailure("admin")

	empty := New(nil)
	empty.ObserveInbound("/orders", 200)
	empty.IncAuthFailure("admin")
}
