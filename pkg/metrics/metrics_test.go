package metrics_test

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exporter-installer/pkg/metrics"
)

func TestInstallMetricsObserve(t *testing.T) {
	m := metrics.NewInstallMetrics(nil)
	m.ObserveAcquire("node-exporter", "default_url", metrics.ResultOK, 1024, 2*time.Second)
	m.ObserveAcquire("node-exporter", "default_url", metrics.ResultSkipped, 0, 0)
	m.ObserveSetup("node-exporter", "1.7.0", true)
	m.ObserveSetup("process-agent", "latest", false)

	expected := `
# HELP exporter_installer_setup_status Whether the last setup of the artifact succeeded (1) or failed (0)
# TYPE exporter_installer_setup_status gauge
exporter_installer_setup_status{artifact="node-exporter",version="1.7.0"} 1
exporter_installer_setup_status{artifact="process-agent",version="latest"} 0
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry, strings.NewReader(expected), "exporter_installer_setup_status"))

	n, err := testutil.GatherAndCount(m.Registry, "exporter_installer_acquire_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestInstallMetricsNilReceiver(t *testing.T) {
	var m *metrics.InstallMetrics
	assert.NotPanics(t, func() {
		m.ObserveAcquire("a", "b", metrics.ResultError, 0, 0)
		m.ObserveSetup("a", "b", true)
		m.MarkRun(time.Now())
	})
	path, err := m.Flush(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestFlushWritesTextfile(t *testing.T) {
	m := metrics.NewInstallMetrics(metrics.NewPromRegistry(nil))
	m.MarkRun(time.Unix(1700000000, 0))

	dir := t.TempDir()
	path, err := m.Flush(dir)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "exporter_installer_last_run_timestamp_seconds 1.7e+09")
}
