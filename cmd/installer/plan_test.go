package installer

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execRoot(t *testing.T, args ...string) string {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(append(args, "--log.path", t.TempDir()))
	require.NoError(t, rootCmd.Execute())
	return buf.String()
}

func TestPlanWindows(t *testing.T) {
	out := execRoot(t, "plan", "--platform", "windows/amd64")

	assert.Contains(t, out, "Platform: Windows/x86_64")
	assert.Contains(t, out, `destination: C:\Program Files\prometheus\windows_exporter.msi`)
	assert.Contains(t, out, "source:      default_url: https://github.com/prometheus-community/windows_exporter/releases/download/v0.25.1/windows_exporter-0.25.1-amd64.msi")
	assert.Contains(t, out, "process-cpu-agent-windows-amd64.exe")
	assert.NotContains(t, out, "node_exporter-")
}

func TestPlanLinuxCustomURL(t *testing.T) {
	out := execRoot(t, "plan", "--platform", "linux/arm64", "https://mirror.example.com/agent")

	assert.Contains(t, out, "source:      remote_url: https://mirror.example.com/agent")
	assert.Contains(t, out, "node_exporter-1.7.0.linux-arm64.tar.gz")
	assert.Contains(t, out, "service:     /opt/prometheus/process-cpu-agent/process-cpu-agent --port 31416")
	assert.Contains(t, out, "--web.listen-address=:31415")
}

func TestVersionCommand(t *testing.T) {
	out := execRoot(t, "version")
	assert.Contains(t, out, "exporter-installer dev")
	assert.Contains(t, out, "node-exporter")
	assert.Contains(t, out, "1.7.0")
}
