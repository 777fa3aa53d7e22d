package exporterconfig_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/exporter-installer/pkg/config"
	"github.com/exporter-installer/pkg/exporterconfig"
)

func TestAgentFileRender(t *testing.T) {
	f := exporterconfig.NewAgentFile(31416, config.AgentConfig{Interval: 15 * time.Second, MaxProcesses: 100, TopN: 10})
	data, err := f.Render()
	require.NoError(t, err)

	text := string(data)
	assert.Contains(t, text, "# Process CPU Agent configuration")
	assert.Contains(t, text, "[server]")
	assert.Contains(t, text, "port = 31416")
	assert.Contains(t, text, "[process]")
	assert.Contains(t, text, "interval = 15")

	back, err := exporterconfig.ParseAgentFile(data)
	require.NoError(t, err)
	assert.Equal(t, f, back)
}

func TestAgentFileSubSecondInterval(t *testing.T) {
	f := exporterconfig.NewAgentFile(1, config.AgentConfig{Interval: 500 * time.Millisecond, MaxProcesses: 1})
	assert.Equal(t, 1, f.Process.IntervalSeconds)
}

func TestAgentFileWriteOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent", "config.toml")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0644))

	require.NoError(t, exporterconfig.NewAgentFile(31416, config.NewDefaultConfig().Agent).Write(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "port = 31416")
	assert.NotContains(t, string(data), "stale")
}

func TestParseAgentFileInvalid(t *testing.T) {
	_, err := exporterconfig.ParseAgentFile([]byte("[server\nport="))
	require.Error(t, err)
}

func TestWindowsFileRender(t *testing.T) {
	data, err := exporterconfig.NewWindowsFile(31415, "ProcessCpuAgent").Render()
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(data, &doc))

	collectors := doc["collectors"].(map[string]any)
	assert.Equal(t, "cpu,cs,logical_disk,net,os,service,system,textfile,process,memory,thermalzone", collectors["enabled"])

	web := doc["web"].(map[string]any)
	assert.Equal(t, ":31415", web["listen-address"])

	svc := doc["collector"].(map[string]any)["service"].(map[string]any)
	assert.Equal(t, "Name='windows_exporter' OR Name='ProcessCpuAgent'", svc["services-where"])
}
