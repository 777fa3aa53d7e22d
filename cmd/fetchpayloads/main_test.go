package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exporter-installer/pkg/artifact"
	"github.com/exporter-installer/pkg/platform"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestBuildPlatform(t *testing.T) {
	p := buildPlatform("", envMap(map[string]string{"TARGET": "aarch64-unknown-linux-gnu"}))
	assert.Equal(t, platform.Linux, p.OS)
	assert.Equal(t, platform.Aarch64, p.Arch)

	p = buildPlatform("", envMap(map[string]string{"GOOS": "windows", "GOARCH": "386"}))
	assert.Equal(t, platform.Windows, p.OS)
	assert.Equal(t, platform.X86, p.Arch)

	p = buildPlatform("x86_64-apple-darwin", envMap(map[string]string{"TARGET": "aarch64-unknown-linux-gnu"}))
	assert.Equal(t, platform.MacOS, p.OS)
}

func TestBuildSourcePriority(t *testing.T) {
	lib := t.TempDir()
	linux := platform.ParseTriple("linux/amd64")

	src, err := buildSource(artifact.ProcessAgent, linux, lib, envMap(nil))
	require.NoError(t, err)
	assert.Equal(t, artifact.SourceDefaultURL, src.Type)

	src, err = buildSource(artifact.ProcessAgent, linux, lib, envMap(map[string]string{
		"PROCESS_CPU_AGENT_BUILD_URL": "https://example.com/agent"}))
	require.NoError(t, err)
	assert.Equal(t, artifact.RemoteURL("https://example.com/agent"), src)

	bin := filepath.Join(lib, "process-cpu-agent")
	require.NoError(t, os.WriteFile(bin, []byte("agent"), 0755))
	src, err = buildSource(artifact.ProcessAgent, linux, lib, envMap(map[string]string{
		"PROCESS_CPU_AGENT_BUILD_URL": "https://example.com/agent"}))
	require.NoError(t, err)
	assert.Equal(t, artifact.LocalFile(bin), src)

	src, err = buildSource(artifact.ProcessAgent, linux, lib, envMap(map[string]string{
		"PROCESS_CPU_AGENT_BUILD_FILE": "/tmp/other"}))
	require.NoError(t, err)
	assert.Equal(t, artifact.LocalFile("/tmp/other"), src)
}

func TestRunCopiesEmbeddablePayloads(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	agent := filepath.Join(in, "agent")
	node := filepath.Join(in, "node.tar.gz")
	require.NoError(t, os.WriteFile(agent, []byte("agent-bytes"), 0755))
	require.NoError(t, os.WriteFile(node, []byte("not really gzip"), 0644))

	err := run(context.Background(), options{out: out, target: "linux/amd64"}, envMap(map[string]string{
		"PROCESS_CPU_AGENT_BUILD_FILE": agent,
		"NODE_EXPORTER_BUILD_FILE":     node,
	}))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(out, "process_cpu_agent.bin"))
	require.NoError(t, err)
	assert.Equal(t, "agent-bytes", string(data))
	// 原样保存，不做解压
	data, err = os.ReadFile(filepath.Join(out, "node_exporter.tar.gz"))
	require.NoError(t, err)
	assert.Equal(t, "not really gzip", string(data))
	assert.NoFileExists(t, filepath.Join(out, "windows_exporter.msi"))
}
