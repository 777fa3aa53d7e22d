package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ierrors "github.com/exporter-installer/pkg/errors"
	"github.com/exporter-installer/pkg/service"
)

// fakeRunner 记录命令；fail 中的命令前缀返回错误
type fakeRunner struct {
	calls []string
	fail  map[string]bool
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	line := strings.TrimSpace(name + " " + strings.Join(args, " "))
	f.calls = append(f.calls, line)
	for prefix := range f.fail {
		if strings.HasPrefix(line, prefix) {
			return []byte("access denied"), service.ToolError(name, args, []byte("access denied"), errors.New("exit status 1"))
		}
	}
	return nil, nil
}

type fakeManager struct {
	calls []string
	err   error
}

func (m *fakeManager) Reload(context.Context) error { m.calls = append(m.calls, "reload"); return m.err }
func (m *fakeManager) Enable(_ context.Context, p string) error {
	m.calls = append(m.calls, "enable "+filepath.Base(p))
	return m.err
}
func (m *fakeManager) Start(_ context.Context, n string) error {
	m.calls = append(m.calls, "start "+n)
	return m.err
}
func (m *fakeManager) Close() {}

type fakeDetacher struct {
	err    error
	binary string
}

func (d *fakeDetacher) Detach(_, binary string, _ ...string) error {
	d.binary = binary
	return d.err
}

func agentUnit() service.Unit {
	return service.Unit{
		Name:        "process-cpu-agent",
		Description: "Process CPU Agent",
		BinaryPath:  "/opt/prometheus/process-cpu-agent/process-cpu-agent",
		WorkDir:     "/opt/prometheus/process-cpu-agent",
		Port:        31416,
		User:        "prometheus",
		Group:       "prometheus",
		Start:       true,
	}
}

func TestRenderUnit(t *testing.T) {
	data, err := service.RenderUnit(agentUnit())
	require.NoError(t, err)
	text := string(data)
	for _, want := range []string{
		"[Unit]", "Description=Process CPU Agent", "After=network.target",
		"[Service]", "Type=simple", "User=prometheus", "Group=prometheus",
		"ExecStart=/opt/prometheus/process-cpu-agent/process-cpu-agent",
		"Restart=always", "RestartSec=10",
		"[Install]", "WantedBy=multi-user.target",
	} {
		assert.Contains(t, text, want)
	}

	node := service.Unit{
		Name:       "node_exporter",
		BinaryPath: "/opt/prometheus/node_exporter/node_exporter-1.7.0.linux-amd64/node_exporter",
		Args:       []string{"--web.listen-address=:31415"},
	}
	data, err = service.RenderUnit(node)
	require.NoError(t, err)
	assert.Contains(t, string(data), "node_exporter --web.listen-address=:31415")
	assert.NotContains(t, string(data), "User=")

	_, err = service.RenderUnit(service.Unit{Name: "x"})
	assert.True(t, ierrors.IsCode(err, ierrors.ErrCodeConfiguration))
}

func TestSystemdRegisterAndStart(t *testing.T) {
	dir := t.TempDir()
	mgr := &fakeManager{}
	r := service.NewSystemdRegistrar(dir, service.WithManagerFactory(func(context.Context) (service.SystemdManager, error) {
		return mgr, nil
	}))

	out, err := r.Register(context.Background(), agentUnit())
	require.NoError(t, err)
	assert.True(t, out.Registered)
	assert.True(t, out.Started)
	assert.Equal(t, []string{"reload", "enable process-cpu-agent.service", "start process-cpu-agent.service"}, mgr.calls)
	assert.FileExists(t, filepath.Join(dir, "process-cpu-agent.service"))
}

func TestSystemdRegisterWithoutStart(t *testing.T) {
	mgr := &fakeManager{}
	r := service.NewSystemdRegistrar(t.TempDir(), service.WithManagerFactory(func(context.Context) (service.SystemdManager, error) {
		return mgr, nil
	}))
	u := agentUnit()
	u.Name = "node_exporter"
	u.Start = false

	out, err := r.Register(context.Background(), u)
	require.NoError(t, err)
	assert.False(t, out.Started)
	assert.Equal(t, []string{"reload"}, mgr.calls)
	assert.Contains(t, out.Instructions, "systemctl enable --now node_exporter")
}

func TestSystemdFallsBackToSystemctl(t *testing.T) {
	runner := &fakeRunner{}
	r := service.NewSystemdRegistrar(t.TempDir(),
		service.WithRunner(runner),
		service.WithManagerFactory(func(context.Context) (service.SystemdManager, error) {
			return nil, errors.New("no bus")
		}))

	_, err := r.Register(context.Background(), agentUnit())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"systemctl daemon-reload",
		"systemctl enable process-cpu-agent.service",
		"systemctl start process-cpu-agent.service",
	}, runner.calls)
}

func TestSystemdMissingUnitDir(t *testing.T) {
	r := service.NewSystemdRegistrar(filepath.Join(t.TempDir(), "nope"))
	out, err := r.Register(context.Background(), agentUnit())
	require.NoError(t, err)
	assert.False(t, out.Registered)
	require.Len(t, out.Instructions, 1)
	assert.Contains(t, out.Instructions[0], "manually")
}

func TestSystemdReloadFailure(t *testing.T) {
	mgr := &fakeManager{err: ierrors.New(ierrors.ErrCodeExternalTool, "reload failed")}
	r := service.NewSystemdRegistrar(t.TempDir(), service.WithManagerFactory(func(context.Context) (service.SystemdManager, error) {
		return mgr, nil
	}))
	_, err := r.Register(context.Background(), agentUnit())
	require.Error(t, err)
	assert.True(t, ierrors.IsCode(err, ierrors.ErrCodeExternalTool))
}

func winAgentUnit() service.Unit {
	return service.Unit{
		Name:       "ProcessCpuAgent",
		BinaryPath: `C:\Users\ops\AppData\Local\prometheus\process-cpu-agent\process-cpu-agent.exe`,
		WorkDir:    `C:\Users\ops\AppData\Local\prometheus\process-cpu-agent`,
		Start:      true,
	}
}

func TestScheduledTask(t *testing.T) {
	runner := &fakeRunner{}
	det := &fakeDetacher{}
	out, err := service.NewScheduledTaskRegistrar(runner, det).Register(context.Background(), winAgentUnit())
	require.NoError(t, err)
	assert.True(t, out.Started)
	require.Len(t, runner.calls, 1)
	assert.Equal(t,
		`schtasks /Create /TN ProcessCpuAgent /SC ONLOGON /F /TR cmd.exe /C cd /d C:\Users\ops\AppData\Local\prometheus\process-cpu-agent && C:\Users\ops\AppData\Local\prometheus\process-cpu-agent\process-cpu-agent.exe`,
		runner.calls[0])
	assert.Equal(t, winAgentUnit().BinaryPath, det.binary)
}

func TestScheduledTaskStartFailureIsWarning(t *testing.T) {
	det := &fakeDetacher{err: errors.New("access denied")}
	out, err := service.NewScheduledTaskRegistrar(&fakeRunner{}, det).Register(context.Background(), winAgentUnit())
	require.NoError(t, err)
	assert.True(t, out.Registered)
	assert.False(t, out.Started)
	assert.Len(t, out.Warnings, 1)
}

func TestScheduledTaskCreateFailureIsFatal(t *testing.T) {
	runner := &fakeRunner{fail: map[string]bool{"schtasks": true}}
	det := &fakeDetacher{}
	_, err := service.NewScheduledTaskRegistrar(runner, det).Register(context.Background(), winAgentUnit())
	require.Error(t, err)
	assert.True(t, ierrors.IsCode(err, ierrors.ErrCodeExternalTool))
	assert.Contains(t, err.Error(), "access denied")
	assert.Empty(t, det.binary, "must not start after a failed registration")
}

func TestSCMCreateFallsBackToConfig(t *testing.T) {
	runner := &fakeRunner{fail: map[string]bool{"sc create": true}}
	out, err := service.NewSCMRegistrar(runner).Register(context.Background(), winAgentUnit())
	require.NoError(t, err)
	assert.True(t, out.Started)
	require.Len(t, runner.calls, 3)
	assert.True(t, strings.HasPrefix(runner.calls[1], "sc config ProcessCpuAgent binPath="))
	assert.Equal(t, "sc start ProcessCpuAgent", runner.calls[2])
}

func TestMSIRegistrar(t *testing.T) {
	runner := &fakeRunner{fail: map[string]bool{"sc start": true}}
	props := service.MSIProperties(31415, []string{"cpu", "os"})
	r := service.NewMSIRegistrar(runner, `C:\Program Files\prometheus\windows_exporter.msi`, props...)

	out, err := r.Register(context.Background(), service.Unit{Name: "windows_exporter", Start: true})
	require.NoError(t, err)
	assert.True(t, out.Registered)
	assert.False(t, out.Started)
	assert.Contains(t, out.Instructions, "sc start windows_exporter")
	assert.Equal(t, []string{
		`msiexec /i C:\Program Files\prometheus\windows_exporter.msi /quiet /norestart LISTEN_PORT=31415 ENABLED_COLLECTORS=cpu,os`,
		"sc config windows_exporter start= auto",
		"sc start windows_exporter",
	}, runner.calls)
}

func TestMSIRegistrarInstallFailure(t *testing.T) {
	runner := &fakeRunner{fail: map[string]bool{"msiexec": true}}
	_, err := service.NewMSIRegistrar(runner, "x.msi").Register(context.Background(), service.Unit{Name: "windows_exporter"})
	require.Error(t, err)
	assert.True(t, ierrors.IsCode(err, ierrors.ErrCodeExternalTool))
	assert.Len(t, runner.calls, 1)
}

func TestManualRegistrar(t *testing.T) {
	out, err := service.ManualRegistrar{}.Register(context.Background(), service.Unit{
		Name:       "node_exporter",
		BinaryPath: "/opt/prometheus/node_exporter/node_exporter",
		Args:       []string{"--web.listen-address=:31415"},
	})
	require.NoError(t, err)
	assert.False(t, out.Registered)
	assert.Equal(t, []string{"/opt/prometheus/node_exporter/node_exporter --web.listen-address=:31415"}, out.Instructions)
}

func TestExecRunnerFailure(t *testing.T) {
	_, err := service.ExecRunner{}.Run(context.Background(), filepath.Join(t.TempDir(), "missing-tool"))
	require.Error(t, err)
	assert.True(t, ierrors.IsCode(err, ierrors.ErrCodeExternalTool))
}

func TestCommandLineQuotes(t *testing.T) {
	u := service.Unit{BinaryPath: `C:\Program Files\x\x.exe`, Args: []string{"--a", "b c"}}
	assert.Equal(t, `"C:\Program Files\x\x.exe" --a "b c"`, u.CommandLine())
}
