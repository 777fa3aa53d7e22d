package installer

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/exporter-installer/pkg/artifact"
	"github.com/exporter-installer/pkg/platform"
	"github.com/exporter-installer/pkg/service"
	"github.com/exporter-installer/pkg/setup"
)

func linuxSummary() setup.Summary {
	p := platform.ParseTriple("linux/amd64")
	return setup.Summary{
		Platform: p,
		Reports: []setup.Report{
			{
				Name:   "node-exporter",
				Kind:   artifact.NodeExporter,
				Source: artifact.Embedded([]byte("x")),
				Target: artifact.NewTarget(artifact.NodeExporter, p, "", ""),
				Outcome: service.Outcome{
					Registrar:    "systemd",
					Registered:   true,
					Instructions: []string{"Start node_exporter: sudo systemctl enable --now node_exporter"},
				},
			},
			{
				Name:     "process-agent",
				Kind:     artifact.ProcessAgent,
				Required: true,
				Source:   artifact.DefaultURL("https://example.com/agent"),
				Target:   artifact.NewTarget(artifact.ProcessAgent, p, "", ""),
				Outcome:  service.Outcome{Registrar: "systemd", Registered: true, Started: true},
			},
		},
	}
}

func TestNextStepsLinux(t *testing.T) {
	steps := NextSteps(linuxSummary())
	assert.Equal(t, []string{
		"Start node_exporter: sudo systemctl enable --now node_exporter",
		"Check Prometheus Node Exporter: sudo systemctl status node_exporter",
		"Check Process CPU Agent: sudo systemctl status process-cpu-agent",
		"Check Prometheus Node Exporter metrics: http://localhost:31415/metrics",
		"Check Process CPU Agent metrics: http://localhost:31416/metrics",
		"Configure Prometheus to scrape these exporters",
	}, steps)
}

func TestNextStepsWindows(t *testing.T) {
	p := platform.ParseTriple("windows/amd64")
	s := setup.Summary{Platform: p, Reports: []setup.Report{
		{Kind: artifact.WindowsExporter, Target: artifact.NewTarget(artifact.WindowsExporter, p, "", ""),
			Outcome: service.Outcome{Registrar: "msiexec"}},
		{Kind: artifact.ProcessAgent, Target: artifact.NewTarget(artifact.ProcessAgent, p, "", ""),
			Outcome: service.Outcome{Registrar: "schtasks"}},
	}}
	steps := NextSteps(s)
	assert.Contains(t, steps, "Check Windows Exporter: sc query windows_exporter")
	assert.Contains(t, steps, "Check Process CPU Agent: schtasks /Query /TN ProcessCpuAgent")
	assert.Contains(t, steps, "Check Windows Exporter metrics: http://localhost:31415/metrics")
}

func TestPrintSummarySuccess(t *testing.T) {
	var buf bytes.Buffer
	printSummary(&buf, linuxSummary())
	out := buf.String()
	assert.Contains(t, out, "Exporter setup completed successfully")
	assert.Contains(t, out, "process-agent")
	assert.Contains(t, out, "/opt/prometheus/process-cpu-agent/process-cpu-agent")
	assert.Contains(t, out, "PROCESS_CPU_AGENT_URL=<url>")
}

func TestPrintSummaryFailureHidesNextSteps(t *testing.T) {
	s := linuxSummary()
	s.Reports[1].Err = errors.New("download failed")
	s.Reports[1].Outcome = service.Outcome{Warnings: []string{"start failed"}}

	var buf bytes.Buffer
	printSummary(&buf, s)
	out := buf.String()
	assert.Contains(t, out, "download failed")
	assert.NotContains(t, out, "completed successfully")
	assert.NotContains(t, out, "Next steps")
}

func TestPrintSummarySoftFailureStillSucceeds(t *testing.T) {
	s := linuxSummary()
	s.Reports[0].Err = errors.New("node exporter unreachable")

	var buf bytes.Buffer
	printSummary(&buf, s)
	out := buf.String()
	assert.Contains(t, out, "node exporter unreachable")
	assert.Contains(t, out, "completed successfully")
	assert.NotContains(t, out, "http://localhost:31415/metrics")
}
