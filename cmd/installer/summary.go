package installer

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/exporter-installer/pkg/artifact"
	"github.com/exporter-installer/pkg/logger"
	"github.com/exporter-installer/pkg/platform"
	"github.com/exporter-installer/pkg/setup"
	"github.com/exporter-installer/pkg/util"
)

func printPlatform(ctx context.Context, w io.Writer, p platform.Descriptor) {
	fmt.Fprintf(w, "Detected OS: %s\n", p.OS)
	fmt.Fprintf(w, "Architecture: %s\n", p.Arch)
	fmt.Fprintf(w, "64-bit: %t\n", p.Is64Bit())
	if h, err := platform.Host(ctx); err == nil {
		fmt.Fprintf(w, "Host: %s (%s %s, kernel %s)\n", h.Hostname, h.Platform, h.PlatformVersion, h.KernelVersion)
	} else {
		logger.Debug("host info unavailable", zap.Error(err))
	}
	fmt.Fprintln(w)
}

func printSummary(w io.Writer, s setup.Summary) {
	fmt.Fprintln(w)
	for _, r := range s.Reports {
		status := util.Colorize("green", "✓")
		switch {
		case r.Err != nil && (r.Required || s.Strict):
			status = util.Colorize("red", "✗")
		case r.Err != nil:
			status = util.Colorize("yellow", "!")
		}
		fmt.Fprintf(w, "%s %-17s %s\n", status, r.Name, describe(r))
		for _, warn := range r.Outcome.Warnings {
			fmt.Fprintf(w, "    warning: %s\n", warn)
		}
	}
	if s.Failed() {
		return
	}

	fmt.Fprintln(w, "\n✓ Exporter setup completed successfully!")
	fmt.Fprintln(w, "Next steps:")
	for i, step := range NextSteps(s) {
		fmt.Fprintf(w, "%d. %s\n", i+1, step)
	}
	fmt.Fprintln(w, "\nCustom process agent download url:")
	fmt.Fprintln(w, "   - environment variable: PROCESS_CPU_AGENT_URL=<url> exporter-installer")
	fmt.Fprintln(w, "   - argument: exporter-installer <url>")
}

func describe(r setup.Report) string {
	if r.Err != nil {
		return r.Err.Error()
	}
	state := "installed"
	if r.Skipped {
		state = "already present"
	}
	return fmt.Sprintf("%s from %s at %s (%s)", state, r.Source.Type, r.Target.Destination, r.Outcome.Registrar)
}

// NextSteps 按平台给出服务操作命令与 metrics 地址
func NextSteps(s setup.Summary) []string {
	var steps []string
	for _, r := range s.Reports {
		if r.Err != nil {
			continue
		}
		steps = append(steps, r.Outcome.Instructions...)
		if cmd := statusCommand(s.Platform, r); cmd != "" {
			steps = append(steps, "Check "+r.Kind.Spec().DisplayName+": "+cmd)
		}
	}
	for _, r := range s.Reports {
		if r.Err != nil {
			continue
		}
		steps = append(steps, fmt.Sprintf("Check %s metrics: http://localhost:%d/metrics", r.Kind.Spec().DisplayName, r.Target.Port))
	}
	return append(steps, "Configure Prometheus to scrape these exporters")
}

func statusCommand(p platform.Descriptor, r setup.Report) string {
	spec := r.Kind.Spec()
	switch p.OS {
	case platform.Linux:
		if !r.Outcome.Registered {
			return ""
		}
		return "sudo systemctl status " + spec.ServiceName
	case platform.Windows:
		if r.Kind == artifact.ProcessAgent && r.Outcome.Registrar == "schtasks" {
			return "schtasks /Query /TN " + spec.WindowsServiceName
		}
		return "sc query " + spec.WindowsServiceName
	}
	return ""
}
