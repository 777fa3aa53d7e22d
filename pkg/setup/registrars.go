package setup

import (
	"github.com/exporter-installer/pkg/artifact"
	"github.com/exporter-installer/pkg/config"
	ierrors "github.com/exporter-installer/pkg/errors"
	"github.com/exporter-installer/pkg/exporterconfig"
	"github.com/exporter-installer/pkg/platform"
	"github.com/exporter-installer/pkg/service"
)

// RegistrarFactory 按平台与制品选择服务注册方式
type RegistrarFactory struct {
	UnitDir        string
	Runner         service.Runner
	Detacher       service.Detacher
	SystemdOptions []service.SystemdOption
}

// For picks the registrar for t:
//   - Linux: systemd
//   - macOS: manual instructions
//   - Windows: msiexec for the windows exporter, a logon task or an SCM
//     service for the process agent
func (f RegistrarFactory) For(t artifact.Target, ac config.ArtifactConfig) (service.Registrar, error) {
	runner := f.Runner
	if runner == nil {
		runner = service.ExecRunner{}
	}

	switch t.Platform.OS {
	case platform.Linux:
		opts := append([]service.SystemdOption{service.WithRunner(runner)}, f.SystemdOptions...)
		return service.NewSystemdRegistrar(f.UnitDir, opts...), nil
	case platform.MacOS:
		return service.ManualRegistrar{}, nil
	case platform.Windows:
		switch t.Kind {
		case artifact.WindowsExporter:
			props := service.MSIProperties(t.Port, exporterconfig.EnabledCollectors)
			if t.ConfigPath != "" {
				props = append(props, `EXTRA_FLAGS=--config.file="`+t.ConfigPath+`"`)
			}
			return service.NewMSIRegistrar(runner, t.Destination, props...), nil
		case artifact.ProcessAgent:
			if ac.WindowsMode == "service" {
				return service.NewSCMRegistrar(runner), nil
			}
			return service.NewScheduledTaskRegistrar(runner, f.Detacher), nil
		}
	}
	return nil, ierrors.NewWithContext(ierrors.ErrCodeConfiguration, "unsupported operating system",
		map[string]any{"artifact": t.Kind.String(), "platform": t.Platform.String()})
}
