package setup

import (
	"go.uber.org/zap"

	"github.com/exporter-installer/pkg/artifact"
	"github.com/exporter-installer/pkg/config"
	ierrors "github.com/exporter-installer/pkg/errors"
	"github.com/exporter-installer/pkg/logger"
	"github.com/exporter-installer/pkg/platform"
)

// Module 一个可开关的制品安装模块
type Module struct {
	Enabled  bool
	Name     string
	Kind     artifact.Kind
	Required bool
	NewFunc  func() Installer
}

// Modules lists the artifacts for the platform in install order: the platform
// exporter first, the process agent last. The process agent is required.
func Modules(cfg *config.Config, deps Deps) ([]Module, error) {
	if deps.Platform.OS == platform.Unknown {
		return nil, ierrors.NewWithContext(ierrors.ErrCodeConfiguration, "unsupported operating system",
			map[string]any{"platform": deps.Platform.String()})
	}
	var mods []Module
	for _, k := range artifact.ForPlatform(deps.Platform) {
		k := k // per-iteration copy for NewFunc (go 1.21 loop semantics)
		mods = append(mods, Module{
			Enabled:  artifactConfig(cfg, k).Enable,
			Name:     k.String(),
			Kind:     k,
			Required: k == artifact.ProcessAgent,
			NewFunc: func() Installer {
				return NewExporterSetup(k, cfg, deps)
			},
		})
	}
	return mods, nil
}

// RegisterInstallers 安装模块注册统一入口；新增制品只需在 Modules 中增加一条
func RegisterInstallers(r Runner, mods []Module) ([]Installer, error) {
	var registered []Installer
	for _, m := range mods {
		if !m.Enabled {
			logger.Debug("artifact disabled", zap.String("artifact", m.Name))
			continue
		}
		in := m.NewFunc()
		r.Register(in, m.Required)
		registered = append(registered, in)
		logger.Debug("registered artifact", zap.String("artifact", m.Name), zap.Bool("required", m.Required))
	}
	if len(registered) == 0 {
		return nil, ierrors.New(ierrors.ErrCodeConfiguration, "no artifacts enabled; check the enable switches")
	}
	return registered, nil
}
