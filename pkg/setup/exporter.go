package setup

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/exporter-installer/pkg/artifact"
	"github.com/exporter-installer/pkg/config"
	ierrors "github.com/exporter-installer/pkg/errors"
	"github.com/exporter-installer/pkg/exporterconfig"
	"github.com/exporter-installer/pkg/fetch"
	"github.com/exporter-installer/pkg/logger"
	"github.com/exporter-installer/pkg/metrics"
	"github.com/exporter-installer/pkg/platform"
	"github.com/exporter-installer/pkg/service"
)

// ExporterSetup 通用制品安装流程，制品差异由 Kind 决定
type ExporterSetup struct {
	kind     artifact.Kind
	platform platform.Descriptor
	cfg      config.ArtifactConfig
	agent    config.AgentConfig
	textfile string

	resolver   *artifact.Resolver
	acquirer   *fetch.Acquirer
	registrars RegistrarFactory
	registrar  service.Registrar
	metrics    *metrics.InstallMetrics

	localAppData string
	source       artifact.Source
	target       artifact.Target
}

// Deps 安装流程共享的依赖
type Deps struct {
	Platform     platform.Descriptor
	Resolver     *artifact.Resolver
	Acquirer     *fetch.Acquirer
	Metrics      *metrics.InstallMetrics
	Registrars   RegistrarFactory
	LocalAppData string
}

// NewExporterSetup 创建安装流程；cfg 为该制品的覆盖项
func NewExporterSetup(k artifact.Kind, cfg *config.Config, deps Deps) *ExporterSetup {
	return &ExporterSetup{
		kind:         k,
		platform:     deps.Platform,
		cfg:          artifactConfig(cfg, k),
		agent:        cfg.Agent,
		textfile:     cfg.Metrics.TextfileDir,
		resolver:     deps.Resolver,
		acquirer:     deps.Acquirer,
		registrars:   deps.Registrars,
		metrics:      deps.Metrics,
		localAppData: deps.LocalAppData,
	}
}

func artifactConfig(cfg *config.Config, k artifact.Kind) config.ArtifactConfig {
	switch k {
	case artifact.NodeExporter:
		return cfg.NodeExporter
	case artifact.WindowsExporter:
		return cfg.WindowsExporter
	default:
		return cfg.ProcessAgent
	}
}

func (e *ExporterSetup) Name() string { return e.kind.String() }

// Target 安装目标（Init 之后有效）
func (e *ExporterSetup) Target() artifact.Target { return e.target }

// Source 字节来源（Init 之后有效）
func (e *ExporterSetup) Source() artifact.Source { return e.source }

// Init resolves the source, derives the install target and picks the service
// registrar. Nothing is written.
func (e *ExporterSetup) Init(_ context.Context) error {
	if !e.kind.AppliesTo(e.platform) {
		return ierrors.NewWithContext(ierrors.ErrCodeConfiguration, "artifact not supported on platform",
			map[string]any{"artifact": e.Name(), "platform": e.platform.String()})
	}
	src, err := e.resolver.Resolve(artifact.Request{
		Kind:         e.kind,
		Platform:     e.platform,
		Version:      e.cfg.Version,
		OverrideFile: e.cfg.File,
		OverrideURL:  e.cfg.URL,
	})
	if err != nil {
		return err
	}
	e.source = src

	root := e.cfg.InstallPath
	if root == "" {
		root = artifact.DefaultRoot(e.kind, e.platform, e.localAppData)
	}
	e.target = artifact.NewTarget(e.kind, e.platform, e.cfg.Version, root).WithPort(e.cfg.Port)

	reg, err := e.registrars.For(e.target, e.cfg)
	if err != nil {
		return err
	}
	e.registrar = reg
	logger.Info("artifact resolved",
		zap.String("source", src.String()),
		zap.String("destination", e.target.Destination),
		zap.String("version", e.target.Version),
		zap.String("registrar", reg.Name()))
	return nil
}

// Install acquires the artifact, writes its config file and registers it.
func (e *ExporterSetup) Install(ctx context.Context) (Report, error) {
	report := Report{Kind: e.kind, Source: e.source, Target: e.target}

	res, err := e.acquirer.Acquire(ctx, e.source, e.target)
	if err != nil {
		e.metrics.ObserveSetup(e.Name(), e.target.Version, false)
		return report, err
	}
	report.Skipped = res.Skipped

	if err := e.writeConfig(); err != nil {
		e.metrics.ObserveSetup(e.Name(), e.target.Version, false)
		return report, err
	}

	outcome, err := e.registrar.Register(ctx, e.Unit())
	report.Outcome = outcome
	e.metrics.ObserveSetup(e.Name(), e.target.Version, err == nil)
	if err != nil {
		return report, err
	}
	for _, w := range outcome.Warnings {
		logger.Warn(w)
	}
	return report, nil
}

// writeConfig process agent 写 config.toml；windows exporter 写 windows_exporter.yml
func (e *ExporterSetup) writeConfig() error {
	if e.target.ConfigPath == "" {
		return nil
	}
	var err error
	switch e.kind {
	case artifact.ProcessAgent:
		err = exporterconfig.NewAgentFile(e.target.Port, e.agent).Write(e.target.ConfigPath)
	case artifact.WindowsExporter:
		err = exporterconfig.NewWindowsFile(e.target.Port, artifact.ProcessAgent.Spec().WindowsServiceName).Write(e.target.ConfigPath)
	}
	if err != nil {
		return err
	}
	logger.Info("config file written", zap.String("path", e.target.ConfigPath))
	return nil
}

// Unit builds the service definition for the target.
func (e *ExporterSetup) Unit() service.Unit {
	spec := e.kind.Spec()
	u := service.Unit{
		Name:        spec.ServiceName,
		Description: spec.DisplayName,
		BinaryPath:  e.target.BinaryPath,
		WorkDir:     e.target.Root,
		Port:        e.target.Port,
	}
	if e.platform.OS == platform.Windows {
		u.Name = spec.WindowsServiceName
	}

	switch e.kind {
	case artifact.ProcessAgent:
		u.Description = "Process CPU Agent for Prometheus"
		u.Start = true
		// 计划任务模式下端口由 config.toml 提供
		if e.platform.OS != platform.Windows || e.cfg.WindowsMode == "service" {
			u.Args = []string{"--port", strconv.Itoa(e.target.Port)}
		}
		if e.platform.OS != platform.Windows {
			u.User, u.Group = e.cfg.User, e.cfg.Group
		}
	case artifact.NodeExporter:
		u.WorkDir = ""
		u.Args = []string{fmt.Sprintf("--web.listen-address=:%d", e.target.Port)}
		if e.textfile != "" {
			u.Args = append(u.Args, "--collector.textfile.directory="+e.textfile)
		}
	case artifact.WindowsExporter:
		u.Start = true
	}
	return u
}

func (e *ExporterSetup) Close() error { return nil }
