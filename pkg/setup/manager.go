package setup

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/exporter-installer/pkg/logger"
	"github.com/exporter-installer/pkg/platform"
)

type entry struct {
	installer Installer
	required  bool
}

// Manager 顺序执行已注册的安装流程；单个制品失败不影响后续制品
type Manager struct {
	platform platform.Descriptor
	strict   bool
	entries  []entry
	mu       sync.Mutex
}

func NewManager(p platform.Descriptor, strict bool) *Manager {
	return &Manager{platform: p, strict: strict}
}

// Register 注册安装流程，执行顺序即注册顺序
func (m *Manager) Register(in Installer, required bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry{installer: in, required: required})
}

// Run installs every registered artifact in order. A failure is recorded in
// its report and the next artifact still runs.
func (m *Manager) Run(ctx context.Context) Summary {
	m.mu.Lock()
	entries := append([]entry(nil), m.entries...)
	m.mu.Unlock()

	summary := Summary{Platform: m.platform, Strict: m.strict}
	for i, e := range entries {
		name := e.installer.Name()
		logger.SetDefaultArtifact(name)
		logger.Info("setting up artifact",
			zap.Int("step", i+1), zap.Int("total", len(entries)), zap.Bool("required", e.required))

		report := m.runOne(ctx, e.installer)
		report.Name = name
		report.Required = e.required
		if report.Err != nil {
			logger.Error("artifact setup failed", zap.Error(report.Err))
		} else {
			logger.Info("artifact setup finished",
				zap.Bool("skipped", report.Skipped),
				zap.Bool("started", report.Outcome.Started))
		}
		summary.Reports = append(summary.Reports, report)
	}
	logger.SetDefaultArtifact("")
	m.CloseAll()
	return summary
}

func (m *Manager) runOne(ctx context.Context, in Installer) Report {
	if err := ctx.Err(); err != nil {
		return Report{Err: err}
	}
	if err := in.Init(ctx); err != nil {
		return Report{Err: err}
	}
	report, err := in.Install(ctx)
	if err != nil {
		report.Err = err
	}
	return report
}

// CloseAll 关闭所有安装流程，返回最后一个错误
func (m *Manager) CloseAll() error {
	m.mu.Lock()
	entries := append([]entry(nil), m.entries...)
	m.mu.Unlock()

	var lastErr error
	for _, e := range entries {
		if err := e.installer.Close(); err != nil {
			logger.Error("failed to close installer", zap.String("artifact", e.installer.Name()), zap.Error(err))
			lastErr = err
		}
	}
	return lastErr
}
