package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/coreos/go-systemd/v22/dbus"
	"github.com/coreos/go-systemd/v22/unit"
	"go.uber.org/zap"

	ierrors "github.com/exporter-installer/pkg/errors"
	"github.com/exporter-installer/pkg/fsutil"
	"github.com/exporter-installer/pkg/logger"
)

// DefaultUnitDir systemd 系统级 unit 目录
const DefaultUnitDir = "/etc/systemd/system"

// SystemdManager is the subset of systemd operations the registrar needs.
type SystemdManager interface {
	Reload(ctx context.Context) error
	Enable(ctx context.Context, unitPath string) error
	Start(ctx context.Context, name string) error
	Close()
}

// ManagerFactory 建立与 systemd 的连接
type ManagerFactory func(ctx context.Context) (SystemdManager, error)

// SystemdRegistrar writes a unit file and asks systemd to pick it up.
type SystemdRegistrar struct {
	UnitDir string
	connect ManagerFactory
	runner  Runner
}

type SystemdOption func(*SystemdRegistrar)

// WithManagerFactory 替换 dbus 连接（单测使用）
func WithManagerFactory(f ManagerFactory) SystemdOption {
	return func(s *SystemdRegistrar) { s.connect = f }
}

func WithRunner(r Runner) SystemdOption {
	return func(s *SystemdRegistrar) { s.runner = r }
}

// NewSystemdRegistrar 默认优先走 dbus，连接失败时回退到 systemctl
func NewSystemdRegistrar(unitDir string, opts ...SystemdOption) *SystemdRegistrar {
	if unitDir == "" {
		unitDir = DefaultUnitDir
	}
	s := &SystemdRegistrar{
		UnitDir: unitDir,
		connect: DBusManager,
		runner:  ExecRunner{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SystemdRegistrar) Name() string { return "systemd" }

// UnitPath path of the unit file for name.
func (s *SystemdRegistrar) UnitPath(name string) string {
	return filepath.Join(s.UnitDir, name+".service")
}

// Register writes the unit and reloads systemd. With u.Start the unit is
// also enabled and started. A missing unit directory means no systemd: the
// outcome then carries manual instructions instead of an error.
func (s *SystemdRegistrar) Register(ctx context.Context, u Unit) (Outcome, error) {
	out := Outcome{Registrar: s.Name()}

	if info, err := os.Stat(s.UnitDir); err != nil || !info.IsDir() {
		logger.Warn("systemd unit directory not found, skipping service registration",
			zap.String("dir", s.UnitDir))
		out.instruct("systemd not found, configure %s manually: %s", u.Name, u.CommandLine())
		return out, nil
	}

	content, err := RenderUnit(u)
	if err != nil {
		return out, err
	}
	path := s.UnitPath(u.Name)
	if err := fsutil.WriteFile(path, content, 0644); err != nil {
		return out, err
	}
	logger.Info("systemd unit written", zap.String("unit", u.Name), zap.String("path", path))
	out.Registered = true

	mgr, err := s.connect(ctx)
	if err != nil {
		logger.Warn("dbus connection failed, falling back to systemctl", zap.Error(err))
		mgr = &systemctlManager{runner: s.runner}
	}
	defer mgr.Close()

	if err := mgr.Reload(ctx); err != nil {
		return out, err
	}
	if !u.Start {
		out.instruct("systemctl enable --now %s", u.Name)
		return out, nil
	}
	if err := mgr.Enable(ctx, path); err != nil {
		return out, err
	}
	if err := mgr.Start(ctx, u.Name+".service"); err != nil {
		return out, err
	}
	out.Started = true
	logger.Info("service enabled and started", zap.String("unit", u.Name))
	return out, nil
}

// RenderUnit serializes u as a systemd service unit.
func RenderUnit(u Unit) ([]byte, error) {
	if u.Name == "" || u.BinaryPath == "" {
		return nil, ierrors.NewWithContext(ierrors.ErrCodeConfiguration, "unit needs a name and a binary",
			map[string]any{"unit": u.Name})
	}
	desc := u.Description
	if desc == "" {
		desc = u.Name
	}
	opts := []*unit.UnitOption{
		unit.NewUnitOption("Unit", "Description", desc),
		unit.NewUnitOption("Unit", "After", "network.target"),
		unit.NewUnitOption("Service", "Type", "simple"),
	}
	if u.User != "" {
		opts = append(opts, unit.NewUnitOption("Service", "User", u.User))
	}
	if u.Group != "" {
		opts = append(opts, unit.NewUnitOption("Service", "Group", u.Group))
	}
	if u.WorkDir != "" {
		opts = append(opts, unit.NewUnitOption("Service", "WorkingDirectory", u.WorkDir))
	}
	opts = append(opts,
		unit.NewUnitOption("Service", "ExecStart", u.CommandLine()),
		unit.NewUnitOption("Service", "Restart", "always"),
		unit.NewUnitOption("Service", "RestartSec", strconv.Itoa(10)),
		unit.NewUnitOption("Install", "WantedBy", "multi-user.target"),
	)
	data, err := io.ReadAll(unit.Serialize(opts))
	if err != nil {
		return nil, ierrors.Wrap(ierrors.ErrCodeConfiguration, "serialize unit", err)
	}
	return data, nil
}

// dbusManager go-systemd dbus 实现
type dbusManager struct {
	conn *dbus.Conn
}

// DBusManager connects to the system bus.
func DBusManager(ctx context.Context) (SystemdManager, error) {
	conn, err := dbus.NewWithContext(ctx)
	if err != nil {
		return nil, ierrors.Wrap(ierrors.ErrCodeExternalTool, "connect to systemd dbus", err)
	}
	return &dbusManager{conn: conn}, nil
}

func (m *dbusManager) Reload(ctx context.Context) error {
	if err := m.conn.ReloadContext(ctx); err != nil {
		return ierrors.Wrap(ierrors.ErrCodeExternalTool, "systemd daemon-reload", err)
	}
	return nil
}

func (m *dbusManager) Enable(ctx context.Context, unitPath string) error {
	if _, _, err := m.conn.EnableUnitFilesContext(ctx, []string{unitPath}, false, true); err != nil {
		return ierrors.WrapWithContext(ierrors.ErrCodeExternalTool, "systemd enable", err,
			map[string]any{"unit": unitPath})
	}
	return nil
}

func (m *dbusManager) Start(ctx context.Context, name string) error {
	ch := make(chan string, 1)
	if _, err := m.conn.StartUnitContext(ctx, name, "replace", ch); err != nil {
		return ierrors.WrapWithContext(ierrors.ErrCodeExternalTool, "systemd start", err,
			map[string]any{"unit": name})
	}
	select {
	case status := <-ch:
		if status != "done" {
			return ierrors.NewWithContext(ierrors.ErrCodeExternalTool,
				fmt.Sprintf("systemd start job finished with %q", status),
				map[string]any{"unit": name})
		}
		return nil
	case <-ctx.Done():
		return ierrors.Wrap(ierrors.ErrCodeExternalTool, "systemd start", ctx.Err())
	}
}

func (m *dbusManager) Close() { m.conn.Close() }

// systemctlManager 无 dbus 时的命令行回退
type systemctlManager struct {
	runner Runner
}

func (m *systemctlManager) Reload(ctx context.Context) error {
	_, err := m.runner.Run(ctx, "systemctl", "daemon-reload")
	return err
}

func (m *systemctlManager) Enable(ctx context.Context, unitPath string) error {
	_, err := m.runner.Run(ctx, "systemctl", "enable", unitName(unitPath))
	return err
}

func (m *systemctlManager) Start(ctx context.Context, name string) error {
	_, err := m.runner.Run(ctx, "systemctl", "start", name)
	return err
}

func (m *systemctlManager) Close() {}

func unitName(path string) string {
	return filepath.Base(path)
}
