package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/exporter-installer/pkg/logger"
)

// ScheduledTaskRegistrar 以计划任务方式在用户登录时启动（无需管理员创建服务）
type ScheduledTaskRegistrar struct {
	runner   Runner
	detacher Detacher
}

func NewScheduledTaskRegistrar(r Runner, d Detacher) *ScheduledTaskRegistrar {
	if r == nil {
		r = ExecRunner{}
	}
	if d == nil {
		d = ExecDetacher{}
	}
	return &ScheduledTaskRegistrar{runner: r, detacher: d}
}

func (s *ScheduledTaskRegistrar) Name() string { return "schtasks" }

// TaskCommand the /TR value: change into the working directory, then run.
func TaskCommand(u Unit) string {
	if u.WorkDir == "" {
		return u.CommandLine()
	}
	return fmt.Sprintf("cmd.exe /C cd /d %s && %s", quote(u.WorkDir), u.CommandLine())
}

// Register creates (or replaces) a logon task. Failing to create the task is
// fatal; failing the immediate detached start is only a warning.
func (s *ScheduledTaskRegistrar) Register(ctx context.Context, u Unit) (Outcome, error) {
	out := Outcome{Registrar: s.Name()}
	if _, err := s.runner.Run(ctx, "schtasks",
		"/Create", "/TN", u.Name, "/SC", "ONLOGON", "/F", "/TR", TaskCommand(u)); err != nil {
		return out, err
	}
	out.Registered = true
	logger.Info("scheduled task registered", zap.String("task", u.Name))

	if !u.Start {
		out.instruct("schtasks /Run /TN %s", u.Name)
		return out, nil
	}
	if err := s.detacher.Detach(u.WorkDir, u.BinaryPath, u.Args...); err != nil {
		logger.Warn("immediate start failed", zap.String("task", u.Name), zap.Error(err))
		out.warn("failed to start %s immediately: %v", u.Name, err)
		out.instruct("schtasks /Run /TN %s", u.Name)
		return out, nil
	}
	out.Started = true
	return out, nil
}

// SCMRegistrar 注册为 Windows 服务（sc create / sc config）
type SCMRegistrar struct {
	runner Runner
}

func NewSCMRegistrar(r Runner) *SCMRegistrar {
	if r == nil {
		r = ExecRunner{}
	}
	return &SCMRegistrar{runner: r}
}

func (s *SCMRegistrar) Name() string { return "sc" }

// Register creates the service, or reconfigures it when it already exists,
// then starts it. A failed start is reported as a warning.
func (s *SCMRegistrar) Register(ctx context.Context, u Unit) (Outcome, error) {
	out := Outcome{Registrar: s.Name()}
	binPath := u.CommandLine()
	display := u.Description
	if display == "" {
		display = u.Name
	}

	if _, err := s.runner.Run(ctx, "sc", "create", u.Name,
		"binPath=", binPath, "start=", "auto", "DisplayName=", display); err != nil {
		logger.Info("sc create failed, updating existing service", zap.String("service", u.Name), zap.Error(err))
		if _, err := s.runner.Run(ctx, "sc", "config", u.Name, "binPath=", binPath, "start=", "auto"); err != nil {
			return out, err
		}
	}
	out.Registered = true
	if u.Start {
		out.Started = startService(ctx, s.runner, u.Name, &out)
	}
	return out, nil
}

// MSIRegistrar 通过 MSI 安装包注册服务（windows exporter 自带服务）
type MSIRegistrar struct {
	runner     Runner
	Package    string
	Properties []string
}

// NewMSIRegistrar properties are passed to msiexec as KEY=VALUE.
func NewMSIRegistrar(r Runner, pkg string, properties ...string) *MSIRegistrar {
	if r == nil {
		r = ExecRunner{}
	}
	return &MSIRegistrar{runner: r, Package: pkg, Properties: properties}
}

func (m *MSIRegistrar) Name() string { return "msiexec" }

// MSIProperties LISTEN_PORT 与 ENABLED_COLLECTORS
func MSIProperties(port int, collectors []string) []string {
	props := []string{"LISTEN_PORT=" + strconv.Itoa(port)}
	if len(collectors) > 0 {
		props = append(props, "ENABLED_COLLECTORS="+strings.Join(collectors, ","))
	}
	return props
}

// Register installs the package quietly, sets the service to start
// automatically and starts it. Only the msiexec step is fatal.
func (m *MSIRegistrar) Register(ctx context.Context, u Unit) (Outcome, error) {
	out := Outcome{Registrar: m.Name()}
	args := append([]string{"/i", m.Package, "/quiet", "/norestart"}, m.Properties...)
	if _, err := m.runner.Run(ctx, "msiexec", args...); err != nil {
		return out, err
	}
	out.Registered = true
	logger.Info("msi installed", zap.String("package", m.Package))

	if _, err := m.runner.Run(ctx, "sc", "config", u.Name, "start=", "auto"); err != nil {
		logger.Warn("sc config failed", zap.String("service", u.Name), zap.Error(err))
		out.warn("failed to set %s to start automatically: %v", u.Name, err)
	}
	if u.Start {
		out.Started = startService(ctx, m.runner, u.Name, &out)
	}
	return out, nil
}

func startService(ctx context.Context, r Runner, name string, out *Outcome) bool {
	if _, err := r.Run(ctx, "sc", "start", name); err != nil {
		logger.Warn("service start failed", zap.String("service", name), zap.Error(err))
		out.warn("failed to start %s: %v", name, err)
		out.instruct("sc start %s", name)
		return false
	}
	logger.Info("service started", zap.String("service", name))
	return true
}

// ManualRegistrar 不注册服务，只输出手动启动说明（macOS）
type ManualRegistrar struct{}

func (ManualRegistrar) Name() string { return "manual" }

func (ManualRegistrar) Register(_ context.Context, u Unit) (Outcome, error) {
	out := Outcome{Registrar: "manual"}
	if u.WorkDir != "" {
		out.instruct("cd %s && %s", quote(u.WorkDir), u.CommandLine())
	} else {
		out.instruct("%s", u.CommandLine())
	}
	return out, nil
}
