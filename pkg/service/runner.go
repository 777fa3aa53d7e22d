package service

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	ierrors "github.com/exporter-installer/pkg/errors"
	"github.com/exporter-installer/pkg/logger"
)

// Runner 执行外部命令（systemctl / sc / schtasks / msiexec），便于单测替换
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run returns the combined output. A non-zero exit becomes an
// EXTERNAL_TOOL error naming the command and its trimmed output.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &out
	cmd.Stderr = &out

	logger.Debug("exec", zap.String("cmd", name), zap.Strings("args", args))
	if err := cmd.Run(); err != nil {
		return out.Bytes(), ToolError(name, args, out.Bytes(), err)
	}
	return out.Bytes(), nil
}

// ToolError builds the EXTERNAL_TOOL error for a failed command.
func ToolError(name string, args []string, output []byte, cause error) error {
	ctx := map[string]any{"command": strings.TrimSpace(name + " " + strings.Join(args, " "))}
	if msg := strings.TrimSpace(string(output)); msg != "" {
		if len(msg) > 512 {
			msg = msg[:512] + "..."
		}
		ctx["output"] = msg
	}
	return ierrors.WrapWithContext(ierrors.ErrCodeExternalTool, name+" failed", cause, ctx)
}

// Detacher starts a process that outlives the installer.
type Detacher interface {
	Detach(dir, binary string, args ...string) error
}

// ExecDetacher starts the process in its own session (process group and no
// console on Windows) and releases it.
type ExecDetacher struct{}

func (ExecDetacher) Detach(dir, binary string, args ...string) error {
	cmd := exec.Command(binary, args...)
	cmd.Dir = dir
	cmd.SysProcAttr = detachedAttr()
	if err := cmd.Start(); err != nil {
		return ierrors.WrapWithContext(ierrors.ErrCodeExternalTool, "start detached process", err,
			map[string]any{"binary": binary})
	}
	return cmd.Process.Release()
}
