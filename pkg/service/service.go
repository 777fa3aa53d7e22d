// Package service 把已获取的制品注册为开机自启的服务
//
// Linux 使用 systemd；Windows 使用计划任务、SCM 服务或 MSI 自带服务；
// macOS 只给出手动启动说明。
package service

import (
	"context"
	"fmt"
	"strings"
)

// Unit 注册所需的全部信息
type Unit struct {
	Name        string
	Description string
	BinaryPath  string
	Args        []string
	WorkDir     string
	Port        int
	User        string
	Group       string
	// Start enables and starts the service right away; otherwise it is only
	// registered and the operator starts it.
	Start bool
}

// CommandLine binary followed by args, quoting elements that contain spaces.
func (u Unit) CommandLine() string {
	parts := make([]string, 0, len(u.Args)+1)
	parts = append(parts, quote(u.BinaryPath))
	for _, a := range u.Args {
		parts = append(parts, quote(a))
	}
	return strings.Join(parts, " ")
}

func quote(s string) string {
	if strings.ContainsAny(s, " \t") {
		return `"` + s + `"`
	}
	return s
}

// Outcome 注册结果；Warnings 为非致命问题，Instructions 为需要运维手动执行的步骤
type Outcome struct {
	Registrar    string
	Registered   bool
	Started      bool
	Warnings     []string
	Instructions []string
}

func (o *Outcome) warn(format string, args ...any) {
	o.Warnings = append(o.Warnings, fmt.Sprintf(format, args...))
}

func (o *Outcome) instruct(format string, args ...any) {
	o.Instructions = append(o.Instructions, fmt.Sprintf(format, args...))
}

// Registrar registers one unit with the platform's service manager.
type Registrar interface {
	Name() string
	Register(ctx context.Context, u Unit) (Outcome, error)
}
