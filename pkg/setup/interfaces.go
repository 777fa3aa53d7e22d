// Package setup 编排每个制品的安装流程：解析来源 → 获取 → 写配置 → 注册服务
package setup

import "context"

// Installer 单个制品的安装生命周期（所有制品安装流程必须实现）
type Installer interface {
	Name() string                                // 制品短名（唯一标识）
	Init(ctx context.Context) error              // 解析来源、推导安装目标
	Install(ctx context.Context) (Report, error) // 获取、写配置、注册服务
	Close() error                                // 收尾
}

// Runner 顶层编排接口
type Runner interface {
	Register(in Installer, required bool)
	Run(ctx context.Context) Summary
}
