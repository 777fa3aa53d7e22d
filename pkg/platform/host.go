package platform

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v3/host"
)

// HostInfo 启动时打印的主机信息（仅展示用，不参与分类）
type HostInfo struct {
	Hostname        string
	Platform        string
	PlatformVersion string
	KernelVersion   string
	KernelArch      string
}

// Host reads host facts through gopsutil.
func Host(ctx context.Context) (HostInfo, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return HostInfo{}, fmt.Errorf("read host info: %w", err)
	}
	return HostInfo{
		Hostname:        info.Hostname,
		Platform:        info.Platform,
		PlatformVersion: info.PlatformVersion,
		KernelVersion:   info.KernelVersion,
		KernelArch:      info.KernelArch,
	}, nil
}
