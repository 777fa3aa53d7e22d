// Package artifact 描述安装器管理的三类制品，并决定每个制品的字节来源
package artifact

import (
	"github.com/exporter-installer/pkg/platform"
)

// Kind 制品类型（封闭枚举，不支持插件扩展）
type Kind int

const (
	ProcessAgent Kind = iota
	NodeExporter
	WindowsExporter
)

// Format how the acquired bytes are laid down on disk.
type Format string

const (
	FormatRaw   Format = "none"
	FormatTarGz Format = "tar.gz"
	FormatZip   Format = "zip"
	FormatMSI   Format = "msi"
)

// IsArchive reports whether the bytes must be unpacked after acquisition.
func (f Format) IsArchive() bool {
	return f == FormatTarGz || f == FormatZip
}

const (
	// ProcessAgentVersion "latest" 对应 releases/latest/download
	ProcessAgentVersion    = "latest"
	NodeExporterVersion    = "1.7.0"
	WindowsExporterVersion = "0.25.1"

	ProcessAgentPort    = 31416
	NodeExporterPort    = 31415
	WindowsExporterPort = 31415
)

// Spec 每种制品的固定元数据
type Spec struct {
	Kind           Kind
	Name           string // 日志/指标中使用的短名
	DisplayName    string
	DefaultVersion string
	Format         Format
	Port           int
	// PayloadName is the file name of the build-time embedded payload.
	PayloadName string
	// ServiceName is the systemd unit / Windows service or task name.
	ServiceName        string
	WindowsServiceName string
}

var specs = map[Kind]Spec{
	ProcessAgent: {
		Kind:               ProcessAgent,
		Name:               "process-agent",
		DisplayName:        "Process CPU Agent",
		DefaultVersion:     ProcessAgentVersion,
		Format:             FormatRaw,
		Port:               ProcessAgentPort,
		PayloadName:        "process_cpu_agent.bin",
		ServiceName:        "process-cpu-agent",
		WindowsServiceName: "ProcessCpuAgent",
	},
	NodeExporter: {
		Kind:               NodeExporter,
		Name:               "node-exporter",
		DisplayName:        "Prometheus Node Exporter",
		DefaultVersion:     NodeExporterVersion,
		Format:             FormatTarGz,
		Port:               NodeExporterPort,
		PayloadName:        "node_exporter.tar.gz",
		ServiceName:        "node_exporter",
		WindowsServiceName: "node_exporter",
	},
	WindowsExporter: {
		Kind:               WindowsExporter,
		Name:               "windows-exporter",
		DisplayName:        "Windows Exporter",
		DefaultVersion:     WindowsExporterVersion,
		Format:             FormatMSI,
		Port:               WindowsExporterPort,
		PayloadName:        "windows_exporter.msi",
		ServiceName:        "windows_exporter",
		WindowsServiceName: "windows_exporter",
	},
}

// All 固定顺序返回全部制品类型
func All() []Kind {
	return []Kind{ProcessAgent, NodeExporter, WindowsExporter}
}

// Spec returns the fixed metadata of k.
func (k Kind) Spec() Spec {
	return specs[k]
}

func (k Kind) String() string {
	if s, ok := specs[k]; ok {
		return s.Name
	}
	return "unknown"
}

// AppliesTo 该制品是否在目标平台上安装
//   - process agent: Linux / Windows / macOS
//   - node exporter: Linux / macOS
//   - windows exporter: Windows
func (k Kind) AppliesTo(p platform.Descriptor) bool {
	switch k {
	case ProcessAgent:
		return p.OS != platform.Unknown
	case NodeExporter:
		return p.OS == platform.Linux || p.OS == platform.MacOS
	case WindowsExporter:
		return p.OS == platform.Windows
	}
	return false
}

// Embeddable reports whether a build for p may carry an embedded payload of k.
// The node exporter archive is only bundled for Linux builds and the MSI only
// for Windows builds.
func (k Kind) Embeddable(p platform.Descriptor) bool {
	switch k {
	case ProcessAgent:
		return p.OS == platform.Linux || p.OS == platform.Windows || p.OS == platform.MacOS
	case NodeExporter:
		return p.OS == platform.Linux
	case WindowsExporter:
		return p.OS == platform.Windows
	}
	return false
}

// ForPlatform 按安装顺序返回平台适用的制品（先 exporter 后 agent）
func ForPlatform(p platform.Descriptor) []Kind {
	var out []Kind
	for _, k := range []Kind{NodeExporter, WindowsExporter, ProcessAgent} {
		if k.AppliesTo(p) {
			out = append(out, k)
		}
	}
	return out
}
