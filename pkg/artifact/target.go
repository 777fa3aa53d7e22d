package artifact

import (
	"fmt"

	"github.com/exporter-installer/pkg/platform"
)

// Target 安装目标：由制品类型与平台确定性推导
type Target struct {
	Kind     Kind
	Platform platform.Descriptor
	Version  string
	Format   Format

	Root string
	// Destination is where acquisition lands: the binary for raw artifacts,
	// the extraction directory for archives, the staged installer for msi.
	Destination string
	BinaryPath  string
	ConfigPath  string
	Port        int
}

// DefaultRoot 各平台默认安装根目录；localAppData 为启动时读取的 %LOCALAPPDATA%
func DefaultRoot(k Kind, p platform.Descriptor, localAppData string) string {
	switch k {
	case ProcessAgent:
		if p.OS == platform.Windows {
			if localAppData != "" {
				return p.Join(localAppData, "prometheus", "process-cpu-agent")
			}
			return `C:\ProgramData\prometheus\process-cpu-agent`
		}
		return "/opt/prometheus/process-cpu-agent"
	case WindowsExporter:
		return `C:\Program Files\prometheus`
	default:
		if p.OS == platform.Windows {
			return `C:\Program Files\prometheus`
		}
		return "/opt/prometheus"
	}
}

// NewTarget derives every install path of k below root. An empty version means
// the kind's default and an empty root means DefaultRoot without LOCALAPPDATA.
func NewTarget(k Kind, p platform.Descriptor, version, root string) Target {
	spec := k.Spec()
	if version == "" {
		version = spec.DefaultVersion
	}
	if root == "" {
		root = DefaultRoot(k, p, "")
	}
	t := Target{
		Kind:     k,
		Platform: p,
		Version:  version,
		Format:   spec.Format,
		Root:     root,
		Port:     spec.Port,
	}

	switch k {
	case ProcessAgent:
		t.BinaryPath = p.Join(root, p.ExecutableName("process-cpu-agent"))
		t.Destination = t.BinaryPath
		t.ConfigPath = p.Join(root, "config.toml")
	case NodeExporter:
		extract := p.Join(root, "node_exporter")
		dir := fmt.Sprintf("node_exporter-%s.%s-%s", version, p.OS.Token(), p.ArchToken())
		t.Destination = extract
		t.BinaryPath = p.Join(extract, dir, "node_exporter")
	case WindowsExporter:
		t.Destination = p.Join(root, "windows_exporter.msi")
		// msiexec 安装后的可执行文件位置
		t.BinaryPath = `C:\Program Files\windows_exporter\windows_exporter.exe`
		t.ConfigPath = p.Join(root, "windows_exporter.yml")
	}
	return t
}

// WithPort overrides the service port, ignoring non-positive values.
func (t Target) WithPort(port int) Target {
	if port > 0 {
		t.Port = port
	}
	return t
}
