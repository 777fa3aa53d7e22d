package exporterconfig

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	ierrors "github.com/exporter-installer/pkg/errors"
	"github.com/exporter-installer/pkg/fsutil"
)

// EnabledCollectors windows exporter 默认启用的采集器（msiexec 与 YAML 共用）
var EnabledCollectors = []string{
	"cpu", "cs", "logical_disk", "net", "os", "service",
	"system", "textfile", "process", "memory", "thermalzone",
}

const windowsHeader = "# windows_exporter configuration, generated by exporter-installer\n"

// WindowsFile windows_exporter.yml
type WindowsFile struct {
	Collectors WindowsCollectors `yaml:"collectors"`
	Collector  CollectorSettings `yaml:"collector"`
	Web        WebSettings       `yaml:"web"`
	Log        LogSettings       `yaml:"log"`
}

type WindowsCollectors struct {
	// Enabled comma separated list, as windows_exporter expects it.
	Enabled string `yaml:"enabled"`
}

type CollectorSettings struct {
	Service ServiceCollector `yaml:"service"`
}

type ServiceCollector struct {
	ServicesWhere string `yaml:"services-where"`
}

type WebSettings struct {
	ListenAddress string `yaml:"listen-address"`
}

type LogSettings struct {
	Level string `yaml:"level"`
}

// NewWindowsFile 默认只监控 exporter 自身与 agent 相关服务
func NewWindowsFile(port int, agentService string) WindowsFile {
	where := "Name='windows_exporter'"
	if agentService != "" {
		where = fmt.Sprintf("%s OR Name='%s'", where, agentService)
	}
	return WindowsFile{
		Collectors: WindowsCollectors{Enabled: strings.Join(EnabledCollectors, ",")},
		Collector:  CollectorSettings{Service: ServiceCollector{ServicesWhere: where}},
		Web:        WebSettings{ListenAddress: fmt.Sprintf(":%d", port)},
		Log:        LogSettings{Level: "warn"},
	}
}

func (f WindowsFile) Render() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(windowsHeader)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return nil, ierrors.Wrap(ierrors.ErrCodeConfiguration, "encode windows exporter config", err)
	}
	if err := enc.Close(); err != nil {
		return nil, ierrors.Wrap(ierrors.ErrCodeConfiguration, "encode windows exporter config", err)
	}
	return buf.Bytes(), nil
}

func (f WindowsFile) Write(path string) error {
	data, err := f.Render()
	if err != nil {
		return err
	}
	return fsutil.WriteFile(path, data, 0644)
}
