// Package exporterconfig 生成各制品的配置文件（process agent TOML、windows exporter YAML）
package exporterconfig

import (
	"bytes"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/exporter-installer/pkg/config"
	ierrors "github.com/exporter-installer/pkg/errors"
	"github.com/exporter-installer/pkg/fsutil"
)

const agentHeader = `# Process CPU Agent configuration
# Collects CPU usage for individual processes and serves it on /metrics.
`

// AgentFile process agent config.toml
type AgentFile struct {
	Server  AgentServer  `toml:"server"`
	Process AgentProcess `toml:"process"`
}

type AgentServer struct {
	Port int `toml:"port"`
}

type AgentProcess struct {
	// IntervalSeconds collection interval in whole seconds.
	IntervalSeconds int      `toml:"interval"`
	MaxProcesses    int      `toml:"max_processes"`
	TopN            int      `toml:"top_n"`
	Filters         []string `toml:"filters,omitempty"`
}

// NewAgentFile 由安装器配置和监听端口生成 agent 配置
func NewAgentFile(port int, cfg config.AgentConfig) AgentFile {
	interval := int(cfg.Interval / time.Second)
	if interval < 1 {
		interval = 1
	}
	return AgentFile{
		Server: AgentServer{Port: port},
		Process: AgentProcess{
			IntervalSeconds: interval,
			MaxProcesses:    cfg.MaxProcesses,
			TopN:            cfg.TopN,
		},
	}
}

// Render encodes the file as TOML below a comment header.
func (f AgentFile) Render() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(agentHeader)
	buf.WriteString("\n")
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(f); err != nil {
		return nil, ierrors.Wrap(ierrors.ErrCodeConfiguration, "encode agent config", err)
	}
	return buf.Bytes(), nil
}

// Write 原子写入 path，覆盖已有文件
func (f AgentFile) Write(path string) error {
	data, err := f.Render()
	if err != nil {
		return err
	}
	return fsutil.WriteFile(path, data, 0644)
}

// ParseAgentFile 读回 TOML（plan 命令与单测使用）
func ParseAgentFile(data []byte) (AgentFile, error) {
	var f AgentFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return f, ierrors.Wrap(ierrors.ErrCodeConfiguration, "decode agent config", err)
	}
	return f, nil
}
