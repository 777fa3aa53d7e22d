package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var valid = validator.New()

// Config 安装器全局配置（启动时加载一次，显式传递给各组件）
type Config struct {
	Install         InstallConfig  `yaml:"install" mapstructure:"install"`
	ProcessAgent    ArtifactConfig `yaml:"process_agent" mapstructure:"process_agent"`
	NodeExporter    ArtifactConfig `yaml:"node_exporter" mapstructure:"node_exporter"`
	WindowsExporter ArtifactConfig `yaml:"windows_exporter" mapstructure:"windows_exporter"`
	Agent           AgentConfig    `yaml:"agent" mapstructure:"agent"`
	Metrics         MetricsConfig  `yaml:"metrics" mapstructure:"metrics"`
	Log             ZapLogConfig   `yaml:"log" mapstructure:"log"`
}

// InstallConfig 安装流程通用配置
type InstallConfig struct {
	// Platform 覆盖自动检测，如 "linux/arm64"；为空时检测当前主机
	Platform        string        `yaml:"platform" mapstructure:"platform" env:"INSTALLER_PLATFORM"`
	DownloadTimeout time.Duration `yaml:"download_timeout" mapstructure:"download_timeout" env:"INSTALLER_DOWNLOAD_TIMEOUT" validate:"gte=0"`
	SystemdUnitDir  string        `yaml:"systemd_unit_dir" mapstructure:"systemd_unit_dir" validate:"required"`
	// Strict makes any exporter failure fatal, not only the process agent.
	Strict bool `yaml:"strict" mapstructure:"strict"`
}

// ArtifactConfig 单个制品的覆盖项
type ArtifactConfig struct {
	Enable      bool   `yaml:"enable" mapstructure:"enable"`
	Version     string `yaml:"version" mapstructure:"version"`
	File        string `yaml:"file" mapstructure:"file"`
	URL         string `yaml:"url" mapstructure:"url" validate:"omitempty,url"`
	InstallPath string `yaml:"install_path" mapstructure:"install_path"`
	Port        int    `yaml:"port" mapstructure:"port" validate:"gte=0,lte=65535"`
	// ReleaseURL 仅 process agent 使用：release 根地址
	ReleaseURL string `yaml:"release_url" mapstructure:"release_url" validate:"omitempty,url"`
	// WindowsMode selects "task" (scheduled task at logon) or "service" (SCM).
	WindowsMode string `yaml:"windows_mode" mapstructure:"windows_mode" validate:"omitempty,oneof=task service"`
	User        string `yaml:"user" mapstructure:"user"`
	Group       string `yaml:"group" mapstructure:"group"`
}

// AgentConfig 写入 process agent 配置文件的采集参数
type AgentConfig struct {
	Interval     time.Duration `yaml:"interval" mapstructure:"interval" validate:"required,gt=0"`
	MaxProcesses int           `yaml:"max_processes" mapstructure:"max_processes" validate:"required,gt=0"`
	TopN         int           `yaml:"top_n" mapstructure:"top_n" validate:"gte=0"`
}

// MetricsConfig 安装结果指标（node exporter textfile collector 格式）
type MetricsConfig struct {
	TextfileDir string `yaml:"textfile_dir" mapstructure:"textfile_dir"`
}

// ZapLogConfig 日志配置
type ZapLogConfig struct {
	Level   string `yaml:"level" mapstructure:"level" env:"LOG_LEVEL" validate:"required,oneof=debug info warn error" default:"info"`
	Format  string `yaml:"format" mapstructure:"format" env:"LOG_FORMAT" validate:"required,oneof=json console" default:"console"`
	Path    string `yaml:"path" mapstructure:"path" env:"LOG_PATH" validate:"required" default:"./logs"`
	MaxSize int    `yaml:"max_size" mapstructure:"max_size" validate:"required,gt=0" default:"100"`
	MaxAge  int    `yaml:"max_age" mapstructure:"max_age" validate:"gte=0" default:"7"`
}

// NewDefaultConfig 创建默认配置（所有字段兜底）
func NewDefaultConfig() *Config {
	return &Config{
		Install: InstallConfig{
			DownloadTimeout: 0,
			SystemdUnitDir:  "/etc/systemd/system",
		},
		ProcessAgent: ArtifactConfig{
			Enable:      true,
			WindowsMode: "task",
			User:        "prometheus",
			Group:       "prometheus",
		},
		NodeExporter:    ArtifactConfig{Enable: true},
		WindowsExporter: ArtifactConfig{Enable: true},
		Agent: AgentConfig{
			Interval:     10 * time.Second,
			MaxProcesses: 20,
			TopN:         10,
		},
		Log: ZapLogConfig{
			Level:   "info",
			Format:  "console",
			Path:    "./logs",
			MaxSize: 100,
			MaxAge:  7,
		},
	}
}

// Binding 配置键、命令行 flag 与环境变量的对应关系
type Binding struct {
	Key  string
	Flag string
	Env  string
}

// Bindings every key that can be overridden from the command line or the
// environment. Flags are registered by cmd/installer with the same names.
var Bindings = []Binding{
	{"install.platform", "platform", "INSTALLER_PLATFORM"},
	{"install.download_timeout", "download-timeout", "INSTALLER_DOWNLOAD_TIMEOUT"},
	{"install.systemd_unit_dir", "systemd-unit-dir", ""},
	{"install.strict", "strict", ""},

	{"process_agent.enable", "process-agent.enable", ""},
	{"process_agent.version", "process-agent.version", "PROCESS_CPU_AGENT_VERSION"},
	{"process_agent.file", "process-agent.file", "PROCESS_CPU_AGENT_FILE"},
	{"process_agent.url", "process-agent.url", "PROCESS_CPU_AGENT_URL"},
	{"process_agent.install_path", "process-agent.install-path", "PROCESS_CPU_AGENT_INSTALL_PATH"},
	{"process_agent.port", "process-agent.port", ""},
	{"process_agent.release_url", "process-agent.release-url", "PROCESS_CPU_AGENT_RELEASE_URL"},
	{"process_agent.windows_mode", "process-agent.windows-mode", ""},

	{"node_exporter.enable", "node-exporter.enable", ""},
	{"node_exporter.version", "node-exporter.version", "NODE_EXPORTER_VERSION"},
	{"node_exporter.file", "node-exporter.file", "NODE_EXPORTER_FILE"},
	{"node_exporter.url", "node-exporter.url", "NODE_EXPORTER_URL"},
	{"node_exporter.install_path", "node-exporter.install-path", "NODE_EXPORTER_INSTALL_PATH"},
	{"node_exporter.port", "node-exporter.port", ""},

	{"windows_exporter.enable", "windows-exporter.enable", ""},
	{"windows_exporter.version", "windows-exporter.version", "WINDOWS_EXPORTER_VERSION"},
	{"windows_exporter.file", "windows-exporter.file", "WINDOWS_EXPORTER_FILE"},
	{"windows_exporter.url", "windows-exporter.url", "WINDOWS_EXPORTER_URL"},
	{"windows_exporter.install_path", "windows-exporter.install-path", "WINDOWS_EXPORTER_INSTALL_PATH"},
	{"windows_exporter.port", "windows-exporter.port", ""},

	{"agent.interval", "agent.interval", ""},
	{"agent.max_processes", "agent.max-processes", ""},
	{"agent.top_n", "agent.top-n", ""},

	{"metrics.textfile_dir", "metrics.textfile-dir", "INSTALLER_TEXTFILE_DIR"},

	{"log.level", "log.level", "LOG_LEVEL"},
	{"log.format", "log.format", "LOG_FORMAT"},
	{"log.path", "log.path", "LOG_PATH"},
	{"log.max_size", "log.max-size", ""},
	{"log.max_age", "log.max-age", ""},
}

// LoadConfigWithCli 默认值 < YAML 配置文件 < 环境变量 < 命令行 flag
func LoadConfigWithCli(cmd *cobra.Command) (*Config, error) {
	cfg := NewDefaultConfig()
	v := viper.New()

	// 1. 解析配置文件 (--config)
	configFile, _ := cmd.Flags().GetString("config")
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	}

	// 2. 绑定环境变量与 flag（只有显式设置的 flag 才会覆盖文件/环境变量）
	for _, b := range Bindings {
		if b.Env != "" {
			if err := v.BindEnv(b.Key, b.Env); err != nil {
				return nil, fmt.Errorf("bind env %s: %w", b.Env, err)
			}
		}
		if f := cmd.Flags().Lookup(b.Flag); f != nil {
			if err := v.BindPFlag(b.Key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", b.Flag, err)
			}
		}
	}

	// 3. 解码到结构体，默认值来自 cfg 本身
	decoderConfig := &mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	}
	decoder, err := mapstructure.NewDecoder(decoderConfig)
	if err != nil {
		return nil, fmt.Errorf("new decoder: %w", err)
	}
	if err := decoder.Decode(settings(v)); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	// 4. 校验配置
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// settings 只收集真正被设置过的键（文件/环境变量/显式 flag），
// 避免未设置的 flag 默认值覆盖 NewDefaultConfig
func settings(v *viper.Viper) map[string]any {
	out := map[string]any{}
	for _, b := range Bindings {
		if !v.IsSet(b.Key) {
			continue
		}
		setNested(out, strings.Split(b.Key, "."), v.Get(b.Key))
	}
	// 配置文件中不在 Bindings 里的键（如 process_agent.user）
	for _, key := range v.AllKeys() {
		if _, bound := bindingFor(key); bound {
			continue
		}
		setNested(out, strings.Split(key, "."), v.Get(key))
	}
	return out
}

func bindingFor(key string) (Binding, bool) {
	for _, b := range Bindings {
		if b.Key == key {
			return b, true
		}
	}
	return Binding{}, false
}

func setNested(m map[string]any, path []string, val any) {
	for i, p := range path {
		if i == len(path)-1 {
			m[p] = val
			return
		}
		next, ok := m[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[p] = next
		}
		m = next
	}
}

// Validate 配置校验
func (c *Config) Validate() error {
	if err := valid.Struct(c); err != nil {
		return err
	}
	for name, a := range map[string]*ArtifactConfig{
		"process_agent":    &c.ProcessAgent,
		"node_exporter":    &c.NodeExporter,
		"windows_exporter": &c.WindowsExporter,
	} {
		if err := a.Validate(name); err != nil {
			return err
		}
	}
	if err := c.Agent.Validate(); err != nil {
		return err
	}
	return c.Log.Validate()
}
