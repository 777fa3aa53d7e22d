package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Validate 制品覆盖项校验；name 为配置段名称，用于错误信息
func (a *ArtifactConfig) Validate(name string) error {
	if err := valid.Struct(a); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	for field, raw := range map[string]string{"url": a.URL, "release_url": a.ReleaseURL} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("%s.%s: %w", name, field, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("%s.%s must be http or https, got %q", name, field, u.Scheme)
		}
	}
	if strings.ContainsAny(a.Version, " /\\") {
		return fmt.Errorf("%s.version contains invalid characters: %q", name, a.Version)
	}
	return nil
}

// Validate process agent 采集参数校验
func (a *AgentConfig) Validate() error {
	if err := valid.Struct(a); err != nil {
		return fmt.Errorf("agent: %w", err)
	}
	if a.Interval < time.Second {
		return fmt.Errorf("agent.interval must be at least 1s, got %s", a.Interval)
	}
	if a.TopN > a.MaxProcesses {
		return fmt.Errorf("agent.top_n (%d) must not exceed agent.max_processes (%d)", a.TopN, a.MaxProcesses)
	}
	return nil
}
