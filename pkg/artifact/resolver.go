package artifact

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	ierrors "github.com/exporter-installer/pkg/errors"
	"github.com/exporter-installer/pkg/logger"
	"github.com/exporter-installer/pkg/platform"
)

const (
	DefaultProcessAgentReleases = "https://github.com/your-org/process-cpu-agent/releases"
	nodeExporterReleases        = "https://github.com/prometheus/node_exporter/releases/download"
	windowsExporterReleases     = "https://github.com/prometheus-community/windows_exporter/releases/download"
)

// PayloadStore 构建期内嵌制品的查询接口（便于单测替换）
type PayloadStore interface {
	// Payload returns the bundled bytes of k for platform p, if any.
	Payload(k Kind, p platform.Descriptor) ([]byte, bool)
}

// Request 一次解析请求；Version 为空表示使用默认版本
type Request struct {
	Kind         Kind
	Platform     platform.Descriptor
	Version      string
	OverrideFile string
	OverrideURL  string
}

// Resolver decides where an artifact's bytes come from.
type Resolver struct {
	payloads         PayloadStore
	processAgentBase string
	stat             func(string) (os.FileInfo, error)
}

// Option 配置 Resolver
type Option func(*Resolver)

// WithProcessAgentReleases overrides the process agent release base url.
func WithProcessAgentReleases(base string) Option {
	return func(r *Resolver) {
		if base != "" {
			r.processAgentBase = strings.TrimRight(base, "/")
		}
	}
}

// NewResolver store 可以为 nil，表示没有任何内嵌制品
func NewResolver(store PayloadStore, opts ...Option) *Resolver {
	r := &Resolver{
		payloads:         store,
		processAgentBase: DefaultProcessAgentReleases,
		stat:             os.Stat,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve applies the source priority, first match wins:
//  1. override file that exists on disk
//  2. embedded payload (default version and embeddable platform only)
//  3. override url
//  4. computed default url
func (r *Resolver) Resolve(req Request) (Source, error) {
	spec := req.Kind.Spec()
	version := req.Version
	if version == "" {
		version = spec.DefaultVersion
	}

	if req.OverrideFile != "" {
		_, err := r.stat(req.OverrideFile)
		if err == nil {
			return LocalFile(req.OverrideFile), nil
		}
		logger.Warn("override file not usable, falling back",
			zap.String("artifact", spec.Name),
			zap.String("path", req.OverrideFile),
			zap.Error(err))
	}

	if r.payloads != nil && version == spec.DefaultVersion && req.Kind.Embeddable(req.Platform) {
		if data, ok := r.payloads.Payload(req.Kind, req.Platform); ok && len(data) > 0 {
			return Embedded(data), nil
		}
	}

	if req.OverrideURL != "" {
		return RemoteURL(req.OverrideURL), nil
	}

	url, err := r.DefaultURL(req.Kind, req.Platform, version)
	if err != nil {
		return Source{}, err
	}
	return DefaultURL(url), nil
}

// DefaultURL 按制品模板拼接默认下载地址；目标平台没有对应模板时返回 CONFIGURATION 错误
func (r *Resolver) DefaultURL(k Kind, p platform.Descriptor, version string) (string, error) {
	spec := k.Spec()
	if version == "" {
		version = spec.DefaultVersion
	}
	noTemplate := func() error {
		return ierrors.NewWithContext(ierrors.ErrCodeConfiguration,
			"no default download url for platform",
			map[string]any{"artifact": spec.Name, "platform": p.String()})
	}

	switch k {
	case ProcessAgent:
		if p.OS == platform.Unknown {
			return "", noTemplate()
		}
		asset := fmt.Sprintf("process-cpu-agent-%s-%s", p.OS.Token(), p.ArchToken())
		if p.OS == platform.Windows {
			asset += ".exe"
		}
		if version == ProcessAgentVersion {
			return fmt.Sprintf("%s/latest/download/%s", r.processAgentBase, asset), nil
		}
		return fmt.Sprintf("%s/download/v%s/%s", r.processAgentBase, strings.TrimPrefix(version, "v"), asset), nil

	case NodeExporter:
		if p.OS != platform.Linux && p.OS != platform.MacOS {
			return "", noTemplate()
		}
		return fmt.Sprintf("%s/v%s/node_exporter-%s.%s-%s.tar.gz",
			nodeExporterReleases, version, version, p.OS.Token(), p.ArchToken()), nil

	case WindowsExporter:
		if p.OS != platform.Windows {
			return "", noTemplate()
		}
		arch := "386"
		if p.Arch == platform.X86_64 {
			arch = "amd64"
		}
		return fmt.Sprintf("%s/v%s/windows_exporter-%s-%s.msi",
			windowsExporterReleases, version, version, arch), nil
	}
	return "", noTemplate()
}

// DefaultURLFor 使用默认 release 地址的便捷函数
func DefaultURLFor(k Kind, p platform.Descriptor, version string) (string, error) {
	return NewResolver(nil).DefaultURL(k, p, version)
}
