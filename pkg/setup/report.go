package setup

import (
	"github.com/exporter-installer/pkg/artifact"
	"github.com/exporter-installer/pkg/platform"
	"github.com/exporter-installer/pkg/service"
)

// Report 单个制品的安装结果
type Report struct {
	Name     string
	Kind     artifact.Kind
	Required bool
	Source   artifact.Source
	Target   artifact.Target
	// Skipped is true when the artifact was already present on disk.
	Skipped bool
	Outcome service.Outcome
	Err     error
}

// OK reports whether the artifact was set up without a terminal error.
func (r Report) OK() bool { return r.Err == nil }

// Summary 一次完整运行的结果
type Summary struct {
	Platform platform.Descriptor
	Reports  []Report
	Strict   bool
}

// Failed is true when a required artifact failed, or any artifact in strict mode.
func (s Summary) Failed() bool {
	for _, r := range s.Reports {
		if r.Err != nil && (r.Required || s.Strict) {
			return true
		}
	}
	return false
}

// FirstError 第一个导致失败的错误
func (s Summary) FirstError() error {
	for _, r := range s.Reports {
		if r.Err != nil && (r.Required || s.Strict) {
			return r.Err
		}
	}
	return nil
}

func (s Summary) Report(k artifact.Kind) (Report, bool) {
	for _, r := range s.Reports {
		if r.Kind == k {
			return r, true
		}
	}
	return Report{}, false
}
