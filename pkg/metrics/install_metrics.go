package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	ResultOK      = "ok"
	ResultSkipped = "skipped"
	ResultError   = "error"
)

// InstallMetrics 一次安装运行的全部指标
type InstallMetrics struct {
	Registry Registers

	acquireTotal    *prometheus.CounterVec
	acquireDuration *prometheus.HistogramVec
	acquireBytes    *prometheus.GaugeVec
	setupStatus     *prometheus.GaugeVec
	lastRun         prometheus.Gauge
}

// NewInstallMetrics registers the installer metrics on reg, or on a fresh
// registry when reg is nil.
func NewInstallMetrics(reg Registers) *InstallMetrics {
	if reg == nil {
		reg = NewPromRegistry(nil)
	}
	f := NewMetricFactory(reg)
	return &InstallMetrics{
		Registry:        reg,
		acquireTotal:    f.NewAcquireTotal(),
		acquireDuration: f.NewAcquireDurationSeconds(),
		acquireBytes:    f.NewAcquireBytes(),
		setupStatus:     f.NewSetupStatus(),
		lastRun:         f.NewLastRunTimestamp(),
	}
}

// ObserveAcquire 记录一次获取；nil 接收者为空操作
func (m *InstallMetrics) ObserveAcquire(artifact, source, result string, bytes int64, d time.Duration) {
	if m == nil {
		return
	}
	m.acquireTotal.WithLabelValues(artifact, source, result).Inc()
	if result == ResultOK {
		m.acquireDuration.WithLabelValues(artifact).Observe(d.Seconds())
		m.acquireBytes.WithLabelValues(artifact).Set(float64(bytes))
	}
}

func (m *InstallMetrics) ObserveSetup(artifact, version string, ok bool) {
	if m == nil {
		return
	}
	v := 0.0
	if ok {
		v = 1
	}
	m.setupStatus.WithLabelValues(artifact, version).Set(v)
}

func (m *InstallMetrics) MarkRun(t time.Time) {
	if m == nil {
		return
	}
	m.lastRun.Set(float64(t.Unix()))
}

// Flush 写入 textfile 目录；dir 为空时不输出
func (m *InstallMetrics) Flush(dir string) (string, error) {
	if m == nil || dir == "" {
		return "", nil
	}
	return WriteTextfile(m.Registry, dir)
}
