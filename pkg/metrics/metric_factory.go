package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "exporter_installer"

// MetricFactory 指标工厂，用于统一创建指标（counter/gauge/histogram）。
type MetricFactory struct {
	reg Registers
}

// NewMetricFactory 创建指标工厂
func NewMetricFactory(reg Registers) *MetricFactory {
	return &MetricFactory{reg: reg}
}

// NewAcquireTotal 制品获取次数
// 标签：artifact 制品短名；source embedded/local_file/remote_url/default_url；result ok/skipped/error
func (f *MetricFactory) NewAcquireTotal() *prometheus.CounterVec {
	return promauto.With(f.reg).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "acquire_total",
		Help:      "Artifact acquisitions by source and result",
	}, []string{"artifact", "source", "result"})
}

// NewAcquireDurationSeconds 获取耗时分布（下载 + 解压）
func (f *MetricFactory) NewAcquireDurationSeconds() *prometheus.HistogramVec {
	return promauto.With(f.reg).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "acquire_duration_seconds",
		Help:      "Duration of artifact acquisition",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14), // 0.01s ~ 82s
	}, []string{"artifact"})
}

func (f *MetricFactory) NewAcquireBytes() *prometheus.GaugeVec {
	return promauto.With(f.reg).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "acquire_bytes",
		Help:      "Size in bytes of the last acquired artifact",
	}, []string{"artifact"})
}

// NewSetupStatus 1 表示制品安装并注册成功，0 表示失败
func (f *MetricFactory) NewSetupStatus() *prometheus.GaugeVec {
	return promauto.With(f.reg).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "setup_status",
		Help:      "Whether the last setup of the artifact succeeded (1) or failed (0)",
	}, []string{"artifact", "version"})
}

func (f *MetricFactory) NewLastRunTimestamp() prometheus.Gauge {
	return promauto.With(f.reg).NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix time of the last installer run",
	})
}
