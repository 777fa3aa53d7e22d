package installer

import (
	"github.com/spf13/cobra"
)

func initInstallFlags(root *cobra.Command) {
	f := root.PersistentFlags()

	f.String("platform", "", "-> Target platform, e.g. linux/arm64 (default: detected) | 目标平台")
	f.Duration("download-timeout", defaultCfg.Install.DownloadTimeout, "-> HTTP download timeout, 0 = client default | 下载超时")
	f.String("systemd-unit-dir", defaultCfg.Install.SystemdUnitDir, "-> systemd unit directory | systemd unit 目录")
	f.Bool("strict", defaultCfg.Install.Strict, "-> Fail the run when any exporter fails | 任一制品失败即退出")

	f.Duration("agent.interval", defaultCfg.Agent.Interval, "-> Process agent collection interval | 采集间隔")
	f.Int("agent.max-processes", defaultCfg.Agent.MaxProcesses, "-> Max processes tracked by the agent | 最大进程数")
	f.Int("agent.top-n", defaultCfg.Agent.TopN, "-> Top N processes exported | 导出前N个进程")

	f.String("metrics.textfile-dir", defaultCfg.Metrics.TextfileDir, "-> Write installer metrics for the node exporter textfile collector | textfile 目录")
}
