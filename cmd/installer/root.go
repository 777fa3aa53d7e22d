package installer

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/exporter-installer/pkg/artifact"
	"github.com/exporter-installer/pkg/config"
	"github.com/exporter-installer/pkg/fetch"
	"github.com/exporter-installer/pkg/logger"
	"github.com/exporter-installer/pkg/metrics"
	"github.com/exporter-installer/pkg/payload"
	"github.com/exporter-installer/pkg/platform"
	"github.com/exporter-installer/pkg/setup"
	"github.com/exporter-installer/pkg/signal"
	"github.com/exporter-installer/pkg/util"
)

var (
	cfgFile    string
	defaultCfg = config.NewDefaultConfig()
)

var rootCmd = &cobra.Command{
	Use:   "exporter-installer [process-agent-url]",
	Short: "Install and register Prometheus exporters and the process CPU agent",
	Long: `Installs the platform exporter (node_exporter on Linux/macOS, windows_exporter
on Windows) and the process CPU agent, then registers them as services.

The process agent download url can be given as the only argument or via
PROCESS_CPU_AGENT_URL.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, args)
		if err != nil {
			return err
		}
		ctx, cancel := signal.WithShutdown(cmd.Context())
		defer cancel()
		return runInstall(ctx, cmd, cfg)
	},
}

// Execute 入口；失败时非零退出
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\n✗ Setup failed: %v\n", err)
		fmt.Fprintln(os.Stderr, "Please check permissions and try again")
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "配置文件路径 (yaml)")
	// 注册分组 flag
	initInstallFlags(rootCmd)
	initArtifactFlags(rootCmd)
	initLogFlags(rootCmd)

	rootCmd.AddCommand(planCmd, versionCmd)
}

// loadConfig 加载配置；位置参数仅在未通过文件/环境变量/flag 指定 url 时生效
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg, err := config.LoadConfigWithCli(cmd)
	if err != nil {
		return nil, err
	}
	if len(args) == 1 && cfg.ProcessAgent.URL == "" {
		cfg.ProcessAgent.URL = args[0]
	}
	if err := logger.Init(cfg.Log); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, nil
}

// targetPlatform 配置覆盖优先，否则检测当前主机
func targetPlatform(cfg *config.Config) platform.Descriptor {
	if cfg.Install.Platform != "" {
		return platform.ParseTriple(cfg.Install.Platform)
	}
	return platform.Detect()
}

func newDeps(cfg *config.Config, p platform.Descriptor, m *metrics.InstallMetrics) setup.Deps {
	return setup.Deps{
		Platform: p,
		Resolver: artifact.NewResolver(payload.New(),
			artifact.WithProcessAgentReleases(cfg.ProcessAgent.ReleaseURL)),
		Acquirer: fetch.NewAcquirer(
			fetch.WithTimeout(cfg.Install.DownloadTimeout),
			fetch.WithMetrics(m)),
		Metrics:      m,
		Registrars:   setup.RegistrarFactory{UnitDir: cfg.Install.SystemdUnitDir},
		LocalAppData: os.Getenv("LOCALAPPDATA"),
	}
}

func runInstall(ctx context.Context, cmd *cobra.Command, cfg *config.Config) error {
	defer logger.Sync()
	out := cmd.OutOrStdout()

	util.PrintBanner(out, "exporter installer", "cyan")
	p := targetPlatform(cfg)
	printPlatform(ctx, out, p)

	if cfg.ProcessAgent.URL != "" {
		logger.Info("using custom process agent url", zap.String("url", cfg.ProcessAgent.URL))
	}

	m := metrics.NewInstallMetrics(nil)
	m.MarkRun(time.Now())
	deps := newDeps(cfg, p, m)

	mods, err := setup.Modules(cfg, deps)
	if err != nil {
		return err
	}
	mgr := setup.NewManager(p, cfg.Install.Strict)
	if _, err := setup.RegisterInstallers(mgr, mods); err != nil {
		return err
	}
	summary := mgr.Run(ctx)

	if path, err := m.Flush(cfg.Metrics.TextfileDir); err != nil {
		logger.Warn("failed to write metrics textfile", zap.Error(err))
	} else if path != "" {
		logger.Info("metrics textfile written", zap.String("path", path))
	}

	printSummary(out, summary)
	if summary.Failed() {
		return summary.FirstError()
	}
	return nil
}
