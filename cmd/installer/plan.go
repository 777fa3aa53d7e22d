package installer

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/exporter-installer/pkg/metrics"
	"github.com/exporter-installer/pkg/setup"
)

// planCmd 只解析来源与目标，不写磁盘、不注册服务
var planCmd = &cobra.Command{
	Use:          "plan [process-agent-url]",
	Short:        "Show where each artifact comes from and where it would be installed",
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, args)
		if err != nil {
			return err
		}
		p := targetPlatform(cfg)
		deps := newDeps(cfg, p, metrics.NewInstallMetrics(nil))
		mods, err := setup.Modules(cfg, deps)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Platform: %s\n", p)
		for _, m := range mods {
			if !m.Enabled {
				fmt.Fprintf(out, "\n%s: disabled\n", m.Name)
				continue
			}
			in := setup.NewExporterSetup(m.Kind, cfg, deps)
			fmt.Fprintf(out, "\n%s (required: %t)\n", m.Name, m.Required)
			if err := in.Init(cmd.Context()); err != nil {
				fmt.Fprintf(out, "  error:       %v\n", err)
				continue
			}
			t := in.Target()
			fmt.Fprintf(out, "  version:     %s\n", t.Version)
			fmt.Fprintf(out, "  source:      %s\n", in.Source())
			fmt.Fprintf(out, "  destination: %s\n", t.Destination)
			fmt.Fprintf(out, "  binary:      %s\n", t.BinaryPath)
			if t.ConfigPath != "" {
				fmt.Fprintf(out, "  config:      %s\n", t.ConfigPath)
			}
			fmt.Fprintf(out, "  service:     %s\n", in.Unit().CommandLine())
		}
		return nil
	},
}
