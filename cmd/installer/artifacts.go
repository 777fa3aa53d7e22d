package installer

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/exporter-installer/pkg/config"
)

// initArtifactFlags 每个制品一组覆盖项：process-agent.* / node-exporter.* / windows-exporter.*
func initArtifactFlags(root *cobra.Command) {
	f := root.PersistentFlags()
	f.AddFlagSet(artifactFlags("process-agent.", defaultCfg.ProcessAgent, "process agent"))
	f.AddFlagSet(artifactFlags("node-exporter.", defaultCfg.NodeExporter, "node exporter"))
	f.AddFlagSet(artifactFlags("windows-exporter.", defaultCfg.WindowsExporter, "windows exporter"))

	f.String("process-agent.release-url", defaultCfg.ProcessAgent.ReleaseURL, "-> Release base url of the process agent")
	f.String("process-agent.windows-mode", defaultCfg.ProcessAgent.WindowsMode, "-> Windows registration [task,service]")
}

func artifactFlags(prefix string, def config.ArtifactConfig, label string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(label, pflag.ContinueOnError)
	fs.Bool(prefix+"enable", def.Enable, "-> Install the "+label)
	fs.String(prefix+"version", def.Version, "-> Version to install (default: pinned version)")
	fs.String(prefix+"file", def.File, "-> Local file used instead of downloading")
	fs.String(prefix+"url", def.URL, "-> Download URL override")
	fs.String(prefix+"install-path", def.InstallPath, "-> Install root override")
	fs.Int(prefix+"port", def.Port, "-> Listen port override")
	return fs
}
