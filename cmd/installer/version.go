package installer

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/exporter-installer/pkg/artifact"
	"github.com/exporter-installer/pkg/payload"
)

// Version 构建时通过 -ldflags "-X github.com/exporter-installer/cmd/installer.Version=..." 注入
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the installer version and the pinned artifact versions",
	Run: func(cmd *cobra.Command, _ []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "exporter-installer %s (%s/%s, %s)\n", Version, runtime.GOOS, runtime.GOARCH, runtime.Version())

		embedded := map[artifact.Kind]bool{}
		for _, k := range payload.New().Available() {
			embedded[k] = true
		}
		for _, k := range artifact.All() {
			spec := k.Spec()
			fmt.Fprintf(out, "  %-17s %-8s embedded=%t\n", spec.Name, spec.DefaultVersion, embedded[k])
		}
	},
}
