// fetchpayloads 构建期预取需要内嵌的制品，输出到 pkg/payload/assets
//
// 来源优先级与运行期一致：
//   <ARTIFACT>_BUILD_FILE > lib/ 下的 process agent > <ARTIFACT>_BUILD_URL > 默认下载地址
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/exporter-installer/pkg/artifact"
	"github.com/exporter-installer/pkg/fetch"
	"github.com/exporter-installer/pkg/logger"
	"github.com/exporter-installer/pkg/platform"
)

// buildEnv 每个制品的构建期覆盖变量
var buildEnv = map[artifact.Kind]struct{ File, URL string }{
	artifact.ProcessAgent:    {"PROCESS_CPU_AGENT_BUILD_FILE", "PROCESS_CPU_AGENT_BUILD_URL"},
	artifact.NodeExporter:    {"NODE_EXPORTER_BUILD_FILE", "NODE_EXPORTER_BUILD_URL"},
	artifact.WindowsExporter: {"WINDOWS_EXPORTER_BUILD_FILE", "WINDOWS_EXPORTER_BUILD_URL"},
}

type options struct {
	out    string
	lib    string
	target string
}

func main() {
	opts := options{}
	cmd := &cobra.Command{
		Use:          "fetchpayloads",
		Short:        "Fetch the artifacts embedded into the installer binary",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts, os.Getenv)
		},
	}
	cmd.Flags().StringVar(&opts.out, "out", "assets", "-> Output directory | 输出目录")
	cmd.Flags().StringVar(&opts.lib, "lib", "lib", "-> Directory holding a prebuilt process agent | 预置 agent 目录")
	cmd.Flags().StringVar(&opts.target, "target", "", "-> Target triple or os/arch (default: $TARGET, then $GOOS/$GOARCH)")

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildPlatform --target > $TARGET > $GOOS/$GOARCH（go generate 会设置）> 当前主机
func buildPlatform(target string, getenv func(string) string) platform.Descriptor {
	if target == "" {
		target = getenv("TARGET")
	}
	if target != "" {
		return platform.ParseTriple(target)
	}
	goos, goarch := getenv("GOOS"), getenv("GOARCH")
	if goos == "" {
		goos = runtime.GOOS
	}
	if goarch == "" {
		goarch = runtime.GOARCH
	}
	return platform.Classify(goos, goarch)
}

func run(ctx context.Context, opts options, getenv func(string) string) error {
	p := buildPlatform(opts.target, getenv)
	logger.Info("fetching payloads", zap.String("platform", p.String()), zap.String("out", opts.out))

	acq := fetch.NewAcquirer(fetch.WithTimeout(fetch.BuildTimeout))
	for _, k := range artifact.All() {
		if !k.Embeddable(p) {
			continue
		}
		src, err := buildSource(k, p, opts.lib, getenv)
		if err != nil {
			return err
		}
		// 原样保存，不解压；运行期由 Acquirer 按格式处理
		t := artifact.Target{
			Kind:        k,
			Platform:    p,
			Format:      artifact.FormatRaw,
			Destination: filepath.Join(opts.out, k.Spec().PayloadName),
		}
		if _, err := acq.Acquire(ctx, src, t); err != nil {
			return fmt.Errorf("fetch %s: %w", k, err)
		}
	}
	return nil
}

func buildSource(k artifact.Kind, p platform.Descriptor, lib string, getenv func(string) string) (artifact.Source, error) {
	env := buildEnv[k]
	if path := getenv(env.File); path != "" {
		return artifact.LocalFile(path), nil
	}
	if k == artifact.ProcessAgent && lib != "" {
		bin := filepath.Join(lib, p.ExecutableName("process-cpu-agent"))
		if _, err := os.Stat(bin); err == nil {
			return artifact.LocalFile(bin), nil
		}
	}
	if url := getenv(env.URL); url != "" {
		return artifact.RemoteURL(url), nil
	}
	url, err := artifact.DefaultURLFor(k, p, "")
	if err != nil {
		return artifact.Source{}, err
	}
	return artifact.DefaultURL(url), nil
}
