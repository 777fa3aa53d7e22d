// Package platform 识别操作系统与CPU架构，用于选择默认下载地址和安装路径
package platform

import (
	"fmt"
	"path"
	"runtime"
	"strings"
)

// OS 操作系统分类（封闭集合）
type OS int

const (
	Unknown OS = iota
	Linux
	Windows
	MacOS
)

// Arch CPU架构分类（封闭集合）
type Arch int

const (
	Other Arch = iota
	X86_64
	X86
	Aarch64
)

// Descriptor is an immutable view of the platform an artifact is installed on.
// Raw keeps the architecture string it was classified from, which lets Other
// still pick armv7 release names.
type Descriptor struct {
	OS   OS
	Arch Arch
	Raw  string
}

func (o OS) String() string {
	switch o {
	case Linux:
		return "Linux"
	case Windows:
		return "Windows"
	case MacOS:
		return "MacOS"
	default:
		return "Unknown"
	}
}

// Token 下载地址中使用的系统标识，未知系统返回空串
func (o OS) Token() string {
	switch o {
	case Linux:
		return "linux"
	case Windows:
		return "windows"
	case MacOS:
		return "darwin"
	default:
		return ""
	}
}

func (a Arch) String() string {
	switch a {
	case X86_64:
		return "x86_64"
	case X86:
		return "x86"
	case Aarch64:
		return "aarch64"
	default:
		return "other"
	}
}

// Detect 读取当前进程的 GOOS/GOARCH
func Detect() Descriptor {
	return Classify(runtime.GOOS, runtime.GOARCH)
}

// Classify maps an os/arch identifier pair into the closed enumerations. Both Go
// names (darwin, amd64) and triple style names (macos, x86_64) are accepted.
func Classify(osName, archName string) Descriptor {
	return Descriptor{
		OS:   classifyOS(strings.ToLower(strings.TrimSpace(osName))),
		Arch: classifyArch(strings.ToLower(strings.TrimSpace(archName))),
		Raw:  strings.ToLower(strings.TrimSpace(archName)),
	}
}

// ParseTriple 解析交叉编译目标，如 x86_64-unknown-linux-gnu、aarch64-apple-darwin、linux/arm64
func ParseTriple(triple string) Descriptor {
	t := strings.ToLower(strings.TrimSpace(triple))
	d := Descriptor{OS: Unknown, Arch: Other}

	switch {
	case strings.Contains(t, "windows"):
		d.OS = Windows
	case strings.Contains(t, "linux"):
		d.OS = Linux
	case strings.Contains(t, "darwin"), strings.Contains(t, "apple"), strings.Contains(t, "macos"):
		d.OS = MacOS
	}

	switch {
	case strings.Contains(t, "x86_64"), strings.Contains(t, "amd64"):
		d.Arch, d.Raw = X86_64, "x86_64"
	case strings.Contains(t, "i686"), strings.Contains(t, "i586"), strings.Contains(t, "i386"), strings.Contains(t, "386"):
		d.Arch, d.Raw = X86, "x86"
	case strings.Contains(t, "aarch64"), strings.Contains(t, "arm64"):
		d.Arch, d.Raw = Aarch64, "aarch64"
	default:
		d.Raw = firstField(t)
	}
	return d
}

// firstField 取三元组/GOOS-GOARCH对中的架构部分
func firstField(t string) string {
	if i := strings.Index(t, "/"); i >= 0 {
		return t[i+1:]
	}
	if i := strings.Index(t, "-"); i >= 0 {
		return t[:i]
	}
	return t
}

func classifyOS(s string) OS {
	switch s {
	case "linux":
		return Linux
	case "windows":
		return Windows
	case "darwin", "macos", "osx":
		return MacOS
	default:
		return Unknown
	}
}

func classifyArch(s string) Arch {
	switch s {
	case "amd64", "x86_64", "x64":
		return X86_64
	case "386", "i386", "i586", "i686", "x86":
		return X86
	case "arm64", "aarch64":
		return Aarch64
	default:
		return Other
	}
}

// Is64Bit 未识别的架构按64位处理，除非原始名称明确是32位ARM
func (d Descriptor) Is64Bit() bool {
	switch d.Arch {
	case X86:
		return false
	case Other:
		return !isArm32(d.Raw)
	default:
		return true
	}
}

// ArchToken release asset naming: X86_64→amd64, X86→386, Aarch64→arm64,
// Other→amd64 (armv7 when the raw name is a 32-bit arm).
func (d Descriptor) ArchToken() string {
	switch d.Arch {
	case X86_64:
		return "amd64"
	case X86:
		return "386"
	case Aarch64:
		return "arm64"
	default:
		if isArm32(d.Raw) {
			return "armv7"
		}
		return "amd64"
	}
}

func isArm32(raw string) bool {
	switch raw {
	case "arm", "armv7", "armv7l", "armv7a", "armhf":
		return true
	}
	return false
}

// Separator 目标平台的路径分隔符
func (d Descriptor) Separator() string {
	if d.OS == Windows {
		return `\`
	}
	return "/"
}

// Join joins path elements with the target platform's separator, independent
// of the host running the installer.
func (d Descriptor) Join(elem ...string) string {
	if d.OS != Windows {
		return path.Join(elem...)
	}
	parts := make([]string, 0, len(elem))
	for i, e := range elem {
		e = strings.ReplaceAll(e, "/", `\`)
		if i > 0 {
			e = strings.TrimLeft(e, `\`)
		}
		if i < len(elem)-1 {
			e = strings.TrimRight(e, `\`)
		}
		if e != "" {
			parts = append(parts, e)
		}
	}
	return strings.Join(parts, `\`)
}

// ExecutableName appends .exe on Windows.
func (d Descriptor) ExecutableName(name string) string {
	if d.OS == Windows {
		return name + ".exe"
	}
	return name
}

// String e.g. "Linux/x86_64".
func (d Descriptor) String() string {
	return fmt.Sprintf("%s/%s", d.OS, d.Arch)
}

// Equal 比较分类结果（忽略 Raw）
func (d Descriptor) Equal(o Descriptor) bool {
	return d.OS == o.OS && d.Arch == o.Arch
}
