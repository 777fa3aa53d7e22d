package artifact

import "fmt"

// SourceType 字节来源，优先级 LocalFile > Embedded > RemoteURL > DefaultURL
type SourceType int

const (
	SourceEmbedded SourceType = iota
	SourceLocalFile
	SourceRemoteURL
	SourceDefaultURL
)

func (t SourceType) String() string {
	switch t {
	case SourceEmbedded:
		return "embedded"
	case SourceLocalFile:
		return "local_file"
	case SourceRemoteURL:
		return "remote_url"
	case SourceDefaultURL:
		return "default_url"
	}
	return "unknown"
}

// Source is a tagged union: exactly one of Data, Path or URL is meaningful,
// selected by Type.
type Source struct {
	Type SourceType
	Data []byte
	Path string
	URL  string
}

// Embedded 构造内嵌来源
func Embedded(data []byte) Source { return Source{Type: SourceEmbedded, Data: data} }

// LocalFile 构造本地覆盖文件来源
func LocalFile(path string) Source { return Source{Type: SourceLocalFile, Path: path} }

// RemoteURL 构造覆盖URL来源
func RemoteURL(url string) Source { return Source{Type: SourceRemoteURL, URL: url} }

// DefaultURL 构造默认URL来源
func DefaultURL(url string) Source { return Source{Type: SourceDefaultURL, URL: url} }

// IsRemote reports whether acquiring the source needs the network.
func (s Source) IsRemote() bool {
	return s.Type == SourceRemoteURL || s.Type == SourceDefaultURL
}

// Location url or path for logs; embedded sources report their size.
func (s Source) Location() string {
	switch s.Type {
	case SourceEmbedded:
		return fmt.Sprintf("embedded (%d bytes)", len(s.Data))
	case SourceLocalFile:
		return s.Path
	default:
		return s.URL
	}
}

func (s Source) String() string {
	return fmt.Sprintf("%s: %s", s.Type, s.Location())
}
