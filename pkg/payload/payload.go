// Package payload 构建期内嵌的制品（由 cmd/fetchpayloads 预先下载到 assets/）
package payload

import (
	"embed"
	"io/fs"
	"path"

	"github.com/exporter-installer/pkg/artifact"
	"github.com/exporter-installer/pkg/platform"
)

//go:generate go run ../../cmd/fetchpayloads --out assets --lib ../../lib

//go:embed all:assets
var assets embed.FS

// Store serves payloads bundled for the platform the binary was built for.
type Store struct {
	files fs.FS
	built platform.Descriptor
}

// New 返回当前构建内嵌的制品集合
func New() *Store {
	sub, err := fs.Sub(assets, "assets")
	if err != nil {
		// embed 路径为编译期常量，不会失败
		panic(err)
	}
	return NewFromFS(sub, platform.Detect())
}

// NewFromFS builds a store over files, treating them as built for p.
func NewFromFS(files fs.FS, p platform.Descriptor) *Store {
	return &Store{files: files, built: p}
}

// Payload returns the bundled bytes of k. Payloads only match the platform
// they were fetched for; anything else reports false.
func (s *Store) Payload(k artifact.Kind, p platform.Descriptor) ([]byte, bool) {
	if !p.Equal(s.built) || !k.Embeddable(p) {
		return nil, false
	}
	data, err := fs.ReadFile(s.files, path.Clean(k.Spec().PayloadName))
	if err != nil || len(data) == 0 {
		return nil, false
	}
	return data, true
}

// Available 列出已内嵌的制品
func (s *Store) Available() []artifact.Kind {
	var out []artifact.Kind
	for _, k := range artifact.All() {
		if _, ok := s.Payload(k, s.built); ok {
			out = append(out, k)
		}
	}
	return out
}
