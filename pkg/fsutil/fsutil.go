// Package fsutil 安装过程中的文件系统原语：目录创建与原子写入
package fsutil

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	ierrors "github.com/exporter-installer/pkg/errors"
)

// EnsureDir 创建目录（含父目录），已存在时为空操作
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return ierrors.WrapWithContext(ierrors.ErrCodeFilesystem, "create directory", err,
			map[string]any{"path": dir})
	}
	return nil
}

// Exists reports whether path exists. Errors other than not-exist count as
// existing so callers never overwrite something they cannot inspect.
func Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil || !os.IsNotExist(err)
}

// WriteFileAtomic streams r into a temporary sibling of path and renames it
// into place, so path is either absent or complete. Returns the byte count.
func WriteFileAtomic(path string, r io.Reader, perm os.FileMode) (int64, error) {
	dir := filepath.Dir(path)
	if err := EnsureDir(dir); err != nil {
		return 0, err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return 0, ierrors.WrapWithContext(ierrors.ErrCodeFilesystem, "create temp file", err,
			map[string]any{"path": path})
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	n, err := io.Copy(tmp, r)
	if err != nil {
		_ = tmp.Close()
		return n, err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return n, ierrors.WrapWithContext(ierrors.ErrCodeFilesystem, "sync temp file", err,
			map[string]any{"path": tmpName})
	}
	if err := tmp.Close(); err != nil {
		return n, ierrors.WrapWithContext(ierrors.ErrCodeFilesystem, "close temp file", err,
			map[string]any{"path": tmpName})
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return n, ierrors.WrapWithContext(ierrors.ErrCodeFilesystem, "chmod", err,
			map[string]any{"path": tmpName})
	}
	if err := os.Rename(tmpName, path); err != nil {
		return n, ierrors.WrapWithContext(ierrors.ErrCodeFilesystem, "rename into place", err,
			map[string]any{"from": tmpName, "to": path})
	}
	committed = true
	return n, nil
}

// WriteFile 原子写入一段内存数据
func WriteFile(path string, data []byte, perm os.FileMode) error {
	_, err := WriteFileAtomic(path, bytes.NewReader(data), perm)
	return err
}
