package fetch

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"

	ierrors "github.com/exporter-installer/pkg/errors"
)

// ExtractTarGzFile 解压 tar.gz 文件到 dir
func ExtractTarGzFile(archive, dir string) error {
	f, err := os.Open(archive)
	if err != nil {
		return ierrors.WrapWithContext(ierrors.ErrCodeFilesystem, "open archive", err,
			map[string]any{"path": archive})
	}
	defer f.Close()
	return ExtractTarGz(f, dir)
}

// ExtractTarGz unpacks a gzip compressed tarball into dir, keeping relative
// paths. Entries that would land outside dir are rejected.
func ExtractTarGz(r io.Reader, dir string) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return ierrors.Wrap(ierrors.ErrCodeArchive, "gzip reader", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return ierrors.Wrap(ierrors.ErrCodeArchive, "read tar entry", err)
		}

		target, err := entryPath(dir, header.Name)
		if err != nil {
			return err
		}
		switch header.Typeflag {
		case tar.TypeDir:
			if err := mkdir(target); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeEntry(target, tr, entryMode(header.Name, header.FileInfo().Mode())); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := symlink(dir, target, header.Linkname); err != nil {
				return err
			}
		default:
			// 其它类型（设备、FIFO 等）在 exporter 发行包中不会出现，忽略
		}
	}
	return nil
}

// ExtractZip unpacks a zip archive into dir, keeping relative paths.
func ExtractZip(archive, dir string) error {
	zr, err := zip.OpenReader(archive)
	if err != nil {
		return ierrors.WrapWithContext(ierrors.ErrCodeArchive, "open zip", err,
			map[string]any{"path": archive})
	}
	defer zr.Close()

	for _, zf := range zr.File {
		target, err := entryPath(dir, zf.Name)
		if err != nil {
			return err
		}
		if zf.FileInfo().IsDir() {
			if err := mkdir(target); err != nil {
				return err
			}
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			return ierrors.WrapWithContext(ierrors.ErrCodeArchive, "open zip entry", err,
				map[string]any{"entry": zf.Name})
		}
		err = writeEntry(target, rc, entryMode(zf.Name, zf.Mode()))
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// entryPath joins name below dir, rejecting absolute paths and escapes.
func entryPath(dir, name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", ierrors.NewWithContext(ierrors.ErrCodeArchive, "archive entry escapes destination",
			map[string]any{"entry": name})
	}
	target := filepath.Join(dir, clean)
	if target != filepath.Clean(dir) && !strings.HasPrefix(target, filepath.Clean(dir)+string(filepath.Separator)) {
		return "", ierrors.NewWithContext(ierrors.ErrCodeArchive, "archive entry escapes destination",
			map[string]any{"entry": name})
	}
	return target, nil
}

// entryMode keeps the archived permission bits. Archives built on Windows
// carry no exec bits, so exporter and agent binaries get them added.
func entryMode(name string, mode os.FileMode) os.FileMode {
	perm := mode.Perm()
	if perm == 0 {
		perm = 0644
	}
	base := strings.ToLower(filepath.Base(name))
	if filepath.Ext(base) == "" && (strings.Contains(base, "exporter") || strings.Contains(base, "agent")) {
		perm |= 0111
	}
	return perm
}

func mkdir(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return ierrors.WrapWithContext(ierrors.ErrCodeFilesystem, "create directory", err,
			map[string]any{"path": path})
	}
	return nil
}

func writeEntry(target string, r io.Reader, perm os.FileMode) error {
	if err := mkdir(filepath.Dir(target)); err != nil {
		return err
	}
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return ierrors.WrapWithContext(ierrors.ErrCodeFilesystem, "create file", err,
			map[string]any{"path": target})
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return ierrors.WrapWithContext(ierrors.ErrCodeArchive, "read archive entry", err,
			map[string]any{"path": target})
	}
	if err := f.Close(); err != nil {
		return ierrors.WrapWithContext(ierrors.ErrCodeFilesystem, "close file", err,
			map[string]any{"path": target})
	}
	// OpenFile 受 umask 影响，显式设置权限
	if err := os.Chmod(target, perm); err != nil {
		return ierrors.WrapWithContext(ierrors.ErrCodeFilesystem, "chmod", err,
			map[string]any{"path": target})
	}
	return nil
}

// symlink creates a link only when its resolved target stays inside root.
func symlink(root, target, linkname string) error {
	resolved := linkname
	if !filepath.IsAbs(linkname) {
		resolved = filepath.Join(filepath.Dir(target), linkname)
	}
	rel, err := filepath.Rel(root, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return ierrors.NewWithContext(ierrors.ErrCodeArchive, "symlink escapes destination",
			map[string]any{"link": target, "target": linkname})
	}
	if err := mkdir(filepath.Dir(target)); err != nil {
		return err
	}
	if err := os.Symlink(linkname, target); err != nil {
		return ierrors.WrapWithContext(ierrors.ErrCodeFilesystem, fmt.Sprintf("symlink %s", linkname), err,
			map[string]any{"path": target})
	}
	return nil
}
