// Package fetch 制品获取引擎：下载/复制、原子落盘、解压与幂等跳过
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/exporter-installer/pkg/artifact"
	ierrors "github.com/exporter-installer/pkg/errors"
	"github.com/exporter-installer/pkg/fsutil"
	"github.com/exporter-installer/pkg/logger"
	"github.com/exporter-installer/pkg/metrics"
)

// BuildTimeout 构建期预取制品的超时时间；运行期默认不设超时（沿用 http.Client 默认行为）
const BuildTimeout = 120 * time.Second

const userAgent = "exporter-installer"

// Result 一次获取的结果
type Result struct {
	// Skipped is true when the destination already existed and nothing was written.
	Skipped bool
	Bytes   int64
	Path    string
	Source  artifact.Source
}

// Acquirer turns a resolved Source into files at a Target's destination.
type Acquirer struct {
	client  *http.Client
	metrics *metrics.InstallMetrics
	now     func() time.Time
}

type Option func(*Acquirer)

// WithTimeout bounds every HTTP request; zero keeps the client default.
func WithTimeout(d time.Duration) Option {
	return func(a *Acquirer) {
		if d > 0 {
			c := *a.client
			c.Timeout = d
			a.client = &c
		}
	}
}

// WithHTTPClient 替换 http.Client（单测或代理场景）
func WithHTTPClient(c *http.Client) Option {
	return func(a *Acquirer) {
		if c != nil {
			a.client = c
		}
	}
}

func WithMetrics(m *metrics.InstallMetrics) Option {
	return func(a *Acquirer) { a.metrics = m }
}

func NewAcquirer(opts ...Option) *Acquirer {
	a := &Acquirer{
		client: &http.Client{},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Acquire lays src down at t.Destination. An existing destination is left
// untouched and reported as skipped. Raw binaries are written executable,
// archives are unpacked into a directory, installer packages are staged as is.
// A failure never leaves a partial destination behind.
func (a *Acquirer) Acquire(ctx context.Context, src artifact.Source, t artifact.Target) (Result, error) {
	name := t.Kind.String()
	res := Result{Path: t.Destination, Source: src}
	start := a.now()

	if fsutil.Exists(t.Destination) {
		logger.Info("destination exists, skipping acquisition",
			zap.String("artifact", name), zap.String("path", t.Destination))
		res.Skipped = true
		a.metrics.ObserveAcquire(name, src.Type.String(), metrics.ResultSkipped, 0, 0)
		return res, nil
	}

	logger.Info("acquiring artifact",
		zap.String("artifact", name),
		zap.String("source", src.Type.String()),
		zap.String("from", src.Location()),
		zap.String("to", t.Destination))

	n, err := a.acquire(ctx, src, t)
	if err != nil {
		a.metrics.ObserveAcquire(name, src.Type.String(), metrics.ResultError, 0, 0)
		return res, err
	}
	res.Bytes = n
	elapsed := a.now().Sub(start)
	a.metrics.ObserveAcquire(name, src.Type.String(), metrics.ResultOK, n, elapsed)
	logger.Info("artifact acquired",
		zap.String("artifact", name),
		zap.Int64("bytes", n),
		zap.Duration("elapsed", elapsed))
	return res, nil
}

func (a *Acquirer) acquire(ctx context.Context, src artifact.Source, t artifact.Target) (int64, error) {
	if err := fsutil.EnsureDir(filepath.Dir(t.Destination)); err != nil {
		return 0, err
	}
	if t.Format.IsArchive() {
		return a.acquireArchive(ctx, src, t)
	}

	perm := os.FileMode(0644)
	if t.Format == artifact.FormatRaw {
		perm = 0755
	}
	return a.stream(ctx, src, func(r io.Reader) (int64, error) {
		return fsutil.WriteFileAtomic(t.Destination, r, perm)
	})
}

// acquireArchive stages the archive next to the destination, unpacks it into a
// temporary directory and renames that directory into place.
func (a *Acquirer) acquireArchive(ctx context.Context, src artifact.Source, t artifact.Target) (int64, error) {
	parent := filepath.Dir(t.Destination)
	base := filepath.Base(t.Destination)

	archive := filepath.Join(parent, "."+base+".archive")
	defer os.Remove(archive)
	n, err := a.stream(ctx, src, func(r io.Reader) (int64, error) {
		return fsutil.WriteFileAtomic(archive, r, 0644)
	})
	if err != nil {
		return n, err
	}

	stage, err := os.MkdirTemp(parent, "."+base+".extract-*")
	if err != nil {
		return n, ierrors.WrapWithContext(ierrors.ErrCodeFilesystem, "create staging directory", err,
			map[string]any{"path": parent})
	}
	committed := false
	defer func() {
		if !committed {
			_ = os.RemoveAll(stage)
		}
	}()

	switch t.Format {
	case artifact.FormatTarGz:
		err = ExtractTarGzFile(archive, stage)
	case artifact.FormatZip:
		err = ExtractZip(archive, stage)
	default:
		err = fmt.Errorf("unsupported archive format %q", t.Format)
	}
	if err != nil {
		return n, withSource(err, src)
	}
	if err := os.Chmod(stage, 0755); err != nil {
		return n, ierrors.WrapWithContext(ierrors.ErrCodeFilesystem, "chmod staging directory", err,
			map[string]any{"path": stage})
	}
	if err := os.Rename(stage, t.Destination); err != nil {
		return n, ierrors.WrapWithContext(ierrors.ErrCodeFilesystem, "rename extracted directory", err,
			map[string]any{"from": stage, "to": t.Destination})
	}
	committed = true
	return n, nil
}

// stream opens src and hands its bytes to sink. Read failures are attributed
// to the source (network or local file), write failures to the filesystem.
func (a *Acquirer) stream(ctx context.Context, src artifact.Source, sink func(io.Reader) (int64, error)) (int64, error) {
	body, err := a.open(ctx, src)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	tr := &trackingReader{r: body}
	n, err := sink(tr)
	if err == nil {
		return n, nil
	}
	if tr.err != nil {
		if src.IsRemote() {
			return n, ierrors.WrapWithContext(ierrors.ErrCodeNetwork, "read response body", tr.err,
				map[string]any{"url": src.URL})
		}
		return n, ierrors.WrapWithContext(ierrors.ErrCodeFilesystem, "read source file", tr.err,
			map[string]any{"path": src.Location()})
	}
	if ierrors.CodeOf(err) != "" {
		return n, err
	}
	return n, ierrors.WrapWithContext(ierrors.ErrCodeFilesystem, "write artifact", err,
		map[string]any{"source": src.Location()})
}

func (a *Acquirer) open(ctx context.Context, src artifact.Source) (io.ReadCloser, error) {
	switch src.Type {
	case artifact.SourceEmbedded:
		return io.NopCloser(bytes.NewReader(src.Data)), nil
	case artifact.SourceLocalFile:
		f, err := os.Open(src.Path)
		if err != nil {
			return nil, ierrors.WrapWithContext(ierrors.ErrCodeFilesystem, "open local file", err,
				map[string]any{"path": src.Path})
		}
		return f, nil
	case artifact.SourceRemoteURL, artifact.SourceDefaultURL:
		return a.get(ctx, src.URL)
	}
	return nil, ierrors.New(ierrors.ErrCodeConfiguration, "unknown source type "+src.Type.String())
}

func (a *Acquirer) get(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, ierrors.WrapWithContext(ierrors.ErrCodeConfiguration, "invalid download url", err,
			map[string]any{"url": url})
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, ierrors.WrapWithContext(ierrors.ErrCodeNetwork, "http request failed", err,
			map[string]any{"url": url})
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, ierrors.NewWithContext(ierrors.ErrCodeNetwork,
			fmt.Sprintf("unexpected http status %d", resp.StatusCode),
			map[string]any{"url": url, "status": resp.StatusCode})
	}
	return resp.Body, nil
}

func withSource(err error, src artifact.Source) error {
	var se *ierrors.StructuredError
	if errors.As(err, &se) {
		if se.Context == nil {
			se.Context = map[string]any{}
		}
		if _, ok := se.Context["source"]; !ok {
			se.Context["source"] = src.Location()
		}
		return se
	}
	return ierrors.WrapWithContext(ierrors.ErrCodeArchive, "extract archive", err,
		map[string]any{"source": src.Location()})
}

type trackingReader struct {
	r   io.Reader
	err error
}

func (t *trackingReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if err != nil && err != io.EOF {
		t.err = err
	}
	return n, err
}
