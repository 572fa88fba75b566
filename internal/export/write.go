package export

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vango-dev/vizsite/internal/errors"
	"github.com/vango-dev/vizsite/internal/telemetry"
	"github.com/vango-dev/vizsite/pkg/assets"
)

// Result describes a finished build.
type Result struct {
	// Duration is how long the build took.
	Duration time.Duration

	// Output is the output directory.
	Output string

	// Pages is the number of pages written.
	Pages int

	// Assets is the number of assets copied.
	Assets int

	// Bytes is the total size of the written files, excluding .gz files.
	Bytes int64

	// Manifest describes the output.
	Manifest *assets.Manifest
}

// compressible are the extensions precompressed when enabled.
var compressible = map[string]bool{
	".html": true,
	".css":  true,
	".js":   true,
	".csv":  true,
	".svg":  true,
	".txt":  true,
}

// Build renders the site and writes it to the output directory. The
// previous output is replaced only when the whole build succeeded.
func (b *Builder) Build(ctx context.Context) (res *Result, err error) {
	start := time.Now()
	ctx, span := telemetry.StartBuild(ctx, b.options.Tracer, b.options.Mode, b.options.Base)
	defer func() {
		b.options.Metrics.RecordBuild(time.Since(start), err)
		telemetry.End(span, err)
	}()

	if b.options.Output == "" {
		return nil, errors.New(errors.CodeConfigInvalid).WithDetail("no output directory configured")
	}

	out, err := b.Render(ctx)
	if err != nil {
		return nil, err
	}

	output, err := filepath.Abs(b.options.Output)
	if err != nil {
		return nil, errors.New(errors.CodeOutputWrite).Wrap(err)
	}
	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return nil, errors.New(errors.CodeOutputWrite).Wrap(err)
	}
	staging, err := os.MkdirTemp(filepath.Dir(output), "."+filepath.Base(output)+"-staging-")
	if err != nil {
		return nil, errors.New(errors.CodeOutputWrite).Wrap(err)
	}
	defer os.RemoveAll(staging)

	b.progress("Writing output...")
	w := &treeWriter{root: staging, precompress: b.options.Precompress, metrics: b.options.Metrics}
	result := &Result{Output: output, Manifest: out.Manifest}

	for _, p := range out.Pages {
		if err := w.write(p.File, p.HTML, "page"); err != nil {
			return nil, err
		}
		result.Pages++
	}

	for _, a := range out.Assets {
		if err := ctx.Err(); err != nil {
			return nil, errors.New(errors.CodeBuildAborted).Wrap(err)
		}
		if err := w.copyAsset(b.options.Catalog, a); err != nil {
			return nil, err
		}
		result.Assets++
	}

	for _, file := range sortedFiles(out.Generated) {
		if err := w.write(file, out.Generated[file], "generated"); err != nil {
			return nil, err
		}
	}

	manifest, err := out.Manifest.Encode()
	if err != nil {
		return nil, errors.New(errors.CodeManifest).Wrap(err)
	}
	if err := w.write(assets.ManifestPath, manifest, "generated"); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, errors.New(errors.CodeBuildAborted).Wrap(err)
	}

	b.progress("Replacing output directory...")
	if err := swap(staging, output); err != nil {
		return nil, err
	}

	result.Bytes = w.bytes
	result.Duration = time.Since(start)
	b.logger.Info("build complete",
		zap.String("output", output),
		zap.Int("pages", result.Pages),
		zap.Int("assets", result.Assets),
		zap.Int64("bytes", result.Bytes),
		zap.Duration("duration", result.Duration))
	return result, nil
}

// swap replaces output with staging. The old output is moved aside first
// and removed only after the rename succeeded.
func swap(staging, output string) error {
	var old string
	if _, err := os.Stat(output); err == nil {
		old = output + ".old-" + filepath.Base(staging)
		if err := os.Rename(output, old); err != nil {
			return errors.New(errors.CodeOutputWrite).WithDetail("cannot move previous output aside").Wrap(err)
		}
	}
	if err := os.Rename(staging, output); err != nil {
		if old != "" {
			_ = os.Rename(old, output)
		}
		return errors.New(errors.CodeOutputWrite).Wrap(err)
	}
	if old != "" {
		return os.RemoveAll(old)
	}
	return nil
}

// treeWriter writes files below root.
type treeWriter struct {
	root        string
	precompress bool
	metrics     *telemetry.Metrics
	bytes       int64
}

func (w *treeWriter) path(file string) (string, error) {
	dst := filepath.Join(w.root, filepath.FromSlash(file))
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", errors.New(errors.CodeOutputWrite).WithAsset(file).Wrap(err)
	}
	return dst, nil
}

func (w *treeWriter) write(file string, data []byte, kind string) error {
	dst, err := w.path(file)
	if err != nil {
		return err
	}
	if err := os.WriteFile(dst, data, 0644); err != nil {
		return errors.New(errors.CodeOutputWrite).WithAsset(file).Wrap(err)
	}
	w.bytes += int64(len(data))
	w.metrics.RecordOutput(kind, int64(len(data)))
	return w.compress(file, dst, data)
}

func (w *treeWriter) copyAsset(catalog *assets.Catalog, a assets.Asset) error {
	dst, err := w.path(a.File())
	if err != nil {
		return err
	}

	src, err := catalog.Open(a.Path)
	if err != nil {
		return err
	}
	defer src.Close()

	var buf *bytes.Buffer
	var r io.Reader = src
	if w.precompress && compressible[strings.ToLower(path.Ext(a.Path))] {
		buf = &bytes.Buffer{}
		r = io.TeeReader(src, buf)
	}

	f, err := os.Create(dst)
	if err != nil {
		return errors.New(errors.CodeOutputWrite).WithAsset(a.Path).Wrap(err)
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return errors.New(errors.CodeOutputWrite).WithAsset(a.Path).Wrap(err)
	}

	w.bytes += n
	w.metrics.RecordAsset(n)
	if buf != nil {
		return w.compress(a.File(), dst, buf.Bytes())
	}
	return nil
}

// compress writes dst.gz for compressible files. The gzip header carries
// no name or timestamp so that identical inputs give identical bytes.
func (w *treeWriter) compress(file, dst string, data []byte) error {
	if !w.precompress || !compressible[strings.ToLower(path.Ext(file))] {
		return nil
	}

	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return err
	}
	if _, err := zw.Write(data); err != nil {
		return errors.New(errors.CodeOutputWrite).WithAsset(file + ".gz").Wrap(err)
	}
	if err := zw.Close(); err != nil {
		return errors.New(errors.CodeOutputWrite).WithAsset(file + ".gz").Wrap(err)
	}
	if err := os.WriteFile(dst+".gz", buf.Bytes(), 0644); err != nil {
		return errors.New(errors.CodeOutputWrite).WithAsset(file + ".gz").Wrap(err)
	}
	w.metrics.RecordOutput("gzip", int64(buf.Len()))
	return nil
}

func sortedFiles(m map[string][]byte) []string {
	files := make([]string, 0, len(m))
	for f := range m {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}
