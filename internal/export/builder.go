package export

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"path"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/vizsite/internal/charts"
	"github.com/vango-dev/vizsite/internal/errors"
	"github.com/vango-dev/vizsite/internal/logging"
	"github.com/vango-dev/vizsite/internal/pages"
	"github.com/vango-dev/vizsite/internal/routes"
	"github.com/vango-dev/vizsite/internal/telemetry"
	"github.com/vango-dev/vizsite/pkg/assets"
	"github.com/vango-dev/vizsite/pkg/routepath"
)

// DefaultConcurrency is the number of pages rendered in parallel when
// Options.Concurrency is not set.
const DefaultConcurrency = 4

// Options configures the builder.
type Options struct {
	// Routes enumerates the routes to export.
	Routes routes.Table

	// Pages is the routes directory holding page sources and layouts.
	Pages fs.FS

	// Catalog is the closed set of static assets.
	Catalog *assets.Catalog

	// Base is the deployment base path ("" or "/CSCI5609GP").
	Base string

	// Mode is recorded in the manifest ("development", "production").
	Mode string

	// Output is the output directory. Only Build writes to it.
	Output string

	// TrailingSlash is "never" (default) or "always".
	TrailingSlash string

	// Concurrency bounds parallel page renders.
	Concurrency int

	// Precompress writes a .gz next to every compressible file.
	Precompress bool

	// Site is the default page title.
	Site string

	// Logger receives build progress. Defaults to a no-op logger.
	Logger *zap.Logger

	// Metrics records build metrics when set.
	Metrics *telemetry.Metrics

	// Tracer traces the build. Defaults to the global tracer.
	Tracer trace.Tracer

	// OnProgress is called with progress updates.
	OnProgress func(step string)
}

// Builder exports a site.
type Builder struct {
	options Options
	logger  *zap.Logger
}

// New creates a builder. An invalid base path or trailing slash policy is
// a configuration error.
func New(options Options) (*Builder, error) {
	if err := routepath.ValidateBase(options.Base); err != nil {
		return nil, errors.Configuration(err.Error())
	}
	switch options.TrailingSlash {
	case "":
		options.TrailingSlash = routes.TrailingSlashNever
	case routes.TrailingSlashNever, routes.TrailingSlashAlways:
	default:
		return nil, errors.New(errors.CodeConfigInvalid).
			WithDetail(fmt.Sprintf("trailingSlash must be %q or %q, got %q",
				routes.TrailingSlashNever, routes.TrailingSlashAlways, options.TrailingSlash))
	}
	if options.Routes == nil || options.Pages == nil || options.Catalog == nil {
		return nil, errors.New(errors.CodeConfigInvalid).
			WithDetail("export needs a route table, the page sources and an asset catalog")
	}
	if options.Concurrency <= 0 {
		options.Concurrency = DefaultConcurrency
	}
	if options.Tracer == nil {
		options.Tracer = telemetry.Tracer()
	}

	return &Builder{
		options: options,
		logger:  logging.OrNop(options.Logger),
	}, nil
}

// Page is a rendered page.
type Page struct {
	Pathname string
	Route    string

	// File is the slash-separated output file ("movies.html").
	File string

	HTML []byte

	// References are the internal URLs the page links to.
	References []Reference
}

// Output is a rendered site held in memory.
type Output struct {
	Base string
	Mode string

	// Pages are sorted by pathname.
	Pages []Page

	// Assets are every catalog asset, sorted by path.
	Assets []assets.Asset

	// Generated maps output files to their contents.
	Generated map[string][]byte

	Manifest *assets.Manifest
}

// Files returns every output file, sorted.
func (o *Output) Files() []string {
	return o.Manifest.Files()
}

// generated are the files the export emits besides pages and assets,
// keyed by URL path.
var generated = map[string][]byte{
	charts.RuntimePath: charts.Runtime,
}

// Render renders every page in memory without writing anything. It fails
// on the first page that cannot be rendered or that references a missing
// page or asset.
func (b *Builder) Render(ctx context.Context) (*Output, error) {
	opts := b.options

	b.progress("Enumerating routes...")
	list, err := routes.Pages(opts.Routes)
	if err != nil {
		return nil, err
	}
	b.logger.Debug("routes enumerated", zap.Int("pages", len(list)))

	pathnames := make([]string, len(list))
	known := make(map[string]bool, len(list))
	for i, p := range list {
		pathnames[i] = p.Pathname
		known[p.Pathname] = true
	}

	renderer := pages.NewRenderer(pages.Options{
		Routes:    opts.Pages,
		Catalog:   opts.Catalog,
		Pathnames: pathnames,
		Site:      opts.Site,
	})
	rw := &rewriter{
		base:          opts.Base,
		trailingSlash: opts.TrailingSlash,
		isPage:        func(p string) bool { return known[p] },
		isFile: func(p string) bool {
			_, gen := generated[p]
			return gen || p == "/"+assets.ManifestPath || opts.Catalog.Has(p)
		},
	}

	b.progress(fmt.Sprintf("Rendering %d pages...", len(list)))
	rendered := make([]Page, len(list))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for i, p := range list {
		g.Go(func() error {
			page, err := b.renderPage(gctx, renderer, rw, p)
			if err != nil {
				return err
			}
			rendered[i] = page
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, errors.New(errors.CodeBuildAborted).Wrap(ctxErr)
		}
		return nil, err
	}

	out := &Output{
		Base:      opts.Base,
		Mode:      opts.Mode,
		Pages:     rendered,
		Assets:    opts.Catalog.Assets(),
		Generated: make(map[string][]byte, len(generated)),
		Manifest:  assets.NewManifest(opts.Base, opts.Mode),
	}
	for urlPath, data := range generated {
		file := urlPath[1:]
		out.Generated[file] = data
		out.Manifest.AddGenerated(urlPath, file)
	}
	for _, p := range rendered {
		out.Manifest.AddRoute(p.Pathname, p.File)
	}
	for _, a := range out.Assets {
		out.Manifest.AddAsset(a)
	}

	if err := checkComplete(list, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (b *Builder) renderPage(ctx context.Context, renderer *pages.Renderer, rw *rewriter, p routes.Page) (Page, error) {
	ctx, span := telemetry.StartRoute(ctx, b.options.Tracer, p.Route.ID, p.Pathname)
	start := time.Now()

	page, err := func() (Page, error) {
		html, err := renderer.Render(ctx, p)
		if err != nil {
			return Page{}, err
		}
		html, refs, err := rw.rewrite(p.Pathname, html)
		if err != nil {
			return Page{}, errors.ForRoute(p.Pathname, err)
		}
		return Page{
			Pathname:   p.Pathname,
			Route:      p.Route.ID,
			File:       routes.OutputFile(p.Pathname, b.options.TrailingSlash),
			HTML:       html,
			References: refs,
		}, nil
	}()

	b.options.Metrics.RecordRender(time.Since(start), err)
	telemetry.End(span, err)
	if err != nil {
		if !stderrors.Is(err, context.Canceled) {
			b.logger.Debug("page failed", zap.String("pathname", p.Pathname), zap.Error(err))
		}
		return Page{}, err
	}
	b.logger.Debug("page rendered",
		zap.String("pathname", p.Pathname),
		zap.String("file", page.File),
		zap.Int("bytes", len(page.HTML)),
		zap.Duration("duration", time.Since(start)))
	return page, nil
}

// checkComplete verifies that every enumerated pathname produced exactly
// one page and that no two outputs share a file.
func checkComplete(list []routes.Page, out *Output) error {
	if len(out.Pages) != len(list) {
		return errors.New(errors.CodeIncompleteBuild).
			WithDetail(fmt.Sprintf("%d pathnames enumerated, %d pages rendered", len(list), len(out.Pages)))
	}

	owners := make(map[string]string)
	claim := func(file, owner string) error {
		if prev, dup := owners[file]; dup {
			return errors.New(errors.CodeOutputWrite).
				WithDetail(fmt.Sprintf("%s and %s both write %s", prev, owner, file)).
				WithSuggestion("Rename the page or the static file")
		}
		owners[file] = owner
		return nil
	}

	for i, p := range out.Pages {
		if p.Pathname != list[i].Pathname {
			return errors.New(errors.CodeIncompleteBuild).WithRoute(list[i].Pathname)
		}
		if err := claim(p.File, "page "+p.Pathname); err != nil {
			return err
		}
	}
	for _, a := range out.Assets {
		if err := claim(a.File(), "asset "+a.Path); err != nil {
			return err
		}
	}
	for _, f := range append(sortedFiles(out.Generated), assets.ManifestPath) {
		if err := claim(f, "generated "+path.Base(f)); err != nil {
			return err
		}
	}
	return nil
}

// progress reports build progress to OnProgress, or to the log when no
// callback is set.
func (b *Builder) progress(step string) {
	if b.options.OnProgress != nil {
		b.options.OnProgress(step)
		b.logger.Debug(step)
		return
	}
	b.logger.Info(step)
}
