package pages

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"strings"

	"github.com/yuin/goldmark"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/vango-dev/vizsite/internal/charts"
	"github.com/vango-dev/vizsite/internal/dataset"
	"github.com/vango-dev/vizsite/internal/errors"
	"github.com/vango-dev/vizsite/internal/frontmatter"
	"github.com/vango-dev/vizsite/internal/routes"
	"github.com/vango-dev/vizsite/pkg/assets"
	"github.com/vango-dev/vizsite/pkg/routepath"
)

// LayoutFile is the name of layout templates in the routes directory.
const LayoutFile = "_layout.html"

//go:embed shell.html
var shellSource string

var shell = template.Must(template.New("shell").Parse(shellSource))

// Options configures a Renderer.
type Options struct {
	// Routes is the routes directory holding pages and layouts.
	Routes fs.FS

	// Catalog is the closed set of assets pages may reference.
	Catalog *assets.Catalog

	// Datasets loads CSV assets. Created from Catalog when nil.
	Datasets *dataset.Loader

	// Pathnames are the pathnames being exported; link targets must be
	// among them.
	Pathnames []string

	// Site is the default document title.
	Site string
}

// Renderer renders pages. It is safe for concurrent use.
type Renderer struct {
	opts      Options
	known     map[string]bool
	document  goldmark.Markdown
	sanitized goldmark.Markdown
}

// NewRenderer creates a Renderer.
func NewRenderer(opts Options) *Renderer {
	if opts.Datasets == nil {
		opts.Datasets = dataset.NewLoader(opts.Catalog)
	}
	known := make(map[string]bool, len(opts.Pathnames))
	for _, p := range opts.Pathnames {
		known[p] = true
	}
	return &Renderer{
		opts:  opts,
		known: known,
		// Page bodies carry chart markup, so raw HTML must pass through.
		document:  goldmark.New(goldmark.WithRendererOptions(gmhtml.WithUnsafe())),
		sanitized: goldmark.New(),
	}
}

// Data is the value pages and layouts execute with.
type Data struct {
	Site        string
	Title       string
	Description string

	// Pathname is the page's root-relative pathname ("/movies").
	Pathname string

	// Route is the route ID ("/blog/[slug]").
	Route string

	Params map[string]string

	// Content is the wrapped page, set when a layout executes.
	Content template.HTML
}

type shellData struct {
	Title       string
	Description string
	Stylesheets []string
	Scripts     []string
	Content     template.HTML
}

// Render renders page to a complete HTML document. Failures carry the
// page's pathname; an unresolvable asset stays an AssetNotFound error.
func (r *Renderer) Render(ctx context.Context, page routes.Page) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out, err := r.render(page)
	if err != nil {
		return nil, errors.ForRoute(page.Pathname, err)
	}
	return out, nil
}

func (r *Renderer) render(page routes.Page) ([]byte, error) {
	source := page.Route.Source
	src, err := fs.ReadFile(r.opts.Routes, source)
	if err != nil {
		return nil, err
	}
	parsed, err := frontmatter.Parse(src)
	if err != nil {
		return nil, err
	}

	meta := parsed.Meta
	data := Data{
		Site:        r.opts.Site,
		Title:       meta.Title,
		Description: meta.Description,
		Pathname:    page.Pathname,
		Route:       page.Route.ID,
		Params:      page.Params,
	}
	if data.Title == "" {
		data.Title = r.opts.Site
	}

	st := &state{r: r}
	body, err := st.execute(source, parsed.Body, parsed.BodyLine, data)
	if err != nil {
		return nil, err
	}

	if path.Ext(source) == ".md" {
		var buf bytes.Buffer
		if err := r.document.Convert(body, &buf); err != nil {
			return nil, fmt.Errorf("markdown %s: %w", source, err)
		}
		body = buf.Bytes()
	}

	for _, layout := range r.layouts(source) {
		layoutSrc, err := fs.ReadFile(r.opts.Routes, layout)
		if err != nil {
			return nil, err
		}
		data.Content = template.HTML(body)
		body, err = st.execute(layout, layoutSrc, 1, data)
		if err != nil {
			return nil, err
		}
	}

	stylesheets := make([]string, 0, len(meta.Stylesheets))
	for _, ref := range meta.Stylesheets {
		p, err := st.asset(ref)
		if err != nil {
			return nil, err
		}
		stylesheets = append(stylesheets, p)
	}

	var scripts []string
	if st.charts > 0 {
		scripts = append(append(scripts, charts.LibraryScripts...), charts.RuntimePath)
	}

	var buf bytes.Buffer
	err = shell.Execute(&buf, shellData{
		Title:       data.Title,
		Description: data.Description,
		Stylesheets: stylesheets,
		Scripts:     scripts,
		Content:     template.HTML(body),
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// layouts returns the layout files wrapping source, nearest first.
func (r *Renderer) layouts(source string) []string {
	var found []string
	dir := path.Dir(source)
	for {
		candidate := path.Join(dir, LayoutFile)
		if _, err := fs.Stat(r.opts.Routes, candidate); err == nil {
			found = append(found, candidate)
		}
		if dir == "." {
			return found
		}
		dir = path.Dir(dir)
	}
}

// state holds per-render template state.
type state struct {
	r      *Renderer
	charts int
}

func (st *state) funcs() template.FuncMap {
	return template.FuncMap{
		"asset":    st.asset,
		"link":     st.link,
		"chart":    st.chart,
		"dataset":  st.dataset,
		"markdown": st.markdown,
	}
}

func (st *state) execute(name string, src []byte, firstLine int, data Data) ([]byte, error) {
	tmpl, err := template.New(name).Funcs(st.funcs()).Parse(string(src))
	if err != nil {
		return nil, locate(errors.New(errors.CodeRouteRender).Wrap(err), err, name, src, firstLine)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		if se, ok := errors.As(err); ok {
			return nil, locate(se, err, name, src, firstLine)
		}
		return nil, locate(errors.New(errors.CodeRouteRender).Wrap(err), err, name, src, firstLine)
	}
	return buf.Bytes(), nil
}

// locate attaches the page source position of a template error.
func locate(se *errors.SiteError, err error, name string, src []byte, firstLine int) *errors.SiteError {
	if se.Location != nil {
		return se
	}
	se.WithLocationFromError(err, src)
	if se.Location != nil {
		se.Location.File = name
		se.Location.Line += firstLine - 1
		if se.ContextStart > 0 {
			se.ContextStart += firstLine - 1
		}
	}
	return se
}

func (st *state) asset(ref string) (string, error) {
	a, err := st.r.opts.Catalog.Resolve(ref)
	if err != nil {
		return "", err
	}
	return a.Path, nil
}

func (st *state) link(ref string) (string, error) {
	parts := routepath.Split(ref)
	p, err := routepath.CanonicalizePath(parts.Path)
	if err != nil || !st.r.known[p] {
		return "", errors.New(errors.CodeUnknownRoute).
			WithDetail(fmt.Sprintf("Link target %q is not an exported page.", ref))
	}
	return p + parts.Suffix(), nil
}

func (st *state) chart(kind, ref string, args ...string) (template.HTML, error) {
	d, err := st.dataset(ref)
	if err != nil {
		return "", err
	}
	c, err := charts.New(kind, d.Path, d, args...)
	if err != nil {
		return "", err
	}
	st.charts++
	return charts.Render(c, fmt.Sprintf("chart-%d", st.charts))
}

func (st *state) dataset(ref string) (*dataset.Dataset, error) {
	return st.r.opts.Datasets.Load(ref)
}

func (st *state) markdown(s string) template.HTML {
	var buf bytes.Buffer
	if err := st.r.sanitized.Convert([]byte(strings.TrimSpace(s)), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(s))
	}
	return template.HTML(buf.String())
}
