package dev

import (
	"bytes"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/vango-dev/vizsite/internal/logging"
	"github.com/vango-dev/vizsite/pkg/assets"
	"github.com/vango-dev/vizsite/pkg/routepath"
)

// SiteOptions configures a handler for an exported output tree.
type SiteOptions struct {
	// Root is the output directory.
	Root fs.FS

	// Base is the base path the site was built with.
	Base string

	// Inject is inserted before </body> of every HTML page.
	Inject string

	// Reload, when set, is mounted at ReloadPath.
	Reload http.Handler

	// Logger receives one line per request.
	Logger *zap.Logger
}

// NewSiteHandler serves an exported site the way a static host does:
// "/movies" is movies.html or movies/index.html, and nothing outside the
// base path exists. There is no fallback page.
func NewSiteHandler(opts SiteOptions) http.Handler {
	logger := logging.OrNop(opts.Logger)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	if opts.Reload != nil {
		r.Handle(ReloadPath, opts.Reload)
	}

	site := &siteHandler{root: opts.Root, base: opts.Base, inject: opts.Inject}
	r.NotFound(site.ServeHTTP)
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})
	return r
}

type siteHandler struct {
	root   fs.FS
	base   string
	inject string
}

func (h *siteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	rest, ok := routepath.Strip(h.base, r.URL.Path)
	if !ok {
		if r.URL.Path == "/" {
			http.Redirect(w, r, routepath.Resolve(h.base, "/"), http.StatusFound)
			return
		}
		http.NotFound(w, r)
		return
	}

	clean, err := routepath.CanonicalizePath(rest)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	for _, name := range candidates(clean, strings.HasSuffix(rest, "/")) {
		data, info, ok := h.read(name)
		if !ok {
			continue
		}
		h.serve(w, r, name, data, info.ModTime())
		return
	}
	http.NotFound(w, r)
}

// candidates lists the files a request path may be served from, most
// specific first.
func candidates(clean string, trailingSlash bool) []string {
	p := strings.TrimPrefix(clean, "/")
	if p == "" {
		return []string{"index.html"}
	}
	if trailingSlash {
		return []string{p + "/index.html", p + ".html"}
	}
	return []string{p, p + ".html", p + "/index.html"}
}

func (h *siteHandler) read(name string) ([]byte, fs.FileInfo, bool) {
	for _, seg := range strings.Split(name, "/") {
		if strings.HasPrefix(seg, ".") {
			return nil, nil, false
		}
	}
	info, err := fs.Stat(h.root, name)
	if err != nil || info.IsDir() {
		return nil, nil, false
	}
	data, err := fs.ReadFile(h.root, name)
	if err != nil {
		return nil, nil, false
	}
	return data, info, true
}

func (h *siteHandler) serve(w http.ResponseWriter, r *http.Request, name string, data []byte, modTime time.Time) {
	w.Header().Set("Content-Type", assets.ContentType(name))

	if path.Ext(name) == ".html" && h.inject != "" {
		data = injectBeforeBody(data, h.inject)
		w.Header().Set("Cache-Control", "no-store")
	} else if acceptsGzip(r) {
		if gz, info, ok := h.read(name + ".gz"); ok {
			w.Header().Set("Content-Encoding", "gzip")
			w.Header().Add("Vary", "Accept-Encoding")
			http.ServeContent(w, r, name, info.ModTime(), bytes.NewReader(gz))
			return
		}
	}

	http.ServeContent(w, r, name, modTime, bytes.NewReader(data))
}

// injectBeforeBody inserts snippet before the last </body>, or appends it
// when the page has none.
func injectBeforeBody(page []byte, snippet string) []byte {
	idx := bytes.LastIndex(bytes.ToLower(page), []byte("</body>"))
	if idx < 0 {
		return append(append([]byte(nil), page...), snippet...)
	}
	out := make([]byte, 0, len(page)+len(snippet))
	out = append(out, page[:idx]...)
	out = append(out, snippet...)
	return append(out, page[idx:]...)
}

func acceptsGzip(r *http.Request) bool {
	for _, enc := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		enc, _, _ = strings.Cut(strings.TrimSpace(enc), ";")
		if enc == "gzip" {
			return true
		}
	}
	return false
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
