package routes

import (
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"strings"

	"github.com/vango-dev/vizsite/internal/errors"
	"github.com/vango-dev/vizsite/internal/frontmatter"
)

// Table is a source of routes.
type Table interface {
	// EnumerateRoutes returns every route, validated and sorted by pattern.
	EnumerateRoutes() ([]Route, error)
}

// StaticTable is a fixed route set.
type StaticTable []Route

// EnumerateRoutes validates and returns the routes. A route given only
// its ID gets its pattern and parameters derived from it.
func (t StaticTable) EnumerateRoutes() ([]Route, error) {
	routes := make([]Route, len(t))
	for i, r := range t {
		if r.Pattern == "" {
			r.Pattern = convertParams(r.ID)
		}
		if r.Params == nil {
			r.Params = extractParams(r.ID)
		}
		routes[i] = r
	}
	return Validate(routes)
}

// PageExtensions are the file extensions that define routes.
var PageExtensions = []string{".html", ".md"}

// IsPageFile reports whether name is a page source (not a layout, partial
// or hidden file).
func IsPageFile(name string) bool {
	base := path.Base(name)
	if strings.HasPrefix(base, "_") || strings.HasPrefix(base, ".") {
		return false
	}
	ext := path.Ext(base)
	for _, e := range PageExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Scanner discovers routes in a routes directory.
type Scanner struct {
	fsys fs.FS
}

// NewScanner creates a scanner over the routes directory fsys.
func NewScanner(fsys fs.FS) *Scanner {
	return &Scanner{fsys: fsys}
}

// EnumerateRoutes walks the routes directory and reads each page's front
// matter for its prerender options.
func (s *Scanner) EnumerateRoutes() ([]Route, error) {
	var routes []Route

	err := fs.WalkDir(s.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != "." && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if !IsPageFile(p) {
			return nil
		}

		route, err := s.scanFile(p)
		if err != nil {
			return err
		}
		routes = append(routes, route)
		return nil
	})
	if err != nil {
		if _, ok := errors.As(err); ok {
			return nil, err
		}
		return nil, errors.New(errors.CodeRouteScan).Wrap(err)
	}

	return Validate(routes)
}

func (s *Scanner) scanFile(p string) (Route, error) {
	src, err := fs.ReadFile(s.fsys, p)
	if err != nil {
		return Route{}, err
	}
	page, err := frontmatter.Parse(src)
	if err != nil {
		return Route{}, errors.New(errors.CodeRouteScan).
			WithDetail("Page " + p + " has invalid front matter.").
			Wrap(err)
	}

	params := extractParams(p)
	for _, def := range params {
		switch def.Type {
		case ParamString, ParamInt, ParamSlug, ParamRest:
		default:
			return Route{}, errors.New(errors.CodeRouteScan).
				WithDetail(fmt.Sprintf("Page %s declares parameter %q with unknown type %q.", p, def.Name, def.Type)).
				WithSuggestion("Use one of: string, int, slug")
		}
	}

	id := FilePathToID(p)
	return Route{
		ID:          id,
		Pattern:     convertParams(id),
		Params:      params,
		Source:      p,
		Entries:     page.Meta.StringEntries(),
		NoPrerender: !page.Meta.Prerenderable(),
	}, nil
}

// FilePathToID converts a page file path to its route ID.
//
//	index.html         → /
//	movies.html        → /movies
//	blog/index.md      → /blog
//	blog/[slug].html   → /blog/[slug]
func FilePathToID(relPath string) string {
	p := strings.TrimSuffix(relPath, path.Ext(relPath))
	p = strings.ReplaceAll(p, "\\", "/")

	if p == "index" {
		p = ""
	}
	p = strings.TrimSuffix(p, "/index")

	return "/" + p
}

var paramRe = regexp.MustCompile(`\[(\.\.\.)?(\w+)(?::(\w+))?\]`)

// convertParams converts bracket notation to router notation:
// [id] → :id, [id:int] → :id, [...path] → *path.
func convertParams(id string) string {
	return paramRe.ReplaceAllStringFunc(id, func(match string) string {
		m := paramRe.FindStringSubmatch(match)
		if m[1] != "" {
			return "*" + m[2]
		}
		return ":" + m[2]
	})
}

// extractParams returns the parameter definitions of a page file path.
// Untyped parameters named "slug" are slugs; the rest are strings unless
// annotated ([id:int]).
func extractParams(relPath string) []ParamDef {
	var params []ParamDef
	for _, m := range paramRe.FindAllStringSubmatch(relPath, -1) {
		def := ParamDef{Segment: m[0], Name: m[2]}
		switch {
		case m[1] != "":
			def.Type = ParamRest
		case m[3] != "":
			def.Type = ParamType(m[3])
		case m[2] == "slug":
			def.Type = ParamSlug
		default:
			def.Type = ParamString
		}
		params = append(params, def)
	}
	return params
}
