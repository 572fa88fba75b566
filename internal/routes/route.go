package routes

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/vango-dev/vizsite/internal/errors"
	"github.com/vango-dev/vizsite/pkg/routepath"
)

// ParamType constrains the values a route parameter accepts.
type ParamType string

const (
	// ParamString accepts any single non-empty path segment.
	ParamString ParamType = "string"

	// ParamInt accepts decimal integers.
	ParamInt ParamType = "int"

	// ParamSlug accepts lowercase words joined by hyphens.
	ParamSlug ParamType = "slug"

	// ParamRest accepts one or more path segments ([...name]).
	ParamRest ParamType = "rest"
)

// ParamDef describes a parameter of a dynamic route.
type ParamDef struct {
	// Name is the parameter name ("slug").
	Name string

	// Type is the value constraint.
	Type ParamType

	// Segment is the original file-name segment ("[slug]", "[id:int]").
	Segment string
}

// Route is a page route and everything needed to enumerate its pathnames.
type Route struct {
	// ID is the route in file-system notation ("/blog/[slug]").
	ID string

	// Pattern is the route in router notation ("/blog/:slug").
	Pattern string

	// Params lists the dynamic parameters in path order.
	Params []ParamDef

	// Source is the page file relative to the routes directory.
	Source string

	// Entries are the parameter sets to export for a dynamic route.
	Entries []map[string]string

	// NoPrerender is set when the page opted out of static export.
	NoPrerender bool
}

// IsDynamic reports whether the route has parameters.
func (r Route) IsDynamic() bool {
	return len(r.Params) > 0
}

// Page is a concrete pathname produced by expanding a route.
type Page struct {
	Route    Route
	Pathname string
	Params   map[string]string
}

var slugRe = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Pathname substitutes params into the route ID. Every parameter must be
// present and valid for its type.
func (r Route) Pathname(params map[string]string) (string, error) {
	p := r.ID
	for _, def := range r.Params {
		value, ok := params[def.Name]
		if !ok {
			return "", r.entryError(fmt.Sprintf("missing value for parameter %q", def.Name))
		}
		if err := checkValue(def, value); err != nil {
			return "", r.entryError(err.Error())
		}
		p = strings.Replace(p, def.Segment, value, 1)
	}

	clean, err := routepath.CanonicalizePath(p)
	if err != nil {
		return "", r.entryError(err.Error())
	}
	return clean, nil
}

// Expand returns the pages to export for the route. A static route yields
// one page. A dynamic route yields one page per entry, and fails when it
// has none.
func (r Route) Expand() ([]Page, error) {
	if r.NoPrerender {
		return nil, errors.New(errors.CodeNotPrerenderable).
			WithRoute(r.ID).
			WithDetail(fmt.Sprintf("Page %s sets \"prerender: false\".", r.Source)).
			WithSuggestion("Remove \"prerender: false\" from the front matter; a static export cannot serve pages on demand")
	}

	if !r.IsDynamic() {
		if len(r.Entries) > 0 {
			return nil, r.entryError("static routes do not take entries")
		}
		return []Page{{Route: r, Pathname: r.ID, Params: map[string]string{}}}, nil
	}

	if len(r.Entries) == 0 {
		return nil, errors.New(errors.CodeNotPrerenderable).
			WithRoute(r.ID).
			WithDetail(fmt.Sprintf("Route %s has parameters but lists no entries to export.", r.ID)).
			WithSuggestion("List every parameter set under \"entries:\" in the page front matter")
	}

	pages := make([]Page, 0, len(r.Entries))
	for _, entry := range r.Entries {
		for name := range entry {
			if !r.hasParam(name) {
				return nil, r.entryError(fmt.Sprintf("unknown parameter %q", name))
			}
		}
		p, err := r.Pathname(entry)
		if err != nil {
			return nil, err
		}
		pages = append(pages, Page{Route: r, Pathname: p, Params: entry})
	}
	return pages, nil
}

func (r Route) hasParam(name string) bool {
	for _, def := range r.Params {
		if def.Name == name {
			return true
		}
	}
	return false
}

func (r Route) entryError(detail string) *errors.SiteError {
	return errors.New(errors.CodeInvalidEntry).WithRoute(r.ID).WithDetail(detail)
}

func checkValue(def ParamDef, value string) error {
	if value == "" {
		return fmt.Errorf("parameter %q is empty", def.Name)
	}
	if strings.ContainsAny(value, "?#\\ \t\n") {
		return fmt.Errorf("parameter %q value %q contains characters not allowed in a path", def.Name, value)
	}

	switch def.Type {
	case ParamInt:
		if _, err := strconv.Atoi(value); err != nil {
			return fmt.Errorf("parameter %q value %q is not an int", def.Name, value)
		}
	case ParamSlug:
		if !slugRe.MatchString(value) {
			return fmt.Errorf("parameter %q value %q is not a slug", def.Name, value)
		}
	case ParamRest:
		for _, seg := range strings.Split(value, "/") {
			if seg == "" || seg == "." || seg == ".." {
				return fmt.Errorf("parameter %q value %q has an empty or relative segment", def.Name, value)
			}
		}
	default:
		if strings.Contains(value, "/") || value == "." || value == ".." {
			return fmt.Errorf("parameter %q value %q must be a single path segment", def.Name, value)
		}
	}
	return nil
}

// Validate checks a route set for duplicate patterns and returns it sorted
// by pattern.
func Validate(routes []Route) ([]Route, error) {
	sorted := append([]Route(nil), routes...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Pattern < sorted[j].Pattern
	})

	for i := 1; i < len(sorted); i++ {
		if sorted[i].Pattern == sorted[i-1].Pattern {
			return nil, errors.New(errors.CodeDuplicateRoute).
				WithRoute(sorted[i].Pattern).
				WithDetail(fmt.Sprintf("%s and %s both resolve to %s.",
					sorted[i-1].Source, sorted[i].Source, sorted[i].Pattern)).
				WithSuggestion("Remove or rename one of the page files")
		}
	}
	return sorted, nil
}

// Pages enumerates t and expands every route. The result is sorted by
// pathname; two routes producing the same pathname is an error.
func Pages(t Table) ([]Page, error) {
	routes, err := t.EnumerateRoutes()
	if err != nil {
		return nil, err
	}

	var pages []Page
	seen := make(map[string]string)
	for _, r := range routes {
		expanded, err := r.Expand()
		if err != nil {
			return nil, err
		}
		for _, p := range expanded {
			if other, dup := seen[p.Pathname]; dup {
				return nil, errors.New(errors.CodeDuplicateRoute).
					WithRoute(p.Pathname).
					WithDetail(fmt.Sprintf("Routes %s and %s both export %s.", other, r.ID, p.Pathname))
			}
			seen[p.Pathname] = r.ID
			pages = append(pages, p)
		}
	}

	sort.Slice(pages, func(i, j int) bool {
		return pages[i].Pathname < pages[j].Pathname
	})
	return pages, nil
}

// Trailing slash policies.
const (
	TrailingSlashNever  = "never"
	TrailingSlashAlways = "always"
)

// OutputFile returns the slash-separated file an exported pathname is
// written to: "/" is "index.html", "/movies" is "movies.html", or
// "movies/index.html" when trailing slashes are always used.
func OutputFile(pathname, trailingSlash string) string {
	p := strings.Trim(pathname, "/")
	if p == "" {
		return "index.html"
	}
	if trailingSlash == TrailingSlashAlways {
		return p + "/index.html"
	}
	return p + ".html"
}

// Href returns the link form of pathname under the trailing slash policy.
func Href(pathname, trailingSlash string) string {
	if trailingSlash == TrailingSlashAlways && pathname != "/" && !strings.HasSuffix(pathname, "/") {
		return pathname + "/"
	}
	return pathname
}
