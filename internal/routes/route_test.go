package routes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/vizsite/internal/errors"
)

func blogRoute(entries ...map[string]string) Route {
	return Route{
		ID:      "/blog/[slug]",
		Pattern: "/blog/:slug",
		Params:  []ParamDef{{Name: "slug", Type: ParamSlug, Segment: "[slug]"}},
		Source:  "blog/[slug].html",
		Entries: entries,
	}
}

func codeOf(t *testing.T, err error) string {
	t.Helper()
	se, ok := errors.As(err)
	require.True(t, ok, "expected SiteError, got %v", err)
	return se.Code
}

func TestExpand_Static(t *testing.T) {
	r := Route{ID: "/", Pattern: "/", Source: "index.html"}

	pages, err := r.Expand()
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "/", pages[0].Pathname)
}

func TestExpand_Dynamic(t *testing.T) {
	r := blogRoute(map[string]string{"slug": "co2"}, map[string]string{"slug": "summer-movies"})

	pages, err := r.Expand()
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, "/blog/co2", pages[0].Pathname)
	assert.Equal(t, "/blog/summer-movies", pages[1].Pathname)
	assert.Equal(t, map[string]string{"slug": "co2"}, pages[0].Params)
}

func TestExpand_Errors(t *testing.T) {
	tests := []struct {
		name  string
		route Route
		code  string
	}{
		{"no entries", blogRoute(), errors.CodeNotPrerenderable},
		{"opted out", Route{ID: "/", Source: "index.html", NoPrerender: true}, errors.CodeNotPrerenderable},
		{"bad slug", blogRoute(map[string]string{"slug": "Not A Slug"}), errors.CodeInvalidEntry},
		{"missing param", blogRoute(map[string]string{"id": "1"}), errors.CodeInvalidEntry},
		{"static with entries", Route{ID: "/", Entries: []map[string]string{{"x": "1"}}}, errors.CodeInvalidEntry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.route.Expand()
			require.Error(t, err)
			assert.Equal(t, tt.code, codeOf(t, err))
			assert.True(t, errors.IsRouteRender(err))
		})
	}
}

func TestPathname_Types(t *testing.T) {
	r := Route{
		ID: "/items/[id:int]/[...rest]",
		Params: []ParamDef{
			{Name: "id", Type: ParamInt, Segment: "[id:int]"},
			{Name: "rest", Type: ParamRest, Segment: "[...rest]"},
		},
	}

	p, err := r.Pathname(map[string]string{"id": "42", "rest": "a/b"})
	require.NoError(t, err)
	assert.Equal(t, "/items/42/a/b", p)

	_, err = r.Pathname(map[string]string{"id": "x", "rest": "a"})
	assert.Equal(t, errors.CodeInvalidEntry, codeOf(t, err))

	_, err = r.Pathname(map[string]string{"id": "1", "rest": "../up"})
	assert.Equal(t, errors.CodeInvalidEntry, codeOf(t, err))

	s := Route{ID: "/[name]", Params: []ParamDef{{Name: "name", Type: ParamString, Segment: "[name]"}}}
	_, err = s.Pathname(map[string]string{"name": "a/b"})
	assert.Equal(t, errors.CodeInvalidEntry, codeOf(t, err))
}

func TestPages(t *testing.T) {
	table := StaticTable{
		{ID: "/movies", Pattern: "/movies", Source: "movies.html"},
		{ID: "/", Pattern: "/", Source: "index.html"},
		blogRoute(map[string]string{"slug": "co2"}),
	}

	pages, err := Pages(table)
	require.NoError(t, err)

	var got []string
	for _, p := range pages {
		got = append(got, p.Pathname)
	}
	assert.Equal(t, []string{"/", "/blog/co2", "/movies"}, got)
}

func TestPages_DuplicatePathname(t *testing.T) {
	table := StaticTable{
		{ID: "/blog/co2", Pattern: "/blog/co2", Source: "blog/co2.html"},
		blogRoute(map[string]string{"slug": "co2"}),
	}

	_, err := Pages(table)
	assert.Equal(t, errors.CodeDuplicateRoute, codeOf(t, err))
}

func TestStaticTable_IDOnly(t *testing.T) {
	table := StaticTable{
		{ID: "/", Source: "index.html"},
		{ID: "/movies", Source: "movies.html"},
		{ID: "/blog/[slug]", Source: "blog/[slug].html", Entries: []map[string]string{{"slug": "co2"}}},
	}

	routes, err := table.EnumerateRoutes()
	require.NoError(t, err)
	require.Len(t, routes, 3)
	assert.Equal(t, "/", routes[0].Pattern)
	assert.Equal(t, "/blog/:slug", routes[1].Pattern)
	assert.Equal(t, []ParamDef{{Name: "slug", Type: ParamSlug, Segment: "[slug]"}}, routes[1].Params)
	assert.Equal(t, "/movies", routes[2].Pattern)

	pages, err := Pages(table)
	require.NoError(t, err)
	var got []string
	for _, p := range pages {
		got = append(got, p.Pathname)
	}
	assert.Equal(t, []string{"/", "/blog/co2", "/movies"}, got)
}

func TestStaticTable_Duplicate(t *testing.T) {
	table := StaticTable{
		{ID: "/", Pattern: "/", Source: "index.html"},
		{ID: "/", Pattern: "/", Source: "index.md"},
	}

	_, err := table.EnumerateRoutes()
	assert.Equal(t, errors.CodeDuplicateRoute, codeOf(t, err))
}

func TestOutputFile(t *testing.T) {
	tests := []struct {
		pathname, policy, want string
	}{
		{"/", TrailingSlashNever, "index.html"},
		{"/", TrailingSlashAlways, "index.html"},
		{"/movies", TrailingSlashNever, "movies.html"},
		{"/movies", TrailingSlashAlways, "movies/index.html"},
		{"/blog/co2", TrailingSlashNever, "blog/co2.html"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, OutputFile(tt.pathname, tt.policy), "%s %s", tt.pathname, tt.policy)
	}
}

func TestHref(t *testing.T) {
	assert.Equal(t, "/movies", Href("/movies", TrailingSlashNever))
	assert.Equal(t, "/movies/", Href("/movies", TrailingSlashAlways))
	assert.Equal(t, "/", Href("/", TrailingSlashAlways))
}
