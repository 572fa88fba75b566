package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{"config error", CodeInvalidBasePath, "Invalid base path configuration", CategoryConfig},
		{"route error", CodeRouteRender, "Route failed to render", CategoryRoute},
		{"asset error", CodeAssetNotFound, "Asset not found", CategoryAsset},
		{"unknown error code", "E999", "Unknown error", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			assert.Equal(t, tt.wantMsg, err.Message)
			assert.Equal(t, tt.wantCat, err.Category)
			assert.Equal(t, tt.code, err.Code)
		})
	}
}

func TestNewf(t *testing.T) {
	err := Newf(CategoryCLI, "flag %q is required", "bucket")
	assert.Equal(t, `flag "bucket" is required`, err.Message)
	assert.Equal(t, CategoryCLI, err.Category)
}

func TestSiteError_Error(t *testing.T) {
	assert.Equal(t, "E220: Asset not found (asset /missing.csv)", AssetNotFound("/missing.csv").Error())
	assert.Equal(t, "E220: Asset not found (route /, asset /missing.csv)",
		AssetNotFound("/missing.csv").WithRoute("/").Error())

	wrapped := RouteRender("/movies", fmt.Errorf("boom"))
	assert.Equal(t, "E210: Route failed to render (route /movies): boom", wrapped.Error())

	plain := &SiteError{Message: "test error"}
	assert.Equal(t, "test error", plain.Error())
}

func TestSiteError_WithSource(t *testing.T) {
	src := []byte("---\ntitle: Home\n---\n<h1>{{ .Title }}</h1>\n{{ chart \"bar\" }}\n<p>end</p>\n")

	err := New(CodeRouteRender).WithSource("index.html", src, 5, 4)

	require.NotNil(t, err.Location)
	assert.Equal(t, "index.html", err.Location.File)
	assert.Equal(t, 5, err.Location.Line)
	assert.Equal(t, 4, err.Location.Column)
	assert.Equal(t, 3, err.ContextStart)
	assert.Equal(t, []string{"---", "<h1>{{ .Title }}</h1>", `{{ chart "bar" }}`, "<p>end</p>", ""}, err.Context)

	top := New(CodeRouteRender).WithSource("index.html", src, 1, 0)
	assert.Equal(t, 1, top.ContextStart)
	assert.Equal(t, []string{"---", "title: Home", "---"}, top.Context)
}

func TestSiteError_WithLocationFromError(t *testing.T) {
	src := []byte("line one\nline two\nline three\nline four\nline five\n")
	tmplErr := stderrors.New(`template: index.html:3:7: executing "index.html" at <chart>: boom`)

	err := New(CodeRouteRender).WithLocationFromError(tmplErr, src)

	require.NotNil(t, err.Location)
	assert.Equal(t, "index.html", err.Location.File)
	assert.Equal(t, 3, err.Location.Line)
	assert.Equal(t, 7, err.Location.Column)
	assert.Equal(t, []string{"line one", "line two", "line three", "line four", "line five"}, err.Context)

	noLoc := New(CodeRouteRender).WithLocationFromError(stderrors.New("plain failure"), src)
	assert.Nil(t, noLoc.Location)
}

func TestSiteError_Builders(t *testing.T) {
	err := New(CodeAssetNotFound).
		WithDetail("Custom detail").
		WithSuggestion("Add the file").
		WithContext([]string{"a"})

	assert.Equal(t, "Custom detail", err.Detail)
	assert.Equal(t, "Add the file", err.Suggestion)
	assert.Equal(t, []string{"a"}, err.Context)
}

func TestSiteError_Wrap(t *testing.T) {
	inner := New(CodeAssetScan)
	outer := New(CodeOutputWrite).Wrap(inner)

	assert.Same(t, inner, outer.Wrapped)
	assert.True(t, stderrors.Is(outer, inner))
}

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil, CodeOutputWrite))

	se := New(CodeAssetNotFound)
	assert.Same(t, se, FromError(se, CodeOutputWrite))
	assert.Same(t, se, FromError(fmt.Errorf("context: %w", se), CodeOutputWrite))

	stdErr := stderrors.New("disk full")
	result := FromError(stdErr, CodeOutputWrite)
	assert.Equal(t, CodeOutputWrite, result.Code)
	assert.Same(t, stdErr, result.Wrapped)
}

func TestKindPredicates(t *testing.T) {
	assetErr := AssetNotFound("/missing.csv")
	routeErr := RouteRender("/", stderrors.New("boom"))
	configErr := Configuration("base must start with /")

	assert.True(t, IsAssetNotFound(assetErr))
	assert.True(t, IsAssetNotFound(fmt.Errorf("wrapped: %w", assetErr)))
	assert.False(t, IsAssetNotFound(routeErr))

	assert.True(t, IsRouteRender(routeErr))
	assert.True(t, IsRouteRender(New(CodeMissingBinding)))
	assert.False(t, IsRouteRender(assetErr))

	assert.True(t, IsConfiguration(configErr))
	assert.True(t, IsConfiguration(New(CodeUnknownMode)))
	assert.False(t, IsConfiguration(stderrors.New("plain")))
}

func TestForRoute(t *testing.T) {
	assert.NoError(t, ForRoute("/", nil))

	// A coded error keeps its code and gains the route.
	err := ForRoute("/", AssetNotFound("/missing.csv"))
	assert.True(t, IsAssetNotFound(err))
	se, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, "/", se.Route)

	// An existing route is not overwritten.
	err = ForRoute("/b", New(CodeMissingBinding).WithRoute("/a"))
	se, _ = As(err)
	assert.Equal(t, "/a", se.Route)

	// Plain errors become RouteRender errors.
	err = ForRoute("/movies", stderrors.New("boom"))
	assert.True(t, IsRouteRender(err))
	se, _ = As(err)
	assert.Equal(t, CodeRouteRender, se.Code)
}

func TestLocation_String(t *testing.T) {
	tests := []struct {
		name string
		loc  *Location
		want string
	}{
		{"nil location", nil, ""},
		{"with column", &Location{File: "index.html", Line: 10, Column: 5}, "index.html:10:5"},
		{"without column", &Location{File: "index.html", Line: 10}, "index.html:10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.loc.String())
		})
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	src := []byte("<h1>Home</h1>\n<img src=\"/missing.png\">\n")
	err := AssetNotFound("/missing.png").
		WithRoute("/").
		WithSource("index.html", src, 2, 10).
		WithSuggestion("Add missing.png to static/")

	formatted := err.Format()

	for _, want := range []string{
		"error[E220]: Asset not found (route /, asset /missing.png)",
		"--> index.html:2:10",
		"     1 | <h1>Home</h1>",
		">     2 | <img src=\"/missing.png\">",
		"       |          ^",
		"hint: Add missing.png to static/",
		"docs: ",
	} {
		assert.Contains(t, formatted, want)
	}
}

func TestFormat_Cause(t *testing.T) {
	DisableColors()
	defer EnableColors()

	formatted := RouteRender("/", stderrors.New("template exploded")).Format()
	assert.Contains(t, formatted, "error[E210]: Route failed to render (route /)")
	assert.Contains(t, formatted, "cause: template exploded")
}

func TestFormatCompact(t *testing.T) {
	err := New(CodeRouteRender).WithRoute("/")
	err.Location = &Location{File: "index.html", Line: 10, Column: 5}

	assert.Equal(t, "index.html:10:5: E210: Route failed to render (route /)", err.FormatCompact())
}

func TestFormatJSON(t *testing.T) {
	err := AssetNotFound("/missing.csv").WithRoute("/").Wrap(stderrors.New("stat failed"))

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(err.FormatJSON()), &got))

	assert.Equal(t, "E220", got["code"])
	assert.Equal(t, "asset", got["category"])
	assert.Equal(t, "Asset not found", got["message"])
	assert.Equal(t, "/", got["route"])
	assert.Equal(t, "/missing.csv", got["asset"])
	assert.Equal(t, "stat failed", got["cause"])
	assert.NotContains(t, got, "location")
}

func TestFprint(t *testing.T) {
	DisableColors()
	defer EnableColors()

	var buf bytes.Buffer
	Fprint(&buf, fmt.Errorf("build: %w", AssetNotFound("/missing.csv")))
	assert.Contains(t, buf.String(), "error[E220]: Asset not found (asset /missing.csv)")

	buf.Reset()
	Fprint(&buf, stderrors.New("disk full"))
	assert.Equal(t, "\nerror: disk full\n", buf.String())
}

func TestFprintJSON(t *testing.T) {
	var buf bytes.Buffer
	FprintJSON(&buf, RouteRender("/", stderrors.New("boom")))
	FprintJSON(&buf, stderrors.New("disk full"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first, second map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "E210", first["code"])
	assert.Equal(t, "boom", first["cause"])
	assert.Equal(t, map[string]any{"message": "disk full"}, second)
}

func TestRegistry(t *testing.T) {
	codes := GetAllCodes()
	assert.Contains(t, codes, CodeAssetNotFound)

	for _, code := range codes {
		tmpl, ok := GetTemplate(code)
		require.True(t, ok, code)
		assert.NotEmpty(t, tmpl.Message, code)
		assert.NotEmpty(t, tmpl.Category, code)
		assert.True(t, strings.HasSuffix(tmpl.DocURL, code), "doc URL for %s", code)
	}

	_, ok := GetTemplate("E999")
	assert.False(t, ok)
}

func TestWrapText(t *testing.T) {
	assert.Equal(t, []string{"short text"}, wrapText("short text", 100))
	assert.Len(t, wrapText("this is a longer text that should be wrapped", 20), 3)
	assert.Empty(t, wrapText("", 10))
}

func TestColorFunctions(t *testing.T) {
	EnableColors()
	assert.Contains(t, red("test"), "\033[31m")

	DisableColors()
	assert.NotContains(t, red("test"), "\033[")
	EnableColors()
}
