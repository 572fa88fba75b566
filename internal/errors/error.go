package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Category represents the type of error.
type Category string

const (
	CategoryConfig Category = "config"
	CategoryRoute  Category = "route"
	CategoryAsset  Category = "asset"
	CategoryBuild  Category = "build"
	CategoryDeploy Category = "deploy"
	CategoryCLI    Category = "cli"
)

// Location represents a source code location.
type Location struct {
	File   string
	Line   int
	Column int
}

// String returns the location as a formatted string.
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	if l.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// SiteError is a structured build error with the offending route or asset,
// an optional source location, and a fix suggestion.
type SiteError struct {
	// Code is a unique error identifier (e.g., "E220").
	Code string

	// Category is the error type (config, route, asset, ...).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Route is the pathname or route pattern that failed, if any.
	Route string

	// Asset is the asset path that could not be resolved, if any.
	Asset string

	// Location is the page source location where the error occurred.
	Location *Location

	// Context contains surrounding source lines.
	Context []string

	// ContextStart is the line number of Context[0]. Zero centers the
	// context on Location.Line.
	ContextStart int

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// DocURL is a link to documentation about this error.
	DocURL string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *SiteError) Error() string {
	var b strings.Builder
	if e.Code != "" {
		b.WriteString(e.Code)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if s := e.subject(); s != "" {
		b.WriteString(" (" + s + ")")
	}
	if e.Wrapped != nil {
		b.WriteString(": ")
		b.WriteString(e.Wrapped.Error())
	}
	return b.String()
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *SiteError) Unwrap() error {
	return e.Wrapped
}

// WithRoute records the route the error belongs to.
func (e *SiteError) WithRoute(route string) *SiteError {
	e.Route = route
	return e
}

// WithAsset records the asset path the error belongs to.
func (e *SiteError) WithAsset(path string) *SiteError {
	e.Asset = path
	return e
}

// WithSource adds a source location using already-loaded file contents.
// Page sources usually come from an fs.FS, so there is no file to reopen.
func (e *SiteError) WithSource(file string, src []byte, line, column int) *SiteError {
	e.Location = &Location{File: file, Line: line, Column: column}
	e.Context, e.ContextStart = contextLines(strings.Split(string(src), "\n"), line, 5)
	return e
}

// WithLocationFromError extracts a location from a template error
// ("template: index.html:12:7: ...") and attaches context from src.
func (e *SiteError) WithLocationFromError(err error, src []byte) *SiteError {
	if err == nil {
		return e
	}
	msg := strings.TrimPrefix(err.Error(), "template: ")
	parts := strings.SplitN(msg, ":", 4)
	if len(parts) >= 3 {
		var line, col int
		fmt.Sscanf(parts[1], "%d", &line)
		fmt.Sscanf(parts[2], "%d", &col)
		if line > 0 {
			e.WithSource(parts[0], src, line, col)
		}
	}
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *SiteError) WithSuggestion(s string) *SiteError {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *SiteError) WithDetail(d string) *SiteError {
	e.Detail = d
	return e
}

// WithContext adds custom context lines to the error.
func (e *SiteError) WithContext(lines []string) *SiteError {
	e.Context = lines
	return e
}

// Wrap wraps another error.
func (e *SiteError) Wrap(err error) *SiteError {
	e.Wrapped = err
	return e
}

// contextLines returns up to contextSize lines of all centered on
// targetLine, and the 1-based number of the first one.
func contextLines(all []string, targetLine, contextSize int) ([]string, int) {
	start := max(targetLine-contextSize/2, 1)
	end := min(targetLine+contextSize/2, len(all))
	if start > end {
		return nil, 0
	}
	return append([]string(nil), all[start-1:end]...), start
}

// New creates a SiteError from a registered error code.
func New(code string) *SiteError {
	template, ok := registry[code]
	if !ok {
		return &SiteError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &SiteError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
		DocURL:   template.DocURL,
	}
}

// Newf creates a new SiteError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *SiteError {
	return &SiteError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a SiteError.
func FromError(err error, code string) *SiteError {
	if err == nil {
		return nil
	}
	var se *SiteError
	if stderrors.As(err, &se) {
		return se
	}
	return New(code).Wrap(err)
}

// AssetNotFound reports a reference to a path outside the asset catalog.
func AssetNotFound(path string) *SiteError {
	return New(CodeAssetNotFound).WithAsset(path)
}

// RouteRender reports a route whose page could not be rendered.
func RouteRender(route string, err error) *SiteError {
	return New(CodeRouteRender).WithRoute(route).Wrap(err)
}

// Configuration reports an invalid or missing configuration value.
func Configuration(detail string) *SiteError {
	return New(CodeInvalidBasePath).WithDetail(detail)
}

// As returns the first SiteError in err's chain.
func As(err error) (*SiteError, bool) {
	var se *SiteError
	if stderrors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// IsAssetNotFound reports whether err is an AssetNotFound error.
func IsAssetNotFound(err error) bool {
	se, ok := As(err)
	return ok && se.Category == CategoryAsset && se.Code == CodeAssetNotFound
}

// IsRouteRender reports whether err is a route rendering error.
func IsRouteRender(err error) bool {
	se, ok := As(err)
	return ok && se.Category == CategoryRoute
}

// IsConfiguration reports whether err is a configuration error.
func IsConfiguration(err error) bool {
	se, ok := As(err)
	return ok && se.Category == CategoryConfig
}

// ForRoute attaches route to err. A SiteError keeps its own code so that an
// AssetNotFound raised while rendering stays an AssetNotFound; any other
// error becomes a RouteRender error.
func ForRoute(route string, err error) error {
	if err == nil {
		return nil
	}
	if se, ok := As(err); ok {
		if se.Route == "" {
			se.Route = route
		}
		return se
	}
	return RouteRender(route, err)
}
