package charts

import (
	"encoding/json"
	"fmt"
	"html"
	"html/template"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/vango-dev/vizsite/internal/dataset"
	"github.com/vango-dev/vizsite/internal/errors"
)

// Vega-Lite schema the specifications are written against.
const Schema = "https://vega.github.io/schema/vega-lite/v5.json"

// Chart is a chart component bound to a dataset.
type Chart struct {
	Kind string

	// Source is the dataset reference as written in the page ("co2.csv").
	Source string

	// Bindings maps binding names to columns, plus any options.
	Bindings map[string]string

	// Spec is the Vega-Lite specification without its data source.
	Spec map[string]any
}

// New validates args against kind and the dataset header and builds the
// chart. args alternate binding name and value. A missing binding or an
// unknown column fails with a missing data binding error.
func New(kind string, source string, data *dataset.Dataset, args ...string) (*Chart, error) {
	k, ok := Lookup(kind)
	if !ok {
		return nil, errors.New(errors.CodeRouteRender).
			WithDetail(fmt.Sprintf("Unknown chart kind %q.", kind)).
			WithSuggestion("Use one of: " + strings.Join(Kinds(), ", "))
	}
	if len(args)%2 != 0 {
		return nil, bindingError(kind, "bindings must be name/value pairs")
	}

	bindings := make(map[string]string, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		bindings[args[i]] = args[i+1]
	}

	b := binder{
		data:    data,
		columns: map[string]string{},
		options: map[string]string{},
	}
	for name, value := range bindings {
		switch {
		case isOption(name):
			b.options[name] = value
		case k.accepts(name):
			if !data.HasColumn(value) {
				return nil, bindingError(kind, fmt.Sprintf("binding %q names column %q, which %s does not have (columns: %s)",
					name, value, data.Path, strings.Join(data.Header, ", ")))
			}
			b.columns[name] = value
		default:
			return nil, bindingError(kind, fmt.Sprintf("unknown binding %q (accepted: %s)",
				name, strings.Join(append(append([]string(nil), k.Required...), k.Optional...), ", ")))
		}
	}
	for _, name := range k.Required {
		if _, ok := b.columns[name]; !ok {
			return nil, bindingError(kind, fmt.Sprintf("missing data binding %q", name))
		}
	}

	return &Chart{
		Kind:     kind,
		Source:   source,
		Bindings: bindings,
		Spec:     k.build(b),
	}, nil
}

func bindingError(kind, detail string) *errors.SiteError {
	return errors.New(errors.CodeMissingBinding).
		WithDetail(fmt.Sprintf("%s chart: %s.", kind, detail))
}

func isOption(name string) bool {
	for _, o := range Options {
		if o == name {
			return true
		}
	}
	return false
}

func (k *Kind) accepts(name string) bool {
	for _, n := range k.Required {
		if n == name {
			return true
		}
	}
	for _, n := range k.Optional {
		if n == name {
			return true
		}
	}
	return false
}

// Render returns the component markup. id must be unique within the page.
// The data-src attribute is a root-relative reference that the export
// rewrites under the base path.
func Render(c *Chart, id string) (template.HTML, error) {
	spec, err := json.Marshal(c.Spec)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<figure class="chart chart-%s" id="%s" data-chart="%s" data-src="%s">`,
		c.Kind, html.EscapeString(id), c.Kind, html.EscapeString(src(c.Source)))
	if title, ok := c.Spec["title"].(string); ok {
		fmt.Fprintf(&sb, `<figcaption>%s</figcaption>`, html.EscapeString(title))
	}
	sb.WriteString(`<script type="application/json">`)
	sb.Write(spec)
	sb.WriteString(`</script></figure>`)

	return template.HTML(sb.String()), nil
}

// src makes a bare dataset name root-relative, as catalog paths are, and
// escapes it for use in a URL attribute.
func src(ref string) string {
	if !strings.HasPrefix(ref, "/") {
		ref = "/" + ref
	}
	return (&url.URL{Path: ref}).EscapedPath()
}

// binder builds Vega-Lite fragments from validated bindings.
type binder struct {
	data    *dataset.Dataset
	columns map[string]string
	options map[string]string
}

func (b binder) base() map[string]any {
	spec := map[string]any{
		"$schema":  Schema,
		"width":    "container",
		"height":   300,
		"autosize": map[string]any{"type": "fit", "contains": "padding"},
	}
	if t := b.options["title"]; t != "" {
		spec["title"] = t
	}
	for _, dim := range []string{"width", "height"} {
		if v, ok := b.options[dim]; ok {
			if n, err := strconv.Atoi(v); err == nil {
				spec[dim] = n
			} else {
				spec[dim] = v
			}
		}
	}
	return spec
}

func (b binder) spec(mark map[string]any, encoding map[string]any) map[string]any {
	s := b.base()
	s["mark"] = mark
	s["encoding"] = encoding
	return s
}

// field returns the encoding channel for a binding. Discrete channels are
// always nominal or ordinal; others use the column's inferred type.
func (b binder) field(binding string, discrete bool) map[string]any {
	col := b.columns[binding]
	typ := b.fieldType(col)
	if discrete && typ == "quantitative" {
		typ = "ordinal"
	}
	return map[string]any{"field": col, "type": typ}
}

func (b binder) optional(enc map[string]any, binding string) {
	if _, ok := b.columns[binding]; !ok {
		return
	}
	discrete := binding == "color"
	enc[binding] = b.field(binding, discrete)
}

var temporalRe = regexp.MustCompile(`^\d{4}-\d{2}(-\d{2})?([T ].*)?$`)

// fieldType infers a Vega-Lite measurement type from the column values.
func (b binder) fieldType(col string) string {
	values, ok := b.data.Values(col)
	if !ok || len(values) == 0 {
		return "nominal"
	}

	numeric, temporal := true, true
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			numeric = false
		}
		if !temporalRe.MatchString(v) {
			temporal = false
		}
	}
	switch {
	case numeric:
		return "quantitative"
	case temporal:
		return "temporal"
	}
	return "nominal"
}

// Describe returns a one-line summary of each registered kind and its
// bindings, sorted by kind.
func Describe() []string {
	var lines []string
	for _, name := range Kinds() {
		k := registry[name]
		opt := append([]string(nil), k.Optional...)
		sort.Strings(opt)
		line := fmt.Sprintf("%s: %s", name, strings.Join(k.Required, ", "))
		if len(opt) > 0 {
			line += " [" + strings.Join(opt, ", ") + "]"
		}
		lines = append(lines, line)
	}
	return lines
}
