// Package frontmatter splits page sources into YAML metadata and body.
//
// A page may start with a block fenced by "---" lines:
//
//	---
//	title: CO2 Emissions
//	stylesheets: [/styles/page.css]
//	---
//	<h1>{{ .Title }}</h1>
//
// Pages without the fence are all body.
package frontmatter

import (
	"bytes"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

const fence = "---"

// Meta is the metadata block of a page.
type Meta struct {
	Title       string           `yaml:"title"`
	Description string           `yaml:"description"`
	Prerender   *bool            `yaml:"prerender"`
	Entries     []map[string]any `yaml:"entries"`
	Stylesheets []string         `yaml:"stylesheets"`
}

// Prerenderable reports whether the page may be exported statically.
// Pages are prerendered unless they opt out.
func (m Meta) Prerenderable() bool {
	return m.Prerender == nil || *m.Prerender
}

// StringEntries returns the entries with every value formatted as a string,
// so "id: 3" and "id: '3'" are the same entry.
func (m Meta) StringEntries() []map[string]string {
	if len(m.Entries) == 0 {
		return nil
	}
	out := make([]map[string]string, 0, len(m.Entries))
	for _, e := range m.Entries {
		keys := make([]string, 0, len(e))
		for k := range e {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		row := make(map[string]string, len(e))
		for _, k := range keys {
			row[k] = fmt.Sprint(e[k])
		}
		out = append(out, row)
	}
	return out
}

// Page is a parsed page source.
type Page struct {
	Meta Meta

	// Body is the source after the metadata block.
	Body []byte

	// BodyLine is the 1-based line of src where Body starts.
	BodyLine int
}

// Parse splits src into metadata and body. A fence that is opened but
// never closed is an error.
func Parse(src []byte) (*Page, error) {
	page := &Page{Body: src, BodyLine: 1}

	rest, ok := cutLine(src, fence)
	if !ok {
		return page, nil
	}

	line := 2
	var meta []byte
	for len(rest) > 0 {
		var current []byte
		current, rest = nextLine(rest)
		if string(bytes.TrimRight(current, "\r")) == fence {
			if err := yaml.Unmarshal(meta, &page.Meta); err != nil {
				return nil, fmt.Errorf("front matter: %w", err)
			}
			page.Body = rest
			page.BodyLine = line + 1
			return page, nil
		}
		meta = append(meta, current...)
		meta = append(meta, '\n')
		line++
	}
	return nil, fmt.Errorf("front matter: missing closing %q", fence)
}

// cutLine reports whether the first line of src is exactly want and
// returns the remainder.
func cutLine(src []byte, want string) ([]byte, bool) {
	first, rest := nextLine(src)
	if string(bytes.TrimRight(first, "\r")) != want {
		return src, false
	}
	return rest, true
}

func nextLine(src []byte) (line, rest []byte) {
	if i := bytes.IndexByte(src, '\n'); i >= 0 {
		return src[:i], src[i+1:]
	}
	return src, nil
}
