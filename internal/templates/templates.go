package templates

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"text/template"

	"github.com/vango-dev/vizsite/internal/config"
	"github.com/vango-dev/vizsite/internal/errors"
	"github.com/vango-dev/vizsite/pkg/routepath"
)

// Config contains template configuration.
type Config struct {
	// ProjectName is the name of the project.
	ProjectName string

	// Description is a short project description.
	Description string

	// Base is the production base path, "" for the domain root.
	Base string
}

// Template is a project scaffold.
type Template struct {
	// Name is the template name.
	Name string

	// Description describes the template.
	Description string

	// Files maps slash-separated paths to file contents.
	Files map[string]string
}

var templates = map[string]*Template{
	"minimal": minimalTemplate(),
	"site":    siteTemplate(),
}

// Get returns a template by name.
func Get(name string) (*Template, error) {
	tmpl, ok := templates[name]
	if !ok {
		return nil, errors.New(errors.CodeTemplateNotFound).
			WithDetail(fmt.Sprintf("Template %q not found.", name)).
			WithSuggestion("Available templates: minimal, site")
	}
	return tmpl, nil
}

// List returns all template names, sorted.
func List() []string {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Create writes the project into dir, including its vizsite.json.
func (t *Template) Create(dir string, cfg Config) error {
	if err := routepath.ValidateBase(cfg.Base); err != nil {
		return errors.Configuration(err.Error())
	}

	for relPath, content := range t.Files {
		tmpl, err := template.New(relPath).Delims("[[", "]]").Parse(content)
		if err != nil {
			return errors.Newf(errors.CategoryCLI, "invalid template %s: %v", relPath, err)
		}

		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, cfg); err != nil {
			return errors.Newf(errors.CategoryCLI, "template execute error %s: %v", relPath, err)
		}

		fullPath := filepath.Join(dir, filepath.FromSlash(relPath))
		if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(fullPath, buf.Bytes(), 0644); err != nil {
			return err
		}
	}

	project := config.New()
	project.Name = cfg.ProjectName
	project.Base[config.ModeProduction] = cfg.Base
	return project.SaveTo(filepath.Join(dir, config.ConfigFileName))
}

const robots = "User-agent: *\nAllow: /\n"

const co2CSV = `year,ppm
1960,316.91
1970,325.68
1980,338.76
1990,354.39
2000,369.71
2010,389.90
2020,414.24
`

const gitignore = `/build/
/.vizsite/
.DS_Store
`

func minimalTemplate() *Template {
	return &Template{
		Name:        "minimal",
		Description: "One page charting one dataset",
		Files: map[string]string{
			".gitignore":        gitignore,
			"static/robots.txt": robots,
			"static/co2.csv":    co2CSV,
			"src/routes/index.html": `---
title: [[.ProjectName]]
description: [[.Description]]
---
<h1>{{ .Title }}</h1>
{{ chart "line" "/co2.csv" "x" "year" "y" "ppm" "title" "Atmospheric CO₂ (ppm)" }}
<p><a href="{{ asset "/co2.csv" }}">Download the data</a></p>
`,
		},
	}
}

func siteTemplate() *Template {
	return &Template{
		Name:        "site",
		Description: "Layout, stylesheet and several chart kinds",
		Files: map[string]string{
			".gitignore":        gitignore,
			"static/robots.txt": robots,
			"static/co2.csv":    co2CSV,
			"static/emissions.csv": `state,year,total
California,2000,381.2
California,2020,303.8
Texas,2000,652.4
Texas,2020,636.5
Florida,2000,237.3
Florida,2020,215.2
`,
			"static/site.css": `body {
  font-family: system-ui, sans-serif;
  margin: 0 auto;
  max-width: 960px;
  padding: 0 1rem 4rem;
}

figure.chart {
  margin: 2rem 0;
}
`,
			"src/routes/_layout.html": `<header>
  <nav><a href="/">[[.ProjectName]]</a> <a href="/about">About</a></nav>
</header>
<main>
{{ .Content }}
</main>
`,
			"src/routes/index.html": `---
title: [[.ProjectName]]
description: [[.Description]]
stylesheets:
  - /site.css
---
<h1>{{ .Title }}</h1>
{{ chart "line" "/co2.csv" "x" "year" "y" "ppm" "title" "Atmospheric CO₂ (ppm)" }}
{{ chart "bar" "/emissions.csv" "x" "state" "y" "total" "color" "state" }}
{{ chart "heatmap" "/emissions.csv" "x" "year" "y" "state" "value" "total" }}
`,
			"src/routes/about.md": `---
title: About
stylesheets:
  - /site.css
---
# About [[.ProjectName]]

[[.Description]]

The charts are drawn in the browser from the CSV files in [the data folder](/co2.csv).
`,
		},
	}
}
