// Package templates scaffolds new vizsite projects.
//
// # Available Templates
//
//   - minimal: one page charting one dataset
//   - site: a layout, a stylesheet and several datasets and chart kinds
//
// # Usage
//
//	tmpl, err := templates.Get("site")
//	if err != nil {
//	    return err
//	}
//	err = tmpl.Create(projectDir, templates.Config{
//	    ProjectName: "CSCI5609GP",
//	    Base:        "/CSCI5609GP",
//	})
//
// # Template Variables
//
// Scaffold files are text/template sources with [[ ]] delimiters, so the
// {{ }} actions of the generated pages pass through untouched:
//
//	[[.ProjectName]]  - name of the project
//	[[.Description]]  - project description
//	[[.Base]]         - production base path
package templates
