// Package export prerenders a site into a deployable static directory.
//
// The export enumerates every route, renders each concrete pathname, and
// rewrites every internal URL under the base path the site is deployed at.
// A reference that does not resolve to an exported page, a catalog asset
// or a generated file stops the build, so a finished export has no
// dangling links.
//
// # Usage
//
//	builder, err := export.New(export.Options{
//	    Routes:  routes.NewScanner(os.DirFS("src/routes")),
//	    Pages:   os.DirFS("src/routes"),
//	    Catalog: catalog,
//	    Base:    "/CSCI5609GP",
//	    Output:  "build",
//	})
//	result, err := builder.Build(ctx)
//
// # Output Structure
//
//	build/
//	├── index.html          # "/"
//	├── movies.html         # "/movies" (movies/index.html with trailingSlash "always")
//	├── co2.csv             # static assets, mirrored
//	└── _app/
//	    ├── charts.js       # chart runtime
//	    └── manifest.json   # pages, assets and generated files
//
// The output is written to a staging directory next to the target and
// swapped in only when every step succeeded; a failed build leaves the
// previous output untouched. Identical inputs produce byte-identical
// trees.
package export
