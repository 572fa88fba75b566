// Package routes enumerates the pages of a site and expands them into the
// concrete pathnames an export must render.
//
// Routes come from a directory of page sources. The file name decides the
// URL:
//
//	index.html              → /
//	movies.html             → /movies
//	climate/index.md        → /climate
//	blog/[slug].html        → /blog/:slug
//	items/[id:int].html     → /items/:id
//	docs/[...path].html     → /docs/*path
//
// Files starting with "_" (layouts, partials) and hidden files are not
// routes. Dynamic routes list the parameter values to export in their
// front matter:
//
//	---
//	entries:
//	  - slug: co2
//	  - slug: movies
//	---
//
// A static export has no server to fall back on, so a dynamic route without
// entries, or a page that opts out with "prerender: false", fails the build.
package routes
