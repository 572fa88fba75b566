// Package dev serves exported sites locally.
//
// It has two users:
//   - vizsite preview, which serves the production output under its base
//     path exactly as a static host would
//   - vizsite dev, which builds in development mode into .vizsite/dev,
//     serves that build, watches the sources and rebuilds on change
//
// # Live reload protocol
//
// Pages served by the dev server load a small script that connects to
// /_vizsite/reload over WebSocket. Messages are JSON:
//
//	{"type": "reload"}                // full page reload
//	{"type": "css", "file": "x.css"}  // refetch stylesheets
//	{"type": "error", "error": "..."} // show the build error overlay
//	{"type": "clear"}                 // hide the overlay
//
// The script is injected by the server and is never part of a build.
package dev
